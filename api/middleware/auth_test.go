package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/sidaputra/dapurlink-backend/pkg/auth"
	"github.com/sidaputra/dapurlink-backend/pkg/config"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "dapurlink-test",
		ExpirationMinutes: 30,
	}
}

func TestAuthSeedsActor(t *testing.T) {
	cfg := testJWTConfig()
	vendorID := uuid.New()
	payload := pkgauth.AccessTokenPayload{
		UserID:    uuid.New(),
		Role:      enums.ActorRoleVendor,
		YayasanID: uuid.New(),
		VendorID:  &vendorID,
	}
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), payload)
	require.NoError(t, err)

	var captured *Actor
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	require.Equal(t, payload.UserID, captured.UserID)
	require.Equal(t, enums.ActorRoleVendor, captured.Role)
	require.Equal(t, payload.YayasanID, captured.YayasanID)
	require.NotNil(t, captured.VendorID)
	require.Equal(t, vendorID, *captured.VendorID)
}

func TestAuthRejectsMissingAndGarbageTokens(t *testing.T) {
	cfg := testJWTConfig()
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireRole(nil, enums.ActorRoleYayasan)(next)

	actor := &Actor{UserID: uuid.New(), Role: enums.ActorRoleDapur, YayasanID: uuid.New()}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/yayasan/orders/pending", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithActor(req.Context(), actor)))
	require.Equal(t, http.StatusForbidden, rec.Code)

	actor.Role = enums.ActorRoleYayasan
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithActor(req.Context(), actor)))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireVendorContext(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireVendorContext(nil)(next)

	// A vendor token without a vendor id never reaches the handler.
	actor := &Actor{UserID: uuid.New(), Role: enums.ActorRoleVendor, YayasanID: uuid.New()}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithActor(req.Context(), actor)))
	require.Equal(t, http.StatusForbidden, rec.Code)

	vendorID := uuid.New()
	actor.VendorID = &vendorID
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithActor(req.Context(), actor)))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Drivers share the vendor context.
	actor.Role = enums.ActorRoleDriver
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithActor(req.Context(), actor)))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
