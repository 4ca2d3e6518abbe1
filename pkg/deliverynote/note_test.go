package deliverynote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sidaputra/dapurlink-backend/pkg/config"
)

func TestBuildRequestFillsPlaceholders(t *testing.T) {
	orderID := uuid.New()
	arrived := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	req := BuildRequest(NoteInput{
		OrderID:           orderID,
		DapurName:         "Dapur Melati",
		ReceiverName:      "Siti",
		ArrivedAt:         arrived,
		ReceiverSignature: "signatures/abc.png",
	})

	require.Equal(t, orderID.String(), req.OrderID)
	require.Equal(t, "Dapur Melati", req.DapurName)
	require.Equal(t, "Siti", req.ReceiverName)
	require.Equal(t, "2026-03-14T09:30:00Z", req.ArrivedAt)

	// Absent optionals render a placeholder, never an empty slot.
	require.Equal(t, Placeholder, req.YayasanName)
	require.Equal(t, Placeholder, req.VendorName)
	require.Equal(t, Placeholder, req.VehiclePlate)
	require.Equal(t, Placeholder, req.SenderName)
	require.Equal(t, Placeholder, req.ShippedAt)
	require.Equal(t, Placeholder, req.Notes)
	require.Equal(t, Placeholder, req.SenderSignature)
	require.Equal(t, Placeholder, req.ProofPhoto)
	require.NotNil(t, req.Items)
	require.Empty(t, req.Items)
}

func TestBuildRequestKeepsProvidedOptionals(t *testing.T) {
	shipped := time.Date(2026, 3, 13, 16, 0, 0, 0, time.UTC)
	senderSig := "signatures/sender.png"
	proof := "proof-photos/door.jpg"

	req := BuildRequest(NoteInput{
		OrderID:      uuid.New(),
		VendorName:   "CV Sumber Pangan",
		VehiclePlate: "B 1234 XYZ",
		SenderName:   "Budi",
		ShippedAt:    &shipped,
		ArrivedAt:    time.Now(),
		Items: []NoteItem{
			{Name: "Beras", Unit: "kg", Quantity: 10, UnitPrice: decimal.NewFromInt(12000)},
		},
		SenderSignature: &senderSig,
		ProofPhoto:      &proof,
	})

	require.Equal(t, "2026-03-13T16:00:00Z", req.ShippedAt)
	require.Equal(t, senderSig, req.SenderSignature)
	require.Equal(t, proof, req.ProofPhoto)
	require.Len(t, req.Items, 1)
}

func TestHTTPRendererRender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/render", r.URL.Path)

		var req RenderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.OrderID)

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	renderer, err := NewHTTPRenderer(config.RendererConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)

	image, err := renderer.Render(context.Background(), BuildRequest(NoteInput{
		OrderID:   uuid.New(),
		ArrivedAt: time.Now(),
	}))
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), image)
}

func TestHTTPRendererRenderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "template exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	renderer, err := NewHTTPRenderer(config.RendererConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)

	_, err = renderer.Render(context.Background(), RenderRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 500")
}
