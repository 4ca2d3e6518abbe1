package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	Role      enums.ActorRole
	YayasanID uuid.UUID
	VendorID  *uuid.UUID
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID    uuid.UUID       `json:"user_id"`
	Role      enums.ActorRole `json:"role"`
	YayasanID uuid.UUID       `json:"yayasan_id"`
	VendorID  *uuid.UUID      `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}
