package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

type contextKey string

const ctxActor contextKey = "actor"

// Actor is the authenticated principal every handler scopes its work to.
// VendorID is set only for vendor and driver tokens.
type Actor struct {
	UserID    uuid.UUID
	Role      enums.ActorRole
	YayasanID uuid.UUID
	VendorID  *uuid.UUID
}

// ActorFromContext returns the authenticated actor, or nil outside the
// auth middleware.
func ActorFromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	if actor, ok := ctx.Value(ctxActor).(*Actor); ok {
		return actor
	}
	return nil
}

// WithActor injects the actor into the context. Exposed for handler tests.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}
