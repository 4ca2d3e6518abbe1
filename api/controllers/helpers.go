package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sidaputra/dapurlink-backend/api/middleware"
	"github.com/sidaputra/dapurlink-backend/api/responses"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
	"github.com/sidaputra/dapurlink-backend/pkg/logger"
)

// requireActor fetches the authenticated actor or writes a 401 and reports
// failure. Handlers behind the auth middleware always find one; this guards
// against miswired routes.
func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*middleware.Actor, bool) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return nil, false
	}
	return actor, true
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
