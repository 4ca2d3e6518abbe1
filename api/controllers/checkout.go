package controllers

import (
	"net/http"

	"github.com/sidaputra/dapurlink-backend/api/responses"
	"github.com/sidaputra/dapurlink-backend/internal/checkout"
	"github.com/sidaputra/dapurlink-backend/pkg/logger"
)

// CheckoutExecute converts the kitchen's active cart into an order. The
// request carries no body; everything is derived from the actor.
func CheckoutExecute(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		order, err := svc.Execute(r.Context(), checkout.ExecuteInput{
			DapurUserID: actor.UserID,
			YayasanID:   actor.YayasanID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
