package controllers

import (
	"net/http"

	"github.com/sidaputra/dapurlink-backend/api/responses"
	"github.com/sidaputra/dapurlink-backend/api/validators"
	"github.com/sidaputra/dapurlink-backend/internal/auth"
	"github.com/sidaputra/dapurlink-backend/pkg/logger"
)

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
