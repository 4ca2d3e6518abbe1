package controllers

import (
	"net/http"
	"time"

	"github.com/sidaputra/dapurlink-backend/api/responses"
	"github.com/sidaputra/dapurlink-backend/api/validators"
	"github.com/sidaputra/dapurlink-backend/internal/delivery"
	"github.com/sidaputra/dapurlink-backend/pkg/logger"
)

type confirmDeliveryRequest struct {
	ArrivedAt    time.Time `json:"arrived_at"`
	ReceiverName string    `json:"receiver_name" validate:"required"`
	Notes        *string   `json:"notes,omitempty"`
	Signature    string    `json:"signature" validate:"required"`
	ProofPhoto   *string   `json:"proof_photo,omitempty"`
}

// DeliveryConfirm records the write-once arrival attestation. Kitchens,
// vendors, and drivers all land here; the service sorts out who may act.
func DeliveryConfirm(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req confirmDeliveryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		confirmation, err := svc.Confirm(r.Context(), delivery.ConfirmInput{
			ActorUserID:      actor.UserID,
			ActorRole:        actor.Role,
			VendorID:         actor.VendorID,
			OrderID:          orderID,
			ArrivedAt:        req.ArrivedAt,
			ReceiverName:     req.ReceiverName,
			Notes:            req.Notes,
			SignatureDataURL: req.Signature,
			ProofPhotoURL:    req.ProofPhoto,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}
