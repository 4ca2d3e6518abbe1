package delivery

import (
	"time"

	"github.com/google/uuid"

	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
)

// ConfirmationDTO is the recorded delivery attestation.
type ConfirmationDTO struct {
	ID             uuid.UUID `json:"id"`
	OrderID        uuid.UUID `json:"order_id"`
	DapurUserID    uuid.UUID `json:"dapur_user_id"`
	YayasanID      uuid.UUID `json:"yayasan_id"`
	ArrivedAt      time.Time `json:"arrived_at"`
	ReceiverName   string    `json:"receiver_name"`
	Notes          *string   `json:"notes,omitempty"`
	SignaturePath  string    `json:"signature_path"`
	ProofPhotoPath *string   `json:"proof_photo_path,omitempty"`
	DocumentPath   *string   `json:"document_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func confirmationDTO(row *models.DeliveryConfirmation) *ConfirmationDTO {
	if row == nil {
		return nil
	}
	return &ConfirmationDTO{
		ID:             row.ID,
		OrderID:        row.OrderID,
		DapurUserID:    row.DapurUserID,
		YayasanID:      row.YayasanID,
		ArrivedAt:      row.ArrivedAt,
		ReceiverName:   row.ReceiverName,
		Notes:          row.Notes,
		SignaturePath:  row.SignaturePath,
		ProofPhotoPath: row.ProofPhotoPath,
		CreatedAt:      row.CreatedAt,
	}
}
