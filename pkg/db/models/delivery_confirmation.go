package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryConfirmation is the terminal human-attested event of the delivery
// phase. At most one exists per order; a second insert must fail.
type DeliveryConfirmation struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_confirmation_order"`
	DapurUserID    uuid.UUID `gorm:"column:dapur_user_id;type:uuid;not null"`
	YayasanID      uuid.UUID `gorm:"column:yayasan_id;type:uuid;not null;index"`
	ArrivedAt      time.Time `gorm:"column:arrived_at;not null"`
	ReceiverName   string    `gorm:"column:receiver_name;not null"`
	Notes          *string   `gorm:"column:notes"`
	SignaturePath  string    `gorm:"column:signature_path;not null"`
	ProofPhotoPath *string   `gorm:"column:proof_photo_path"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
