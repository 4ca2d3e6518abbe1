package models

import (
	"time"

	"github.com/google/uuid"
)

// Shipment records a vendor's delivery run for one order. EditLock is nil
// while the single permitted edit is still available; once set (consumed or
// finalized) every further write must fail.
type Shipment struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_shipment_order_vendor"`
	VendorID            uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:uq_shipment_order_vendor"`
	ShippedAt           time.Time `gorm:"column:shipped_at;not null"`
	VehiclePlate        string    `gorm:"column:vehicle_plate;not null"`
	SenderName          string    `gorm:"column:sender_name;not null"`
	SenderContact       *string   `gorm:"column:sender_contact"`
	Note                *string   `gorm:"column:note"`
	AttachmentPath      *string   `gorm:"column:attachment_path"`
	SenderSignaturePath *string   `gorm:"column:sender_signature_path"`
	DocumentPath        *string   `gorm:"column:document_path"`
	EditLock            *string   `gorm:"column:edit_lock"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
