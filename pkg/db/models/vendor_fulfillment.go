package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

// VendorFulfillment tracks one vendor's progress on its slice of an order.
// Rows are created only at approval time, one per distinct vendor.
type VendorFulfillment struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID               `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_fulfillment_order_vendor"`
	VendorID  uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:uq_fulfillment_order_vendor"`
	Status    enums.FulfillmentStatus `gorm:"column:status;type:fulfillment_status;not null;default:'pending'"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
