package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

// OrderCreatedEvent signals a checkout converted a cart into an order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	DapurUserID uuid.UUID       `json:"dapur_user_id"`
	YayasanID   uuid.UUID       `json:"yayasan_id"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
}

// OrderApprovedEvent is emitted when the yayasan approves an order.
type OrderApprovedEvent struct {
	OrderID   uuid.UUID   `json:"order_id"`
	YayasanID uuid.UUID   `json:"yayasan_id"`
	VendorIDs []uuid.UUID `json:"vendor_ids"`
}

// OrderRejectedEvent is emitted when the yayasan rejects an order.
type OrderRejectedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	YayasanID uuid.UUID `json:"yayasan_id"`
	Reason    string    `json:"reason,omitempty"`
}

// OrderCompletedEvent closes out the order lifecycle.
type OrderCompletedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	YayasanID   uuid.UUID `json:"yayasan_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// FulfillmentPreparingEvent reports a vendor moving to preparing.
type FulfillmentPreparingEvent struct {
	OrderID  uuid.UUID               `json:"order_id"`
	VendorID uuid.UUID               `json:"vendor_id"`
	Status   enums.FulfillmentStatus `json:"status"`
}

// ShipmentRecordedEvent reports a vendor's shipment create or edit.
type ShipmentRecordedEvent struct {
	ShipmentID    uuid.UUID `json:"shipment_id"`
	OrderID       uuid.UUID `json:"order_id"`
	VendorID      uuid.UUID `json:"vendor_id"`
	ShippedAt     time.Time `json:"shipped_at"`
	VehiclePlate  string    `json:"vehicle_plate"`
	HasAttachment bool      `json:"has_attachment"`
	Edited        bool      `json:"edited"`
}

// DeliveryConfirmedEvent marks the write-once delivery attestation.
type DeliveryConfirmedEvent struct {
	ConfirmationID uuid.UUID `json:"confirmation_id"`
	OrderID        uuid.UUID `json:"order_id"`
	YayasanID      uuid.UUID `json:"yayasan_id"`
	ReceiverName   string    `json:"receiver_name"`
	ArrivedAt      time.Time `json:"arrived_at"`
	DocumentPath   *string   `json:"document_path,omitempty"`
}

// NotificationRequestedEvent tells downstream channels to alert a user.
type NotificationRequestedEvent struct {
	NotificationID uuid.UUID              `json:"notification_id"`
	UserID         uuid.UUID              `json:"user_id"`
	OrderID        uuid.UUID              `json:"order_id"`
	Type           enums.NotificationType `json:"type"`
}
