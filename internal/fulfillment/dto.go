package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sidaputra/dapurlink-backend/internal/orders"
	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

// ShipmentDTO is the vendor-facing shipment record.
type ShipmentDTO struct {
	ID                  uuid.UUID `json:"id"`
	OrderID             uuid.UUID `json:"order_id"`
	VendorID            uuid.UUID `json:"vendor_id"`
	ShippedAt           time.Time `json:"shipped_at"`
	VehiclePlate        string    `json:"vehicle_plate"`
	SenderName          string    `json:"sender_name"`
	SenderContact       *string   `json:"sender_contact,omitempty"`
	Note                *string   `json:"note,omitempty"`
	AttachmentPath      *string   `json:"attachment_path,omitempty"`
	SenderSignaturePath *string   `json:"sender_signature_path,omitempty"`
	DocumentPath        *string   `json:"document_path,omitempty"`
	Locked              bool      `json:"locked"`
	CreatedAt           time.Time `json:"created_at"`
}

// VendorOrderDTO is one order as a vendor sees it: only its own line items,
// subtotal, fulfillment status, and shipment. Order-level totals and other
// vendors' data never appear here.
type VendorOrderDTO struct {
	OrderID           uuid.UUID               `json:"order_id"`
	OrderStatus       enums.OrderStatus       `json:"order_status"`
	FulfillmentStatus enums.FulfillmentStatus `json:"fulfillment_status"`
	Items             []orders.ItemDTO        `json:"items"`
	Subtotal          decimal.Decimal         `json:"subtotal"`
	Shipment          *ShipmentDTO            `json:"shipment,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
}

func shipmentDTO(s *models.Shipment) *ShipmentDTO {
	if s == nil {
		return nil
	}
	return &ShipmentDTO{
		ID:                  s.ID,
		OrderID:             s.OrderID,
		VendorID:            s.VendorID,
		ShippedAt:           s.ShippedAt,
		VehiclePlate:        s.VehiclePlate,
		SenderName:          s.SenderName,
		SenderContact:       s.SenderContact,
		Note:                s.Note,
		AttachmentPath:      s.AttachmentPath,
		SenderSignaturePath: s.SenderSignaturePath,
		DocumentPath:        s.DocumentPath,
		Locked:              s.EditLock != nil,
		CreatedAt:           s.CreatedAt,
	}
}
