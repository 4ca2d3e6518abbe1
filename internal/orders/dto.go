package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

// ItemDTO is one immutable order line.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	VendorID  uuid.UUID       `json:"vendor_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the kitchen-facing order view. Vendor sub-status is
// deliberately absent here; kitchens see the order-level status only.
type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	DapurUserID uuid.UUID         `json:"dapur_user_id"`
	YayasanID   uuid.UUID         `json:"yayasan_id"`
	Status      enums.OrderStatus `json:"status"`
	Total       decimal.Decimal   `json:"total"`
	Items       []ItemDTO         `json:"items,omitempty"`
	ItemCount   int               `json:"item_count"`
	CreatedAt   time.Time         `json:"created_at"`
}

// VendorProgressDTO is one vendor's slice in the yayasan detail view.
type VendorProgressDTO struct {
	VendorID uuid.UUID               `json:"vendor_id"`
	Status   enums.FulfillmentStatus `json:"status"`
	Shipment *ShipmentSummaryDTO     `json:"shipment,omitempty"`
}

// ShipmentSummaryDTO is the shipment as seen by the yayasan.
type ShipmentSummaryDTO struct {
	ID           uuid.UUID `json:"id"`
	ShippedAt    time.Time `json:"shipped_at"`
	VehiclePlate string    `json:"vehicle_plate"`
	SenderName   string    `json:"sender_name"`
	Note         *string   `json:"note,omitempty"`
	DocumentPath *string   `json:"document_path,omitempty"`
	Locked       bool      `json:"locked"`
}

// YayasanDetailDTO is the approval-side order view with per-vendor progress.
type YayasanDetailDTO struct {
	Order          OrderDTO            `json:"order"`
	Vendors        []VendorProgressDTO `json:"vendors"`
	AllVendorsDone bool                `json:"all_vendors_done"`
	Confirmed      bool                `json:"confirmed"`
}

func itemDTO(item models.OrderItem) ItemDTO {
	return ItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		VendorID:  item.VendorID,
		Name:      item.Name,
		Unit:      item.Unit,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		Subtotal:  item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}
}

// FromModel converts an order row, including any preloaded items.
func FromModel(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:          order.ID,
		DapurUserID: order.DapurUserID,
		YayasanID:   order.YayasanID,
		Status:      order.Status,
		Total:       order.Total,
		ItemCount:   len(order.Items),
		CreatedAt:   order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, itemDTO(item))
	}
	return dto
}
