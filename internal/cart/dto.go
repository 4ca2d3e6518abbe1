package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemDTO is one staged line with its display subtotal.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ViewDTO is the full cart as shown to the kitchen. An empty cart is a
// valid state, not an error.
type ViewDTO struct {
	CartID    *uuid.UUID      `json:"cart_id,omitempty"`
	Items     []ItemDTO       `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// SummaryDTO is the lightweight response returned by add.
type SummaryDTO struct {
	CartID    uuid.UUID       `json:"cart_id"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}
