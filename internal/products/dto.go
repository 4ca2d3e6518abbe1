package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
)

// ProductDTO represents the vendor product payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	YayasanID   uuid.UUID       `json:"yayasan_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateProductInput holds the vendor request to list a new product.
type CreateProductInput struct {
	Name        string
	Description *string
	Unit        string
	Price       decimal.Decimal
}

// UpdateProductInput holds partial updates; nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Unit        *string
	Price       *decimal.Decimal
	IsActive    *bool
}

func fromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:          p.ID,
		VendorID:    p.VendorID,
		YayasanID:   p.YayasanID,
		Name:        p.Name,
		Description: p.Description,
		Unit:        p.Unit,
		Price:       p.Price,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
