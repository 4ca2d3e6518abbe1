package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

// Order is created once, at checkout, from a non-empty cart. Line items are
// immutable history from that point on.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DapurUserID uuid.UUID         `gorm:"column:dapur_user_id;type:uuid;not null;index"`
	YayasanID   uuid.UUID         `gorm:"column:yayasan_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'awaiting_yayasan'"`
	Total       decimal.Decimal   `gorm:"column:total;type:numeric(14,2);not null"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
