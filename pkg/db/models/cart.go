package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

// Cart holds a kitchen's pending line items until checkout converts them.
type Cart struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DapurUserID uuid.UUID        `gorm:"column:dapur_user_id;type:uuid;not null;index"`
	Status      enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
