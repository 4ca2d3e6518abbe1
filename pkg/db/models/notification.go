package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

// Notification is an append-only in-app notification row. The core never
// mutates or deletes these; ReadAt is the only field touched after insert.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID   uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Payload   json.RawMessage        `gorm:"column:payload;type:jsonb;not null"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
