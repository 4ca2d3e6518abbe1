package delivery

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
)

// Repository wraps persistence for delivery confirmations and the display
// lookups the rendered note needs.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the write-once confirmation row. The unique index on
// order_id is the final guard against a concurrent double confirm.
func (r *Repository) Create(ctx context.Context, confirmation *models.DeliveryConfirmation) error {
	if confirmation.ID == uuid.Nil {
		confirmation.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(confirmation).Error
}

// FindByOrder loads the confirmation for an order, if any.
func (r *Repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.DeliveryConfirmation, error) {
	var row models.DeliveryConfirmation
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByYayasan returns the yayasan's confirmations, newest first.
func (r *Repository) ListByYayasan(ctx context.Context, yayasanID uuid.UUID) ([]models.DeliveryConfirmation, error) {
	var rows []models.DeliveryConfirmation
	err := r.db.WithContext(ctx).
		Where("yayasan_id = ?", yayasanID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// YayasanName resolves the organization name for the delivery note.
// Lookup failures degrade to an empty string; the note renders a
// placeholder instead.
func (r *Repository) YayasanName(ctx context.Context, id uuid.UUID) string {
	var name string
	r.db.WithContext(ctx).
		Model(&models.Yayasan{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("name", &name)
	return name
}

// UserName resolves a user's display name, empty when unknown.
func (r *Repository) UserName(ctx context.Context, id uuid.UUID) string {
	var name string
	r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("name", &name)
	return name
}

// VendorName resolves a vendor's display name, empty when unknown.
func (r *Repository) VendorName(ctx context.Context, id uuid.UUID) string {
	var name string
	r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("name", &name)
	return name
}
