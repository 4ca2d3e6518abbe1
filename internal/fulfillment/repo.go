package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sidaputra/dapurlink-backend/pkg/db"
	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

// Repository wraps persistence for vendor fulfillments and shipments.
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

// UpsertPending inserts one pending fulfillment per vendor for an order.
// Existing (order, vendor) rows are left untouched, which is what makes
// re-approval safe.
func (r *Repository) UpsertPending(ctx context.Context, orderID uuid.UUID, vendorIDs []uuid.UUID) error {
	if len(vendorIDs) == 0 {
		return nil
	}
	rows := make([]models.VendorFulfillment, 0, len(vendorIDs))
	for _, vendorID := range vendorIDs {
		rows = append(rows, models.VendorFulfillment{
			ID:       uuid.New(),
			OrderID:  orderID,
			VendorID: vendorID,
			Status:   enums.FulfillmentStatusPending,
		})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "vendor_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

// FindForUpdate locks the (order, vendor) fulfillment row.
func (r *Repository) FindForUpdate(ctx context.Context, orderID, vendorID uuid.UUID) (*models.VendorFulfillment, error) {
	var row models.VendorFulfillment
	err := db.LockForUpdate(r.db.WithContext(ctx)).
		Where("order_id = ? AND vendor_id = ?", orderID, vendorID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateStatus flips a fulfillment row's status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.FulfillmentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorFulfillment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListByOrder returns every vendor's fulfillment row for the order.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorFulfillment, error) {
	var rows []models.VendorFulfillment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// ListByVendor returns the vendor's fulfillment rows, newest first.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorFulfillment, error) {
	var rows []models.VendorFulfillment
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// FindShipment loads the (order, vendor) shipment row without locking.
func (r *Repository) FindShipment(ctx context.Context, orderID, vendorID uuid.UUID) (*models.Shipment, error) {
	var row models.Shipment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND vendor_id = ?", orderID, vendorID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindShipmentForUpdate locks the (order, vendor) shipment row, if any.
func (r *Repository) FindShipmentForUpdate(ctx context.Context, orderID, vendorID uuid.UUID) (*models.Shipment, error) {
	var row models.Shipment
	err := db.LockForUpdate(r.db.WithContext(ctx)).
		Where("order_id = ? AND vendor_id = ?", orderID, vendorID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateShipment inserts the first and only shipment row for the pair.
func (r *Repository) CreateShipment(ctx context.Context, shipment *models.Shipment) error {
	if shipment.ID == uuid.Nil {
		shipment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(shipment).Error
}

// SaveShipment persists a mutated shipment row.
func (r *Repository) SaveShipment(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Save(shipment).Error
}

// ListShipmentsByOrder returns every vendor's shipment for the order.
func (r *Repository) ListShipmentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error) {
	var rows []models.Shipment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// CountShipmentsByOrder reports how many shipments exist for the order.
func (r *Repository) CountShipmentsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

// AttachDocument records the rendered delivery-note path on the shipment.
func (r *Repository) AttachDocument(ctx context.Context, shipmentID uuid.UUID, path string) error {
	return r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("id = ?", shipmentID).
		Update("document_path", path).Error
}

// FinalizeLocks sets the edit lock on every still-editable shipment of the
// order. Called when delivery is confirmed; shipments already locked keep
// their original token.
func (r *Repository) FinalizeLocks(ctx context.Context, orderID uuid.UUID, token string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("order_id = ? AND edit_lock IS NULL", orderID).
		Update("edit_lock", token)
	return result.RowsAffected, result.Error
}
