package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sidaputra/dapurlink-backend/pkg/db"
	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
)

// Repository wraps persistence for orders and their immutable line items.
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

// Create inserts the order header together with its line items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads the order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindHeader loads the order row without its items.
func (r *Repository) FindHeader(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate loads the order header under a row lock. Callers hold
// the lock for the rest of their transaction; items are loaded separately.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := db.LockForUpdate(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus flips the order header status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListByDapurUser returns the kitchen's own orders, newest first.
func (r *Repository) ListByDapurUser(ctx context.Context, dapurUserID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("dapur_user_id = ?", dapurUserID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// ListPendingByYayasan returns orders still awaiting the yayasan's decision.
func (r *Repository) ListPendingByYayasan(ctx context.Context, yayasanID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("yayasan_id = ? AND status = ?", yayasanID, enums.OrderStatusAwaitingYayasan).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// ListItems loads the full line-item set of an order.
func (r *Repository) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// ListItemsByVendor loads only the slice of an order owned by one vendor.
// This is the isolation boundary for vendor-facing reads.
func (r *Repository) ListItemsByVendor(ctx context.Context, orderID, vendorID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND vendor_id = ?", orderID, vendorID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// FanOutFulfillments inserts one pending fulfillment row per vendor.
// Conflicting (order, vendor) rows are skipped, so re-approval never
// duplicates or resets a vendor's progress.
func (r *Repository) FanOutFulfillments(ctx context.Context, orderID uuid.UUID, vendorIDs []uuid.UUID) error {
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

// ListFulfillments returns the per-vendor progress rows for the order.
func (r *Repository) ListFulfillments(ctx context.Context, orderID uuid.UUID) ([]models.VendorFulfillment, error) {
	var rows []models.VendorFulfillment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// ListShipments returns every vendor's shipment for the order.
func (r *Repository) ListShipments(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error) {
	var rows []models.Shipment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// CountShipments reports how much dispatch evidence exists for the order.
func (r *Repository) CountShipments(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

// HasConfirmation reports whether the order's delivery was attested.
func (r *Repository) HasConfirmation(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DeliveryConfirmation{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count > 0, err
}

// DistinctVendorIDs returns every vendor referenced by the order's items.
func (r *Repository) DistinctVendorIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Distinct("vendor_id").
		Pluck("vendor_id", &ids).Error
	return ids, err
}
