package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/internal/cart"
	"github.com/sidaputra/dapurlink-backend/internal/notifications"
	"github.com/sidaputra/dapurlink-backend/internal/orders"
	"github.com/sidaputra/dapurlink-backend/internal/products"
	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubRecipients struct {
	ids []uuid.UUID
	err error
}

func (s stubRecipients) ListIDsByYayasanRole(ctx context.Context, yayasanID uuid.UUID, role enums.ActorRole) ([]uuid.UUID, error) {
	return s.ids, s.err
}

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  dapur_user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`,
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  yayasan_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  unit TEXT NOT NULL DEFAULT 'pcs',
  price NUMERIC NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  dapur_user_id TEXT NOT NULL,
  yayasan_id TEXT NOT NULL,
  status TEXT NOT NULL,
  total NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit TEXT NOT NULL DEFAULT 'pcs',
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  type TEXT NOT NULL,
  payload TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func newTestCheckoutService(t *testing.T, db *gorm.DB, recipients yayasanRecipients) Service {
	t.Helper()

	outboxSvc := outbox.NewService(outbox.NewRepository(db), nil)
	fanout, err := notifications.NewFanout(notifications.NewRepository(db), outboxSvc)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Carts:    cart.NewRepository(db),
		Orders:   orders.NewRepository(db),
		Products: products.NewRepository(db),
		Users:    recipients,
		Fanout:   fanout,
		Outbox:   outboxSvc,
		Tx:       gormTxRunner{db: db},
	})
	require.NoError(t, err)
	return svc
}

func seedCartWithProduct(t *testing.T, db *gorm.DB, userID, yayasanID uuid.UUID, qty int, price int64) models.Product {
	t.Helper()

	product := models.Product{
		ID:        uuid.New(),
		VendorID:  uuid.New(),
		YayasanID: yayasanID,
		Name:      "Beras",
		Unit:      "sak",
		Price:     decimal.NewFromInt(price),
		IsActive:  true,
	}
	require.NoError(t, db.Create(&product).Error)

	staged := models.Cart{ID: uuid.New(), DapurUserID: userID, Status: enums.CartStatusActive}
	require.NoError(t, db.Create(&staged).Error)
	item := models.CartItem{
		ID:        uuid.New(),
		CartID:    staged.ID,
		ProductID: product.ID,
		VendorID:  product.VendorID,
		Quantity:  qty,
		UnitPrice: product.Price,
	}
	require.NoError(t, db.Create(&item).Error)
	return product
}

func TestExecuteConvertsCartToOrder(t *testing.T) {
	db := setupCheckoutTestDB(t)
	userID := uuid.New()
	yayasanID := uuid.New()
	yayasanUser := uuid.New()
	svc := newTestCheckoutService(t, db, stubRecipients{ids: []uuid.UUID{yayasanUser}})

	seedCartWithProduct(t, db, userID, yayasanID, 2, 1000)

	order, err := svc.Execute(context.Background(), ExecuteInput{DapurUserID: userID, YayasanID: yayasanID})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusAwaitingYayasan, order.Status)
	require.True(t, order.Total.Equal(decimal.NewFromInt(2000)))
	require.Len(t, order.Items, 1)
	require.Equal(t, 2, order.Items[0].Quantity)
	require.Equal(t, "Beras", order.Items[0].Name)

	// Cart is consumed: no active cart, no staged items left.
	var itemCount int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&itemCount).Error)
	require.Zero(t, itemCount)
	var converted models.Cart
	require.NoError(t, db.First(&converted).Error)
	require.Equal(t, enums.CartStatusConverted, converted.Status)

	// The yayasan reviewer was notified inside the same transaction.
	var note models.Notification
	require.NoError(t, db.First(&note, "user_id = ?", yayasanUser).Error)
	require.Equal(t, enums.NotificationTypeYayasanPending, note.Type)
	require.Equal(t, order.ID, note.OrderID)

	var eventTypes []string
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Order("created_at ASC").
		Pluck("event_type", &eventTypes).Error)
	require.Contains(t, eventTypes, string(enums.EventOrderCreated))
	require.Contains(t, eventTypes, string(enums.EventNotificationRequested))
}

func TestExecuteEmptyCart(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newTestCheckoutService(t, db, stubRecipients{})

	_, err := svc.Execute(context.Background(), ExecuteInput{DapurUserID: uuid.New(), YayasanID: uuid.New()})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestExecuteRejectsMixedOrganizations(t *testing.T) {
	db := setupCheckoutTestDB(t)
	userID := uuid.New()
	yayasanID := uuid.New()
	svc := newTestCheckoutService(t, db, stubRecipients{})

	seedCartWithProduct(t, db, userID, yayasanID, 1, 1000)

	// Sneak a second line whose product belongs to another organization.
	foreign := models.Product{
		ID:        uuid.New(),
		VendorID:  uuid.New(),
		YayasanID: uuid.New(),
		Name:      "Asing",
		Unit:      "pcs",
		Price:     decimal.NewFromInt(500),
		IsActive:  true,
	}
	require.NoError(t, db.Create(&foreign).Error)
	var staged models.Cart
	require.NoError(t, db.First(&staged, "dapur_user_id = ?", userID).Error)
	require.NoError(t, db.Create(&models.CartItem{
		ID:        uuid.New(),
		CartID:    staged.ID,
		ProductID: foreign.ID,
		VendorID:  foreign.VendorID,
		Quantity:  1,
		UnitPrice: foreign.Price,
	}).Error)

	_, err := svc.Execute(context.Background(), ExecuteInput{DapurUserID: userID, YayasanID: yayasanID})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	// The cart survives untouched for a retry.
	var itemCount int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", staged.ID).Count(&itemCount).Error)
	require.EqualValues(t, 2, itemCount)
	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)
}

func TestExecuteRollsBackOnFanoutFailure(t *testing.T) {
	db := setupCheckoutTestDB(t)
	userID := uuid.New()
	yayasanID := uuid.New()
	svc := newTestCheckoutService(t, db, stubRecipients{err: gorm.ErrInvalidDB})

	seedCartWithProduct(t, db, userID, yayasanID, 3, 1000)

	_, err := svc.Execute(context.Background(), ExecuteInput{DapurUserID: userID, YayasanID: yayasanID})
	require.Error(t, err)

	// Nothing escaped the transaction: no order, cart fully intact.
	var orderCount, itemCount, eventCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Count(&itemCount).Error)
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&eventCount).Error)
	require.Zero(t, orderCount)
	require.EqualValues(t, 1, itemCount)
	require.Zero(t, eventCount)

	var staged models.Cart
	require.NoError(t, db.First(&staged, "dapur_user_id = ?", userID).Error)
	require.Equal(t, enums.CartStatusActive, staged.Status)
}
