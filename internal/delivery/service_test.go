package delivery

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"path"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/internal/fulfillment"
	"github.com/sidaputra/dapurlink-backend/internal/notifications"
	"github.com/sidaputra/dapurlink-backend/internal/orders"
	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/deliverynote"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
	"github.com/sidaputra/dapurlink-backend/pkg/logger"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox"
	"github.com/sidaputra/dapurlink-backend/pkg/storage"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubRecipients struct {
	ids []uuid.UUID
}

func (s stubRecipients) ListIDsByYayasanRole(ctx context.Context, yayasanID uuid.UUID, role enums.ActorRole) ([]uuid.UUID, error) {
	return s.ids, nil
}

type memStore struct {
	saved int
}

func (m *memStore) Save(ctx context.Context, category storage.Category, name string, data []byte) (string, error) {
	m.saved++
	return path.Join(string(category), uuid.NewString()+path.Ext(name)), nil
}

func (m *memStore) Read(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (m *memStore) Delete(ctx context.Context, key string) error         { return nil }
func (m *memStore) PublicURL(key string) string                          { return key }
func (m *memStore) Ping(ctx context.Context) error                       { return nil }

type stubRenderer struct {
	fail     bool
	rendered int
}

func (r *stubRenderer) Render(ctx context.Context, req deliverynote.RenderRequest) ([]byte, error) {
	if r.fail {
		return nil, errors.New("render backend unavailable")
	}
	r.rendered++
	return []byte("rendered-note"), nil
}

func setupDeliveryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
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
		`CREATE TABLE IF NOT EXISTS vendor_fulfillments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (order_id, vendor_id)
);`,
		`CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  shipped_at DATETIME NOT NULL,
  vehicle_plate TEXT NOT NULL,
  sender_name TEXT NOT NULL,
  sender_contact TEXT,
  note TEXT,
  attachment_path TEXT,
  sender_signature_path TEXT,
  document_path TEXT,
  edit_lock TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (order_id, vendor_id)
);`,
		`CREATE TABLE IF NOT EXISTS delivery_confirmations (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  dapur_user_id TEXT NOT NULL,
  yayasan_id TEXT NOT NULL,
  arrived_at DATETIME NOT NULL,
  receiver_name TEXT NOT NULL,
  notes TEXT,
  signature_path TEXT NOT NULL,
  proof_photo_path TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS yayasans (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT,
  phone TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  yayasan_id TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  address TEXT,
  phone TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
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

func newTestDeliveryService(t *testing.T, db *gorm.DB, store storage.Store, renderer deliverynote.Renderer) Service {
	t.Helper()

	outboxSvc := outbox.NewService(outbox.NewRepository(db), nil)
	fanout, err := notifications.NewFanout(notifications.NewRepository(db), outboxSvc)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(db),
		Orders:       orders.NewRepository(db),
		Fulfillments: fulfillment.NewRepository(db),
		Users:        stubRecipients{ids: []uuid.UUID{uuid.New()}},
		Fanout:       fanout,
		Outbox:       outboxSvc,
		Store:        store,
		Renderer:     renderer,
		Tx:           gormTxRunner{db: db},
		Logger:       logger.New(logger.Options{ServiceName: "delivery-test", Level: zerolog.Disabled, Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

// seedShippedOrder builds an approved single-vendor order whose shipment
// was recorded but never edited, the common state at confirmation time.
func seedShippedOrder(t *testing.T, db *gorm.DB) (models.Order, uuid.UUID, models.Shipment) {
	t.Helper()

	vendorID := uuid.New()
	order := models.Order{
		ID:          uuid.New(),
		DapurUserID: uuid.New(),
		YayasanID:   uuid.New(),
		Status:      enums.OrderStatusApprovedYayasan,
		Total:       decimal.NewFromInt(2000),
	}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, db.Create(&models.OrderItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ProductID: uuid.New(),
		VendorID:  vendorID,
		Name:      "Beras",
		Unit:      "sak",
		Quantity:  2,
		UnitPrice: decimal.NewFromInt(1000),
	}).Error)
	require.NoError(t, db.Create(&models.VendorFulfillment{
		ID:       uuid.New(),
		OrderID:  order.ID,
		VendorID: vendorID,
		Status:   enums.FulfillmentStatusShipped,
	}).Error)

	shipment := models.Shipment{
		ID:           uuid.New(),
		OrderID:      order.ID,
		VendorID:     vendorID,
		ShippedAt:    time.Now().UTC().Truncate(time.Second),
		VehiclePlate: "B123",
		SenderName:   "Budi",
	}
	require.NoError(t, db.Create(&shipment).Error)
	return order, vendorID, shipment
}

func signatureDataURL(t *testing.T) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("signature-bytes"))
}

func TestConfirmRecordsAttestation(t *testing.T) {
	db := setupDeliveryTestDB(t)
	store := &memStore{}
	renderer := &stubRenderer{}
	svc := newTestDeliveryService(t, db, store, renderer)
	ctx := context.Background()

	order, vendorID, shipment := seedShippedOrder(t, db)
	require.NoError(t, db.Create(&models.Vendor{ID: vendorID, Name: "CV Sumber Pangan"}).Error)
	require.NoError(t, db.Create(&models.Yayasan{ID: order.YayasanID, Name: "Yayasan Harapan"}).Error)

	dto, err := svc.Confirm(ctx, ConfirmInput{
		ActorUserID:      order.DapurUserID,
		ActorRole:        enums.ActorRoleDapur,
		OrderID:          order.ID,
		ReceiverName:     "Ibu Sari",
		SignatureDataURL: signatureDataURL(t),
	})
	require.NoError(t, err)
	require.Equal(t, order.ID, dto.OrderID)
	require.Equal(t, "Ibu Sari", dto.ReceiverName)
	require.NotEmpty(t, dto.SignaturePath)
	require.NotNil(t, dto.DocumentPath, "note renders on the happy path")
	require.Equal(t, 1, renderer.rendered)

	var row models.DeliveryConfirmation
	require.NoError(t, db.First(&row, "order_id = ?", order.ID).Error)
	require.Equal(t, "Ibu Sari", row.ReceiverName)

	// Confirmation consumes the shipment's remaining edit allowance and
	// carries the rendered note path onto the shipment.
	var ship models.Shipment
	require.NoError(t, db.First(&ship, "id = ?", shipment.ID).Error)
	require.NotNil(t, ship.EditLock)
	require.NotNil(t, ship.DocumentPath)

	var note models.Notification
	require.NoError(t, db.First(&note, "order_id = ?", order.ID).Error)
	require.Equal(t, enums.NotificationTypeDeliveryConfirmed, note.Type)

	var eventCount int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventDeliveryConfirmed).
		Count(&eventCount).Error)
	require.EqualValues(t, 1, eventCount)
}

func TestConfirmIsWriteOnce(t *testing.T) {
	db := setupDeliveryTestDB(t)
	svc := newTestDeliveryService(t, db, &memStore{}, &stubRenderer{})
	ctx := context.Background()

	order, _, _ := seedShippedOrder(t, db)
	first := ConfirmInput{
		ActorUserID:      order.DapurUserID,
		ActorRole:        enums.ActorRoleDapur,
		OrderID:          order.ID,
		ReceiverName:     "Ibu Sari",
		SignatureDataURL: signatureDataURL(t),
	}
	_, err := svc.Confirm(ctx, first)
	require.NoError(t, err)

	second := first
	second.ReceiverName = "Pak Joko"
	_, err = svc.Confirm(ctx, second)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	// The original attestation is untouched.
	var rows []models.DeliveryConfirmation
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, "Ibu Sari", rows[0].ReceiverName)
}

func TestConfirmValidation(t *testing.T) {
	db := setupDeliveryTestDB(t)
	svc := newTestDeliveryService(t, db, &memStore{}, &stubRenderer{})
	ctx := context.Background()

	order, _, _ := seedShippedOrder(t, db)

	_, err := svc.Confirm(ctx, ConfirmInput{
		ActorUserID:  order.DapurUserID,
		ActorRole:    enums.ActorRoleDapur,
		OrderID:      order.ID,
		ReceiverName: "Ibu Sari",
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Confirm(ctx, ConfirmInput{
		ActorUserID:      order.DapurUserID,
		ActorRole:        enums.ActorRoleDapur,
		OrderID:          order.ID,
		SignatureDataURL: signatureDataURL(t),
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestConfirmSurvivesRenderFailure(t *testing.T) {
	db := setupDeliveryTestDB(t)
	svc := newTestDeliveryService(t, db, &memStore{}, &stubRenderer{fail: true})
	ctx := context.Background()

	order, _, shipment := seedShippedOrder(t, db)

	dto, err := svc.Confirm(ctx, ConfirmInput{
		ActorUserID:      order.DapurUserID,
		ActorRole:        enums.ActorRoleDapur,
		OrderID:          order.ID,
		ReceiverName:     "Ibu Sari",
		SignatureDataURL: signatureDataURL(t),
	})
	require.NoError(t, err, "rendering failure never voids the confirmation")
	require.Nil(t, dto.DocumentPath)

	var row models.DeliveryConfirmation
	require.NoError(t, db.First(&row, "order_id = ?", order.ID).Error)

	var ship models.Shipment
	require.NoError(t, db.First(&ship, "id = ?", shipment.ID).Error)
	require.Nil(t, ship.DocumentPath)
	require.NotNil(t, ship.EditLock, "the lock is part of the transaction, not the render")
}

func TestConfirmActorScoping(t *testing.T) {
	db := setupDeliveryTestDB(t)
	svc := newTestDeliveryService(t, db, &memStore{}, &stubRenderer{})
	ctx := context.Background()

	order, vendorID, _ := seedShippedOrder(t, db)

	// A kitchen user who does not own the order never learns it exists.
	_, err := svc.Confirm(ctx, ConfirmInput{
		ActorUserID:      uuid.New(),
		ActorRole:        enums.ActorRoleDapur,
		OrderID:          order.ID,
		ReceiverName:     "Ibu Sari",
		SignatureDataURL: signatureDataURL(t),
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	// A driver for an unassigned vendor is also shut out.
	strangerVendor := uuid.New()
	_, err = svc.Confirm(ctx, ConfirmInput{
		ActorUserID:      uuid.New(),
		ActorRole:        enums.ActorRoleDriver,
		VendorID:         &strangerVendor,
		OrderID:          order.ID,
		ReceiverName:     "Ibu Sari",
		SignatureDataURL: signatureDataURL(t),
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	// The assigned vendor's driver may confirm on site.
	dto, err := svc.Confirm(ctx, ConfirmInput{
		ActorUserID:      uuid.New(),
		ActorRole:        enums.ActorRoleDriver,
		VendorID:         &vendorID,
		OrderID:          order.ID,
		ReceiverName:     "Ibu Sari",
		SignatureDataURL: signatureDataURL(t),
	})
	require.NoError(t, err)
	require.Equal(t, order.ID, dto.OrderID)
}

func TestListConfirmationsScopedToYayasan(t *testing.T) {
	db := setupDeliveryTestDB(t)
	svc := newTestDeliveryService(t, db, &memStore{}, &stubRenderer{})
	ctx := context.Background()

	orderA, _, _ := seedShippedOrder(t, db)
	orderB, _, _ := seedShippedOrder(t, db)

	for _, order := range []models.Order{orderA, orderB} {
		_, err := svc.Confirm(ctx, ConfirmInput{
			ActorUserID:      order.DapurUserID,
			ActorRole:        enums.ActorRoleDapur,
			OrderID:          order.ID,
			ReceiverName:     "Ibu Sari",
			SignatureDataURL: signatureDataURL(t),
		})
		require.NoError(t, err)
	}

	listed, err := svc.ListConfirmations(ctx, orderA.YayasanID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, orderA.ID, listed[0].OrderID)
}
