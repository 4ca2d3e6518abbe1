package notifications

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox"
)

func setupFanoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	notifications := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  type TEXT NOT NULL,
  payload TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`
	outboxEvents := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(notifications).Error)
	require.NoError(t, db.Exec(outboxEvents).Error)
	return db
}

func newTestFanout(t *testing.T, db *gorm.DB) *Fanout {
	t.Helper()

	outboxSvc := outbox.NewService(outbox.NewRepository(db), nil)
	fanout, err := NewFanout(NewRepository(db), outboxSvc)
	require.NoError(t, err)
	return fanout
}

func TestFanoutNotifyCreatesRowsAndEvents(t *testing.T) {
	db := setupFanoutTestDB(t)
	fanout := newTestFanout(t, db)

	orderID := uuid.New()
	userA := uuid.New()
	userB := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return fanout.Notify(context.Background(), tx, Notice{
			Recipients: []uuid.UUID{userA, userB, userA, uuid.Nil},
			OrderID:    orderID,
			Type:       enums.NotificationTypeYayasanPending,
			Payload:    map[string]any{"total": "2000"},
		})
	})
	require.NoError(t, err)

	var rows []models.Notification
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, orderID, row.OrderID)
		require.Equal(t, enums.NotificationTypeYayasanPending, row.Type)
		require.Nil(t, row.ReadAt)
	}

	var events []models.OutboxEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 2)
	for _, event := range events {
		require.Equal(t, enums.EventNotificationRequested, event.EventType)
		require.Equal(t, enums.AggregateNotification, event.AggregateType)
		require.Nil(t, event.PublishedAt)
	}
}

func TestFanoutNotifyRejectsInvalidInput(t *testing.T) {
	db := setupFanoutTestDB(t)
	fanout := newTestFanout(t, db)
	ctx := context.Background()

	err := fanout.Notify(ctx, nil, Notice{
		Recipients: []uuid.UUID{uuid.New()},
		OrderID:    uuid.New(),
		Type:       enums.NotificationTypeOrderCompleted,
	})
	require.Error(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return fanout.Notify(ctx, tx, Notice{
			Recipients: []uuid.UUID{uuid.New()},
			OrderID:    uuid.New(),
			Type:       enums.NotificationType("bogus"),
		})
	})
	require.Error(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return fanout.Notify(ctx, tx, Notice{
			Recipients: []uuid.UUID{uuid.New()},
			Type:       enums.NotificationTypeOrderCompleted,
		})
	})
	require.Error(t, err)
}

func TestFanoutNotifyEmptyRecipientsIsNoop(t *testing.T) {
	db := setupFanoutTestDB(t)
	fanout := newTestFanout(t, db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return fanout.Notify(context.Background(), tx, Notice{
			OrderID: uuid.New(),
			Type:    enums.NotificationTypeDeliveryConfirmed,
		})
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	require.Zero(t, count)
}
