package notifications

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox/payloads"
)

// Notice is one notification fanned out to a set of recipients.
type Notice struct {
	Recipients []uuid.UUID
	OrderID    uuid.UUID
	Type       enums.NotificationType
	Actor      *outbox.ActorRef
	Payload    any
}

// Fanout appends notification rows and queues their outbox events inside the
// caller's transaction. Lifecycle services call it as the last step of each
// state change so the rows commit or roll back with the change itself.
type Fanout struct {
	repo   Repository
	outbox *outbox.Service
}

func NewFanout(repo Repository, outboxSvc *outbox.Service) (*Fanout, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox service required")
	}
	return &Fanout{repo: repo, outbox: outboxSvc}, nil
}

// Notify inserts one notification per distinct recipient and queues a
// notification_requested event for each. Per-recipient failures are
// aggregated; any failure aborts the surrounding transaction.
func (f *Fanout) Notify(ctx context.Context, tx *gorm.DB, notice Notice) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if !notice.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	if notice.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	payload, err := json.Marshal(notice.Payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding notification payload")
	}
	if notice.Payload == nil {
		payload = []byte("{}")
	}

	repo := f.repo.WithTx(tx)
	var errs error
	for _, userID := range dedupe(notice.Recipients) {
		row := models.Notification{
			ID:      uuid.New(),
			UserID:  userID,
			OrderID: notice.OrderID,
			Type:    notice.Type,
			Payload: json.RawMessage(payload),
		}
		if err := repo.Create(ctx, &row); err != nil {
			errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert notification"))
			continue
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   row.ID,
			Actor:         notice.Actor,
			Data: payloads.NotificationRequestedEvent{
				NotificationID: row.ID,
				UserID:         userID,
				OrderID:        notice.OrderID,
				Type:           notice.Type,
			},
		}
		if err := f.outbox.Emit(ctx, tx, event); err != nil {
			errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue notification event"))
		}
	}
	return errs
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
