package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/internal/cart"
	"github.com/sidaputra/dapurlink-backend/internal/notifications"
	"github.com/sidaputra/dapurlink-backend/internal/orders"
	"github.com/sidaputra/dapurlink-backend/internal/products"
	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
	"github.com/sidaputra/dapurlink-backend/pkg/metrics"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox/payloads"
)

// Service converts a kitchen's cart into an immutable order.
type Service interface {
	Execute(ctx context.Context, input ExecuteInput) (*orders.OrderDTO, error)
}

// ExecuteInput identifies the kitchen actor performing checkout.
type ExecuteInput struct {
	DapurUserID uuid.UUID
	YayasanID   uuid.UUID
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type yayasanRecipients interface {
	ListIDsByYayasanRole(ctx context.Context, yayasanID uuid.UUID, role enums.ActorRole) ([]uuid.UUID, error)
}

// ServiceParams collects the checkout dependencies.
type ServiceParams struct {
	Carts    *cart.Repository
	Orders   *orders.Repository
	Products *products.Repository
	Users    yayasanRecipients
	Fanout   *notifications.Fanout
	Outbox   *outbox.Service
	Tx       txRunner
	Metrics  *metrics.LifecycleMetrics
}

type service struct {
	carts    *cart.Repository
	orders   *orders.Repository
	products *products.Repository
	users    yayasanRecipients
	fanout   *notifications.Fanout
	outbox   *outbox.Service
	tx       txRunner
	metrics  *metrics.LifecycleMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil || params.Orders == nil || params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout repositories required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user directory required")
	}
	if params.Fanout == nil || params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "fanout and outbox required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		carts:    params.Carts,
		orders:   params.Orders,
		products: params.Products,
		users:    params.Users,
		fanout:   params.Fanout,
		outbox:   params.Outbox,
		tx:       params.Tx,
		metrics:  params.Metrics,
	}, nil
}

// Execute runs the whole conversion in one transaction: the order and its
// items appear, the yayasan is notified, and the cart is consumed, or none
// of it happens and the cart stays intact for a retry.
func (s *service) Execute(ctx context.Context, input ExecuteInput) (*orders.OrderDTO, error) {
	if input.DapurUserID == uuid.Nil || input.YayasanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user and yayasan ids required")
	}
	start := time.Now()

	var result *orders.OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)

		staged, err := cartRepo.FindActiveByUserForUpdate(ctx, input.DapurUserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(staged.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		items, total, err := s.buildOrderItems(ctx, tx, input.YayasanID, staged.Items)
		if err != nil {
			return err
		}

		order := &models.Order{
			DapurUserID: input.DapurUserID,
			YayasanID:   input.YayasanID,
			Status:      enums.OrderStatusAwaitingYayasan,
			Total:       total,
			Items:       items,
		}
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}

		actor := &outbox.ActorRef{
			UserID:    input.DapurUserID,
			YayasanID: &input.YayasanID,
			Role:      enums.ActorRoleDapur.String(),
		}
		event := payloads.OrderCreatedEvent{
			OrderID:     order.ID,
			DapurUserID: input.DapurUserID,
			YayasanID:   input.YayasanID,
			Total:       total,
			ItemCount:   len(items),
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data:          event,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order event")
		}

		recipients, err := s.users.ListIDsByYayasanRole(ctx, input.YayasanID, enums.ActorRoleYayasan)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve yayasan recipients")
		}
		if err := s.fanout.Notify(ctx, tx, notifications.Notice{
			Recipients: recipients,
			OrderID:    order.ID,
			Type:       enums.NotificationTypeYayasanPending,
			Actor:      actor,
			Payload:    event,
		}); err != nil {
			return err
		}

		if err := cartRepo.Consume(ctx, staged.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume cart")
		}

		result = orders.FromModel(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncTransition(enums.OrderStatusAwaitingYayasan.String())
		s.metrics.ObserveCheckout(time.Since(start))
	}
	return result, nil
}

// buildOrderItems freezes the staged lines into order items. Every line must
// resolve to a live product, and every product must belong to the caller's
// yayasan; a cart spanning organizations can never become an order.
func (s *service) buildOrderItems(ctx context.Context, tx *gorm.DB, yayasanID uuid.UUID, staged []models.CartItem) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(staged))
	for _, item := range staged {
		ids = append(ids, item.ProductID)
	}
	rows, err := s.products.WithTx(tx).FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve cart products")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	organizations := make(map[uuid.UUID]struct{})
	items := make([]models.OrderItem, 0, len(staged))
	total := decimal.Zero
	for _, line := range staged {
		product, ok := byID[line.ProductID]
		if !ok || !product.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, "a cart item is no longer available")
		}
		organizations[product.YayasanID] = struct{}{}

		subtotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(subtotal)
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			VendorID:  product.VendorID,
			Name:      product.Name,
			Unit:      product.Unit,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	if len(organizations) > 1 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, "cart items span multiple organizations")
	}
	if _, ok := organizations[yayasanID]; !ok {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, "cart items belong to a different organization")
	}
	return items, total, nil
}
