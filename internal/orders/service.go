package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/internal/notifications"
	"github.com/sidaputra/dapurlink-backend/pkg/config"
	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
	"github.com/sidaputra/dapurlink-backend/pkg/metrics"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox/payloads"
)

// Service is the yayasan's approval gate plus the order read side.
type Service interface {
	Approve(ctx context.Context, input DecisionInput) (*OrderDTO, error)
	Reject(ctx context.Context, input RejectInput) (*OrderDTO, error)
	Complete(ctx context.Context, input DecisionInput) (*OrderDTO, error)
	ListDapurOrders(ctx context.Context, dapurUserID uuid.UUID) ([]OrderDTO, error)
	GetDapurOrder(ctx context.Context, dapurUserID, orderID uuid.UUID) (*OrderDTO, error)
	ListPending(ctx context.Context, yayasanID uuid.UUID) ([]OrderDTO, error)
	GetYayasanDetail(ctx context.Context, yayasanID, orderID uuid.UUID) (*YayasanDetailDTO, error)
}

// DecisionInput identifies the yayasan actor deciding on an order.
type DecisionInput struct {
	YayasanID   uuid.UUID
	ActorUserID uuid.UUID
	OrderID     uuid.UUID
}

// RejectInput adds the optional rejection reason shown to the kitchen.
type RejectInput struct {
	DecisionInput
	Reason string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type recipientDirectory interface {
	ListIDsByYayasanRole(ctx context.Context, yayasanID uuid.UUID, role enums.ActorRole) ([]uuid.UUID, error)
	ListIDsByVendor(ctx context.Context, vendorID uuid.UUID) ([]uuid.UUID, error)
}

// ServiceParams collects the approval-gate dependencies.
type ServiceParams struct {
	Repo    *Repository
	Users   recipientDirectory
	Fanout  *notifications.Fanout
	Outbox  *outbox.Service
	Tx      txRunner
	Policy  config.PolicyConfig
	Metrics *metrics.LifecycleMetrics
}

type service struct {
	repo    *Repository
	users   recipientDirectory
	fanout  *notifications.Fanout
	outbox  *outbox.Service
	tx      txRunner
	policy  config.PolicyConfig
	metrics *metrics.LifecycleMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
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
		repo:    params.Repo,
		users:   params.Users,
		fanout:  params.Fanout,
		outbox:  params.Outbox,
		tx:      params.Tx,
		policy:  params.Policy,
		metrics: params.Metrics,
	}, nil
}

// Approve flips the order to approved and fans out one pending fulfillment
// per distinct vendor. Re-approving repairs missing fan-out rows without
// duplicating anything or re-notifying anyone.
func (s *service) Approve(ctx context.Context, input DecisionInput) (*OrderDTO, error) {
	var (
		result       *OrderDTO
		transitioned bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOwnedForUpdate(ctx, repo, input.YayasanID, input.OrderID)
		if err != nil {
			return err
		}

		firstApproval := order.Status == enums.OrderStatusAwaitingYayasan
		transitioned = firstApproval
		if !firstApproval && order.Status != enums.OrderStatusApprovedYayasan {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting approval")
		}

		if firstApproval {
			if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusApprovedYayasan); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
			}
			order.Status = enums.OrderStatusApprovedYayasan
		}

		vendorIDs, err := repo.DistinctVendorIDs(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve order vendors")
		}
		if err := repo.FanOutFulfillments(ctx, order.ID, vendorIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fan out fulfillments")
		}

		actor := yayasanActor(input.ActorUserID, input.YayasanID)
		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderApproved,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: payloads.OrderApprovedEvent{
				OrderID:   order.ID,
				YayasanID: input.YayasanID,
				VendorIDs: vendorIDs,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue approval event")
		}

		if firstApproval {
			for _, vendorID := range vendorIDs {
				recipients, err := s.users.ListIDsByVendor(ctx, vendorID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve vendor recipients")
				}
				if err := s.fanout.Notify(ctx, tx, notifications.Notice{
					Recipients: recipients,
					OrderID:    order.ID,
					Type:       enums.NotificationTypeVendorNewOrder,
					Actor:      actor,
					Payload:    payloads.OrderApprovedEvent{OrderID: order.ID, YayasanID: input.YayasanID, VendorIDs: []uuid.UUID{vendorID}},
				}); err != nil {
					return err
				}
			}
			if err := s.fanout.Notify(ctx, tx, notifications.Notice{
				Recipients: []uuid.UUID{order.DapurUserID},
				OrderID:    order.ID,
				Type:       enums.NotificationTypeYayasanApproved,
				Actor:      actor,
			}); err != nil {
				return err
			}
		}

		result = FromModel(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil && transitioned {
		s.metrics.IncTransition(enums.OrderStatusApprovedYayasan.String())
	}
	return result, nil
}

// Reject runs with the same lock and ownership rigor as Approve.
func (s *service) Reject(ctx context.Context, input RejectInput) (*OrderDTO, error) {
	var result *OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOwnedForUpdate(ctx, repo, input.YayasanID, input.OrderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(enums.OrderStatusRejectedYayasan) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting approval")
		}

		if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusRejectedYayasan); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = enums.OrderStatusRejectedYayasan

		actor := yayasanActor(input.ActorUserID, input.YayasanID)
		event := payloads.OrderRejectedEvent{
			OrderID:   order.ID,
			YayasanID: input.YayasanID,
			Reason:    input.Reason,
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRejected,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data:          event,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue rejection event")
		}

		if err := s.fanout.Notify(ctx, tx, notifications.Notice{
			Recipients: []uuid.UUID{order.DapurUserID},
			OrderID:    order.ID,
			Type:       enums.NotificationTypeYayasanRejected,
			Actor:      actor,
			Payload:    event,
		}); err != nil {
			return err
		}

		result = FromModel(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncTransition(enums.OrderStatusRejectedYayasan.String())
	}
	return result, nil
}

// Complete closes the order. By default it demands at least one shipment as
// fulfillment evidence; the policy knob relaxes that for deployments that
// complete orders on paper trails alone.
func (s *service) Complete(ctx context.Context, input DecisionInput) (*OrderDTO, error) {
	var result *OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOwnedForUpdate(ctx, repo, input.YayasanID, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already completed")
		}
		if !order.Status.CanTransitionTo(enums.OrderStatusCompleted) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order must be approved before completion")
		}

		if s.policy.CompletionRequireShipment {
			count, err := repo.CountShipments(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count shipments")
			}
			if count == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no shipment evidence")
			}
		}

		if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCompleted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = enums.OrderStatusCompleted

		actor := yayasanActor(input.ActorUserID, input.YayasanID)
		completedAt := time.Now().UTC()
		event := payloads.OrderCompletedEvent{
			OrderID:     order.ID,
			YayasanID:   input.YayasanID,
			CompletedAt: completedAt,
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data:          event,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue completion event")
		}

		if err := s.fanout.Notify(ctx, tx, notifications.Notice{
			Recipients: []uuid.UUID{order.DapurUserID},
			OrderID:    order.ID,
			Type:       enums.NotificationTypeOrderCompleted,
			Actor:      actor,
			Payload:    event,
		}); err != nil {
			return err
		}

		result = FromModel(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncTransition(enums.OrderStatusCompleted.String())
	}
	return result, nil
}

func (s *service) ListDapurOrders(ctx context.Context, dapurUserID uuid.UUID) ([]OrderDTO, error) {
	if dapurUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListByDapurUser(ctx, dapurUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) GetDapurOrder(ctx context.Context, dapurUserID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.DapurUserID != dapurUserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return FromModel(order), nil
}

func (s *service) ListPending(ctx context.Context, yayasanID uuid.UUID) ([]OrderDTO, error) {
	if yayasanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "yayasan id required")
	}
	rows, err := s.repo.ListPendingByYayasan(ctx, yayasanID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// GetYayasanDetail assembles the approval-side view: order, per-vendor
// progress with shipment summaries, and the fan-in flags.
func (s *service) GetYayasanDetail(ctx context.Context, yayasanID, orderID uuid.UUID) (*YayasanDetailDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.YayasanID != yayasanID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	fulfillments, err := s.repo.ListFulfillments(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fulfillments")
	}
	shipments, err := s.repo.ListShipments(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	confirmed, err := s.repo.HasConfirmation(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check confirmation")
	}

	shipmentByVendor := make(map[uuid.UUID]*models.Shipment, len(shipments))
	for i := range shipments {
		shipmentByVendor[shipments[i].VendorID] = &shipments[i]
	}

	detail := &YayasanDetailDTO{
		Order:          *FromModel(order),
		Vendors:        make([]VendorProgressDTO, 0, len(fulfillments)),
		AllVendorsDone: len(fulfillments) > 0,
		Confirmed:      confirmed,
	}
	for _, ff := range fulfillments {
		progress := VendorProgressDTO{VendorID: ff.VendorID, Status: ff.Status}
		if shipment, ok := shipmentByVendor[ff.VendorID]; ok {
			progress.Shipment = &ShipmentSummaryDTO{
				ID:           shipment.ID,
				ShippedAt:    shipment.ShippedAt,
				VehiclePlate: shipment.VehiclePlate,
				SenderName:   shipment.SenderName,
				Note:         shipment.Note,
				DocumentPath: shipment.DocumentPath,
				Locked:       shipment.EditLock != nil,
			}
		}
		if ff.Status != enums.FulfillmentStatusShipped {
			detail.AllVendorsDone = false
		}
		detail.Vendors = append(detail.Vendors, progress)
	}
	return detail, nil
}

// loadOwnedForUpdate locks the order row and hides foreign orders behind
// not-found so existence never leaks across yayasans.
func (s *service) loadOwnedForUpdate(ctx context.Context, repo *Repository, yayasanID, orderID uuid.UUID) (*models.Order, error) {
	if yayasanID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "yayasan and order ids required")
	}
	order, err := repo.FindByIDForUpdate(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.YayasanID != yayasanID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func yayasanActor(userID, yayasanID uuid.UUID) *outbox.ActorRef {
	ref := &outbox.ActorRef{UserID: userID, Role: enums.ActorRoleYayasan.String()}
	if yayasanID != uuid.Nil {
		y := yayasanID
		ref.YayasanID = &y
	}
	return ref
}
