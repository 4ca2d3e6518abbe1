package fulfillment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/internal/notifications"
	"github.com/sidaputra/dapurlink-backend/internal/orders"
	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox/payloads"
	"github.com/sidaputra/dapurlink-backend/pkg/storage"
)

// Service tracks vendor progress on approved orders and records shipments.
type Service interface {
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*StatusDTO, error)
	RecordShipment(ctx context.Context, input RecordShipmentInput) (*ShipmentDTO, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID) ([]VendorOrderDTO, error)
}

// UpdateStatusInput requests a direct fulfillment status change. The only
// transition this path accepts is pending to preparing; shipped is reached
// exclusively through RecordShipment.
type UpdateStatusInput struct {
	VendorID    uuid.UUID
	ActorUserID uuid.UUID
	OrderID     uuid.UUID
	Status      enums.FulfillmentStatus
}

// StatusDTO reports the fulfillment row after a transition.
type StatusDTO struct {
	OrderID  uuid.UUID               `json:"order_id"`
	VendorID uuid.UUID               `json:"vendor_id"`
	Status   enums.FulfillmentStatus `json:"status"`
}

// RecordShipmentInput carries the dispatch record for one vendor's slice.
type RecordShipmentInput struct {
	VendorID               uuid.UUID
	ActorUserID            uuid.UUID
	OrderID                uuid.UUID
	ShippedAt              time.Time
	VehiclePlate           string
	SenderName             string
	SenderContact          *string
	Note                   *string
	AttachmentDataURL      *string
	SenderSignatureDataURL *string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type yayasanRecipients interface {
	ListIDsByYayasanRole(ctx context.Context, yayasanID uuid.UUID, role enums.ActorRole) ([]uuid.UUID, error)
}

// ServiceParams collects the fulfillment service dependencies.
type ServiceParams struct {
	Repo   *Repository
	Orders *orders.Repository
	Users  yayasanRecipients
	Fanout *notifications.Fanout
	Outbox *outbox.Service
	Store  storage.Store
	Tx     txRunner
}

type service struct {
	repo   *Repository
	orders *orders.Repository
	users  yayasanRecipients
	fanout *notifications.Fanout
	outbox *outbox.Service
	store  storage.Store
	tx     txRunner
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil || params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "fulfillment repositories required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user directory required")
	}
	if params.Fanout == nil || params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "fanout and outbox required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "blob store required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo:   params.Repo,
		orders: params.Orders,
		users:  params.Users,
		fanout: params.Fanout,
		outbox: params.Outbox,
		store:  params.Store,
		tx:     params.Tx,
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*StatusDTO, error) {
	if input.VendorID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor and order ids required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fulfillment status")
	}
	if input.Status != enums.FulfillmentStatusPreparing {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only the preparing transition can be requested directly")
	}

	var result *StatusDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		row, err := repo.FindForUpdate(ctx, input.OrderID, input.VendorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not assigned to this vendor")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fulfillment")
		}
		if row.Status != enums.FulfillmentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "fulfillment is no longer pending")
		}

		if err := repo.UpdateStatus(ctx, row.ID, enums.FulfillmentStatusPreparing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update fulfillment status")
		}

		order, err := s.orders.WithTx(tx).FindHeader(ctx, input.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		actor := s.actorRef(input.ActorUserID, input.VendorID, order.YayasanID)
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventFulfillmentPreparing,
			AggregateType: enums.AggregateFulfillment,
			AggregateID:   row.ID,
			Actor:         actor,
			Data: payloads.FulfillmentPreparingEvent{
				OrderID:  input.OrderID,
				VendorID: input.VendorID,
				Status:   enums.FulfillmentStatusPreparing,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue fulfillment event")
		}

		if err := s.notifyYayasan(ctx, tx, order, enums.NotificationTypeVendorPreparing, actor, nil); err != nil {
			return err
		}

		result = &StatusDTO{
			OrderID:  input.OrderID,
			VendorID: input.VendorID,
			Status:   enums.FulfillmentStatusPreparing,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordShipment creates the shipment on first call and consumes the single
// permitted edit on the second. Any write after that fails with the lock
// error and leaves the stored values untouched.
func (s *service) RecordShipment(ctx context.Context, input RecordShipmentInput) (*ShipmentDTO, error) {
	if input.VendorID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor and order ids required")
	}
	if input.ShippedAt.IsZero() || strings.TrimSpace(input.VehiclePlate) == "" || strings.TrimSpace(input.SenderName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipped_at, vehicle plate and sender name are required")
	}

	attachmentPath, err := s.storeUpload(ctx, storage.CategoryShipmentAttachment, input.AttachmentDataURL)
	if err != nil {
		return nil, err
	}
	signaturePath, err := s.storeUpload(ctx, storage.CategorySignature, input.SenderSignatureDataURL)
	if err != nil {
		return nil, err
	}

	var result *ShipmentDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.orders.WithTx(tx).FindByIDForUpdate(ctx, input.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already finalized")
		}

		ff, err := repo.FindForUpdate(ctx, input.OrderID, input.VendorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not assigned to this vendor")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fulfillment")
		}

		shipment, err := repo.FindShipmentForUpdate(ctx, input.OrderID, input.VendorID)
		edited := false
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			shipment = &models.Shipment{
				OrderID:             input.OrderID,
				VendorID:            input.VendorID,
				ShippedAt:           input.ShippedAt,
				VehiclePlate:        strings.TrimSpace(input.VehiclePlate),
				SenderName:          strings.TrimSpace(input.SenderName),
				SenderContact:       input.SenderContact,
				Note:                input.Note,
				AttachmentPath:      attachmentPath,
				SenderSignaturePath: signaturePath,
			}
			if err := repo.CreateShipment(ctx, shipment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert shipment")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		case shipment.EditLock != nil:
			return pkgerrors.New(pkgerrors.CodeEditLocked, "shipment cannot be modified; single edit allowance already used")
		default:
			edited = true
			shipment.ShippedAt = input.ShippedAt
			shipment.VehiclePlate = strings.TrimSpace(input.VehiclePlate)
			shipment.SenderName = strings.TrimSpace(input.SenderName)
			shipment.SenderContact = input.SenderContact
			shipment.Note = input.Note
			if attachmentPath != nil {
				shipment.AttachmentPath = attachmentPath
			}
			if signaturePath != nil {
				shipment.SenderSignaturePath = signaturePath
			}
			lock := editLockToken(time.Now())
			shipment.EditLock = &lock
			if err := repo.SaveShipment(ctx, shipment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment")
			}
		}

		if ff.Status.CanTransitionTo(enums.FulfillmentStatusShipped) {
			if err := repo.UpdateStatus(ctx, ff.ID, enums.FulfillmentStatusShipped); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark fulfillment shipped")
			}
		}

		eventType := enums.EventShipmentRecorded
		if edited {
			eventType = enums.EventShipmentEdited
		}
		actor := s.actorRef(input.ActorUserID, input.VendorID, order.YayasanID)
		event := payloads.ShipmentRecordedEvent{
			ShipmentID:    shipment.ID,
			OrderID:       input.OrderID,
			VendorID:      input.VendorID,
			ShippedAt:     shipment.ShippedAt,
			VehiclePlate:  shipment.VehiclePlate,
			HasAttachment: shipment.AttachmentPath != nil,
			Edited:        edited,
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipment.ID,
			Actor:         actor,
			Data:          event,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue shipment event")
		}

		noticeType := enums.NotificationTypeVendorShipped
		if shipment.AttachmentPath != nil {
			noticeType = enums.NotificationTypeVendorShippedWithDoc
		}
		if err := s.notifyYayasan(ctx, tx, order, noticeType, actor, event); err != nil {
			return err
		}

		result = shipmentDTO(shipment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListVendorOrders returns the vendor's assigned orders with only its own
// line items and shipment attached.
func (s *service) ListVendorOrders(ctx context.Context, vendorID uuid.UUID) ([]VendorOrderDTO, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}

	rows, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fulfillments")
	}

	out := make([]VendorOrderDTO, 0, len(rows))
	for _, row := range rows {
		order, err := s.orders.FindHeader(ctx, row.OrderID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		items, err := s.orders.ListItemsByVendor(ctx, row.OrderID, vendorID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}

		dto := VendorOrderDTO{
			OrderID:           row.OrderID,
			OrderStatus:       order.Status,
			FulfillmentStatus: row.Status,
			Items:             make([]orders.ItemDTO, 0, len(items)),
			Subtotal:          decimal.Zero,
			CreatedAt:         row.CreatedAt,
		}
		for _, item := range items {
			line := orders.ItemDTO{
				ID:        item.ID,
				ProductID: item.ProductID,
				VendorID:  item.VendorID,
				Name:      item.Name,
				Unit:      item.Unit,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Subtotal:  item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			}
			dto.Items = append(dto.Items, line)
			dto.Subtotal = dto.Subtotal.Add(line.Subtotal)
		}

		shipment, err := s.repo.FindShipment(ctx, row.OrderID, vendorID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if err == nil {
			dto.Shipment = shipmentDTO(shipment)
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *service) storeUpload(ctx context.Context, category storage.Category, dataURL *string) (*string, error) {
	if dataURL == nil || strings.TrimSpace(*dataURL) == "" {
		return nil, nil
	}
	data, ext, err := storage.DecodeDataURL(*dataURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload payload")
	}
	key, err := s.store.Save(ctx, category, "upload"+ext, data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload")
	}
	return &key, nil
}

func (s *service) notifyYayasan(ctx context.Context, tx *gorm.DB, order *models.Order, noticeType enums.NotificationType, actor *outbox.ActorRef, payload any) error {
	recipients, err := s.users.ListIDsByYayasanRole(ctx, order.YayasanID, enums.ActorRoleYayasan)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve yayasan recipients")
	}
	return s.fanout.Notify(ctx, tx, notifications.Notice{
		Recipients: recipients,
		OrderID:    order.ID,
		Type:       noticeType,
		Actor:      actor,
		Payload:    payload,
	})
}

func (s *service) actorRef(userID, vendorID, yayasanID uuid.UUID) *outbox.ActorRef {
	ref := &outbox.ActorRef{UserID: userID, Role: enums.ActorRoleVendor.String()}
	if vendorID != uuid.Nil {
		v := vendorID
		ref.VendorID = &v
	}
	if yayasanID != uuid.Nil {
		y := yayasanID
		ref.YayasanID = &y
	}
	return ref
}

// editLockToken derives the consumed-edit marker from the wall clock.
func editLockToken(now time.Time) string {
	return "edited:" + now.UTC().Format(time.RFC3339Nano)
}
