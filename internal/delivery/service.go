package delivery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/internal/fulfillment"
	"github.com/sidaputra/dapurlink-backend/internal/notifications"
	"github.com/sidaputra/dapurlink-backend/internal/orders"
	dbpkg "github.com/sidaputra/dapurlink-backend/pkg/db"
	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/deliverynote"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
	"github.com/sidaputra/dapurlink-backend/pkg/logger"
	"github.com/sidaputra/dapurlink-backend/pkg/metrics"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox/payloads"
	"github.com/sidaputra/dapurlink-backend/pkg/storage"
)

// Service records the write-once delivery attestation and drives the
// best-effort delivery-note rendering that follows it.
type Service interface {
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmationDTO, error)
	ListConfirmations(ctx context.Context, yayasanID uuid.UUID) ([]ConfirmationDTO, error)
}

// ConfirmInput attests that the order's goods arrived. Vendor and driver
// actors carry their vendor id; kitchens confirm their own orders.
type ConfirmInput struct {
	ActorUserID      uuid.UUID
	ActorRole        enums.ActorRole
	VendorID         *uuid.UUID
	OrderID          uuid.UUID
	ArrivedAt        time.Time
	ReceiverName     string
	Notes            *string
	SignatureDataURL string
	ProofPhotoURL    *string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type yayasanRecipients interface {
	ListIDsByYayasanRole(ctx context.Context, yayasanID uuid.UUID, role enums.ActorRole) ([]uuid.UUID, error)
}

// ServiceParams collects the delivery service dependencies.
type ServiceParams struct {
	Repo         *Repository
	Orders       *orders.Repository
	Fulfillments *fulfillment.Repository
	Users        yayasanRecipients
	Fanout       *notifications.Fanout
	Outbox       *outbox.Service
	Store        storage.Store
	Renderer     deliverynote.Renderer
	Tx           txRunner
	Logger       *logger.Logger
	Metrics      *metrics.LifecycleMetrics
}

type service struct {
	repo         *Repository
	orders       *orders.Repository
	fulfillments *fulfillment.Repository
	users        yayasanRecipients
	fanout       *notifications.Fanout
	outbox       *outbox.Service
	store        storage.Store
	renderer     deliverynote.Renderer
	tx           txRunner
	logg         *logger.Logger
	metrics      *metrics.LifecycleMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil || params.Orders == nil || params.Fulfillments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "delivery repositories required")
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
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:         params.Repo,
		orders:       params.Orders,
		fulfillments: params.Fulfillments,
		users:        params.Users,
		fanout:       params.Fanout,
		outbox:       params.Outbox,
		store:        params.Store,
		renderer:     params.Renderer,
		tx:           params.Tx,
		logg:         params.Logger,
		metrics:      params.Metrics,
	}, nil
}

// Confirm persists the attestation inside one transaction and then attempts
// the delivery-note rendering. Rendering failures are logged and counted
// but never surface to the caller; the confirmation stands either way.
func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmationDTO, error) {
	if input.OrderID == uuid.Nil || input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor and order ids required")
	}
	if strings.TrimSpace(input.ReceiverName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receiver name is required")
	}
	if strings.TrimSpace(input.SignatureDataURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receiver signature is required")
	}
	if input.ActorRole.ActsForVendor() && (input.VendorID == nil || *input.VendorID == uuid.Nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required for this role")
	}

	signaturePath, err := s.storeUpload(ctx, storage.CategorySignature, &input.SignatureDataURL)
	if err != nil {
		return nil, err
	}
	proofPath, err := s.storeUpload(ctx, storage.CategoryProofPhoto, input.ProofPhotoURL)
	if err != nil {
		return nil, err
	}

	arrivedAt := input.ArrivedAt
	if arrivedAt.IsZero() {
		arrivedAt = time.Now().UTC()
	}

	var (
		confirmation *models.DeliveryConfirmation
		order        *models.Order
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err = s.orders.WithTx(tx).FindByIDForUpdate(ctx, input.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if err := s.authorize(ctx, tx, order, input); err != nil {
			return err
		}

		exists, err := s.orders.WithTx(tx).HasConfirmation(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check confirmation")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "delivery already confirmed for this order")
		}

		confirmation = &models.DeliveryConfirmation{
			OrderID:        order.ID,
			DapurUserID:    order.DapurUserID,
			YayasanID:      order.YayasanID,
			ArrivedAt:      arrivedAt,
			ReceiverName:   strings.TrimSpace(input.ReceiverName),
			Notes:          input.Notes,
			SignaturePath:  *signaturePath,
			ProofPhotoPath: proofPath,
		}
		if err := s.repo.WithTx(tx).Create(ctx, confirmation); err != nil {
			if dbpkg.IsUniqueViolation(err, "uq_confirmation_order") {
				return pkgerrors.New(pkgerrors.CodeConflict, "delivery already confirmed for this order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert confirmation")
		}

		// Best effort: consume any still-open shipment edit allowance. The
		// shipment row may be missing on unusual paths; that is tolerated.
		token := "finalized:" + arrivedAt.UTC().Format(time.RFC3339Nano)
		if _, err := s.fulfillments.WithTx(tx).FinalizeLocks(ctx, order.ID, token); err != nil {
			s.logg.Warn(ctx, "failed to finalize shipment edit locks: "+err.Error())
		}

		actor := s.actorRef(input)
		event := payloads.DeliveryConfirmedEvent{
			ConfirmationID: confirmation.ID,
			OrderID:        order.ID,
			YayasanID:      order.YayasanID,
			ReceiverName:   confirmation.ReceiverName,
			ArrivedAt:      arrivedAt,
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDeliveryConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data:          event,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue confirmation event")
		}

		recipients, err := s.users.ListIDsByYayasanRole(ctx, order.YayasanID, enums.ActorRoleYayasan)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve yayasan recipients")
		}
		return s.fanout.Notify(ctx, tx, notifications.Notice{
			Recipients: recipients,
			OrderID:    order.ID,
			Type:       enums.NotificationTypeDeliveryConfirmed,
			Actor:      actor,
			Payload:    event,
		})
	})
	if err != nil {
		return nil, err
	}

	dto := confirmationDTO(confirmation)
	if path := s.renderNote(ctx, order, confirmation, input.VendorID); path != nil {
		dto.DocumentPath = path
	}
	return dto, nil
}

func (s *service) ListConfirmations(ctx context.Context, yayasanID uuid.UUID) ([]ConfirmationDTO, error) {
	if yayasanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "yayasan id required")
	}
	rows, err := s.repo.ListByYayasan(ctx, yayasanID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list confirmations")
	}
	out := make([]ConfirmationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *confirmationDTO(&rows[i]))
	}
	return out, nil
}

// authorize re-verifies ownership for every confirming role. Kitchens may
// only confirm their own orders; vendor-side actors need an assigned slice.
func (s *service) authorize(ctx context.Context, tx *gorm.DB, order *models.Order, input ConfirmInput) error {
	switch {
	case input.ActorRole == enums.ActorRoleDapur:
		if order.DapurUserID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil
	case input.ActorRole.ActsForVendor():
		_, err := s.fulfillments.WithTx(tx).FindForUpdate(ctx, order.ID, *input.VendorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fulfillment")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot confirm deliveries")
	}
}

// renderNote builds and stores the visual delivery note, then attaches the
// resulting path to the shipment. Every failure here has one consequence:
// a log line and a metric tick, never a failed confirmation.
func (s *service) renderNote(ctx context.Context, order *models.Order, confirmation *models.DeliveryConfirmation, vendorID *uuid.UUID) *string {
	if s.renderer == nil {
		return nil
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	input, shipmentID := s.noteInput(ctx, order, confirmation, vendorID)
	image, err := s.renderer.Render(ctx, deliverynote.BuildRequest(input))
	if err != nil {
		s.logg.Warn(ctx, "delivery note rendering failed: "+err.Error())
		s.incRender("failure")
		return nil
	}

	key, err := s.store.Save(ctx, storage.CategoryDeliveryNote, "note.png", image)
	if err != nil {
		s.logg.Warn(ctx, "storing delivery note failed: "+err.Error())
		s.incRender("failure")
		return nil
	}

	if shipmentID != nil {
		if err := s.fulfillments.AttachDocument(ctx, *shipmentID, key); err != nil {
			s.logg.Warn(ctx, "attaching delivery note to shipment failed: "+err.Error())
		}
	}
	s.incRender("success")
	return &key
}

// noteInput assembles everything known at confirmation time. Vendor-side
// actors get a note scoped to their own line items and shipment.
func (s *service) noteInput(ctx context.Context, order *models.Order, confirmation *models.DeliveryConfirmation, vendorID *uuid.UUID) (deliverynote.NoteInput, *uuid.UUID) {
	input := deliverynote.NoteInput{
		OrderID:           order.ID,
		YayasanName:       s.repo.YayasanName(ctx, order.YayasanID),
		DapurName:         s.repo.UserName(ctx, order.DapurUserID),
		ReceiverName:      confirmation.ReceiverName,
		ArrivedAt:         confirmation.ArrivedAt,
		ReceiverSignature: confirmation.SignaturePath,
		ProofPhoto:        confirmation.ProofPhotoPath,
	}
	if confirmation.Notes != nil {
		input.Notes = *confirmation.Notes
	}

	items, err := s.loadNoteItems(ctx, order.ID, vendorID)
	if err != nil {
		s.logg.Warn(ctx, "loading delivery note items failed: "+err.Error())
	}
	input.Items = items

	shipment := s.pickShipment(ctx, order.ID, vendorID)
	if shipment == nil {
		return input, nil
	}
	input.VendorName = s.repo.VendorName(ctx, shipment.VendorID)
	input.VehiclePlate = shipment.VehiclePlate
	input.SenderName = shipment.SenderName
	shippedAt := shipment.ShippedAt
	input.ShippedAt = &shippedAt
	input.SenderSignature = shipment.SenderSignaturePath
	return input, &shipment.ID
}

func (s *service) loadNoteItems(ctx context.Context, orderID uuid.UUID, vendorID *uuid.UUID) ([]deliverynote.NoteItem, error) {
	var (
		rows []models.OrderItem
		err  error
	)
	if vendorID != nil {
		rows, err = s.orders.ListItemsByVendor(ctx, orderID, *vendorID)
	} else {
		rows, err = s.orders.ListItems(ctx, orderID)
	}
	if err != nil {
		return nil, err
	}
	items := make([]deliverynote.NoteItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, deliverynote.NoteItem{
			Name:      row.Name,
			Unit:      row.Unit,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}
	return items, nil
}

// pickShipment chooses the shipment whose metadata appears on the note:
// the acting vendor's own, or the order's single shipment when unambiguous.
func (s *service) pickShipment(ctx context.Context, orderID uuid.UUID, vendorID *uuid.UUID) *models.Shipment {
	if vendorID != nil {
		shipment, err := s.fulfillments.FindShipment(ctx, orderID, *vendorID)
		if err != nil {
			return nil
		}
		return shipment
	}
	shipments, err := s.fulfillments.ListShipmentsByOrder(ctx, orderID)
	if err != nil || len(shipments) != 1 {
		return nil
	}
	return &shipments[0]
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

func (s *service) actorRef(input ConfirmInput) *outbox.ActorRef {
	ref := &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole.String()}
	if input.VendorID != nil && *input.VendorID != uuid.Nil {
		v := *input.VendorID
		ref.VendorID = &v
	}
	return ref
}

func (s *service) incRender(outcome string) {
	if s.metrics != nil {
		s.metrics.IncRender(outcome)
	}
}
