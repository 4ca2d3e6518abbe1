package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/internal/products"
	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
)

// Service is the kitchen-facing staging area in front of checkout.
type Service interface {
	Add(ctx context.Context, input AddInput) (*SummaryDTO, error)
	Remove(ctx context.Context, dapurUserID, itemID uuid.UUID) error
	View(ctx context.Context, dapurUserID uuid.UUID) (*ViewDTO, error)
}

// AddInput stages a product into the kitchen's cart. Quantity below one is
// clamped to one rather than rejected.
type AddInput struct {
	DapurUserID uuid.UUID
	YayasanID   uuid.UUID
	ProductID   uuid.UUID
	Quantity    int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams collects the cart service dependencies.
type ServiceParams struct {
	Repo     *Repository
	Products *products.Repository
	Tx       txRunner
}

type service struct {
	repo     *Repository
	products *products.Repository
	tx       txRunner
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "products repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: params.Repo, products: params.Products, tx: params.Tx}, nil
}

func (s *service) Add(ctx context.Context, input AddInput) (*SummaryDTO, error) {
	if input.DapurUserID == uuid.Nil || input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user and product ids required")
	}
	qty := input.Quantity
	if qty < 1 {
		qty = 1
	}

	product, err := s.resolveProduct(ctx, input.YayasanID, input.ProductID)
	if err != nil {
		return nil, err
	}

	var summary *SummaryDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindActiveByUser(ctx, input.DapurUserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cart = &models.Cart{DapurUserID: input.DapurUserID}
			if err := repo.Create(ctx, cart); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		} else if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		item, err := repo.FindItem(ctx, cart.ID, product.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = &models.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				VendorID:  product.VendorID,
				Quantity:  qty,
				UnitPrice: product.Price,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart item")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		default:
			// Existing line: bump quantity and refresh the price snapshot.
			item.Quantity += qty
			item.UnitPrice = product.Price
			if err := repo.SaveItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		}

		items, err := repo.ListItems(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
		}
		summary = &SummaryDTO{
			CartID:    cart.ID,
			ItemCount: len(items),
			Total:     totalOf(items),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// Remove deletes a line from the caller's own cart. Removing a line that is
// already gone, or having no cart at all, is not an error.
func (s *service) Remove(ctx context.Context, dapurUserID, itemID uuid.UUID) error {
	if dapurUserID == uuid.Nil || itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user and item ids required")
	}

	cart, err := s.repo.FindActiveByUser(ctx, dapurUserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if _, err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return nil
}

func (s *service) View(ctx context.Context, dapurUserID uuid.UUID) (*ViewDTO, error) {
	if dapurUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	cart, err := s.repo.FindActiveByUser(ctx, dapurUserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ViewDTO{Items: []ItemDTO{}, Total: decimal.Zero}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	names, units, err := s.displayLookup(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	view := &ViewDTO{
		CartID:    &cart.ID,
		Items:     make([]ItemDTO, 0, len(cart.Items)),
		ItemCount: len(cart.Items),
		Total:     totalOf(cart.Items),
		UpdatedAt: &cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		view.Items = append(view.Items, ItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VendorID:    item.VendorID,
			ProductName: names[item.ProductID],
			Unit:        units[item.ProductID],
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return view, nil
}

// resolveProduct loads the product and hides anything outside the caller's
// yayasan or no longer active behind not-found.
func (s *service) resolveProduct(ctx context.Context, yayasanID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive || (yayasanID != uuid.Nil && product.YayasanID != yayasanID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) displayLookup(ctx context.Context, items []models.CartItem) (map[uuid.UUID]string, map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	names := make(map[uuid.UUID]string, len(rows))
	units := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
		units[row.ID] = row.Unit
	}
	return names, units, nil
}

func totalOf(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
