package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS products (
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
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newTestProductService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestCreateProductDefaultsAndValidation(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newTestProductService(t, db)
	ctx := context.Background()

	vendorID := uuid.New()
	yayasanID := uuid.New()

	created, err := svc.CreateProduct(ctx, vendorID, yayasanID, CreateProductInput{
		Name:  "  Beras Premium ",
		Price: decimal.NewFromInt(125000),
	})
	require.NoError(t, err)
	require.Equal(t, "Beras Premium", created.Name)
	require.Equal(t, "pcs", created.Unit)
	require.True(t, created.IsActive)
	require.Equal(t, vendorID, created.VendorID)

	_, err = svc.CreateProduct(ctx, vendorID, yayasanID, CreateProductInput{
		Name:  "",
		Price: decimal.NewFromInt(100),
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.CreateProduct(ctx, vendorID, yayasanID, CreateProductInput{
		Name:  "Minyak",
		Price: decimal.NewFromInt(-1),
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateProductOwnershipScoped(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newTestProductService(t, db)
	ctx := context.Background()

	vendorID := uuid.New()
	created, err := svc.CreateProduct(ctx, vendorID, uuid.New(), CreateProductInput{
		Name:  "Telur",
		Unit:  "tray",
		Price: decimal.NewFromInt(58000),
	})
	require.NoError(t, err)

	newPrice := decimal.NewFromInt(60000)
	inactive := false
	updated, err := svc.UpdateProduct(ctx, vendorID, created.ID, UpdateProductInput{
		Price:    &newPrice,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	require.True(t, updated.Price.Equal(newPrice))
	require.False(t, updated.IsActive)
	require.Equal(t, "tray", updated.Unit)

	// Another vendor must not be able to see, let alone edit, the row.
	_, err = svc.UpdateProduct(ctx, uuid.New(), created.ID, UpdateProductInput{Price: &newPrice})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteProduct(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newTestProductService(t, db)
	ctx := context.Background()

	vendorID := uuid.New()
	created, err := svc.CreateProduct(ctx, vendorID, uuid.New(), CreateProductInput{
		Name:  "Gula",
		Price: decimal.NewFromInt(17000),
	})
	require.NoError(t, err)

	err = svc.DeleteProduct(ctx, uuid.New(), created.ID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	require.NoError(t, svc.DeleteProduct(ctx, vendorID, created.ID))

	err = svc.DeleteProduct(ctx, vendorID, created.ID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListMarketScopedToYayasan(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newTestProductService(t, db)
	ctx := context.Background()

	yayasanID := uuid.New()
	otherYayasan := uuid.New()
	vendorID := uuid.New()

	base := time.Now().Add(-time.Hour)
	seed := []models.Product{
		{ID: uuid.New(), VendorID: vendorID, YayasanID: yayasanID, Name: "Beras", Unit: "sak", Price: decimal.NewFromInt(125000), IsActive: true, CreatedAt: base},
		{ID: uuid.New(), VendorID: vendorID, YayasanID: yayasanID, Name: "Minyak", Unit: "liter", Price: decimal.NewFromInt(19000), IsActive: true, CreatedAt: base.Add(time.Minute)},
		{ID: uuid.New(), VendorID: vendorID, YayasanID: yayasanID, Name: "Kedaluwarsa", Unit: "pcs", Price: decimal.NewFromInt(5000), IsActive: false, CreatedAt: base.Add(2 * time.Minute)},
		{ID: uuid.New(), VendorID: uuid.New(), YayasanID: otherYayasan, Name: "Asing", Unit: "pcs", Price: decimal.NewFromInt(9000), IsActive: true, CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	result, err := svc.ListMarket(ctx, MarketListParams{YayasanID: yayasanID})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.Empty(t, result.Cursor)
	for _, item := range result.Items {
		require.Equal(t, yayasanID, item.YayasanID)
		require.True(t, item.IsActive)
	}
}

func TestListMarketPaginates(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newTestProductService(t, db)
	ctx := context.Background()

	yayasanID := uuid.New()
	vendorID := uuid.New()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		row := models.Product{
			ID:        uuid.New(),
			VendorID:  vendorID,
			YayasanID: yayasanID,
			Name:      "Item",
			Unit:      "pcs",
			Price:     decimal.NewFromInt(1000),
			IsActive:  true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&row).Error)
	}

	first, err := svc.ListMarket(ctx, MarketListParams{YayasanID: yayasanID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.Cursor)

	second, err := svc.ListMarket(ctx, MarketListParams{YayasanID: yayasanID, Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Empty(t, second.Cursor)

	seen := map[uuid.UUID]bool{}
	for _, item := range append(first.Items, second.Items...) {
		require.False(t, seen[item.ID])
		seen[item.ID] = true
	}
}

func TestGetMarketProductHidesInactiveAndForeign(t *testing.T) {
	db := setupProductsTestDB(t)
	svc := newTestProductService(t, db)
	ctx := context.Background()

	yayasanID := uuid.New()
	row := models.Product{
		ID:        uuid.New(),
		VendorID:  uuid.New(),
		YayasanID: yayasanID,
		Name:      "Ayam Potong",
		Unit:      "kg",
		Price:     decimal.NewFromInt(38000),
		IsActive:  true,
	}
	require.NoError(t, db.Create(&row).Error)

	got, err := svc.GetMarketProduct(ctx, yayasanID, row.ID)
	require.NoError(t, err)
	require.Equal(t, row.Name, got.Name)

	_, err = svc.GetMarketProduct(ctx, uuid.New(), row.ID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", row.ID).Update("is_active", false).Error)
	_, err = svc.GetMarketProduct(ctx, yayasanID, row.ID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
