package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makemybill/m/domain"
	"makemybill/m/internal/store"
	"makemybill/m/internal/testutil"
)

func TestProductRepo_CreateAndGet(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()

	created := testutil.Product(t, st, "SKU-1", "199.99", 10)
	require.NotEmpty(t, created.ID)

	got, err := st.Products.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", got.SKU)
	assert.True(t, decimal.RequireFromString("199.99").Equal(got.Price))
	assert.Equal(t, int64(10), got.Stock)
	assert.True(t, testutil.Epoch.Equal(got.CreatedAt))
}

func TestProductRepo_DuplicateSKU(t *testing.T) {
	st := testutil.NewStore(t)
	testutil.Product(t, st, "SKU-1", "10", 1)

	_, err := st.Products.Create(context.Background(), domain.Product{
		Name: "Again", SKU: "SKU-1", Price: decimal.NewFromInt(5), CreatedAt: testutil.Epoch, UpdatedAt: testutil.Epoch,
	})
	require.ErrorIs(t, err, domain.ErrDuplicateSKU)
}

func TestProductRepo_GetMissing(t *testing.T) {
	st := testutil.NewStore(t)

	_, err := st.Products.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "product missing: not found", err.Error())
	require.ErrorIs(t, st.Products.Delete(context.Background(), "missing"), domain.ErrNotFound)
}

func TestProductRepo_UpdateRecordsAdjustment(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	p := testutil.Product(t, st, "SKU-1", "10", 4)

	updated, err := st.Products.Update(ctx, p.ID, testutil.Epoch.Add(time.Minute), func(p *domain.Product) error {
		p.Stock = 9
		p.Name = "Renamed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, testutil.Epoch.Equal(updated.CreatedAt))
	assert.Equal(t, int64(9), testutil.Stock(t, st, p.ID))

	movements, err := st.Movements.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, domain.MovementAdjustment, movements[0].MovementType)
	assert.Equal(t, int64(5), movements[0].QuantityChange)
	assert.Equal(t, int64(4), movements[0].QuantityBefore)
	assert.Equal(t, int64(9), movements[0].QuantityAfter)

	// A price-only edit leaves no movement behind
	_, err = st.Products.Update(ctx, p.ID, testutil.Epoch.Add(2*time.Minute), func(p *domain.Product) error {
		p.Price = decimal.NewFromInt(12)
		return nil
	})
	require.NoError(t, err)
	movements, err = st.Movements.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestProductRepo_RenameKeepsStockDebitedSinceRead(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	p := testutil.Product(t, st, "SKU-1", "10", 2)

	// Read for editing, then a sale takes the whole stock
	stale, err := st.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, st.InTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := store.DebitStock(ctx, tx, p.ID, 2, testutil.Epoch)
		require.True(t, ok)
		return err
	}))

	updated, err := st.Products.Update(ctx, stale.ID, testutil.Epoch.Add(time.Minute), func(p *domain.Product) error {
		p.Name = "Renamed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.Stock)
	assert.Equal(t, int64(0), testutil.Stock(t, st, p.ID))

	movements, err := st.Movements.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, movements, "a rename is not a stock adjustment")

	// A second sale of the same units is refused
	require.NoError(t, st.InTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := store.DebitStock(ctx, tx, p.ID, 2, testutil.Epoch)
		assert.False(t, ok)
		return err
	}))
}

func TestProductRepo_UpdateEditErrorRollsBack(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	p := testutil.Product(t, st, "SKU-1", "10", 2)

	_, err := st.Products.Update(ctx, p.ID, testutil.Epoch, func(p *domain.Product) error {
		p.Stock = 50
		return &domain.ValidationError{Field: "name", Err: errors.New("is required")}
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, int64(2), testutil.Stock(t, st, p.ID))

	_, err = st.Products.Update(ctx, "missing", testutil.Epoch, func(p *domain.Product) error { return nil })
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductRepo_LowStock(t *testing.T) {
	st := testutil.NewStore(t)
	testutil.Product(t, st, "PLENTY", "10", 50)
	low := testutil.Product(t, st, "LOW", "10", 1)
	empty := testutil.Product(t, st, "EMPTY", "10", 0)

	products, err := st.Products.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, empty.ID, products[0].ID)
	assert.Equal(t, low.ID, products[1].ID)
}

func TestDebitStock(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	p := testutil.Product(t, st, "SKU-1", "10", 3)

	err := st.InTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := store.DebitStock(ctx, tx, p.ID, 2, testutil.Epoch)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.DebitStock(ctx, tx, p.ID, 2, testutil.Epoch)
		require.NoError(t, err)
		assert.False(t, ok, "only one unit left")

		ok, err = store.DebitStock(ctx, tx, "missing", 1, testutil.Epoch)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), testutil.Stock(t, st, p.ID))
}

func TestInTx_RollsBackOnError(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	p := testutil.Product(t, st, "SKU-1", "10", 3)

	err := st.InTx(ctx, func(tx *sqlx.Tx) error {
		_, err := store.DebitStock(ctx, tx, p.ID, 3, testutil.Epoch)
		require.NoError(t, err)
		return domain.ErrInsufficientStock
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(3), testutil.Stock(t, st, p.ID))
}

func TestStore_TimeoutMapsToStorageTimeout(t *testing.T) {
	st := testutil.NewStore(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := st.Products.List(ctx)
	require.ErrorIs(t, err, domain.ErrStorageTimeout)
	assert.Equal(t, domain.KindTimeout, domain.KindOf(err))
}

func TestCustomerRepo_CRUD(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()

	c := testutil.Customer(t, st, "Asha")
	c.Phone = "555"
	c.UpdatedAt = testutil.Epoch.Add(time.Hour)
	updated, err := st.Customers.Update(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "555", updated.Phone)
	assert.True(t, testutil.Epoch.Equal(updated.CreatedAt))

	list, err := st.Customers.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, st.Customers.Delete(ctx, c.ID))
	_, err = st.Customers.Get(ctx, c.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	c.ID = "missing"
	_, err = st.Customers.Update(ctx, c)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_EmailIsCaseInsensitive(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()

	_, err := st.Users.Create(ctx, domain.User{Name: "Admin", Email: "Admin@Shop.com", PasswordHash: "x", Role: domain.RoleAdmin, CreatedAt: testutil.Epoch})
	require.NoError(t, err)

	got, err := st.Users.GetByEmail(ctx, "ADMIN@shop.com")
	require.NoError(t, err)
	assert.Equal(t, "admin@shop.com", got.Email)

	_, err = st.Users.Create(ctx, domain.User{Name: "Other", Email: "admin@shop.com", PasswordHash: "y", Role: domain.RoleAdmin, CreatedAt: testutil.Epoch})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func insertSale(t *testing.T, st *store.Store, sale domain.Sale) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.InTx(ctx, func(tx *sqlx.Tx) error {
		return store.InsertSale(ctx, tx, sale)
	}))
}

func TestSaleRepo_ResolvesReferences(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	kept := testutil.Product(t, st, "KEPT", "10", 5)
	gone := testutil.Product(t, st, "GONE", "20", 5)
	customer := testutil.Customer(t, st, "Asha")

	insertSale(t, st, domain.Sale{
		ID:            "sale-1",
		InvoiceNumber: "INV-000001",
		CustomerID:    &customer.ID,
		Items: []domain.SaleItem{
			{ProductID: kept.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{ProductID: gone.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(20)},
		},
		Total:         decimal.NewFromInt(40),
		PaymentMethod: domain.PaymentUPI,
		CreatedAt:     testutil.Epoch,
	})
	require.NoError(t, st.Products.Delete(ctx, gone.ID))

	sale, err := st.Sales.Get(ctx, "sale-1")
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", sale.InvoiceNumber)
	assert.Equal(t, domain.PaymentUPI, sale.PaymentMethod)
	assert.True(t, decimal.NewFromInt(40).Equal(sale.Total))
	require.NotNil(t, sale.Customer)
	assert.Equal(t, "Asha", sale.Customer.Name)

	// Lines keep their order; the deleted product stays unresolved
	require.Len(t, sale.Items, 2)
	require.NotNil(t, sale.Items[0].Product)
	assert.Equal(t, "KEPT", sale.Items[0].Product.SKU)
	assert.Nil(t, sale.Items[1].Product)
	assert.Equal(t, gone.ID, sale.Items[1].ProductID)
	assert.True(t, decimal.NewFromInt(20).Equal(sale.Items[1].UnitPrice))
}

func TestSaleRepo_DeletedCustomerIsUnresolved(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	p := testutil.Product(t, st, "SKU-1", "10", 5)
	customer := testutil.Customer(t, st, "Asha")

	insertSale(t, st, domain.Sale{
		ID: "sale-1", InvoiceNumber: "INV-000001", CustomerID: &customer.ID,
		Items:         []domain.SaleItem{{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(10),
		PaymentMethod: domain.PaymentCash,
		CreatedAt:     testutil.Epoch,
	})
	require.NoError(t, st.Customers.Delete(ctx, customer.ID))

	sale, err := st.Sales.Get(ctx, "sale-1")
	require.NoError(t, err)
	require.NotNil(t, sale.CustomerID)
	assert.Nil(t, sale.Customer)
}

func TestInsertSale_DuplicateInvoiceNumber(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	p := testutil.Product(t, st, "SKU-1", "10", 5)
	sale := domain.Sale{
		ID: "sale-1", InvoiceNumber: "INV-000001",
		Items:         []domain.SaleItem{{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(10),
		PaymentMethod: domain.PaymentCash,
		CreatedAt:     testutil.Epoch,
	}
	insertSale(t, st, sale)

	sale.ID = "sale-2"
	err := st.InTx(ctx, func(tx *sqlx.Tx) error {
		return store.InsertSale(ctx, tx, sale)
	})
	require.ErrorIs(t, err, domain.ErrDuplicateInvoiceNumber)
}

func TestLatestInvoiceNumber(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	p := testutil.Product(t, st, "SKU-1", "10", 5)

	var latest string
	read := func() {
		require.NoError(t, st.InTx(ctx, func(tx *sqlx.Tx) error {
			var err error
			latest, err = store.LatestInvoiceNumber(ctx, tx)
			return err
		}))
	}
	read()
	assert.Empty(t, latest)

	for i, number := range []string{"INV-000001", "INV-000002"} {
		insertSale(t, st, domain.Sale{
			ID: number, InvoiceNumber: number,
			Items:         []domain.SaleItem{{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
			Total:         decimal.NewFromInt(10),
			PaymentMethod: domain.PaymentCash,
			CreatedAt:     testutil.Epoch.Add(time.Duration(i) * time.Second),
		})
	}
	read()
	assert.Equal(t, "INV-000002", latest)

	sales, err := st.Sales.List(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "INV-000002", sales[0].InvoiceNumber)
}

func TestGetSaleTx_SeesUncommittedSale(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	p := testutil.Product(t, st, "SKU-1", "10", 5)

	err := st.InTx(ctx, func(tx *sqlx.Tx) error {
		require.NoError(t, store.InsertSale(ctx, tx, domain.Sale{
			ID: "sale-1", InvoiceNumber: "INV-000001",
			Items:         []domain.SaleItem{{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
			Total:         decimal.NewFromInt(10),
			PaymentMethod: domain.PaymentCash,
			CreatedAt:     testutil.Epoch,
		}))
		sale, err := store.GetSaleTx(ctx, tx, "sale-1")
		require.NoError(t, err)
		require.Len(t, sale.Items, 1)
		require.NotNil(t, sale.Items[0].Product)
		assert.Equal(t, "SKU-1", sale.Items[0].Product.SKU)
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = st.Sales.Get(ctx, "sale-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "sale sale-1: not found", err.Error())
}

func TestHighestInvoiceNumber(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	p := testutil.Product(t, st, "SKU-1", "10", 5)

	for i, number := range []string{"INV-000999", "INV-1000000", "INV-000005", "MMB-999999"} {
		insertSale(t, st, domain.Sale{
			ID: number, InvoiceNumber: number,
			Items:         []domain.SaleItem{{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
			Total:         decimal.NewFromInt(10),
			PaymentMethod: domain.PaymentCash,
			CreatedAt:     testutil.Epoch.Add(time.Duration(i) * time.Second),
		})
	}

	var highest string
	require.NoError(t, st.InTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		highest, err = store.HighestInvoiceNumber(ctx, tx, "INV")
		return err
	}))
	assert.Equal(t, "INV-1000000", highest)
}
