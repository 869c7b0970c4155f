package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), catalog.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func countLines(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.CartLine{}).Count(&n).Error)
	return n
}

func TestAddItemCreatesThenIncrements(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustCreateProduct(t, conn, dbtest.ProductSpec{Name: "Granola", Price: "4.50"})
	scope := NewScope("S1", nil)

	line, err := svc.AddItem(ctx, scope, product.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 3, line.Quantity)
	require.NotNil(t, line.Product)
	require.Equal(t, "Granola", line.Product.Name)
	require.EqualValues(t, 1, countLines(t, conn))

	again, err := svc.AddItem(ctx, scope, product.ID, 2)
	require.NoError(t, err)
	require.Equal(t, line.ID, again.ID)
	require.Equal(t, 5, again.Quantity)
	require.EqualValues(t, 1, countLines(t, conn))
}

func TestAddItemIncrementIsNotClamped(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustCreateProduct(t, conn, dbtest.ProductSpec{})
	scope := NewScope("S1", nil)

	_, err := svc.AddItem(ctx, scope, product.ID, 8)
	require.NoError(t, err)
	line, err := svc.AddItem(ctx, scope, product.ID, 5)
	require.NoError(t, err)
	require.Equal(t, 13, line.Quantity)
}

func TestAddItemValidation(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustCreateProduct(t, conn, dbtest.ProductSpec{})

	for _, qty := range []int{0, -1, 11} {
		_, err := svc.AddItem(ctx, NewScope("S1", nil), product.ID, qty)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "quantity %d", qty)
	}

	_, err := svc.AddItem(ctx, NewScope("  ", nil), product.ID, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddItem(ctx, NewScope("S1", nil), uuid.New(), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.Zero(t, countLines(t, conn))
}

// staleProducts reports every product as present, like a lookup that ran just
// before the product was deleted.
type staleProducts struct{}

func (staleProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	return &models.Product{ID: id}, nil
}

func TestAddItemProductDeletedBeforeInsert(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), staleProducts{})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), NewScope("S1", nil), uuid.New(), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	require.Zero(t, countLines(t, conn))
}

func TestGuestAndAccountScopesAreDisjoint(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustCreateProduct(t, conn, dbtest.ProductSpec{Price: "2.00"})
	account := uuid.New()
	otherAccount := uuid.New()

	guest := NewScope("S1", nil)
	member := NewScope("S1", &account)
	other := NewScope("S1", &otherAccount)

	_, err := svc.AddItem(ctx, guest, product.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, member, product.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, other, product.ID, 4)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, NewScope("S2", nil), product.ID, 7)
	require.NoError(t, err)
	require.EqualValues(t, 4, countLines(t, conn))

	guestView, err := svc.ListItems(ctx, guest)
	require.NoError(t, err)
	require.Len(t, guestView.Lines, 1)
	require.Equal(t, 1, guestView.Lines[0].Quantity)
	require.Nil(t, guestView.Lines[0].AccountID)

	memberView, err := svc.ListItems(ctx, member)
	require.NoError(t, err)
	require.Len(t, memberView.Lines, 1)
	require.Equal(t, 2, memberView.Lines[0].Quantity)
	require.Equal(t, "4.00", memberView.Subtotal.StringFixed(2))

	// a guest cannot touch the account's line and vice versa
	err = svc.RemoveItem(ctx, guest, memberView.Lines[0].ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.UpdateQuantity(ctx, other, memberView.Lines[0].ID, 3)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateQuantityReplaces(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustCreateProduct(t, conn, dbtest.ProductSpec{})
	scope := NewScope("S1", nil)

	line, err := svc.AddItem(ctx, scope, product.ID, 4)
	require.NoError(t, err)

	updated, err := svc.UpdateQuantity(ctx, scope, line.ID, 10)
	require.NoError(t, err)
	require.Equal(t, 10, updated.Quantity)

	updated, err = svc.UpdateQuantity(ctx, scope, line.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 1, updated.Quantity)

	for _, qty := range []int{0, 11} {
		_, err = svc.UpdateQuantity(ctx, scope, line.ID, qty)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	}

	_, err = svc.UpdateQuantity(ctx, scope, uuid.New(), 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRemoveItemAndClear(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	first := dbtest.MustCreateProduct(t, conn, dbtest.ProductSpec{})
	second := dbtest.MustCreateProduct(t, conn, dbtest.ProductSpec{})
	scope := NewScope("S1", nil)

	line, err := svc.AddItem(ctx, scope, first.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, scope, second.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, scope, line.ID))
	err = svc.RemoveItem(ctx, scope, line.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "second removal reports not found")

	removed, err := svc.Clear(ctx, scope)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
	require.Zero(t, countLines(t, conn))
}

func TestListItemsLoadsProductsAndSubtotal(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	cat := dbtest.MustCreateCategory(t, conn, "breakfast", 0)
	granola := dbtest.MustCreateProduct(t, conn, dbtest.ProductSpec{Name: "Granola", Price: "4.50", Categories: []models.Category{cat}})
	muesli := dbtest.MustCreateProduct(t, conn, dbtest.ProductSpec{Name: "Muesli", Price: "0.10"})
	scope := NewScope("S1", nil)

	_, err := svc.AddItem(ctx, scope, granola.ID, 3)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, scope, muesli.ID, 3)
	require.NoError(t, err)

	view, err := svc.ListItems(ctx, scope)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	require.Equal(t, 6, view.ItemCount)
	require.Equal(t, "13.80", view.Subtotal.StringFixed(2))
	for _, line := range view.Lines {
		require.NotNil(t, line.Product)
		if line.ProductID == granola.ID {
			require.Len(t, line.Product.Categories, 1)
		}
	}

	empty, err := svc.ListItems(ctx, NewScope("nobody", nil))
	require.NoError(t, err)
	require.Empty(t, empty.Lines)
	require.True(t, empty.Subtotal.IsZero())
}

func TestConcurrentAddsNeitherDuplicateNorLoseIncrements(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustCreateProduct(t, conn, dbtest.ProductSpec{})
	scope := NewScope("S1", nil)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, scope, product.ID, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := svc.ListItems(ctx, scope)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.Equal(t, workers, view.Lines[0].Quantity)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, catalog.NewRepository(nil))
	require.Error(t, err)
	_, err = NewService(NewRepository(nil), nil)
	require.Error(t, err)
}
