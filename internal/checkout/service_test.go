package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

type fixture struct {
	conn    *gorm.DB
	svc     *service
	cart    cart.Service
	orders  orders.Repository
	metrics *metrics.CheckoutMetrics
	reg     *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	cartRepo := cart.NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	reg := prometheus.NewRegistry()
	m := metrics.NewCheckoutMetrics(reg)

	svc, err := NewService(db.NewFromGorm(conn), cartRepo, catalogRepo, ordersRepo, Options{Metrics: m})
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cartRepo, catalogRepo)
	require.NoError(t, err)

	return &fixture{
		conn:    conn,
		svc:     svc.(*service),
		cart:    cartSvc,
		orders:  ordersRepo,
		metrics: m,
		reg:     reg,
	}
}

func validInput(distance string) Input {
	in := Input{
		Customer: Customer{
			Name:            "Ada Lovelace",
			Email:           "ada@example.com",
			Phone:           "555-0100",
			ShippingAddress: "12 Analytical Way",
		},
		DeliveryMethod: enums.DeliveryMethodStandard,
	}
	if distance != "" {
		d := decimal.RequireFromString(distance)
		in.DeliveryDistance = &d
	}
	return in
}

// fillCart puts 20.00 worth of products into the scope's cart.
func (f *fixture) fillCart(t *testing.T, scope cart.Scope) []*models.Product {
	t.Helper()
	ctx := context.Background()
	granola := dbtest.MustCreateProduct(t, f.conn, dbtest.ProductSpec{Name: "Granola", Price: "4.50"})
	oats := dbtest.MustCreateProduct(t, f.conn, dbtest.ProductSpec{Name: "Oats", Price: "3.25"})
	_, err := f.cart.AddItem(ctx, scope, granola.ID, 3)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, scope, oats.ID, 2)
	require.NoError(t, err)
	return []*models.Product{granola, oats}
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func TestExecuteNearDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope := cart.NewScope("S1", nil)
	f.fillCart(t, scope)

	res, err := f.svc.Execute(ctx, scope, validInput("2.0"))
	require.NoError(t, err)
	require.True(t, IsOrderNumber(res.OrderNumber), res.OrderNumber)

	stored, err := f.orders.FindByNumber(ctx, res.OrderNumber)
	require.NoError(t, err)
	require.Equal(t, "20.00", stored.Subtotal.StringFixed(2))
	require.Equal(t, "3.99", stored.DeliveryFee.StringFixed(2))
	require.Equal(t, "23.99", stored.TotalAmount.StringFixed(2))
	require.True(t, stored.TotalAmount.Equal(stored.Subtotal.Add(stored.DeliveryFee)))
	require.Equal(t, enums.OrderStatusPending, stored.Status)
	require.Equal(t, "S1", stored.SessionID)
	require.Nil(t, stored.AccountID)
	require.Len(t, stored.Items, 2)

	require.EqualValues(t, 1, f.count(t, &models.Order{}))
	require.EqualValues(t, 2, f.count(t, &models.OrderItem{}))
	require.Zero(t, f.count(t, &models.CartLine{}))
}

func TestExecuteFarDelivery(t *testing.T) {
	f := newFixture(t)
	scope := cart.NewScope("S1", nil)
	f.fillCart(t, scope)

	res, err := f.svc.Execute(context.Background(), scope, validInput("5.0"))
	require.NoError(t, err)
	require.Equal(t, "7.99", res.Order.DeliveryFee.StringFixed(2))
	require.Equal(t, "27.99", res.Order.TotalAmount.StringFixed(2))
}

func TestExecuteTierUsesUnroundedDistance(t *testing.T) {
	cases := []struct {
		distance string
		fee      string
		stored   string
	}{
		{distance: "3.0", fee: "3.99", stored: "3.00"},
		{distance: "3.004", fee: "7.99", stored: "3.00"},
		{distance: "3.001", fee: "7.99", stored: "3.00"},
	}
	for _, tc := range cases {
		t.Run(tc.distance, func(t *testing.T) {
			f := newFixture(t)
			scope := cart.NewScope("S1", nil)
			f.fillCart(t, scope)

			res, err := f.svc.Execute(context.Background(), scope, validInput(tc.distance))
			require.NoError(t, err)
			require.Equal(t, tc.fee, res.Order.DeliveryFee.StringFixed(2))
			require.True(t, res.Order.TotalAmount.Equal(res.Order.Subtotal.Add(res.Order.DeliveryFee)))

			stored, err := f.orders.FindByNumber(context.Background(), res.OrderNumber)
			require.NoError(t, err)
			require.Equal(t, tc.fee, stored.DeliveryFee.StringFixed(2))
			require.Equal(t, tc.stored, stored.DeliveryDistance.StringFixed(2))
		})
	}
}

func TestExecuteDefaultsDistance(t *testing.T) {
	f := newFixture(t)
	scope := cart.NewScope("S1", nil)
	f.fillCart(t, scope)

	res, err := f.svc.Execute(context.Background(), scope, validInput(""))
	require.NoError(t, err)
	require.Equal(t, "2.00", res.Order.DeliveryDistance.StringFixed(2))
	require.Equal(t, "3.99", res.Order.DeliveryFee.StringFixed(2))
}

func TestExecuteEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Execute(context.Background(), cart.NewScope("S1", nil), validInput("2.0"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart))
	require.Equal(t, map[string]string{"redirect": "/cart"}, pkgerrors.As(err).Details())
	require.Zero(t, f.count(t, &models.Order{}))
}

func TestExecuteOnlyConsumesOwnScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := uuid.New()
	guest := cart.NewScope("S1", nil)
	member := cart.NewScope("S1", &account)
	products := f.fillCart(t, guest)
	_, err := f.cart.AddItem(ctx, member, products[0].ID, 1)
	require.NoError(t, err)

	res, err := f.svc.Execute(ctx, member, validInput("1"))
	require.NoError(t, err)
	require.NotNil(t, res.Order.AccountID)
	require.Equal(t, account, *res.Order.AccountID)
	require.Equal(t, "4.50", res.Order.Subtotal.StringFixed(2))

	view, err := f.cart.ListItems(ctx, guest)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2, "guest cart is untouched")
}

func TestExecuteSnapshotsPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope := cart.NewScope("S1", nil)
	products := f.fillCart(t, scope)

	res, err := f.svc.Execute(ctx, scope, validInput("2.0"))
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Product{}).
		Where("id = ?", products[0].ID).
		Updates(map[string]any{"price": decimal.RequireFromString("99.00"), "name": "Renamed"}).Error)

	stored, err := f.orders.FindByNumber(ctx, res.OrderNumber)
	require.NoError(t, err)
	for _, item := range stored.Items {
		if item.ProductID == products[0].ID {
			require.Equal(t, "4.50", item.Price.StringFixed(2))
			require.Equal(t, "Granola", item.ProductName)
		}
	}
	require.Equal(t, "20.00", stored.Subtotal.StringFixed(2))
}

func TestExecuteValidation(t *testing.T) {
	f := newFixture(t)
	scope := cart.NewScope("S1", nil)
	f.fillCart(t, scope)

	in := validInput("-1")
	in.Customer.Email = "not-an-email"
	in.Customer.Name = "  "
	in.DeliveryMethod = "drone"

	_, err := f.svc.Execute(context.Background(), scope, in)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	require.Contains(t, details, "customer_email")
	require.Contains(t, details, "customer_name")
	require.Contains(t, details, "delivery_method")
	require.Contains(t, details, "delivery_distance")
	require.EqualValues(t, 2, f.count(t, &models.CartLine{}))
}

func TestExecuteRetriesOrderNumberCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := cart.NewScope("S1", nil)
	f.fillCart(t, first)

	f.svc.newOrderNumber = func() (string, error) { return "ORD-AAAAAAAA", nil }
	_, err := f.svc.Execute(ctx, first, validInput("2.0"))
	require.NoError(t, err)

	second := cart.NewScope("S2", nil)
	f.fillCart(t, second)
	numbers := []string{"ORD-AAAAAAAA", "ORD-BBBBBBBB"}
	f.svc.newOrderNumber = func() (string, error) {
		n := numbers[0]
		numbers = numbers[1:]
		return n, nil
	}

	res, err := f.svc.Execute(ctx, second, validInput("2.0"))
	require.NoError(t, err)
	require.Equal(t, "ORD-BBBBBBBB", res.OrderNumber)
	require.EqualValues(t, 2, f.count(t, &models.Order{}))
	require.Equal(t, 1.0, collisionCount(t, f.reg))
}

func TestExecuteExhaustsOrderNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.newOrderNumber = func() (string, error) { return "ORD-AAAAAAAA", nil }

	first := cart.NewScope("S1", nil)
	f.fillCart(t, first)
	_, err := f.svc.Execute(ctx, first, validInput("2.0"))
	require.NoError(t, err)

	second := cart.NewScope("S2", nil)
	f.fillCart(t, second)
	calls := 0
	f.svc.newOrderNumber = func() (string, error) {
		calls++
		return "ORD-AAAAAAAA", nil
	}

	_, err = f.svc.Execute(ctx, second, validInput("2.0"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOrderNumberExhausted))
	require.True(t, pkgerrors.MetadataFor(pkgerrors.CodeOrderNumberExhausted).Retryable)
	require.Equal(t, DefaultMaxAttempts, calls)
	require.EqualValues(t, 1, f.count(t, &models.Order{}))

	view, err := f.cart.ListItems(ctx, second)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2, "failed checkout leaves the cart intact")
}

type shortDeleteLines struct {
	lineStore
}

func (s shortDeleteLines) DeleteIDs(ctx context.Context, scope cart.Scope, ids []uuid.UUID) (int64, error) {
	n, err := s.lineStore.DeleteIDs(ctx, scope, ids)
	return n - 1, err
}

func TestExecuteRollsBackWhenLinesWereConsumed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope := cart.NewScope("S1", nil)
	f.fillCart(t, scope)

	bind := f.svc.bind
	f.svc.bind = func(tx *gorm.DB) txStores {
		stores := bind(tx)
		stores.lines = shortDeleteLines{lineStore: stores.lines}
		return stores
	}

	_, err := f.svc.Execute(ctx, scope, validInput("2.0"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart))
	require.Zero(t, f.count(t, &models.Order{}))
	require.Zero(t, f.count(t, &models.OrderItem{}))
	require.EqualValues(t, 2, f.count(t, &models.CartLine{}), "deletes are rolled back")
}

func TestConcurrentCheckoutCreatesOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope := cart.NewScope("S1", nil)
	f.fillCart(t, scope)

	const attempts = 4
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Execute(ctx, scope, validInput("2.0"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart), "unexpected error %v", err)
	}
	require.Equal(t, 1, succeeded)
	require.EqualValues(t, 1, f.count(t, &models.Order{}))
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope := cart.NewScope("S1", nil)

	_, err := f.svc.Preview(ctx, scope, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart))

	f.fillCart(t, scope)
	far := decimal.RequireFromString("3.01")
	preview, err := f.svc.Preview(ctx, scope, &far)
	require.NoError(t, err)
	require.Len(t, preview.Lines, 2)
	require.Equal(t, "7.99", preview.Quote.DeliveryFee.StringFixed(2))
	require.Equal(t, "27.99", preview.Quote.Total.StringFixed(2))
	require.EqualValues(t, 2, f.count(t, &models.CartLine{}))
	require.Zero(t, f.count(t, &models.Order{}))

	justOver := decimal.RequireFromString("3.004")
	preview, err = f.svc.Preview(ctx, scope, &justOver)
	require.NoError(t, err)
	require.Equal(t, "7.99", preview.Quote.DeliveryFee.StringFixed(2))
	require.Equal(t, "3.00", preview.Distance.StringFixed(2))
}

func TestNewOrderNumberShape(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		n, err := NewOrderNumber()
		require.NoError(t, err)
		require.True(t, IsOrderNumber(n), n)
		seen[n] = struct{}{}
	}
	require.Greater(t, len(seen), 190)
	require.False(t, IsOrderNumber("ORD-abcdefgh"))
	require.False(t, IsOrderNumber("ORD-ABC"))
}

func collisionCount(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "checkout_order_number_collisions_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}
