package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

// DefaultMaxAttempts bounds order number allocation retries.
const DefaultMaxAttempts = 3

// constraint names reported by Postgres and SQLite respectively
var orderNumberConstraints = []string{"uq_orders_order_number", "orders.order_number"}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lineStore interface {
	LockByScope(ctx context.Context, scope cart.Scope) ([]models.CartLine, error)
	DeleteIDs(ctx context.Context, scope cart.Scope, ids []uuid.UUID) (int64, error)
}

type lineLister interface {
	ListByScope(ctx context.Context, scope cart.Scope) ([]models.CartLine, error)
}

type productStore interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// txStores are the repositories bound to one checkout transaction.
type txStores struct {
	lines    lineStore
	products productStore
	orders   orders.Repository
}

// Service converts a cart into an order.
type Service interface {
	Execute(ctx context.Context, scope cart.Scope, input Input) (*Result, error)
	Preview(ctx context.Context, scope cart.Scope, distance *decimal.Decimal) (*Preview, error)
}

// Result is a placed order.
type Result struct {
	OrderNumber string
	Order       *models.Order
}

// Preview is the priced cart shown before placing the order.
type Preview struct {
	Lines    []models.CartLine
	Distance decimal.Decimal
	Quote    pricing.Quote
}

// Options tunes checkout. Zero values fall back to defaults.
type Options struct {
	MaxAttempts     int
	DefaultDistance decimal.Decimal
	Metrics         *metrics.CheckoutMetrics
	Logger          *logger.Logger
}

type service struct {
	tx              txRunner
	bind            func(tx *gorm.DB) txStores
	lines           lineLister
	newOrderNumber  func() (string, error)
	maxAttempts     int
	defaultDistance decimal.Decimal
	metrics         *metrics.CheckoutMetrics
	logg            *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo *cart.Repository,
	catalogRepo *catalog.Repository,
	ordersRepo orders.Repository,
	opts Options,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.DefaultDistance.IsZero() {
		opts.DefaultDistance = decimal.NewFromInt(2)
	}
	return &service{
		tx: tx,
		bind: func(tx *gorm.DB) txStores {
			return txStores{
				lines:    cartRepo.WithTx(tx),
				products: catalogRepo.WithTx(tx),
				orders:   ordersRepo.WithTx(tx),
			}
		},
		lines:           cartRepo,
		newOrderNumber:  NewOrderNumber,
		maxAttempts:     opts.MaxAttempts,
		defaultDistance: opts.DefaultDistance,
		metrics:         opts.Metrics,
		logg:            opts.Logger,
	}, nil
}

// Execute places an order for the scope's cart. The order, its items and the
// removal of the cart lines commit together or not at all. An order number
// collision retries the whole transaction with a fresh number.
func (s *service) Execute(ctx context.Context, scope cart.Scope, input Input) (*Result, error) {
	start := time.Now()
	res, err := s.execute(ctx, scope, input)
	s.metrics.Observe(outcome(err), time.Since(start))
	return res, err
}

func (s *service) execute(ctx context.Context, scope cart.Scope, input Input) (*Result, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	input = input.normalized()
	distance, err := input.validate(s.defaultDistance)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		number, err := s.newOrderNumber()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}

		order, err := s.placeOrder(ctx, scope, input, distance, number)
		if err == nil {
			s.logInfo(ctx, order, "order placed")
			return &Result{OrderNumber: order.OrderNumber, Order: order}, nil
		}
		if db.IsUniqueViolation(err, orderNumberConstraints...) {
			s.metrics.IncCollision()
			s.logWarn(ctx, number, attempt)
			continue
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}
	return nil, pkgerrors.New(pkgerrors.CodeOrderNumberExhausted, fmt.Sprintf("order number allocation failed after %d attempts", s.maxAttempts))
}

func (s *service) placeOrder(ctx context.Context, scope cart.Scope, input Input, distance decimal.Decimal, number string) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		stores := s.bind(tx)

		lines, err := stores.lines.LockByScope(ctx, scope)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
		}
		if len(lines) == 0 {
			return emptyCart()
		}

		products, err := stores.products.FindByIDs(ctx, productIDs(lines))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
		}
		byID := make(map[uuid.UUID]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		orderID := uuid.New()
		priced := make([]pricing.Line, 0, len(lines))
		items := make([]models.OrderItem, 0, len(lines))
		lineIDs := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			product, ok := byID[line.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "a product in the cart no longer exists")
			}
			priced = append(priced, pricing.Line{Quantity: line.Quantity, UnitPrice: product.Price})
			items = append(items, models.OrderItem{
				ID:          uuid.New(),
				OrderID:     orderID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				Price:       product.Price,
			})
			lineIDs = append(lineIDs, line.ID)
		}
		quote := pricing.NewQuote(priced, distance)

		order = &models.Order{
			ID:               orderID,
			OrderNumber:      number,
			AccountID:        scope.AccountID,
			SessionID:        scope.SessionID,
			CustomerName:     input.Customer.Name,
			CustomerEmail:    input.Customer.Email,
			CustomerPhone:    input.Customer.Phone,
			ShippingAddress:  input.Customer.ShippingAddress,
			Subtotal:         quote.Subtotal,
			DeliveryFee:      quote.DeliveryFee,
			TotalAmount:      quote.Total,
			Status:           enums.OrderStatusPending,
			DeliveryMethod:   input.DeliveryMethod,
			DeliveryDistance: distance.Round(pricing.Places),
			Items:            items,
		}
		// returned raw so the caller can spot order number collisions
		if err := stores.orders.Create(ctx, order); err != nil {
			return err
		}

		deleted, err := stores.lines.DeleteIDs(ctx, scope, lineIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart lines")
		}
		if deleted != int64(len(lineIDs)) {
			// another checkout consumed the lines first
			return emptyCart()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Preview prices the scope's cart without writing anything.
func (s *service) Preview(ctx context.Context, scope cart.Scope, distance *decimal.Decimal) (*Preview, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	resolved := s.defaultDistance
	if distance != nil {
		resolved = *distance
	}
	if resolved.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery distance").
			WithDetails(map[string]string{"delivery_distance": "must not be negative"})
	}

	lines, err := s.lines.ListByScope(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}
	if len(lines) == 0 {
		return nil, emptyCart()
	}
	return &Preview{
		Lines:    lines,
		Distance: resolved.Round(pricing.Places),
		Quote:    pricing.NewQuote(cart.PricingLines(lines), resolved),
	}, nil
}

func emptyCart() error {
	return pkgerrors.New(pkgerrors.CodeEmptyCart, "your cart is empty").
		WithDetails(map[string]string{"redirect": "/cart"})
}

func productIDs(lines []models.CartLine) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart):
		return metrics.OutcomeEmptyCart
	case pkgerrors.IsCode(err, pkgerrors.CodeOrderNumberExhausted):
		return metrics.OutcomeExhausted
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.OutcomeValidation
	default:
		return metrics.OutcomeError
	}
}

func (s *service) logInfo(ctx context.Context, order *models.Order, msg string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount.StringFixed(pricing.Places),
		"items":        len(order.Items),
	})
	s.logg.Info(ctx, msg)
}

func (s *service) logWarn(ctx context.Context, number string, attempt int) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_number": number,
		"attempt":      attempt,
	})
	s.logg.Warn(ctx, "order number collision, retrying")
}
