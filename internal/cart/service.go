package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const (
	MinQuantity = 1
	MaxQuantity = 10
)

// View is a cart ready for display.
type View struct {
	Lines     []models.CartLine
	Subtotal  decimal.Decimal
	ItemCount int
}

// Service manages the lines held by a cart scope.
type Service interface {
	AddItem(ctx context.Context, scope Scope, productID uuid.UUID, quantity int) (*models.CartLine, error)
	UpdateQuantity(ctx context.Context, scope Scope, lineID uuid.UUID, quantity int) (*models.CartLine, error)
	RemoveItem(ctx context.Context, scope Scope, lineID uuid.UUID) error
	ListItems(ctx context.Context, scope Scope) (*View, error)
	Clear(ctx context.Context, scope Scope) (int64, error)
}

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type cartRepository interface {
	AddQuantity(ctx context.Context, scope Scope, productID uuid.UUID, quantity int) (*models.CartLine, error)
	FindInScope(ctx context.Context, scope Scope, lineID uuid.UUID) (*models.CartLine, error)
	ListByScope(ctx context.Context, scope Scope) ([]models.CartLine, error)
	SetQuantity(ctx context.Context, scope Scope, lineID uuid.UUID, quantity int) (int64, error)
	Delete(ctx context.Context, scope Scope, lineID uuid.UUID) (int64, error)
	DeleteByScope(ctx context.Context, scope Scope) (int64, error)
}

type service struct {
	repo     cartRepository
	products productLookup
}

// NewService constructs a cart service.
func NewService(repo cartRepository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products}, nil
}

// AddItem adds quantity of a product to the scope. Repeated adds increment
// the existing line without re-applying the upper bound.
func (s *service) AddItem(ctx context.Context, scope Scope, productID uuid.UUID, quantity int) (*models.CartLine, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required").
			WithDetails(map[string]string{"product_id": "required"})
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	line, err := s.repo.AddQuantity(ctx, scope, productID, quantity)
	if err != nil {
		// the product can vanish between the lookup and the insert
		if errors.Is(err, gorm.ErrRecordNotFound) || db.IsForeignKeyViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart line")
	}
	return line, nil
}

func (s *service) UpdateQuantity(ctx context.Context, scope Scope, lineID uuid.UUID, quantity int) (*models.CartLine, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	affected, err := s.repo.SetQuantity(ctx, scope, lineID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	line, err := s.repo.FindInScope(ctx, scope, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	return line, nil
}

// RemoveItem deletes a line. NotFound is returned when nothing matched so
// callers can tell misuse apart; treating it as success is safe.
func (s *service) RemoveItem(ctx context.Context, scope Scope, lineID uuid.UUID) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	affected, err := s.repo.Delete(ctx, scope, lineID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return nil
}

func (s *service) ListItems(ctx context.Context, scope Scope) (*View, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	lines, err := s.repo.ListByScope(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return &View{
		Lines:     lines,
		Subtotal:  pricing.Subtotal(PricingLines(lines)),
		ItemCount: count,
	}, nil
}

func (s *service) Clear(ctx context.Context, scope Scope) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	removed, err := s.repo.DeleteByScope(ctx, scope)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return removed, nil
}

// PricingLines maps lines with loaded products onto pricing lines. Lines
// whose product is not loaded are skipped.
func PricingLines(lines []models.CartLine) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		out = append(out, pricing.Line{Quantity: line.Quantity, UnitPrice: line.Product.Price})
	}
	return out
}

func validateQuantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between %d and %d", MinQuantity, MaxQuantity)).
			WithDetails(map[string]string{"quantity": fmt.Sprintf("must be between %d and %d", MinQuantity, MaxQuantity)})
	}
	return nil
}
