package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// Viewer identifies who is reading an order.
type Viewer struct {
	SessionID string
	AccountID *uuid.UUID
	Admin     bool
}

// CanSee reports whether the viewer owns the order. Account orders belong to
// the account; guest orders belong to the session that placed them.
func (v Viewer) CanSee(order *models.Order) bool {
	if order == nil {
		return false
	}
	if v.Admin {
		return true
	}
	if order.AccountID != nil {
		return v.AccountID != nil && *v.AccountID == *order.AccountID
	}
	return v.SessionID != "" && v.SessionID == order.SessionID
}

// Service exposes order lookups and status changes.
type Service interface {
	GetByNumber(ctx context.Context, viewer Viewer, orderNumber string) (*models.Order, error)
	ListForAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*List, error)
	UpdateStatus(ctx context.Context, orderNumber string, status enums.OrderStatus) (*models.Order, error)
	DetachAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
}

// NewService constructs an orders service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// GetByNumber hides orders the viewer does not own behind NotFound.
func (s *service) GetByNumber(ctx context.Context, viewer Viewer, orderNumber string) (*models.Order, error) {
	order, err := s.load(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !viewer.CanSee(order) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*List, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view order history")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]string{"cursor": "malformed"})
	}
	list, err := s.repo.ListByAccount(ctx, accountID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderNumber string, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]string{"status": "unknown value"})
	}
	order, err := s.load(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	affected, err := s.repo.UpdateStatus(ctx, order.ID, order.Status, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}
	return s.load(ctx, orderNumber)
}

func (s *service) DetachAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	if accountID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	n, err := s.repo.DetachAccount(ctx, accountID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach account orders")
	}
	return n, nil
}

func (s *service) load(ctx context.Context, orderNumber string) (*models.Order, error) {
	number := strings.ToUpper(strings.TrimSpace(orderNumber))
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
