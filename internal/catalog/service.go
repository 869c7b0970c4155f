package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// Service answers catalog browsing queries.
type Service interface {
	Query(ctx context.Context, q Query) (*Result, error)
	Get(ctx context.Context, idOrSlug string) (*models.Product, error)
	Related(ctx context.Context, product *models.Product, limit int) ([]models.Product, error)
	Home(ctx context.Context) (*Home, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

type catalogRepository interface {
	List(ctx context.Context, q Query, page pagination.Page) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	Related(ctx context.Context, productID uuid.UUID, categoryIDs []uuid.UUID, limit int) ([]models.Product, error)
	Featured(ctx context.Context, limit int) ([]models.Product, error)
	Newest(ctx context.Context, limit int) ([]models.Product, error)
	ActiveCategories(ctx context.Context, bySortOrder bool, limit int) ([]models.Category, error)
}

type service struct {
	repo catalogRepository
}

// NewService constructs a catalog service.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Query(ctx context.Context, q Query) (*Result, error) {
	q = q.normalized()
	if err := validateFilters(q.Filters); err != nil {
		return nil, err
	}
	page := pagination.NewPage(q.Page, pagination.CatalogPageSize)

	items, total, err := s.repo.List(ctx, q, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return &Result{
		Items:      items,
		TotalCount: total,
		Page:       page.Info(total),
	}, nil
}

func validateFilters(f Filters) error {
	fields := map[string]string{}
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		fields["min_price"] = "must not be negative"
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		fields["max_price"] = "must not be negative"
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		fields["min_price"] = "must not exceed max_price"
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid catalog filters").WithDetails(fields)
}

func (s *service) Get(ctx context.Context, idOrSlug string) (*models.Product, error) {
	key := strings.TrimSpace(idOrSlug)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	var (
		product *models.Product
		err     error
	)
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		product, err = s.repo.FindByID(ctx, id)
	} else {
		product, err = s.repo.FindBySlug(ctx, key)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) Related(ctx context.Context, product *models.Product, limit int) ([]models.Product, error) {
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if limit <= 0 || limit > RelatedLimit {
		limit = RelatedLimit
	}
	related, err := s.repo.Related(ctx, product.ID, product.CategoryIDs(), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load related products")
	}
	return related, nil
}

func (s *service) Home(ctx context.Context) (*Home, error) {
	featured, err := s.repo.Featured(ctx, FeaturedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load featured products")
	}
	categories, err := s.repo.ActiveCategories(ctx, true, HomeCategoryLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load home categories")
	}
	newest, err := s.repo.Newest(ctx, NewestLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load newest products")
	}
	return &Home{
		Featured:   featured,
		Categories: categories,
		Newest:     newest,
	}, nil
}

func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ActiveCategories(ctx, false, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
	}
	return categories, nil
}
