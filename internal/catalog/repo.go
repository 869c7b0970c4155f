package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

const listableClause = "products.is_active = ? AND products.stock_quantity > ?"

// Repository reads products and categories.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// List returns one page of listable products and the total match count.
func (r *Repository) List(ctx context.Context, q Query, page pagination.Page) ([]models.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, q.Filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	products := []models.Product{}
	if total == 0 || int64(page.Offset()) >= total {
		return products, total, nil
	}

	qb := r.filtered(ctx, q.Filters)
	for _, clause := range orderClauses(q.Sort, q.Direction) {
		qb = qb.Order(clause)
	}
	err := qb.
		Offset(page.Offset()).
		Limit(page.Size).
		Preload("Categories", orderedCategories).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *Repository) filtered(ctx context.Context, f Filters) *gorm.DB {
	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where(listableClause, true, 0)

	if f.CategorySlug != "" {
		qb = qb.Where(`EXISTS (
			SELECT 1 FROM product_categories pc
			JOIN categories c ON c.id = pc.category_id
			WHERE pc.product_id = products.id AND c.slug = ?
		)`, f.CategorySlug)
	}
	if f.MinPrice != nil {
		qb = qb.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		qb = qb.Where("products.price <= ?", *f.MaxPrice)
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		qb = qb.Where(`(LOWER(products.name) LIKE ? ESCAPE '\' OR LOWER(products.description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return qb
}

// FindByID loads a product and its categories regardless of listing state.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Categories", orderedCategories).
		First(&product, "products.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads a product by slug regardless of listing state.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Categories", orderedCategories).
		First(&product, "products.slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs batch loads products without categories.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Related returns listable products sharing a category with productID, most
// shared categories first.
func (r *Repository) Related(ctx context.Context, productID uuid.UUID, categoryIDs []uuid.UUID, limit int) ([]models.Product, error) {
	products := []models.Product{}
	if len(categoryIDs) == 0 || limit <= 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Joins(`JOIN (
			SELECT pc.product_id, COUNT(*) AS overlap
			FROM product_categories pc
			WHERE pc.category_id IN ?
			GROUP BY pc.product_id
		) shared ON shared.product_id = products.id`, categoryIDs).
		Where("products.id <> ?", productID).
		Where(listableClause, true, 0).
		Order("shared.overlap DESC").
		Order("products.id ASC").
		Limit(limit).
		Preload("Categories", orderedCategories).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Featured returns listable featured products by merchandising order.
func (r *Repository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.WithContext(ctx).
		Where(listableClause, true, 0).
		Where("products.is_featured = ?", true).
		Order("products.sort_order ASC").
		Order("products.id ASC").
		Limit(limit).
		Preload("Categories", orderedCategories).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Newest returns the most recently added listable products.
func (r *Repository) Newest(ctx context.Context, limit int) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.WithContext(ctx).
		Where(listableClause, true, 0).
		Order("products.created_at DESC").
		Order("products.id DESC").
		Limit(limit).
		Preload("Categories", orderedCategories).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ActiveCategories returns active categories by name, or by merchandising
// order when bySortOrder is set. A limit <= 0 returns all of them.
func (r *Repository) ActiveCategories(ctx context.Context, bySortOrder bool, limit int) ([]models.Category, error) {
	categories := []models.Category{}
	qb := r.db.WithContext(ctx).Where("is_active = ?", true)
	if bySortOrder {
		qb = qb.Order("sort_order ASC")
	}
	qb = qb.Order("name ASC").Order("id ASC")
	if limit > 0 {
		qb = qb.Limit(limit)
	}
	if err := qb.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func orderedCategories(db *gorm.DB) *gorm.DB {
	return db.Order("categories.sort_order ASC").Order("categories.name ASC")
}
