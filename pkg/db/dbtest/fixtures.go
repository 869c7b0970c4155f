package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
)

// ProductSpec describes a product fixture. Zero values get sensible defaults:
// active, stock 10, price 1.00.
type ProductSpec struct {
	Name        string
	Description string
	Price       string
	Stock       *int
	Inactive    bool
	Featured    bool
	SortOrder   int
	CreatedAt   time.Time
	Categories  []models.Category
}

// Stock is a helper for ProductSpec.Stock.
func Stock(n int) *int {
	return &n
}

// MustCreateCategory inserts an active category with the given slug.
func MustCreateCategory(t testing.TB, tx *gorm.DB, slug string, sortOrder int) models.Category {
	t.Helper()
	category := models.Category{
		Slug:      slug,
		Name:      strings.ToUpper(slug[:1]) + slug[1:],
		SortOrder: sortOrder,
		IsActive:  true,
	}
	if err := tx.Create(&category).Error; err != nil {
		t.Fatalf("create category %s: %v", slug, err)
	}
	return category
}

// MustCreateProduct inserts a product and links its categories.
func MustCreateProduct(t testing.TB, tx *gorm.DB, spec ProductSpec) *models.Product {
	t.Helper()
	if spec.Name == "" {
		spec.Name = "Product " + uuid.NewString()[:8]
	}
	if spec.Price == "" {
		spec.Price = "1.00"
	}
	stock := 10
	if spec.Stock != nil {
		stock = *spec.Stock
	}
	product := &models.Product{
		Slug:          fmt.Sprintf("%s-%s", strings.ToLower(strings.ReplaceAll(spec.Name, " ", "-")), uuid.NewString()[:8]),
		Name:          spec.Name,
		Description:   spec.Description,
		Price:         decimal.RequireFromString(spec.Price),
		StockQuantity: stock,
		IsActive:      true,
		IsFeatured:    spec.Featured,
		SortOrder:     spec.SortOrder,
		CreatedAt:     spec.CreatedAt,
	}
	if err := tx.Omit("Categories").Create(product).Error; err != nil {
		t.Fatalf("create product %s: %v", spec.Name, err)
	}
	// a false bool is a zero value, so gorm would fall back to the column default
	if spec.Inactive {
		if err := tx.Model(product).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate product %s: %v", spec.Name, err)
		}
		product.IsActive = false
	}
	for _, category := range spec.Categories {
		link := models.ProductCategory{ProductID: product.ID, CategoryID: category.ID}
		if err := tx.Create(&link).Error; err != nil {
			t.Fatalf("link product %s to %s: %v", spec.Name, category.Slug, err)
		}
	}
	product.Categories = spec.Categories
	return product
}
