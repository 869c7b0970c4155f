package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

const (
	// RelatedLimit caps the related products shown on a detail page.
	RelatedLimit = 4
	// FeaturedLimit caps the featured rail on the home page.
	FeaturedLimit = 6
	// NewestLimit caps the "customer favorites" rail on the home page.
	NewestLimit = 4
	// HomeCategoryLimit caps the category tiles on the home page.
	HomeCategoryLimit = 6
)

// Filters narrows a catalog listing. Zero values mean "no filter"; all set
// fields are combined with AND.
type Filters struct {
	CategorySlug string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Search       string
}

// Query is one listing request.
type Query struct {
	Filters   Filters
	Sort      enums.CatalogSort
	Direction enums.SortDirection
	Page      int
}

// Result is one page of products plus the full match count.
type Result struct {
	Items      []models.Product
	TotalCount int64
	Page       pagination.PageInfo
}

// Home groups the rails rendered on the landing page.
type Home struct {
	Featured   []models.Product
	Categories []models.Category
	Newest     []models.Product
}

func (q Query) normalized() Query {
	out := q
	out.Filters.CategorySlug = strings.TrimSpace(q.Filters.CategorySlug)
	out.Filters.Search = strings.TrimSpace(q.Filters.Search)
	if !out.Sort.IsValid() {
		out.Sort = enums.CatalogSortName
	}
	if !out.Direction.IsValid() {
		out.Direction = enums.SortDirectionAsc
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}

func orderClauses(sort enums.CatalogSort, direction enums.SortDirection) []string {
	dir := "ASC"
	if direction == enums.SortDirectionDesc {
		dir = "DESC"
	}
	switch sort {
	case enums.CatalogSortPrice:
		return []string{"products.price " + dir, "products.id ASC"}
	case enums.CatalogSortNewest:
		return []string{"products.created_at DESC", "products.id DESC"}
	case enums.CatalogSortFeatured:
		return []string{"products.is_featured DESC", "products.name ASC", "products.id ASC"}
	default:
		return []string{"products.name " + dir, "products.id ASC"}
	}
}
