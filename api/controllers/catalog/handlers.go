package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers/dto"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	catalogsvc "github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

const (
	maxSearchLength = 200
	// larger page numbers are clamped; they are already past any real catalog
	maxCatalogPage = 1 << 20
)

type listResponse struct {
	Items []dto.Product       `json:"items"`
	Page  pagination.PageInfo `json:"page"`
	Sort  enums.CatalogSort   `json:"sort"`
	Dir   enums.SortDirection `json:"direction"`
}

type homeResponse struct {
	Featured   []dto.Product  `json:"featured"`
	Categories []dto.Category `json:"categories"`
	Newest     []dto.Product  `json:"newest"`
}

type productResponse struct {
	Product dto.Product   `json:"product"`
	Related []dto.Product `json:"related"`
}

// List answers GET /api/v1/products with filters, sort and page taken from the query string.
func List(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		q, err := parseQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Query(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listResponse{
			Items: dto.NewProducts(result.Items),
			Page:  result.Page,
			Sort:  q.Sort,
			Dir:   q.Direction,
		})
	}
}

func parseQuery(r *http.Request) (catalogsvc.Query, error) {
	values := r.URL.Query()

	sort, err := enums.ParseCatalogSort(values.Get("sort"))
	if err != nil {
		return catalogsvc.Query{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").WithDetails(map[string]any{"field": "sort"})
	}
	direction, err := enums.ParseSortDirection(values.Get("direction"))
	if err != nil {
		return catalogsvc.Query{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid direction").WithDetails(map[string]any{"field": "direction"})
	}
	page, err := validators.ParseQueryIntCapped(r, "page", 1, 1, maxCatalogPage)
	if err != nil {
		return catalogsvc.Query{}, err
	}
	minPrice, err := validators.ParseQueryDecimal(r, "min_price")
	if err != nil {
		return catalogsvc.Query{}, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
	if err != nil {
		return catalogsvc.Query{}, err
	}

	category := strings.TrimSpace(values.Get("category"))
	if strings.EqualFold(category, "all") {
		category = ""
	}

	return catalogsvc.Query{
		Filters: catalogsvc.Filters{
			CategorySlug: category,
			MinPrice:     minPrice,
			MaxPrice:     maxPrice,
			Search:       validators.SanitizeString(values.Get("search"), maxSearchLength),
		},
		Sort:      sort,
		Direction: direction,
		Page:      page,
	}, nil
}

// Get returns one product by id or slug together with its related products.
func Get(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		product, err := svc.Get(r.Context(), chi.URLParam(r, "idOrSlug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		related, err := svc.Related(r.Context(), product, catalogsvc.RelatedLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productResponse{
			Product: dto.NewProduct(*product),
			Related: dto.NewProducts(related),
		})
	}
}

// Home returns the landing page rails.
func Home(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		home, err := svc.Home(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, homeResponse{
			Featured:   dto.NewProducts(home.Featured),
			Categories: dto.NewCategories(home.Categories),
			Newest:     dto.NewProducts(home.Newest),
		})
	}
}

func Categories(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto.NewCategories(categories))
	}
}
