// Package dto holds the JSON shapes shared by the storefront controllers.
// Money is always rendered as a two-decimal string.
package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
)

// Money formats an amount with two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(pricing.Places)
}

type Category struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	SortOrder   int       `json:"sort_order"`
}

func NewCategory(c models.Category) Category {
	return Category{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
		SortOrder:   c.SortOrder,
	}
}

func NewCategories(in []models.Category) []Category {
	out := make([]Category, 0, len(in))
	for _, c := range in {
		out = append(out, NewCategory(c))
	}
	return out
}

type Product struct {
	ID             uuid.UUID  `json:"id"`
	Slug           string     `json:"slug"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Ingredients    *string    `json:"ingredients,omitempty"`
	ImageURL       *string    `json:"image_url,omitempty"`
	GalleryURLs    []string   `json:"gallery_urls,omitempty"`
	HealthBenefits []string   `json:"health_benefits,omitempty"`
	Price          string     `json:"price"`
	StockQuantity  int        `json:"stock_quantity"`
	InStock        bool       `json:"in_stock"`
	IsActive       bool       `json:"is_active"`
	IsFeatured     bool       `json:"is_featured"`
	Categories     []Category `json:"categories"`
	CreatedAt      time.Time  `json:"created_at"`
}

func NewProduct(p models.Product) Product {
	return Product{
		ID:             p.ID,
		Slug:           p.Slug,
		Name:           p.Name,
		Description:    p.Description,
		Ingredients:    p.Ingredients,
		ImageURL:       p.ImageURL,
		GalleryURLs:    p.GalleryURLs,
		HealthBenefits: p.HealthBenefits,
		Price:          Money(p.Price),
		StockQuantity:  p.StockQuantity,
		InStock:        p.InStock(),
		IsActive:       p.IsActive,
		IsFeatured:     p.IsFeatured,
		Categories:     NewCategories(p.Categories),
		CreatedAt:      p.CreatedAt,
	}
}

func NewProducts(in []models.Product) []Product {
	out := make([]Product, 0, len(in))
	for _, p := range in {
		out = append(out, NewProduct(p))
	}
	return out
}

// CartLine is a cart row with the live product price.
type CartLine struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	LineTotal string    `json:"line_total"`
	Product   *Product  `json:"product,omitempty"`
}

func NewCartLine(l models.CartLine) CartLine {
	out := CartLine{
		ID:        l.ID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: Money(decimal.Zero),
		LineTotal: Money(decimal.Zero),
	}
	if l.Product != nil {
		p := NewProduct(*l.Product)
		out.Product = &p
		line := pricing.Line{Quantity: l.Quantity, UnitPrice: l.Product.Price}
		out.UnitPrice = Money(line.UnitPrice)
		out.LineTotal = Money(line.Total())
	}
	return out
}

func NewCartLines(in []models.CartLine) []CartLine {
	out := make([]CartLine, 0, len(in))
	for _, l := range in {
		out = append(out, NewCartLine(l))
	}
	return out
}

type Quote struct {
	Subtotal    string `json:"subtotal"`
	DeliveryFee string `json:"delivery_fee"`
	Total       string `json:"total"`
}

func NewQuote(q pricing.Quote) Quote {
	return Quote{
		Subtotal:    Money(q.Subtotal),
		DeliveryFee: Money(q.DeliveryFee),
		Total:       Money(q.Total),
	}
}

type OrderItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Price       string    `json:"price"`
	LineTotal   string    `json:"line_total"`
}

type Order struct {
	ID               uuid.UUID            `json:"id"`
	OrderNumber      string               `json:"order_number"`
	Status           enums.OrderStatus    `json:"status"`
	CustomerName     string               `json:"customer_name"`
	CustomerEmail    string               `json:"customer_email"`
	CustomerPhone    string               `json:"customer_phone"`
	ShippingAddress  string               `json:"shipping_address"`
	DeliveryMethod   enums.DeliveryMethod `json:"delivery_method"`
	DeliveryDistance string               `json:"delivery_distance"`
	Subtotal         string               `json:"subtotal"`
	DeliveryFee      string               `json:"delivery_fee"`
	TotalAmount      string               `json:"total_amount"`
	Items            []OrderItem          `json:"items"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func NewOrder(o models.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       Money(it.Price),
			LineTotal:   Money(it.LineTotal()),
		})
	}
	return Order{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		Status:           o.Status,
		CustomerName:     o.CustomerName,
		CustomerEmail:    o.CustomerEmail,
		CustomerPhone:    o.CustomerPhone,
		ShippingAddress:  o.ShippingAddress,
		DeliveryMethod:   o.DeliveryMethod,
		DeliveryDistance: Money(o.DeliveryDistance),
		Subtotal:         Money(o.Subtotal),
		DeliveryFee:      Money(o.DeliveryFee),
		TotalAmount:      Money(o.TotalAmount),
		Items:            items,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
