package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. Listings only surface active, in-stock
// rows; detail lookups return any row.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Slug           string          `gorm:"column:slug;not null;uniqueIndex"`
	Name           string          `gorm:"column:name;not null"`
	Description    string          `gorm:"column:description;not null;default:''"`
	Ingredients    *string         `gorm:"column:ingredients"`
	ImageURL       *string         `gorm:"column:image_url"`
	GalleryURLs    pq.StringArray  `gorm:"column:gallery_urls;type:text"`
	HealthBenefits pq.StringArray  `gorm:"column:health_benefits;type:text"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(8,2);not null"`
	StockQuantity  int             `gorm:"column:stock_quantity;not null;default:0"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	IsFeatured     bool            `gorm:"column:is_featured;not null;default:false"`
	SortOrder      int             `gorm:"column:sort_order;not null;default:0"`
	Categories     []Category      `gorm:"many2many:product_categories;joinForeignKey:ProductID;joinReferences:CategoryID"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// InStock reports whether the product can currently be listed.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// CategoryIDs returns the ids of the loaded categories.
func (p Product) CategoryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Categories))
	for _, c := range p.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}
