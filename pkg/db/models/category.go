package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	SortOrder   int       `gorm:"column:sort_order;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductCategory is the join row between products and categories.
type ProductCategory struct {
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey"`
}

func (ProductCategory) TableName() string {
	return "product_categories"
}
