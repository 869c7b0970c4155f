package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one product held by a (session, optional account) scope. At most
// one row exists per scope and product.
type CartLine struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SessionID string     `gorm:"column:session_id;not null"`
	AccountID *uuid.UUID `gorm:"column:account_id;type:uuid"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int        `gorm:"column:quantity;not null"`
	Product   *Product   `gorm:"foreignKey:ProductID;references:ID"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
