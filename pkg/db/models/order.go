package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// Order is written once by checkout; only Status changes afterwards.
type Order struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber      string               `gorm:"column:order_number;not null;uniqueIndex"`
	AccountID        *uuid.UUID           `gorm:"column:account_id;type:uuid"`
	SessionID        string               `gorm:"column:session_id;not null"`
	CustomerName     string               `gorm:"column:customer_name;not null"`
	CustomerEmail    string               `gorm:"column:customer_email;not null"`
	CustomerPhone    string               `gorm:"column:customer_phone;not null"`
	ShippingAddress  string               `gorm:"column:shipping_address;not null"`
	Subtotal         decimal.Decimal      `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DeliveryFee      decimal.Decimal      `gorm:"column:delivery_fee;type:numeric(8,2);not null"`
	TotalAmount      decimal.Decimal      `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status           enums.OrderStatus    `gorm:"column:status;not null;default:'pending'"`
	DeliveryMethod   enums.DeliveryMethod `gorm:"column:delivery_method;not null;default:'standard'"`
	DeliveryDistance decimal.Decimal      `gorm:"column:delivery_distance;type:numeric(8,2);not null"`
	Items            []OrderItem          `gorm:"foreignKey:OrderID;references:ID"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem carries the product name and price copied at checkout time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(8,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// LineTotal is quantity times the snapshot price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
