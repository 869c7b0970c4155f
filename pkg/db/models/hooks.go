package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Primary keys are assigned client side so the same models work on SQLite,
// which has no gen_random_uuid().

func (p *Product) BeforeCreate(*gorm.DB) error {
	p.ID = ensureID(p.ID)
	return nil
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	c.ID = ensureID(c.ID)
	return nil
}

func (l *CartLine) BeforeCreate(*gorm.DB) error {
	l.ID = ensureID(l.ID)
	return nil
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	o.ID = ensureID(o.ID)
	return nil
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	i.ID = ensureID(i.ID)
	return nil
}

func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
