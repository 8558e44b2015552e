package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is owned by the catalog. The core reads it and mutates Stock
// only through the stock ledger — no handler writes Stock directly.
type Product struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Description  string         `json:"description"`
	Price        int64          `gorm:"not null" json:"price"` // minor units
	RegularPrice int64          `json:"regular_price"`         // minor units
	Image        string         `json:"image"`
	Weight       float64        `json:"weight"` // kg, drives shipping cost
	Stock        int            `json:"stock"`
	Active       bool           `gorm:"default:true" json:"active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Sellable reports whether the product may appear in carts and orders.
func (p *Product) Sellable() bool {
	return p.Active && !p.DeletedAt.Valid
}
