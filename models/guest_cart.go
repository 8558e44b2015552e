package models

import "time"

// GuestCart mirrors Cart for anonymous visitors. Unclaimed guest carts
// are swept after the retention window (see main.go).
type GuestCart struct {
	CartID    uint            `gorm:"primaryKey" json:"cart_id"`
	GuestID   string          `gorm:"uniqueIndex" json:"guest_id"` // one cart per guest
	Items     []GuestCartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type GuestCartItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CartID       uint      `gorm:"index" json:"cart_id"`
	ProductID    uint      `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ProductImage string    `json:"product_image"`
	Price        int64     `json:"price"`         // minor units
	RegularPrice int64     `json:"regular_price"` // minor units
	Weight       float64   `json:"weight"`
	Quantity     int       `json:"quantity"`
	AddedAt      time.Time `json:"added_at"`
}
