package models

import "time"

type Cart struct {
	CartID    uint       `gorm:"primaryKey" json:"cart_id"`
	UserID    string     `gorm:"uniqueIndex" json:"user_id"` // one cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem snapshots price and display fields at add-time so cart
// totals stay stable if the product is edited later. At most one item
// per product in a cart.
type CartItem struct {
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
