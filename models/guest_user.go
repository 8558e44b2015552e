package models

import "time"

// GuestUser is an opaque identity handed to anonymous visitors. It
// expires on the same window as guest cart retention.
type GuestUser struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}
