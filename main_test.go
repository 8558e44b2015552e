package main

import (
	"testing"
	"time"

	"github.com/souqline/souqline-api/auth"
	"github.com/souqline/souqline-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSweeperDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.GuestUser{}, &models.GuestCart{}, &models.GuestCartItem{},
	))
	return db
}

func seedGuestCartAged(t *testing.T, db *gorm.DB, guestID string, lastActive time.Time) models.GuestCart {
	t.Helper()
	guestCart := models.GuestCart{GuestID: guestID}
	require.NoError(t, db.Create(&guestCart).Error)
	require.NoError(t, db.Create(&models.GuestCartItem{
		CartID: guestCart.CartID, ProductID: 1, Quantity: 1, AddedAt: lastActive,
	}).Error)
	// UpdateColumn bypasses gorm's automatic updated_at stamping.
	require.NoError(t, db.Model(&guestCart).UpdateColumn("updated_at", lastActive).Error)
	return guestCart
}

func TestSweepGuestCarts_RemovesStaleKeepsFresh(t *testing.T) {
	db := setupSweeperDB(t)
	stale := seedGuestCartAged(t, db, "g-stale", time.Now().Add(-auth.GuestRetention-time.Hour))
	fresh := seedGuestCartAged(t, db, "g-fresh", time.Now().Add(-time.Hour))

	sweepGuestCarts(db, auth.GuestRetention)

	var n int64
	require.NoError(t, db.Model(&models.GuestCart{}).Where("cart_id = ?", stale.CartID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.GuestCartItem{}).Where("cart_id = ?", stale.CartID).Count(&n).Error)
	assert.Zero(t, n)

	require.NoError(t, db.Model(&models.GuestCart{}).Where("cart_id = ?", fresh.CartID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, db.Model(&models.GuestCartItem{}).Where("cart_id = ?", fresh.CartID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestSweepGuestCarts_RemovesExpiredGuests(t *testing.T) {
	db := setupSweeperDB(t)
	require.NoError(t, db.Create(&models.GuestUser{
		ID: "guest_expired", ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.GuestUser{
		ID: "guest_live", ExpiresAt: time.Now().Add(auth.GuestRetention),
	}).Error)

	sweepGuestCarts(db, auth.GuestRetention)

	var guests []models.GuestUser
	require.NoError(t, db.Find(&guests).Error)
	require.Len(t, guests, 1)
	assert.Equal(t, "guest_live", guests[0].ID)
}
