package cartControllers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/souqline/souqline-api/cart"
	"github.com/souqline/souqline-api/models"
	"gorm.io/gorm"
)

// MergeGuestCart folds a guest cart into the user's cart at login. The
// union/clamp decision itself lives in cart.Merge; this function loads
// both carts and the live products, persists the merged lines and
// discards the guest cart, all in one transaction. Returns whether
// anything was merged.
func MergeGuestCart(db *gorm.DB, guestID, userID string) (bool, error) {
	merged := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var guestCart models.GuestCart
		if err := tx.Preload("Items").Where("guest_id = ?", guestID).First(&guestCart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // nothing to merge
			}
			return err
		}

		var userCart models.Cart
		err := tx.Preload("Items").Where("user_id = ?", userID).First(&userCart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			userCart = models.Cart{UserID: userID}
			if err := tx.Create(&userCart).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		products, err := loadProducts(tx, guestCart.Items, userCart.Items)
		if err != nil {
			return err
		}

		mergedItems := cart.Merge(guestCart.Items, userCart.Items, products)

		// Replace the user cart's lines with the merged set.
		if err := tx.Where("cart_id = ?", userCart.CartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for i := range mergedItems {
			mergedItems[i].CartID = userCart.CartID
		}
		if len(mergedItems) > 0 {
			if err := tx.Create(&mergedItems).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&userCart).Update("updated_at", time.Now()).Error; err != nil {
			return err
		}

		// The guest cart is consumed by the merge.
		if err := tx.Where("cart_id = ?", guestCart.CartID).Delete(&models.GuestCartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&guestCart).Error; err != nil {
			return err
		}

		merged = len(guestCart.Items) > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	if merged {
		slog.Info("guest cart merged", "guest_id", guestID, "user_id", userID)
	}
	return merged, nil
}

func loadProducts(tx *gorm.DB, guestItems []models.GuestCartItem, userItems []models.CartItem) (map[uint]models.Product, error) {
	ids := make([]uint, 0, len(guestItems)+len(userItems))
	for _, item := range guestItems {
		ids = append(ids, item.ProductID)
	}
	for _, item := range userItems {
		ids = append(ids, item.ProductID)
	}
	var products []models.Product
	if len(ids) > 0 {
		if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}
