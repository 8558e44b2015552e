package cartControllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/souqline/souqline-api/cart"
	"github.com/souqline/souqline-api/models"
	"gorm.io/gorm"
)

// touchGuestCart marks the cart as recently active so the retention
// sweeper keys off the last item write, not the cart row's age.
func touchGuestCart(db *gorm.DB, cartID uint) {
	if err := db.Model(&models.GuestCart{}).Where("cart_id = ?", cartID).
		Update("updated_at", time.Now()).Error; err != nil {
		slog.Warn("failed to touch guest cart", "cart_id", cartID, "error", err)
	}
}

// POST /guest/cart
func UpdateGuestCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestID := c.Query("guest_id")
		if guestID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guest_id is required"})
			return
		}

		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var product models.Product
		if err := db.First(&product, "id = ?", input.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Product does not exist"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate product"})
			return
		}

		qty, err := cart.ClampQuantity(input.Quantity, &product)
		if err != nil {
			respondCartError(c, err)
			return
		}

		var guestCart models.GuestCart
		if err := db.Where("guest_id = ?", guestID).First(&guestCart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				guestCart = models.GuestCart{GuestID: guestID}
				if err := db.Create(&guestCart).Error; err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest cart"})
					return
				}
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guest cart"})
				return
			}
		}

		var item models.GuestCartItem
		err = db.Where("cart_id = ? AND product_id = ?", guestCart.CartID, input.ProductID).First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				newItem := models.GuestCartItem{
					CartID:       guestCart.CartID,
					ProductID:    product.ID,
					ProductName:  product.Name,
					ProductImage: product.Image,
					Price:        product.Price,
					RegularPrice: product.RegularPrice,
					Weight:       product.Weight,
					Quantity:     qty,
					AddedAt:      time.Now(),
				}
				if err := db.Create(&newItem).Error; err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to guest cart"})
					return
				}
				touchGuestCart(db, guestCart.CartID)
				c.JSON(http.StatusCreated, newItem)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart item"})
			return
		}

		item.Quantity = qty
		item.AddedAt = time.Now()
		if err := db.Save(&item).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update guest cart item"})
			return
		}
		touchGuestCart(db, guestCart.CartID)
		c.JSON(http.StatusOK, item)
	}
}

// DELETE /guest/cart/:product_id
func DeleteGuestCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestID := c.Query("guest_id")
		if guestID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guest_id is required"})
			return
		}

		productIDParam := c.Param("product_id")
		productID, err := strconv.ParseUint(productIDParam, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id"})
			return
		}

		var guestCart models.GuestCart
		if err := db.Where("guest_id = ?", guestID).First(&guestCart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Guest cart not found"})
			return
		}

		result := db.Where("cart_id = ? AND product_id = ?", guestCart.CartID, uint(productID)).Delete(&models.GuestCartItem{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		touchGuestCart(db, guestCart.CartID)
		c.JSON(http.StatusOK, gin.H{"message": "Guest cart item deleted"})
	}
}

// DELETE /guest/cart
func ClearGuestCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestID := c.Query("guest_id")
		if guestID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guest_id is required"})
			return
		}

		var guestCart models.GuestCart
		if err := db.Where("guest_id = ?", guestID).First(&guestCart).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guest cart"})
			return
		}
		if err := db.Where("cart_id = ?", guestCart.CartID).Delete(&models.GuestCartItem{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear guest cart"})
			return
		}
		touchGuestCart(db, guestCart.CartID)
		c.JSON(http.StatusOK, gin.H{"message": "Guest cart cleared"})
	}
}

// GET /guest/cart
func GetGuestCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestID := c.Query("guest_id")
		if guestID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guest_id is required"})
			return
		}

		var guestCart models.GuestCart
		if err := db.Preload("Items").Where("guest_id = ?", guestID).First(&guestCart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusOK, []models.GuestCartItem{})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guest cart"})
			return
		}
		c.JSON(http.StatusOK, guestCart.Items)
	}
}
