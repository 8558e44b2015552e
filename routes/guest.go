package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/souqline/souqline-api/controllers/cart"
	productControllers "github.com/souqline/souqline-api/controllers/product"
	"gorm.io/gorm"
)

// SetupGuestRoutes registers the anonymous surface. Guest identity is a
// client-supplied opaque token; there is nothing to verify server-side.
func SetupGuestRoutes(r *gin.Engine, db *gorm.DB) {
	guestGroup := r.Group("/guest")
	{
		guestGroup.GET("/cart", cartControllers.GetGuestCart(db))
		guestGroup.POST("/cart", cartControllers.UpdateGuestCartItem(db))
		guestGroup.DELETE("/cart/:product_id", cartControllers.DeleteGuestCartItem(db))
		guestGroup.DELETE("/cart", cartControllers.ClearGuestCart(db))
	}

	r.GET("/products", productControllers.GetProducts(db))
	r.GET("/products/:id", productControllers.GetProductByID(db))
}
