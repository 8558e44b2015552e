package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/souqline/souqline-api/controllers/cart"
	orderControllers "github.com/souqline/souqline-api/controllers/order"
	productControllers "github.com/souqline/souqline-api/controllers/product"
	"github.com/souqline/souqline-api/middleware"
	"github.com/souqline/souqline-api/stock"
	"gorm.io/gorm"
)

// SetupUserRoutes registers all "/user/*" endpoints. Requires a session JWT.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB, ledger stock.Ledger, hub *orderControllers.Hub) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken)
	{
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("/", cartControllers.GetUserCart(db))
			cartGroup.POST("/", cartControllers.UpdateCartItem(db))
			cartGroup.DELETE("/:product_id", cartControllers.DeleteCartItem(db))
			cartGroup.DELETE("/", cartControllers.ClearUserCart(db))
		}

		orderGroup := userGroup.Group("/orders")
		{
			orderGroup.POST("/", orderControllers.PlaceOrderHandler(db, ledger, hub))
			orderGroup.GET("/", orderControllers.GetUserOrdersHandler(db))
			orderGroup.GET("/:orderID", orderControllers.GetUserOrderHandler(db))
			orderGroup.POST("/:orderID/cancel", orderControllers.CancelOrderHandler(db, ledger, hub))
		}

		userGroup.GET("/products", productControllers.GetProducts(db))
		userGroup.GET("/products/:id", productControllers.GetProductByID(db))
	}
}
