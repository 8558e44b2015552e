package routes

import (
	"github.com/gin-gonic/gin"
	adminControllers "github.com/souqline/souqline-api/controllers/admin"
	cartControllers "github.com/souqline/souqline-api/controllers/cart"
	orderControllers "github.com/souqline/souqline-api/controllers/order"
	"github.com/souqline/souqline-api/middleware"
	"github.com/souqline/souqline-api/stock"
	"gorm.io/gorm"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. API-key protected.
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB, ledger stock.Ledger, hub *orderControllers.Hub) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey)
	{
		orderGroup := adminGroup.Group("/orders")
		{
			orderGroup.GET("/", orderControllers.GetAllOrdersHandler(db))
			orderGroup.GET("/export", adminControllers.ExportOrdersToExcel(db))
			orderGroup.GET("/ws", hub.Handler())
			orderGroup.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(db, ledger, hub))
		}

		adminGroup.GET("/users/:user_id/cart", cartControllers.GetAdminUserCart(db))
	}
}
