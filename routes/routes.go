package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/souqline/souqline-api/controllers/order"
	"github.com/souqline/souqline-api/stock"
	"gorm.io/gorm"
)

// SetupRoutes wires every route group. The stock ledger and the order
// event hub are built once here and shared by all handlers that touch
// the order lifecycle.
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	ledger := stock.NewLedger()
	hub := orderControllers.NewHub()

	SetupAuthRoutes(r, db)
	SetupUserRoutes(r, db, ledger, hub)
	SetupGuestRoutes(r, db)
	SetupAdminRoutes(r, db, ledger, hub)
	SetupPaymentRoutes(r, db)
}
