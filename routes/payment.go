package routes

import (
	"github.com/gin-gonic/gin"
	paymentControllers "github.com/souqline/souqline-api/controllers/payment"
	"github.com/souqline/souqline-api/middleware"
	"gorm.io/gorm"
)

func SetupPaymentRoutes(r *gin.Engine, db *gorm.DB) {
	payment := r.Group("/payment")
	{
		payment.POST("/session",
			middleware.ValidateToken,
			paymentControllers.CreateSessionHandler(db),
		)

		// Webhook: signature verification happens in middleware, the
		// handler trusts what survives it.
		payment.POST("/webhook",
			middleware.PaymentWebhookAuth(),
			paymentControllers.WebhookHandler(db),
		)
	}
}
