package paymentControllers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/souqline/souqline-api/models"
	"gorm.io/gorm"
)

// ConfirmPayment marks the order behind orderRef as paid. The write is
// conditional on the order still being unpaid, so redeliveries — and
// two deliveries racing each other — stamp paid_at exactly once.
// Payment confirmation never moves the order status or stock:
// fulfillment is a separate axis.
//
// The second return value reports whether this call performed the
// transition (false for redeliveries).
func ConfirmPayment(db *gorm.DB, orderRef string) (bool, error) {
	res := db.Model(&models.Order{}).
		Where("order_ref = ? AND payment_status = ?", orderRef, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"paid_at":        time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// Either the order is already paid or the ref matches nothing.
	var order models.Order
	if err := db.Where("order_ref = ?", orderRef).First(&order).Error; err != nil {
		return false, err
	}
	return false, nil
}

// POST /payment/webhook
// Called by the provider after the hosted checkout finishes. The
// signature middleware has already verified the payload, so the fields
// can be trusted here. The provider retries until it gets a 200, so
// every terminal outcome — including an unknown ref — acknowledges.
func WebhookHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse form"})
			return
		}

		orderRef := c.PostForm("tran_cartid")
		tranStatus := c.PostForm("tran_status") // "A" = authorised

		if orderRef == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing tran_cartid"})
			return
		}

		if tranStatus != "A" {
			slog.Info("payment webhook: transaction not authorised",
				"order_ref", orderRef, "tran_status", tranStatus)
			c.JSON(http.StatusOK, gin.H{"message": "payment not successful"})
			return
		}

		applied, err := ConfirmPayment(db, orderRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Unmatched events are logged and acknowledged so the
				// provider stops retrying.
				slog.Warn("payment webhook: no order for reference", "order_ref", orderRef)
				c.JSON(http.StatusOK, gin.H{"message": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm payment"})
			return
		}

		if !applied {
			slog.Info("payment webhook: order already paid", "order_ref", orderRef)
			c.JSON(http.StatusOK, gin.H{"message": "already paid"})
			return
		}

		slog.Info("payment confirmed", "order_ref", orderRef)
		c.JSON(http.StatusOK, gin.H{"message": "payment confirmed"})
	}
}
