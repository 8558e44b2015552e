package middleware

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// signedFields is the provider's documented field order for the
// tran_check digest.
var signedFields = []string{
	"tran_store", "tran_type", "tran_class", "tran_test", "tran_ref",
	"tran_prevref", "tran_firstref", "tran_order", "tran_currency",
	"tran_amount", "tran_cartid", "tran_desc", "tran_status",
	"tran_authcode", "tran_authmessage",
}

// PaymentWebhookAuth verifies the provider's webhook signature before
// any handler reads the payload. The event is untrusted network input;
// it is validated once here and never re-checked downstream. Sandbox
// mode skips the check.
func PaymentWebhookAuth() gin.HandlerFunc {
	secretKey := os.Getenv("PAY_WEBHOOK_SECRET")
	mode := strings.ToLower(os.Getenv("PAY_MODE"))
	if secretKey == "" && mode != "sandbox" && mode != "dev" {
		panic("PAY_WEBHOOK_SECRET is not set")
	}

	return func(c *gin.Context) {
		if mode == "sandbox" || mode == "dev" {
			c.Next()
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse form for signature verification"})
			c.Abort()
			return
		}

		providedCheck := c.PostForm("tran_check")
		if providedCheck == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "missing tran_check signature"})
			c.Abort()
			return
		}

		parts := []string{secretKey}
		for _, f := range signedFields {
			parts = append(parts, strings.TrimSpace(c.PostForm(f)))
		}

		h := sha1.New()
		h.Write([]byte(strings.Join(parts, ":")))
		calculated := hex.EncodeToString(h.Sum(nil))

		if !strings.EqualFold(calculated, providedCheck) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid webhook signature"})
			c.Abort()
			return
		}

		c.Next()
	}
}
