package middleware

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const testSecret = "whsec_test"

func signForm(form url.Values) string {
	parts := []string{testSecret}
	for _, f := range signedFields {
		parts = append(parts, strings.TrimSpace(form.Get(f)))
	}
	h := sha1.New()
	h.Write([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h.Sum(nil))
}

func postSigned(t *testing.T, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhook", PaymentWebhookAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func paymentForm() url.Values {
	return url.Values{
		"tran_ref":    {"040000000000"},
		"tran_cartid": {"20250101120000-abc"},
		"tran_amount": {"50.00"},
		"tran_status": {"A"},
	}
}

func TestWebhookAuth_ValidSignaturePasses(t *testing.T) {
	t.Setenv("PAY_WEBHOOK_SECRET", testSecret)
	t.Setenv("PAY_MODE", "live")

	form := paymentForm()
	form.Set("tran_check", signForm(form))

	w := postSigned(t, form)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookAuth_TamperedPayloadRejected(t *testing.T) {
	t.Setenv("PAY_WEBHOOK_SECRET", testSecret)
	t.Setenv("PAY_MODE", "live")

	form := paymentForm()
	form.Set("tran_check", signForm(form))
	form.Set("tran_amount", "1.00") // tampered after signing

	w := postSigned(t, form)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookAuth_MissingSignatureRejected(t *testing.T) {
	t.Setenv("PAY_WEBHOOK_SECRET", testSecret)
	t.Setenv("PAY_MODE", "live")

	w := postSigned(t, paymentForm())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookAuth_SandboxSkipsVerification(t *testing.T) {
	t.Setenv("PAY_WEBHOOK_SECRET", testSecret)
	t.Setenv("PAY_MODE", "sandbox")

	w := postSigned(t, paymentForm())
	assert.Equal(t, http.StatusOK, w.Code)
}
