package paymentControllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/souqline/souqline-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}))
	return db
}

func seedCardOrder(t *testing.T, db *gorm.DB, ref string) models.Order {
	t.Helper()
	order := models.Order{
		OrderRef:      ref,
		UserID:        "u1",
		TotalAmount:   5000,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: models.PaymentMethodCard,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func reload(t *testing.T, db *gorm.DB, id uint) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, db.First(&order, id).Error)
	return order
}

func TestConfirmPayment_MarksPaidOnce(t *testing.T) {
	db := setupDB(t)
	order := seedCardOrder(t, db, "ref-1")

	applied, err := ConfirmPayment(db, "ref-1")
	require.NoError(t, err)
	assert.True(t, applied)

	paid := reload(t, db, order.ID)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaidAt)
	firstPaidAt := *paid.PaidAt

	// Redelivery: no mutation, no fresh timestamp.
	applied, err = ConfirmPayment(db, "ref-1")
	require.NoError(t, err)
	assert.False(t, applied)

	again := reload(t, db, order.ID)
	require.NotNil(t, again.PaidAt)
	assert.True(t, firstPaidAt.Equal(*again.PaidAt))
}

func TestConfirmPayment_LeavesOrderStatusAlone(t *testing.T) {
	db := setupDB(t)
	order := seedCardOrder(t, db, "ref-1")

	_, err := ConfirmPayment(db, "ref-1")
	require.NoError(t, err)

	// Payment and fulfillment are independent axes.
	assert.Equal(t, models.OrderStatusPending, reload(t, db, order.ID).Status)
}

func TestConfirmPayment_UnknownRef(t *testing.T) {
	db := setupDB(t)
	_, err := ConfirmPayment(db, "no-such-ref")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// -------- Webhook handler --------

func postWebhook(t *testing.T, db *gorm.DB, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/payment/webhook", WebhookHandler(db))

	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhook_AuthorisedMarksPaid(t *testing.T) {
	db := setupDB(t)
	order := seedCardOrder(t, db, "ref-1")

	w := postWebhook(t, db, url.Values{
		"tran_cartid": {"ref-1"},
		"tran_status": {"A"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	paid := reload(t, db, order.ID)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	assert.NotNil(t, paid.PaidAt)
}

func TestWebhook_RedeliveryIsSafeNoOp(t *testing.T) {
	db := setupDB(t)
	order := seedCardOrder(t, db, "ref-1")

	first := postWebhook(t, db, url.Values{"tran_cartid": {"ref-1"}, "tran_status": {"A"}})
	require.Equal(t, http.StatusOK, first.Code)
	paidAt := reload(t, db, order.ID).PaidAt
	require.NotNil(t, paidAt)

	second := postWebhook(t, db, url.Values{"tran_cartid": {"ref-1"}, "tran_status": {"A"}})
	assert.Equal(t, http.StatusOK, second.Code)

	again := reload(t, db, order.ID)
	require.NotNil(t, again.PaidAt)
	assert.True(t, paidAt.Equal(*again.PaidAt))
}

func TestWebhook_UnknownRefIsAcknowledged(t *testing.T) {
	db := setupDB(t)

	// Acknowledge so the provider stops retrying an event we can never match.
	w := postWebhook(t, db, url.Values{"tran_cartid": {"ghost"}, "tran_status": {"A"}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhook_DeclinedDoesNotMutate(t *testing.T) {
	db := setupDB(t)
	order := seedCardOrder(t, db, "ref-1")

	w := postWebhook(t, db, url.Values{"tran_cartid": {"ref-1"}, "tran_status": {"D"}})
	assert.Equal(t, http.StatusOK, w.Code)

	unchanged := reload(t, db, order.ID)
	assert.Equal(t, models.PaymentStatusPending, unchanged.PaymentStatus)
	assert.Nil(t, unchanged.PaidAt)
}

func TestWebhook_MissingCartID(t *testing.T) {
	db := setupDB(t)
	w := postWebhook(t, db, url.Values{"tran_status": {"A"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
