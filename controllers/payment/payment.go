package paymentControllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/souqline/souqline-api/models"
	"gorm.io/gorm"
)

// sessionResponse is the provider's answer to a session create call.
type sessionResponse struct {
	Order struct {
		Ref string `json:"ref"`
		URL string `json:"url"`
	} `json:"order"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func providerConfig() (storeID int, authKey, apiURL string, testMode int, err error) {
	storeID, _ = strconv.Atoi(os.Getenv("PAY_STORE_ID"))
	authKey = os.Getenv("PAY_AUTH_KEY")
	apiURL = os.Getenv("PAY_API_URL")
	testMode = 0

	mode := os.Getenv("PAY_MODE")
	if mode == "sandbox" || mode == "dev" {
		testMode = 1
	}

	if storeID == 0 || authKey == "" || apiURL == "" {
		return 0, "", "", 0, fmt.Errorf("payment provider configuration missing")
	}
	return storeID, authKey, apiURL, testMode, nil
}

// createSession asks the provider for a hosted checkout URL. The order
// reference travels in the provider's cartid field and comes back on
// the webhook as tran_cartid — that field, not the return URL, is the
// correlation between the event and the order.
func createSession(order *models.Order, user *models.User) (string, error) {
	storeID, authKey, apiURL, testMode, err := providerConfig()
	if err != nil {
		return "", err
	}

	amount := fmt.Sprintf("%d.%02d", order.TotalAmount/100, order.TotalAmount%100)
	payload := map[string]interface{}{
		"method":  "create",
		"store":   storeID,
		"authkey": authKey,
		"order": map[string]interface{}{
			"cartid":      order.OrderRef,
			"test":        testMode,
			"amount":      amount,
			"currency":    os.Getenv("PAY_CURRENCY"),
			"description": fmt.Sprintf("order %s", order.OrderRef),
		},
		"customer": map[string]interface{}{
			"name":  user.Name,
			"email": user.Email,
			"phone": user.Phone,
			"address": map[string]string{
				"line1":    order.ShippingAddress.Street,
				"city":     order.ShippingAddress.City,
				"region":   order.ShippingAddress.State,
				"country":  order.ShippingAddress.Country,
				"postcode": order.ShippingAddress.PostalCode,
			},
		},
		"return": map[string]string{
			"authorised": os.Getenv("PAY_SUCCESS_URL"),
			"declined":   os.Getenv("PAY_FAILURE_URL"),
			"cancelled":  os.Getenv("PAY_CANCEL_URL"),
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach payment provider: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment provider error (%d): %s", resp.StatusCode, string(body))
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return "", fmt.Errorf("failed to parse provider response: %w", err)
	}
	if session.Error != nil {
		return "", fmt.Errorf("payment provider error: %s", session.Error.Message)
	}
	if session.Order.URL == "" {
		return "", fmt.Errorf("payment provider returned empty checkout URL")
	}
	return session.Order.URL, nil
}

// POST /payment/session
// Creates a hosted checkout session for an unpaid card order owned by
// the caller.
func CreateSessionHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		var input struct {
			OrderRef string `json:"order_ref" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var order models.Order
		if err := db.Where("order_ref = ? AND user_id = ?", input.OrderRef, userID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if order.PaymentMethod != models.PaymentMethodCard {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order is not payable by card"})
			return
		}
		if order.Status == models.OrderStatusCanceled {
			c.JSON(http.StatusConflict, gin.H{"error": "order is canceled"})
			return
		}
		if order.PaymentStatus == models.PaymentStatusPaid {
			c.JSON(http.StatusConflict, gin.H{"error": "order is already paid"})
			return
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		checkoutURL, err := createSession(&order, &user)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"payment_url": checkoutURL,
			"order_ref":   order.OrderRef,
		})
	}
}
