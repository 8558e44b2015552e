package orderControllers

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/souqline/souqline-api/models"
	"github.com/souqline/souqline-api/stock"
	"gorm.io/gorm"
)

// -------- Request Structs --------

type PlaceOrderRequest struct {
	PaymentMethod   string          `json:"payment_method" binding:"required,oneof=cod card"`
	ShippingAddress *models.Address `json:"shipping_address"` // defaults to the user's saved address
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ForbiddenError means the actor lacks authority for the requested
// transition, as opposed to the transition itself being illegal.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

// -------- Helpers --------

// Shipping: one flat block charge per started 30kg above the first kilo.
const shippingBlockCharge int64 = 3000 // minor units

func shippingCost(totalWeight float64) int64 {
	if totalWeight <= 0 {
		return 0
	}
	return int64(math.Ceil((totalWeight-1)/30.0)) * shippingBlockCharge
}

func generateOrderRef() string {
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}

// -------- Core Logic --------

// PlaceOrder turns the user's cart into an order. The stock reservation,
// the order insert and the cart clear commit as one transaction: if any
// line is short the whole batch is rejected and nothing changes. This is
// the only code path that decrements stock.
func PlaceOrder(db *gorm.DB, ledger stock.Ledger, userID string, req PlaceOrderRequest) (*models.Order, error) {
	var user models.User
	if err := db.Preload("Cart.Items").First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	if len(user.Cart.Items) == 0 {
		return nil, errors.New("cart is empty")
	}

	address := user.Address
	if req.ShippingAddress != nil {
		address = *req.ShippingAddress
	}

	var order *models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		items := make([]stock.Item, 0, len(user.Cart.Items))
		for _, item := range user.Cart.Items {
			items = append(items, stock.Item{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		if err := ledger.ReserveBatch(tx, items); err != nil {
			return err
		}

		var total int64
		var totalWeight float64
		orderItems := make([]models.OrderItem, 0, len(user.Cart.Items))
		for _, item := range user.Cart.Items {
			total += item.Price * int64(item.Quantity)
			totalWeight += item.Weight * float64(item.Quantity)
			orderItems = append(orderItems, models.OrderItem{
				ProductID:    item.ProductID,
				ProductName:  item.ProductName,
				ProductImage: item.ProductImage,
				Price:        item.Price,
				RegularPrice: item.RegularPrice,
				Weight:       item.Weight,
				Quantity:     item.Quantity,
			})
		}

		shipping := shippingCost(totalWeight)
		order = &models.Order{
			OrderRef:        generateOrderRef(),
			UserID:          userID,
			Items:           orderItems,
			ShippingAddress: address,
			ShippingCost:    shipping,
			TotalAmount:     total + shipping,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			PaymentMethod:   req.PaymentMethod,
			CreatedAt:       time.Now(),
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		// Checkout consumes the cart.
		return tx.Where("cart_id = ?", user.Cart.CartID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	slog.Info("order placed",
		"order_ref", order.OrderRef,
		"user_id", userID,
		"items", len(order.Items),
		"total", order.TotalAmount,
		"payment_method", order.PaymentMethod)
	return order, nil
}

// SetStatus drives a single lifecycle transition. The status write is a
// compare-and-swap on the previous status, so concurrent transitions on
// one order are linearized: of two racing cancels only one swap lands,
// and only the winner releases stock. Entering canceled releases every
// item's stock exactly once: a repeat cancel is a no-op, guarded here
// at the single entry point rather than per call site.
//
// actorUserID is set for customer requests and empty for admins.
func SetStatus(db *gorm.DB, ledger stock.Ledger, orderID uint, newStatus models.OrderStatus, actor, actorUserID string) (*models.Order, error) {
	var order models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			return err
		}

		if actor == models.CancelledByUser {
			if order.UserID != actorUserID {
				return gorm.ErrRecordNotFound // don't leak other users' orders
			}
			if newStatus != models.OrderStatusCanceled {
				return &ForbiddenError{Reason: "customers may only cancel their orders"}
			}
		}

		// Repeating a cancel must not release stock a second time.
		if order.Status == models.OrderStatusCanceled && newStatus == models.OrderStatusCanceled {
			return nil
		}

		if actor == models.CancelledByUser && newStatus == models.OrderStatusCanceled {
			if order.Status != models.OrderStatusPending {
				return &ForbiddenError{Reason: "order is already being processed; contact support to cancel"}
			}
			if order.PaymentMethod != models.PaymentMethodCOD {
				return &ForbiddenError{Reason: "prepaid orders can only be cancelled by support"}
			}
		}

		if !models.CanTransition(order.Status, newStatus) {
			return &models.InvalidTransitionError{From: order.Status, To: newStatus}
		}

		updates := map[string]interface{}{"status": newStatus}

		if newStatus == models.OrderStatusCanceled {
			updates["cancelled_by"] = actor
			order.CancelledBy = actor
		}

		// Delivery is the payment event for cash-on-delivery orders.
		if newStatus == models.OrderStatusDelivered &&
			order.PaymentMethod == models.PaymentMethodCOD &&
			order.PaymentStatus != models.PaymentStatusPaid {
			now := time.Now()
			updates["payment_status"] = models.PaymentStatusPaid
			updates["paid_at"] = now
			order.PaymentStatus = models.PaymentStatusPaid
			order.PaidAt = &now
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost a race: someone else moved the order first.
			var current models.Order
			if err := tx.First(&current, "id = ?", order.ID).Error; err != nil {
				return err
			}
			if current.Status == models.OrderStatusCanceled && newStatus == models.OrderStatusCanceled {
				order = current
				return nil
			}
			return &models.InvalidTransitionError{From: current.Status, To: newStatus}
		}

		// The swap landed, so this call alone owns the cancel and the
		// release happens exactly once.
		if newStatus == models.OrderStatusCanceled {
			items := make([]stock.Item, 0, len(order.Items))
			for _, item := range order.Items {
				items = append(items, stock.Item{ProductID: item.ProductID, Quantity: item.Quantity})
			}
			if err := ledger.ReleaseBatch(tx, items); err != nil {
				return err
			}
		}

		order.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("order status updated",
		"order_ref", order.OrderRef,
		"status", order.Status,
		"actor", actor)
	return &order, nil
}

// -------- Handlers --------

func parseOrderID(c *gin.Context) (uint, bool) {
	raw := c.Param("orderID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderID"})
		return 0, false
	}
	return uint(id), true
}

func respondOrderError(c *gin.Context, err error) {
	var insufficient *stock.InsufficientStockError
	var invalid *models.InvalidTransitionError
	var forbidden *ForbiddenError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":     insufficient.Error(),
			"product":   insufficient.ProductName,
			"available": insufficient.Available,
		})
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{"error": invalid.Error(), "from": invalid.From, "to": invalid.To})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": forbidden.Reason})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// POST /user/orders
func PlaceOrderHandler(db *gorm.DB, ledger stock.Ledger, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		order, err := PlaceOrder(db, ledger, userIDVal.(string), req)
		if err != nil {
			respondOrderError(c, err)
			return
		}
		hub.Broadcast(OrderEvent{Type: "order_placed", Order: *order})
		c.JSON(http.StatusCreated, order)
	}
}

// POST /user/orders/:orderID/cancel
func CancelOrderHandler(db *gorm.DB, ledger stock.Ledger, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}
		order, err := SetStatus(db, ledger, orderID, models.OrderStatusCanceled, models.CancelledByUser, userIDVal.(string))
		if err != nil {
			respondOrderError(c, err)
			return
		}
		hub.Broadcast(OrderEvent{Type: "order_canceled", Order: *order})
		c.JSON(http.StatusOK, order)
	}
}

// PUT /admin/orders/:orderID/status
func UpdateOrderStatusHandler(db *gorm.DB, ledger stock.Ledger, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newStatus, valid := models.ParseOrderStatus(req.Status)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown order status %q", req.Status)})
			return
		}
		order, err := SetStatus(db, ledger, orderID, newStatus, models.CancelledByAdmin, "")
		if err != nil {
			respondOrderError(c, err)
			return
		}
		hub.Broadcast(OrderEvent{Type: "order_status", Order: *order})
		c.JSON(http.StatusOK, order)
	}
}

// GET /user/orders
func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var orders []models.Order
		if err := db.Where("user_id = ?", userIDVal.(string)).
			Preload("Items").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /user/orders/:orderID
func GetUserOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}
		var order models.Order
		if err := db.Preload("Items").
			Where("id = ? AND user_id = ?", orderID, userIDVal.(string)).
			First(&order).Error; err != nil {
			respondOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /admin/orders
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("Items").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}
