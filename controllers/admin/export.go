package adminControllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/souqline/souqline-api/models"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// GET /admin/orders/export
// Streams every order as an xlsx download, one row per order item.
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{
			"OrderRef", "UserID", "Status", "PaymentStatus", "PaymentMethod",
			"CancelledBy", "TotalAmount", "ShippingCost", "CreatedAt", "PaidAt",
			"ProductID", "ProductName", "Quantity", "Price",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, order := range orders {
			for _, item := range order.Items {
				row := sheet.AddRow()
				row.AddCell().SetValue(order.OrderRef)
				row.AddCell().SetValue(order.UserID)
				row.AddCell().SetValue(string(order.Status))
				row.AddCell().SetValue(string(order.PaymentStatus))
				row.AddCell().SetValue(order.PaymentMethod)
				row.AddCell().SetValue(order.CancelledBy)
				row.AddCell().SetValue(order.TotalAmount)
				row.AddCell().SetValue(order.ShippingCost)
				row.AddCell().SetValue(order.CreatedAt.Format(time.RFC3339))
				if order.PaidAt != nil {
					row.AddCell().SetValue(order.PaidAt.Format(time.RFC3339))
				} else {
					row.AddCell().SetValue("")
				}
				row.AddCell().SetValue(strconv.Itoa(int(item.ProductID)))
				row.AddCell().SetValue(item.ProductName)
				row.AddCell().SetValue(item.Quantity)
				row.AddCell().SetValue(item.Price)
			}
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
