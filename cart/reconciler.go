// Package cart merges guest and user carts and clamps quantities to
// live stock. Everything here is pure: callers load the inputs and
// persist the result.
package cart

import (
	"fmt"
	"sort"
	"time"

	"github.com/souqline/souqline-api/models"
)

// OutOfStockError rejects a quantity request against a product with no
// remaining stock.
type OutOfStockError struct {
	ProductName string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%q is out of stock", e.ProductName)
}

// ClampQuantity bounds a requested quantity into [1, available].
// Requests below 1 are a caller error: zero means "remove", which is a
// different operation, and is not silently coerced.
func ClampQuantity(requested int, product *models.Product) (int, error) {
	if requested < 1 {
		return 0, fmt.Errorf("quantity must be at least 1, got %d", requested)
	}
	if product.Stock < 1 || !product.Sellable() {
		return 0, &OutOfStockError{ProductName: product.Name}
	}
	if requested > product.Stock {
		return product.Stock, nil
	}
	return requested, nil
}

// Merge unions a guest cart into a user cart, keyed by product.
// Where a product appears in both, the larger quantity wins — both
// carts may carry the same browsing intent, and the max reflects the
// customer's most deliberate choice. Every line is clamped to current
// stock, snapshots are refreshed from the live product, and lines whose
// product is gone, inactive, or out of stock are dropped silently.
//
// products maps product ID to the current catalog record. The result is
// ordered by product ID so merging is deterministic.
func Merge(guestItems []models.GuestCartItem, userItems []models.CartItem, products map[uint]models.Product) []models.CartItem {
	quantities := make(map[uint]int)
	for _, item := range userItems {
		if item.Quantity > quantities[item.ProductID] {
			quantities[item.ProductID] = item.Quantity
		}
	}
	for _, item := range guestItems {
		if item.Quantity > quantities[item.ProductID] {
			quantities[item.ProductID] = item.Quantity
		}
	}

	ids := make([]uint, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	now := time.Now()
	merged := make([]models.CartItem, 0, len(ids))
	for _, id := range ids {
		product, ok := products[id]
		if !ok || !product.Sellable() || product.Stock < 1 {
			continue
		}
		qty := quantities[id]
		if qty > product.Stock {
			qty = product.Stock
		}
		merged = append(merged, models.CartItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductImage: product.Image,
			Price:        product.Price,
			RegularPrice: product.RegularPrice,
			Weight:       product.Weight,
			Quantity:     qty,
			AddedAt:      now,
		})
	}
	return merged
}
