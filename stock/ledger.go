package stock

import (
	"errors"
	"fmt"
	"sort"

	"github.com/souqline/souqline-api/models"
	"gorm.io/gorm"
)

// Item is one line of a reservation or release request.
type Item struct {
	ProductID uint
	Quantity  int
}

// InsufficientStockError names the first offending product and the
// quantity actually available so callers can show an actionable message.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: only %d left", e.ProductName, e.Available)
}

// Ledger is the only write path to Product.Stock. Methods take the
// caller's *gorm.DB so a reservation commits or rolls back together
// with the order write that consumed it.
type Ledger interface {
	Reserve(tx *gorm.DB, productID uint, qty int) error
	Release(tx *gorm.DB, productID uint, qty int) error
	ReserveBatch(tx *gorm.DB, items []Item) error
	ReleaseBatch(tx *gorm.DB, items []Item) error
}

type ledger struct{}

func NewLedger() Ledger {
	return ledger{}
}

// Reserve decrements stock with a single conditional update. The
// availability check and the decrement are one statement, so two
// concurrent reservations can never both pass a stale check.
func (ledger) Reserve(tx *gorm.DB, productID uint, qty int) error {
	return reserveOne(tx, productID, qty)
}

func reserveOne(tx *gorm.DB, productID uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}
	res := tx.Model(&models.Product{}).
		Where("id = ? AND active = ? AND stock >= ?", productID, true, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return insufficientFor(tx, productID)
	}
	return nil
}

// insufficientFor reconstructs the reason a conditional decrement
// matched no rows: missing, retired, or short on stock.
func insufficientFor(tx *gorm.DB, productID uint) error {
	var product models.Product
	if err := tx.Unscoped().First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &InsufficientStockError{ProductID: productID, Available: 0}
		}
		return err
	}
	available := product.Stock
	if !product.Sellable() {
		available = 0
	}
	return &InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Available:   available,
	}
}

// Release restores quantity unconditionally. Releasing more than was
// reserved is a caller bug, not a ledger concern.
func (ledger) Release(tx *gorm.DB, productID uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", qty)
	}
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}

// ReserveBatch reserves every item or none. Each line is a conditional
// decrement; the first line that comes up short aborts with a typed
// error and the caller's transaction rolls back every decrement already
// applied. Rows are touched in ascending product-ID order so two
// overlapping batches cannot deadlock.
//
// ReserveBatch must run inside a transaction — all-or-nothing depends
// on the rollback.
func (ledger) ReserveBatch(tx *gorm.DB, items []Item) error {
	if len(items) == 0 {
		return errors.New("empty reservation batch")
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for _, item := range sorted {
		if err := reserveOne(tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseBatch restores every item's quantity. Rows are touched in the
// same ascending product-ID order as ReserveBatch so a release and a
// reservation over the same products cannot deadlock.
func (l ledger) ReleaseBatch(tx *gorm.DB, items []Item) error {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for _, item := range sorted {
		if err := l.Release(tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
