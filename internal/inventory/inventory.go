// Package inventory holds the validation rules applied before any stock
// mutation: availability against current stock and expiry-window checks.
// Stores run these inside their transactions; the functions themselves are
// pure so they test without a database.
package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"retailpos/backend/internal/domain"
	"retailpos/backend/internal/store"
)

// Windows are the expiry thresholds for stock-reducing operations. Products
// inside CriticalDays are rejected outright; products inside WarningDays but
// outside CriticalDays pass with a non-fatal warning.
type Windows struct {
	CriticalDays int
	WarningDays  int
}

func DefaultWindows() Windows {
	return Windows{CriticalDays: 7, WarningDays: 30}
}

// SumQuantities folds requested quantities per product so a cart with the
// same product on several lines is checked against stock once, with the
// combined quantity.
func SumQuantities(lines []store.OrderLine) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		totals[line.ProductID] = totals[line.ProductID].Add(line.Quantity)
	}
	return totals
}

// CheckAvailability compares the combined requested quantity against current
// stock.
func CheckAvailability(product domain.Product, requested decimal.Decimal) error {
	if product.Stock.GreaterThanOrEqual(requested) {
		return nil
	}
	return &store.InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Available:   product.Stock,
		Requested:   requested,
	}
}

// DaysUntilExpiry counts whole days between now and the expiry date, both
// truncated to UTC dates. Negative means already expired.
func DaysUntilExpiry(now, expiry time.Time) int {
	today := dateUTC(now)
	due := dateUTC(expiry)
	return int(due.Sub(today).Hours() / 24)
}

// CheckExpiry rejects expired products and products inside the critical
// window. A product inside the warning window returns a non-nil warning and a
// nil error.
func CheckExpiry(product domain.Product, now time.Time, w Windows) (*domain.ExpiryWarning, error) {
	if product.ExpiryDate == nil {
		return nil, nil
	}
	days := DaysUntilExpiry(now, *product.ExpiryDate)
	if days < 0 || days <= w.CriticalDays {
		return nil, &store.ExpiryError{
			ProductID:   product.ID,
			ProductName: product.Name,
			ExpiryDate:  *product.ExpiryDate,
			DaysLeft:    days,
		}
	}
	if days <= w.WarningDays {
		return &domain.ExpiryWarning{
			ProductID:   product.ID,
			ProductName: product.Name,
			ExpiryDate:  *product.ExpiryDate,
			DaysLeft:    days,
		}, nil
	}
	return nil, nil
}

func dateUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
