// Package store defines the persistence contract for the POS backend and the
// error taxonomy shared by its implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"retailpos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrValidation        = errors.New("invalid request")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrExpired           = errors.New("product expired or expiring soon")
	ErrConflict          = errors.New("conflicting record")
)

// InsufficientStockError reports the offending product and the shortfall.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %s, requested %s",
		e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ExpiryError reports a product that is expired or inside the critical window.
type ExpiryError struct {
	ProductID   string
	ProductName string
	ExpiryDate  time.Time
	DaysLeft    int
}

func (e *ExpiryError) Error() string {
	if e.DaysLeft < 0 {
		return fmt.Sprintf("product %s expired %d days ago", e.ProductName, -e.DaysLeft)
	}
	return fmt.Sprintf("product %s expires in %d days", e.ProductName, e.DaysLeft)
}

func (e *ExpiryError) Is(target error) bool {
	return target == ErrExpired
}

// OrderLine is one validated cart entry. Discount is the per-line discount,
// already clamped to be non-negative.
type OrderLine struct {
	ProductID string
	Quantity  decimal.Decimal
	Discount  decimal.Decimal
}

// OrderDraft carries everything a store needs to build an order inside one
// transaction. Product snapshots and line totals are resolved by the store so
// prices are read under the same row locks as the stock decrement.
type OrderDraft struct {
	ID            string
	OrderNumber   string
	CustomerName  string
	CustomerPhone string
	PaymentType   domain.PaymentType
	Discount      decimal.Decimal
	Lines         []OrderLine
	CreatedAt     time.Time
}

// OrderFieldUpdate patches order header fields without touching items. A nil
// field is left unchanged.
type OrderFieldUpdate struct {
	CustomerName  *string
	CustomerPhone *string
	PaymentType   *domain.PaymentType
	Discount      *decimal.Decimal
}

type PurchaseLine struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
}

type PurchaseDraft struct {
	ID            string
	InvoiceNumber string
	SupplierName  string
	DueDate       *time.Time
	Lines         []PurchaseLine
	CreatedAt     time.Time
}

// Repository is the persistence surface used by the service layer. Order and
// purchase mutations are atomic: either every row write and stock change in
// the call lands, or none do.
type Repository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error)

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error)

	CreateOrder(ctx context.Context, draft OrderDraft) (domain.Order, []domain.ExpiryWarning, error)
	GetOrderByID(ctx context.Context, id string) (domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	ReplaceOrderItems(ctx context.Context, orderID string, draft OrderDraft) (domain.Order, []domain.ExpiryWarning, error)
	UpdateOrderFields(ctx context.Context, orderID string, fields OrderFieldUpdate) (domain.Order, error)
	UpdateOrderItemQuantity(ctx context.Context, orderID, itemID string, quantity decimal.Decimal) (domain.Order, []domain.ExpiryWarning, error)
	DeleteOrder(ctx context.Context, id string) error

	CreatePurchase(ctx context.Context, draft PurchaseDraft) (domain.Purchase, error)
	ListPurchases(ctx context.Context) ([]domain.Purchase, error)

	GetDailySummary(ctx context.Context, day time.Time) (domain.DashboardSummary, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username, password string) error
}
