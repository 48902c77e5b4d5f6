package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentCash PaymentType = "CASH"
	PaymentCard PaymentType = "CARD"
	PaymentUPI  PaymentType = "UPI"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CategoryCreateRequest struct {
	Name string `json:"name"`
}

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	CategoryID    string          `json:"category_id"`
	Brand         string          `json:"brand,omitempty"`
	Unit          string          `json:"unit"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Stock         decimal.Decimal `json:"stock"`
	GSTPercentage decimal.Decimal `json:"gst_percentage"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	HSNCode       string          `json:"hsn_code,omitempty"`
	Barcode       string          `json:"barcode,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	CategoryID    string          `json:"category_id"`
	Brand         string          `json:"brand,omitempty"`
	Unit          string          `json:"unit"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	InitialStock  decimal.Decimal `json:"initial_stock"`
	GSTPercentage decimal.Decimal `json:"gst_percentage"`
	ExpiryDate    string          `json:"expiry_date,omitempty"`
	HSNCode       string          `json:"hsn_code,omitempty"`
	Barcode       string          `json:"barcode,omitempty"`
}

type ProductUpdateRequest struct {
	Name          *string          `json:"name,omitempty"`
	CategoryID    *string          `json:"category_id,omitempty"`
	Brand         *string          `json:"brand,omitempty"`
	Unit          *string          `json:"unit,omitempty"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	SellingPrice  *decimal.Decimal `json:"selling_price,omitempty"`
	GSTPercentage *decimal.Decimal `json:"gst_percentage,omitempty"`
	ExpiryDate    *string          `json:"expiry_date,omitempty"`
	HSNCode       *string          `json:"hsn_code,omitempty"`
	Barcode       *string          `json:"barcode,omitempty"`
}

// OrderItem carries price and GST snapshots taken from the product at order
// time; later catalog price changes never alter a persisted item. Discount
// holds the raw per-line discount as requested. The proportional share of the
// order-level discount is folded into GSTAmount and TotalPrice but not stored
// separately, so line totals can always be recomputed from the snapshots plus
// the order's Discount field.
type OrderItem struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	GSTPercentage decimal.Decimal `json:"gst_percentage"`
	Discount      decimal.Decimal `json:"discount"`
	GSTAmount     decimal.Decimal `json:"gst_amount"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Order struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	PaymentType   PaymentType     `json:"payment_type"`
	Discount      decimal.Decimal `json:"discount"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	GSTTotal      decimal.Decimal `json:"gst_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []OrderItem     `json:"items"`
}

type OrderLineRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Discount  *decimal.Decimal `json:"discount,omitempty"`
}

type DiscountEntry struct {
	Amount decimal.Decimal `json:"amount"`
}

type OrderCreateRequest struct {
	CustomerName  string             `json:"customer_name,omitempty"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	PaymentType   PaymentType        `json:"payment_type"`
	Discount      *decimal.Decimal   `json:"discount,omitempty"`
	Discounts     []DiscountEntry    `json:"discounts,omitempty"`
	Items         []OrderLineRequest `json:"items"`
}

type OrderUpdateRequest struct {
	CustomerName  *string            `json:"customer_name,omitempty"`
	CustomerPhone *string            `json:"customer_phone,omitempty"`
	PaymentType   *PaymentType       `json:"payment_type,omitempty"`
	Discount      *decimal.Decimal   `json:"discount,omitempty"`
	Discounts     []DiscountEntry    `json:"discounts,omitempty"`
	Items         []OrderLineRequest `json:"items,omitempty"`
}

type OrderItemUpdateRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// ExpiryWarning flags a product inside the warning window but outside the
// critical window. It never blocks the operation.
type ExpiryWarning struct {
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	ExpiryDate  time.Time `json:"expiry_date"`
	DaysLeft    int       `json:"days_left"`
}

type OrderResponse struct {
	Order    Order           `json:"order"`
	Warnings []ExpiryWarning `json:"warnings,omitempty"`
}

type OrderListResponse struct {
	Orders []Order `json:"orders"`
}

type OrderFilter struct {
	Search      string
	PaymentType PaymentType
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
}

type PurchaseItem struct {
	ID         string          `json:"id"`
	PurchaseID string          `json:"purchase_id"`
	ProductID  string          `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}

type Purchase struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	SupplierName  string          `json:"supplier_name"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []PurchaseItem  `json:"items"`
}

type PurchaseLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type PurchaseCreateRequest struct {
	InvoiceNumber string                `json:"invoice_number"`
	SupplierName  string                `json:"supplier_name"`
	DueDate       string                `json:"due_date,omitempty"`
	Items         []PurchaseLineRequest `json:"items"`
}

type PurchaseListResponse struct {
	Purchases []Purchase `json:"purchases"`
}

type DashboardSummary struct {
	Date      string          `json:"date"`
	Orders    int64           `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
	GSTTotal  decimal.Decimal `json:"gst_total"`
	ItemsSold decimal.Decimal `json:"items_sold"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
