// Package memory is an in-memory Repository used by tests and DB-less runs.
// Mutating operations validate fully before touching any state so a failed
// call leaves the store exactly as it was, matching the transactional
// guarantees of the postgres store.
package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"retailpos/backend/internal/domain"
	"retailpos/backend/internal/inventory"
	"retailpos/backend/internal/money"
	"retailpos/backend/internal/pricing"
	"retailpos/backend/internal/store"
	"retailpos/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	windows         inventory.Windows
	categories      map[string]domain.Category
	products        map[string]domain.Product
	orders          map[string]domain.Order
	orderNumbers    map[string]string
	purchases       map[string]domain.Purchase
	invoiceNumbers  map[string]string
	usersByUsername map[string]domain.UserAccount
}

func New(windows inventory.Windows) *Store {
	return &Store{
		windows:         windows,
		categories:      make(map[string]domain.Category),
		products:        make(map[string]domain.Product),
		orders:          make(map[string]domain.Order),
		orderNumbers:    make(map[string]string),
		purchases:       make(map[string]domain.Purchase),
		invoiceNumbers:  make(map[string]string),
		usersByUsername: seedUsers(),
	}
}

// seedUsers builds the initial user accounts for dev/demo mode. Credentials
// come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; hardcoded dev
// defaults are used with a warning when unset. Production deployments use
// PostgreSQL (DATABASE_URL set) and never hit this path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded(windows inventory.Windows) *Store {
	s := New(windows)
	now := time.Now().UTC()

	grocery := domain.Category{ID: "cat-grocery", Name: "Grocery", CreatedAt: now}
	dairy := domain.Category{ID: "cat-dairy", Name: "Dairy", CreatedAt: now}
	s.categories[grocery.ID] = grocery
	s.categories[dairy.ID] = dairy

	farExpiry := now.AddDate(1, 0, 0)
	nearExpiry := now.AddDate(0, 0, 20)
	products := []domain.Product{
		{ID: "prd-rice", Name: "Basmati Rice 5kg", SKU: "SKU-RICE-01", CategoryID: grocery.ID, Unit: "bag",
			CostPrice: dec("380"), SellingPrice: dec("450"), Stock: dec("40"), GSTPercentage: dec("5")},
		{ID: "prd-oil", Name: "Sunflower Oil 1L", SKU: "SKU-OIL-01", CategoryID: grocery.ID, Unit: "bottle",
			CostPrice: dec("120"), SellingPrice: dec("145"), Stock: dec("60"), GSTPercentage: dec("5")},
		{ID: "prd-milk", Name: "Toned Milk 1L", SKU: "SKU-MILK-01", CategoryID: dairy.ID, Unit: "pack",
			CostPrice: dec("48"), SellingPrice: dec("56"), Stock: dec("100"), GSTPercentage: dec("0"), ExpiryDate: &nearExpiry},
		{ID: "prd-ghee", Name: "Cow Ghee 500ml", SKU: "SKU-GHEE-01", CategoryID: dairy.ID, Unit: "jar",
			CostPrice: dec("410"), SellingPrice: dec("489"), Stock: dec("25"), GSTPercentage: dec("12"), ExpiryDate: &farExpiry},
	}
	for _, p := range products {
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
	}
	return s
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (domain.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return domain.Category{}, store.ErrValidation
	}
	if category.ID == "" {
		category.ID = xid.New("cat")
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return domain.Category{}, store.ErrConflict
		}
	}
	s.categories[category.ID] = category
	return category, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return domain.Product{}, store.ErrNotFound
	}
	return product, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (domain.Product, error) {
	if product.Name == "" || product.SKU == "" || product.CategoryID == "" {
		return domain.Product{}, store.ErrValidation
	}
	if product.SellingPrice.IsNegative() || product.Stock.IsNegative() {
		return domain.Product{}, store.ErrValidation
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.products {
		if existing.SKU == product.SKU {
			return domain.Product{}, store.ErrConflict
		}
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.CategoryID == "" {
		return domain.Product{}, store.ErrValidation
	}
	if product.SellingPrice.IsNegative() {
		return domain.Product{}, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[product.ID]
	if !ok {
		return domain.Product{}, store.ErrNotFound
	}
	// Stock only moves through orders and purchases.
	product.SKU = existing.SKU
	product.Stock = existing.Stock
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = product
	return product, nil
}

func (s *Store) resolveLines(lines []store.OrderLine, now time.Time) (map[string]domain.Product, []domain.ExpiryWarning, error) {
	needed := inventory.SumQuantities(lines)
	ids := make([]string, 0, len(needed))
	for id := range needed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products := make(map[string]domain.Product, len(ids))
	warnings := make([]domain.ExpiryWarning, 0, 2)
	for _, id := range ids {
		product, ok := s.products[id]
		if !ok {
			return nil, nil, store.ErrNotFound
		}
		if err := inventory.CheckAvailability(product, needed[id]); err != nil {
			return nil, nil, err
		}
		warning, err := inventory.CheckExpiry(product, now, s.windows)
		if err != nil {
			return nil, nil, err
		}
		if warning != nil {
			warnings = append(warnings, *warning)
		}
		products[id] = product
	}
	return products, warnings, nil
}

func buildPricingLines(lines []store.OrderLine, products map[string]domain.Product) []pricing.Line {
	priced := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		product := products[line.ProductID]
		priced = append(priced, pricing.Line{
			ProductID:     product.ID,
			ProductName:   product.Name,
			Quantity:      line.Quantity,
			UnitPrice:     product.SellingPrice,
			GSTPercentage: product.GSTPercentage,
			Discount:      line.Discount,
		})
	}
	return priced
}

func buildItems(orderID string, priced []pricing.PricedLine, now time.Time) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(priced))
	for _, line := range priced {
		items = append(items, domain.OrderItem{
			ID:            xid.New("itm"),
			OrderID:       orderID,
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			GSTPercentage: line.GSTPercentage,
			Discount:      money.ClampZero(line.Discount),
			GSTAmount:     line.GSTAmount,
			TotalPrice:    line.TotalPrice,
			CreatedAt:     now,
		})
	}
	return items
}

func (s *Store) applyStockDelta(quantities map[string]decimal.Decimal, sign decimal.Decimal) {
	for id, qty := range quantities {
		product := s.products[id]
		product.Stock = product.Stock.Add(qty.Mul(sign))
		product.UpdatedAt = time.Now().UTC()
		s.products[id] = product
	}
}

var one = decimal.NewFromInt(1)
var minusOne = decimal.NewFromInt(-1)

func (s *Store) CreateOrder(_ context.Context, draft store.OrderDraft) (domain.Order, []domain.ExpiryWarning, error) {
	if len(draft.Lines) == 0 || draft.OrderNumber == "" {
		return domain.Order{}, nil, store.ErrValidation
	}
	if draft.ID == "" {
		draft.ID = xid.New("ord")
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orderNumbers[draft.OrderNumber]; exists {
		return domain.Order{}, nil, store.ErrConflict
	}

	now := draft.CreatedAt
	products, warnings, err := s.resolveLines(draft.Lines, now)
	if err != nil {
		return domain.Order{}, nil, err
	}

	priced, totals := pricing.Allocate(buildPricingLines(draft.Lines, products), draft.Discount)

	order := domain.Order{
		ID:            draft.ID,
		OrderNumber:   draft.OrderNumber,
		CustomerName:  draft.CustomerName,
		CustomerPhone: draft.CustomerPhone,
		PaymentType:   draft.PaymentType,
		Discount:      totals.OrderDiscount,
		Subtotal:      totals.Subtotal,
		GSTTotal:      totals.GSTTotal,
		GrandTotal:    totals.GrandTotal,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         buildItems(draft.ID, priced, now),
	}

	s.applyStockDelta(inventory.SumQuantities(draft.Lines), minusOne)
	s.orders[order.ID] = order
	s.orderNumbers[order.OrderNumber] = order.ID
	return cloneOrder(order), warnings, nil
}

func (s *Store) GetOrderByID(_ context.Context, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, store.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (s *Store) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	orders := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if search != "" &&
			!strings.Contains(strings.ToLower(order.OrderNumber), search) &&
			!strings.Contains(strings.ToLower(order.CustomerName), search) {
			continue
		}
		if filter.PaymentType != "" && order.PaymentType != filter.PaymentType {
			continue
		}
		if filter.FromDate != nil && order.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && !order.CreatedAt.Before(*filter.ToDate) {
			continue
		}
		orders = append(orders, cloneOrder(order))
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })

	limit := filter.Limit
	if limit < 1 {
		limit = 100
	}
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *Store) ReplaceOrderItems(_ context.Context, orderID string, draft store.OrderDraft) (domain.Order, []domain.ExpiryWarning, error) {
	if len(draft.Lines) == 0 {
		return domain.Order{}, nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, nil, store.ErrNotFound
	}

	// Validate against stock as it would be after the old items are restored,
	// without mutating anything until every check passes.
	oldLines := make([]store.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		oldLines = append(oldLines, store.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	restored := inventory.SumQuantities(oldLines)

	now := time.Now().UTC()
	needed := inventory.SumQuantities(draft.Lines)
	products := make(map[string]domain.Product, len(needed))
	warnings := make([]domain.ExpiryWarning, 0, 2)
	ids := make([]string, 0, len(needed))
	for id := range needed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		product, ok := s.products[id]
		if !ok {
			return domain.Order{}, nil, store.ErrNotFound
		}
		product.Stock = product.Stock.Add(restored[id])
		if err := inventory.CheckAvailability(product, needed[id]); err != nil {
			return domain.Order{}, nil, err
		}
		warning, err := inventory.CheckExpiry(product, now, s.windows)
		if err != nil {
			return domain.Order{}, nil, err
		}
		if warning != nil {
			warnings = append(warnings, *warning)
		}
		products[id] = product
	}

	priced, totals := pricing.Allocate(buildPricingLines(draft.Lines, products), draft.Discount)

	s.applyStockDelta(restored, one)
	s.applyStockDelta(needed, minusOne)

	order.CustomerName = draft.CustomerName
	order.CustomerPhone = draft.CustomerPhone
	order.PaymentType = draft.PaymentType
	order.Discount = totals.OrderDiscount
	order.Subtotal = totals.Subtotal
	order.GSTTotal = totals.GSTTotal
	order.GrandTotal = totals.GrandTotal
	order.UpdatedAt = now
	order.Items = buildItems(order.ID, priced, now)

	s.orders[order.ID] = order
	return cloneOrder(order), warnings, nil
}

func (s *Store) UpdateOrderFields(_ context.Context, orderID string, fields store.OrderFieldUpdate) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, store.ErrNotFound
	}

	if fields.CustomerName != nil {
		order.CustomerName = strings.TrimSpace(*fields.CustomerName)
	}
	if fields.CustomerPhone != nil {
		order.CustomerPhone = strings.TrimSpace(*fields.CustomerPhone)
	}
	if fields.PaymentType != nil {
		order.PaymentType = *fields.PaymentType
	}
	if fields.Discount != nil {
		order.Discount = money.ClampZero(*fields.Discount)
	}

	order = reallocate(order)
	s.orders[order.ID] = order
	return cloneOrder(order), nil
}

// reallocate recomputes line figures from the stored snapshots and the
// order's current discount, then refreshes the aggregates.
func reallocate(order domain.Order) domain.Order {
	lines := make([]pricing.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, pricing.Line{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			GSTPercentage: item.GSTPercentage,
			Discount:      item.Discount,
		})
	}
	priced, totals := pricing.Allocate(lines, order.Discount)
	for i := range order.Items {
		order.Items[i].GSTAmount = priced[i].GSTAmount
		order.Items[i].TotalPrice = priced[i].TotalPrice
	}
	order.Subtotal = totals.Subtotal
	order.GSTTotal = totals.GSTTotal
	order.GrandTotal = totals.GrandTotal
	order.UpdatedAt = time.Now().UTC()
	return order
}

func (s *Store) UpdateOrderItemQuantity(_ context.Context, orderID, itemID string, quantity decimal.Decimal) (domain.Order, []domain.ExpiryWarning, error) {
	if !quantity.IsPositive() {
		return domain.Order{}, nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, nil, store.ErrNotFound
	}

	idx := -1
	for i, item := range order.Items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Order{}, nil, store.ErrNotFound
	}

	product, ok := s.products[order.Items[idx].ProductID]
	if !ok {
		return domain.Order{}, nil, store.ErrNotFound
	}

	var warnings []domain.ExpiryWarning
	delta := quantity.Sub(order.Items[idx].Quantity)
	switch {
	case delta.IsPositive():
		if err := inventory.CheckAvailability(product, delta); err != nil {
			return domain.Order{}, nil, err
		}
		warning, err := inventory.CheckExpiry(product, time.Now().UTC(), s.windows)
		if err != nil {
			return domain.Order{}, nil, err
		}
		if warning != nil {
			warnings = append(warnings, *warning)
		}
		s.applyStockDelta(map[string]decimal.Decimal{product.ID: delta}, minusOne)
	case delta.IsNegative():
		s.applyStockDelta(map[string]decimal.Decimal{product.ID: delta.Abs()}, one)
	}

	order.Items[idx].Quantity = quantity
	order = reallocate(order)
	s.orders[order.ID] = order
	return cloneOrder(order), warnings, nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return store.ErrNotFound
	}

	lines := make([]store.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, store.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	s.applyStockDelta(inventory.SumQuantities(lines), one)

	delete(s.orderNumbers, order.OrderNumber)
	delete(s.orders, id)
	return nil
}

func (s *Store) CreatePurchase(_ context.Context, draft store.PurchaseDraft) (domain.Purchase, error) {
	if draft.InvoiceNumber == "" || draft.SupplierName == "" || len(draft.Lines) == 0 {
		return domain.Purchase{}, store.ErrValidation
	}
	if draft.ID == "" {
		draft.ID = xid.New("pur")
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoiceNumbers[draft.InvoiceNumber]; exists {
		return domain.Purchase{}, store.ErrConflict
	}

	received := make(map[string]decimal.Decimal, len(draft.Lines))
	for _, line := range draft.Lines {
		if !line.Quantity.IsPositive() || line.UnitCost.IsNegative() {
			return domain.Purchase{}, store.ErrValidation
		}
		if _, ok := s.products[line.ProductID]; !ok {
			return domain.Purchase{}, store.ErrNotFound
		}
		received[line.ProductID] = received[line.ProductID].Add(line.Quantity)
	}

	purchase := domain.Purchase{
		ID:            draft.ID,
		InvoiceNumber: draft.InvoiceNumber,
		SupplierName:  draft.SupplierName,
		DueDate:       draft.DueDate,
		CreatedAt:     draft.CreatedAt,
	}
	total := decimal.Zero
	for _, line := range draft.Lines {
		itemTotal := money.Round2(line.Quantity.Mul(line.UnitCost))
		purchase.Items = append(purchase.Items, domain.PurchaseItem{
			ID:         xid.New("pit"),
			PurchaseID: purchase.ID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitCost:   line.UnitCost,
			TotalCost:  itemTotal,
		})
		total = total.Add(itemTotal)
	}
	purchase.TotalAmount = money.Round2(total)

	s.applyStockDelta(received, one)
	s.purchases[purchase.ID] = purchase
	s.invoiceNumbers[purchase.InvoiceNumber] = purchase.ID
	return purchase, nil
}

func (s *Store) ListPurchases(_ context.Context) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchases := make([]domain.Purchase, 0, len(s.purchases))
	for _, p := range s.purchases {
		purchases = append(purchases, p)
	}
	sort.Slice(purchases, func(i, j int) bool { return purchases[i].CreatedAt.After(purchases[j].CreatedAt) })
	return purchases, nil
}

func (s *Store) GetDailySummary(_ context.Context, day time.Time) (domain.DashboardSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	summary := domain.DashboardSummary{Date: from.Format("2006-01-02")}
	for _, order := range s.orders {
		if order.CreatedAt.Before(from) || !order.CreatedAt.Before(to) {
			continue
		}
		summary.Orders++
		summary.Revenue = summary.Revenue.Add(order.GrandTotal)
		summary.GSTTotal = summary.GSTTotal.Add(order.GSTTotal)
		for _, item := range order.Items {
			summary.ItemsSold = summary.ItemsSold.Add(item.Quantity)
		}
	}
	return summary, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrValidation
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrConflict
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}
