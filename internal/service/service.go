package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retailpos/backend/internal/cache"
	"retailpos/backend/internal/domain"
	"retailpos/backend/internal/ordernum"
	"retailpos/backend/internal/pricing"
	"retailpos/backend/internal/store"
	"retailpos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo       store.Repository
	summaries  cache.SummaryCache
	summaryTTL time.Duration

	// genOrderNumber is swapped in tests to force collisions.
	genOrderNumber func(time.Time) string
	sleep          func(time.Duration)
}

func New(repo store.Repository, summaries cache.SummaryCache, summaryTTL time.Duration) *Service {
	if summaries == nil {
		summaries = cache.NoopSummaryCache{}
	}
	if summaryTTL <= 0 {
		summaryTTL = 30 * time.Second
	}

	return &Service{
		repo:           repo,
		summaries:      summaries,
		summaryTTL:     summaryTTL,
		genOrderNumber: ordernum.Generate,
		sleep:          time.Sleep,
	}
}

func (s *Service) requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (domain.Category, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.Category{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, store.ErrValidation
	}
	return s.repo.CreateCategory(ctx, domain.Category{Name: name})
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, store.ErrValidation
	}
	return s.repo.GetProductByID(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	if req.SKU == "" || req.Name == "" || strings.TrimSpace(req.CategoryID) == "" {
		return domain.Product{}, store.ErrValidation
	}
	if req.SellingPrice.IsNegative() || req.InitialStock.IsNegative() {
		return domain.Product{}, store.ErrValidation
	}
	if req.GSTPercentage.IsNegative() || req.GSTPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return domain.Product{}, store.ErrValidation
	}

	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		return domain.Product{}, store.ErrValidation
	}

	product := domain.Product{
		Name:          req.Name,
		SKU:           req.SKU,
		CategoryID:    strings.TrimSpace(req.CategoryID),
		Brand:         strings.TrimSpace(req.Brand),
		Unit:          strings.TrimSpace(req.Unit),
		CostPrice:     req.CostPrice,
		SellingPrice:  req.SellingPrice,
		Stock:         req.InitialStock,
		GSTPercentage: req.GSTPercentage,
		ExpiryDate:    expiry,
		HSNCode:       strings.TrimSpace(req.HSNCode),
		Barcode:       strings.TrimSpace(req.Barcode),
	}
	return s.repo.CreateProduct(ctx, product)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, store.ErrValidation
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrValidation
		}
		updated.Name = name
	}
	if req.CategoryID != nil {
		categoryID := strings.TrimSpace(*req.CategoryID)
		if categoryID == "" {
			return domain.Product{}, store.ErrValidation
		}
		updated.CategoryID = categoryID
	}
	if req.Brand != nil {
		updated.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Unit != nil {
		updated.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return domain.Product{}, store.ErrValidation
		}
		updated.CostPrice = *req.CostPrice
	}
	if req.SellingPrice != nil {
		if req.SellingPrice.IsNegative() {
			return domain.Product{}, store.ErrValidation
		}
		updated.SellingPrice = *req.SellingPrice
	}
	if req.GSTPercentage != nil {
		if req.GSTPercentage.IsNegative() || req.GSTPercentage.GreaterThan(decimal.NewFromInt(100)) {
			return domain.Product{}, store.ErrValidation
		}
		updated.GSTPercentage = *req.GSTPercentage
	}
	if req.ExpiryDate != nil {
		expiry, err := parseDate(*req.ExpiryDate)
		if err != nil {
			return domain.Product{}, store.ErrValidation
		}
		updated.ExpiryDate = expiry
	}
	if req.HSNCode != nil {
		updated.HSNCode = strings.TrimSpace(*req.HSNCode)
	}
	if req.Barcode != nil {
		updated.Barcode = strings.TrimSpace(*req.Barcode)
	}

	return s.repo.UpdateProduct(ctx, updated)
}

func validateLines(lines []domain.OrderLineRequest) ([]store.OrderLine, error) {
	if len(lines) == 0 {
		return nil, store.ErrValidation
	}
	out := make([]store.OrderLine, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return nil, store.ErrValidation
		}
		if line.Quantity.IsNegative() {
			return nil, store.ErrValidation
		}
		discount := decimal.Zero
		if line.Discount != nil {
			discount = *line.Discount
		}
		out = append(out, store.OrderLine{
			ProductID: strings.TrimSpace(line.ProductID),
			Quantity:  line.Quantity,
			Discount:  discount,
		})
	}
	return out, nil
}

func orderDiscount(single *decimal.Decimal, entries []domain.DiscountEntry) decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(entries)+1)
	if single != nil {
		amounts = append(amounts, *single)
	}
	for _, e := range entries {
		amounts = append(amounts, e.Amount)
	}
	return pricing.SumDiscounts(amounts)
}

func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.OrderResponse, error) {
	if !req.PaymentType.Valid() {
		return domain.OrderResponse{}, store.ErrValidation
	}
	lines, err := validateLines(req.Items)
	if err != nil {
		return domain.OrderResponse{}, err
	}

	draft := store.OrderDraft{
		ID:            xid.New("ord"),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		PaymentType:   req.PaymentType,
		Discount:      orderDiscount(req.Discount, req.Discounts),
		Lines:         lines,
		CreatedAt:     time.Now().UTC(),
	}

	// Order number generation and insertion are not atomic; a unique violation
	// regenerates and re-runs the whole transaction. Nothing else is retried.
	var lastErr error
	for attempt := 1; attempt <= ordernum.MaxAttempts; attempt++ {
		draft.OrderNumber = s.genOrderNumber(time.Now())
		order, warnings, err := s.repo.CreateOrder(ctx, draft)
		if err == nil {
			return domain.OrderResponse{Order: order, Warnings: warnings}, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return domain.OrderResponse{}, err
		}
		lastErr = err
		log.Printf("[service] WARN: order number collision on %s, attempt %d/%d", draft.OrderNumber, attempt, ordernum.MaxAttempts)
		s.sleep(ordernum.Backoff(attempt))
	}
	return domain.OrderResponse{}, fmt.Errorf("order number generation exhausted after %d attempts: %w", ordernum.MaxAttempts, lastErr)
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Order{}, store.ErrValidation
	}
	return s.repo.GetOrderByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if filter.PaymentType != "" && !filter.PaymentType.Valid() {
		return nil, store.ErrValidation
	}
	return s.repo.ListOrders(ctx, filter)
}

func (s *Service) UpdateOrder(ctx context.Context, id string, req domain.OrderUpdateRequest) (domain.OrderResponse, error) {
	if strings.TrimSpace(id) == "" {
		return domain.OrderResponse{}, store.ErrValidation
	}
	if req.PaymentType != nil && !req.PaymentType.Valid() {
		return domain.OrderResponse{}, store.ErrValidation
	}

	if len(req.Items) == 0 {
		// Header-only update; totals are recomputed from the stored snapshots.
		order, err := s.repo.UpdateOrderFields(ctx, id, store.OrderFieldUpdate{
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			PaymentType:   req.PaymentType,
			Discount:      discountPatch(req.Discount, req.Discounts),
		})
		if err != nil {
			return domain.OrderResponse{}, err
		}
		return domain.OrderResponse{Order: order}, nil
	}

	lines, err := validateLines(req.Items)
	if err != nil {
		return domain.OrderResponse{}, err
	}

	existing, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return domain.OrderResponse{}, err
	}

	draft := store.OrderDraft{
		CustomerName:  existing.CustomerName,
		CustomerPhone: existing.CustomerPhone,
		PaymentType:   existing.PaymentType,
		Discount:      existing.Discount,
		Lines:         lines,
	}
	if req.CustomerName != nil {
		draft.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	if req.CustomerPhone != nil {
		draft.CustomerPhone = strings.TrimSpace(*req.CustomerPhone)
	}
	if req.PaymentType != nil {
		draft.PaymentType = *req.PaymentType
	}
	if patch := discountPatch(req.Discount, req.Discounts); patch != nil {
		draft.Discount = *patch
	}

	order, warnings, err := s.repo.ReplaceOrderItems(ctx, id, draft)
	if err != nil {
		return domain.OrderResponse{}, err
	}
	return domain.OrderResponse{Order: order, Warnings: warnings}, nil
}

func discountPatch(single *decimal.Decimal, entries []domain.DiscountEntry) *decimal.Decimal {
	if single == nil && len(entries) == 0 {
		return nil
	}
	total := orderDiscount(single, entries)
	return &total
}

func (s *Service) UpdateOrderItemQuantity(ctx context.Context, orderID, itemID string, req domain.OrderItemUpdateRequest) (domain.OrderResponse, error) {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(itemID) == "" {
		return domain.OrderResponse{}, store.ErrValidation
	}
	if !req.Quantity.IsPositive() {
		return domain.OrderResponse{}, store.ErrValidation
	}

	order, warnings, err := s.repo.UpdateOrderItemQuantity(ctx, orderID, itemID, req.Quantity)
	if err != nil {
		return domain.OrderResponse{}, err
	}
	return domain.OrderResponse{Order: order, Warnings: warnings}, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return store.ErrValidation
	}
	return s.repo.DeleteOrder(ctx, id)
}

func (s *Service) CreatePurchase(ctx context.Context, req domain.PurchaseCreateRequest) (domain.Purchase, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.Purchase{}, err
	}

	req.InvoiceNumber = strings.TrimSpace(req.InvoiceNumber)
	req.SupplierName = strings.TrimSpace(req.SupplierName)
	if req.InvoiceNumber == "" || req.SupplierName == "" || len(req.Items) == 0 {
		return domain.Purchase{}, store.ErrValidation
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return domain.Purchase{}, store.ErrValidation
	}

	draft := store.PurchaseDraft{
		InvoiceNumber: req.InvoiceNumber,
		SupplierName:  req.SupplierName,
		DueDate:       dueDate,
	}
	for _, line := range req.Items {
		if strings.TrimSpace(line.ProductID) == "" || !line.Quantity.IsPositive() || line.UnitCost.IsNegative() {
			return domain.Purchase{}, store.ErrValidation
		}
		draft.Lines = append(draft.Lines, store.PurchaseLine{
			ProductID: strings.TrimSpace(line.ProductID),
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
		})
	}

	return s.repo.CreatePurchase(ctx, draft)
}

func (s *Service) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	return s.repo.ListPurchases(ctx)
}

func (s *Service) DashboardSummary(ctx context.Context) (domain.DashboardSummary, error) {
	now := time.Now().UTC()
	key := "summary:" + now.Format("2006-01-02")

	if cached, ok, err := s.summaries.Get(ctx, key); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: summary cache read failed: %v", err)
	}

	summary, err := s.repo.GetDailySummary(ctx, now)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	if err := s.summaries.Set(ctx, key, &summary, s.summaryTTL); err != nil {
		log.Printf("[service] WARN: summary cache write failed: %v", err)
	}
	return summary, nil
}

func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
