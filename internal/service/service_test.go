package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"retailpos/backend/internal/domain"
	"retailpos/backend/internal/inventory"
	"retailpos/backend/internal/store"
	"retailpos/backend/internal/store/memory"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "cashier", Role: "cashier"})
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.New(inventory.DefaultWindows())
	svc := New(repo, nil, 0)
	svc.sleep = func(time.Duration) {}
	return svc, repo
}

func seedProduct(t *testing.T, repo *memory.Store, name, price, gst, stock string, expiry *time.Time) domain.Product {
	t.Helper()
	product, err := repo.CreateProduct(context.Background(), domain.Product{
		Name:          name,
		SKU:           "SKU-" + name,
		CategoryID:    "cat-test",
		Unit:          "pcs",
		SellingPrice:  dec(price),
		Stock:         dec(stock),
		GSTPercentage: dec(gst),
		ExpiryDate:    expiry,
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return product
}

func productStock(t *testing.T, repo *memory.Store, id string) decimal.Decimal {
	t.Helper()
	product, err := repo.GetProductByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get product %s: %v", id, err)
	}
	return product.Stock
}

func TestCreateOrderComputesTotalsAndDecrementsStock(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "100", "10", "5", nil)

	resp, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items:       []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("2")}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	order := resp.Order
	if !order.Subtotal.Equal(dec("200")) {
		t.Fatalf("subtotal = %s, want 200", order.Subtotal)
	}
	if !order.GSTTotal.Equal(dec("20")) {
		t.Fatalf("gst total = %s, want 20", order.GSTTotal)
	}
	if !order.GrandTotal.Equal(dec("220")) {
		t.Fatalf("grand total = %s, want 220", order.GrandTotal)
	}
	if len(order.Items) != 1 || !order.Items[0].TotalPrice.Equal(dec("220")) {
		t.Fatalf("unexpected items: %+v", order.Items)
	}
	if !order.Items[0].UnitPrice.Equal(dec("100")) {
		t.Fatalf("unit price snapshot = %s, want 100", order.Items[0].UnitPrice)
	}
	if got := productStock(t, repo, a.ID); !got.Equal(dec("3")) {
		t.Fatalf("stock = %s, want 3", got)
	}
}

func TestCreateOrderInsufficientStockLeavesStateUntouched(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "100", "10", "1", nil)

	_, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items:       []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("2")}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}

	var stockErr *store.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want *InsufficientStockError, got %T", err)
	}
	if stockErr.ProductName != "A" || !stockErr.Available.Equal(dec("1")) || !stockErr.Requested.Equal(dec("2")) {
		t.Fatalf("unexpected detail: %+v", stockErr)
	}

	if got := productStock(t, repo, a.ID); !got.Equal(dec("1")) {
		t.Fatalf("stock = %s, want 1", got)
	}
	orders, err := svc.ListOrders(cashierCtx(), domain.OrderFilter{})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("no order should survive a failed create, got %d", len(orders))
	}
}

func TestCreateOrderRollsBackWhenSecondLineFails(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "50", "0", "10", nil)
	b := seedProduct(t, repo, "B", "80", "0", "1", nil)

	_, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCard,
		Items: []domain.OrderLineRequest{
			{ProductID: a.ID, Quantity: dec("3")},
			{ProductID: b.ID, Quantity: dec("2")},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}

	if got := productStock(t, repo, a.ID); !got.Equal(dec("10")) {
		t.Fatalf("product A stock = %s, want 10 untouched", got)
	}
	if got := productStock(t, repo, b.ID); !got.Equal(dec("1")) {
		t.Fatalf("product B stock = %s, want 1 untouched", got)
	}
}

func TestCreateOrderSumsQuantitiesAcrossLines(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "10", "0", "3", nil)

	_, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items: []domain.OrderLineRequest{
			{ProductID: a.ID, Quantity: dec("2")},
			{ProductID: a.ID, Quantity: dec("2")},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("combined quantity 4 against stock 3 must fail, got %v", err)
	}
}

func TestOrderDiscountAllocatedProportionally(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "100", "0", "10", nil)
	b := seedProduct(t, repo, "B", "100", "0", "10", nil)

	discount := dec("40")
	resp, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentUPI,
		Discount:    &discount,
		Items: []domain.OrderLineRequest{
			{ProductID: a.ID, Quantity: dec("3")},
			{ProductID: b.ID, Quantity: dec("1")},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	order := resp.Order
	if !order.Items[0].TotalPrice.Equal(dec("270")) {
		t.Fatalf("line A total = %s, want 270 (absorbs 30)", order.Items[0].TotalPrice)
	}
	if !order.Items[1].TotalPrice.Equal(dec("90")) {
		t.Fatalf("line B total = %s, want 90 (absorbs 10)", order.Items[1].TotalPrice)
	}
	if !order.GrandTotal.Equal(dec("360")) {
		t.Fatalf("grand total = %s, want 360", order.GrandTotal)
	}
	if !order.Discount.Equal(dec("40")) {
		t.Fatalf("order discount = %s, want 40", order.Discount)
	}
}

func TestCreateOrderRejectsExpiredAndCriticalWindow(t *testing.T) {
	svc, repo := newTestService(t)
	expired := time.Now().UTC().AddDate(0, 0, -1)
	critical := time.Now().UTC().AddDate(0, 0, 5)

	a := seedProduct(t, repo, "A", "10", "0", "10", &expired)
	b := seedProduct(t, repo, "B", "10", "0", "10", &critical)

	for _, product := range []domain.Product{a, b} {
		_, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
			PaymentType: domain.PaymentCash,
			Items:       []domain.OrderLineRequest{{ProductID: product.ID, Quantity: dec("1")}},
		})
		if !errors.Is(err, store.ErrExpired) {
			t.Fatalf("product %s: want ErrExpired, got %v", product.Name, err)
		}
		if got := productStock(t, repo, product.ID); !got.Equal(dec("10")) {
			t.Fatalf("product %s stock = %s, want 10 untouched", product.Name, got)
		}
	}
}

func TestCreateOrderFlagsWarningWindow(t *testing.T) {
	svc, repo := newTestService(t)
	nearExpiry := time.Now().UTC().AddDate(0, 0, 20)
	a := seedProduct(t, repo, "A", "10", "0", "10", &nearExpiry)

	resp, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items:       []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("1")}},
	})
	if err != nil {
		t.Fatalf("warning-window product must not block: %v", err)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].ProductID != a.ID {
		t.Fatalf("want one expiry warning for %s, got %+v", a.ID, resp.Warnings)
	}
	if resp.Warnings[0].DaysLeft != 20 {
		t.Fatalf("warning days left = %d, want 20", resp.Warnings[0].DaysLeft)
	}
}

func TestOrderNumberCollisionRetriesThenSucceeds(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "10", "0", "20", nil)

	// Occupy the number the generator will emit twice.
	_, _, err := repo.CreateOrder(context.Background(), store.OrderDraft{
		OrderNumber: "ORD-00000000-001",
		PaymentType: domain.PaymentCash,
		Lines:       []store.OrderLine{{ProductID: a.ID, Quantity: dec("1")}},
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	calls := 0
	svc.genOrderNumber = func(time.Time) string {
		calls++
		if calls <= 2 {
			return "ORD-00000000-001"
		}
		return fmt.Sprintf("ORD-00000000-%03d", calls)
	}

	resp, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items:       []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("2")}},
	})
	if err != nil {
		t.Fatalf("CreateOrder after collisions: %v", err)
	}
	if calls != 3 {
		t.Fatalf("generator called %d times, want 3", calls)
	}
	if resp.Order.OrderNumber != "ORD-00000000-003" {
		t.Fatalf("order number = %s, want ORD-00000000-003", resp.Order.OrderNumber)
	}

	// Stock reflects the two committed orders only; failed attempts left nothing.
	if got := productStock(t, repo, a.ID); !got.Equal(dec("17")) {
		t.Fatalf("stock = %s, want 17", got)
	}
	orders, _ := svc.ListOrders(cashierCtx(), domain.OrderFilter{})
	if len(orders) != 2 {
		t.Fatalf("order count = %d, want 2", len(orders))
	}
}

func TestOrderNumberRetriesExhausted(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "10", "0", "20", nil)

	_, _, err := repo.CreateOrder(context.Background(), store.OrderDraft{
		OrderNumber: "ORD-TAKEN",
		PaymentType: domain.PaymentCash,
		Lines:       []store.OrderLine{{ProductID: a.ID, Quantity: dec("1")}},
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	svc.genOrderNumber = func(time.Time) string { return "ORD-TAKEN" }

	_, err = svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items:       []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("1")}},
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("exhausted retries must surface a conflict, got %v", err)
	}
	if got := productStock(t, repo, a.ID); !got.Equal(dec("19")) {
		t.Fatalf("stock = %s, want 19 (only the seed order committed)", got)
	}
}

func TestUpdateOrderReplacesItemsAndReconcilesStock(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "100", "0", "5", nil)
	b := seedProduct(t, repo, "B", "200", "0", "5", nil)

	resp, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items:       []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("2")}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	updated, err := svc.UpdateOrder(cashierCtx(), resp.Order.ID, domain.OrderUpdateRequest{
		Items: []domain.OrderLineRequest{{ProductID: b.ID, Quantity: dec("1")}},
	})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}

	if updated.Order.OrderNumber != resp.Order.OrderNumber {
		t.Fatalf("order number changed across update: %s -> %s", resp.Order.OrderNumber, updated.Order.OrderNumber)
	}
	if !updated.Order.GrandTotal.Equal(dec("200")) {
		t.Fatalf("grand total = %s, want 200", updated.Order.GrandTotal)
	}
	if got := productStock(t, repo, a.ID); !got.Equal(dec("5")) {
		t.Fatalf("product A stock = %s, want 5 restored", got)
	}
	if got := productStock(t, repo, b.ID); !got.Equal(dec("4")) {
		t.Fatalf("product B stock = %s, want 4", got)
	}
}

func TestUpdateOrderHeaderOnlyRecomputesTotals(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "100", "0", "10", nil)

	resp, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items:       []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("4")}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	discount := dec("40")
	card := domain.PaymentCard
	updated, err := svc.UpdateOrder(cashierCtx(), resp.Order.ID, domain.OrderUpdateRequest{
		PaymentType: &card,
		Discount:    &discount,
	})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}

	if updated.Order.PaymentType != domain.PaymentCard {
		t.Fatalf("payment type = %s, want CARD", updated.Order.PaymentType)
	}
	if !updated.Order.GrandTotal.Equal(dec("360")) {
		t.Fatalf("grand total = %s, want 360 after discount", updated.Order.GrandTotal)
	}
	if got := productStock(t, repo, a.ID); !got.Equal(dec("6")) {
		t.Fatalf("header-only update must not move stock, got %s", got)
	}
}

func TestUpdateOrderItemQuantityAppliesDelta(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "50", "0", "5", nil)

	resp, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items:       []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("2")}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	itemID := resp.Order.Items[0].ID

	// Increase 2 -> 5 consumes the remaining 3.
	updated, err := svc.UpdateOrderItemQuantity(cashierCtx(), resp.Order.ID, itemID, domain.OrderItemUpdateRequest{Quantity: dec("5")})
	if err != nil {
		t.Fatalf("increase quantity: %v", err)
	}
	if got := productStock(t, repo, a.ID); !got.IsZero() {
		t.Fatalf("stock = %s, want 0", got)
	}
	if !updated.Order.GrandTotal.Equal(dec("250")) {
		t.Fatalf("grand total = %s, want 250", updated.Order.GrandTotal)
	}

	// Decrease 5 -> 1 releases 4.
	updated, err = svc.UpdateOrderItemQuantity(cashierCtx(), resp.Order.ID, itemID, domain.OrderItemUpdateRequest{Quantity: dec("1")})
	if err != nil {
		t.Fatalf("decrease quantity: %v", err)
	}
	if got := productStock(t, repo, a.ID); !got.Equal(dec("4")) {
		t.Fatalf("stock = %s, want 4", got)
	}
	if !updated.Order.GrandTotal.Equal(dec("50")) {
		t.Fatalf("grand total = %s, want 50", updated.Order.GrandTotal)
	}

	// Increase beyond available stock fails and changes nothing.
	_, err = svc.UpdateOrderItemQuantity(cashierCtx(), resp.Order.ID, itemID, domain.OrderItemUpdateRequest{Quantity: dec("6")})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
	if got := productStock(t, repo, a.ID); !got.Equal(dec("4")) {
		t.Fatalf("stock = %s, want 4 untouched after failed increase", got)
	}
}

func TestDeleteOrderRestoresAllStockIncludingSharedProducts(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "10", "0", "10", nil)
	b := seedProduct(t, repo, "B", "20", "0", "10", nil)

	resp, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items: []domain.OrderLineRequest{
			{ProductID: a.ID, Quantity: dec("2")},
			{ProductID: b.ID, Quantity: dec("3")},
			{ProductID: a.ID, Quantity: dec("1")},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if got := productStock(t, repo, a.ID); !got.Equal(dec("7")) {
		t.Fatalf("product A stock = %s, want 7", got)
	}

	if err := svc.DeleteOrder(adminCtx(), resp.Order.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}

	if got := productStock(t, repo, a.ID); !got.Equal(dec("10")) {
		t.Fatalf("product A stock = %s, want 10 restored", got)
	}
	if got := productStock(t, repo, b.ID); !got.Equal(dec("10")) {
		t.Fatalf("product B stock = %s, want 10 restored", got)
	}
	if _, err := svc.GetOrder(cashierCtx(), resp.Order.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("deleted order should be gone, got %v", err)
	}
}

func TestDeleteOrderRequiresAdmin(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "10", "0", "10", nil)

	resp, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items:       []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("1")}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if err := svc.DeleteOrder(cashierCtx(), resp.Order.ID); err == nil {
		t.Fatal("cashier must not delete orders")
	}
	if _, err := svc.GetOrder(cashierCtx(), resp.Order.ID); err != nil {
		t.Fatalf("order should survive forbidden delete: %v", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "10", "0", "10", nil)

	cases := []domain.OrderCreateRequest{
		{PaymentType: "BARTER", Items: []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("1")}}},
		{PaymentType: domain.PaymentCash},
		{PaymentType: domain.PaymentCash, Items: []domain.OrderLineRequest{{ProductID: "", Quantity: dec("1")}}},
		{PaymentType: domain.PaymentCash, Items: []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("-1")}}},
	}
	for i, req := range cases {
		if _, err := svc.CreateOrder(cashierCtx(), req); !errors.Is(err, store.ErrValidation) {
			t.Fatalf("case %d: want ErrValidation, got %v", i, err)
		}
	}

	_, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items:       []domain.OrderLineRequest{{ProductID: "prd-missing", Quantity: dec("1")}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown product: want ErrNotFound, got %v", err)
	}
}

func TestCreatePurchaseIncrementsStock(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "100", "0", "5", nil)

	purchase, err := svc.CreatePurchase(adminCtx(), domain.PurchaseCreateRequest{
		InvoiceNumber: "INV-1001",
		SupplierName:  "Fresh Farms",
		Items: []domain.PurchaseLineRequest{
			{ProductID: a.ID, Quantity: dec("10"), UnitCost: dec("70.50")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if !purchase.TotalAmount.Equal(dec("705")) {
		t.Fatalf("purchase total = %s, want 705", purchase.TotalAmount)
	}
	if got := productStock(t, repo, a.ID); !got.Equal(dec("15")) {
		t.Fatalf("stock = %s, want 15", got)
	}

	// Duplicate invoice number conflicts.
	_, err = svc.CreatePurchase(adminCtx(), domain.PurchaseCreateRequest{
		InvoiceNumber: "INV-1001",
		SupplierName:  "Fresh Farms",
		Items:         []domain.PurchaseLineRequest{{ProductID: a.ID, Quantity: dec("1"), UnitCost: dec("70")}},
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestDashboardSummaryCountsTodayOrders(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "100", "10", "10", nil)

	for i := 0; i < 2; i++ {
		_, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
			PaymentType: domain.PaymentCash,
			Items:       []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("1")}},
		})
		if err != nil {
			t.Fatalf("CreateOrder %d: %v", i, err)
		}
	}

	summary, err := svc.DashboardSummary(cashierCtx())
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	if summary.Orders != 2 {
		t.Fatalf("orders = %d, want 2", summary.Orders)
	}
	if !summary.Revenue.Equal(dec("220")) {
		t.Fatalf("revenue = %s, want 220", summary.Revenue)
	}
	if !summary.ItemsSold.Equal(dec("2")) {
		t.Fatalf("items sold = %s, want 2", summary.ItemsSold)
	}
}

func TestSnapshotPricingSurvivesCatalogChange(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedProduct(t, repo, "A", "100", "0", "10", nil)

	resp, err := svc.CreateOrder(cashierCtx(), domain.OrderCreateRequest{
		PaymentType: domain.PaymentCash,
		Items:       []domain.OrderLineRequest{{ProductID: a.ID, Quantity: dec("1")}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	newPrice := dec("999")
	if _, err := svc.UpdateProduct(adminCtx(), a.ID, domain.ProductUpdateRequest{SellingPrice: &newPrice}); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	order, err := svc.GetOrder(cashierCtx(), resp.Order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if !order.Items[0].UnitPrice.Equal(dec("100")) {
		t.Fatalf("snapshot unit price = %s, want 100 despite catalog change", order.Items[0].UnitPrice)
	}
	if !order.GrandTotal.Equal(dec("100")) {
		t.Fatalf("grand total = %s, want 100", order.GrandTotal)
	}
}
