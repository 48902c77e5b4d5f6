package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"retailpos/backend/internal/domain"
	"retailpos/backend/internal/inventory"
	"retailpos/backend/internal/money"
	"retailpos/backend/internal/pricing"
	"retailpos/backend/internal/store"
	"retailpos/backend/internal/xid"
)

type Store struct {
	db      *sql.DB
	windows inventory.Windows
}

func New(ctx context.Context, databaseURL string, windows inventory.Windows) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, windows: windows}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM categories
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 32)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, created_at)
		VALUES ($1,$2,$3)
	`, category.ID, category.Name, category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Category{}, store.ErrConflict
		}
		return domain.Category{}, err
	}
	return category, nil
}

const productColumns = `id, name, sku, category_id, COALESCE(brand,''), unit, cost_price,
	selling_price, stock, gst_percentage, expiry_date, COALESCE(hsn_code,''),
	COALESCE(barcode,''), created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	var expiry sql.NullTime
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.CategoryID, &p.Brand, &p.Unit, &p.CostPrice,
		&p.SellingPrice, &p.Stock, &p.GSTPercentage, &expiry, &p.HSNCode,
		&p.Barcode, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if expiry.Valid {
		e := dateUTC(expiry.Time)
		p.ExpiryDate = &e
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, store.ErrNotFound
		}
		return domain.Product{}, err
	}
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, sku, category_id, brand, unit, cost_price, selling_price,
			stock, gst_percentage, expiry_date, hsn_code, barcode, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, product.ID, product.Name, product.SKU, product.CategoryID, nullIfEmpty(product.Brand),
		product.Unit, product.CostPrice, product.SellingPrice, product.Stock,
		product.GSTPercentage, nullDate(product.ExpiryDate), nullIfEmpty(product.HSNCode),
		nullIfEmpty(product.Barcode), product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, store.ErrConflict
		}
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.CategoryID == "" {
		return domain.Product{}, store.ErrValidation
	}
	if product.SellingPrice.IsNegative() {
		return domain.Product{}, store.ErrValidation
	}
	product.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category_id = $3, brand = $4, unit = $5, cost_price = $6,
			selling_price = $7, gst_percentage = $8, expiry_date = $9,
			hsn_code = $10, barcode = $11, updated_at = $12
		WHERE id = $1
	`, product.ID, product.Name, product.CategoryID, nullIfEmpty(product.Brand), product.Unit,
		product.CostPrice, product.SellingPrice, product.GSTPercentage,
		nullDate(product.ExpiryDate), nullIfEmpty(product.HSNCode), nullIfEmpty(product.Barcode),
		product.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Product{}, err
	}
	if affected == 0 {
		return domain.Product{}, store.ErrNotFound
	}
	return s.GetProductByID(ctx, product.ID)
}

// lockProducts reads the product rows for ids under FOR UPDATE so stock math
// and snapshot reads happen against a consistent, locked view. Every id must
// resolve; a missing product fails the whole operation.
func lockProducts(ctx context.Context, tx *sql.Tx, ids []string) (map[string]domain.Product, error) {
	products := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
		ORDER BY id ASC
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, store.ErrNotFound
		}
	}
	return products, nil
}

// checkLines validates availability (quantities summed per product across
// lines) and expiry for every distinct product. Warning-window products are
// collected, never fatal.
func (s *Store) checkLines(products map[string]domain.Product, lines []store.OrderLine, now time.Time) ([]domain.ExpiryWarning, error) {
	needed := inventory.SumQuantities(lines)
	ids := make([]string, 0, len(needed))
	for id := range needed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	warnings := make([]domain.ExpiryWarning, 0, 2)
	for _, id := range ids {
		product := products[id]
		if err := inventory.CheckAvailability(product, needed[id]); err != nil {
			return nil, err
		}
		warning, err := inventory.CheckExpiry(product, now, s.windows)
		if err != nil {
			return nil, err
		}
		if warning != nil {
			warnings = append(warnings, *warning)
		}
	}
	return warnings, nil
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

func insertOrderItems(ctx context.Context, tx *sql.Tx, orderID string, priced []pricing.PricedLine, now time.Time) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(priced))
	for _, line := range priced {
		item := domain.OrderItem{
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
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, product_name, quantity, unit_price,
				gst_percentage, discount, gst_amount, total_price, created_at
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity,
			item.UnitPrice, item.GSTPercentage, item.Discount, item.GSTAmount,
			item.TotalPrice, item.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func adjustStock(ctx context.Context, tx *sql.Tx, quantities map[string]decimal.Decimal, sign decimal.Decimal) error {
	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		delta := quantities[id].Mul(sign)
		if delta.IsZero() {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock + $1, updated_at = now()
			WHERE id = $2
		`, delta, id)
		if err != nil {
			return err
		}
	}
	return nil
}

var one = decimal.NewFromInt(1)
var minusOne = decimal.NewFromInt(-1)

func (s *Store) CreateOrder(ctx context.Context, draft store.OrderDraft) (domain.Order, []domain.ExpiryWarning, error) {
	if len(draft.Lines) == 0 || draft.OrderNumber == "" {
		return domain.Order{}, nil, store.ErrValidation
	}
	if draft.ID == "" {
		draft.ID = xid.New("ord")
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.Order{}, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	products, err := lockProducts(ctx, tx, uniqueProductIDs(draft.Lines))
	if err != nil {
		return domain.Order{}, nil, err
	}

	now := draft.CreatedAt
	warnings, err := s.checkLines(products, draft.Lines, now)
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
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_number, customer_name, customer_phone, payment_type,
			discount, subtotal, gst_total, grand_total, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, order.ID, order.OrderNumber, nullIfEmpty(order.CustomerName),
		nullIfEmpty(order.CustomerPhone), order.PaymentType, order.Discount,
		order.Subtotal, order.GSTTotal, order.GrandTotal, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, nil, store.ErrConflict
		}
		return domain.Order{}, nil, err
	}

	order.Items, err = insertOrderItems(ctx, tx, order.ID, priced, now)
	if err != nil {
		return domain.Order{}, nil, err
	}

	if err := adjustStock(ctx, tx, inventory.SumQuantities(draft.Lines), minusOne); err != nil {
		return domain.Order{}, nil, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, nil, err
	}
	return order, warnings, nil
}

const orderColumns = `id, order_number, COALESCE(customer_name,''), COALESCE(customer_phone,''),
	payment_type, discount, subtotal, gst_total, grand_total, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone,
		&o.PaymentType, &o.Discount, &o.Subtotal, &o.GSTTotal, &o.GrandTotal,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return o, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadOrderItems(ctx context.Context, q querier, orderIDs []string) (map[string][]domain.OrderItem, error) {
	result := make(map[string][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price,
			gst_percentage, discount, gst_amount, total_price, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.GSTPercentage, &item.Discount,
			&item.GSTAmount, &item.TotalPrice, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.CreatedAt = item.CreatedAt.UTC()
		result[item.OrderID] = append(result[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, store.ErrNotFound
		}
		return domain.Order{}, err
	}

	items, err := loadOrderItems(ctx, s.db, []string{order.ID})
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (s *Store) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = 100
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1 = '' OR order_number ILIKE '%'||$1||'%' OR customer_name ILIKE '%'||$1||'%')
			AND ($2 = '' OR payment_type = $2)
	`
	args := []any{strings.TrimSpace(filter.Search), string(filter.PaymentType)}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		query += ` AND created_at >= $3`
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		if filter.FromDate != nil {
			query += ` AND created_at < $4`
		} else {
			query += ` AND created_at < $3`
		}
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := loadOrderItems(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (s *Store) ReplaceOrderItems(ctx context.Context, orderID string, draft store.OrderDraft) (domain.Order, []domain.ExpiryWarning, error) {
	if len(draft.Lines) == 0 {
		return domain.Order{}, nil, store.ErrValidation
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.Order{}, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, nil, store.ErrNotFound
		}
		return domain.Order{}, nil, err
	}

	existing, err := loadOrderItems(ctx, tx, []string{orderID})
	if err != nil {
		return domain.Order{}, nil, err
	}
	oldLines := make([]store.OrderLine, 0, len(existing[orderID]))
	for _, item := range existing[orderID] {
		oldLines = append(oldLines, store.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	// Lock every product touched by either the old or the new item set before
	// any stock math.
	allIDs := uniqueProductIDs(append(append([]store.OrderLine{}, oldLines...), draft.Lines...))
	products, err := lockProducts(ctx, tx, allIDs)
	if err != nil {
		return domain.Order{}, nil, err
	}

	// Restore stock held by the old items, then validate the new lines against
	// the restored quantities.
	restored := inventory.SumQuantities(oldLines)
	if err := adjustStock(ctx, tx, restored, one); err != nil {
		return domain.Order{}, nil, err
	}
	for id, qty := range restored {
		p := products[id]
		p.Stock = p.Stock.Add(qty)
		products[id] = p
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return domain.Order{}, nil, err
	}

	now := time.Now().UTC()
	warnings, err := s.checkLines(products, draft.Lines, now)
	if err != nil {
		return domain.Order{}, nil, err
	}

	priced, totals := pricing.Allocate(buildPricingLines(draft.Lines, products), draft.Discount)

	order.CustomerName = draft.CustomerName
	order.CustomerPhone = draft.CustomerPhone
	order.PaymentType = draft.PaymentType
	order.Discount = totals.OrderDiscount
	order.Subtotal = totals.Subtotal
	order.GSTTotal = totals.GSTTotal
	order.GrandTotal = totals.GrandTotal
	order.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET customer_name = $2, customer_phone = $3, payment_type = $4, discount = $5,
			subtotal = $6, gst_total = $7, grand_total = $8, updated_at = $9
		WHERE id = $1
	`, order.ID, nullIfEmpty(order.CustomerName), nullIfEmpty(order.CustomerPhone),
		order.PaymentType, order.Discount, order.Subtotal, order.GSTTotal,
		order.GrandTotal, order.UpdatedAt)
	if err != nil {
		return domain.Order{}, nil, err
	}

	order.Items, err = insertOrderItems(ctx, tx, order.ID, priced, now)
	if err != nil {
		return domain.Order{}, nil, err
	}

	if err := adjustStock(ctx, tx, inventory.SumQuantities(draft.Lines), minusOne); err != nil {
		return domain.Order{}, nil, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, nil, err
	}
	return order, warnings, nil
}

func (s *Store) UpdateOrderFields(ctx context.Context, orderID string, fields store.OrderFieldUpdate) (domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, store.ErrNotFound
		}
		return domain.Order{}, err
	}

	existing, err := loadOrderItems(ctx, tx, []string{orderID})
	if err != nil {
		return domain.Order{}, err
	}
	items := existing[orderID]

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

	// A discount change re-runs the allocation over the stored snapshots so
	// line figures stay consistent with the order aggregates. No stock moves.
	order, items, err = reallocateOrder(ctx, tx, order, items)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	if err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// reallocateOrder recomputes every line's discounted figures from its stored
// unit-price and GST snapshots plus the order's current discount, writes the
// lines back, and refreshes the order aggregates.
func reallocateOrder(ctx context.Context, tx *sql.Tx, order domain.Order, items []domain.OrderItem) (domain.Order, []domain.OrderItem, error) {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
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

	for i := range items {
		items[i].Quantity = priced[i].Quantity
		items[i].GSTAmount = priced[i].GSTAmount
		items[i].TotalPrice = priced[i].TotalPrice
		_, err := tx.ExecContext(ctx, `
			UPDATE order_items
			SET quantity = $2, gst_amount = $3, total_price = $4
			WHERE id = $1
		`, items[i].ID, items[i].Quantity, items[i].GSTAmount, items[i].TotalPrice)
		if err != nil {
			return domain.Order{}, nil, err
		}
	}

	order.Subtotal = totals.Subtotal
	order.GSTTotal = totals.GSTTotal
	order.GrandTotal = totals.GrandTotal
	order.UpdatedAt = time.Now().UTC()

	_, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET customer_name = $2, customer_phone = $3, payment_type = $4, discount = $5,
			subtotal = $6, gst_total = $7, grand_total = $8, updated_at = $9
		WHERE id = $1
	`, order.ID, nullIfEmpty(order.CustomerName), nullIfEmpty(order.CustomerPhone),
		order.PaymentType, order.Discount, order.Subtotal, order.GSTTotal,
		order.GrandTotal, order.UpdatedAt)
	if err != nil {
		return domain.Order{}, nil, err
	}
	return order, items, nil
}

func (s *Store) UpdateOrderItemQuantity(ctx context.Context, orderID, itemID string, quantity decimal.Decimal) (domain.Order, []domain.ExpiryWarning, error) {
	if !quantity.IsPositive() {
		return domain.Order{}, nil, store.ErrValidation
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.Order{}, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, nil, store.ErrNotFound
		}
		return domain.Order{}, nil, err
	}

	existing, err := loadOrderItems(ctx, tx, []string{orderID})
	if err != nil {
		return domain.Order{}, nil, err
	}
	items := existing[orderID]

	idx := -1
	for i, item := range items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Order{}, nil, store.ErrNotFound
	}

	products, err := lockProducts(ctx, tx, []string{items[idx].ProductID})
	if err != nil {
		return domain.Order{}, nil, err
	}
	product := products[items[idx].ProductID]

	var warnings []domain.ExpiryWarning
	delta := quantity.Sub(items[idx].Quantity)
	switch {
	case delta.IsPositive():
		// Only the delta is checked; the original quantity is already held.
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
		if err := adjustStock(ctx, tx, map[string]decimal.Decimal{product.ID: delta}, minusOne); err != nil {
			return domain.Order{}, nil, err
		}
	case delta.IsNegative():
		if err := adjustStock(ctx, tx, map[string]decimal.Decimal{product.ID: delta.Abs()}, one); err != nil {
			return domain.Order{}, nil, err
		}
	}

	items[idx].Quantity = quantity

	order, items, err = reallocateOrder(ctx, tx, order, items)
	if err != nil {
		return domain.Order{}, nil, err
	}
	order.Items = items

	if err := tx.Commit(); err != nil {
		return domain.Order{}, nil, err
	}
	return order, warnings, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var orderID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM orders WHERE id = $1 FOR UPDATE
	`, id).Scan(&orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}

	existing, err := loadOrderItems(ctx, tx, []string{id})
	if err != nil {
		return err
	}
	lines := make([]store.OrderLine, 0, len(existing[id]))
	for _, item := range existing[id] {
		lines = append(lines, store.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	if _, err := lockProducts(ctx, tx, uniqueProductIDs(lines)); err != nil {
		return err
	}
	if err := adjustStock(ctx, tx, inventory.SumQuantities(lines), one); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) CreatePurchase(ctx context.Context, draft store.PurchaseDraft) (domain.Purchase, error) {
	if draft.InvoiceNumber == "" || draft.SupplierName == "" || len(draft.Lines) == 0 {
		return domain.Purchase{}, store.ErrValidation
	}
	if draft.ID == "" {
		draft.ID = xid.New("pur")
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.Purchase{}, err
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]string, 0, len(draft.Lines))
	seen := make(map[string]struct{}, len(draft.Lines))
	for _, line := range draft.Lines {
		if !line.Quantity.IsPositive() || line.UnitCost.IsNegative() {
			return domain.Purchase{}, store.ErrValidation
		}
		if _, ok := seen[line.ProductID]; !ok {
			seen[line.ProductID] = struct{}{}
			ids = append(ids, line.ProductID)
		}
	}
	sort.Strings(ids)
	if _, err := lockProducts(ctx, tx, ids); err != nil {
		return domain.Purchase{}, err
	}

	purchase := domain.Purchase{
		ID:            draft.ID,
		InvoiceNumber: draft.InvoiceNumber,
		SupplierName:  draft.SupplierName,
		DueDate:       draft.DueDate,
		CreatedAt:     draft.CreatedAt,
	}

	total := decimal.Zero
	received := make(map[string]decimal.Decimal, len(draft.Lines))
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
		received[line.ProductID] = received[line.ProductID].Add(line.Quantity)
	}
	purchase.TotalAmount = money.Round2(total)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO purchases (id, invoice_number, supplier_name, due_date, total_amount, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, purchase.ID, purchase.InvoiceNumber, purchase.SupplierName, nullDate(purchase.DueDate),
		purchase.TotalAmount, purchase.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Purchase{}, store.ErrConflict
		}
		return domain.Purchase{}, err
	}

	for _, item := range purchase.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO purchase_items (id, purchase_id, product_id, quantity, unit_cost, total_cost)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, item.ID, item.PurchaseID, item.ProductID, item.Quantity, item.UnitCost, item.TotalCost)
		if err != nil {
			return domain.Purchase{}, err
		}
	}

	if err := adjustStock(ctx, tx, received, one); err != nil {
		return domain.Purchase{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Purchase{}, err
	}
	return purchase, nil
}

func (s *Store) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, invoice_number, supplier_name, due_date, total_amount, created_at
		FROM purchases
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.Purchase, 0, 32)
	ids := make([]string, 0, 32)
	for rows.Next() {
		var p domain.Purchase
		var due sql.NullTime
		if err := rows.Scan(&p.ID, &p.InvoiceNumber, &p.SupplierName, &due, &p.TotalAmount, &p.CreatedAt); err != nil {
			return nil, err
		}
		if due.Valid {
			d := dateUTC(due.Time)
			p.DueDate = &d
		}
		p.CreatedAt = p.CreatedAt.UTC()
		purchases = append(purchases, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return purchases, nil
	}
	itemRows, err := s.db.QueryContext(ctx, `
		SELECT id, purchase_id, product_id, quantity, unit_cost, total_cost
		FROM purchase_items
		WHERE purchase_id = ANY($1)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	byPurchase := make(map[string][]domain.PurchaseItem, len(ids))
	for itemRows.Next() {
		var item domain.PurchaseItem
		if err := itemRows.Scan(&item.ID, &item.PurchaseID, &item.ProductID, &item.Quantity, &item.UnitCost, &item.TotalCost); err != nil {
			return nil, err
		}
		byPurchase[item.PurchaseID] = append(byPurchase[item.PurchaseID], item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	for i := range purchases {
		purchases[i].Items = byPurchase[purchases[i].ID]
	}
	return purchases, nil
}

func (s *Store) GetDailySummary(ctx context.Context, day time.Time) (domain.DashboardSummary, error) {
	from := dateUTC(day)
	to := from.AddDate(0, 0, 1)

	summary := domain.DashboardSummary{Date: from.Format("2006-01-02")}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)::bigint, COALESCE(SUM(grand_total),0), COALESCE(SUM(gst_total),0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&summary.Orders, &summary.Revenue, &summary.GSTTotal)
	if err != nil {
		return summary, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(oi.quantity),0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1 AND o.created_at < $2
	`, from, to).Scan(&summary.ItemsSold)
	if err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrValidation
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func uniqueProductIDs(lines []store.OrderLine) []string {
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			continue
		}
		set[line.ProductID] = struct{}{}
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func dateUTC(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullDate(val *time.Time) any {
	if val == nil {
		return nil
	}
	return dateUTC(*val)
}
