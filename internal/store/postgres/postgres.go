package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"bengkelpos/internal/domain"
	"bengkelpos/internal/metrics"
	"bengkelpos/internal/store"
	"bengkelpos/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
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

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// maxTxAttempts bounds serializable retries; after the last failed
// attempt the caller sees ErrTransactionConflict.
const maxTxAttempts = 5

// withSerializableRetry runs fn in a SERIALIZABLE transaction and
// retries it on serialization failures (40001) and deadlocks (40P01)
// with a short linear backoff. Any other error aborts immediately.
func (s *Store) withSerializableRetry(ctx context.Context, fn func(tx *sql.Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := s.runSerializable(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		if attempt >= maxTxAttempts {
			metrics.TxnConflictsTotal.Inc()
			return fmt.Errorf("%w: after %d attempts: %v", store.ErrTransactionConflict, attempt, err)
		}
		metrics.TxnRetriesTotal.Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 15 * time.Millisecond):
		}
	}
}

func (s *Store) runSerializable(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) CreateInventoryRecord(ctx context.Context, rec domain.InventoryRecord) (*domain.InventoryRecord, error) {
	if rec.LocationID == "" || rec.Name == "" || rec.Stock < 0 {
		return nil, store.ErrInvalidInput
	}
	if rec.ID == "" {
		rec.ID = xid.New("itm")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_records (id, location_id, sku, name, category, stock, cost_cents, price_cents, reorder_level, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
	`, rec.ID, rec.LocationID, rec.SKU, rec.Name, rec.Category, rec.Stock, rec.CostCents, rec.PriceCents, rec.ReorderLevel)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := rec
	return &created, nil
}

func (s *Store) GetInventoryRecord(ctx context.Context, id string) (*domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, location_id, sku, name, category, stock, cost_cents, price_cents, reorder_level
		FROM inventory_records
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.LocationID, &rec.SKU, &rec.Name, &rec.Category, &rec.Stock, &rec.CostCents, &rec.PriceCents, &rec.ReorderLevel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListInventoryRecords(ctx context.Context, locationID string) ([]domain.InventoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, location_id, sku, name, category, stock, cost_cents, price_cents, reorder_level
		FROM inventory_records
		WHERE $1 = '' OR location_id = $1
		ORDER BY location_id, name
	`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.InventoryRecord, 0, 128)
	for rows.Next() {
		var rec domain.InventoryRecord
		if err := rows.Scan(&rec.ID, &rec.LocationID, &rec.SKU, &rec.Name, &rec.Category, &rec.Stock, &rec.CostCents, &rec.PriceCents, &rec.ReorderLevel); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	if po.Supplier == "" || len(po.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	for _, item := range po.Items {
		if item.InventoryItemID == "" || item.Quantity < 1 || item.ReceivedQty != 0 {
			return nil, store.ErrInvalidInput
		}
	}
	if po.ID == "" {
		po.ID = xid.New("po")
	}
	if po.OrderDate.IsZero() {
		po.OrderDate = time.Now().UTC()
	}
	if po.Status == "" {
		po.Status = domain.POStatusOrdered
	}
	po.Receptions = nil

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO purchase_orders (id, location_id, supplier, order_date, expected_date, status, total_cost_cents, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
	`, po.ID, po.LocationID, po.Supplier, po.OrderDate, po.ExpectedDate, po.Status, po.TotalCostCents)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	for i, item := range po.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO purchase_order_items (po_id, inventory_item_id, line_no, name, quantity, cost_cents, received_qty)
			VALUES ($1,$2,$3,$4,$5,$6,0)
		`, po.ID, item.InventoryItemID, i, item.Name, item.Quantity, item.CostCents)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, store.ErrInvalidInput
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := po
	return &created, nil
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	return loadPurchaseOrder(ctx, s.db, id)
}

func (s *Store) ListPurchaseOrders(ctx context.Context, locationID string, status string, limit int) ([]domain.PurchaseOrder, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id
		FROM purchase_orders
		WHERE ($1 = '' OR location_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY order_date DESC, id DESC
		LIMIT $3
	`, locationID, status, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, limit)
	for rows.Next() {
		var poID string
		if err := rows.Scan(&poID); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, poID)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	orders := make([]domain.PurchaseOrder, 0, len(ids))
	for _, poID := range ids {
		po, err := loadPurchaseOrder(ctx, s.db, poID)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *po)
	}
	return orders, nil
}

func (s *Store) ApplyReception(ctx context.Context, poID string, reception domain.Reception) (*domain.PurchaseOrder, *domain.Reception, error) {
	if reception.ID == "" {
		reception.ID = xid.New("rcpt")
	}
	if reception.Date.IsZero() {
		reception.Date = time.Now().UTC()
	}

	var resultPO *domain.PurchaseOrder
	var resultReception *domain.Reception
	err := s.withSerializableRetry(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `
			SELECT status FROM purchase_orders WHERE id = $1 FOR UPDATE
		`, poID).Scan(&status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}
		if !domain.CanReceive(status) {
			return fmt.Errorf("%w: purchase order is %s", store.ErrInvalidState, status)
		}

		itemRows, err := tx.QueryContext(ctx, `
			SELECT inventory_item_id, name, quantity, cost_cents, received_qty
			FROM purchase_order_items
			WHERE po_id = $1
			ORDER BY line_no
			FOR UPDATE
		`, poID)
		if err != nil {
			return err
		}
		items := make([]domain.PurchaseOrderItem, 0, 8)
		for itemRows.Next() {
			var item domain.PurchaseOrderItem
			if err := itemRows.Scan(&item.InventoryItemID, &item.Name, &item.Quantity, &item.CostCents, &item.ReceivedQty); err != nil {
				_ = itemRows.Close()
				return err
			}
			items = append(items, item)
		}
		if err := itemRows.Err(); err != nil {
			_ = itemRows.Close()
			return err
		}
		_ = itemRows.Close()

		itemIndex := make(map[string]int, len(items))
		for i, item := range items {
			itemIndex[item.InventoryItemID] = i
		}

		applied := make([]domain.ReceptionItem, 0, len(reception.Items))
		for _, line := range reception.Items {
			if line.QtyReceived <= 0 {
				continue
			}
			idx, ok := itemIndex[line.InventoryItemID]
			if !ok {
				return fmt.Errorf("%w: item %s is not on this purchase order", store.ErrInvalidInput, line.InventoryItemID)
			}
			item := items[idx]
			remaining := item.Quantity - item.ReceivedQty
			qty := line.QtyReceived
			if qty > remaining {
				qty = remaining
			}
			if qty <= 0 {
				continue
			}

			res, err := tx.ExecContext(ctx, `
				UPDATE inventory_records
				SET stock = stock + $1, updated_at = now()
				WHERE id = $2
			`, qty, line.InventoryItemID)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("%w: inventory record %s", store.ErrNotFound, item.Name)
			}

			_, err = tx.ExecContext(ctx, `
				UPDATE purchase_order_items
				SET received_qty = received_qty + $1
				WHERE po_id = $2 AND inventory_item_id = $3
			`, qty, poID, line.InventoryItemID)
			if err != nil {
				return err
			}

			items[idx].ReceivedQty += qty
			applied = append(applied, domain.ReceptionItem{
				InventoryItemID: line.InventoryItemID,
				Name:            item.Name,
				QtyReceived:     qty,
			})
		}

		if len(applied) == 0 {
			return store.ErrNoItemsToReceive
		}

		newStatus := domain.RecomputePOStatus(items)
		_, err = tx.ExecContext(ctx, `
			UPDATE purchase_orders SET status = $1, updated_at = now() WHERE id = $2
		`, newStatus, poID)
		if err != nil {
			return err
		}

		itemsJSON, err := json.Marshal(applied)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO receptions (id, po_id, date, notes, items)
			VALUES ($1,$2,$3,$4,$5)
		`, reception.ID, poID, reception.Date, reception.Notes, itemsJSON)
		if err != nil {
			return err
		}

		po, err := loadPurchaseOrder(ctx, tx, poID)
		if err != nil {
			return err
		}
		resultPO = po
		copyReception := reception
		copyReception.Items = applied
		resultReception = &copyReception
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resultPO, resultReception, nil
}

func (s *Store) CreateTransferOrder(ctx context.Context, to domain.TransferOrder) (*domain.TransferOrder, error) {
	if to.FromLocationID == "" || to.ToLocationID == "" || len(to.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	for _, item := range to.Items {
		if item.InventoryItemID == "" || item.Quantity < 1 {
			return nil, store.ErrInvalidInput
		}
	}
	if to.ID == "" {
		to.ID = xid.New("tr")
	}
	if to.CreatedAt.IsZero() {
		to.CreatedAt = time.Now().UTC()
	}
	to.Status = domain.TransferStatusPending
	to.CompletedAt = nil

	err := s.withSerializableRetry(ctx, func(tx *sql.Tx) error {
		for i, item := range to.Items {
			var sku, name string
			var stock int
			err := tx.QueryRowContext(ctx, `
				SELECT sku, name, stock
				FROM inventory_records
				WHERE id = $1 AND location_id = $2
				FOR UPDATE
			`, item.InventoryItemID, to.FromLocationID).Scan(&sku, &name, &stock)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: %s at %s", store.ErrNotFound, item.Name, to.FromLocationID)
				}
				return err
			}
			if stock < item.Quantity {
				return fmt.Errorf("%w: %s", store.ErrInsufficientStock, name)
			}

			_, err = tx.ExecContext(ctx, `
				UPDATE inventory_records
				SET stock = stock - $1, updated_at = now()
				WHERE id = $2
			`, item.Quantity, item.InventoryItemID)
			if err != nil {
				return err
			}

			if to.Items[i].SKU == "" {
				to.Items[i].SKU = sku
			}
			if to.Items[i].Name == "" {
				to.Items[i].Name = name
			}
		}

		itemsJSON, err := json.Marshal(to.Items)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transfer_orders (id, from_location_id, to_location_id, status, items, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, to.ID, to.FromLocationID, to.ToLocationID, to.Status, itemsJSON, to.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrInvalidInput
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created := to
	return &created, nil
}

func (s *Store) CompleteTransferOrder(ctx context.Context, id string, at time.Time) (*domain.TransferOrder, error) {
	completedAt := at.UTC()

	var result *domain.TransferOrder
	err := s.withSerializableRetry(ctx, func(tx *sql.Tx) error {
		to, err := lockTransferOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if to.Status != domain.TransferStatusPending {
			return fmt.Errorf("%w: transfer is %s", store.ErrInvalidState, to.Status)
		}

		for _, item := range to.Items {
			// Destination resolution happens inside the transaction so
			// two concurrent completions can never both create a record
			// for the same SKU.
			var destID string
			err := tx.QueryRowContext(ctx, `
				SELECT id
				FROM inventory_records
				WHERE location_id = $1
				  AND ((sku <> '' AND sku = $2) OR (sku = '' AND $2 = '' AND name = $3))
				FOR UPDATE
			`, to.ToLocationID, item.SKU, item.Name).Scan(&destID)
			switch {
			case err == nil:
				_, err = tx.ExecContext(ctx, `
					UPDATE inventory_records
					SET stock = stock + $1, updated_at = now()
					WHERE id = $2
				`, item.Quantity, destID)
				if err != nil {
					return err
				}
			case errors.Is(err, sql.ErrNoRows):
				newRec := domain.InventoryRecord{
					ID:         xid.New("itm"),
					LocationID: to.ToLocationID,
					SKU:        item.SKU,
					Name:       item.Name,
					Stock:      item.Quantity,
				}
				srcErr := tx.QueryRowContext(ctx, `
					SELECT category, cost_cents, price_cents, reorder_level
					FROM inventory_records
					WHERE id = $1
				`, item.InventoryItemID).Scan(&newRec.Category, &newRec.CostCents, &newRec.PriceCents, &newRec.ReorderLevel)
				if srcErr != nil && !errors.Is(srcErr, sql.ErrNoRows) {
					return srcErr
				}
				_, err = tx.ExecContext(ctx, `
					INSERT INTO inventory_records (id, location_id, sku, name, category, stock, cost_cents, price_cents, reorder_level, created_at, updated_at)
					VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
				`, newRec.ID, newRec.LocationID, newRec.SKU, newRec.Name, newRec.Category, newRec.Stock, newRec.CostCents, newRec.PriceCents, newRec.ReorderLevel)
				if err != nil {
					return err
				}
			default:
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE transfer_orders SET status = $1, completed_at = $2 WHERE id = $3
		`, domain.TransferStatusCompleted, completedAt, id)
		if err != nil {
			return err
		}

		to.Status = domain.TransferStatusCompleted
		to.CompletedAt = &completedAt
		result = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CancelTransferOrder(ctx context.Context, id string, at time.Time) (*domain.TransferOrder, error) {
	cancelledAt := at.UTC()

	var result *domain.TransferOrder
	err := s.withSerializableRetry(ctx, func(tx *sql.Tx) error {
		to, err := lockTransferOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if to.Status != domain.TransferStatusPending {
			return fmt.Errorf("%w: transfer is %s", store.ErrInvalidState, to.Status)
		}

		// Reversal is best-effort: a source record deleted while the
		// transfer was pending simply loses the quantity.
		for _, item := range to.Items {
			_, err = tx.ExecContext(ctx, `
				UPDATE inventory_records
				SET stock = stock + $1, updated_at = now()
				WHERE id = $2 AND location_id = $3
			`, item.Quantity, item.InventoryItemID, to.FromLocationID)
			if err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE transfer_orders SET status = $1, completed_at = $2 WHERE id = $3
		`, domain.TransferStatusCancelled, cancelledAt, id)
		if err != nil {
			return err
		}

		to.Status = domain.TransferStatusCancelled
		to.CompletedAt = &cancelledAt
		result = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetTransferOrder(ctx context.Context, id string) (*domain.TransferOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, from_location_id, to_location_id, status, items, created_at, completed_at
		FROM transfer_orders
		WHERE id = $1
	`, id)
	to, err := scanTransferOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return to, nil
}

func (s *Store) ListTransferOrders(ctx context.Context, status string, limit int) ([]domain.TransferOrder, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_location_id, to_location_id, status, items, created_at, completed_at
		FROM transfer_orders
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transfers := make([]domain.TransferOrder, 0, limit)
	for rows.Next() {
		to, err := scanTransferOrder(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, *to)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transfers, nil
}

func (s *Store) DebitStock(ctx context.Context, locationID string, debits []store.StockDebit) (int64, error) {
	if len(debits) == 0 {
		return 0, nil
	}
	needed := make(map[string]int, len(debits))
	order := make([]string, 0, len(debits))
	for _, debit := range debits {
		if debit.Quantity < 1 {
			return 0, store.ErrInvalidInput
		}
		if _, seen := needed[debit.InventoryItemID]; !seen {
			order = append(order, debit.InventoryItemID)
		}
		needed[debit.InventoryItemID] += debit.Quantity
	}

	var costCents int64
	err := s.withSerializableRetry(ctx, func(tx *sql.Tx) error {
		costCents = 0
		for _, recordID := range order {
			qty := needed[recordID]
			var name string
			var stock int
			var unitCost int64
			err := tx.QueryRowContext(ctx, `
				SELECT name, stock, cost_cents
				FROM inventory_records
				WHERE id = $1 AND ($2 = '' OR location_id = $2)
				FOR UPDATE
			`, recordID, locationID).Scan(&name, &stock, &unitCost)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: inventory record %s", store.ErrNotFound, recordID)
				}
				return err
			}
			if stock < qty {
				return fmt.Errorf("%w: %s", store.ErrInsufficientStock, name)
			}

			_, err = tx.ExecContext(ctx, `
				UPDATE inventory_records
				SET stock = stock - $1, updated_at = now()
				WHERE id = $2
			`, qty, recordID)
			if err != nil {
				return err
			}
			costCents += unitCost * int64(qty)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return costCents, nil
}

func (s *Store) CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	if o.Type == "" {
		return nil, store.ErrInvalidInput
	}
	if o.ID == "" {
		o.ID = xid.New("ord")
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusOpen
	}

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, type, status, customer_id, amount_cents, material_cost_cents, items, invoice_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, o.ID, o.Type, o.Status, o.CustomerID, o.AmountCents, o.MaterialCostCents, itemsJSON, o.InvoiceID, o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := o
	return &created, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	var itemsRaw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, status, customer_id, amount_cents, material_cost_cents, items, invoice_id, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&o.ID, &o.Type, &o.Status, &o.CustomerID, &o.AmountCents, &o.MaterialCostCents, &itemsRaw, &o.InvoiceID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) SetOrderInvoice(ctx context.Context, orderID string, invoiceID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET invoice_id = $1 WHERE id = $2
	`, invoiceID, orderID)
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

func (s *Store) CreateInvoice(ctx context.Context, inv domain.Invoice) (*domain.Invoice, error) {
	if len(inv.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	if inv.ID == "" {
		inv.ID = xid.New("inv")
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, customer_id, items, subtotal_cents, tax_cents, total_cents, deposit_cents, amount_due_cents, status, payment_method, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, inv.ID, inv.CustomerID, itemsJSON, inv.SubtotalCents, inv.TaxCents, inv.TotalCents, inv.DepositCents, inv.AmountDueCents, inv.Status, inv.PaymentMethod, inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := inv
	return &created, nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, items, subtotal_cents, tax_cents, total_cents, deposit_cents, amount_due_cents, status, payment_method, created_at
		FROM invoices
		WHERE id = $1
	`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, limit int) ([]domain.Invoice, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, items, subtotal_cents, tax_cents, total_cents, deposit_cents, amount_due_cents, status, payment_method, created_at
		FROM invoices
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0, limit)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *Store) ApplyInvoicePayment(ctx context.Context, invoiceID string, amountCents int64, paymentMethod string) (*domain.Invoice, error) {
	if amountCents <= 0 {
		return nil, store.ErrInvalidInput
	}

	var result *domain.Invoice
	err := s.withSerializableRetry(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, customer_id, items, subtotal_cents, tax_cents, total_cents, deposit_cents, amount_due_cents, status, payment_method, created_at
			FROM invoices
			WHERE id = $1
			FOR UPDATE
		`, invoiceID)
		inv, err := scanInvoice(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}

		domain.ApplyInvoiceMath(inv, amountCents)
		if paymentMethod != "" {
			inv.PaymentMethod = paymentMethod
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE invoices
			SET deposit_cents = $1, amount_due_cents = $2, status = $3, payment_method = $4
			WHERE id = $5
		`, inv.DepositCents, inv.AmountDueCents, inv.Status, inv.PaymentMethod, invoiceID)
		if err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, location_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.LocationID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, locationID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	var fromArg, toArg sql.NullTime
	if !from.IsZero() {
		fromArg = sql.NullTime{Time: from, Valid: true}
	}
	if !to.IsZero() {
		toArg = sql.NullTime{Time: to, Valid: true}
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, location_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE ($1 = '' OR location_id = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`, locationID, fromArg, toArg, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.LocationID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" {
		return store.ErrInvalidInput
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password_hash, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $1 WHERE username = $2
	`, password, username)
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

// querier is the subset of *sql.DB and *sql.Tx the loaders need.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadPurchaseOrder(ctx context.Context, q querier, id string) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	var expected sql.NullTime
	err := q.QueryRowContext(ctx, `
		SELECT id, location_id, supplier, order_date, expected_date, status, total_cost_cents
		FROM purchase_orders
		WHERE id = $1
	`, id).Scan(&po.ID, &po.LocationID, &po.Supplier, &po.OrderDate, &expected, &po.Status, &po.TotalCostCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if expected.Valid {
		e := expected.Time
		po.ExpectedDate = &e
	}

	itemRows, err := q.QueryContext(ctx, `
		SELECT inventory_item_id, name, quantity, cost_cents, received_qty
		FROM purchase_order_items
		WHERE po_id = $1
		ORDER BY line_no
	`, id)
	if err != nil {
		return nil, err
	}
	for itemRows.Next() {
		var item domain.PurchaseOrderItem
		if err := itemRows.Scan(&item.InventoryItemID, &item.Name, &item.Quantity, &item.CostCents, &item.ReceivedQty); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		po.Items = append(po.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	receptionRows, err := q.QueryContext(ctx, `
		SELECT id, date, notes, items
		FROM receptions
		WHERE po_id = $1
		ORDER BY date, id
	`, id)
	if err != nil {
		return nil, err
	}
	for receptionRows.Next() {
		var reception domain.Reception
		var itemsRaw []byte
		if err := receptionRows.Scan(&reception.ID, &reception.Date, &reception.Notes, &itemsRaw); err != nil {
			_ = receptionRows.Close()
			return nil, err
		}
		if err := json.Unmarshal(itemsRaw, &reception.Items); err != nil {
			_ = receptionRows.Close()
			return nil, err
		}
		po.Receptions = append(po.Receptions, reception)
	}
	if err := receptionRows.Err(); err != nil {
		_ = receptionRows.Close()
		return nil, err
	}
	_ = receptionRows.Close()

	return &po, nil
}

func lockTransferOrder(ctx context.Context, tx *sql.Tx, id string) (*domain.TransferOrder, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, from_location_id, to_location_id, status, items, created_at, completed_at
		FROM transfer_orders
		WHERE id = $1
		FOR UPDATE
	`, id)
	to, err := scanTransferOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return to, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransferOrder(row rowScanner) (*domain.TransferOrder, error) {
	var to domain.TransferOrder
	var itemsRaw []byte
	var completed sql.NullTime
	if err := row.Scan(&to.ID, &to.FromLocationID, &to.ToLocationID, &to.Status, &itemsRaw, &to.CreatedAt, &completed); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsRaw, &to.Items); err != nil {
		return nil, err
	}
	if completed.Valid {
		at := completed.Time
		to.CompletedAt = &at
	}
	return &to, nil
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	var itemsRaw []byte
	if err := row.Scan(&inv.ID, &inv.CustomerID, &itemsRaw, &inv.SubtotalCents, &inv.TaxCents, &inv.TotalCents, &inv.DepositCents, &inv.AmountDueCents, &inv.Status, &inv.PaymentMethod, &inv.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsRaw, &inv.Items); err != nil {
		return nil, err
	}
	return &inv, nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
