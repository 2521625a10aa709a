package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bengkelpos/internal/domain"
	"bengkelpos/internal/store"
	"bengkelpos/internal/xid"
)

// Store is the in-memory Repository used by tests and dev mode. The
// mutex serializes every method, so each call is trivially one atomic
// unit; the postgres backend provides the same per-method atomicity
// with serializable transactions.
type Store struct {
	mu             sync.RWMutex
	inventory      map[string]domain.InventoryRecord
	purchaseOrders map[string]domain.PurchaseOrder
	transfers      map[string]domain.TransferOrder
	orders         map[string]domain.Order
	invoices       map[string]domain.Invoice
	invoiceOrder   []string
	auditLogs      []domain.AuditLog
	users          map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		inventory:      make(map[string]domain.InventoryRecord),
		purchaseOrders: make(map[string]domain.PurchaseOrder),
		transfers:      make(map[string]domain.TransferOrder),
		orders:         make(map[string]domain.Order),
		invoices:       make(map[string]domain.Invoice),
		auditLogs:      make([]domain.AuditLog, 0, 128),
		users:          make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the initial in-memory user accounts for dev/demo
// mode. Credentials come from SEED_ADMIN_PASSWORD and
// SEED_CASHIER_PASSWORD; hardcoded dev defaults are used otherwise with
// a warning. Production deployments use PostgreSQL-backed users.
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

func NewSeeded() *Store {
	s := New()
	s.users = seedUsers()

	records := []domain.InventoryRecord{
		{ID: "itm-wallet-sf", LocationID: "storefront", SKU: "WALLET-BF-01", Name: "Bifold Wallet", Category: "goods", Stock: 12, CostCents: 41000, PriceCents: 95000, ReorderLevel: 4},
		{ID: "itm-belt-sf", LocationID: "storefront", SKU: "BELT-CL-01", Name: "Classic Belt", Category: "goods", Stock: 9, CostCents: 36000, PriceCents: 82000, ReorderLevel: 3},
		{ID: "itm-card-sf", LocationID: "storefront", SKU: "CARD-SL-01", Name: "Card Sleeve", Category: "goods", Stock: 20, CostCents: 12000, PriceCents: 32000, ReorderLevel: 6},
		{ID: "itm-hide-ws", LocationID: "workshop", SKU: "HIDE-VT-01", Name: "Veg-tan Hide", Category: "material", Stock: 6, CostCents: 145000, PriceCents: 0, ReorderLevel: 2},
		{ID: "itm-thread-ws", LocationID: "workshop", SKU: "THREAD-WX-01", Name: "Waxed Thread Spool", Category: "material", Stock: 30, CostCents: 5500, PriceCents: 0, ReorderLevel: 10},
		{ID: "itm-buckle-ws", LocationID: "workshop", SKU: "BUCKLE-BR-01", Name: "Brass Buckle", Category: "material", Stock: 14, CostCents: 7800, PriceCents: 0, ReorderLevel: 5},
		{ID: "itm-zip-ws", LocationID: "workshop", SKU: "ZIP-20-01", Name: "Zipper 20cm", Category: "material", Stock: 25, CostCents: 2400, PriceCents: 0, ReorderLevel: 8},
		{ID: "itm-snap-ws", LocationID: "workshop", SKU: "SNAP-NI-01", Name: "Nickel Snap", Category: "material", Stock: 40, CostCents: 900, PriceCents: 0, ReorderLevel: 12},
	}
	for _, rec := range records {
		s.inventory[rec.ID] = rec
	}
	return s
}

func (s *Store) CreateInventoryRecord(_ context.Context, rec domain.InventoryRecord) (*domain.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.LocationID == "" || rec.Name == "" || rec.Stock < 0 {
		return nil, store.ErrInvalidInput
	}
	if rec.ID == "" {
		rec.ID = xid.New("itm")
	}
	if _, exists := s.inventory[rec.ID]; exists {
		return nil, store.ErrInvalidInput
	}

	s.inventory[rec.ID] = rec
	created := rec
	return &created, nil
}

func (s *Store) GetInventoryRecord(_ context.Context, id string) (*domain.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.inventory[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyRec := rec
	return &copyRec, nil
}

func (s *Store) ListInventoryRecords(_ context.Context, locationID string) ([]domain.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.InventoryRecord, 0, len(s.inventory))
	for _, rec := range s.inventory {
		if locationID != "" && rec.LocationID != locationID {
			continue
		}
		records = append(records, rec)
	}

	slices.SortFunc(records, func(a, b domain.InventoryRecord) int {
		if a.LocationID == b.LocationID {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.LocationID, b.LocationID)
	})

	return records, nil
}

func (s *Store) CreatePurchaseOrder(_ context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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

	s.purchaseOrders[po.ID] = clonePO(po)
	created := clonePO(po)
	return &created, nil
}

func (s *Store) GetPurchaseOrder(_ context.Context, id string) (*domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	po, exists := s.purchaseOrders[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyPO := clonePO(po)
	return &copyPO, nil
}

func (s *Store) ListPurchaseOrders(_ context.Context, locationID string, status string, limit int) ([]domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.PurchaseOrder, 0, len(s.purchaseOrders))
	for _, po := range s.purchaseOrders {
		if locationID != "" && po.LocationID != locationID {
			continue
		}
		if status != "" && po.Status != status {
			continue
		}
		result = append(result, clonePO(po))
	}
	slices.SortFunc(result, func(a, b domain.PurchaseOrder) int {
		if a.OrderDate.Equal(b.OrderDate) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.OrderDate.After(b.OrderDate) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ApplyReception(_ context.Context, poID string, reception domain.Reception) (*domain.PurchaseOrder, *domain.Reception, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	po, exists := s.purchaseOrders[poID]
	if !exists {
		return nil, nil, store.ErrNotFound
	}
	if !domain.CanReceive(po.Status) {
		return nil, nil, fmt.Errorf("%w: purchase order is %s", store.ErrInvalidState, po.Status)
	}

	updated := clonePO(po)
	itemIndex := make(map[string]int, len(updated.Items))
	for i, item := range updated.Items {
		itemIndex[item.InventoryItemID] = i
	}

	// First pass: validate and clamp without mutating anything, so a
	// failure leaves no writes behind.
	type plannedCredit struct {
		recordID string
		name     string
		qty      int
	}
	credits := make([]plannedCredit, 0, len(reception.Items))
	applied := make([]domain.ReceptionItem, 0, len(reception.Items))
	for _, line := range reception.Items {
		if line.QtyReceived <= 0 {
			continue
		}
		idx, ok := itemIndex[line.InventoryItemID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: item %s is not on this purchase order", store.ErrInvalidInput, line.InventoryItemID)
		}
		item := updated.Items[idx]
		remaining := item.Quantity - item.ReceivedQty
		qty := line.QtyReceived
		if qty > remaining {
			qty = remaining
		}
		if qty <= 0 {
			continue
		}
		rec, ok := s.inventory[line.InventoryItemID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: inventory record %s", store.ErrNotFound, item.Name)
		}
		updated.Items[idx].ReceivedQty += qty
		credits = append(credits, plannedCredit{recordID: rec.ID, name: item.Name, qty: qty})
		applied = append(applied, domain.ReceptionItem{
			InventoryItemID: line.InventoryItemID,
			Name:            item.Name,
			QtyReceived:     qty,
		})
	}

	if len(applied) == 0 {
		return nil, nil, store.ErrNoItemsToReceive
	}

	for _, credit := range credits {
		rec := s.inventory[credit.recordID]
		rec.Stock += credit.qty
		s.inventory[credit.recordID] = rec
	}

	if reception.ID == "" {
		reception.ID = xid.New("rcpt")
	}
	if reception.Date.IsZero() {
		reception.Date = time.Now().UTC()
	}
	reception.Items = applied

	updated.Status = domain.RecomputePOStatus(updated.Items)
	updated.Receptions = append(updated.Receptions, reception)
	s.purchaseOrders[poID] = clonePO(updated)

	resultPO := clonePO(updated)
	resultReception := reception
	return &resultPO, &resultReception, nil
}

func (s *Store) CreateTransferOrder(_ context.Context, to domain.TransferOrder) (*domain.TransferOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if to.FromLocationID == "" || to.ToLocationID == "" || len(to.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	// Check every item before debiting any, so an insufficient line
	// leaves stock untouched.
	for _, item := range to.Items {
		if item.Quantity < 1 {
			return nil, store.ErrInvalidInput
		}
		rec, exists := s.inventory[item.InventoryItemID]
		if !exists || rec.LocationID != to.FromLocationID {
			return nil, fmt.Errorf("%w: %s at %s", store.ErrNotFound, item.Name, to.FromLocationID)
		}
		if rec.Stock < item.Quantity {
			return nil, fmt.Errorf("%w: %s", store.ErrInsufficientStock, rec.Name)
		}
	}

	for i, item := range to.Items {
		rec := s.inventory[item.InventoryItemID]
		rec.Stock -= item.Quantity
		s.inventory[item.InventoryItemID] = rec
		if to.Items[i].SKU == "" {
			to.Items[i].SKU = rec.SKU
		}
		if to.Items[i].Name == "" {
			to.Items[i].Name = rec.Name
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

	s.transfers[to.ID] = cloneTransfer(to)
	created := cloneTransfer(to)
	return &created, nil
}

func (s *Store) CompleteTransferOrder(_ context.Context, id string, at time.Time) (*domain.TransferOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	to, exists := s.transfers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if to.Status != domain.TransferStatusPending {
		return nil, fmt.Errorf("%w: transfer is %s", store.ErrInvalidState, to.Status)
	}

	for _, item := range to.Items {
		dest := s.findAtLocation(to.ToLocationID, item.SKU, item.Name)
		if dest != nil {
			rec := s.inventory[dest.ID]
			rec.Stock += item.Quantity
			s.inventory[dest.ID] = rec
			continue
		}

		newRec := domain.InventoryRecord{
			ID:         xid.New("itm"),
			LocationID: to.ToLocationID,
			SKU:        item.SKU,
			Name:       item.Name,
			Stock:      item.Quantity,
		}
		// Copy descriptive fields from the source record when it still
		// exists.
		if src, ok := s.inventory[item.InventoryItemID]; ok {
			newRec.Category = src.Category
			newRec.CostCents = src.CostCents
			newRec.PriceCents = src.PriceCents
			newRec.ReorderLevel = src.ReorderLevel
		}
		s.inventory[newRec.ID] = newRec
	}

	completedAt := at.UTC()
	to.Status = domain.TransferStatusCompleted
	to.CompletedAt = &completedAt
	s.transfers[id] = cloneTransfer(to)

	result := cloneTransfer(to)
	return &result, nil
}

func (s *Store) CancelTransferOrder(_ context.Context, id string, at time.Time) (*domain.TransferOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	to, exists := s.transfers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if to.Status != domain.TransferStatusPending {
		return nil, fmt.Errorf("%w: transfer is %s", store.ErrInvalidState, to.Status)
	}

	// Reversal is best-effort: a source record deleted while the
	// transfer was pending simply loses the quantity.
	for _, item := range to.Items {
		rec, exists := s.inventory[item.InventoryItemID]
		if !exists || rec.LocationID != to.FromLocationID {
			continue
		}
		rec.Stock += item.Quantity
		s.inventory[item.InventoryItemID] = rec
	}

	cancelledAt := at.UTC()
	to.Status = domain.TransferStatusCancelled
	to.CompletedAt = &cancelledAt
	s.transfers[id] = cloneTransfer(to)

	result := cloneTransfer(to)
	return &result, nil
}

func (s *Store) GetTransferOrder(_ context.Context, id string) (*domain.TransferOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	to, exists := s.transfers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyTO := cloneTransfer(to)
	return &copyTO, nil
}

func (s *Store) ListTransferOrders(_ context.Context, status string, limit int) ([]domain.TransferOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.TransferOrder, 0, len(s.transfers))
	for _, to := range s.transfers {
		if status != "" && to.Status != status {
			continue
		}
		result = append(result, cloneTransfer(to))
	}
	slices.SortFunc(result, func(a, b domain.TransferOrder) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) DebitStock(_ context.Context, locationID string, debits []store.StockDebit) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(debits) == 0 {
		return 0, nil
	}

	needed := make(map[string]int, len(debits))
	for _, debit := range debits {
		if debit.Quantity < 1 {
			return 0, store.ErrInvalidInput
		}
		needed[debit.InventoryItemID] += debit.Quantity
	}

	var costCents int64
	for recordID, qty := range needed {
		rec, exists := s.inventory[recordID]
		if !exists || (locationID != "" && rec.LocationID != locationID) {
			return 0, fmt.Errorf("%w: inventory record %s", store.ErrNotFound, recordID)
		}
		if rec.Stock < qty {
			return 0, fmt.Errorf("%w: %s", store.ErrInsufficientStock, rec.Name)
		}
		costCents += rec.CostCents * int64(qty)
	}

	for recordID, qty := range needed {
		rec := s.inventory[recordID]
		rec.Stock -= qty
		s.inventory[recordID] = rec
	}

	return costCents, nil
}

func (s *Store) CreateOrder(_ context.Context, o domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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

	s.orders[o.ID] = cloneOrder(o)
	created := cloneOrder(o)
	return &created, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.orders[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyOrder := cloneOrder(o)
	return &copyOrder, nil
}

func (s *Store) SetOrderInvoice(_ context.Context, orderID string, invoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.orders[orderID]
	if !exists {
		return store.ErrNotFound
	}
	if o.InvoiceID == invoiceID {
		return nil
	}
	o.InvoiceID = invoiceID
	s.orders[orderID] = o
	return nil
}

func (s *Store) CreateInvoice(_ context.Context, inv domain.Invoice) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(inv.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	if inv.ID == "" {
		inv.ID = xid.New("inv")
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	s.invoices[inv.ID] = cloneInvoice(inv)
	s.invoiceOrder = append(s.invoiceOrder, inv.ID)
	created := cloneInvoice(inv)
	return &created, nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, exists := s.invoices[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyInv := cloneInvoice(inv)
	return &copyInv, nil
}

func (s *Store) ListInvoices(_ context.Context, limit int) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 || limit > len(s.invoiceOrder) {
		limit = len(s.invoiceOrder)
	}
	result := make([]domain.Invoice, 0, limit)
	// Most recent first.
	for i := len(s.invoiceOrder) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, cloneInvoice(s.invoices[s.invoiceOrder[i]]))
	}
	return result, nil
}

func (s *Store) ApplyInvoicePayment(_ context.Context, invoiceID string, amountCents int64, paymentMethod string) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amountCents <= 0 {
		return nil, store.ErrInvalidInput
	}
	inv, exists := s.invoices[invoiceID]
	if !exists {
		return nil, store.ErrNotFound
	}

	updated := cloneInvoice(inv)
	domain.ApplyInvoiceMath(&updated, amountCents)
	if paymentMethod != "" {
		updated.PaymentMethod = paymentMethod
	}
	s.invoices[invoiceID] = cloneInvoice(updated)

	result := cloneInvoice(updated)
	return &result, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, locationID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(result) < limit; i-- {
		entry := s.auditLogs[i]
		if locationID != "" && entry.LocationID != locationID {
			continue
		}
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && entry.CreatedAt.After(to) {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.users[user.Username]; exists {
		return store.ErrInvalidInput
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	return nil
}

// findAtLocation resolves a destination record by SKU, falling back to
// name matching for records without one. Caller holds the lock.
func (s *Store) findAtLocation(locationID string, sku string, name string) *domain.InventoryRecord {
	for _, rec := range s.inventory {
		if rec.LocationID != locationID {
			continue
		}
		if sku != "" && rec.SKU == sku {
			copyRec := rec
			return &copyRec
		}
		if sku == "" && rec.SKU == "" && rec.Name == name {
			copyRec := rec
			return &copyRec
		}
	}
	return nil
}

func clonePO(po domain.PurchaseOrder) domain.PurchaseOrder {
	copyPO := po
	copyPO.Items = slices.Clone(po.Items)
	copyPO.Receptions = make([]domain.Reception, len(po.Receptions))
	for i, r := range po.Receptions {
		copyPO.Receptions[i] = r
		copyPO.Receptions[i].Items = slices.Clone(r.Items)
	}
	return copyPO
}

func cloneTransfer(to domain.TransferOrder) domain.TransferOrder {
	copyTO := to
	copyTO.Items = slices.Clone(to.Items)
	if to.CompletedAt != nil {
		at := *to.CompletedAt
		copyTO.CompletedAt = &at
	}
	return copyTO
}

func cloneOrder(o domain.Order) domain.Order {
	copyOrder := o
	copyOrder.Items = slices.Clone(o.Items)
	return copyOrder
}

func cloneInvoice(inv domain.Invoice) domain.Invoice {
	copyInv := inv
	copyInv.Items = slices.Clone(inv.Items)
	return copyInv
}
