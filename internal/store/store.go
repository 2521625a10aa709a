package store

import (
	"context"
	"errors"
	"time"

	"bengkelpos/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrEmptyCart           = errors.New("empty cart")
	ErrNoItemsToReceive    = errors.New("no items to receive")
	ErrTransactionConflict = errors.New("transaction conflict")
	ErrInvalidInput        = errors.New("invalid input")
)

// StockDebit is one quantity to subtract from an inventory record as
// part of a single atomic unit.
type StockDebit struct {
	InventoryItemID string
	Quantity        int
}

// Repository is the persistence boundary shared by the three engines.
// Each method is a single atomic unit in both backends: the whole
// read-check-write body commits or none of it does, and concurrent
// writers surface as ErrTransactionConflict only after the backend's
// bounded retries.
type Repository interface {
	CreateInventoryRecord(ctx context.Context, rec domain.InventoryRecord) (*domain.InventoryRecord, error)
	GetInventoryRecord(ctx context.Context, id string) (*domain.InventoryRecord, error)
	ListInventoryRecords(ctx context.Context, locationID string) ([]domain.InventoryRecord, error)

	CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, locationID string, status string, limit int) ([]domain.PurchaseOrder, error)
	// ApplyReception credits inventory, advances item received totals
	// (clamped to the ordered quantity), recomputes PO status and
	// appends the reception, all in one transaction. The reception's
	// item quantities reflect what was actually credited after
	// clamping.
	ApplyReception(ctx context.Context, poID string, reception domain.Reception) (*domain.PurchaseOrder, *domain.Reception, error)

	// CreateTransferOrder checks and debits source stock and writes the
	// pending transfer in one transaction; any shortfall fails the
	// whole call with ErrInsufficientStock and no writes.
	CreateTransferOrder(ctx context.Context, to domain.TransferOrder) (*domain.TransferOrder, error)
	// CompleteTransferOrder resolves destination records by SKU inside
	// the transaction (credit if found, create otherwise) and marks the
	// transfer completed.
	CompleteTransferOrder(ctx context.Context, id string, at time.Time) (*domain.TransferOrder, error)
	// CancelTransferOrder credits the source back; reversal is
	// best-effort when a source record has since been deleted.
	CancelTransferOrder(ctx context.Context, id string, at time.Time) (*domain.TransferOrder, error)
	GetTransferOrder(ctx context.Context, id string) (*domain.TransferOrder, error)
	ListTransferOrders(ctx context.Context, status string, limit int) ([]domain.TransferOrder, error)

	// DebitStock applies all debits or none and returns the summed
	// costCents of the debited quantities. A shortfall yields
	// ErrInsufficientStock wrapped with the offending item's name.
	DebitStock(ctx context.Context, locationID string, debits []StockDebit) (int64, error)
	CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	// SetOrderInvoice patches the order's invoice back-link. It is
	// idempotent so the checkout saga's final step can be retried.
	SetOrderInvoice(ctx context.Context, orderID string, invoiceID string) error
	CreateInvoice(ctx context.Context, inv domain.Invoice) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, limit int) ([]domain.Invoice, error)
	// ApplyInvoicePayment adds to the cumulative deposit and recomputes
	// amountDue and status in one transaction. Inventory is never
	// touched.
	ApplyInvoicePayment(ctx context.Context, invoiceID string, amountCents int64, paymentMethod string) (*domain.Invoice, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, locationID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
