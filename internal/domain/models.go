package domain

import "time"

// InventoryRecord is the per-location stock row shared by the receiving,
// transfer and checkout flows. Stock never goes negative; every debit is
// checked inside the same store transaction that applies it.
type InventoryRecord struct {
	ID           string `json:"id"`
	LocationID   string `json:"location_id"`
	SKU          string `json:"sku,omitempty"`
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	Stock        int    `json:"stock"`
	CostCents    int64  `json:"cost_cents"`
	PriceCents   int64  `json:"price_cents"`
	ReorderLevel int    `json:"reorder_level"`
}

type InventoryCreateRequest struct {
	LocationID   string `json:"location_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Stock        int    `json:"stock"`
	CostCents    int64  `json:"cost_cents"`
	PriceCents   int64  `json:"price_cents"`
	ReorderLevel int    `json:"reorder_level"`
}

type PurchaseOrderItem struct {
	InventoryItemID string `json:"inventory_item_id"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	CostCents       int64  `json:"cost_cents"`
	ReceivedQty     int    `json:"received_qty"`
}

type ReceptionItem struct {
	InventoryItemID string `json:"inventory_item_id"`
	Name            string `json:"name"`
	QtyReceived     int    `json:"qty_received"`
}

// Reception is one immutable receiving event appended to a purchase
// order. Past entries are never updated or deleted; item received
// totals are derived from them incrementally.
type Reception struct {
	ID    string          `json:"id"`
	Date  time.Time       `json:"date"`
	Notes string          `json:"notes,omitempty"`
	Items []ReceptionItem `json:"items"`
}

type PurchaseOrder struct {
	ID             string              `json:"id"`
	LocationID     string              `json:"location_id"`
	Supplier       string              `json:"supplier"`
	OrderDate      time.Time           `json:"order_date"`
	ExpectedDate   *time.Time          `json:"expected_date,omitempty"`
	Status         string              `json:"status"`
	Items          []PurchaseOrderItem `json:"items"`
	Receptions     []Reception         `json:"receptions"`
	TotalCostCents int64               `json:"total_cost_cents"`
}

type PurchaseOrderCreateRequest struct {
	LocationID   string              `json:"location_id"`
	Supplier     string              `json:"supplier"`
	ExpectedDate string              `json:"expected_date,omitempty"`
	Items        []PurchaseOrderItem `json:"items"`
}

type ReceiveLine struct {
	InventoryItemID string `json:"inventory_item_id"`
	Name            string `json:"name"`
	QtyReceived     int    `json:"qty_received"`
}

type ReceiveRequest struct {
	Lines []ReceiveLine `json:"lines"`
	Notes string        `json:"notes"`
}

type ReceiveResponse struct {
	Reception     Reception     `json:"reception"`
	Status        string        `json:"status"`
	PurchaseOrder PurchaseOrder `json:"purchase_order"`
}

type TransferItem struct {
	InventoryItemID string `json:"inventory_item_id"`
	SKU             string `json:"sku,omitempty"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
}

// TransferOrder moves quantities between two locations. While Pending
// the quantities are already debited from the source and counted by
// neither location; Completed and Cancelled are terminal.
type TransferOrder struct {
	ID             string         `json:"id"`
	FromLocationID string         `json:"from_location_id"`
	ToLocationID   string         `json:"to_location_id"`
	Items          []TransferItem `json:"items"`
	Status         string         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

type TransferCreateRequest struct {
	FromLocationID string         `json:"from_location_id"`
	ToLocationID   string         `json:"to_location_id"`
	Items          []TransferItem `json:"items"`
}

type MaterialUse struct {
	InventoryItemID string `json:"inventory_item_id"`
	Quantity        int    `json:"quantity"`
}

// CartLine is one checkout input line. Sale lines reference a stocked
// product; repair and custom lines carry their own price and optionally
// consume materials from stock.
type CartLine struct {
	Kind            string        `json:"kind"`
	InventoryItemID string        `json:"inventory_item_id,omitempty"`
	Description     string        `json:"description"`
	PriceCents      int64         `json:"price_cents"`
	Quantity        int           `json:"quantity"`
	Materials       []MaterialUse `json:"materials,omitempty"`
}

type CheckoutRequest struct {
	LocationID      string     `json:"location_id"`
	CustomerID      string     `json:"customer_id"`
	PaymentMethod   string     `json:"payment_method,omitempty"`
	AmountPaidCents int64      `json:"amount_paid_cents"`
	TaxRate         float64    `json:"tax_rate"`
	Lines           []CartLine `json:"lines"`
	// InvoiceID switches the call into payment mode: no cart, no
	// inventory, only deposit/status updates on the existing invoice.
	InvoiceID string `json:"invoice_id,omitempty"`
}

type OrderItem struct {
	InventoryItemID string `json:"inventory_item_id,omitempty"`
	Description     string `json:"description"`
	PriceCents      int64  `json:"price_cents"`
	Quantity        int    `json:"quantity"`
}

type Order struct {
	ID                string      `json:"id"`
	Type              string      `json:"type"`
	Status            string      `json:"status"`
	CustomerID        string      `json:"customer_id,omitempty"`
	AmountCents       int64       `json:"amount_cents"`
	MaterialCostCents int64       `json:"material_cost_cents"`
	Items             []OrderItem `json:"items"`
	InvoiceID         string      `json:"invoice_id,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}

type InvoiceItem struct {
	OrderID     string `json:"order_id,omitempty"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
}

type Invoice struct {
	ID             string        `json:"id"`
	CustomerID     string        `json:"customer_id,omitempty"`
	Items          []InvoiceItem `json:"items"`
	SubtotalCents  int64         `json:"subtotal_cents"`
	TaxCents       int64         `json:"tax_cents"`
	TotalCents     int64         `json:"total_cents"`
	DepositCents   int64         `json:"deposit_cents"`
	AmountDueCents int64         `json:"amount_due_cents"`
	Status         string        `json:"status"`
	PaymentMethod  string        `json:"payment_method,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

type CheckoutResponse struct {
	Invoice Invoice `json:"invoice"`
	Orders  []Order `json:"orders"`
}

type InvoicePaymentRequest struct {
	AmountCents   int64  `json:"amount_cents"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

type ReorderSuggestion struct {
	InventoryItemID string `json:"inventory_item_id"`
	SKU             string `json:"sku,omitempty"`
	Name            string `json:"name"`
	Stock           int    `json:"stock"`
	ReorderLevel    int    `json:"reorder_level"`
	SuggestedQty    int    `json:"suggested_qty"`
	EstimatedCents  int64  `json:"estimated_cents"`
}

type ReorderSuggestionResponse struct {
	LocationID  string              `json:"location_id"`
	GeneratedAt string              `json:"generated_at"`
	Suggestions []ReorderSuggestion `json:"suggestions"`
}

type ReconcileResponse struct {
	Checked  int `json:"checked"`
	Relinked int `json:"relinked"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	LocationID    string    `json:"location_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
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
