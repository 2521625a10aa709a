package domain

import "github.com/shopspring/decimal"

const (
	POStatusDraft             = "draft"
	POStatusOrdered           = "ordered"
	POStatusPartiallyReceived = "partially_received"
	POStatusReceived          = "received"
	POStatusCancelled         = "cancelled"
)

const (
	TransferStatusPending   = "pending"
	TransferStatusCompleted = "completed"
	TransferStatusCancelled = "cancelled"
)

const (
	OrderTypeOrder   = "order"
	OrderTypeRepair  = "repair"
	OrderTypeShipped = "shipped"
)

const (
	OrderStatusOpen      = "open"
	OrderStatusCompleted = "completed"
)

const (
	InvoiceStatusPending       = "pending"
	InvoiceStatusPartiallyPaid = "partially_paid"
	InvoiceStatusPaid          = "paid"
)

const (
	CartLineSale   = "sale"
	CartLineRepair = "repair"
	CartLineCustom = "custom"
)

// CanReceive reports whether a purchase order in the given status may
// accept further receptions.
func CanReceive(status string) bool {
	return status == POStatusOrdered || status == POStatusPartiallyReceived
}

// RecomputePOStatus derives a purchase order status from its items. It
// is a pure function of the items' received/ordered quantities: calling
// it twice on the same state yields the same result, and callers never
// set the status directly.
func RecomputePOStatus(items []PurchaseOrderItem) string {
	if len(items) == 0 {
		return POStatusOrdered
	}
	allFull := true
	anyReceived := false
	for _, item := range items {
		if item.ReceivedQty > 0 {
			anyReceived = true
		}
		if item.ReceivedQty < item.Quantity {
			allFull = false
		}
	}
	switch {
	case allFull:
		return POStatusReceived
	case anyReceived:
		return POStatusPartiallyReceived
	default:
		return POStatusOrdered
	}
}

// TaxCents computes tax on a subtotal at the given fractional rate
// (e.g. 0.11 for 11%), rounded half-up to whole cents. Decimal math
// keeps repeated invoice arithmetic exact.
func TaxCents(subtotalCents int64, taxRate float64) int64 {
	if subtotalCents <= 0 || taxRate <= 0 {
		return 0
	}
	tax := decimal.NewFromInt(subtotalCents).Mul(decimal.NewFromFloat(taxRate))
	return tax.Round(0).IntPart()
}

// DeriveInvoiceStatus maps (total, deposit) to an invoice status.
// amountDue is always total minus deposit, never stored independently.
func DeriveInvoiceStatus(totalCents, depositCents int64) string {
	switch {
	case totalCents-depositCents <= 0:
		return InvoiceStatusPaid
	case depositCents > 0:
		return InvoiceStatusPartiallyPaid
	default:
		return InvoiceStatusPending
	}
}

// ApplyInvoiceMath recomputes deposit, amountDue and status on an
// invoice after a payment of amountCents. The deposit is cumulative and
// clamped to the total; overpayment is not tracked.
func ApplyInvoiceMath(inv *Invoice, amountCents int64) {
	inv.DepositCents += amountCents
	if inv.DepositCents > inv.TotalCents {
		inv.DepositCents = inv.TotalCents
	}
	if inv.DepositCents < 0 {
		inv.DepositCents = 0
	}
	inv.AmountDueCents = inv.TotalCents - inv.DepositCents
	inv.Status = DeriveInvoiceStatus(inv.TotalCents, inv.DepositCents)
}
