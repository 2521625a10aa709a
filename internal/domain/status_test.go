package domain

import "testing"

func TestRecomputePOStatus(t *testing.T) {
	cases := []struct {
		name  string
		items []PurchaseOrderItem
		want  string
	}{
		{
			name: "nothing received",
			items: []PurchaseOrderItem{
				{Quantity: 10, ReceivedQty: 0},
				{Quantity: 5, ReceivedQty: 0},
			},
			want: POStatusOrdered,
		},
		{
			name: "partial on one item",
			items: []PurchaseOrderItem{
				{Quantity: 10, ReceivedQty: 4},
				{Quantity: 5, ReceivedQty: 0},
			},
			want: POStatusPartiallyReceived,
		},
		{
			name: "mixed full and zero",
			items: []PurchaseOrderItem{
				{Quantity: 10, ReceivedQty: 10},
				{Quantity: 5, ReceivedQty: 0},
			},
			want: POStatusPartiallyReceived,
		},
		{
			name: "all full",
			items: []PurchaseOrderItem{
				{Quantity: 10, ReceivedQty: 10},
				{Quantity: 5, ReceivedQty: 5},
			},
			want: POStatusReceived,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RecomputePOStatus(tc.items)
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			// Recomputing from unchanged state must be idempotent.
			if again := RecomputePOStatus(tc.items); again != got {
				t.Fatalf("recompute not idempotent: %s then %s", got, again)
			}
		})
	}
}

func TestDeriveInvoiceStatus(t *testing.T) {
	cases := []struct {
		total   int64
		deposit int64
		want    string
	}{
		{10000, 0, InvoiceStatusPending},
		{10000, 4000, InvoiceStatusPartiallyPaid},
		{10000, 10000, InvoiceStatusPaid},
		{0, 0, InvoiceStatusPaid},
	}
	for _, tc := range cases {
		if got := DeriveInvoiceStatus(tc.total, tc.deposit); got != tc.want {
			t.Fatalf("total=%d deposit=%d: expected %s, got %s", tc.total, tc.deposit, tc.want, got)
		}
	}
}

func TestApplyInvoiceMathCumulativePayments(t *testing.T) {
	inv := Invoice{TotalCents: 10000}

	ApplyInvoiceMath(&inv, 4000)
	if inv.DepositCents != 4000 || inv.AmountDueCents != 6000 {
		t.Fatalf("after first payment: deposit=%d due=%d", inv.DepositCents, inv.AmountDueCents)
	}
	if inv.Status != InvoiceStatusPartiallyPaid {
		t.Fatalf("expected partially_paid, got %s", inv.Status)
	}

	ApplyInvoiceMath(&inv, 6000)
	if inv.DepositCents != 10000 || inv.AmountDueCents != 0 {
		t.Fatalf("after second payment: deposit=%d due=%d", inv.DepositCents, inv.AmountDueCents)
	}
	if inv.Status != InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", inv.Status)
	}

	// Overpayment clamps to total; amountDue stays total-deposit.
	ApplyInvoiceMath(&inv, 5000)
	if inv.DepositCents != 10000 || inv.AmountDueCents != 0 {
		t.Fatalf("after overpayment: deposit=%d due=%d", inv.DepositCents, inv.AmountDueCents)
	}
}

func TestTaxCentsRounding(t *testing.T) {
	if got := TaxCents(10000, 0.11); got != 1100 {
		t.Fatalf("expected 1100, got %d", got)
	}
	if got := TaxCents(999, 0.0825); got != 82 {
		t.Fatalf("expected 82, got %d", got)
	}
	if got := TaxCents(10000, 0); got != 0 {
		t.Fatalf("expected 0 tax for zero rate, got %d", got)
	}
}
