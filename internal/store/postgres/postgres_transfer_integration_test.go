package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"bengkelpos/internal/domain"
	"bengkelpos/internal/store"
)

func TestTransferLifecycleAgainstPostgres(t *testing.T) {
	databaseURL := os.Getenv("BENGKELPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set BENGKELPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	srcID := fmt.Sprintf("itm-tr-it-src-%d", stamp)
	sku := fmt.Sprintf("SKU-TR-IT-%d", stamp)
	fromLocation := fmt.Sprintf("loc-it-from-%d", stamp)
	toLocation := fmt.Sprintf("loc-it-to-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transfer_orders WHERE from_location_id = $1`, fromLocation)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM inventory_records WHERE location_id IN ($1, $2)`, fromLocation, toLocation)
	})

	if _, err := s.CreateInventoryRecord(ctx, domain.InventoryRecord{
		ID:         srcID,
		LocationID: fromLocation,
		SKU:        sku,
		Name:       "Veg-tan Hide IT",
		Category:   "material",
		Stock:      10,
		CostCents:  145000,
	}); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	created, err := s.CreateTransferOrder(ctx, domain.TransferOrder{
		FromLocationID: fromLocation,
		ToLocationID:   toLocation,
		Items:          []domain.TransferItem{{InventoryItemID: srcID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	if created.Status != domain.TransferStatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}

	src, err := s.GetInventoryRecord(ctx, srcID)
	if err != nil {
		t.Fatalf("get source: %v", err)
	}
	if src.Stock != 6 {
		t.Fatalf("expected source debited to 6, got %d", src.Stock)
	}

	completed, err := s.CompleteTransferOrder(ctx, created.ID, time.Now())
	if err != nil {
		t.Fatalf("complete transfer: %v", err)
	}
	if completed.Status != domain.TransferStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("unexpected completed transfer: %+v", completed)
	}

	destRecords, err := s.ListInventoryRecords(ctx, toLocation)
	if err != nil {
		t.Fatalf("list destination: %v", err)
	}
	if len(destRecords) != 1 {
		t.Fatalf("expected one destination record, got %d", len(destRecords))
	}
	if destRecords[0].SKU != sku || destRecords[0].Stock != 4 || destRecords[0].CostCents != 145000 {
		t.Fatalf("unexpected destination record: %+v", destRecords[0])
	}

	if _, err := s.CompleteTransferOrder(ctx, created.ID, time.Now()); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double complete, got %v", err)
	}

	// Oversized transfers fail whole with no debit.
	if _, err := s.CreateTransferOrder(ctx, domain.TransferOrder{
		FromLocationID: fromLocation,
		ToLocationID:   toLocation,
		Items:          []domain.TransferItem{{InventoryItemID: srcID, Quantity: 99}},
	}); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	src, _ = s.GetInventoryRecord(ctx, srcID)
	if src.Stock != 6 {
		t.Fatalf("failed transfer must not debit, got %d", src.Stock)
	}
}

func TestReceptionAgainstPostgres(t *testing.T) {
	databaseURL := os.Getenv("BENGKELPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set BENGKELPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	itemID := fmt.Sprintf("itm-po-it-%d", stamp)
	location := fmt.Sprintf("loc-po-it-%d", stamp)

	var poID string
	t.Cleanup(func() {
		if poID != "" {
			_, _ = s.db.ExecContext(ctx, `DELETE FROM receptions WHERE po_id = $1`, poID)
			_, _ = s.db.ExecContext(ctx, `DELETE FROM purchase_order_items WHERE po_id = $1`, poID)
			_, _ = s.db.ExecContext(ctx, `DELETE FROM purchase_orders WHERE id = $1`, poID)
		}
		_, _ = s.db.ExecContext(ctx, `DELETE FROM inventory_records WHERE id = $1`, itemID)
	})

	if _, err := s.CreateInventoryRecord(ctx, domain.InventoryRecord{
		ID:         itemID,
		LocationID: location,
		Name:       "Brass Buckle IT",
		Stock:      0,
		CostCents:  7800,
	}); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	po, err := s.CreatePurchaseOrder(ctx, domain.PurchaseOrder{
		LocationID: location,
		Supplier:   "Logam Jaya IT",
		Items: []domain.PurchaseOrderItem{
			{InventoryItemID: itemID, Name: "Brass Buckle IT", Quantity: 10, CostCents: 7800},
		},
	})
	if err != nil {
		t.Fatalf("create purchase order: %v", err)
	}
	poID = po.ID

	updated, _, err := s.ApplyReception(ctx, po.ID, domain.Reception{
		Items: []domain.ReceptionItem{{InventoryItemID: itemID, QtyReceived: 4}},
	})
	if err != nil {
		t.Fatalf("first reception: %v", err)
	}
	if updated.Status != domain.POStatusPartiallyReceived {
		t.Fatalf("expected partially_received, got %s", updated.Status)
	}

	// 12 exceeds the remaining 6; the credit is clamped.
	updated, reception, err := s.ApplyReception(ctx, po.ID, domain.Reception{
		Items: []domain.ReceptionItem{{InventoryItemID: itemID, QtyReceived: 12}},
	})
	if err != nil {
		t.Fatalf("second reception: %v", err)
	}
	if updated.Status != domain.POStatusReceived {
		t.Fatalf("expected received, got %s", updated.Status)
	}
	if reception.Items[0].QtyReceived != 6 {
		t.Fatalf("expected clamped credit of 6, got %d", reception.Items[0].QtyReceived)
	}
	if len(updated.Receptions) != 2 {
		t.Fatalf("expected 2 receptions, got %d", len(updated.Receptions))
	}

	rec, err := s.GetInventoryRecord(ctx, itemID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Stock != 10 {
		t.Fatalf("expected stock 10, got %d", rec.Stock)
	}
}
