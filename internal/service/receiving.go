package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bengkelpos/internal/domain"
	"bengkelpos/internal/events"
	"bengkelpos/internal/metrics"
	"bengkelpos/internal/store"
)

func (s *Service) CreatePurchaseOrder(ctx context.Context, req domain.PurchaseOrderCreateRequest) (domain.PurchaseOrder, error) {
	if req.LocationID == "" {
		req.LocationID = s.defaultLocationID
	}
	req.Supplier = strings.TrimSpace(req.Supplier)
	if req.Supplier == "" || len(req.Items) == 0 {
		return domain.PurchaseOrder{}, store.ErrInvalidInput
	}

	var expectedDate *time.Time
	if req.ExpectedDate != "" {
		parsed, err := parseDate(req.ExpectedDate)
		if err != nil {
			return domain.PurchaseOrder{}, fmt.Errorf("%w: expected_date: %v", store.ErrInvalidInput, err)
		}
		expectedDate = &parsed
	}

	var totalCostCents int64
	items := make([]domain.PurchaseOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.InventoryItemID == "" || item.Quantity < 1 || item.CostCents < 0 {
			return domain.PurchaseOrder{}, store.ErrInvalidInput
		}
		rec, err := s.repo.GetInventoryRecord(ctx, item.InventoryItemID)
		if err != nil {
			return domain.PurchaseOrder{}, fmt.Errorf("%w: inventory record %s", store.ErrNotFound, item.InventoryItemID)
		}
		name := item.Name
		if name == "" {
			name = rec.Name
		}
		items = append(items, domain.PurchaseOrderItem{
			InventoryItemID: item.InventoryItemID,
			Name:            name,
			Quantity:        item.Quantity,
			CostCents:       item.CostCents,
		})
		totalCostCents += item.CostCents * int64(item.Quantity)
	}

	created, err := s.repo.CreatePurchaseOrder(ctx, domain.PurchaseOrder{
		LocationID:     req.LocationID,
		Supplier:       req.Supplier,
		OrderDate:      time.Now().UTC(),
		ExpectedDate:   expectedDate,
		Status:         domain.POStatusOrdered,
		Items:          items,
		TotalCostCents: totalCostCents,
	})
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	s.audit(ctx, created.LocationID, "purchase_order.create", "purchase_order", created.ID, created.Supplier)
	return *created, nil
}

func (s *Service) GetPurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	po, err := s.repo.GetPurchaseOrder(ctx, id)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	return *po, nil
}

func (s *Service) ListPurchaseOrders(ctx context.Context, locationID string, status string, limit int) ([]domain.PurchaseOrder, error) {
	return s.repo.ListPurchaseOrders(ctx, locationID, status, limit)
}

// Receive records one receiving event against a purchase order. Lines
// with zero or negative quantities are dropped; quantities beyond the
// remaining ordered amount are clamped. The credit, the received
// counters, the derived status and the appended reception all commit in
// one store transaction.
func (s *Service) Receive(ctx context.Context, poID string, req domain.ReceiveRequest) (domain.ReceiveResponse, error) {
	if poID == "" {
		return domain.ReceiveResponse{}, store.ErrInvalidInput
	}

	items := make([]domain.ReceptionItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.InventoryItemID == "" {
			return domain.ReceiveResponse{}, store.ErrInvalidInput
		}
		if line.QtyReceived <= 0 {
			continue
		}
		items = append(items, domain.ReceptionItem{
			InventoryItemID: line.InventoryItemID,
			Name:            line.Name,
			QtyReceived:     line.QtyReceived,
		})
	}
	if len(items) == 0 {
		return domain.ReceiveResponse{}, store.ErrNoItemsToReceive
	}

	po, reception, err := s.repo.ApplyReception(ctx, poID, domain.Reception{
		Date:  time.Now().UTC(),
		Notes: strings.TrimSpace(req.Notes),
		Items: items,
	})
	if err != nil {
		return domain.ReceiveResponse{}, err
	}

	metrics.ReceptionsTotal.Inc()
	s.invalidateReorderCache(ctx, po.LocationID)
	s.publish(ctx, events.TypeReceptionRecorded, po.ID, po.LocationID, map[string]any{
		"reception_id": reception.ID,
		"status":       po.Status,
		"lines":        len(reception.Items),
	})
	s.audit(ctx, po.LocationID, "purchase_order.receive", "purchase_order", po.ID,
		fmt.Sprintf("reception %s, %d lines, status %s", reception.ID, len(reception.Items), po.Status))
	s.log.Info("reception recorded",
		zap.String("po_id", po.ID),
		zap.String("reception_id", reception.ID),
		zap.String("status", po.Status))

	return domain.ReceiveResponse{
		Reception:     *reception,
		Status:        po.Status,
		PurchaseOrder: *po,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
