package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bengkelpos/internal/domain"
	"bengkelpos/internal/events"
	"bengkelpos/internal/metrics"
	"bengkelpos/internal/store"
)

// CreateTransfer debits the source location and records a pending
// transfer in one transaction. While pending, the moved quantities are
// counted by neither location.
func (s *Service) CreateTransfer(ctx context.Context, req domain.TransferCreateRequest) (domain.TransferOrder, error) {
	if req.FromLocationID == "" || req.ToLocationID == "" {
		return domain.TransferOrder{}, store.ErrInvalidInput
	}
	if req.FromLocationID == req.ToLocationID {
		return domain.TransferOrder{}, fmt.Errorf("%w: source and destination are the same location", store.ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return domain.TransferOrder{}, store.ErrInvalidInput
	}
	for _, item := range req.Items {
		if item.InventoryItemID == "" || item.Quantity < 1 {
			return domain.TransferOrder{}, store.ErrInvalidInput
		}
	}

	created, err := s.repo.CreateTransferOrder(ctx, domain.TransferOrder{
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		Items:          req.Items,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return domain.TransferOrder{}, err
	}

	metrics.TransfersTotal.WithLabelValues("created").Inc()
	s.invalidateReorderCache(ctx, created.FromLocationID)
	s.audit(ctx, created.FromLocationID, "transfer.create", "transfer_order", created.ID,
		fmt.Sprintf("%d items to %s", len(created.Items), created.ToLocationID))
	s.log.Info("transfer created",
		zap.String("transfer_id", created.ID),
		zap.String("from", created.FromLocationID),
		zap.String("to", created.ToLocationID))
	return *created, nil
}

// CompleteTransfer credits the destination and marks the transfer
// completed. Destination records are matched by SKU inside the store
// transaction; unmatched items get a new record carrying the source
// record's pricing.
func (s *Service) CompleteTransfer(ctx context.Context, id string) (domain.TransferOrder, error) {
	completed, err := s.repo.CompleteTransferOrder(ctx, id, time.Now())
	if err != nil {
		return domain.TransferOrder{}, err
	}

	metrics.TransfersTotal.WithLabelValues("completed").Inc()
	s.invalidateReorderCache(ctx, completed.ToLocationID)
	s.publish(ctx, events.TypeTransferCompleted, completed.ID, completed.ToLocationID, map[string]any{
		"from":  completed.FromLocationID,
		"to":    completed.ToLocationID,
		"items": len(completed.Items),
	})
	s.audit(ctx, completed.ToLocationID, "transfer.complete", "transfer_order", completed.ID,
		fmt.Sprintf("%d items from %s", len(completed.Items), completed.FromLocationID))
	return *completed, nil
}

// CancelTransfer reverses a pending transfer's source debit.
func (s *Service) CancelTransfer(ctx context.Context, id string) (domain.TransferOrder, error) {
	cancelled, err := s.repo.CancelTransferOrder(ctx, id, time.Now())
	if err != nil {
		return domain.TransferOrder{}, err
	}

	metrics.TransfersTotal.WithLabelValues("cancelled").Inc()
	s.invalidateReorderCache(ctx, cancelled.FromLocationID)
	s.publish(ctx, events.TypeTransferCancelled, cancelled.ID, cancelled.FromLocationID, map[string]any{
		"from": cancelled.FromLocationID,
		"to":   cancelled.ToLocationID,
	})
	s.audit(ctx, cancelled.FromLocationID, "transfer.cancel", "transfer_order", cancelled.ID, "")
	return *cancelled, nil
}

func (s *Service) GetTransfer(ctx context.Context, id string) (domain.TransferOrder, error) {
	to, err := s.repo.GetTransferOrder(ctx, id)
	if err != nil {
		return domain.TransferOrder{}, err
	}
	return *to, nil
}

func (s *Service) ListTransfers(ctx context.Context, status string, limit int) ([]domain.TransferOrder, error) {
	return s.repo.ListTransferOrders(ctx, status, limit)
}
