package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bengkelpos/internal/cache"
	"bengkelpos/internal/domain"
	"bengkelpos/internal/events"
	"bengkelpos/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const reorderCacheTTL = 5 * time.Minute

type Service struct {
	repo              store.Repository
	reorderCache      cache.ReorderCache
	events            events.Publisher
	log               *zap.Logger
	defaultLocationID string
}

func New(repo store.Repository, reorderCache cache.ReorderCache, publisher events.Publisher, log *zap.Logger, defaultLocationID string) *Service {
	if reorderCache == nil {
		reorderCache = cache.NoopReorderCache{}
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if defaultLocationID == "" {
		defaultLocationID = "storefront"
	}

	return &Service{
		repo:              repo,
		reorderCache:      reorderCache,
		events:            publisher,
		log:               log,
		defaultLocationID: defaultLocationID,
	}
}

// audit records who did what. Failures are logged and swallowed: an
// audit write must never fail the business operation it describes.
func (s *Service) audit(ctx context.Context, locationID, action, entityType, entityID, detail string) {
	entry := domain.AuditLog{
		LocationID: locationID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	}
	if actor, ok := ActorFromContext(ctx); ok {
		entry.ActorUsername = actor.Username
		entry.ActorRole = actor.Role
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.log.Warn("audit write failed",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType, entityID, locationID string, payload map[string]any) {
	s.events.Publish(ctx, events.Event{
		Type:       eventType,
		EntityID:   entityID,
		LocationID: locationID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
}

func (s *Service) CreateInventoryRecord(ctx context.Context, req domain.InventoryCreateRequest) (domain.InventoryRecord, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.InventoryRecord{}, fmt.Errorf("admin role required")
	}

	if req.LocationID == "" {
		req.LocationID = s.defaultLocationID
	}
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	if req.Name == "" || req.Stock < 0 || req.CostCents < 0 || req.PriceCents < 0 || req.ReorderLevel < 0 {
		return domain.InventoryRecord{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateInventoryRecord(ctx, domain.InventoryRecord{
		LocationID:   req.LocationID,
		SKU:          req.SKU,
		Name:         req.Name,
		Category:     req.Category,
		Stock:        req.Stock,
		CostCents:    req.CostCents,
		PriceCents:   req.PriceCents,
		ReorderLevel: req.ReorderLevel,
	})
	if err != nil {
		return domain.InventoryRecord{}, err
	}

	s.audit(ctx, created.LocationID, "inventory.create", "inventory_record", created.ID, created.Name)
	s.invalidateReorderCache(ctx, created.LocationID)
	return *created, nil
}

func (s *Service) GetInventoryRecord(ctx context.Context, id string) (domain.InventoryRecord, error) {
	rec, err := s.repo.GetInventoryRecord(ctx, id)
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	return *rec, nil
}

func (s *Service) ListInventoryRecords(ctx context.Context, locationID string) ([]domain.InventoryRecord, error) {
	return s.repo.ListInventoryRecords(ctx, locationID)
}

// ReorderSuggestions lists records at or below their reorder level,
// suggesting a refill back up to twice the level. Responses are cached
// per location; any stock mutation at the location invalidates it.
func (s *Service) ReorderSuggestions(ctx context.Context, locationID string) (domain.ReorderSuggestionResponse, error) {
	if locationID == "" {
		locationID = s.defaultLocationID
	}

	key := reorderCacheKey(locationID)
	if cached, hit, err := s.reorderCache.Get(ctx, key); err == nil && hit {
		return *cached, nil
	} else if err != nil {
		s.log.Warn("reorder cache read failed", zap.Error(err))
	}

	records, err := s.repo.ListInventoryRecords(ctx, locationID)
	if err != nil {
		return domain.ReorderSuggestionResponse{}, err
	}

	suggestions := make([]domain.ReorderSuggestion, 0, 8)
	for _, rec := range records {
		if rec.ReorderLevel <= 0 || rec.Stock > rec.ReorderLevel {
			continue
		}
		qty := rec.ReorderLevel*2 - rec.Stock
		suggestions = append(suggestions, domain.ReorderSuggestion{
			InventoryItemID: rec.ID,
			SKU:             rec.SKU,
			Name:            rec.Name,
			Stock:           rec.Stock,
			ReorderLevel:    rec.ReorderLevel,
			SuggestedQty:    qty,
			EstimatedCents:  rec.CostCents * int64(qty),
		})
	}

	resp := domain.ReorderSuggestionResponse{
		LocationID:  locationID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Suggestions: suggestions,
	}
	if err := s.reorderCache.Set(ctx, key, &resp, reorderCacheTTL); err != nil {
		s.log.Warn("reorder cache write failed", zap.Error(err))
	}
	return resp, nil
}

func (s *Service) invalidateReorderCache(ctx context.Context, locationIDs ...string) {
	for _, locationID := range locationIDs {
		if locationID == "" {
			continue
		}
		if err := s.reorderCache.Invalidate(ctx, reorderCacheKey(locationID)); err != nil {
			s.log.Warn("reorder cache invalidation failed", zap.String("location_id", locationID), zap.Error(err))
		}
	}
}

func reorderCacheKey(locationID string) string {
	return "reorder:" + locationID
}

// ReconcileInvoiceLinks re-links orders left without an invoiceId by a
// checkout interrupted between invoice creation and order patching. It
// is idempotent: already-linked orders are skipped.
func (s *Service) ReconcileInvoiceLinks(ctx context.Context) (domain.ReconcileResponse, error) {
	invoices, err := s.repo.ListInvoices(ctx, 500)
	if err != nil {
		return domain.ReconcileResponse{}, err
	}

	var resp domain.ReconcileResponse
	for _, inv := range invoices {
		for _, item := range inv.Items {
			if item.OrderID == "" {
				continue
			}
			resp.Checked++
			order, err := s.repo.GetOrder(ctx, item.OrderID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return domain.ReconcileResponse{}, err
			}
			if order.InvoiceID != "" {
				continue
			}
			if err := s.repo.SetOrderInvoice(ctx, order.ID, inv.ID); err != nil {
				return domain.ReconcileResponse{}, err
			}
			s.log.Info("relinked order to invoice",
				zap.String("order_id", order.ID),
				zap.String("invoice_id", inv.ID))
			resp.Relinked++
		}
	}

	if resp.Relinked > 0 {
		s.audit(ctx, "", "reconcile.invoice_links", "invoice", "", fmt.Sprintf("relinked %d of %d checked", resp.Relinked, resp.Checked))
	}
	return resp, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, locationID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListAuditLogs(ctx, locationID, from, to, limit)
}
