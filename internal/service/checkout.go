package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bengkelpos/internal/domain"
	"bengkelpos/internal/events"
	"bengkelpos/internal/metrics"
	"bengkelpos/internal/store"
)

// Checkout turns a cart into orders and an invoice while consuming
// stock. Repair lines are consolidated into a single repair order;
// every other line becomes its own order. Each line's stock debit is
// one atomic unit: a failing line stops the cart, but debits already
// committed for earlier lines stand (ReconcileInvoiceLinks covers the
// order/invoice side of interrupted runs; stock is not re-credited).
//
// With InvoiceID set the call is a payment against an existing invoice
// and never touches inventory.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	start := time.Now()
	defer func() {
		metrics.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if req.InvoiceID != "" {
		return s.payExistingInvoice(ctx, req)
	}
	if len(req.Lines) == 0 {
		metrics.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
		return domain.CheckoutResponse{}, store.ErrEmptyCart
	}
	if req.LocationID == "" {
		req.LocationID = s.defaultLocationID
	}
	if req.AmountPaidCents < 0 {
		return domain.CheckoutResponse{}, store.ErrInvalidInput
	}
	if err := validateCartLines(req.Lines); err != nil {
		metrics.CheckoutsFailedTotal.WithLabelValues("invalid_input").Inc()
		return domain.CheckoutResponse{}, err
	}

	// Debit stock line by line, accumulating material cost per line.
	// invoiceLine remembers which order each cart line belongs to so
	// the invoice items can carry the order id back-links.
	type invoiceLine struct {
		repair      bool
		singleIndex int
		description string
		amountCents int64
	}

	var (
		repairItems    []domain.OrderItem
		repairAmount   int64
		repairMaterial int64
		singles        []domain.Order
		lines          []invoiceLine
		subtotalCents  int64
	)
	for _, line := range req.Lines {
		debits := make([]store.StockDebit, 0, 1+len(line.Materials))
		if line.Kind == domain.CartLineSale {
			debits = append(debits, store.StockDebit{InventoryItemID: line.InventoryItemID, Quantity: line.Quantity})
		}
		for _, mat := range line.Materials {
			debits = append(debits, store.StockDebit{InventoryItemID: mat.InventoryItemID, Quantity: mat.Quantity})
		}

		materialCost, err := s.repo.DebitStock(ctx, req.LocationID, debits)
		if err != nil {
			if errors.Is(err, store.ErrInsufficientStock) {
				metrics.CheckoutsFailedTotal.WithLabelValues("out_of_stock").Inc()
			} else {
				metrics.CheckoutsFailedTotal.WithLabelValues("debit_error").Inc()
			}
			s.log.Warn("checkout stopped mid-cart",
				zap.String("location_id", req.LocationID),
				zap.String("line", line.Description),
				zap.Error(err))
			return domain.CheckoutResponse{}, err
		}

		lineAmount := line.PriceCents * int64(line.Quantity)
		subtotalCents += lineAmount
		orderItem := domain.OrderItem{
			InventoryItemID: line.InventoryItemID,
			Description:     line.Description,
			PriceCents:      line.PriceCents,
			Quantity:        line.Quantity,
		}

		if line.Kind == domain.CartLineRepair {
			repairItems = append(repairItems, orderItem)
			repairAmount += lineAmount
			repairMaterial += materialCost
			lines = append(lines, invoiceLine{repair: true, description: line.Description, amountCents: lineAmount})
			continue
		}

		orderType := domain.OrderTypeOrder
		if line.Kind == domain.CartLineCustom {
			orderType = domain.OrderTypeShipped
		}
		singles = append(singles, domain.Order{
			Type:              orderType,
			Status:            domain.OrderStatusOpen,
			CustomerID:        req.CustomerID,
			AmountCents:       lineAmount,
			MaterialCostCents: materialCost,
			Items:             []domain.OrderItem{orderItem},
		})
		lines = append(lines, invoiceLine{singleIndex: len(singles) - 1, description: line.Description, amountCents: lineAmount})
	}

	// All debits are committed; create the orders to obtain their ids.
	var repairOrderID string
	created := make([]domain.Order, 0, 1+len(singles))
	if len(repairItems) > 0 {
		repairOrder, err := s.repo.CreateOrder(ctx, domain.Order{
			Type:              domain.OrderTypeRepair,
			Status:            domain.OrderStatusOpen,
			CustomerID:        req.CustomerID,
			AmountCents:       repairAmount,
			MaterialCostCents: repairMaterial,
			Items:             repairItems,
		})
		if err != nil {
			metrics.CheckoutsFailedTotal.WithLabelValues("order_create").Inc()
			return domain.CheckoutResponse{}, err
		}
		repairOrderID = repairOrder.ID
		created = append(created, *repairOrder)
	}
	singleIDs := make([]string, len(singles))
	for i, order := range singles {
		createdOrder, err := s.repo.CreateOrder(ctx, order)
		if err != nil {
			metrics.CheckoutsFailedTotal.WithLabelValues("order_create").Inc()
			return domain.CheckoutResponse{}, err
		}
		singleIDs[i] = createdOrder.ID
		created = append(created, *createdOrder)
	}

	taxCents := domain.TaxCents(subtotalCents, req.TaxRate)
	totalCents := subtotalCents + taxCents
	depositCents := req.AmountPaidCents
	if depositCents > totalCents {
		depositCents = totalCents
	}

	invoiceItems := make([]domain.InvoiceItem, 0, len(lines))
	for _, line := range lines {
		orderID := repairOrderID
		if !line.repair {
			orderID = singleIDs[line.singleIndex]
		}
		invoiceItems = append(invoiceItems, domain.InvoiceItem{
			OrderID:     orderID,
			Description: line.description,
			AmountCents: line.amountCents,
		})
	}

	invoice, err := s.repo.CreateInvoice(ctx, domain.Invoice{
		CustomerID:     req.CustomerID,
		Items:          invoiceItems,
		SubtotalCents:  subtotalCents,
		TaxCents:       taxCents,
		TotalCents:     totalCents,
		DepositCents:   depositCents,
		AmountDueCents: totalCents - depositCents,
		Status:         domain.DeriveInvoiceStatus(totalCents, depositCents),
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		metrics.CheckoutsFailedTotal.WithLabelValues("invoice_create").Inc()
		return domain.CheckoutResponse{}, err
	}

	// Patch each order with the invoice id. A failed patch is logged
	// and left for ReconcileInvoiceLinks rather than failing the
	// checkout: the invoice and orders are already committed.
	for i := range created {
		if err := s.repo.SetOrderInvoice(ctx, created[i].ID, invoice.ID); err != nil {
			s.log.Warn("order invoice back-link failed",
				zap.String("order_id", created[i].ID),
				zap.String("invoice_id", invoice.ID),
				zap.Error(err))
			continue
		}
		created[i].InvoiceID = invoice.ID
	}

	metrics.CheckoutsTotal.Inc()
	s.invalidateReorderCache(ctx, req.LocationID)
	s.publish(ctx, events.TypeCheckoutCompleted, invoice.ID, req.LocationID, map[string]any{
		"orders":      len(created),
		"total_cents": invoice.TotalCents,
		"status":      invoice.Status,
	})
	s.audit(ctx, req.LocationID, "checkout", "invoice", invoice.ID,
		fmt.Sprintf("%d lines, %d orders, total %d", len(req.Lines), len(created), invoice.TotalCents))
	s.log.Info("checkout completed",
		zap.String("invoice_id", invoice.ID),
		zap.Int("orders", len(created)),
		zap.Int64("total_cents", invoice.TotalCents))

	return domain.CheckoutResponse{Invoice: *invoice, Orders: created}, nil
}

func (s *Service) payExistingInvoice(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	if len(req.Lines) > 0 {
		return domain.CheckoutResponse{}, fmt.Errorf("%w: a payment call must not carry cart lines", store.ErrInvalidInput)
	}
	invoice, err := s.PayInvoice(ctx, req.InvoiceID, domain.InvoicePaymentRequest{
		AmountCents:   req.AmountPaidCents,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	return domain.CheckoutResponse{Invoice: invoice}, nil
}

// PayInvoice applies a cumulative deposit to an existing invoice and
// recomputes amountDue and status. Inventory is never touched.
func (s *Service) PayInvoice(ctx context.Context, invoiceID string, req domain.InvoicePaymentRequest) (domain.Invoice, error) {
	if invoiceID == "" || req.AmountCents <= 0 {
		return domain.Invoice{}, store.ErrInvalidInput
	}

	invoice, err := s.repo.ApplyInvoicePayment(ctx, invoiceID, req.AmountCents, strings.TrimSpace(req.PaymentMethod))
	if err != nil {
		return domain.Invoice{}, err
	}

	metrics.InvoicePaymentsTotal.Inc()
	if invoice.Status == domain.InvoiceStatusPaid {
		s.publish(ctx, events.TypeInvoicePaid, invoice.ID, "", map[string]any{
			"total_cents": invoice.TotalCents,
		})
	}
	s.audit(ctx, "", "invoice.payment", "invoice", invoice.ID,
		fmt.Sprintf("amount %d, status %s", req.AmountCents, invoice.Status))
	return *invoice, nil
}

func (s *Service) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	invoice, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	return *invoice, nil
}

func (s *Service) ListInvoices(ctx context.Context, limit int) ([]domain.Invoice, error) {
	return s.repo.ListInvoices(ctx, limit)
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return *order, nil
}

func validateCartLines(lines []domain.CartLine) error {
	for _, line := range lines {
		if line.Quantity < 1 || line.PriceCents < 0 {
			return store.ErrInvalidInput
		}
		switch line.Kind {
		case domain.CartLineSale:
			if line.InventoryItemID == "" {
				return fmt.Errorf("%w: sale line needs an inventory item", store.ErrInvalidInput)
			}
		case domain.CartLineRepair, domain.CartLineCustom:
			if strings.TrimSpace(line.Description) == "" {
				return fmt.Errorf("%w: %s line needs a description", store.ErrInvalidInput, line.Kind)
			}
		default:
			return fmt.Errorf("%w: unknown line kind %q", store.ErrInvalidInput, line.Kind)
		}
		for _, mat := range line.Materials {
			if mat.InventoryItemID == "" || mat.Quantity < 1 {
				return store.ErrInvalidInput
			}
		}
	}
	return nil
}
