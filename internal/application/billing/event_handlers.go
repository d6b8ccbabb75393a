package billing

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/domain/shared"
)

// CommissionAccrualHandler accrues the attributed agent's commission
// when an invoice becomes fully paid. Invoices without an agent, and
// items the agent has no active rate for, are skipped.
type CommissionAccrualHandler struct {
	commissions *CommissionService
	invoices    billing.InvoiceRepository
	logger      *zap.Logger
}

// NewCommissionAccrualHandler creates a new CommissionAccrualHandler
func NewCommissionAccrualHandler(commissions *CommissionService, invoices billing.InvoiceRepository, logger *zap.Logger) *CommissionAccrualHandler {
	return &CommissionAccrualHandler{
		commissions: commissions,
		invoices:    invoices,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler subscribes to
func (h *CommissionAccrualHandler) EventTypes() []string {
	return []string{billing.EventTypeInvoicePaid}
}

// Handle accrues a commission for the paid invoice's agent on the
// first item with an active rate. At most one commission exists per
// (invoice, agent) pair, so a repeated event is a no-op.
func (h *CommissionAccrualHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	invoice, err := h.invoices.FindByID(ctx, event.AggregateID())
	if err != nil {
		return err
	}
	if invoice.AgentID == nil {
		return nil
	}

	for i := range invoice.Items {
		item := &invoice.Items[i]
		if item.ItemID == nil {
			continue
		}
		commission, err := h.commissions.AccrueCommission(ctx, invoice.ID, *invoice.AgentID, item.ItemType, *item.ItemID)
		if err != nil {
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == "INVALID_STATE" {
				// already accrued for this invoice and agent
				return nil
			}
			return err
		}
		if commission != nil {
			return nil
		}
	}

	h.logger.Debug("no active commission rate matched paid invoice",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("agent_id", invoice.AgentID.String()))
	return nil
}

// ActivityLogHandler writes every billing event to the structured log
// as a lightweight audit trail
type ActivityLogHandler struct {
	logger *zap.Logger
}

// NewActivityLogHandler creates a new ActivityLogHandler
func NewActivityLogHandler(logger *zap.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{logger: logger.Named("activity")}
}

// EventTypes returns nil so the handler receives all events
func (h *ActivityLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *ActivityLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()))
	return nil
}
