package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
)

// CommissionService manages agent commission rates, accrual on
// attributed sales, and batch settlement of pending commissions.
type CommissionService struct {
	uow       billing.UnitOfWork
	repos     billing.Repositories
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewCommissionService creates a new CommissionService
func NewCommissionService(uow billing.UnitOfWork, repos billing.Repositories, publisher shared.EventPublisher, logger *zap.Logger) *CommissionService {
	return &CommissionService{
		uow:       uow,
		repos:     repos,
		publisher: publisher,
		logger:    logger,
	}
}

// SetCommissionRateRequest represents a request to configure a rate
type SetCommissionRateRequest struct {
	ItemType billing.ItemType
	ItemID   uuid.UUID
	Percent  decimal.Decimal
}

// SetCommissionRate configures an agent's rate for a catalog item.
// Any previously active rate for the same (agent, item) pair is
// deactivated in the same transaction, keeping one active rate per
// pairing.
func (s *CommissionService) SetCommissionRate(ctx context.Context, agentID uuid.UUID, req SetCommissionRateRequest) (*billing.CommissionRate, error) {
	var rate *billing.CommissionRate
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		existing, err := repos.CommissionRates.FindActiveByItem(ctx, agentID, req.ItemType, req.ItemID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			existing.Deactivate()
			if err := repos.CommissionRates.Save(ctx, existing); err != nil {
				return fmt.Errorf("failed to deactivate previous rate: %w", err)
			}
		}

		rate, err = billing.NewCommissionRate(agentID, req.ItemType, req.ItemID, req.Percent)
		if err != nil {
			return err
		}
		return repos.CommissionRates.Save(ctx, rate)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, rate)
	s.logger.Info("commission rate set",
		zap.String("agent_id", agentID.String()),
		zap.String("item_id", req.ItemID.String()),
		zap.String("percent", req.Percent.String()))
	return rate, nil
}

// ListCommissionRates returns all rates configured for an agent
func (s *CommissionService) ListCommissionRates(ctx context.Context, agentID uuid.UUID) ([]*billing.CommissionRate, error) {
	return s.repos.CommissionRates.ListByAgent(ctx, agentID)
}

// AccrueCommission materializes an earned commission for an agent on
// an invoice's item. Returns nil without error when the agent has no
// active rate for the item. Accruing twice for the same invoice and
// agent is rejected.
func (s *CommissionService) AccrueCommission(ctx context.Context, invoiceID, agentID uuid.UUID, itemType billing.ItemType, itemID uuid.UUID) (*billing.EarnedCommission, error) {
	var commission *billing.EarnedCommission
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		invoice, err := repos.Invoices.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		item := invoice.FindItemByRef(itemType, itemID)
		if item == nil {
			return shared.NewDomainError("VALIDATION_ERROR", "Invoice has no item matching the given reference")
		}

		exists, err := repos.EarnedCommissions.ExistsForInvoiceAndAgent(ctx, invoiceID, agentID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("INVALID_STATE", "Commission already accrued for this invoice and agent")
		}

		rate, err := repos.CommissionRates.FindActiveByItem(ctx, agentID, itemType, itemID)
		if errors.Is(err, shared.ErrNotFound) {
			// no rate configured: nothing accrues
			return nil
		}
		if err != nil {
			return err
		}

		commission, err = billing.NewEarnedCommission(agentID, invoiceID, rate, item.TotalPrice)
		if err != nil {
			return err
		}
		return repos.EarnedCommissions.Save(ctx, commission)
	})
	if err != nil {
		return nil, err
	}
	if commission == nil {
		return nil, nil
	}

	s.publishEvents(ctx, commission)
	s.logger.Info("commission accrued",
		zap.String("agent_id", agentID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("amount", commission.Amount.Amount().String()))
	return commission, nil
}

// SettleCommissionsRequest represents a request to settle an agent's
// pending commissions
type SettleCommissionsRequest struct {
	Amount          decimal.Decimal
	PaymentMethod   string
	ReferenceNumber string
	Notes           string
	ActorID         uuid.UUID
}

// SettleCommissions pays out an agent's pending commissions. The
// payout amount must equal the sum of the commissions being swept; a
// stale or mistyped amount is rejected so the caller can re-read the
// pending total first. All swept commissions are marked paid in the
// payout's transaction.
func (s *CommissionService) SettleCommissions(ctx context.Context, agentID uuid.UUID, req SettleCommissionsRequest) (*billing.CommissionPayment, error) {
	var payment *billing.CommissionPayment
	var settled []*billing.EarnedCommission
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		pending, err := repos.EarnedCommissions.FindPendingByAgent(ctx, agentID)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return shared.NewDomainError("INVALID_STATE", "Agent has no pending commissions to settle")
		}

		swept := valueobject.ZeroMoney()
		for _, ec := range pending {
			swept, err = swept.Add(ec.Amount)
			if err != nil {
				return err
			}
		}
		amount := valueobject.NewMoney(req.Amount, valueobject.DefaultCurrency)
		if !amount.Equals(swept) {
			return billing.ErrAmountMismatch
		}

		settledIDs := make([]uuid.UUID, len(pending))
		for i, ec := range pending {
			settledIDs[i] = ec.ID
		}
		payment, err = billing.NewCommissionPayment(agentID, amount, req.PaymentMethod, req.ReferenceNumber, req.Notes, req.ActorID, settledIDs)
		if err != nil {
			return err
		}
		if err := repos.CommissionPayments.Save(ctx, payment); err != nil {
			return err
		}

		for _, ec := range pending {
			if err := ec.MarkPaid(payment.ID); err != nil {
				return err
			}
			if err := repos.EarnedCommissions.SaveWithLock(ctx, ec); err != nil {
				return err
			}
		}
		settled = pending
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, payment)
	s.logger.Info("commissions settled",
		zap.String("agent_id", agentID.String()),
		zap.String("amount", req.Amount.String()),
		zap.Int("commission_count", len(settled)))
	return payment, nil
}

// GetAgentPendingBalance returns the agent's displayable balance:
// pending accruals minus all prior payouts
func (s *CommissionService) GetAgentPendingBalance(ctx context.Context, agentID uuid.UUID) (valueobject.Money, error) {
	return s.pendingBalance(ctx, s.repos, agentID)
}

func (s *CommissionService) pendingBalance(ctx context.Context, repos billing.Repositories, agentID uuid.UUID) (valueobject.Money, error) {
	accrued, err := repos.EarnedCommissions.SumPendingByAgent(ctx, agentID)
	if err != nil {
		return valueobject.ZeroMoney(), err
	}
	paid, err := repos.CommissionPayments.SumByAgent(ctx, agentID)
	if err != nil {
		return valueobject.ZeroMoney(), err
	}
	balance, err := accrued.Subtract(paid)
	if err != nil {
		return valueobject.ZeroMoney(), err
	}
	return balance, nil
}

func (s *CommissionService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.String("aggregate_id", aggregate.GetID().String()),
			zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}
