package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
)

// defaultIdempotencyTTL bounds how long a processed payment key is
// remembered when no TTL is configured
const defaultIdempotencyTTL = 24 * time.Hour

// PaymentService records payments against invoices and installments.
// Each recording is one transaction: the audit record, the invoice's
// paid amount, and the installment status commit together.
type PaymentService struct {
	uow            billing.UnitOfWork
	publisher      shared.EventPublisher
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(uow billing.UnitOfWork, publisher shared.EventPublisher, idempotency shared.IdempotencyStore, idempotencyTTL time.Duration, logger *zap.Logger) *PaymentService {
	if idempotencyTTL <= 0 {
		idempotencyTTL = defaultIdempotencyTTL
	}
	return &PaymentService{
		uow:            uow,
		publisher:      publisher,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
		logger:         logger,
	}
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	Amount          decimal.Decimal
	PaymentMethod   string
	ReferenceNumber string
	Notes           string
	ActorID         uuid.UUID
	IdempotencyKey  string
}

// RecordPayment records a payment against an invoice
func (s *PaymentService) RecordPayment(ctx context.Context, invoiceID uuid.UUID, req RecordPaymentRequest) (*billing.PaymentRecord, error) {
	if done, err := s.claimKey(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if done {
		return nil, shared.NewDomainError("DUPLICATE_REQUEST", "This payment was already recorded")
	}

	var invoice *billing.Invoice
	var record *billing.PaymentRecord
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		var err error
		invoice, err = repos.Invoices.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		record, err = invoice.RecordPayment(
			valueobject.NewMoney(req.Amount, valueobject.DefaultCurrency),
			req.PaymentMethod, req.ReferenceNumber, req.Notes, req.ActorID)
		if err != nil {
			return err
		}
		return repos.Invoices.SaveWithLock(ctx, invoice)
	})
	if err != nil {
		s.releaseKey(ctx, req.IdempotencyKey)
		return nil, err
	}

	s.publishEvents(ctx, invoice)
	s.logger.Info("payment recorded",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("method", req.PaymentMethod),
		zap.String("status", string(invoice.Status)))
	return record, nil
}

// RecordInstallmentPayment records a payment against a specific
// installment, marking it paid and updating the parent invoice
func (s *PaymentService) RecordInstallmentPayment(ctx context.Context, installmentID uuid.UUID, req RecordPaymentRequest) (*billing.PaymentRecord, error) {
	if done, err := s.claimKey(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if done {
		return nil, shared.NewDomainError("DUPLICATE_REQUEST", "This payment was already recorded")
	}

	var invoice *billing.Invoice
	var record *billing.PaymentRecord
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		var err error
		invoice, err = repos.Invoices.FindByInstallmentID(ctx, installmentID)
		if err != nil {
			return err
		}
		record, err = invoice.SettleInstallment(installmentID,
			valueobject.NewMoney(req.Amount, valueobject.DefaultCurrency),
			req.PaymentMethod, req.ReferenceNumber, req.Notes, req.ActorID)
		if err != nil {
			return err
		}
		return repos.Invoices.SaveWithLock(ctx, invoice)
	})
	if err != nil {
		s.releaseKey(ctx, req.IdempotencyKey)
		return nil, err
	}

	s.publishEvents(ctx, invoice)
	s.logger.Info("installment payment recorded",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("installment_id", installmentID.String()),
		zap.String("amount", req.Amount.String()))
	return record, nil
}

// claimKey marks the idempotency key as processed. Returns true when
// the key was already claimed by an earlier request. An empty key
// disables the check.
func (s *PaymentService) claimKey(ctx context.Context, key string) (bool, error) {
	if key == "" || s.idempotency == nil {
		return false, nil
	}
	fresh, err := s.idempotency.MarkProcessed(ctx, "payment:"+key, s.idempotencyTTL)
	if err != nil {
		return false, fmt.Errorf("idempotency check failed: %w", err)
	}
	return !fresh, nil
}

// releaseKey frees a claimed key after a failed recording so the
// client can retry with the same key
func (s *PaymentService) releaseKey(ctx context.Context, key string) {
	if key == "" || s.idempotency == nil {
		return
	}
	if err := s.idempotency.Release(ctx, "payment:"+key); err != nil {
		s.logger.Warn("failed to release idempotency key",
			zap.String("key", key),
			zap.Error(err))
	}
}

func (s *PaymentService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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
