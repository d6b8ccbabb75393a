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

// InvoiceService handles invoice lifecycle operations: creation with
// line items, installment planning, and receipt review.
type InvoiceService struct {
	uow       billing.UnitOfWork
	repos     billing.Repositories
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(uow billing.UnitOfWork, repos billing.Repositories, publisher shared.EventPublisher, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		uow:       uow,
		repos:     repos,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateInvoiceItemRequest is one caller-supplied line item
type CreateInvoiceItemRequest struct {
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
	ItemType    billing.ItemType
	ItemID      *uuid.UUID
}

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	CustomerID       uuid.UUID
	AgentID          *uuid.UUID
	Items            []CreateInvoiceItemRequest
	PaymentType      billing.PaymentType
	IsInstallment    bool
	InstallmentCount int
	Notes            string
}

// CreateInvoice creates an invoice with its items and, for
// installment invoices, the installment plan, all in one transaction.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*billing.Invoice, error) {
	if req.IsInstallment && req.InstallmentCount < 2 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Installment count must be at least 2")
	}

	items := make([]billing.InvoiceItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, billing.InvoiceItemInput{
			Description: it.Description,
			UnitPrice:   valueobject.NewMoney(it.UnitPrice, valueobject.DefaultCurrency),
			Quantity:    it.Quantity,
			ItemType:    it.ItemType,
			ItemID:      it.ItemID,
		})
	}

	var invoice *billing.Invoice
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		number, err := repos.Invoices.NextInvoiceNumber(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to generate invoice number: %w", err)
		}

		invoice, err = billing.NewInvoice(number, req.CustomerID, req.AgentID, items, req.PaymentType, req.IsInstallment, req.Notes)
		if err != nil {
			return err
		}

		if req.IsInstallment {
			if err := invoice.PlanInstallments(req.InstallmentCount, time.Now()); err != nil {
				return err
			}
		}

		return repos.Invoices.Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, invoice)
	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("total_amount", invoice.TotalAmount.Amount().String()),
		zap.Bool("is_installment", invoice.IsInstallment))
	return invoice, nil
}

// GetInvoice loads an invoice with its items, installments, and
// payment records
func (s *InvoiceService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*billing.Invoice, error) {
	return s.repos.Invoices.FindByID(ctx, invoiceID)
}

// ListInvoices returns a page of invoices matching the filter
func (s *InvoiceService) ListInvoices(ctx context.Context, filter billing.InvoiceFilter) (shared.Paginated[*billing.Invoice], error) {
	return s.repos.Invoices.List(ctx, filter)
}

// ListInstallments returns the installment plan for an invoice
func (s *InvoiceService) ListInstallments(ctx context.Context, invoiceID uuid.UUID) ([]billing.Installment, error) {
	invoice, err := s.repos.Invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return invoice.Installments, nil
}

// ListOverdueInstallments returns unpaid installments past due
func (s *InvoiceService) ListOverdueInstallments(ctx context.Context) ([]billing.OverdueInstallment, error) {
	return s.repos.Invoices.FindOverdueInstallments(ctx, time.Now())
}

// SubmitReceipt attaches a manually-uploaded receipt to an invoice
// and puts it under review
func (s *InvoiceService) SubmitReceipt(ctx context.Context, invoiceID uuid.UUID, receiptRef string) (*billing.Invoice, error) {
	return s.mutateInvoice(ctx, invoiceID, func(invoice *billing.Invoice) error {
		return invoice.SubmitReceipt(receiptRef)
	})
}

// ApproveReceipt approves a pending receipt, settling the invoice in full
func (s *InvoiceService) ApproveReceipt(ctx context.Context, invoiceID uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.mutateInvoice(ctx, invoiceID, func(invoice *billing.Invoice) error {
		return invoice.ApproveReceipt()
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("receipt approved",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber))
	return invoice, nil
}

// RejectReceipt rejects a pending receipt with a reason
func (s *InvoiceService) RejectReceipt(ctx context.Context, invoiceID uuid.UUID, reason string) (*billing.Invoice, error) {
	invoice, err := s.mutateInvoice(ctx, invoiceID, func(invoice *billing.Invoice) error {
		return invoice.RejectReceipt(reason)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("receipt rejected",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("reason", reason))
	return invoice, nil
}

// mutateInvoice loads an invoice, applies the mutation, and saves it
// under optimistic locking, all in one transaction
func (s *InvoiceService) mutateInvoice(ctx context.Context, invoiceID uuid.UUID, mutate func(*billing.Invoice) error) (*billing.Invoice, error) {
	var invoice *billing.Invoice
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		var err error
		invoice, err = repos.Invoices.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := mutate(invoice); err != nil {
			return err
		}
		return repos.Invoices.SaveWithLock(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, invoice)
	return invoice, nil
}

func (s *InvoiceService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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
