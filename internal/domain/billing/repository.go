package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
)

// InvoiceFilter narrows invoice list queries
type InvoiceFilter struct {
	shared.Filter
	CustomerID   *uuid.UUID
	AgentID      *uuid.UUID
	Status       *InvoiceStatus
	PaymentType  *PaymentType
	ReviewStatus *ReviewStatus
}

// OverdueInstallment is a read view of an unpaid installment past its
// due date, joined with its invoice for display.
type OverdueInstallment struct {
	Installment   Installment
	InvoiceNumber string
	CustomerID    uuid.UUID
}

// InvoiceRepository persists Invoice aggregates with their items,
// installments, and payment records.
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *Invoice) error
	// SaveWithLock persists the aggregate only if the stored version
	// matches the version the aggregate was loaded at, returning
	// ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)
	// FindByInstallmentID loads the invoice owning the given installment
	FindByInstallmentID(ctx context.Context, installmentID uuid.UUID) (*Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) (shared.Paginated[*Invoice], error)
	FindOverdueInstallments(ctx context.Context, asOf time.Time) ([]OverdueInstallment, error)
	// NextInvoiceNumber generates the next sequential document number
	// for the given date (e.g. AR-20260830-00001)
	NextInvoiceNumber(ctx context.Context, date time.Time) (string, error)
}

// CommissionRateRepository persists agent commission rates
type CommissionRateRepository interface {
	Save(ctx context.Context, rate *CommissionRate) error
	FindByID(ctx context.Context, id uuid.UUID) (*CommissionRate, error)
	// FindActiveByItem returns the agent's active rate for a catalog
	// item, or ErrNotFound when none is configured
	FindActiveByItem(ctx context.Context, agentID uuid.UUID, itemType ItemType, itemID uuid.UUID) (*CommissionRate, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*CommissionRate, error)
}

// EarnedCommissionRepository persists accrued commissions
type EarnedCommissionRepository interface {
	Save(ctx context.Context, commission *EarnedCommission) error
	SaveWithLock(ctx context.Context, commission *EarnedCommission) error
	FindByID(ctx context.Context, id uuid.UUID) (*EarnedCommission, error)
	FindPendingByAgent(ctx context.Context, agentID uuid.UUID) ([]*EarnedCommission, error)
	ExistsForInvoiceAndAgent(ctx context.Context, invoiceID, agentID uuid.UUID) (bool, error)
	SumPendingByAgent(ctx context.Context, agentID uuid.UUID) (valueobject.Money, error)
}

// CommissionPaymentRepository persists commission payouts
type CommissionPaymentRepository interface {
	Save(ctx context.Context, payment *CommissionPayment) error
	FindByID(ctx context.Context, id uuid.UUID) (*CommissionPayment, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*CommissionPayment, error)
	SumByAgent(ctx context.Context, agentID uuid.UUID) (valueobject.Money, error)
}

// Repositories bundles the billing repositories bound to one
// persistence context (a database handle or an open transaction)
type Repositories struct {
	Invoices           InvoiceRepository
	CommissionRates    CommissionRateRepository
	EarnedCommissions  EarnedCommissionRepository
	CommissionPayments CommissionPaymentRepository
}

// UnitOfWork executes a function with repositories bound to a single
// transaction. All writes inside fn commit together or not at all.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
