package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
)

// CommissionStatus represents the settlement status of an earned commission
type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "PENDING"
	CommissionStatusPaid    CommissionStatus = "PAID"
)

// CommissionRate is a percentage an agent earns on sales of a
// specific course or product. At most one active rate may exist per
// (agent, item) pair; the store enforces this.
type CommissionRate struct {
	shared.BaseAggregateRoot
	AgentID  uuid.UUID
	ItemType ItemType
	ItemID   uuid.UUID
	Percent  decimal.Decimal
	IsActive bool
}

// NewCommissionRate creates an active commission rate for an agent
func NewCommissionRate(agentID uuid.UUID, itemType ItemType, itemID uuid.UUID, percent decimal.Decimal) (*CommissionRate, error) {
	if agentID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Agent ID is required")
	}
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Item ID is required")
	}
	switch itemType {
	case ItemTypeCourse, ItemTypeProduct:
	default:
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid item type: %s", itemType))
	}
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Commission percent must be between 0 and 100")
	}

	rate := &CommissionRate{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AgentID:           agentID,
		ItemType:          itemType,
		ItemID:            itemID,
		Percent:           percent,
		IsActive:          true,
	}
	rate.AddDomainEvent(NewCommissionRateSetEvent(rate.ID, agentID, itemType, itemID, percent))
	return rate, nil
}

// Deactivate retires the rate so a replacement can become the active one
func (r *CommissionRate) Deactivate() {
	if !r.IsActive {
		return
	}
	r.IsActive = false
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// EarnedCommission is a materialized commission amount tied to one
// invoice and one agent. Created at most once per (invoice, agent)
// pairing and settled exactly once.
type EarnedCommission struct {
	shared.BaseAggregateRoot
	AgentID             uuid.UUID
	InvoiceID           uuid.UUID
	RateID              uuid.UUID
	Amount              valueobject.Money
	Status              CommissionStatus
	CommissionPaymentID *uuid.UUID
}

// NewEarnedCommission accrues a commission for an agent on an invoice.
// The amount is the item's sale price times the rate percent, rounded
// down to whole currency units.
func NewEarnedCommission(agentID, invoiceID uuid.UUID, rate *CommissionRate, salePrice valueobject.Money) (*EarnedCommission, error) {
	if !salePrice.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Sale price must be positive")
	}
	amount := salePrice.CalculatePercentage(rate.Percent)

	ec := &EarnedCommission{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AgentID:           agentID,
		InvoiceID:         invoiceID,
		RateID:            rate.ID,
		Amount:            amount,
		Status:            CommissionStatusPending,
	}
	ec.AddDomainEvent(NewCommissionAccruedEvent(ec.ID, agentID, invoiceID, amount))
	return ec, nil
}

// MarkPaid settles the commission against a payment. Settling twice
// is rejected.
func (ec *EarnedCommission) MarkPaid(paymentID uuid.UUID) error {
	if ec.Status == CommissionStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Commission is already settled")
	}
	ec.Status = CommissionStatusPaid
	ec.CommissionPaymentID = &paymentID
	ec.UpdatedAt = time.Now()
	ec.IncrementVersion()
	return nil
}

// CommissionPayment records a payout to an agent, settling their
// pending earned commissions in one batch.
type CommissionPayment struct {
	shared.BaseAggregateRoot
	AgentID         uuid.UUID
	Amount          valueobject.Money
	PaymentMethod   string
	ReferenceNumber string
	Notes           string
	PaidBy          uuid.UUID
}

// NewCommissionPayment creates a payout record for the given settled
// commission set
func NewCommissionPayment(agentID uuid.UUID, amount valueobject.Money, method, reference, notes string, paidBy uuid.UUID, settledIDs []uuid.UUID) (*CommissionPayment, error) {
	if agentID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Agent ID is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Settlement amount must be positive")
	}
	if !validPaymentMethod(method) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid payment method: %s", method))
	}
	if paidBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Paying actor is required")
	}

	cp := &CommissionPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AgentID:           agentID,
		Amount:            amount,
		PaymentMethod:     method,
		ReferenceNumber:   reference,
		Notes:             notes,
		PaidBy:            paidBy,
	}
	cp.AddDomainEvent(NewCommissionsSettledEvent(cp.ID, agentID, amount, settledIDs))
	return cp, nil
}
