package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
)

// Commission event types
const (
	EventTypeCommissionRateSet  = "billing.commission.rate_set"
	EventTypeCommissionAccrued  = "billing.commission.accrued"
	EventTypeCommissionsSettled = "billing.commission.settled"
)

// CommissionRateSetEvent is raised when an agent's rate is configured
type CommissionRateSetEvent struct {
	shared.BaseDomainEvent
	AgentID  uuid.UUID       `json:"agent_id"`
	ItemType ItemType        `json:"item_type"`
	ItemID   uuid.UUID       `json:"item_id"`
	Percent  decimal.Decimal `json:"percent"`
}

func NewCommissionRateSetEvent(rateID, agentID uuid.UUID, itemType ItemType, itemID uuid.UUID, percent decimal.Decimal) *CommissionRateSetEvent {
	return &CommissionRateSetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionRateSet, "CommissionRate", rateID),
		AgentID:         agentID,
		ItemType:        itemType,
		ItemID:          itemID,
		Percent:         percent,
	}
}

// CommissionAccruedEvent is raised when a commission is earned
type CommissionAccruedEvent struct {
	shared.BaseDomainEvent
	AgentID   uuid.UUID         `json:"agent_id"`
	InvoiceID uuid.UUID         `json:"invoice_id"`
	Amount    valueobject.Money `json:"amount"`
}

func NewCommissionAccruedEvent(commissionID, agentID, invoiceID uuid.UUID, amount valueobject.Money) *CommissionAccruedEvent {
	return &CommissionAccruedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionAccrued, "EarnedCommission", commissionID),
		AgentID:         agentID,
		InvoiceID:       invoiceID,
		Amount:          amount,
	}
}

// CommissionsSettledEvent is raised when an agent's pending
// commissions are settled by a payout
type CommissionsSettledEvent struct {
	shared.BaseDomainEvent
	AgentID       uuid.UUID         `json:"agent_id"`
	Amount        valueobject.Money `json:"amount"`
	CommissionIDs []uuid.UUID       `json:"commission_ids"`
}

func NewCommissionsSettledEvent(paymentID, agentID uuid.UUID, amount valueobject.Money, commissionIDs []uuid.UUID) *CommissionsSettledEvent {
	return &CommissionsSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionsSettled, "CommissionPayment", paymentID),
		AgentID:         agentID,
		Amount:          amount,
		CommissionIDs:   commissionIDs,
	}
}
