package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
)

func TestNewCommissionRate(t *testing.T) {
	agentID := uuid.New()
	itemID := uuid.New()

	rate, err := NewCommissionRate(agentID, ItemTypeCourse, itemID, decimal.NewFromInt(10))
	require.NoError(t, err)

	assert.Equal(t, agentID, rate.AgentID)
	assert.Equal(t, ItemTypeCourse, rate.ItemType)
	assert.True(t, rate.IsActive)

	events := rate.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeCommissionRateSet, events[0].EventType())
}

func TestNewCommissionRate_Validation(t *testing.T) {
	agentID := uuid.New()
	itemID := uuid.New()

	tests := []struct {
		name     string
		agentID  uuid.UUID
		itemType ItemType
		itemID   uuid.UUID
		percent  decimal.Decimal
	}{
		{"missing agent", uuid.Nil, ItemTypeCourse, itemID, decimal.NewFromInt(10)},
		{"missing item", agentID, ItemTypeCourse, uuid.Nil, decimal.NewFromInt(10)},
		{"invalid item type", agentID, ItemType("BUNDLE"), itemID, decimal.NewFromInt(10)},
		{"negative percent", agentID, ItemTypeCourse, itemID, decimal.NewFromInt(-1)},
		{"percent above 100", agentID, ItemTypeCourse, itemID, decimal.NewFromInt(101)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCommissionRate(tt.agentID, tt.itemType, tt.itemID, tt.percent)
			require.Error(t, err)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
		})
	}
}

func TestCommissionRate_Deactivate(t *testing.T) {
	rate, err := NewCommissionRate(uuid.New(), ItemTypeProduct, uuid.New(), decimal.NewFromInt(5))
	require.NoError(t, err)
	versionBefore := rate.GetVersion()

	rate.Deactivate()
	assert.False(t, rate.IsActive)
	assert.Equal(t, versionBefore+1, rate.GetVersion())

	// deactivating twice is a no-op
	rate.Deactivate()
	assert.Equal(t, versionBefore+1, rate.GetVersion())
}

func TestNewEarnedCommission(t *testing.T) {
	rate, err := NewCommissionRate(uuid.New(), ItemTypeCourse, uuid.New(), decimal.NewFromInt(10))
	require.NoError(t, err)
	invoiceID := uuid.New()

	ec, err := NewEarnedCommission(rate.AgentID, invoiceID, rate, valueobject.NewMoneyFromInt(1000000))
	require.NoError(t, err)

	assert.True(t, ec.Amount.Equals(valueobject.NewMoneyFromInt(100000)))
	assert.Equal(t, CommissionStatusPending, ec.Status)
	assert.Nil(t, ec.CommissionPaymentID)
	assert.Equal(t, invoiceID, ec.InvoiceID)
}

func TestNewEarnedCommission_RoundsToNearestRial(t *testing.T) {
	rate, err := NewCommissionRate(uuid.New(), ItemTypeCourse, uuid.New(), decimal.NewFromInt(10))
	require.NoError(t, err)

	ec, err := NewEarnedCommission(rate.AgentID, uuid.New(), rate, valueobject.NewMoneyFromInt(999999))
	require.NoError(t, err)
	assert.True(t, ec.Amount.Equals(valueobject.NewMoneyFromInt(100000)))
}

func TestEarnedCommission_MarkPaid(t *testing.T) {
	rate, err := NewCommissionRate(uuid.New(), ItemTypeCourse, uuid.New(), decimal.NewFromInt(10))
	require.NoError(t, err)
	ec, err := NewEarnedCommission(rate.AgentID, uuid.New(), rate, valueobject.NewMoneyFromInt(500000))
	require.NoError(t, err)

	paymentID := uuid.New()
	require.NoError(t, ec.MarkPaid(paymentID))
	assert.Equal(t, CommissionStatusPaid, ec.Status)
	require.NotNil(t, ec.CommissionPaymentID)
	assert.Equal(t, paymentID, *ec.CommissionPaymentID)

	// settling twice is rejected
	err = ec.MarkPaid(uuid.New())
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	assert.Equal(t, paymentID, *ec.CommissionPaymentID)
}

func TestNewCommissionPayment(t *testing.T) {
	agentID := uuid.New()
	paidBy := uuid.New()
	settledIDs := []uuid.UUID{uuid.New(), uuid.New()}

	cp, err := NewCommissionPayment(agentID, valueobject.NewMoneyFromInt(150000), PaymentMethodBankTransfer, "REF-7", "", paidBy, settledIDs)
	require.NoError(t, err)

	assert.Equal(t, agentID, cp.AgentID)
	assert.Equal(t, paidBy, cp.PaidBy)

	events := cp.GetDomainEvents()
	require.Len(t, events, 1)
	settled, ok := events[0].(*CommissionsSettledEvent)
	require.True(t, ok)
	assert.Equal(t, settledIDs, settled.CommissionIDs)
}

func TestNewCommissionPayment_Validation(t *testing.T) {
	agentID := uuid.New()
	paidBy := uuid.New()

	_, err := NewCommissionPayment(uuid.Nil, valueobject.NewMoneyFromInt(100), PaymentMethodCash, "", "", paidBy, nil)
	assert.Error(t, err)

	_, err = NewCommissionPayment(agentID, valueobject.ZeroMoney(), PaymentMethodCash, "", "", paidBy, nil)
	assert.Error(t, err)

	_, err = NewCommissionPayment(agentID, valueobject.NewMoneyFromInt(100), "GOLD", "", "", paidBy, nil)
	assert.Error(t, err)

	_, err = NewCommissionPayment(agentID, valueobject.NewMoneyFromInt(100), PaymentMethodCash, "", "", uuid.Nil, nil)
	assert.Error(t, err)
}
