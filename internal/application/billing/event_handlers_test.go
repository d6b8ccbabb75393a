package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
)

func TestCommissionAccrualHandler(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	log := zap.NewNop()

	env.bus.Subscribe(NewCommissionAccrualHandler(env.commissions, env.repos.Invoices, log))

	t.Run("accrues automatically when an attributed invoice is paid", func(t *testing.T) {
		agentID := uuid.New()
		itemID := uuid.New()
		env.setRate(t, agentID, itemID, 10)

		invoice := env.createAttributedInvoice(t, agentID, itemID, 2_000_000)
		_, err := env.payments.RecordPayment(ctx, invoice.ID, paymentRequest(2_000_000))
		require.NoError(t, err)

		pending, err := env.repos.EarnedCommissions.FindPendingByAgent(ctx, agentID)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, invoice.ID, pending[0].InvoiceID)
		assert.True(t, pending[0].Amount.Amount().Equal(decimal.NewFromInt(200_000)))
	})

	t.Run("a partial payment accrues nothing", func(t *testing.T) {
		agentID := uuid.New()
		itemID := uuid.New()
		env.setRate(t, agentID, itemID, 10)

		invoice := env.createAttributedInvoice(t, agentID, itemID, 2_000_000)
		_, err := env.payments.RecordPayment(ctx, invoice.ID, paymentRequest(500_000))
		require.NoError(t, err)

		pending, err := env.repos.EarnedCommissions.FindPendingByAgent(ctx, agentID)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("invoices without an agent are skipped", func(t *testing.T) {
		invoice := env.createInvoice(t, singleItemRequest(uuid.New(), 1_000_000))
		_, err := env.payments.RecordPayment(ctx, invoice.ID, paymentRequest(1_000_000))
		require.NoError(t, err)

		exists, err := env.repos.EarnedCommissions.ExistsForInvoiceAndAgent(ctx, invoice.ID, uuid.Nil)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("a replayed paid event does not accrue twice", func(t *testing.T) {
		agentID := uuid.New()
		itemID := uuid.New()
		env.setRate(t, agentID, itemID, 10)

		invoice := env.createAttributedInvoice(t, agentID, itemID, 1_000_000)
		_, err := env.payments.RecordPayment(ctx, invoice.ID, paymentRequest(1_000_000))
		require.NoError(t, err)

		handler := NewCommissionAccrualHandler(env.commissions, env.repos.Invoices, log)
		replay := billing.NewInvoicePaidEvent(invoice.ID, invoice.InvoiceNumber, invoice.CustomerID, invoice.TotalAmount)
		require.NoError(t, handler.Handle(ctx, replay))

		pending, err := env.repos.EarnedCommissions.FindPendingByAgent(ctx, agentID)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("agents without a matching rate accrue nothing", func(t *testing.T) {
		agentID := uuid.New()
		invoice := env.createAttributedInvoice(t, agentID, uuid.New(), 1_000_000)
		_, err := env.payments.RecordPayment(ctx, invoice.ID, paymentRequest(1_000_000))
		require.NoError(t, err)

		pending, err := env.repos.EarnedCommissions.FindPendingByAgent(ctx, agentID)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestActivityLogHandler(t *testing.T) {
	handler := NewActivityLogHandler(zap.NewNop())
	assert.Nil(t, handler.EventTypes())

	event := billing.NewInvoiceCreatedEvent(uuid.New(), "AR-20260830-00001", uuid.New(), valueobject.NewMoneyFromInt(100_000))
	assert.NoError(t, handler.Handle(context.Background(), event))
}
