package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
)

func (env *testEnv) createAttributedInvoice(t *testing.T, agentID, itemID uuid.UUID, price int64) *billing.Invoice {
	t.Helper()
	req := CreateInvoiceRequest{
		CustomerID:  uuid.New(),
		AgentID:     &agentID,
		PaymentType: billing.PaymentTypeOnline,
		Items: []CreateInvoiceItemRequest{{
			Description: "Bootcamp seat",
			UnitPrice:   decimal.NewFromInt(price),
			Quantity:    1,
			ItemType:    billing.ItemTypeCourse,
			ItemID:      &itemID,
		}},
	}
	return env.createInvoice(t, req)
}

func (env *testEnv) setRate(t *testing.T, agentID, itemID uuid.UUID, percent int64) *billing.CommissionRate {
	t.Helper()
	rate, err := env.commissions.SetCommissionRate(context.Background(), agentID, SetCommissionRateRequest{
		ItemType: billing.ItemTypeCourse,
		ItemID:   itemID,
		Percent:  decimal.NewFromInt(percent),
	})
	require.NoError(t, err)
	return rate
}

func TestCommissionService_SetCommissionRate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	agentID := uuid.New()
	itemID := uuid.New()

	first := env.setRate(t, agentID, itemID, 10)
	assert.True(t, first.IsActive)

	t.Run("replacing a rate retires the previous one", func(t *testing.T) {
		replacement := env.setRate(t, agentID, itemID, 15)

		active, err := env.repos.CommissionRates.FindActiveByItem(ctx, agentID, billing.ItemTypeCourse, itemID)
		require.NoError(t, err)
		assert.Equal(t, replacement.ID, active.ID)
		assert.True(t, active.Percent.Equal(decimal.NewFromInt(15)))

		rates, err := env.commissions.ListCommissionRates(ctx, agentID)
		require.NoError(t, err)
		require.Len(t, rates, 2)
		activeCount := 0
		for _, r := range rates {
			if r.IsActive {
				activeCount++
			}
		}
		assert.Equal(t, 1, activeCount)
	})

	t.Run("rejects percentages outside 0 to 100", func(t *testing.T) {
		_, err := env.commissions.SetCommissionRate(ctx, agentID, SetCommissionRateRequest{
			ItemType: billing.ItemTypeCourse,
			ItemID:   itemID,
			Percent:  decimal.NewFromInt(120),
		})
		assert.Equal(t, "VALIDATION_ERROR", domainErrCode(t, err))
	})
}

func TestCommissionService_AccrueCommission(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	agentID := uuid.New()
	itemID := uuid.New()
	env.setRate(t, agentID, itemID, 10)

	t.Run("accrues the rate percentage rounded to the nearest rial", func(t *testing.T) {
		invoice := env.createAttributedInvoice(t, agentID, itemID, 999_999)

		commission, err := env.commissions.AccrueCommission(ctx, invoice.ID, agentID, billing.ItemTypeCourse, itemID)
		require.NoError(t, err)
		require.NotNil(t, commission)
		assert.True(t, commission.Amount.Amount().Equal(decimal.NewFromInt(100_000)))
		assert.Equal(t, billing.CommissionStatusPending, commission.Status)
	})

	t.Run("accruing twice for the same invoice and agent fails", func(t *testing.T) {
		invoice := env.createAttributedInvoice(t, agentID, itemID, 500_000)

		_, err := env.commissions.AccrueCommission(ctx, invoice.ID, agentID, billing.ItemTypeCourse, itemID)
		require.NoError(t, err)

		_, err = env.commissions.AccrueCommission(ctx, invoice.ID, agentID, billing.ItemTypeCourse, itemID)
		assert.Equal(t, "INVALID_STATE", domainErrCode(t, err))
	})

	t.Run("no active rate accrues nothing", func(t *testing.T) {
		strangerID := uuid.New()
		invoice := env.createAttributedInvoice(t, strangerID, itemID, 500_000)

		commission, err := env.commissions.AccrueCommission(ctx, invoice.ID, strangerID, billing.ItemTypeCourse, itemID)
		require.NoError(t, err)
		assert.Nil(t, commission)
	})

	t.Run("the item must exist on the invoice", func(t *testing.T) {
		invoice := env.createAttributedInvoice(t, agentID, itemID, 500_000)

		_, err := env.commissions.AccrueCommission(ctx, invoice.ID, agentID, billing.ItemTypeCourse, uuid.New())
		assert.Equal(t, "VALIDATION_ERROR", domainErrCode(t, err))
	})
}

func TestCommissionService_Settlement(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	agentID := uuid.New()
	itemID := uuid.New()
	env.setRate(t, agentID, itemID, 10)

	// two pending accruals: 100,000 and 50,000
	invoiceA := env.createAttributedInvoice(t, agentID, itemID, 1_000_000)
	invoiceB := env.createAttributedInvoice(t, agentID, itemID, 500_000)
	ecA, err := env.commissions.AccrueCommission(ctx, invoiceA.ID, agentID, billing.ItemTypeCourse, itemID)
	require.NoError(t, err)
	ecB, err := env.commissions.AccrueCommission(ctx, invoiceB.ID, agentID, billing.ItemTypeCourse, itemID)
	require.NoError(t, err)

	// a 30,000 payout from an earlier cycle
	prior, err := billing.NewCommissionPayment(agentID,
		valueobject.NewMoneyFromInt(30_000), billing.PaymentMethodBankTransfer, "", "", uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, env.repos.CommissionPayments.Save(ctx, prior))

	t.Run("pending balance nets accruals against prior payouts", func(t *testing.T) {
		balance, err := env.commissions.GetAgentPendingBalance(ctx, agentID)
		require.NoError(t, err)
		assert.True(t, balance.Amount().Equal(decimal.NewFromInt(120_000)))
	})

	t.Run("a mismatched amount is rejected before any write", func(t *testing.T) {
		// 120,000 is the netted display balance; the payout must match
		// the 150,000 actually being swept
		_, err := env.commissions.SettleCommissions(ctx, agentID, SettleCommissionsRequest{
			Amount:        decimal.NewFromInt(120_000),
			PaymentMethod: billing.PaymentMethodBankTransfer,
			ActorID:       uuid.New(),
		})
		assert.Equal(t, "AMOUNT_MISMATCH", domainErrCode(t, err))

		pending, err := env.repos.EarnedCommissions.FindPendingByAgent(ctx, agentID)
		require.NoError(t, err)
		assert.Len(t, pending, 2)
	})

	t.Run("settling the swept sum pays every pending commission", func(t *testing.T) {
		payment, err := env.commissions.SettleCommissions(ctx, agentID, SettleCommissionsRequest{
			Amount:          decimal.NewFromInt(150_000),
			PaymentMethod:   billing.PaymentMethodBankTransfer,
			ReferenceNumber: "tx-20260830-01",
			ActorID:         uuid.New(),
		})
		require.NoError(t, err)

		pending, err := env.repos.EarnedCommissions.FindPendingByAgent(ctx, agentID)
		require.NoError(t, err)
		assert.Empty(t, pending)

		payments, err := env.repos.CommissionPayments.ListByAgent(ctx, agentID)
		require.NoError(t, err)
		require.Len(t, payments, 2)

		// each settled commission points at the payout
		for _, id := range []uuid.UUID{ecA.ID, ecB.ID} {
			ec, err := env.repos.EarnedCommissions.FindByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, billing.CommissionStatusPaid, ec.Status)
			require.NotNil(t, ec.CommissionPaymentID)
			assert.Equal(t, payment.ID, *ec.CommissionPaymentID)
		}
	})

	t.Run("the next accrual cycle settles by its own pending sum", func(t *testing.T) {
		invoice := env.createAttributedInvoice(t, agentID, itemID, 800_000)
		_, err := env.commissions.AccrueCommission(ctx, invoice.ID, agentID, billing.ItemTypeCourse, itemID)
		require.NoError(t, err)

		// prior payouts do not block the new cycle
		_, err = env.commissions.SettleCommissions(ctx, agentID, SettleCommissionsRequest{
			Amount:        decimal.NewFromInt(80_000),
			PaymentMethod: billing.PaymentMethodBankTransfer,
			ActorID:       uuid.New(),
		})
		require.NoError(t, err)

		pending, err := env.repos.EarnedCommissions.FindPendingByAgent(ctx, agentID)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("settling with nothing pending fails", func(t *testing.T) {
		_, err := env.commissions.SettleCommissions(ctx, agentID, SettleCommissionsRequest{
			Amount:        decimal.NewFromInt(1),
			PaymentMethod: billing.PaymentMethodBankTransfer,
			ActorID:       uuid.New(),
		})
		assert.Equal(t, "INVALID_STATE", domainErrCode(t, err))
	})

	t.Run("other agents' commissions are untouched", func(t *testing.T) {
		otherAgent := uuid.New()
		otherItem := uuid.New()
		env.setRate(t, otherAgent, otherItem, 20)
		invoice := env.createAttributedInvoice(t, otherAgent, otherItem, 400_000)
		_, err := env.commissions.AccrueCommission(ctx, invoice.ID, otherAgent, billing.ItemTypeCourse, otherItem)
		require.NoError(t, err)

		balance, err := env.commissions.GetAgentPendingBalance(ctx, otherAgent)
		require.NoError(t, err)
		assert.True(t, balance.Amount().Equal(decimal.NewFromInt(80_000)))

		_, err = env.commissions.SettleCommissions(ctx, otherAgent, SettleCommissionsRequest{
			Amount:        decimal.NewFromInt(80_000),
			PaymentMethod: billing.PaymentMethodCash,
			ActorID:       uuid.New(),
		})
		require.NoError(t, err)
	})
}
