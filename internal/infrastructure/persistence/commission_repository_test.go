package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/domain/shared"
)

func newTestRate(t *testing.T, agentID, itemID uuid.UUID, percent int64) *billing.CommissionRate {
	t.Helper()
	rate, err := billing.NewCommissionRate(agentID, billing.ItemTypeCourse, itemID, decimal.NewFromInt(percent))
	require.NoError(t, err)
	return rate
}

func newTestCommission(t *testing.T, repo *GormEarnedCommissionRepository, agentID uuid.UUID, rate *billing.CommissionRate, amount int64) *billing.EarnedCommission {
	t.Helper()
	ec, err := billing.NewEarnedCommission(agentID, uuid.New(), rate,
		moneyFromDecimal(decimal.NewFromInt(amount*10)))
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), ec))
	return ec
}

func TestGormCommissionRateRepository(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormCommissionRateRepository(db)
	ctx := context.Background()

	agentID := uuid.New()
	itemID := uuid.New()

	rate := newTestRate(t, agentID, itemID, 10)
	require.NoError(t, repo.Save(ctx, rate))

	t.Run("finds the active rate for an item", func(t *testing.T) {
		found, err := repo.FindActiveByItem(ctx, agentID, billing.ItemTypeCourse, itemID)
		require.NoError(t, err)
		assert.Equal(t, rate.ID, found.ID)
		assert.True(t, found.Percent.Equal(decimal.NewFromInt(10)))
		assert.True(t, found.IsActive)
	})

	t.Run("returns not found when no rate is configured", func(t *testing.T) {
		_, err := repo.FindActiveByItem(ctx, agentID, billing.ItemTypeCourse, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindActiveByItem(ctx, uuid.New(), billing.ItemTypeCourse, itemID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("deactivated rates stop matching", func(t *testing.T) {
		rate.Deactivate()
		require.NoError(t, repo.Save(ctx, rate))

		_, err := repo.FindActiveByItem(ctx, agentID, billing.ItemTypeCourse, itemID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists all rates including retired ones", func(t *testing.T) {
		replacement := newTestRate(t, agentID, itemID, 15)
		require.NoError(t, repo.Save(ctx, replacement))

		rates, err := repo.ListByAgent(ctx, agentID)
		require.NoError(t, err)
		require.Len(t, rates, 2)

		active := 0
		for _, r := range rates {
			if r.IsActive {
				active++
			}
		}
		assert.Equal(t, 1, active)
	})
}

func TestGormEarnedCommissionRepository(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormEarnedCommissionRepository(db)
	ctx := context.Background()

	agentID := uuid.New()
	rate := newTestRate(t, agentID, uuid.New(), 10)

	first := newTestCommission(t, repo, agentID, rate, 100_000)
	time.Sleep(5 * time.Millisecond)
	second := newTestCommission(t, repo, agentID, rate, 50_000)

	t.Run("lists pending commissions in accrual order", func(t *testing.T) {
		pending, err := repo.FindPendingByAgent(ctx, agentID)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, first.ID, pending[0].ID)
		assert.Equal(t, second.ID, pending[1].ID)
	})

	t.Run("sums pending amounts", func(t *testing.T) {
		total, err := repo.SumPendingByAgent(ctx, agentID)
		require.NoError(t, err)
		assert.True(t, total.Amount().Equal(decimal.NewFromInt(150_000)))
	})

	t.Run("sums to zero for an unknown agent", func(t *testing.T) {
		total, err := repo.SumPendingByAgent(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})

	t.Run("reports existing invoice and agent pairings", func(t *testing.T) {
		exists, err := repo.ExistsForInvoiceAndAgent(ctx, first.InvoiceID, agentID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsForInvoiceAndAgent(ctx, uuid.New(), agentID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("settled commissions leave the pending set", func(t *testing.T) {
		paymentID := uuid.New()
		require.NoError(t, first.MarkPaid(paymentID))
		require.NoError(t, repo.SaveWithLock(ctx, first))

		pending, err := repo.FindPendingByAgent(ctx, agentID)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, second.ID, pending[0].ID)

		found, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.CommissionStatusPaid, found.Status)
		require.NotNil(t, found.CommissionPaymentID)
		assert.Equal(t, paymentID, *found.CommissionPaymentID)
	})

	t.Run("rejects a stale version", func(t *testing.T) {
		err := repo.SaveWithLock(ctx, first)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormCommissionPaymentRepository(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormCommissionPaymentRepository(db)
	ctx := context.Background()

	agentID := uuid.New()
	actorID := uuid.New()

	for _, amount := range []int64{30_000, 20_000} {
		payment, err := billing.NewCommissionPayment(agentID,
			moneyFromDecimal(decimal.NewFromInt(amount)),
			billing.PaymentMethodBankTransfer, "tx-1", "", actorID, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, payment))
	}

	t.Run("lists an agent's payouts", func(t *testing.T) {
		payments, err := repo.ListByAgent(ctx, agentID)
		require.NoError(t, err)
		assert.Len(t, payments, 2)
	})

	t.Run("sums all payouts", func(t *testing.T) {
		total, err := repo.SumByAgent(ctx, agentID)
		require.NoError(t, err)
		assert.True(t, total.Amount().Equal(decimal.NewFromInt(50_000)))
	})

	t.Run("sums to zero for an unknown agent", func(t *testing.T) {
		total, err := repo.SumByAgent(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})
}
