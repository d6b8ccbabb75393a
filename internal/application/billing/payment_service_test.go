package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/domain/shared"
)

func paymentRequest(amount int64) RecordPaymentRequest {
	return RecordPaymentRequest{
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: billing.PaymentMethodCash,
		ActorID:       uuid.New(),
	}
}

func TestPaymentService_RecordPayment(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	t.Run("a full payment settles the invoice", func(t *testing.T) {
		invoice := env.createInvoice(t, singleItemRequest(uuid.New(), 500_000))

		record, err := env.payments.RecordPayment(ctx, invoice.ID, paymentRequest(500_000))
		require.NoError(t, err)
		assert.True(t, record.Amount.Amount().Equal(decimal.NewFromInt(500_000)))

		found, err := env.invoices.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusPaid, found.Status)
		assert.True(t, found.OutstandingAmount().IsZero())
		require.Len(t, found.PaymentRecords, 1)
	})

	t.Run("a partial payment moves the invoice to partially paid", func(t *testing.T) {
		invoice := env.createInvoice(t, singleItemRequest(uuid.New(), 1_000_000))

		_, err := env.payments.RecordPayment(ctx, invoice.ID, paymentRequest(400_000))
		require.NoError(t, err)

		found, err := env.invoices.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusPartiallyPaid, found.Status)
		assert.True(t, found.PaidAmount.Amount().Equal(decimal.NewFromInt(400_000)))
		assert.True(t, found.OutstandingAmount().Amount().Equal(decimal.NewFromInt(600_000)))
	})

	t.Run("overpayment is rejected and leaves the ledger untouched", func(t *testing.T) {
		invoice := env.createInvoice(t, singleItemRequest(uuid.New(), 300_000))

		_, err := env.payments.RecordPayment(ctx, invoice.ID, paymentRequest(100_000))
		require.NoError(t, err)

		_, err = env.payments.RecordPayment(ctx, invoice.ID, paymentRequest(250_000))
		assert.Equal(t, "OVERPAYMENT_REJECTED", domainErrCode(t, err))

		found, err := env.invoices.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.True(t, found.PaidAmount.Amount().Equal(decimal.NewFromInt(100_000)))
		assert.Equal(t, billing.InvoiceStatusPartiallyPaid, found.Status)
		assert.Len(t, found.PaymentRecords, 1)
	})

	t.Run("non-positive amounts are rejected", func(t *testing.T) {
		invoice := env.createInvoice(t, singleItemRequest(uuid.New(), 300_000))

		_, err := env.payments.RecordPayment(ctx, invoice.ID, paymentRequest(0))
		assert.Equal(t, "VALIDATION_ERROR", domainErrCode(t, err))
	})

	t.Run("unknown payment methods are rejected", func(t *testing.T) {
		invoice := env.createInvoice(t, singleItemRequest(uuid.New(), 300_000))

		req := paymentRequest(100_000)
		req.PaymentMethod = "BARTER"
		_, err := env.payments.RecordPayment(ctx, invoice.ID, req)
		assert.Equal(t, "VALIDATION_ERROR", domainErrCode(t, err))
	})

	t.Run("unknown invoice yields not found", func(t *testing.T) {
		_, err := env.payments.RecordPayment(ctx, uuid.New(), paymentRequest(100_000))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPaymentService_RecordInstallmentPayment(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	newPlan := func(t *testing.T) *billing.Invoice {
		req := singleItemRequest(uuid.New(), 3_000_000)
		req.PaymentType = billing.PaymentTypeInstallment
		req.IsInstallment = true
		req.InstallmentCount = 3
		return env.createInvoice(t, req)
	}

	t.Run("paying one installment updates it and the parent invoice", func(t *testing.T) {
		invoice := newPlan(t)
		first := invoice.Installments[0]

		record, err := env.payments.RecordInstallmentPayment(ctx, first.ID, paymentRequest(1_000_000))
		require.NoError(t, err)
		require.NotNil(t, record.InstallmentID)
		assert.Equal(t, first.ID, *record.InstallmentID)

		found, err := env.invoices.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusPartiallyPaid, found.Status)
		assert.True(t, found.PaidAmount.Amount().Equal(decimal.NewFromInt(1_000_000)))
		assert.Equal(t, billing.InstallmentStatusPaid, found.Installments[0].Status)
		assert.NotNil(t, found.Installments[0].PaidAt)
		assert.Equal(t, billing.InstallmentStatusPending, found.Installments[1].Status)
	})

	t.Run("the recorded amount may differ from the planned amount", func(t *testing.T) {
		invoice := newPlan(t)

		_, err := env.payments.RecordInstallmentPayment(ctx, invoice.Installments[0].ID, paymentRequest(900_000))
		require.NoError(t, err)

		found, err := env.invoices.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.True(t, found.PaidAmount.Amount().Equal(decimal.NewFromInt(900_000)))
		assert.Equal(t, billing.InstallmentStatusPaid, found.Installments[0].Status)
	})

	t.Run("paying all installments settles the invoice", func(t *testing.T) {
		invoice := newPlan(t)
		for _, inst := range invoice.Installments {
			_, err := env.payments.RecordInstallmentPayment(ctx, inst.ID, paymentRequest(1_000_000))
			require.NoError(t, err)
		}

		found, err := env.invoices.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusPaid, found.Status)
		assert.True(t, found.OutstandingAmount().IsZero())
	})

	t.Run("an installment cannot be paid twice", func(t *testing.T) {
		invoice := newPlan(t)
		target := invoice.Installments[1].ID

		_, err := env.payments.RecordInstallmentPayment(ctx, target, paymentRequest(1_000_000))
		require.NoError(t, err)

		_, err = env.payments.RecordInstallmentPayment(ctx, target, paymentRequest(1_000_000))
		assert.Equal(t, "INVALID_STATE", domainErrCode(t, err))
	})

	t.Run("unknown installment yields not found", func(t *testing.T) {
		_, err := env.payments.RecordInstallmentPayment(ctx, uuid.New(), paymentRequest(1_000_000))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPaymentService_Idempotency(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	invoice := env.createInvoice(t, singleItemRequest(uuid.New(), 1_000_000))

	req := paymentRequest(300_000)
	req.IdempotencyKey = "client-retry-7f3a"

	_, err := env.payments.RecordPayment(ctx, invoice.ID, req)
	require.NoError(t, err)

	_, err = env.payments.RecordPayment(ctx, invoice.ID, req)
	assert.Equal(t, "DUPLICATE_REQUEST", domainErrCode(t, err))

	// only the first attempt reached the ledger
	found, err := env.invoices.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, found.PaidAmount.Amount().Equal(decimal.NewFromInt(300_000)))
	assert.Len(t, found.PaymentRecords, 1)

	// a fresh key is accepted
	next := paymentRequest(200_000)
	next.IdempotencyKey = "client-retry-9c1d"
	_, err = env.payments.RecordPayment(ctx, invoice.ID, next)
	require.NoError(t, err)
}

func TestPaymentService_FailedAttemptReleasesKey(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	invoice := env.createInvoice(t, singleItemRequest(uuid.New(), 500_000))

	// the rejected attempt must not consume the key
	over := paymentRequest(600_000)
	over.IdempotencyKey = "client-retry-42ab"
	_, err := env.payments.RecordPayment(ctx, invoice.ID, over)
	assert.Equal(t, "OVERPAYMENT_REJECTED", domainErrCode(t, err))

	corrected := paymentRequest(500_000)
	corrected.IdempotencyKey = "client-retry-42ab"
	_, err = env.payments.RecordPayment(ctx, invoice.ID, corrected)
	require.NoError(t, err)

	found, err := env.invoices.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, found.Status)
	assert.True(t, found.PaidAmount.Amount().Equal(decimal.NewFromInt(500_000)))
	assert.Len(t, found.PaymentRecords, 1)

	// replaying the now-successful request is still rejected
	_, err = env.payments.RecordPayment(ctx, invoice.ID, corrected)
	assert.Equal(t, "DUPLICATE_REQUEST", domainErrCode(t, err))
}
