package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Exact-SQL checks against the postgres dialect. Behavior is covered by
// the sqlite tests; these pin the aggregate queries the balance
// computation depends on.
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormEarnedCommissionRepository_SumPendingByAgent_SQL(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormEarnedCommissionRepository(db)

	agentID := uuid.New()

	t.Run("sums only pending rows", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) as total FROM "earned_commissions" WHERE agent_id = \$1 AND status = \$2`).
			WithArgs(agentID, "PENDING").
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(decimal.NewFromInt(150_000)))

		total, err := repo.SumPendingByAgent(context.Background(), agentID)
		require.NoError(t, err)
		assert.True(t, total.Amount().Equal(decimal.NewFromInt(150_000)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates query errors", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) as total FROM "earned_commissions"`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.SumPendingByAgent(context.Background(), agentID)
		assert.Error(t, err)
	})
}

func TestGormCommissionPaymentRepository_SumByAgent_SQL(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormCommissionPaymentRepository(db)

	agentID := uuid.New()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) as total FROM "commission_payments" WHERE agent_id = \$1`).
		WithArgs(agentID).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(decimal.NewFromInt(30_000)))

	total, err := repo.SumByAgent(context.Background(), agentID)
	require.NoError(t, err)
	assert.True(t, total.Amount().Equal(decimal.NewFromInt(30_000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
