package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/eduops/backend/internal/domain/billing"
)

// GormUnitOfWork implements billing.UnitOfWork on top of a gorm
// database transaction. Repositories handed to the callback are bound
// to the open transaction, so every write inside the callback commits
// or rolls back as one unit.
type GormUnitOfWork struct {
	db *Database
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *Database) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside a transaction with tx-bound repositories
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(repos billing.Repositories) error) error {
	return u.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// NewRepositories builds the billing repository bundle on the given
// database handle (a connection or an open transaction)
func NewRepositories(db *gorm.DB) billing.Repositories {
	return billing.Repositories{
		Invoices:           NewGormInvoiceRepository(db),
		CommissionRates:    NewGormCommissionRateRepository(db),
		EarnedCommissions:  NewGormEarnedCommissionRepository(db),
		CommissionPayments: NewGormCommissionPaymentRepository(db),
	}
}
