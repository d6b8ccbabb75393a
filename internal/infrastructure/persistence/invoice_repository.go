package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
	"github.com/eduops/backend/internal/infrastructure/persistence/models"
)

func moneyFromDecimal(d decimal.Decimal) valueobject.Money {
	return valueobject.NewMoney(d, valueobject.DefaultCurrency)
}

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save creates or updates an invoice with its items, installments,
// and payment records
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Save(model).Error
}

// SaveWithLock saves the invoice with optimistic locking on the
// aggregate root. Child rows are upserted after the version check
// passes, so concurrent payments against the same invoice cannot
// both commit.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
		Omit(clause.Associations).
		Updates(map[string]interface{}{
			"paid_amount":    model.PaidAmount,
			"status":         model.Status,
			"is_installment": model.IsInstallment,
			"receipt_ref":    model.ReceiptRef,
			"review_status":  model.ReviewStatus,
			"reject_reason":  model.RejectReason,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	for i := range model.Installments {
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&model.Installments[i]).Error; err != nil {
			return err
		}
	}
	for i := range model.PaymentRecords {
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.PaymentRecords[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds an invoice by its ID, loading all child records
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.preloaded(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds an invoice by its document number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.preloaded(ctx).
		Where("invoice_number = ?", invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInstallmentID loads the invoice that owns the given installment
func (r *GormInvoiceRepository) FindByInstallmentID(ctx context.Context, installmentID uuid.UUID) (*billing.Invoice, error) {
	var installment models.InstallmentModel
	if err := r.db.WithContext(ctx).
		First(&installment, "id = ?", installmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, installment.InvoiceID)
}

// List returns a page of invoices matching the filter
func (r *GormInvoiceRepository) List(ctx context.Context, filter billing.InvoiceFilter) (shared.Paginated[*billing.Invoice], error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})
	query = applyInvoiceFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[*billing.Invoice]{}, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var invoiceModels []models.InvoiceModel
	if err := applyInvoiceFilter(r.preloaded(ctx), filter).
		Order(orderClause(filter.Filter)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&invoiceModels).Error; err != nil {
		return shared.Paginated[*billing.Invoice]{}, err
	}

	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return shared.NewPaginated(invoices, total, page, pageSize), nil
}

// FindOverdueInstallments returns unpaid installments past due as of
// the given time, joined with their invoices for display
func (r *GormInvoiceRepository) FindOverdueInstallments(ctx context.Context, asOf time.Time) ([]billing.OverdueInstallment, error) {
	var rows []struct {
		models.InstallmentModel
		InvoiceNumber string
		CustomerID    uuid.UUID
	}
	if err := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Select("installments.*, invoices.invoice_number, invoices.customer_id").
		Joins("JOIN invoices ON invoices.id = installments.invoice_id").
		Where("installments.status = ? AND installments.due_date < ?", billing.InstallmentStatusPending, asOf).
		Order("installments.due_date ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	overdue := make([]billing.OverdueInstallment, len(rows))
	for i := range rows {
		overdue[i] = billing.OverdueInstallment{
			Installment: billing.Installment{
				BaseEntity: rows[i].InstallmentModel.ToDomain(),
				InvoiceID:  rows[i].InvoiceID,
				Number:     rows[i].Number,
				Amount:     moneyFromDecimal(rows[i].Amount),
				DueDate:    rows[i].DueDate,
				Status:     rows[i].Status,
				PaidAt:     rows[i].PaidAt,
				Notes:      rows[i].Notes,
			},
			InvoiceNumber: rows[i].InvoiceNumber,
			CustomerID:    rows[i].CustomerID,
		}
	}
	return overdue, nil
}

// NextInvoiceNumber generates the next sequential document number
// for the given date. Format: AR-YYYYMMDD-NNNNN
func (r *GormInvoiceRepository) NextInvoiceNumber(ctx context.Context, date time.Time) (string, error) {
	prefix := fmt.Sprintf("AR-%s-", date.Format("20060102"))

	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("invoice_number").
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

func (r *GormInvoiceRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		Preload("PaymentRecords", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
}

func applyInvoiceFilter(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.AgentID != nil {
		query = query.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentType != nil {
		query = query.Where("payment_type = ?", *filter.PaymentType)
	}
	if filter.ReviewStatus != nil {
		query = query.Where("review_status = ?", *filter.ReviewStatus)
	}
	if filter.Search != "" {
		query = query.Where("invoice_number LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

func orderClause(filter shared.Filter) string {
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	dir := strings.ToUpper(filter.OrderDir)
	if dir != "ASC" && dir != "DESC" {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s", orderBy, dir)
}
