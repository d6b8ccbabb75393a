package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
	"github.com/eduops/backend/internal/infrastructure/persistence/models"
)

// GormCommissionRateRepository implements billing.CommissionRateRepository using GORM
type GormCommissionRateRepository struct {
	db *gorm.DB
}

// NewGormCommissionRateRepository creates a new GormCommissionRateRepository
func NewGormCommissionRateRepository(db *gorm.DB) *GormCommissionRateRepository {
	return &GormCommissionRateRepository{db: db}
}

// Save creates or updates a commission rate
func (r *GormCommissionRateRepository) Save(ctx context.Context, rate *billing.CommissionRate) error {
	model := models.CommissionRateModelFromDomain(rate)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a commission rate by its ID
func (r *GormCommissionRateRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.CommissionRate, error) {
	var model models.CommissionRateModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByItem returns the agent's active rate for a catalog item
func (r *GormCommissionRateRepository) FindActiveByItem(ctx context.Context, agentID uuid.UUID, itemType billing.ItemType, itemID uuid.UUID) (*billing.CommissionRate, error) {
	var model models.CommissionRateModel
	if err := r.db.WithContext(ctx).
		Where("agent_id = ? AND item_type = ? AND item_id = ? AND is_active = ?", agentID, itemType, itemID, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByAgent returns all rates configured for an agent
func (r *GormCommissionRateRepository) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*billing.CommissionRate, error) {
	var rateModels []models.CommissionRateModel
	if err := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Find(&rateModels).Error; err != nil {
		return nil, err
	}
	rates := make([]*billing.CommissionRate, len(rateModels))
	for i := range rateModels {
		rates[i] = rateModels[i].ToDomain()
	}
	return rates, nil
}

// GormEarnedCommissionRepository implements billing.EarnedCommissionRepository using GORM
type GormEarnedCommissionRepository struct {
	db *gorm.DB
}

// NewGormEarnedCommissionRepository creates a new GormEarnedCommissionRepository
func NewGormEarnedCommissionRepository(db *gorm.DB) *GormEarnedCommissionRepository {
	return &GormEarnedCommissionRepository{db: db}
}

// Save creates or updates an earned commission
func (r *GormEarnedCommissionRepository) Save(ctx context.Context, commission *billing.EarnedCommission) error {
	model := models.EarnedCommissionModelFromDomain(commission)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormEarnedCommissionRepository) SaveWithLock(ctx context.Context, commission *billing.EarnedCommission) error {
	model := models.EarnedCommissionModelFromDomain(commission)
	result := r.db.WithContext(ctx).
		Model(&models.EarnedCommissionModel{}).
		Where("id = ? AND version = ?", commission.ID, commission.Version-1).
		Updates(map[string]interface{}{
			"status":                model.Status,
			"commission_payment_id": model.CommissionPaymentID,
			"version":               model.Version,
			"updated_at":            model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds an earned commission by its ID
func (r *GormEarnedCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.EarnedCommission, error) {
	var model models.EarnedCommissionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPendingByAgent returns the agent's pending commissions in
// accrual order
func (r *GormEarnedCommissionRepository) FindPendingByAgent(ctx context.Context, agentID uuid.UUID) ([]*billing.EarnedCommission, error) {
	var commissionModels []models.EarnedCommissionModel
	if err := r.db.WithContext(ctx).
		Where("agent_id = ? AND status = ?", agentID, billing.CommissionStatusPending).
		Order("created_at ASC").
		Find(&commissionModels).Error; err != nil {
		return nil, err
	}
	commissions := make([]*billing.EarnedCommission, len(commissionModels))
	for i := range commissionModels {
		commissions[i] = commissionModels[i].ToDomain()
	}
	return commissions, nil
}

// ExistsForInvoiceAndAgent reports whether a commission was already
// accrued for this invoice/agent pairing
func (r *GormEarnedCommissionRepository) ExistsForInvoiceAndAgent(ctx context.Context, invoiceID, agentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.EarnedCommissionModel{}).
		Where("invoice_id = ? AND agent_id = ?", invoiceID, agentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SumPendingByAgent sums the agent's pending commission amounts
func (r *GormEarnedCommissionRepository) SumPendingByAgent(ctx context.Context, agentID uuid.UUID) (valueobject.Money, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.EarnedCommissionModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("agent_id = ? AND status = ?", agentID, billing.CommissionStatusPending).
		Scan(&result).Error; err != nil {
		return valueobject.ZeroMoney(), err
	}
	return moneyFromDecimal(result.Total), nil
}

// GormCommissionPaymentRepository implements billing.CommissionPaymentRepository using GORM
type GormCommissionPaymentRepository struct {
	db *gorm.DB
}

// NewGormCommissionPaymentRepository creates a new GormCommissionPaymentRepository
func NewGormCommissionPaymentRepository(db *gorm.DB) *GormCommissionPaymentRepository {
	return &GormCommissionPaymentRepository{db: db}
}

// Save creates or updates a commission payment
func (r *GormCommissionPaymentRepository) Save(ctx context.Context, payment *billing.CommissionPayment) error {
	model := models.CommissionPaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a commission payment by its ID
func (r *GormCommissionPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.CommissionPayment, error) {
	var model models.CommissionPaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByAgent returns an agent's payouts, newest first
func (r *GormCommissionPaymentRepository) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*billing.CommissionPayment, error) {
	var paymentModels []models.CommissionPaymentModel
	if err := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]*billing.CommissionPayment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments, nil
}

// SumByAgent sums all payouts ever made to an agent
func (r *GormCommissionPaymentRepository) SumByAgent(ctx context.Context, agentID uuid.UUID) (valueobject.Money, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.CommissionPaymentModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("agent_id = ?", agentID).
		Scan(&result).Error; err != nil {
		return valueobject.ZeroMoney(), err
	}
	return moneyFromDecimal(result.Total), nil
}
