package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	AgentID       *uuid.UUID            `gorm:"type:uuid;index"`
	TotalAmount   decimal.Decimal       `gorm:"type:decimal(18,0);not null"`
	PaidAmount    decimal.Decimal       `gorm:"type:decimal(18,0);not null"`
	Status        billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentType   billing.PaymentType   `gorm:"type:varchar(20);not null"`
	IsInstallment bool                  `gorm:"not null;default:false"`
	Notes         string                `gorm:"type:text"`
	ReceiptRef    string                `gorm:"type:varchar(500)"`
	ReviewStatus  billing.ReviewStatus  `gorm:"type:varchar(20);index"`
	RejectReason  string                `gorm:"type:varchar(500)"`

	Items          []InvoiceItemModel   `gorm:"foreignKey:InvoiceID;references:ID"`
	Installments   []InstallmentModel   `gorm:"foreignKey:InvoiceID;references:ID"`
	PaymentRecords []PaymentRecordModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceItemModel is the persistence model for invoice line items.
type InvoiceItemModel struct {
	BaseModel
	InvoiceID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	Description string           `gorm:"type:varchar(500);not null"`
	UnitPrice   decimal.Decimal  `gorm:"type:decimal(18,0);not null"`
	Quantity    int              `gorm:"not null"`
	TotalPrice  decimal.Decimal  `gorm:"type:decimal(18,0);not null"`
	ItemType    billing.ItemType `gorm:"type:varchar(20)"`
	ItemID      *uuid.UUID       `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// InstallmentModel is the persistence model for installments.
type InstallmentModel struct {
	BaseModel
	InvoiceID uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_installment_invoice_number,priority:1"`
	Number    int                       `gorm:"not null;uniqueIndex:idx_installment_invoice_number,priority:2"`
	Amount    decimal.Decimal           `gorm:"type:decimal(18,0);not null"`
	DueDate   time.Time                 `gorm:"not null;index"`
	Status    billing.InstallmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaidAt    *time.Time
	Notes     string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "installments"
}

// PaymentRecordModel is the persistence model for the append-only
// payment audit trail.
type PaymentRecordModel struct {
	BaseModel
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	InstallmentID   *uuid.UUID      `gorm:"type:uuid;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,0);not null"`
	PaymentMethod   string          `gorm:"type:varchar(30);not null"`
	ReferenceNumber string          `gorm:"type:varchar(100)"`
	Notes           string          `gorm:"type:varchar(500)"`
	RecordedBy      uuid.UUID       `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (PaymentRecordModel) TableName() string {
	return "payment_records"
}

// ToDomain converts the persistence model to a domain Invoice aggregate.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		InvoiceNumber: m.InvoiceNumber,
		CustomerID:    m.CustomerID,
		AgentID:       m.AgentID,
		TotalAmount:   valueobject.NewMoney(m.TotalAmount, valueobject.DefaultCurrency),
		PaidAmount:    valueobject.NewMoney(m.PaidAmount, valueobject.DefaultCurrency),
		Status:        m.Status,
		PaymentType:   m.PaymentType,
		IsInstallment: m.IsInstallment,
		Notes:         m.Notes,
		ReceiptRef:    m.ReceiptRef,
		ReviewStatus:  m.ReviewStatus,
		RejectReason:  m.RejectReason,
	}
	m.PopulateAggregateRoot(&inv.BaseAggregateRoot)

	for i := range m.Items {
		inv.Items = append(inv.Items, m.Items[i].toDomain())
	}
	for i := range m.Installments {
		inv.Installments = append(inv.Installments, m.Installments[i].toDomain())
	}
	for i := range m.PaymentRecords {
		inv.PaymentRecords = append(inv.PaymentRecords, m.PaymentRecords[i].toDomain())
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice aggregate.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.AgentID = inv.AgentID
	m.TotalAmount = inv.TotalAmount.Amount()
	m.PaidAmount = inv.PaidAmount.Amount()
	m.Status = inv.Status
	m.PaymentType = inv.PaymentType
	m.IsInstallment = inv.IsInstallment
	m.Notes = inv.Notes
	m.ReceiptRef = inv.ReceiptRef
	m.ReviewStatus = inv.ReviewStatus
	m.RejectReason = inv.RejectReason

	m.Items = m.Items[:0]
	for i := range inv.Items {
		m.Items = append(m.Items, invoiceItemModelFromDomain(&inv.Items[i]))
	}
	m.Installments = m.Installments[:0]
	for i := range inv.Installments {
		m.Installments = append(m.Installments, installmentModelFromDomain(&inv.Installments[i]))
	}
	m.PaymentRecords = m.PaymentRecords[:0]
	for i := range inv.PaymentRecords {
		m.PaymentRecords = append(m.PaymentRecords, paymentRecordModelFromDomain(&inv.PaymentRecords[i]))
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

func (m *InvoiceItemModel) toDomain() billing.InvoiceItem {
	return billing.InvoiceItem{
		BaseEntity:  m.ToDomain(),
		InvoiceID:   m.InvoiceID,
		Description: m.Description,
		UnitPrice:   valueobject.NewMoney(m.UnitPrice, valueobject.DefaultCurrency),
		Quantity:    m.Quantity,
		TotalPrice:  valueobject.NewMoney(m.TotalPrice, valueobject.DefaultCurrency),
		ItemType:    m.ItemType,
		ItemID:      m.ItemID,
	}
}

func invoiceItemModelFromDomain(item *billing.InvoiceItem) InvoiceItemModel {
	m := InvoiceItemModel{
		InvoiceID:   item.InvoiceID,
		Description: item.Description,
		UnitPrice:   item.UnitPrice.Amount(),
		Quantity:    item.Quantity,
		TotalPrice:  item.TotalPrice.Amount(),
		ItemType:    item.ItemType,
		ItemID:      item.ItemID,
	}
	m.FromDomainBaseEntity(item.BaseEntity)
	return m
}

func (m *InstallmentModel) toDomain() billing.Installment {
	return billing.Installment{
		BaseEntity: m.ToDomain(),
		InvoiceID:  m.InvoiceID,
		Number:     m.Number,
		Amount:     valueobject.NewMoney(m.Amount, valueobject.DefaultCurrency),
		DueDate:    m.DueDate,
		Status:     m.Status,
		PaidAt:     m.PaidAt,
		Notes:      m.Notes,
	}
}

func installmentModelFromDomain(inst *billing.Installment) InstallmentModel {
	m := InstallmentModel{
		InvoiceID: inst.InvoiceID,
		Number:    inst.Number,
		Amount:    inst.Amount.Amount(),
		DueDate:   inst.DueDate,
		Status:    inst.Status,
		PaidAt:    inst.PaidAt,
		Notes:     inst.Notes,
	}
	m.FromDomainBaseEntity(inst.BaseEntity)
	return m
}

func (m *PaymentRecordModel) toDomain() billing.PaymentRecord {
	return billing.PaymentRecord{
		BaseEntity:      m.ToDomain(),
		InvoiceID:       m.InvoiceID,
		InstallmentID:   m.InstallmentID,
		Amount:          valueobject.NewMoney(m.Amount, valueobject.DefaultCurrency),
		PaymentMethod:   m.PaymentMethod,
		ReferenceNumber: m.ReferenceNumber,
		Notes:           m.Notes,
		RecordedBy:      m.RecordedBy,
	}
}

func paymentRecordModelFromDomain(rec *billing.PaymentRecord) PaymentRecordModel {
	m := PaymentRecordModel{
		InvoiceID:       rec.InvoiceID,
		InstallmentID:   rec.InstallmentID,
		Amount:          rec.Amount.Amount(),
		PaymentMethod:   rec.PaymentMethod,
		ReferenceNumber: rec.ReferenceNumber,
		Notes:           rec.Notes,
		RecordedBy:      rec.RecordedBy,
	}
	m.FromDomainBaseEntity(rec.BaseEntity)
	return m
}

// CommissionRateModel is the persistence model for agent commission rates.
// The partial unique index keeping one active rate per (agent, item) is
// created by migration; sqlite test databases rely on repository checks.
type CommissionRateModel struct {
	AggregateModel
	AgentID  uuid.UUID        `gorm:"type:uuid;not null;index:idx_commission_rate_agent_item"`
	ItemType billing.ItemType `gorm:"type:varchar(20);not null;index:idx_commission_rate_agent_item"`
	ItemID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_commission_rate_agent_item"`
	Percent  decimal.Decimal  `gorm:"type:decimal(5,2);not null"`
	IsActive bool             `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (CommissionRateModel) TableName() string {
	return "agent_commissions"
}

// ToDomain converts the persistence model to a domain CommissionRate.
func (m *CommissionRateModel) ToDomain() *billing.CommissionRate {
	rate := &billing.CommissionRate{
		AgentID:  m.AgentID,
		ItemType: m.ItemType,
		ItemID:   m.ItemID,
		Percent:  m.Percent,
		IsActive: m.IsActive,
	}
	m.PopulateAggregateRoot(&rate.BaseAggregateRoot)
	return rate
}

// FromDomain populates the persistence model from a domain CommissionRate.
func (m *CommissionRateModel) FromDomain(rate *billing.CommissionRate) {
	m.FromDomainAggregateRoot(rate.BaseAggregateRoot)
	m.AgentID = rate.AgentID
	m.ItemType = rate.ItemType
	m.ItemID = rate.ItemID
	m.Percent = rate.Percent
	m.IsActive = rate.IsActive
}

// CommissionRateModelFromDomain creates a new persistence model from a domain CommissionRate.
func CommissionRateModelFromDomain(rate *billing.CommissionRate) *CommissionRateModel {
	m := &CommissionRateModel{}
	m.FromDomain(rate)
	return m
}

// EarnedCommissionModel is the persistence model for accrued commissions.
type EarnedCommissionModel struct {
	AggregateModel
	AgentID             uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_earned_invoice_agent,priority:2;index"`
	InvoiceID           uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_earned_invoice_agent,priority:1"`
	RateID              uuid.UUID                `gorm:"type:uuid;not null"`
	Amount              decimal.Decimal          `gorm:"type:decimal(18,0);not null"`
	Status              billing.CommissionStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	CommissionPaymentID *uuid.UUID               `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (EarnedCommissionModel) TableName() string {
	return "earned_commissions"
}

// ToDomain converts the persistence model to a domain EarnedCommission.
func (m *EarnedCommissionModel) ToDomain() *billing.EarnedCommission {
	ec := &billing.EarnedCommission{
		AgentID:             m.AgentID,
		InvoiceID:           m.InvoiceID,
		RateID:              m.RateID,
		Amount:              valueobject.NewMoney(m.Amount, valueobject.DefaultCurrency),
		Status:              m.Status,
		CommissionPaymentID: m.CommissionPaymentID,
	}
	m.PopulateAggregateRoot(&ec.BaseAggregateRoot)
	return ec
}

// FromDomain populates the persistence model from a domain EarnedCommission.
func (m *EarnedCommissionModel) FromDomain(ec *billing.EarnedCommission) {
	m.FromDomainAggregateRoot(ec.BaseAggregateRoot)
	m.AgentID = ec.AgentID
	m.InvoiceID = ec.InvoiceID
	m.RateID = ec.RateID
	m.Amount = ec.Amount.Amount()
	m.Status = ec.Status
	m.CommissionPaymentID = ec.CommissionPaymentID
}

// EarnedCommissionModelFromDomain creates a new persistence model from a domain EarnedCommission.
func EarnedCommissionModelFromDomain(ec *billing.EarnedCommission) *EarnedCommissionModel {
	m := &EarnedCommissionModel{}
	m.FromDomain(ec)
	return m
}

// CommissionPaymentModel is the persistence model for commission payouts.
type CommissionPaymentModel struct {
	AggregateModel
	AgentID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,0);not null"`
	PaymentMethod   string          `gorm:"type:varchar(30);not null"`
	ReferenceNumber string          `gorm:"type:varchar(100)"`
	Notes           string          `gorm:"type:varchar(500)"`
	PaidBy          uuid.UUID       `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (CommissionPaymentModel) TableName() string {
	return "commission_payments"
}

// ToDomain converts the persistence model to a domain CommissionPayment.
func (m *CommissionPaymentModel) ToDomain() *billing.CommissionPayment {
	cp := &billing.CommissionPayment{
		AgentID:         m.AgentID,
		Amount:          valueobject.NewMoney(m.Amount, valueobject.DefaultCurrency),
		PaymentMethod:   m.PaymentMethod,
		ReferenceNumber: m.ReferenceNumber,
		Notes:           m.Notes,
		PaidBy:          m.PaidBy,
	}
	m.PopulateAggregateRoot(&cp.BaseAggregateRoot)
	return cp
}

// FromDomain populates the persistence model from a domain CommissionPayment.
func (m *CommissionPaymentModel) FromDomain(cp *billing.CommissionPayment) {
	m.FromDomainAggregateRoot(cp.BaseAggregateRoot)
	m.AgentID = cp.AgentID
	m.Amount = cp.Amount.Amount()
	m.PaymentMethod = cp.PaymentMethod
	m.ReferenceNumber = cp.ReferenceNumber
	m.Notes = cp.Notes
	m.PaidBy = cp.PaidBy
}

// CommissionPaymentModelFromDomain creates a new persistence model from a domain CommissionPayment.
func CommissionPaymentModelFromDomain(cp *billing.CommissionPayment) *CommissionPaymentModel {
	m := &CommissionPaymentModel{}
	m.FromDomain(cp)
	return m
}
