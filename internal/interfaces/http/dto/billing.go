package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eduops/backend/internal/domain/billing"
)

// CreateInvoiceItemRequest is one line item in an invoice creation request
type CreateInvoiceItemRequest struct {
	Description string          `json:"description" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	ItemType    string          `json:"item_type" binding:"omitempty,oneof=COURSE PRODUCT"`
	ItemID      *string         `json:"item_id" binding:"omitempty,uuid"`
}

// CreateInvoiceRequest represents an invoice creation request
type CreateInvoiceRequest struct {
	CustomerID       string                     `json:"customer_id" binding:"required,uuid"`
	AgentID          *string                    `json:"agent_id" binding:"omitempty,uuid"`
	Items            []CreateInvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentType      string                     `json:"payment_type" binding:"required,oneof=ONLINE CARD_TO_CARD MANUAL INSTALLMENT"`
	IsInstallment    bool                       `json:"is_installment"`
	InstallmentCount int                        `json:"installment_count" binding:"omitempty,min=2,max=36"`
	Notes            string                     `json:"notes"`
}

// RecordPaymentRequest represents a payment recording request
type RecordPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod   string          `json:"payment_method" binding:"required,oneof=CASH CARD_TO_CARD ONLINE_GATEWAY BANK_TRANSFER CHEQUE"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
}

// SubmitReceiptRequest represents a receipt submission request
type SubmitReceiptRequest struct {
	ReceiptRef string `json:"receipt_ref" binding:"required"`
}

// RejectReceiptRequest represents a receipt rejection request
type RejectReceiptRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SetCommissionRateRequest represents a commission rate configuration request
type SetCommissionRateRequest struct {
	ItemType string          `json:"item_type" binding:"required,oneof=COURSE PRODUCT"`
	ItemID   string          `json:"item_id" binding:"required,uuid"`
	Percent  decimal.Decimal `json:"percent" binding:"required"`
}

// AccrueCommissionRequest represents a commission accrual request
type AccrueCommissionRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required,uuid"`
	AgentID   string `json:"agent_id" binding:"required,uuid"`
	ItemType  string `json:"item_type" binding:"required,oneof=COURSE PRODUCT"`
	ItemID    string `json:"item_id" binding:"required,uuid"`
}

// SettleCommissionsRequest represents a commission settlement request
type SettleCommissionsRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod   string          `json:"payment_method" binding:"required,oneof=CASH CARD_TO_CARD ONLINE_GATEWAY BANK_TRANSFER CHEQUE"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
}

// InvoiceListRequest represents invoice list query parameters
type InvoiceListRequest struct {
	ListRequest
	CustomerID   string `form:"customer_id" binding:"omitempty,uuid"`
	AgentID      string `form:"agent_id" binding:"omitempty,uuid"`
	Status       string `form:"status" binding:"omitempty,oneof=PENDING PARTIALLY_PAID PAID"`
	PaymentType  string `form:"payment_type" binding:"omitempty,oneof=ONLINE CARD_TO_CARD MANUAL INSTALLMENT"`
	ReviewStatus string `form:"review_status" binding:"omitempty,oneof=PENDING_REVIEW APPROVED REJECTED"`
}

// InvoiceItemResponse is the API shape of an invoice line item
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	ItemType    string          `json:"item_type,omitempty"`
	ItemID      *uuid.UUID      `json:"item_id,omitempty"`
}

// InstallmentResponse is the API shape of an installment
type InstallmentResponse struct {
	ID      uuid.UUID       `json:"id"`
	Number  int             `json:"number"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
	Status  string          `json:"status"`
	PaidAt  *time.Time      `json:"paid_at,omitempty"`
	Notes   string          `json:"notes,omitempty"`
}

// PaymentRecordResponse is the API shape of a payment record
type PaymentRecordResponse struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	InstallmentID   *uuid.UUID      `json:"installment_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	RecordedBy      uuid.UUID       `json:"recorded_by"`
	RecordedAt      time.Time       `json:"recorded_at"`
}

// InvoiceResponse is the API shape of an invoice
type InvoiceResponse struct {
	ID             uuid.UUID               `json:"id"`
	InvoiceNumber  string                  `json:"invoice_number"`
	CustomerID     uuid.UUID               `json:"customer_id"`
	AgentID        *uuid.UUID              `json:"agent_id,omitempty"`
	TotalAmount    decimal.Decimal         `json:"total_amount"`
	PaidAmount     decimal.Decimal         `json:"paid_amount"`
	Outstanding    decimal.Decimal         `json:"outstanding_amount"`
	Status         string                  `json:"status"`
	PaymentType    string                  `json:"payment_type"`
	IsInstallment  bool                    `json:"is_installment"`
	Notes          string                  `json:"notes,omitempty"`
	ReceiptRef     string                  `json:"receipt_ref,omitempty"`
	ReviewStatus   string                  `json:"review_status,omitempty"`
	RejectReason   string                  `json:"reject_reason,omitempty"`
	Items          []InvoiceItemResponse   `json:"items"`
	Installments   []InstallmentResponse   `json:"installments,omitempty"`
	PaymentRecords []PaymentRecordResponse `json:"payment_records,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// OverdueInstallmentResponse is the API shape of an overdue installment view
type OverdueInstallmentResponse struct {
	InstallmentResponse
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
}

// CommissionRateResponse is the API shape of a commission rate
type CommissionRateResponse struct {
	ID       uuid.UUID       `json:"id"`
	AgentID  uuid.UUID       `json:"agent_id"`
	ItemType string          `json:"item_type"`
	ItemID   uuid.UUID       `json:"item_id"`
	Percent  decimal.Decimal `json:"percent"`
	IsActive bool            `json:"is_active"`
}

// EarnedCommissionResponse is the API shape of an earned commission
type EarnedCommissionResponse struct {
	ID                  uuid.UUID       `json:"id"`
	AgentID             uuid.UUID       `json:"agent_id"`
	InvoiceID           uuid.UUID       `json:"invoice_id"`
	Amount              decimal.Decimal `json:"amount"`
	Status              string          `json:"status"`
	CommissionPaymentID *uuid.UUID      `json:"commission_payment_id,omitempty"`
	AccruedAt           time.Time       `json:"accrued_at"`
}

// CommissionPaymentResponse is the API shape of a commission payout
type CommissionPaymentResponse struct {
	ID              uuid.UUID       `json:"id"`
	AgentID         uuid.UUID       `json:"agent_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	PaidBy          uuid.UUID       `json:"paid_by"`
	PaidAt          time.Time       `json:"paid_at"`
}

// PendingBalanceResponse is the API shape of an agent's pending balance
type PendingBalanceResponse struct {
	AgentID        uuid.UUID       `json:"agent_id"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
}

// FromInvoice converts a domain invoice to its API shape
func FromInvoice(inv *billing.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		AgentID:       inv.AgentID,
		TotalAmount:   inv.TotalAmount.Amount(),
		PaidAmount:    inv.PaidAmount.Amount(),
		Outstanding:   inv.OutstandingAmount().Amount(),
		Status:        string(inv.Status),
		PaymentType:   string(inv.PaymentType),
		IsInstallment: inv.IsInstallment,
		Notes:         inv.Notes,
		ReceiptRef:    inv.ReceiptRef,
		ReviewStatus:  string(inv.ReviewStatus),
		RejectReason:  inv.RejectReason,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	resp.Items = make([]InvoiceItemResponse, 0, len(inv.Items))
	for i := range inv.Items {
		resp.Items = append(resp.Items, FromInvoiceItem(&inv.Items[i]))
	}
	for i := range inv.Installments {
		resp.Installments = append(resp.Installments, FromInstallment(&inv.Installments[i]))
	}
	for i := range inv.PaymentRecords {
		resp.PaymentRecords = append(resp.PaymentRecords, FromPaymentRecord(&inv.PaymentRecords[i]))
	}
	return resp
}

// FromInvoiceItem converts a domain invoice item to its API shape
func FromInvoiceItem(item *billing.InvoiceItem) InvoiceItemResponse {
	return InvoiceItemResponse{
		ID:          item.ID,
		Description: item.Description,
		UnitPrice:   item.UnitPrice.Amount(),
		Quantity:    item.Quantity,
		TotalPrice:  item.TotalPrice.Amount(),
		ItemType:    string(item.ItemType),
		ItemID:      item.ItemID,
	}
}

// FromInstallment converts a domain installment to its API shape
func FromInstallment(inst *billing.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:      inst.ID,
		Number:  inst.Number,
		Amount:  inst.Amount.Amount(),
		DueDate: inst.DueDate,
		Status:  string(inst.Status),
		PaidAt:  inst.PaidAt,
		Notes:   inst.Notes,
	}
}

// FromPaymentRecord converts a domain payment record to its API shape
func FromPaymentRecord(rec *billing.PaymentRecord) PaymentRecordResponse {
	return PaymentRecordResponse{
		ID:              rec.ID,
		InvoiceID:       rec.InvoiceID,
		InstallmentID:   rec.InstallmentID,
		Amount:          rec.Amount.Amount(),
		PaymentMethod:   rec.PaymentMethod,
		ReferenceNumber: rec.ReferenceNumber,
		Notes:           rec.Notes,
		RecordedBy:      rec.RecordedBy,
		RecordedAt:      rec.CreatedAt,
	}
}

// FromOverdueInstallment converts an overdue installment view to its API shape
func FromOverdueInstallment(o *billing.OverdueInstallment) OverdueInstallmentResponse {
	return OverdueInstallmentResponse{
		InstallmentResponse: FromInstallment(&o.Installment),
		InvoiceID:           o.Installment.InvoiceID,
		InvoiceNumber:       o.InvoiceNumber,
		CustomerID:          o.CustomerID,
	}
}

// FromCommissionRate converts a domain commission rate to its API shape
func FromCommissionRate(rate *billing.CommissionRate) CommissionRateResponse {
	return CommissionRateResponse{
		ID:       rate.ID,
		AgentID:  rate.AgentID,
		ItemType: string(rate.ItemType),
		ItemID:   rate.ItemID,
		Percent:  rate.Percent,
		IsActive: rate.IsActive,
	}
}

// FromEarnedCommission converts a domain earned commission to its API shape
func FromEarnedCommission(ec *billing.EarnedCommission) EarnedCommissionResponse {
	return EarnedCommissionResponse{
		ID:                  ec.ID,
		AgentID:             ec.AgentID,
		InvoiceID:           ec.InvoiceID,
		Amount:              ec.Amount.Amount(),
		Status:              string(ec.Status),
		CommissionPaymentID: ec.CommissionPaymentID,
		AccruedAt:           ec.CreatedAt,
	}
}

// FromCommissionPayment converts a domain commission payment to its API shape
func FromCommissionPayment(cp *billing.CommissionPayment) CommissionPaymentResponse {
	return CommissionPaymentResponse{
		ID:              cp.ID,
		AgentID:         cp.AgentID,
		Amount:          cp.Amount.Amount(),
		PaymentMethod:   cp.PaymentMethod,
		ReferenceNumber: cp.ReferenceNumber,
		Notes:           cp.Notes,
		PaidBy:          cp.PaidBy,
		PaidAt:          cp.CreatedAt,
	}
}
