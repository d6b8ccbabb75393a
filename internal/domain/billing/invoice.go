package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending       InvoiceStatus = "PENDING"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
)

// PaymentType represents how the customer intends to pay an invoice
type PaymentType string

const (
	PaymentTypeOnline      PaymentType = "ONLINE"
	PaymentTypeCardToCard  PaymentType = "CARD_TO_CARD"
	PaymentTypeManual      PaymentType = "MANUAL"
	PaymentTypeInstallment PaymentType = "INSTALLMENT"
)

// ReviewStatus represents the review state of a manually-uploaded receipt
type ReviewStatus string

const (
	ReviewStatusNone          ReviewStatus = ""
	ReviewStatusPendingReview ReviewStatus = "PENDING_REVIEW"
	ReviewStatusApproved      ReviewStatus = "APPROVED"
	ReviewStatusRejected      ReviewStatus = "REJECTED"
)

// Payment methods accepted when recording a payment
const (
	PaymentMethodCash          = "CASH"
	PaymentMethodCardToCard    = "CARD_TO_CARD"
	PaymentMethodOnlineGateway = "ONLINE_GATEWAY"
	PaymentMethodBankTransfer  = "BANK_TRANSFER"
	PaymentMethodCheque        = "CHEQUE"
)

// InstallmentStatus represents the payment status of a single installment
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING"
	InstallmentStatusPaid    InstallmentStatus = "PAID"
)

// ItemType identifies the catalog category an invoice item refers to
type ItemType string

const (
	ItemTypeCourse  ItemType = "COURSE"
	ItemTypeProduct ItemType = "PRODUCT"
)

// Billing-specific domain errors
var (
	ErrOverpaymentRejected = shared.NewDomainError("OVERPAYMENT_REJECTED", "Payment amount exceeds the invoice's remaining balance")
	ErrInvalidReceiptState = shared.NewDomainError("INVALID_RECEIPT_STATE", "Invoice has no receipt pending review")
	ErrAmountMismatch      = shared.NewDomainError("AMOUNT_MISMATCH", "Settlement amount does not match the agent's pending balance")
)

// InvoiceItem is a line item belonging to an invoice.
// Items are immutable after invoice creation.
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID   uuid.UUID
	Description string
	UnitPrice   valueobject.Money
	Quantity    int
	TotalPrice  valueobject.Money
	ItemType    ItemType
	ItemID      *uuid.UUID
}

// Installment is one dated slice of an invoice's balance
type Installment struct {
	shared.BaseEntity
	InvoiceID uuid.UUID
	Number    int
	Amount    valueobject.Money
	DueDate   time.Time
	Status    InstallmentStatus
	PaidAt    *time.Time
	Notes     string
}

// IsOverdue reports whether the installment is past due and unpaid
func (i *Installment) IsOverdue(now time.Time) bool {
	return i.Status == InstallmentStatusPending && i.DueDate.Before(now)
}

// PaymentRecord is an append-only audit entry of money received
// against an invoice. Never mutated or deleted.
type PaymentRecord struct {
	shared.BaseEntity
	InvoiceID       uuid.UUID
	InstallmentID   *uuid.UUID
	Amount          valueobject.Money
	PaymentMethod   string
	ReferenceNumber string
	Notes           string
	RecordedBy      uuid.UUID
}

// Invoice is the aggregate root for a customer's billable obligation.
// It owns its line items, installment plan, and payment records.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber  string
	CustomerID     uuid.UUID
	AgentID        *uuid.UUID
	TotalAmount    valueobject.Money
	PaidAmount     valueobject.Money
	Status         InvoiceStatus
	PaymentType    PaymentType
	IsInstallment  bool
	Notes          string
	ReceiptRef     string
	ReviewStatus   ReviewStatus
	RejectReason   string
	Items          []InvoiceItem
	Installments   []Installment
	PaymentRecords []PaymentRecord
}

// InvoiceItemInput carries caller-supplied line item data. The total
// price is always recomputed from unit price and quantity.
type InvoiceItemInput struct {
	Description string
	UnitPrice   valueobject.Money
	Quantity    int
	ItemType    ItemType
	ItemID      *uuid.UUID
}

// NewInvoice creates an invoice with its line items. The total amount
// is the sum of recomputed item totals; the caller never supplies it.
func NewInvoice(invoiceNumber string, customerID uuid.UUID, agentID *uuid.UUID, items []InvoiceItemInput, paymentType PaymentType, isInstallment bool, notes string) (*Invoice, error) {
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice number is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Customer ID is required")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice must have at least one item")
	}
	switch paymentType {
	case PaymentTypeOnline, PaymentTypeCardToCard, PaymentTypeManual, PaymentTypeInstallment:
	default:
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid payment type: %s", paymentType))
	}

	invoice := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		CustomerID:        customerID,
		AgentID:           agentID,
		PaidAmount:        valueobject.ZeroMoney(),
		Status:            InvoiceStatusPending,
		PaymentType:       paymentType,
		IsInstallment:     isInstallment,
		Notes:             notes,
		ReviewStatus:      ReviewStatusNone,
	}

	total := valueobject.ZeroMoney()
	for _, in := range items {
		if strings.TrimSpace(in.Description) == "" {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Item description is required")
		}
		if in.Quantity <= 0 {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Item quantity must be positive")
		}
		if in.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Item unit price cannot be negative")
		}
		totalPrice := in.UnitPrice.Multiply(decimalFromInt(in.Quantity))
		item := InvoiceItem{
			BaseEntity:  shared.NewBaseEntity(),
			InvoiceID:   invoice.ID,
			Description: in.Description,
			UnitPrice:   in.UnitPrice,
			Quantity:    in.Quantity,
			TotalPrice:  totalPrice,
			ItemType:    in.ItemType,
			ItemID:      in.ItemID,
		}
		invoice.Items = append(invoice.Items, item)
		var err error
		total, err = total.Add(totalPrice)
		if err != nil {
			return nil, shared.NewDomainError("VALIDATION_ERROR", err.Error())
		}
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice total must be positive")
	}
	invoice.TotalAmount = total

	invoice.AddDomainEvent(NewInvoiceCreatedEvent(invoice.ID, invoice.InvoiceNumber, invoice.CustomerID, total))
	return invoice, nil
}

// DeriveStatus computes the invoice status from paid vs total amount
func DeriveStatus(paid, total valueobject.Money) InvoiceStatus {
	if !paid.LessThan(total) {
		return InvoiceStatusPaid
	}
	if paid.IsPositive() {
		return InvoiceStatusPartiallyPaid
	}
	return InvoiceStatusPending
}

// OutstandingAmount returns the unpaid balance
func (inv *Invoice) OutstandingAmount() valueobject.Money {
	out, err := inv.TotalAmount.Subtract(inv.PaidAmount)
	if err != nil {
		return valueobject.ZeroMoney()
	}
	return out
}

// PlanInstallments splits the outstanding balance into count dated
// obligations one calendar month apart, the first due immediately.
// Any rounding remainder is carried by the final installment so the
// plan always sums to the balance at planning time. Planning twice
// is rejected.
func (inv *Invoice) PlanInstallments(count int, startDate time.Time) error {
	if count < 2 {
		return shared.NewDomainError("VALIDATION_ERROR", "Installment count must be at least 2")
	}
	if len(inv.Installments) > 0 {
		return shared.NewDomainError("INVALID_STATE", "Invoice already has an installment plan")
	}
	if inv.Status == InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot plan installments on a paid invoice")
	}

	balance := inv.OutstandingAmount()
	if !balance.IsPositive() {
		return shared.NewDomainError("INVALID_STATE", "Invoice has no outstanding balance to plan")
	}

	amounts, err := balance.Split(count)
	if err != nil {
		return shared.NewDomainError("VALIDATION_ERROR", err.Error())
	}

	for i := 0; i < count; i++ {
		inv.Installments = append(inv.Installments, Installment{
			BaseEntity: shared.NewBaseEntity(),
			InvoiceID:  inv.ID,
			Number:     i + 1,
			Amount:     amounts[i],
			DueDate:    startDate.AddDate(0, i, 0),
			Status:     InstallmentStatusPending,
		})
	}
	inv.IsInstallment = true
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInstallmentPlanCreatedEvent(inv.ID, count, balance))
	return nil
}

// RecordPayment appends a payment record and raises the paid amount.
// Rejects payments that would push the paid amount past the total.
func (inv *Invoice) RecordPayment(amount valueobject.Money, method, reference, notes string, recordedBy uuid.UUID) (*PaymentRecord, error) {
	record, err := inv.recordPayment(nil, amount, method, reference, notes, recordedBy)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// SettleInstallment records a payment against a specific installment
// and marks it paid. The recorded amount may differ from the planned
// installment amount; only the invoice-level overpayment check applies.
func (inv *Invoice) SettleInstallment(installmentID uuid.UUID, amount valueobject.Money, method, reference, notes string, recordedBy uuid.UUID) (*PaymentRecord, error) {
	var target *Installment
	for i := range inv.Installments {
		if inv.Installments[i].ID == installmentID {
			target = &inv.Installments[i]
			break
		}
	}
	if target == nil {
		return nil, shared.ErrNotFound
	}
	if target.Status == InstallmentStatusPaid {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Installment %d is already paid", target.Number))
	}

	record, err := inv.recordPayment(&installmentID, amount, method, reference, notes, recordedBy)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	target.Status = InstallmentStatusPaid
	target.PaidAt = &now
	target.UpdatedAt = now
	inv.AddDomainEvent(NewInstallmentPaidEvent(inv.ID, installmentID, target.Number, amount))
	return record, nil
}

func (inv *Invoice) recordPayment(installmentID *uuid.UUID, amount valueobject.Money, method, reference, notes string, recordedBy uuid.UUID) (*PaymentRecord, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	if !validPaymentMethod(method) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid payment method: %s", method))
	}
	if recordedBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Recording actor is required")
	}

	newPaid, err := inv.PaidAmount.Add(amount)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", err.Error())
	}
	if newPaid.GreaterThan(inv.TotalAmount) {
		return nil, ErrOverpaymentRejected
	}

	record := PaymentRecord{
		BaseEntity:      shared.NewBaseEntity(),
		InvoiceID:       inv.ID,
		InstallmentID:   installmentID,
		Amount:          amount,
		PaymentMethod:   method,
		ReferenceNumber: reference,
		Notes:           notes,
		RecordedBy:      recordedBy,
	}
	inv.PaymentRecords = append(inv.PaymentRecords, record)

	previousStatus := inv.Status
	inv.PaidAmount = newPaid
	inv.Status = DeriveStatus(inv.PaidAmount, inv.TotalAmount)
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewPaymentRecordedEvent(inv.ID, record.ID, amount, method, inv.PaidAmount))
	if inv.Status == InvoiceStatusPaid && previousStatus != InvoiceStatusPaid {
		inv.AddDomainEvent(NewInvoicePaidEvent(inv.ID, inv.InvoiceNumber, inv.CustomerID, inv.TotalAmount))
	}
	return &inv.PaymentRecords[len(inv.PaymentRecords)-1], nil
}

// SubmitReceipt attaches a manually-uploaded receipt reference and
// puts the invoice into review. A rejected receipt may be resubmitted.
func (inv *Invoice) SubmitReceipt(receiptRef string) error {
	if strings.TrimSpace(receiptRef) == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Receipt reference is required")
	}
	if inv.Status == InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already paid")
	}
	if inv.ReviewStatus == ReviewStatusPendingReview {
		return shared.NewDomainError("INVALID_STATE", "A receipt is already pending review")
	}
	inv.ReceiptRef = receiptRef
	inv.ReviewStatus = ReviewStatusPendingReview
	inv.RejectReason = ""
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewReceiptSubmittedEvent(inv.ID, receiptRef))
	return nil
}

// ApproveReceipt approves a pending receipt, settling the invoice in
// full. Fails if no receipt is pending review.
func (inv *Invoice) ApproveReceipt() error {
	if inv.ReviewStatus != ReviewStatusPendingReview {
		return ErrInvalidReceiptState
	}
	previousStatus := inv.Status
	inv.PaidAmount = inv.TotalAmount
	inv.Status = InvoiceStatusPaid
	inv.ReviewStatus = ReviewStatusApproved
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewReceiptApprovedEvent(inv.ID, inv.ReceiptRef))
	if previousStatus != InvoiceStatusPaid {
		inv.AddDomainEvent(NewInvoicePaidEvent(inv.ID, inv.InvoiceNumber, inv.CustomerID, inv.TotalAmount))
	}
	return nil
}

// RejectReceipt rejects a pending receipt with a reason, leaving all
// amounts untouched so the customer can resubmit.
func (inv *Invoice) RejectReceipt(reason string) error {
	if inv.ReviewStatus != ReviewStatusPendingReview {
		return ErrInvalidReceiptState
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Rejection reason is required")
	}
	inv.ReviewStatus = ReviewStatusRejected
	inv.RejectReason = reason
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewReceiptRejectedEvent(inv.ID, inv.ReceiptRef, reason))
	return nil
}

// FindItemByRef returns the line item matching a catalog reference
func (inv *Invoice) FindItemByRef(itemType ItemType, itemID uuid.UUID) *InvoiceItem {
	for i := range inv.Items {
		item := &inv.Items[i]
		if item.ItemType == itemType && item.ItemID != nil && *item.ItemID == itemID {
			return item
		}
	}
	return nil
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func validPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCardToCard, PaymentMethodOnlineGateway, PaymentMethodBankTransfer, PaymentMethodCheque:
		return true
	}
	return false
}
