package billing

import (
	"github.com/google/uuid"

	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/domain/shared/valueobject"
)

// Invoice event types
const (
	EventTypeInvoiceCreated     = "billing.invoice.created"
	EventTypeInstallmentPlanned = "billing.invoice.installment_plan_created"
	EventTypePaymentRecorded    = "billing.invoice.payment_recorded"
	EventTypeInstallmentPaid    = "billing.invoice.installment_paid"
	EventTypeInvoicePaid        = "billing.invoice.paid"
	EventTypeReceiptSubmitted   = "billing.invoice.receipt_submitted"
	EventTypeReceiptApproved    = "billing.invoice.receipt_approved"
	EventTypeReceiptRejected    = "billing.invoice.receipt_rejected"
)

// InvoiceCreatedEvent is raised when a new invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string            `json:"invoice_number"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	TotalAmount   valueobject.Money `json:"total_amount"`
}

func NewInvoiceCreatedEvent(invoiceID uuid.UUID, invoiceNumber string, customerID uuid.UUID, total valueobject.Money) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, "Invoice", invoiceID),
		InvoiceNumber:   invoiceNumber,
		CustomerID:      customerID,
		TotalAmount:     total,
	}
}

// InstallmentPlanCreatedEvent is raised when an installment plan is created
type InstallmentPlanCreatedEvent struct {
	shared.BaseDomainEvent
	Count          int               `json:"count"`
	PlannedBalance valueobject.Money `json:"planned_balance"`
}

func NewInstallmentPlanCreatedEvent(invoiceID uuid.UUID, count int, balance valueobject.Money) *InstallmentPlanCreatedEvent {
	return &InstallmentPlanCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentPlanned, "Invoice", invoiceID),
		Count:           count,
		PlannedBalance:  balance,
	}
}

// PaymentRecordedEvent is raised for every recorded payment
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentRecordID uuid.UUID         `json:"payment_record_id"`
	Amount          valueobject.Money `json:"amount"`
	PaymentMethod   string            `json:"payment_method"`
	PaidAmount      valueobject.Money `json:"paid_amount"`
}

func NewPaymentRecordedEvent(invoiceID, recordID uuid.UUID, amount valueobject.Money, method string, paidAmount valueobject.Money) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, "Invoice", invoiceID),
		PaymentRecordID: recordID,
		Amount:          amount,
		PaymentMethod:   method,
		PaidAmount:      paidAmount,
	}
}

// InstallmentPaidEvent is raised when an installment is settled
type InstallmentPaidEvent struct {
	shared.BaseDomainEvent
	InstallmentID     uuid.UUID         `json:"installment_id"`
	InstallmentNumber int               `json:"installment_number"`
	Amount            valueobject.Money `json:"amount"`
}

func NewInstallmentPaidEvent(invoiceID, installmentID uuid.UUID, number int, amount valueobject.Money) *InstallmentPaidEvent {
	return &InstallmentPaidEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeInstallmentPaid, "Invoice", invoiceID),
		InstallmentID:     installmentID,
		InstallmentNumber: number,
		Amount:            amount,
	}
}

// InvoicePaidEvent is raised when an invoice becomes fully paid.
// External collaborators (webhook dispatcher) subscribe to this.
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string            `json:"invoice_number"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	TotalAmount   valueobject.Money `json:"total_amount"`
}

func NewInvoicePaidEvent(invoiceID uuid.UUID, invoiceNumber string, customerID uuid.UUID, total valueobject.Money) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, "Invoice", invoiceID),
		InvoiceNumber:   invoiceNumber,
		CustomerID:      customerID,
		TotalAmount:     total,
	}
}

// ReceiptSubmittedEvent is raised when a receipt enters review
type ReceiptSubmittedEvent struct {
	shared.BaseDomainEvent
	ReceiptRef string `json:"receipt_ref"`
}

func NewReceiptSubmittedEvent(invoiceID uuid.UUID, receiptRef string) *ReceiptSubmittedEvent {
	return &ReceiptSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptSubmitted, "Invoice", invoiceID),
		ReceiptRef:      receiptRef,
	}
}

// ReceiptApprovedEvent is raised when a pending receipt is approved
type ReceiptApprovedEvent struct {
	shared.BaseDomainEvent
	ReceiptRef string `json:"receipt_ref"`
}

func NewReceiptApprovedEvent(invoiceID uuid.UUID, receiptRef string) *ReceiptApprovedEvent {
	return &ReceiptApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptApproved, "Invoice", invoiceID),
		ReceiptRef:      receiptRef,
	}
}

// ReceiptRejectedEvent is raised when a pending receipt is rejected
type ReceiptRejectedEvent struct {
	shared.BaseDomainEvent
	ReceiptRef string `json:"receipt_ref"`
	Reason     string `json:"reason"`
}

func NewReceiptRejectedEvent(invoiceID uuid.UUID, receiptRef, reason string) *ReceiptRejectedEvent {
	return &ReceiptRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptRejected, "Invoice", invoiceID),
		ReceiptRef:      receiptRef,
		Reason:          reason,
	}
}
