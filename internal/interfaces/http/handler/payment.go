package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/eduops/backend/internal/application/billing"
	"github.com/eduops/backend/internal/interfaces/http/dto"
)

// PaymentHandler handles payment recording API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// RecordInvoicePayment godoc
// @Summary      Record a payment against an invoice
// @Description  Record money received against an invoice. Overpayments are rejected.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Actor-ID header string true "Acting user ID" format(uuid)
// @Param        Idempotency-Key header string false "Idempotency key for safe retries"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body dto.RecordPaymentRequest true "Payment to record"
// @Success      201 {object} dto.Response{data=dto.PaymentRecordResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id}/payments [post]
func (h *PaymentHandler) RecordInvoicePayment(c *gin.Context) {
	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	req, ok := h.bindPaymentRequest(c)
	if !ok {
		return
	}

	record, err := h.paymentService.RecordPayment(c.Request.Context(), invoiceID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, dto.FromPaymentRecord(record))
}

// RecordInstallmentPayment godoc
// @Summary      Record a payment against an installment
// @Description  Record money received against a specific installment, marking it paid
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Actor-ID header string true "Acting user ID" format(uuid)
// @Param        Idempotency-Key header string false "Idempotency key for safe retries"
// @Param        id path string true "Installment ID" format(uuid)
// @Param        request body dto.RecordPaymentRequest true "Payment to record"
// @Success      201 {object} dto.Response{data=dto.PaymentRecordResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /installments/{id}/payments [post]
func (h *PaymentHandler) RecordInstallmentPayment(c *gin.Context) {
	installmentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid installment ID format")
		return
	}

	req, ok := h.bindPaymentRequest(c)
	if !ok {
		return
	}

	record, err := h.paymentService.RecordInstallmentPayment(c.Request.Context(), installmentID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, dto.FromPaymentRecord(record))
}

// bindPaymentRequest binds the payment body plus the actor and
// idempotency headers shared by both payment endpoints
func (h *PaymentHandler) bindPaymentRequest(c *gin.Context) (billingapp.RecordPaymentRequest, bool) {
	var body dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.ValidationError(c, err)
		return billingapp.RecordPaymentRequest{}, false
	}

	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "X-Actor-ID header is required")
		return billingapp.RecordPaymentRequest{}, false
	}

	return billingapp.RecordPaymentRequest{
		Amount:          body.Amount,
		PaymentMethod:   body.PaymentMethod,
		ReferenceNumber: body.ReferenceNumber,
		Notes:           body.Notes,
		ActorID:         actorID,
		IdempotencyKey:  c.GetHeader("Idempotency-Key"),
	}, true
}

// RegisterRoutes registers all payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/invoices/:id/payments", h.RecordInvoicePayment)
	rg.POST("/installments/:id/payments", h.RecordInstallmentPayment)
}
