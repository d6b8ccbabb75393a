package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/eduops/backend/internal/application/billing"
	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/domain/shared"
	"github.com/eduops/backend/internal/interfaces/http/dto"
)

// InvoiceHandler handles invoice lifecycle API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// CreateInvoice godoc
// @Summary      Create an invoice
// @Description  Create an invoice with its line items. Installment invoices also get their payment plan.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateInvoiceRequest true "Invoice to create"
// @Success      201 {object} dto.Response{data=dto.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	appReq, err := toCreateInvoiceRequest(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, dto.FromInvoice(invoice))
}

// ListInvoices godoc
// @Summary      List invoices
// @Description  Retrieve a paginated list of invoices with filtering
// @Tags         invoices
// @Produce      json
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        agent_id query string false "Agent ID" format(uuid)
// @Param        status query string false "Status" Enums(PENDING, PARTIALLY_PAID, PAID)
// @Param        payment_type query string false "Payment type" Enums(ONLINE, CARD_TO_CARD, MANUAL, INSTALLMENT)
// @Param        review_status query string false "Receipt review status" Enums(PENDING_REVIEW, APPROVED, REJECTED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]dto.InvoiceResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	req := dto.InvoiceListRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	filter, err := toInvoiceFilter(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.invoiceService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	items := make([]dto.InvoiceResponse, 0, len(page.Items))
	for _, inv := range page.Items {
		items = append(items, dto.FromInvoice(inv))
	}
	h.SuccessWithMeta(c, items, page.Total, req.Page, req.PageSize)
}

// GetInvoice godoc
// @Summary      Get invoice by ID
// @Description  Retrieve an invoice with its items, installments, and payment records
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dto.FromInvoice(invoice))
}

// ListInstallments godoc
// @Summary      List invoice installments
// @Description  Retrieve the installment plan of an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]dto.InstallmentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id}/installments [get]
func (h *InvoiceHandler) ListInstallments(c *gin.Context) {
	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	installments, err := h.invoiceService.ListInstallments(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	items := make([]dto.InstallmentResponse, 0, len(installments))
	for i := range installments {
		items = append(items, dto.FromInstallment(&installments[i]))
	}
	h.Success(c, items)
}

// ListOverdueInstallments godoc
// @Summary      List overdue installments
// @Description  Retrieve unpaid installments past their due date across all invoices
// @Tags         invoices
// @Produce      json
// @Success      200 {object} dto.Response{data=[]dto.OverdueInstallmentResponse}
// @Router       /installments/overdue [get]
func (h *InvoiceHandler) ListOverdueInstallments(c *gin.Context) {
	overdue, err := h.invoiceService.ListOverdueInstallments(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	items := make([]dto.OverdueInstallmentResponse, 0, len(overdue))
	for i := range overdue {
		items = append(items, dto.FromOverdueInstallment(&overdue[i]))
	}
	h.Success(c, items)
}

// SubmitReceipt godoc
// @Summary      Submit a payment receipt
// @Description  Attach a manually-uploaded receipt reference to an invoice and put it under review
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body dto.SubmitReceiptRequest true "Receipt reference"
// @Success      200 {object} dto.Response{data=dto.InvoiceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id}/receipt [post]
func (h *InvoiceHandler) SubmitReceipt(c *gin.Context) {
	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req dto.SubmitReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.SubmitReceipt(c.Request.Context(), invoiceID, req.ReceiptRef)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dto.FromInvoice(invoice))
}

// ApproveReceipt godoc
// @Summary      Approve a pending receipt
// @Description  Approve a receipt under review, settling the invoice in full
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.InvoiceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id}/receipt/approve [post]
func (h *InvoiceHandler) ApproveReceipt(c *gin.Context) {
	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.ApproveReceipt(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dto.FromInvoice(invoice))
}

// RejectReceipt godoc
// @Summary      Reject a pending receipt
// @Description  Reject a receipt under review with a reason, leaving amounts untouched
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body dto.RejectReceiptRequest true "Rejection reason"
// @Success      200 {object} dto.Response{data=dto.InvoiceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id}/receipt/reject [post]
func (h *InvoiceHandler) RejectReceipt(c *gin.Context) {
	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req dto.RejectReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.RejectReceipt(c.Request.Context(), invoiceID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dto.FromInvoice(invoice))
}

// RegisterRoutes registers all invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.CreateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.GET("/:id/installments", h.ListInstallments)
		invoices.POST("/:id/receipt", h.SubmitReceipt)
		invoices.POST("/:id/receipt/approve", h.ApproveReceipt)
		invoices.POST("/:id/receipt/reject", h.RejectReceipt)
	}

	rg.GET("/installments/overdue", h.ListOverdueInstallments)
}

func toCreateInvoiceRequest(req dto.CreateInvoiceRequest) (billingapp.CreateInvoiceRequest, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return billingapp.CreateInvoiceRequest{}, err
	}

	var agentID *uuid.UUID
	if req.AgentID != nil {
		id, err := uuid.Parse(*req.AgentID)
		if err != nil {
			return billingapp.CreateInvoiceRequest{}, err
		}
		agentID = &id
	}

	items := make([]billingapp.CreateInvoiceItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		var itemID *uuid.UUID
		if it.ItemID != nil {
			id, err := uuid.Parse(*it.ItemID)
			if err != nil {
				return billingapp.CreateInvoiceRequest{}, err
			}
			itemID = &id
		}
		items = append(items, billingapp.CreateInvoiceItemRequest{
			Description: it.Description,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			ItemType:    billing.ItemType(it.ItemType),
			ItemID:      itemID,
		})
	}

	return billingapp.CreateInvoiceRequest{
		CustomerID:       customerID,
		AgentID:          agentID,
		Items:            items,
		PaymentType:      billing.PaymentType(req.PaymentType),
		IsInstallment:    req.IsInstallment,
		InstallmentCount: req.InstallmentCount,
		Notes:            req.Notes,
	}, nil
}

func toInvoiceFilter(req dto.InvoiceListRequest) (billing.InvoiceFilter, error) {
	filter := billing.InvoiceFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
	}

	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return filter, err
		}
		filter.CustomerID = &id
	}
	if req.AgentID != "" {
		id, err := uuid.Parse(req.AgentID)
		if err != nil {
			return filter, err
		}
		filter.AgentID = &id
	}
	if req.Status != "" {
		status := billing.InvoiceStatus(req.Status)
		filter.Status = &status
	}
	if req.PaymentType != "" {
		pt := billing.PaymentType(req.PaymentType)
		filter.PaymentType = &pt
	}
	if req.ReviewStatus != "" {
		rs := billing.ReviewStatus(req.ReviewStatus)
		filter.ReviewStatus = &rs
	}

	return filter, nil
}
