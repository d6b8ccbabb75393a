package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/eduops/backend/internal/application/billing"
	"github.com/eduops/backend/internal/domain/billing"
	"github.com/eduops/backend/internal/interfaces/http/dto"
)

// CommissionHandler handles agent commission API endpoints
type CommissionHandler struct {
	BaseHandler
	commissionService *billingapp.CommissionService
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(commissionService *billingapp.CommissionService) *CommissionHandler {
	return &CommissionHandler{
		commissionService: commissionService,
	}
}

// SetCommissionRate godoc
// @Summary      Set an agent's commission rate
// @Description  Configure the percentage an agent earns on a catalog item. Replaces any active rate for the same item.
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        id path string true "Agent ID" format(uuid)
// @Param        request body dto.SetCommissionRateRequest true "Rate to configure"
// @Success      200 {object} dto.Response{data=dto.CommissionRateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /agents/{id}/commission-rates [put]
func (h *CommissionHandler) SetCommissionRate(c *gin.Context) {
	agentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}

	var req dto.SetCommissionRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	rate, err := h.commissionService.SetCommissionRate(c.Request.Context(), agentID, billingapp.SetCommissionRateRequest{
		ItemType: billing.ItemType(req.ItemType),
		ItemID:   itemID,
		Percent:  req.Percent,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dto.FromCommissionRate(rate))
}

// ListCommissionRates godoc
// @Summary      List an agent's commission rates
// @Description  Retrieve all rates configured for an agent, active and retired
// @Tags         commissions
// @Produce      json
// @Param        id path string true "Agent ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]dto.CommissionRateResponse}
// @Router       /agents/{id}/commission-rates [get]
func (h *CommissionHandler) ListCommissionRates(c *gin.Context) {
	agentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}

	rates, err := h.commissionService.ListCommissionRates(c.Request.Context(), agentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	items := make([]dto.CommissionRateResponse, 0, len(rates))
	for _, rate := range rates {
		items = append(items, dto.FromCommissionRate(rate))
	}
	h.Success(c, items)
}

// AccrueCommission godoc
// @Summary      Accrue a commission
// @Description  Materialize an agent's earned commission on an invoice's item. No-op when the agent has no active rate.
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        request body dto.AccrueCommissionRequest true "Accrual reference"
// @Success      201 {object} dto.Response{data=dto.EarnedCommissionResponse}
// @Success      204 "No active rate configured; nothing accrued"
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commissions/accrue [post]
func (h *CommissionHandler) AccrueCommission(c *gin.Context) {
	var req dto.AccrueCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	commission, err := h.commissionService.AccrueCommission(c.Request.Context(), invoiceID, agentID, billing.ItemType(req.ItemType), itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if commission == nil {
		h.NoContent(c)
		return
	}

	h.Created(c, dto.FromEarnedCommission(commission))
}

// SettleCommissions godoc
// @Summary      Settle an agent's pending commissions
// @Description  Pay out all pending commissions in one batch. The amount must equal the agent's pending balance.
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        X-Actor-ID header string true "Acting user ID" format(uuid)
// @Param        id path string true "Agent ID" format(uuid)
// @Param        request body dto.SettleCommissionsRequest true "Settlement to record"
// @Success      201 {object} dto.Response{data=dto.CommissionPaymentResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /agents/{id}/settlements [post]
func (h *CommissionHandler) SettleCommissions(c *gin.Context) {
	agentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}

	var req dto.SettleCommissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "X-Actor-ID header is required")
		return
	}

	payment, err := h.commissionService.SettleCommissions(c.Request.Context(), agentID, billingapp.SettleCommissionsRequest{
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
		ActorID:         actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, dto.FromCommissionPayment(payment))
}

// GetPendingBalance godoc
// @Summary      Get an agent's pending balance
// @Description  Return the agent's settleable balance: pending accruals minus prior payouts
// @Tags         commissions
// @Produce      json
// @Param        id path string true "Agent ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.PendingBalanceResponse}
// @Router       /agents/{id}/pending-balance [get]
func (h *CommissionHandler) GetPendingBalance(c *gin.Context) {
	agentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}

	balance, err := h.commissionService.GetAgentPendingBalance(c.Request.Context(), agentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dto.PendingBalanceResponse{
		AgentID:        agentID,
		PendingBalance: balance.Amount(),
	})
}

// RegisterRoutes registers all commission routes
func (h *CommissionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	agents := rg.Group("/agents")
	{
		agents.PUT("/:id/commission-rates", h.SetCommissionRate)
		agents.GET("/:id/commission-rates", h.ListCommissionRates)
		agents.POST("/:id/settlements", h.SettleCommissions)
		agents.GET("/:id/pending-balance", h.GetPendingBalance)
	}

	rg.POST("/commissions/accrue", h.AccrueCommission)
}
