package handler

import (
	"net/http"

	"tillpos/internal/apierror"
	"tillpos/internal/dto"
	"tillpos/internal/middleware"
	"tillpos/internal/repository"
	"tillpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CheckoutHandler struct{ svc service.CheckoutService }

func NewCheckoutHandler(svc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// AddTender godoc
// @Summary Record a tender against the current cart
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AddTenderRequest true "Tender"
// @Success 200 {object} dto.CartResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/checkout/tenders [post]
func (h *CheckoutHandler) AddTender(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	var req dto.AddTenderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddTender(c.Request.Context(), terminal, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) ClearTenders(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	resp, err := h.svc.ClearTenders(c.Request.Context(), terminal)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Finalize godoc
// @Summary Commit the sale atomically (order, stock, session ledger)
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AddTenderRequest false "Optional inline tender (single exact payment fast path)"
// @Success 201 {object} dto.OrderResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/checkout [post]
func (h *CheckoutHandler) Finalize(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, _ := uuid.Parse(claims.UserID)

	// Body is optional: an empty body finalizes against already-recorded
	// tenders, a tender body is the single-payment fast path.
	var inline *dto.AddTenderRequest
	if c.Request.ContentLength > 0 {
		var req dto.AddTenderRequest
		if !bindAndValidate(c, &req) {
			return
		}
		inline = &req
	}

	resp, err := h.svc.FinalizeSale(c.Request.Context(), operatorID, terminal, inline)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ── Orders Handler ───────────────────────────────────────────────────────────

type OrdersHandler struct{ svc service.CheckoutService }

func NewOrdersHandler(svc service.CheckoutService) *OrdersHandler {
	return &OrdersHandler{svc: svc}
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) List(c *gin.Context) {
	var filter repository.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return
	}
	resp, err := h.svc.ListOrders(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Void godoc
// @Summary Void a completed order: restore stock and write inverse movements
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param body body dto.VoidOrderRequest true "Void reason"
// @Success 204
// @Failure 400 {object} apierror.APIError
// @Router /v1/orders/{id}/void [post]
func (h *OrdersHandler) Void(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.VoidOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, _ := uuid.Parse(claims.UserID)
	if err := h.svc.VoidOrder(c.Request.Context(), operatorID, id, req.Reason); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
