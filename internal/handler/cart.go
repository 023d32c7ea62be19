package handler

import (
	"net/http"

	"tillpos/internal/apierror"
	"tillpos/internal/dto"
	"tillpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartHandler struct{ svc service.CartService }

func NewCartHandler(svc service.CartService) *CartHandler { return &CartHandler{svc: svc} }

// Get godoc
// @Summary Current cart for the caller's terminal
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CartResponse
// @Router /v1/cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), terminal)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary Add a product line (merges with an existing line of the same product)
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AddItemRequest true "Product and quantity"
// @Success 200 {object} dto.CartResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	var req dto.AddItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), terminal, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) SetQuantity(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product_id"))
		return
	}
	var req dto.SetQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetQuantity(c.Request.Context(), terminal, productID, req.Quantity)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product_id"))
		return
	}
	resp, err := h.svc.RemoveItem(c.Request.Context(), terminal, productID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Discount godoc
// @Summary Apply an order-level discount (absolute value or percent)
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.DiscountRequest true "Discount"
// @Success 200 {object} dto.CartResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cart/discount [post]
func (h *CartHandler) Discount(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	var req dto.DiscountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplyDiscount(c.Request.Context(), terminal, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) DeliveryFee(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	var req dto.DeliveryFeeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetDeliveryFee(c.Request.Context(), terminal, req.Amount)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) SetClient(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	var req dto.SetClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetClient(c.Request.Context(), terminal, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) Clear(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	if err := h.svc.Clear(c.Request.Context(), terminal); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
