package handler

import (
	"net/http"

	"tillpos/internal/apierror"
	"tillpos/internal/dto"
	"tillpos/internal/middleware"
	"tillpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SuspendedHandler struct{ svc service.SuspendService }

func NewSuspendedHandler(svc service.SuspendService) *SuspendedHandler {
	return &SuspendedHandler{svc: svc}
}

// Suspend godoc
// @Summary Park the current cart so the terminal can serve the next customer
// @Tags suspended
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SuspendRequest true "Reason"
// @Success 201 {object} dto.SuspendedOrderResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/suspended [post]
func (h *SuspendedHandler) Suspend(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	var req dto.SuspendRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Suspend(c.Request.Context(), operatorID, terminal, req.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SuspendedHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Resume godoc
// @Summary Load a suspended order into the terminal's cart (at most once)
// @Tags suspended
// @Produce json
// @Security BearerAuth
// @Param id path string true "Suspended order ID"
// @Success 200 {object} dto.CartResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/suspended/{id}/resume [post]
func (h *SuspendedHandler) Resume(c *gin.Context) {
	terminal, ok := terminalFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Resume(c.Request.Context(), terminal, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SuspendedHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
