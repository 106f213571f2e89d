package payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mMando123/gym-management/internal/auth"
	"github.com/mMando123/gym-management/internal/db"
	"github.com/mMando123/gym-management/internal/subscription"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Record godoc
// @Summary      Record payment
// @Description  Registers a payment for one of the member's
// @Description  subscriptions. Cash settles immediately under gym
// @Description  policy; other methods wait for staff confirmation.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      RecordPaymentRequest  true  "Payment data"
// @Success      201      {object}  Payment
// @Failure      404      {object}  gin.H
// @Failure      422      {object}  gin.H
// @Router       /payments [post]
func (h *Handler) Record(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.Record(c.Request.Context(), memberID, req)
	switch {
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
	case errors.Is(err, ErrNothingToPay):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Subscription has nothing to pay"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
	default:
		c.JSON(http.StatusCreated, p)
	}
}

// ListMine godoc
// @Summary      List own payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Payment
// @Router       /payments [get]
func (h *Handler) ListMine(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	payments, err := h.service.ListByMember(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

// Complete godoc
// @Summary      Confirm payment
// @Description  Settles a pending payment and activates its
// @Description  subscription. Staff only.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                     true  "Payment ID"
// @Param        request  body      CompletePaymentRequest  true  "Confirmation"
// @Success      200      {object}  Payment
// @Failure      404      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Router       /admin/payments/{id}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment id"})
		return
	}

	var req CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.Complete(c.Request.Context(), id, req.Reference)
	switch {
	case errors.Is(err, ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
	case errors.Is(err, ErrAlreadySettled):
		c.JSON(http.StatusConflict, gin.H{"error": "Payment already settled"})
	case errors.Is(err, db.ErrTransient):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily unavailable, retry shortly"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete payment"})
	default:
		c.JSON(http.StatusOK, p)
	}
}
