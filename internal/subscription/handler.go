package subscription

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mMando123/gym-management/internal/auth"
	"github.com/mMando123/gym-management/internal/db"
	"github.com/mMando123/gym-management/internal/plan"
	"github.com/mMando123/gym-management/internal/pricing"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type RenewRequest struct {
	PromoCode     string `json:"promo_code"`
	PaymentMethod string `json:"payment_method" binding:"required,oneof=cash card transfer"`
}

type SubscriptionResponse struct {
	Subscription *Subscription  `json:"subscription"`
	Quote        *pricing.Quote `json:"quote,omitempty"`
}

// Create godoc
// @Summary      Create subscription
// @Description  Prices and creates a pending subscription for the
// @Description  authenticated member. Cash payments may activate it
// @Description  immediately depending on gym policy.
// @Tags         subscriptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateSubscriptionRequest  true  "Subscription data"
// @Success      201      {object}  SubscriptionResponse
// @Failure      400      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Failure      422      {object}  gin.H
// @Router       /subscriptions [post]
func (h *Handler) Create(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, quote, err := h.service.Create(c.Request.Context(), memberID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SubscriptionResponse{Subscription: sub, Quote: quote})
}

// ListMine godoc
// @Summary      List own subscriptions
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Subscription
// @Router       /subscriptions [get]
func (h *Handler) ListMine(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	subs, err := h.service.ListMine(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscriptions"})
		return
	}

	c.JSON(http.StatusOK, subs)
}

// Get godoc
// @Summary      Get subscription
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Subscription ID"
// @Success      200  {object}  Subscription
// @Failure      404  {object}  gin.H
// @Router       /subscriptions/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	h.withOwned(c, func(memberID, id int) (any, error) {
		return h.service.Get(c.Request.Context(), memberID, id)
	}, http.StatusOK)
}

// Freeze godoc
// @Summary      Freeze subscription
// @Description  Suspends an active subscription for a number of days,
// @Description  extending its end date by the same amount.
// @Tags         subscriptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int            true  "Subscription ID"
// @Param        request  body      FreezeRequest  true  "Freeze details"
// @Success      200      {object}  Subscription
// @Failure      409      {object}  gin.H
// @Failure      422      {object}  gin.H
// @Router       /subscriptions/{id}/freeze [post]
func (h *Handler) Freeze(c *gin.Context) {
	var req FreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withOwned(c, func(memberID, id int) (any, error) {
		return h.service.Freeze(c.Request.Context(), memberID, id, req)
	}, http.StatusOK)
}

// Unfreeze godoc
// @Summary      Unfreeze subscription
// @Description  Reactivates a frozen subscription, refunding unused
// @Description  freeze days.
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Subscription ID"
// @Success      200  {object}  Subscription
// @Failure      409  {object}  gin.H
// @Router       /subscriptions/{id}/unfreeze [post]
func (h *Handler) Unfreeze(c *gin.Context) {
	h.withOwned(c, func(memberID, id int) (any, error) {
		return h.service.Unfreeze(c.Request.Context(), memberID, id)
	}, http.StatusOK)
}

// Cancel godoc
// @Summary      Cancel subscription
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Subscription ID"
// @Success      200  {object}  Subscription
// @Failure      409  {object}  gin.H
// @Router       /subscriptions/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	h.withOwned(c, func(memberID, id int) (any, error) {
		return h.service.Cancel(c.Request.Context(), memberID, id)
	}, http.StatusOK)
}

// Renew godoc
// @Summary      Renew subscription
// @Description  Creates a new subscription on the same plan and sports,
// @Description  starting when the old one ends.
// @Tags         subscriptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int           true  "Subscription ID"
// @Param        request  body      RenewRequest  true  "Renewal details"
// @Success      201      {object}  SubscriptionResponse
// @Failure      409      {object}  gin.H
// @Router       /subscriptions/{id}/renew [post]
func (h *Handler) Renew(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription id"})
		return
	}

	var req RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, quote, err := h.service.Renew(c.Request.Context(), memberID, id, req.PromoCode, req.PaymentMethod)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SubscriptionResponse{Subscription: sub, Quote: quote})
}

// UsePTSession godoc
// @Summary      Use a personal training session
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Subscription ID"
// @Success      200  {object}  Subscription
// @Failure      409  {object}  gin.H
// @Router       /subscriptions/{id}/pt-session [post]
func (h *Handler) UsePTSession(c *gin.Context) {
	h.withOwned(c, func(memberID, id int) (any, error) {
		return h.service.UsePTSession(c.Request.Context(), memberID, id)
	}, http.StatusOK)
}

// ListFreezes godoc
// @Summary      List freeze history
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Subscription ID"
// @Success      200  {array}  SubscriptionFreeze
// @Router       /subscriptions/{id}/freezes [get]
func (h *Handler) ListFreezes(c *gin.Context) {
	h.withOwned(c, func(memberID, id int) (any, error) {
		return h.service.ListFreezes(c.Request.Context(), memberID, id)
	}, http.StatusOK)
}

// Activate godoc
// @Summary      Activate subscription
// @Description  Moves a pending subscription to active. Staff only;
// @Description  normally driven by payment confirmation.
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Subscription ID"
// @Success      200  {object}  Subscription
// @Failure      409  {object}  gin.H
// @Router       /admin/subscriptions/{id}/activate [post]
func (h *Handler) Activate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription id"})
		return
	}

	sub, err := h.service.Activate(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *Handler) withOwned(c *gin.Context, op func(memberID, id int) (any, error), status int) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription id"})
		return
	}

	result, err := op(memberID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(status, result)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSubscriptionNotFound), errors.Is(err, plan.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrOverlappingSubscription),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrNoPTSessions):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrFreezeQuotaExceeded),
		errors.Is(err, pricing.ErrNoPriceForSport),
		errors.Is(err, ErrPlanInactive),
		errors.Is(err, ErrPackageInactive):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidDate), errors.Is(err, pricing.ErrNoSports):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrTransient):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily unavailable, retry shortly"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
