package attendance

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

// CanAttend godoc
// @Summary      Check entitlement
// @Description  Answers whether the member may check in for a sport
// @Description  right now, with the denial reason if not.
// @Tags         attendance
// @Security     BearerAuth
// @Produce      json
// @Param        sport_id  query     int  true  "Sport ID"
// @Success      200       {object}  Entitlement
// @Router       /attendance/can-attend [get]
func (h *Handler) CanAttend(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	sportID, err := strconv.Atoi(c.Query("sport_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sport_id is required"})
		return
	}

	ent, err := h.service.CanAttend(c.Request.Context(), memberID, sportID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check entitlement"})
		return
	}

	c.JSON(http.StatusOK, ent)
}

// CheckIn godoc
// @Summary      Check in
// @Description  Opens an attendance session and grants visit points.
// @Tags         attendance
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CheckInRequest  true  "Check-in data"
// @Success      201      {object}  Attendance
// @Failure      403      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Router       /attendance/check-in [post]
func (h *Handler) CheckIn(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	att, err := h.service.CheckIn(c.Request.Context(), memberID, req)
	var denied *DeniedError
	switch {
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"error": denied.Error(), "reason": denied.Reason})
	case errors.Is(err, ErrAlreadyCheckedIn):
		c.JSON(http.StatusConflict, gin.H{"error": "You are already checked in"})
	case errors.Is(err, db.ErrTransient):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily unavailable, retry shortly"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check in"})
	default:
		c.JSON(http.StatusCreated, att)
	}
}

// CheckOut godoc
// @Summary      Check out
// @Tags         attendance
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Attendance
// @Failure      404  {object}  gin.H
// @Failure      409  {object}  gin.H
// @Router       /attendance/check-out [post]
func (h *Handler) CheckOut(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	att, err := h.service.CheckOut(c.Request.Context(), memberID)
	switch {
	case errors.Is(err, ErrNoOpenAttendance):
		c.JSON(http.StatusNotFound, gin.H{"error": "No open attendance"})
	case errors.Is(err, ErrAlreadyClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "Attendance already closed"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check out"})
	default:
		c.JSON(http.StatusOK, att)
	}
}

// History godoc
// @Summary      Attendance history
// @Tags         attendance
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query    int  false  "Page size"    default(50)
// @Param        offset  query    int  false  "Page offset"  default(0)
// @Success      200     {array}  Attendance
// @Router       /attendance/history [get]
func (h *Handler) History(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	atts, err := h.service.History(c.Request.Context(), memberID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, atts)
}

// RecordGuestVisit godoc
// @Summary      Bring a guest
// @Description  Spends one of the host subscription's guest passes and
// @Description  opens a visit for the guest.
// @Tags         attendance
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      GuestVisitRequest  true  "Guest data"
// @Success      201      {object}  GuestVisit
// @Failure      409      {object}  gin.H
// @Failure      422      {object}  gin.H
// @Router       /attendance/guests [post]
func (h *Handler) RecordGuestVisit(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	var req GuestVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	visit, err := h.service.RecordGuestVisit(c.Request.Context(), memberID, req)
	switch {
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
	case errors.Is(err, subscription.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "Subscription is not active"})
	case errors.Is(err, subscription.ErrNoGuestPasses):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No guest passes remaining"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record guest visit"})
	default:
		c.JSON(http.StatusCreated, visit)
	}
}

// CheckoutGuest godoc
// @Summary      Check out a guest
// @Tags         attendance
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Guest visit ID"
// @Success      200  {object}  GuestVisit
// @Failure      404  {object}  gin.H
// @Failure      409  {object}  gin.H
// @Router       /attendance/guests/{id}/check-out [post]
func (h *Handler) CheckoutGuest(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	visitID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit id"})
		return
	}

	visit, err := h.service.CheckoutGuest(c.Request.Context(), memberID, visitID)
	switch {
	case errors.Is(err, ErrVisitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Guest visit not found"})
	case errors.Is(err, ErrAlreadyClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "Guest visit already closed"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check out guest"})
	default:
		c.JSON(http.StatusOK, visit)
	}
}

// ListGuestVisits godoc
// @Summary      List own guest visits
// @Tags         attendance
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  GuestVisit
// @Router       /attendance/guests [get]
func (h *Handler) ListGuestVisits(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	visits, err := h.service.ListGuestVisits(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load guest visits"})
		return
	}

	c.JSON(http.StatusOK, visits)
}

// CurrentAttendees godoc
// @Summary      Who is in the gym now
// @Description  Staff only.
// @Tags         attendance
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  AttendeeRow
// @Router       /admin/attendance/current [get]
func (h *Handler) CurrentAttendees(c *gin.Context) {
	rows, err := h.service.CurrentAttendees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load attendees"})
		return
	}

	c.JSON(http.StatusOK, rows)
}
