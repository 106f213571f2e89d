package plan

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo PlanRepository
}

func NewHandler(repo PlanRepository) *Handler {
	return &Handler{repo: repo}
}

// CreatePlan godoc
// @Summary      Create subscription plan
// @Description  Creates a new plan. Plans are immutable reference data; price changes require a new plan. Staff only.
// @Tags         plans
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreatePlanRequest  true  "Plan data"
// @Success      201      {object}  Plan
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /admin/plans [post]
func (h *Handler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.repo.CreatePlan(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan"})
		return
	}

	c.JSON(http.StatusCreated, p)
}

// ListPlans godoc
// @Summary      List active plans
// @Tags         plans
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Plan
// @Failure      500  {object}  gin.H
// @Router       /plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.repo.ListPlans(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plans"})
		return
	}

	c.JSON(http.StatusOK, plans)
}

// GetPlan godoc
// @Summary      Get plan
// @Tags         plans
// @Security     BearerAuth
// @Produce      json
// @Param        planID  path      int  true  "Plan ID"
// @Success      200     {object}  Plan
// @Failure      404     {object}  gin.H
// @Router       /plans/{planID} [get]
func (h *Handler) GetPlan(c *gin.Context) {
	planID, err := strconv.Atoi(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan ID"})
		return
	}

	p, err := h.repo.GetPlanByID(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// SetSportPrice godoc
// @Summary      Set plan price for a sport
// @Description  Upserts the price of one sport within a plan. Staff only.
// @Tags         plans
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        planID   path      int                   true  "Plan ID"
// @Param        request  body      SetSportPriceRequest  true  "Price data"
// @Success      200      {object}  SportPrice
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /admin/plans/{planID}/prices [put]
func (h *Handler) SetSportPrice(c *gin.Context) {
	planID, err := strconv.Atoi(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan ID"})
		return
	}

	var req SetSportPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sp, err := h.repo.SetSportPrice(c.Request.Context(), planID, req.SportID, req.PriceCents)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set price"})
		return
	}

	c.JSON(http.StatusOK, sp)
}

// CreatePackage godoc
// @Summary      Create package
// @Description  Creates a multi-sport discount package. Staff only.
// @Tags         plans
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreatePackageRequest  true  "Package data"
// @Success      201      {object}  Package
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /admin/packages [post]
func (h *Handler) CreatePackage(c *gin.Context) {
	var req CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg, err := h.repo.CreatePackage(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create package"})
		return
	}

	c.JSON(http.StatusCreated, pkg)
}

// ListPackages godoc
// @Summary      List active packages
// @Tags         plans
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Package
// @Failure      500  {object}  gin.H
// @Router       /packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	pkgs, err := h.repo.ListPackages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch packages"})
		return
	}

	c.JSON(http.StatusOK, pkgs)
}
