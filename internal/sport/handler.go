package sport

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo SportRepository
}

func NewHandler(repo SportRepository) *Handler {
	return &Handler{repo: repo}
}

// CreateSport godoc
// @Summary      Create sport
// @Description  Adds a new sport offered by the gym. Staff only.
// @Tags         sports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateSportRequest  true  "Sport data"
// @Success      201      {object}  Sport
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /admin/sports [post]
func (h *Handler) CreateSport(c *gin.Context) {
	var req CreateSportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.repo.CreateSport(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create sport"})
		return
	}

	c.JSON(http.StatusCreated, s)
}

// ListSports godoc
// @Summary      List sports
// @Tags         sports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Sport
// @Failure      500  {object}  gin.H
// @Router       /sports [get]
func (h *Handler) ListSports(c *gin.Context) {
	sports, err := h.repo.GetAllSports(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sports"})
		return
	}

	c.JSON(http.StatusOK, sports)
}

// GetSport godoc
// @Summary      Get sport
// @Tags         sports
// @Security     BearerAuth
// @Produce      json
// @Param        sportID  path      int  true  "Sport ID"
// @Success      200      {object}  Sport
// @Failure      404      {object}  gin.H
// @Router       /sports/{sportID} [get]
func (h *Handler) GetSport(c *gin.Context) {
	sportID, err := strconv.Atoi(c.Param("sportID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sport ID"})
		return
	}

	s, err := h.repo.GetSportByID(c.Request.Context(), sportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sport not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, s)
}
