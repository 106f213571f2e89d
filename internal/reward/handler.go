package reward

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mMando123/gym-management/internal/auth"
	"github.com/mMando123/gym-management/internal/db"
	"github.com/mMando123/gym-management/internal/metrics"
)

type Handler struct {
	repo LedgerRepository
}

func NewHandler(repo LedgerRepository) *Handler {
	return &Handler{repo: repo}
}

// GetBalance godoc
// @Summary      Get points balance
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  BalanceResponse
// @Failure      401  {object}  gin.H
// @Router       /rewards/balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	balance, err := h.repo.GetBalance(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load balance"})
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{MemberID: memberID, Balance: balance})
}

// GetHistory godoc
// @Summary      List point transactions
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"    default(50)
// @Param        offset  query     int  false  "Page offset"  default(0)
// @Success      200     {array}   PointTransaction
// @Router       /rewards/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.repo.GetHistory(c.Request.Context(), memberID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

// ListRewards godoc
// @Summary      List redeemable rewards
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Reward
// @Router       /rewards [get]
func (h *Handler) ListRewards(c *gin.Context) {
	rewards, err := h.repo.ListRewards(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rewards"})
		return
	}

	c.JSON(http.StatusOK, rewards)
}

// Redeem godoc
// @Summary      Redeem a reward
// @Description  Spends points on a catalog reward. Fails if the member
// @Description  lacks points or the reward is out of stock.
// @Tags         rewards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      RedeemRequest  true  "Reward to redeem"
// @Success      201      {object}  Redemption
// @Failure      400      {object}  gin.H
// @Failure      402      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Router       /rewards/redeem [post]
func (h *Handler) Redeem(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member not authenticated"})
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	red, err := h.repo.Redeem(c.Request.Context(), memberID, req.RewardID)
	switch {
	case errors.Is(err, ErrRewardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Reward not found"})
	case errors.Is(err, ErrRewardUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "Reward is no longer available"})
	case errors.Is(err, ErrInsufficientPoints):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Not enough points"})
	case errors.Is(err, db.ErrTransient):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily unavailable, retry shortly"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to redeem reward"})
	default:
		metrics.RecordPointsRedeemed(red.PointsSpent)
		c.JSON(http.StatusCreated, red)
	}
}

// CreateReward godoc
// @Summary      Create reward
// @Description  Adds a redeemable reward to the catalog. Staff only.
// @Tags         rewards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRewardRequest  true  "Reward data"
// @Success      201      {object}  Reward
// @Failure      400      {object}  gin.H
// @Router       /admin/rewards [post]
func (h *Handler) CreateReward(c *gin.Context) {
	var req CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rw, err := h.repo.CreateReward(c.Request.Context(), req.Name, req.Description, req.PointsCost, req.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reward"})
		return
	}

	c.JSON(http.StatusCreated, rw)
}

// AdjustPoints godoc
// @Summary      Adjust member points
// @Description  Applies a signed staff correction to a member's balance.
// @Tags         rewards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      AdjustPointsRequest  true  "Adjustment"
// @Success      200      {object}  BalanceResponse
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Router       /admin/rewards/adjust [post]
func (h *Handler) AdjustPoints(c *gin.Context) {
	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.repo.AdjustPoints(c.Request.Context(), req.MemberID, req.Points, req.Description)
	switch {
	case errors.Is(err, ErrMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
	case errors.Is(err, ErrInsufficientPoints):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adjustment would make balance negative"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust points"})
	default:
		c.JSON(http.StatusOK, BalanceResponse{MemberID: req.MemberID, Balance: balance})
	}
}

// VerifyLedger godoc
// @Summary      Verify a member's ledger
// @Description  Replays the full ledger and checks it against the cached balance.
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Member ID"
// @Success      200  {object}  BalanceResponse
// @Failure      409  {object}  gin.H
// @Router       /admin/rewards/verify/{id} [get]
func (h *Handler) VerifyLedger(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member id"})
		return
	}

	balance, err := h.repo.Replay(c.Request.Context(), memberID)
	switch {
	case errors.Is(err, ErrLedgerCorrupted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify ledger"})
	default:
		c.JSON(http.StatusOK, BalanceResponse{MemberID: memberID, Balance: balance})
	}
}
