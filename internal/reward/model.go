package reward

import "time"

// Transaction types.
const (
	TypeEarned   = "earned"
	TypeRedeemed = "redeemed"
	TypeAdjusted = "adjusted"
)

// Well-known grant reasons. The reason is recorded on every ledger row
// and drives the points_granted_total metric label.
const (
	ReasonAttendance   = "attendance"
	ReasonLongSession  = "long_session"
	ReasonSubscription = "subscription"
	ReasonBirthday     = "birthday"
	ReasonRedemption   = "redemption"
	ReasonAdjustment   = "adjustment"
)

// PointTransaction is one append-only ledger entry. Rows are never
// updated or deleted; the member's cached reward_points must always
// equal the latest balance_after.
type PointTransaction struct {
	ID           int       `db:"id" json:"id"`
	MemberID     int       `db:"member_id" json:"member_id"`
	Points       int64     `db:"points" json:"points"` // signed delta
	BalanceAfter int64     `db:"balance_after" json:"balance_after"`
	Type         string    `db:"type" json:"type"`
	Reason       string    `db:"reason" json:"reason"`
	Description  string    `db:"description" json:"description"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Reward is a catalog item members can spend points on.
type Reward struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	PointsCost  int64     `db:"points_cost" json:"points_cost"`
	Quantity    int       `db:"quantity" json:"quantity"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Redemption struct {
	ID          int       `db:"id" json:"id"`
	MemberID    int       `db:"member_id" json:"member_id"`
	RewardID    int       `db:"reward_id" json:"reward_id"`
	PointsSpent int64     `db:"points_spent" json:"points_spent"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type CreateRewardRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PointsCost  int64  `json:"points_cost" binding:"required,gt=0"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
}

type RedeemRequest struct {
	RewardID int `json:"reward_id" binding:"required"`
}

type AdjustPointsRequest struct {
	MemberID    int    `json:"member_id" binding:"required"`
	Points      int64  `json:"points" binding:"required"`
	Description string `json:"description"`
}

type BalanceResponse struct {
	MemberID int   `json:"member_id"`
	Balance  int64 `json:"balance"`
}
