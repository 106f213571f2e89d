package subscription

import (
	"fmt"
	"math/rand"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusFrozen    Status = "frozen"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Subscription is one member's entitlement over a sport-set and time
// window. Rows are never hard-deleted; terminal states are expressed
// through the status column. Counters only move through the lifecycle
// operations so the invariant used+remaining = plan allowance holds.
type Subscription struct {
	ID                   int        `db:"id" json:"id"`
	SubscriptionNumber   string     `db:"subscription_number" json:"subscription_number"`
	MemberID             int        `db:"member_id" json:"member_id"`
	PlanID               int        `db:"plan_id" json:"plan_id"`
	PackageID            *int       `db:"package_id" json:"package_id,omitempty"`
	Status               Status     `db:"status" json:"status"`
	StartDate            time.Time  `db:"start_date" json:"start_date"`
	EndDate              time.Time  `db:"end_date" json:"end_date"`
	FreezeDaysUsed       int        `db:"freeze_days_used" json:"freeze_days_used"`
	FreezeDaysRemaining  int        `db:"freeze_days_remaining" json:"freeze_days_remaining"`
	GuestPassesRemaining int        `db:"guest_passes_remaining" json:"guest_passes_remaining"`
	PTSessionsRemaining  int        `db:"pt_sessions_remaining" json:"pt_sessions_remaining"`
	OriginalPriceCents   int64      `db:"original_price_cents" json:"original_price_cents"`
	DiscountCents        int64      `db:"discount_cents" json:"discount_cents"`
	FinalPriceCents      int64      `db:"final_price_cents" json:"final_price_cents"`
	Notes                string     `db:"notes" json:"notes,omitempty"`
	ActivatedAt          *time.Time `db:"activated_at" json:"activated_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`

	SportIDs []int `db:"-" json:"sport_ids"`
}

// SubscriptionFreeze records one freeze episode. Sum of days across a
// subscription's freezes always equals the subscription's
// freeze_days_used: unfreeze truncates the open episode rather than
// deleting it.
type SubscriptionFreeze struct {
	ID             int       `db:"id" json:"id"`
	SubscriptionID int       `db:"subscription_id" json:"subscription_id"`
	Days           int       `db:"days" json:"days"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	Reason         string    `db:"reason" json:"reason"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type CreateSubscriptionRequest struct {
	PlanID        int    `json:"plan_id" binding:"required"`
	SportIDs      []int  `json:"sport_ids" binding:"required,min=1"`
	PackageID     *int   `json:"package_id"`
	StartDate     string `json:"start_date"` // YYYY-MM-DD, defaults to today
	PromoCode     string `json:"promo_code"`
	PaymentMethod string `json:"payment_method" binding:"required,oneof=cash card transfer"`
}

type FreezeRequest struct {
	Days   int    `json:"days" binding:"required,min=1"`
	Reason string `json:"reason"`
}

func GenerateSubscriptionNumber(now time.Time) string {
	return fmt.Sprintf("SUB%s%03d", now.Format("20060102150405"), rand.Intn(900)+100)
}
