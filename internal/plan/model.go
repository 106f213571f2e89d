package plan

import "time"

type DurationType string

const (
	DurationMonthly    DurationType = "monthly"
	DurationQuarterly  DurationType = "quarterly"
	DurationSemiAnnual DurationType = "semi_annual"
	DurationAnnual     DurationType = "annual"
)

// Plan is immutable reference data: once subscriptions exist against a
// plan, price changes go in as a new plan row, never as an update.
type Plan struct {
	ID                int          `db:"id" json:"id"`
	Name              string       `db:"name" json:"name"`
	DurationType      DurationType `db:"duration_type" json:"duration_type"`
	DurationDays      int          `db:"duration_days" json:"duration_days"`
	DiscountPercent   float64      `db:"discount_percent" json:"discount_percent"`
	FreezeDaysAllowed int          `db:"freeze_days_allowed" json:"freeze_days_allowed"`
	GuestPasses       int          `db:"guest_passes" json:"guest_passes"`
	PTSessions        int          `db:"pt_sessions" json:"pt_sessions"`
	LockerIncluded    bool         `db:"locker_included" json:"locker_included"`
	TowelService      bool         `db:"towel_service" json:"towel_service"`
	IsActive          bool         `db:"is_active" json:"is_active"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
}

type SportPrice struct {
	ID         int   `db:"id" json:"id"`
	PlanID     int   `db:"plan_id" json:"plan_id"`
	SportID    int   `db:"sport_id" json:"sport_id"`
	PriceCents int64 `db:"price_cents" json:"price_cents"`
}

// Package bundles several sports with an extra discount that applies
// only when the subscription covers more than one sport.
type Package struct {
	ID              int       `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     *string   `db:"description" json:"description,omitempty"`
	DiscountPercent float64   `db:"discount_percent" json:"discount_percent"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type CreatePlanRequest struct {
	Name              string  `json:"name" binding:"required"`
	DurationType      string  `json:"duration_type" binding:"required,oneof=monthly quarterly semi_annual annual"`
	DurationDays      int     `json:"duration_days" binding:"required,min=1"`
	DiscountPercent   float64 `json:"discount_percent" binding:"min=0,max=100"`
	FreezeDaysAllowed int     `json:"freeze_days_allowed" binding:"min=0"`
	GuestPasses       int     `json:"guest_passes" binding:"min=0"`
	PTSessions        int     `json:"pt_sessions" binding:"min=0"`
	LockerIncluded    bool    `json:"locker_included"`
	TowelService      bool    `json:"towel_service"`
}

type SetSportPriceRequest struct {
	SportID    int   `json:"sport_id" binding:"required"`
	PriceCents int64 `json:"price_cents" binding:"required,min=0"`
}

type CreatePackageRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	DiscountPercent float64 `json:"discount_percent" binding:"required,min=0,max=100"`
}
