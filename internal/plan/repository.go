package plan

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrPlanNotFound = errors.New("plan not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreatePlan(ctx context.Context, req CreatePlanRequest) (*Plan, error) {
	p := &Plan{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO plans (name, duration_type, duration_days, discount_percent, freeze_days_allowed, guest_passes, pt_sessions, locker_included, towel_service)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, name, duration_type, duration_days, discount_percent, freeze_days_allowed, guest_passes, pt_sessions, locker_included, towel_service, is_active, created_at
	`, req.Name, req.DurationType, req.DurationDays, req.DiscountPercent,
		req.FreezeDaysAllowed, req.GuestPasses, req.PTSessions,
		req.LockerIncluded, req.TowelService).StructScan(p)
	return p, err
}

func (r *Repository) GetPlanByID(ctx context.Context, id int) (*Plan, error) {
	p := &Plan{}
	err := r.db.GetContext(ctx, p, `
		SELECT id, name, duration_type, duration_days, discount_percent, freeze_days_allowed, guest_passes, pt_sessions, locker_included, towel_service, is_active, created_at
		FROM plans
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	return p, err
}

func (r *Repository) ListPlans(ctx context.Context) ([]Plan, error) {
	plans := []Plan{}
	err := r.db.SelectContext(ctx, &plans, `
		SELECT id, name, duration_type, duration_days, discount_percent, freeze_days_allowed, guest_passes, pt_sessions, locker_included, towel_service, is_active, created_at
		FROM plans
		WHERE is_active = TRUE
		ORDER BY duration_days, name
	`)
	return plans, err
}

func (r *Repository) SetSportPrice(ctx context.Context, planID, sportID int, priceCents int64) (*SportPrice, error) {
	sp := &SportPrice{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO plan_sport_prices (plan_id, sport_id, price_cents)
		VALUES ($1, $2, $3)
		ON CONFLICT (plan_id, sport_id) DO UPDATE SET price_cents = EXCLUDED.price_cents
		RETURNING id, plan_id, sport_id, price_cents
	`, planID, sportID, priceCents).StructScan(sp)
	return sp, err
}

// GetSportPrices returns the plan's price table keyed by sport id.
func (r *Repository) GetSportPrices(ctx context.Context, planID int) (map[int]int64, error) {
	rows := []SportPrice{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, plan_id, sport_id, price_cents
		FROM plan_sport_prices
		WHERE plan_id = $1
	`, planID)
	if err != nil {
		return nil, err
	}

	prices := make(map[int]int64, len(rows))
	for _, row := range rows {
		prices[row.SportID] = row.PriceCents
	}
	return prices, nil
}

func (r *Repository) CreatePackage(ctx context.Context, req CreatePackageRequest) (*Package, error) {
	pkg := &Package{}
	var desc *string
	if req.Description != "" {
		desc = &req.Description
	}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO packages (name, description, discount_percent)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, discount_percent, is_active, created_at
	`, req.Name, desc, req.DiscountPercent).StructScan(pkg)
	return pkg, err
}

func (r *Repository) GetPackageByID(ctx context.Context, id int) (*Package, error) {
	pkg := &Package{}
	err := r.db.GetContext(ctx, pkg, `
		SELECT id, name, description, discount_percent, is_active, created_at
		FROM packages
		WHERE id = $1
	`, id)
	return pkg, err
}

func (r *Repository) ListPackages(ctx context.Context) ([]Package, error) {
	pkgs := []Package{}
	err := r.db.SelectContext(ctx, &pkgs, `
		SELECT id, name, description, discount_percent, is_active, created_at
		FROM packages
		WHERE is_active = TRUE
		ORDER BY name
	`)
	return pkgs, err
}
