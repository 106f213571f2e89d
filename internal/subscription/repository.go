package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mMando123/gym-management/internal/clock"
	"github.com/mMando123/gym-management/internal/db"
	"github.com/mMando123/gym-management/internal/metrics"
	"github.com/mMando123/gym-management/internal/reward"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrOverlappingSubscription = errors.New("member already has a subscription covering a requested sport")
	ErrInvalidState            = errors.New("operation not allowed in current subscription state")
	ErrFreezeQuotaExceeded     = errors.New("not enough freeze days remaining")
	ErrNoPTSessions            = errors.New("no personal training sessions remaining")
	ErrNoGuestPasses           = errors.New("no guest passes remaining")
)

const subscriptionColumns = `id, subscription_number, member_id, plan_id, package_id, status, start_date, end_date,
	freeze_days_used, freeze_days_remaining, guest_passes_remaining, pt_sessions_remaining,
	original_price_cents, discount_cents, final_price_cents, notes, activated_at, created_at, updated_at`

type Repository struct {
	db     *sqlx.DB
	ledger reward.Ledger
}

func NewRepository(db *sqlx.DB, ledger reward.Ledger) *Repository {
	return &Repository{db: db, ledger: ledger}
}

// Create inserts the subscription, its sport set and the
// creation-points grant as one transaction. The overlap check runs
// inside the same transaction so two concurrent checkouts for the same
// sport cannot both pass it.
func (r *Repository) Create(ctx context.Context, sub *Subscription) (*Subscription, error) {
	if len(sub.SportIDs) == 0 {
		return nil, fmt.Errorf("subscription needs at least one sport")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer tx.Rollback()

	var conflicts int
	query, args, err := sqlx.In(`
		SELECT COUNT(*)
		FROM subscriptions s
		JOIN subscription_sports ss ON ss.subscription_id = s.id
		WHERE s.member_id = ?
		  AND s.status IN ('pending', 'active', 'frozen')
		  AND s.end_date >= ?
		  AND ss.sport_id IN (?)
	`, sub.MemberID, sub.StartDate, sub.SportIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.GetContext(ctx, &conflicts, tx.Rebind(query), args...); err != nil {
		return nil, err
	}
	if conflicts > 0 {
		return nil, ErrOverlappingSubscription
	}

	created := &Subscription{}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO subscriptions (subscription_number, member_id, plan_id, package_id, status,
			start_date, end_date, freeze_days_used, freeze_days_remaining,
			guest_passes_remaining, pt_sessions_remaining,
			original_price_cents, discount_cents, final_price_cents, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+subscriptionColumns+`
	`, sub.SubscriptionNumber, sub.MemberID, sub.PlanID, sub.PackageID, sub.Status,
		sub.StartDate, sub.EndDate, sub.FreezeDaysRemaining,
		sub.GuestPassesRemaining, sub.PTSessionsRemaining,
		sub.OriginalPriceCents, sub.DiscountCents, sub.FinalPriceCents, sub.Notes,
	).StructScan(created)
	if err != nil {
		return nil, err
	}

	for _, sportID := range sub.SportIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO subscription_sports (subscription_id, sport_id) VALUES ($1, $2)`,
			created.ID, sportID)
		if err != nil {
			return nil, err
		}
	}
	created.SportIDs = sub.SportIDs

	// 1 point per 10 currency units of the final price, granted with
	// the creation so a failed checkout never leaves stray points.
	if points := created.FinalPriceCents / 1000; points > 0 {
		_, err = r.ledger.AddPointsTx(ctx, tx, created.MemberID, points,
			reward.TypeEarned, reward.ReasonSubscription, "subscription "+created.SubscriptionNumber)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, db.Classify(err)
	}
	if points := created.FinalPriceCents / 1000; points > 0 {
		metrics.RecordPointsGranted(reward.ReasonSubscription, points)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.GetContext(ctx, sub,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadSports(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *Repository) loadSports(ctx context.Context, sub *Subscription) error {
	sub.SportIDs = []int{}
	return r.db.SelectContext(ctx, &sub.SportIDs,
		`SELECT sport_id FROM subscription_sports WHERE subscription_id = $1 ORDER BY sport_id`, sub.ID)
}

func (r *Repository) ListByMember(ctx context.Context, memberID int) ([]Subscription, error) {
	var subs []Subscription
	err := r.db.SelectContext(ctx, &subs, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE member_id = $1
		ORDER BY created_at DESC
	`, memberID)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if err := r.loadSports(ctx, &subs[i]); err != nil {
			return nil, err
		}
	}
	if subs == nil {
		subs = []Subscription{}
	}
	return subs, nil
}

// FindForSport returns the member's most recent non-cancelled
// subscription covering the sport. Callers inspect status and dates to
// decide entitlement.
func (r *Repository) FindForSport(ctx context.Context, memberID, sportID int) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.GetContext(ctx, sub, `
		SELECT s.*
		FROM subscriptions s
		JOIN subscription_sports ss ON ss.subscription_id = s.id
		WHERE s.member_id = $1
		  AND ss.sport_id = $2
		  AND s.status IN ('active', 'frozen', 'expired')
		ORDER BY
		  CASE s.status WHEN 'active' THEN 0 WHEN 'frozen' THEN 1 ELSE 2 END,
		  s.end_date DESC
		LIMIT 1
	`, memberID, sportID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadSports(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Activate moves a pending subscription to active.
func (r *Repository) Activate(ctx context.Context, id int, now time.Time) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE subscriptions
		SET status = 'active', activated_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+subscriptionColumns+`
	`, id, now).StructScan(sub)
	if errors.Is(err, sql.ErrNoRows) {
		if exists, eerr := r.exists(ctx, id); eerr == nil && !exists {
			return nil, ErrSubscriptionNotFound
		}
		return nil, ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadSports(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *Repository) exists(ctx context.Context, id int) (bool, error) {
	return db.Exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM subscriptions WHERE id = $1)`, id)
}

// Freeze suspends an active subscription for the given number of days.
// The row lock serializes concurrent freeze/unfreeze/guest-pass writes
// on the same subscription; the end date grows by the frozen days so
// the member's entitled days never shrink.
func (r *Repository) Freeze(ctx context.Context, id, days int, reason string, today time.Time) (*Subscription, error) {
	if days < 1 {
		return nil, fmt.Errorf("freeze days must be at least 1, got %d", days)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer tx.Rollback()

	sub, err := lockSubscription(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != StatusActive {
		return nil, ErrInvalidState
	}
	if days > sub.FreezeDaysRemaining {
		return nil, ErrFreezeQuotaExceeded
	}

	freezeEnd := today.AddDate(0, 0, days)
	err = tx.QueryRowxContext(ctx, `
		UPDATE subscriptions
		SET status = 'frozen',
		    end_date = end_date + $2 * INTERVAL '1 day',
		    freeze_days_used = freeze_days_used + $2,
		    freeze_days_remaining = freeze_days_remaining - $2,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+subscriptionColumns+`
	`, id, days).StructScan(sub)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subscription_freezes (subscription_id, days, start_date, end_date, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, id, days, today, freezeEnd, reason)
	if err != nil {
		return nil, err
	}

	return sub, db.Classify(tx.Commit())
}

// Unfreeze reactivates a frozen subscription early. Days of the open
// freeze episode that were not consumed go back to the remaining
// quota and come off the end date, and the episode is truncated to
// what was actually used. A freeze that already lapsed is a plain
// transition back to active.
func (r *Repository) Unfreeze(ctx context.Context, id int, today time.Time) (*Subscription, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer tx.Rollback()

	sub, err := lockSubscription(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != StatusFrozen {
		return nil, ErrInvalidState
	}

	var freeze SubscriptionFreeze
	err = tx.QueryRowxContext(ctx, `
		SELECT id, subscription_id, days, start_date, end_date, reason, created_at
		FROM subscription_freezes
		WHERE subscription_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, id).StructScan(&freeze)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	unused := 0
	if err == nil {
		unused = daysBetween(today, freeze.EndDate)
		if unused < 0 {
			unused = 0
		}
		if unused > freeze.Days {
			unused = freeze.Days
		}
	}

	err = tx.QueryRowxContext(ctx, `
		UPDATE subscriptions
		SET status = 'active',
		    end_date = end_date - $2 * INTERVAL '1 day',
		    freeze_days_used = freeze_days_used - $2,
		    freeze_days_remaining = freeze_days_remaining + $2,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+subscriptionColumns+`
	`, id, unused).StructScan(sub)
	if err != nil {
		return nil, err
	}

	if unused > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE subscription_freezes
			SET days = $2, end_date = $3
			WHERE id = $1
		`, freeze.ID, freeze.Days-unused, today)
		if err != nil {
			return nil, err
		}
	}

	return sub, db.Classify(tx.Commit())
}

// Cancel is terminal and allowed from active or expired.
func (r *Repository) Cancel(ctx context.Context, id int) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE subscriptions
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('active', 'expired')
		RETURNING `+subscriptionColumns+`
	`, id).StructScan(sub)
	if errors.Is(err, sql.ErrNoRows) {
		if exists, eerr := r.exists(ctx, id); eerr == nil && !exists {
			return nil, ErrSubscriptionNotFound
		}
		return nil, ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// UsePTSession burns one personal training session. The guard lives in
// the WHERE clause so two concurrent uses cannot both succeed on the
// last session.
func (r *Repository) UsePTSession(ctx context.Context, id int) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE subscriptions
		SET pt_sessions_remaining = pt_sessions_remaining - 1, updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND pt_sessions_remaining > 0
		RETURNING `+subscriptionColumns+`
	`, id).StructScan(sub)
	if errors.Is(err, sql.ErrNoRows) {
		existing, gerr := r.GetByID(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if existing.Status != StatusActive {
			return nil, ErrInvalidState
		}
		return nil, ErrNoPTSessions
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ExpireOverdue batch-transitions active subscriptions past their end
// date. Safe to run repeatedly: expired rows no longer match.
func (r *Repository) ExpireOverdue(ctx context.Context, today time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND end_date < $1
	`, today)
	if err != nil {
		return 0, db.Classify(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// AutoUnfreezeDue reactivates frozen subscriptions whose freeze episode
// has fully elapsed. No day refund: the freeze was consumed in full.
func (r *Repository) AutoUnfreezeDue(ctx context.Context, today time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions s
		SET status = 'active', updated_at = NOW()
		WHERE s.status = 'frozen'
		  AND NOT EXISTS (
			SELECT 1 FROM subscription_freezes f
			WHERE f.subscription_id = s.id AND f.end_date > $1
		  )
	`, today)
	if err != nil {
		return 0, db.Classify(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *Repository) ListFreezes(ctx context.Context, subscriptionID int) ([]SubscriptionFreeze, error) {
	var freezes []SubscriptionFreeze
	err := r.db.SelectContext(ctx, &freezes, `
		SELECT id, subscription_id, days, start_date, end_date, reason, created_at
		FROM subscription_freezes
		WHERE subscription_id = $1
		ORDER BY created_at DESC
	`, subscriptionID)
	if err != nil {
		return nil, err
	}
	if freezes == nil {
		freezes = []SubscriptionFreeze{}
	}
	return freezes, nil
}

func lockSubscription(ctx context.Context, tx *sqlx.Tx, id int) (*Subscription, error) {
	sub := &Subscription{}
	err := tx.QueryRowxContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 FOR UPDATE`,
		id).StructScan(sub)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func daysBetween(from, to time.Time) int {
	return int(clock.Midnight(to).Sub(clock.Midnight(from)).Hours() / 24)
}
