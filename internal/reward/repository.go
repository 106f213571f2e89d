package reward

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mMando123/gym-management/internal/db"
	"github.com/mMando123/gym-management/internal/logger"
	"github.com/mMando123/gym-management/internal/metrics"
)

var (
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrMemberNotFound     = errors.New("member not found")
	ErrRewardNotFound     = errors.New("reward not found")
	ErrRewardUnavailable  = errors.New("reward unavailable")
	ErrLedgerCorrupted    = errors.New("ledger does not reproduce cached balance")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// AddPointsTx appends a ledger entry inside the caller's transaction.
// It locks the member row so concurrent grants for the same member
// serialize, then writes the ledger row and the cached balance in one
// unit with whatever triggered the grant (check-in, subscription
// creation). A negative delta that would take the balance below zero
// fails with ErrInsufficientPoints.
func (r *Repository) AddPointsTx(ctx context.Context, tx *sqlx.Tx, memberID int, delta int64, txType, reason, description string) (int64, error) {
	var balance int64
	err := tx.QueryRowxContext(ctx,
		`SELECT reward_points FROM members WHERE id = $1 FOR UPDATE`,
		memberID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrMemberNotFound
	}
	if err != nil {
		return 0, err
	}

	newBalance := balance + delta
	if newBalance < 0 {
		return 0, ErrInsufficientPoints
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE members SET reward_points = $1 WHERE id = $2`,
		newBalance, memberID,
	)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO point_transactions (member_id, points, balance_after, type, reason, description)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		memberID, delta, newBalance, txType, reason, description,
	)
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

// AddPoints grants points in its own transaction.
func (r *Repository) AddPoints(ctx context.Context, memberID int, amount int64, reason, description string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("points amount must be positive, got %d", amount)
	}
	return r.withTx(ctx, memberID, amount, TypeEarned, reason, description)
}

// DeductPoints spends points in its own transaction.
func (r *Repository) DeductPoints(ctx context.Context, memberID int, amount int64, reason, description string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("points amount must be positive, got %d", amount)
	}
	return r.withTx(ctx, memberID, -amount, TypeRedeemed, reason, description)
}

// AdjustPoints applies a signed staff correction.
func (r *Repository) AdjustPoints(ctx context.Context, memberID int, delta int64, description string) (int64, error) {
	return r.withTx(ctx, memberID, delta, TypeAdjusted, ReasonAdjustment, description)
}

func (r *Repository) withTx(ctx context.Context, memberID int, delta int64, txType, reason, description string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, db.Classify(err)
	}
	defer tx.Rollback()

	balance, err := r.AddPointsTx(ctx, tx, memberID, delta, txType, reason, description)
	if err != nil {
		return 0, db.Classify(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, db.Classify(err)
	}
	if delta > 0 {
		metrics.RecordPointsGranted(reason, delta)
	}
	return balance, nil
}

func (r *Repository) GetBalance(ctx context.Context, memberID int) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance,
		`SELECT reward_points FROM members WHERE id = $1`, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrMemberNotFound
	}
	return balance, err
}

func (r *Repository) GetHistory(ctx context.Context, memberID int, limit, offset int) ([]PointTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var txs []PointTransaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, member_id, points, balance_after, type, reason, description, created_at
		FROM point_transactions
		WHERE member_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, memberID, limit, offset)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []PointTransaction{}
	}
	return txs, nil
}

// Replay recomputes the member's balance from the full ledger and
// checks it against the cached value. Detects drift after manual data
// surgery or a bug in a granting path.
func (r *Repository) Replay(ctx context.Context, memberID int) (int64, error) {
	var txs []PointTransaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, member_id, points, balance_after, type, reason, description, created_at
		FROM point_transactions
		WHERE member_id = $1
		ORDER BY created_at ASC, id ASC
	`, memberID)
	if err != nil {
		return 0, err
	}

	var running int64
	for _, t := range txs {
		running += t.Points
		if running != t.BalanceAfter {
			return 0, fmt.Errorf("%w: transaction %d has balance_after=%d, replay gives %d",
				ErrLedgerCorrupted, t.ID, t.BalanceAfter, running)
		}
	}

	cached, err := r.GetBalance(ctx, memberID)
	if err != nil {
		return 0, err
	}
	if running != cached {
		return 0, fmt.Errorf("%w: cached=%d, replay gives %d", ErrLedgerCorrupted, cached, running)
	}

	return running, nil
}

func (r *Repository) CreateReward(ctx context.Context, name, description string, pointsCost int64, quantity int) (*Reward, error) {
	rw := &Reward{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO rewards (name, description, points_cost, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, points_cost, quantity, is_active, created_at
	`, name, description, pointsCost, quantity).StructScan(rw)
	if err != nil {
		return nil, err
	}
	return rw, nil
}

func (r *Repository) ListRewards(ctx context.Context) ([]Reward, error) {
	var rewards []Reward
	err := r.db.SelectContext(ctx, &rewards, `
		SELECT id, name, description, points_cost, quantity, is_active, created_at
		FROM rewards
		WHERE is_active = true
		ORDER BY points_cost ASC
	`)
	if err != nil {
		return nil, err
	}
	if rewards == nil {
		rewards = []Reward{}
	}
	return rewards, nil
}

// Redeem exchanges points for a catalog reward. The reward row is
// locked first so the quantity check and decrement cannot race; the
// points deduction and the redemption record commit with it or not at
// all.
func (r *Repository) Redeem(ctx context.Context, memberID, rewardID int) (*Redemption, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer tx.Rollback()

	var rw Reward
	err = tx.QueryRowxContext(ctx, `
		SELECT id, name, description, points_cost, quantity, is_active, created_at
		FROM rewards
		WHERE id = $1
		FOR UPDATE
	`, rewardID).StructScan(&rw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRewardNotFound
	}
	if err != nil {
		return nil, err
	}

	if !rw.IsActive || rw.Quantity <= 0 {
		return nil, ErrRewardUnavailable
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE rewards SET quantity = quantity - 1 WHERE id = $1`, rewardID)
	if err != nil {
		return nil, err
	}

	_, err = r.AddPointsTx(ctx, tx, memberID, -rw.PointsCost, TypeRedeemed, ReasonRedemption, "redeemed: "+rw.Name)
	if err != nil {
		return nil, err
	}

	red := &Redemption{}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO redemptions (member_id, reward_id, points_spent)
		VALUES ($1, $2, $3)
		RETURNING id, member_id, reward_id, points_spent, created_at
	`, memberID, rewardID, rw.PointsCost).StructScan(red)
	if err != nil {
		return nil, db.Classify(err)
	}

	return red, db.Classify(tx.Commit())
}

// GrantBirthdayPoints gives each member whose birthday falls on the
// given day a yearly bonus. The anti-join on this year's birthday
// grants makes the sweep idempotent. Returns the number of members
// credited.
func (r *Repository) GrantBirthdayPoints(ctx context.Context, today time.Time, points int64) (int, error) {
	var memberIDs []int
	err := r.db.SelectContext(ctx, &memberIDs, `
		SELECT m.id
		FROM members m
		WHERE m.is_active = true
		  AND m.date_of_birth IS NOT NULL
		  AND EXTRACT(MONTH FROM m.date_of_birth) = $1
		  AND EXTRACT(DAY FROM m.date_of_birth) = $2
		  AND NOT EXISTS (
			SELECT 1 FROM point_transactions pt
			WHERE pt.member_id = m.id
			  AND pt.reason = $3
			  AND EXTRACT(YEAR FROM pt.created_at) = $4
		  )
	`, int(today.Month()), today.Day(), ReasonBirthday, today.Year())
	if err != nil {
		return 0, err
	}

	// One bad row must not starve the rest of the batch: log and move on.
	granted := 0
	for _, id := range memberIDs {
		if _, err := r.AddPoints(ctx, id, points, ReasonBirthday, "happy birthday"); err != nil {
			logger.WithError(err).Error("Birthday grant failed", "member_id", id)
			continue
		}
		granted++
	}
	return granted, nil
}
