package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mMando123/gym-management/internal/db"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAlreadySettled  = errors.New("payment already settled")
)

const paymentColumns = `id, subscription_id, member_id, method, status, amount_cents, tax_cents, total_cents, reference, completed_at, created_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *Payment) (*Payment, error) {
	created := &Payment{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO payments (subscription_id, member_id, method, status, amount_cents, tax_cents, total_cents, reference, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+paymentColumns+`
	`, p.SubscriptionID, p.MemberID, p.Method, p.Status, p.AmountCents, p.TaxCents, p.TotalCents, p.Reference, p.CompletedAt).StructScan(created)
	if err != nil {
		return nil, db.Classify(err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*Payment, error) {
	p := &Payment{}
	err := r.db.GetContext(ctx, p,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Complete settles a pending payment. The status guard in the WHERE
// clause makes a double confirmation a no-op at the store.
func (r *Repository) Complete(ctx context.Context, id int, reference string, now time.Time) (*Payment, error) {
	p := &Payment{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE payments
		SET status = 'completed', reference = $2, completed_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING `+paymentColumns+`
	`, id, reference, now).StructScan(p)
	if errors.Is(err, sql.ErrNoRows) {
		settled, cerr := db.Exists(ctx, r.db,
			`SELECT EXISTS(SELECT 1 FROM payments WHERE id = $1)`, id)
		if cerr == nil && settled {
			return nil, ErrAlreadySettled
		}
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return p, nil
}

func (r *Repository) ListByMember(ctx context.Context, memberID int) ([]Payment, error) {
	var payments []Payment
	err := r.db.SelectContext(ctx, &payments, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE member_id = $1
		ORDER BY created_at DESC
	`, memberID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []Payment{}
	}
	return payments, nil
}
