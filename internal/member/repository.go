package member

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrMemberNotFound = errors.New("member not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const memberColumns = `id, member_number, name, email, password_hash, role, phone, date_of_birth, reward_points, is_active, created_at`

func (r *Repository) Create(ctx context.Context, memberNumber, name, email, passwordHash, role string, phone *string, dateOfBirth *time.Time) (*Member, error) {
	m := &Member{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO members (member_number, name, email, password_hash, role, phone, date_of_birth)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+memberColumns+`
	`, memberNumber, name, email, passwordHash, role, phone, dateOfBirth).StructScan(m)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*Member, error) {
	m := &Member{}
	err := r.db.GetContext(ctx, m, `
		SELECT `+memberColumns+`
		FROM members
		WHERE email = $1
	`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*Member, error) {
	m := &Member{}
	err := r.db.GetContext(ctx, m, `
		SELECT `+memberColumns+`
		FROM members
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM members WHERE email = $1)`, email)
	return exists, err
}
