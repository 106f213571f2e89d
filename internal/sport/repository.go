package sport

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateSport(ctx context.Context, name string) (*Sport, error) {
	s := &Sport{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO sports (name)
		VALUES ($1)
		RETURNING id, name, is_active, created_at
	`, name).StructScan(s)
	return s, err
}

func (r *Repository) GetSportByID(ctx context.Context, id int) (*Sport, error) {
	s := &Sport{}
	err := r.db.GetContext(ctx, s, `
		SELECT id, name, is_active, created_at
		FROM sports
		WHERE id = $1
	`, id)
	return s, err
}

func (r *Repository) GetAllSports(ctx context.Context) ([]Sport, error) {
	sports := []Sport{}
	err := r.db.SelectContext(ctx, &sports, `
		SELECT id, name, is_active, created_at
		FROM sports
		WHERE is_active = TRUE
		ORDER BY name
	`)
	return sports, err
}
