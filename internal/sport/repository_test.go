package sport

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupSportMock(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	return repo, mock, func() { sqlxDB.Close() }
}

func TestCreateSport(t *testing.T) {
	repo, mock, closeFn := setupSportMock(t)
	defer closeFn()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sports (name) VALUES ($1) RETURNING id, name, is_active, created_at")).
		WithArgs("Boxing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_active", "created_at"}).
			AddRow(1, "Boxing", true, time.Now()))

	s, err := repo.CreateSport(context.Background(), "Boxing")
	require.NoError(t, err)
	require.Equal(t, 1, s.ID)
	require.Equal(t, "Boxing", s.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllSports(t *testing.T) {
	repo, mock, closeFn := setupSportMock(t)
	defer closeFn()

	mock.ExpectQuery("SELECT id, name, is_active, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_active", "created_at"}).
			AddRow(1, "Boxing", true, time.Now()).
			AddRow(2, "Swimming", true, time.Now()))

	sports, err := repo.GetAllSports(context.Background())
	require.NoError(t, err)
	require.Len(t, sports, 2)
	require.Equal(t, "Swimming", sports[1].Name)
}
