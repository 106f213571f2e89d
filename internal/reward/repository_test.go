package reward

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mMando123/gym-management/internal/db"
	"github.com/mMando123/gym-management/internal/metrics"
)

func setupLedgerMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func expectGrant(mock sqlmock.Sqlmock, memberID int, before, delta int64, txType, reason string) {
	mock.ExpectQuery(`SELECT reward_points FROM members WHERE id = \$1 FOR UPDATE`).
		WithArgs(memberID).
		WillReturnRows(sqlmock.NewRows([]string{"reward_points"}).AddRow(before))
	mock.ExpectExec(`UPDATE members SET reward_points`).
		WithArgs(before+delta, memberID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO point_transactions`).
		WithArgs(memberID, delta, before+delta, txType, reason, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func TestAddPoints(t *testing.T) {
	repo, mock := setupLedgerMock(t)

	mock.ExpectBegin()
	expectGrant(mock, 4, 100, 10, TypeEarned, ReasonAttendance)
	mock.ExpectCommit()

	balance, err := repo.AddPoints(context.Background(), 4, 10, ReasonAttendance, "check-in")
	require.NoError(t, err)
	assert.Equal(t, int64(110), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPoints_RejectsNonPositive(t *testing.T) {
	repo, _ := setupLedgerMock(t)

	_, err := repo.AddPoints(context.Background(), 4, 0, ReasonAttendance, "")
	assert.Error(t, err)

	_, err = repo.AddPoints(context.Background(), 4, -5, ReasonAttendance, "")
	assert.Error(t, err)
}

func TestDeductPoints_InsufficientBalance(t *testing.T) {
	repo, mock := setupLedgerMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT reward_points FROM members WHERE id = \$1 FOR UPDATE`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"reward_points"}).AddRow(int64(30)))
	mock.ExpectRollback()

	_, err := repo.DeductPoints(context.Background(), 4, 50, ReasonRedemption, "too expensive")
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPoints_UnknownMember(t *testing.T) {
	repo, mock := setupLedgerMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT reward_points FROM members WHERE id = \$1 FOR UPDATE`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.AddPoints(context.Background(), 99, 10, ReasonAttendance, "")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestReplay_DetectsDrift(t *testing.T) {
	repo, mock := setupLedgerMock(t)

	rows := sqlmock.NewRows([]string{"id", "member_id", "points", "balance_after", "type", "reason", "description", "created_at"}).
		AddRow(1, 4, int64(10), int64(10), TypeEarned, ReasonAttendance, "", time.Now()).
		AddRow(2, 4, int64(5), int64(20), TypeEarned, ReasonLongSession, "", time.Now()) // should be 15

	mock.ExpectQuery(`SELECT id, member_id, points, balance_after`).
		WithArgs(4).
		WillReturnRows(rows)

	_, err := repo.Replay(context.Background(), 4)
	assert.ErrorIs(t, err, ErrLedgerCorrupted)
}

func TestReplay_MatchesCachedBalance(t *testing.T) {
	repo, mock := setupLedgerMock(t)

	rows := sqlmock.NewRows([]string{"id", "member_id", "points", "balance_after", "type", "reason", "description", "created_at"}).
		AddRow(1, 4, int64(10), int64(10), TypeEarned, ReasonAttendance, "", time.Now()).
		AddRow(2, 4, int64(-3), int64(7), TypeRedeemed, ReasonRedemption, "", time.Now())

	mock.ExpectQuery(`SELECT id, member_id, points, balance_after`).
		WithArgs(4).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT reward_points FROM members WHERE id = \$1`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"reward_points"}).AddRow(int64(7)))

	balance, err := repo.Replay(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance)
}

func TestRedeem(t *testing.T) {
	repo, mock := setupLedgerMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, description, points_cost, quantity, is_active, created_at FROM rewards`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "points_cost", "quantity", "is_active", "created_at"}).
			AddRow(2, "Free shake", "", int64(50), 3, true, time.Now()))
	mock.ExpectExec(`UPDATE rewards SET quantity = quantity - 1`).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectGrant(mock, 4, 120, -50, TypeRedeemed, ReasonRedemption)
	mock.ExpectQuery(`INSERT INTO redemptions`).
		WithArgs(4, 2, int64(50)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "reward_id", "points_spent", "created_at"}).
			AddRow(1, 4, 2, int64(50), time.Now()))
	mock.ExpectCommit()

	red, err := repo.Redeem(context.Background(), 4, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(50), red.PointsSpent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeem_OutOfStock(t *testing.T) {
	repo, mock := setupLedgerMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, description, points_cost, quantity, is_active, created_at FROM rewards`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "points_cost", "quantity", "is_active", "created_at"}).
			AddRow(2, "Free shake", "", int64(50), 0, true, time.Now()))
	mock.ExpectRollback()

	_, err := repo.Redeem(context.Background(), 4, 2)
	assert.ErrorIs(t, err, ErrRewardUnavailable)
}

func TestGrantBirthdayPoints(t *testing.T) {
	repo, mock := setupLedgerMock(t)
	today := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT m.id\s+FROM members m`).
		WithArgs(3, 14, ReasonBirthday, 2026).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4).AddRow(9))

	for _, id := range []int{4, 9} {
		mock.ExpectBegin()
		expectGrant(mock, id, 0, 100, TypeEarned, ReasonBirthday)
		mock.ExpectCommit()
	}

	granted, err := repo.GrantBirthdayPoints(context.Background(), today, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, granted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantBirthdayPoints_OneFailureDoesNotStopBatch(t *testing.T) {
	repo, mock := setupLedgerMock(t)
	today := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT m.id\s+FROM members m`).
		WithArgs(3, 14, ReasonBirthday, 2026).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4).AddRow(9))

	// Member 4's grant blows up mid-transaction
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT reward_points FROM members WHERE id = \$1 FOR UPDATE`).
		WithArgs(4).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	// Member 9 is still credited
	mock.ExpectBegin()
	expectGrant(mock, 9, 0, 100, TypeEarned, ReasonBirthday)
	mock.ExpectCommit()

	granted, err := repo.GrantBirthdayPoints(context.Background(), today, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, granted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPoints_SerializationFailureIsTransient(t *testing.T) {
	repo, mock := setupLedgerMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT reward_points FROM members WHERE id = \$1 FOR UPDATE`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"reward_points"}).AddRow(100))
	mock.ExpectExec(`UPDATE members SET reward_points`).
		WithArgs(int64(110), 4).
		WillReturnError(&pq.Error{Code: "40001"})
	mock.ExpectRollback()

	_, err := repo.AddPoints(context.Background(), 4, 10, ReasonAttendance, "check-in")
	assert.ErrorIs(t, err, db.ErrTransient)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPoints_RecordsGrantMetric(t *testing.T) {
	repo, mock := setupLedgerMock(t)
	metrics.PointsGrantedTotal.Reset()

	mock.ExpectBegin()
	expectGrant(mock, 4, 100, 10, TypeEarned, ReasonAttendance)
	mock.ExpectCommit()

	_, err := repo.AddPoints(context.Background(), 4, 10, ReasonAttendance, "check-in")
	require.NoError(t, err)
	assert.Equal(t, float64(10),
		testutil.ToFloat64(metrics.PointsGrantedTotal.WithLabelValues(ReasonAttendance)))
}
