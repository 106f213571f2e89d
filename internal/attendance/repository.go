package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mMando123/gym-management/internal/db"
	"github.com/mMando123/gym-management/internal/metrics"
	"github.com/mMando123/gym-management/internal/reward"
	"github.com/mMando123/gym-management/internal/subscription"
)

var (
	ErrAlreadyCheckedIn = errors.New("member already has an open attendance")
	ErrNoOpenAttendance = errors.New("no open attendance to close")
	ErrAlreadyClosed    = errors.New("attendance already closed")
	ErrVisitNotFound    = errors.New("guest visit not found")
)

const openAttendanceConstraint = "attendance_one_open_per_member"

const attendanceColumns = `id, member_id, sport_id, subscription_id, trainer_name, check_in, check_out, notes`

type Repository struct {
	db     *sqlx.DB
	ledger reward.Ledger
}

func NewRepository(sqlxDB *sqlx.DB, ledger reward.Ledger) *Repository {
	return &Repository{db: sqlxDB, ledger: ledger}
}

// CheckIn opens an attendance row and grants attendance points in one
// transaction. The one-open-row rule is not checked with a SELECT: the
// partial unique index rejects the insert itself, so two concurrent
// check-ins cannot both land.
func (r *Repository) CheckIn(ctx context.Context, memberID, sportID, subscriptionID int, trainer *string, now time.Time, points int64) (*Attendance, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer tx.Rollback()

	att := &Attendance{}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO attendance (member_id, sport_id, subscription_id, trainer_name, check_in)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+attendanceColumns+`
	`, memberID, sportID, subscriptionID, trainer, now).StructScan(att)
	if err != nil {
		if db.IsUniqueViolation(err, openAttendanceConstraint) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, db.Classify(err)
	}

	if points > 0 {
		_, err = r.ledger.AddPointsTx(ctx, tx, memberID, points,
			reward.TypeEarned, reward.ReasonAttendance, "gym visit")
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, db.Classify(err)
	}
	if points > 0 {
		metrics.RecordPointsGranted(reward.ReasonAttendance, points)
	}
	return att, nil
}

// CheckOutByMember closes the member's open attendance. The open-row
// predicate is part of the UPDATE, so a double checkout loses the race
// in the store, not in application code.
func (r *Repository) CheckOutByMember(ctx context.Context, memberID int, now time.Time) (*Attendance, error) {
	att := &Attendance{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE attendance
		SET check_out = $2
		WHERE member_id = $1 AND check_out IS NULL
		RETURNING `+attendanceColumns+`
	`, memberID, now).StructScan(att)
	if errors.Is(err, sql.ErrNoRows) {
		lastClosed, cerr := db.Exists(ctx, r.db, `
			SELECT EXISTS(SELECT 1 FROM attendance WHERE member_id = $1 AND check_out IS NOT NULL)
		`, memberID)
		if cerr == nil && lastClosed {
			return nil, ErrAlreadyClosed
		}
		return nil, ErrNoOpenAttendance
	}
	if err != nil {
		return nil, err
	}
	return att, nil
}

// RecordGuestVisit burns one guest pass of the host subscription and
// opens the visit in one transaction. The subscription row lock keeps
// two concurrent visits from spending the same pass.
func (r *Repository) RecordGuestVisit(ctx context.Context, hostMemberID, subscriptionID int, guestName, guestPhone string, now time.Time) (*GuestVisit, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer tx.Rollback()

	var sub subscription.Subscription
	err = tx.QueryRowxContext(ctx, `
		SELECT id, member_id, status, guest_passes_remaining
		FROM subscriptions
		WHERE id = $1
		FOR UPDATE
	`, subscriptionID).Scan(&sub.ID, &sub.MemberID, &sub.Status, &sub.GuestPassesRemaining)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subscription.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}

	if sub.MemberID != hostMemberID {
		return nil, subscription.ErrSubscriptionNotFound
	}
	if sub.Status != subscription.StatusActive {
		return nil, subscription.ErrInvalidState
	}
	if sub.GuestPassesRemaining <= 0 {
		return nil, subscription.ErrNoGuestPasses
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE subscriptions
		SET guest_passes_remaining = guest_passes_remaining - 1, updated_at = NOW()
		WHERE id = $1
	`, subscriptionID)
	if err != nil {
		return nil, err
	}

	visit := &GuestVisit{}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO guest_visits (subscription_id, host_member_id, guest_name, guest_phone, check_in)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, subscription_id, host_member_id, guest_name, guest_phone, check_in, check_out
	`, subscriptionID, hostMemberID, guestName, guestPhone, now).StructScan(visit)
	if err != nil {
		return nil, db.Classify(err)
	}

	return visit, db.Classify(tx.Commit())
}

// CheckoutGuest closes a visit. The host is part of the predicate, so
// a member can only close visits they recorded; anyone else's visit
// looks like it does not exist.
func (r *Repository) CheckoutGuest(ctx context.Context, hostMemberID, visitID int, now time.Time) (*GuestVisit, error) {
	visit := &GuestVisit{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE guest_visits
		SET check_out = $3
		WHERE id = $1 AND host_member_id = $2 AND check_out IS NULL
		RETURNING id, subscription_id, host_member_id, guest_name, guest_phone, check_in, check_out
	`, visitID, hostMemberID, now).StructScan(visit)
	if errors.Is(err, sql.ErrNoRows) {
		closed, cerr := db.Exists(ctx, r.db,
			`SELECT EXISTS(SELECT 1 FROM guest_visits WHERE id = $1 AND host_member_id = $2)`,
			visitID, hostMemberID)
		if cerr == nil && closed {
			return nil, ErrAlreadyClosed
		}
		return nil, ErrVisitNotFound
	}
	if err != nil {
		return nil, err
	}
	return visit, nil
}

// AutoCloseStale force-closes attendance rows that have been open
// longer than the threshold. Closed rows never match again, so the
// sweep is idempotent per row.
func (r *Repository) AutoCloseStale(ctx context.Context, openedBefore, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance
		SET check_out = $2, notes = 'automatic checkout'
		WHERE check_out IS NULL AND check_in < $1
	`, openedBefore, now)
	if err != nil {
		return 0, db.Classify(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *Repository) CurrentAttendees(ctx context.Context) ([]AttendeeRow, error) {
	var rows []AttendeeRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT a.id AS attendance_id, a.member_id, m.name AS member_name, s.name AS sport_name, a.check_in
		FROM attendance a
		JOIN members m ON m.id = a.member_id
		JOIN sports s ON s.id = a.sport_id
		WHERE a.check_out IS NULL
		ORDER BY a.check_in ASC
	`)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []AttendeeRow{}
	}
	return rows, nil
}

func (r *Repository) History(ctx context.Context, memberID int, limit, offset int) ([]Attendance, error) {
	if limit <= 0 {
		limit = 50
	}

	var atts []Attendance
	err := r.db.SelectContext(ctx, &atts, `
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE member_id = $1
		ORDER BY check_in DESC
		LIMIT $2 OFFSET $3
	`, memberID, limit, offset)
	if err != nil {
		return nil, err
	}
	if atts == nil {
		atts = []Attendance{}
	}
	return atts, nil
}

func (r *Repository) ListGuestVisits(ctx context.Context, hostMemberID int) ([]GuestVisit, error) {
	var visits []GuestVisit
	err := r.db.SelectContext(ctx, &visits, `
		SELECT id, subscription_id, host_member_id, guest_name, guest_phone, check_in, check_out
		FROM guest_visits
		WHERE host_member_id = $1
		ORDER BY check_in DESC
	`, hostMemberID)
	if err != nil {
		return nil, err
	}
	if visits == nil {
		visits = []GuestVisit{}
	}
	return visits, nil
}
