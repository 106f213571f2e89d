package gym_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mMando123/gym-management/internal/attendance"
	"github.com/mMando123/gym-management/internal/reward"
	"github.com/mMando123/gym-management/internal/subscription"
)

func TestCheckIn_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	database := setupTestDB(t)
	defer database.Close()

	cleanDatabase(t, database)

	ledger := reward.NewRepository(database)
	repo := attendance.NewRepository(database, ledger)
	ctx := context.Background()

	memberID := createTestMember(t, database, "checkin@test.com", "Checkin Member")
	sportID := createTestSport(t, database, "CrossFit")
	planID := createTestPlan(t, database, sportID, 10000)

	today := time.Now().Truncate(24 * time.Hour)
	subID := createActiveSubscription(t, database, memberID, planID, sportID, today, today.AddDate(0, 0, 30))

	now := time.Now()
	att, err := repo.CheckIn(ctx, memberID, sportID, subID, nil, now, 10)
	require.NoError(t, err)
	require.Nil(t, att.CheckOut)

	// Visit points land in the same transaction as the attendance row
	balance, err := ledger.GetBalance(ctx, memberID)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)

	// The partial unique index rejects a second open session
	_, err = repo.CheckIn(ctx, memberID, sportID, subID, nil, now, 10)
	require.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	// And no points leaked from the rejected attempt
	balance, err = ledger.GetBalance(ctx, memberID)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)

	closed, err := repo.CheckOutByMember(ctx, memberID, now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, closed.CheckOut)

	// After checkout the member can open a new session
	_, err = repo.CheckIn(ctx, memberID, sportID, subID, nil, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
}

func TestCheckIn_Concurrent_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	database := setupTestDB(t)
	defer database.Close()

	cleanDatabase(t, database)

	ledger := reward.NewRepository(database)
	repo := attendance.NewRepository(database, ledger)
	ctx := context.Background()

	memberID := createTestMember(t, database, "race@test.com", "Racing Member")
	sportID := createTestSport(t, database, "Boxing")
	planID := createTestPlan(t, database, sportID, 10000)

	today := time.Now().Truncate(24 * time.Hour)
	subID := createActiveSubscription(t, database, memberID, planID, sportID, today, today.AddDate(0, 0, 30))

	// Two simultaneous check-ins for the same member race on the
	// partial unique index, exactly one may win.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CheckIn(ctx, memberID, sportID, subID, nil, time.Now(), 10)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, attendance.ErrAlreadyCheckedIn):
			rejected++
		default:
			t.Fatalf("unexpected check-in error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, rejected)

	// Only the winner's visit points were credited
	balance, err := ledger.GetBalance(ctx, memberID)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)
}

func TestGuestVisit_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	database := setupTestDB(t)
	defer database.Close()

	cleanDatabase(t, database)

	ledger := reward.NewRepository(database)
	repo := attendance.NewRepository(database, ledger)
	ctx := context.Background()

	memberID := createTestMember(t, database, "guest@test.com", "Host Member")
	sportID := createTestSport(t, database, "Pilates")
	planID := createTestPlan(t, database, sportID, 10000)

	today := time.Now().Truncate(24 * time.Hour)
	subID := createActiveSubscription(t, database, memberID, planID, sportID, today, today.AddDate(0, 0, 30))

	now := time.Now()
	v1, err := repo.RecordGuestVisit(ctx, memberID, subID, "Guest One", "+7001", now)
	require.NoError(t, err)

	_, err = repo.RecordGuestVisit(ctx, memberID, subID, "Guest Two", "+7002", now)
	require.NoError(t, err)

	// Plan grants two passes, the third guest is turned away
	_, err = repo.RecordGuestVisit(ctx, memberID, subID, "Guest Three", "+7003", now)
	require.ErrorIs(t, err, subscription.ErrNoGuestPasses)

	var remaining int
	err = database.Get(&remaining, `SELECT guest_passes_remaining FROM subscriptions WHERE id = $1`, subID)
	require.NoError(t, err)
	require.Equal(t, 0, remaining)

	// Another member cannot close the visit, the host can.
	otherID := createTestMember(t, database, "other-host@test.com", "Other Member")
	_, err = repo.CheckoutGuest(ctx, otherID, v1.ID, now.Add(time.Hour))
	require.ErrorIs(t, err, attendance.ErrVisitNotFound)

	checked, err := repo.CheckoutGuest(ctx, memberID, v1.ID, now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, checked.CheckOut)
}
