package gym_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mMando123/gym-management/internal/reward"
)

func TestPointsLedger_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	database := setupTestDB(t)
	defer database.Close()

	cleanDatabase(t, database)

	repo := reward.NewRepository(database)
	ctx := context.Background()

	memberID := createTestMember(t, database, "points@test.com", "Points Member")

	balance, err := repo.AddPoints(ctx, memberID, 100, reward.ReasonAdjustment, "welcome bonus")
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)

	balance, err = repo.AddPoints(ctx, memberID, 10, reward.ReasonAttendance, "gym visit")
	require.NoError(t, err)
	require.Equal(t, int64(110), balance)

	balance, err = repo.DeductPoints(ctx, memberID, 30, reward.ReasonRedemption, "")
	require.NoError(t, err)
	require.Equal(t, int64(80), balance)

	// Overdraw must fail and leave the balance untouched
	_, err = repo.DeductPoints(ctx, memberID, 1000, reward.ReasonRedemption, "")
	require.ErrorIs(t, err, reward.ErrInsufficientPoints)

	balance, err = repo.GetBalance(ctx, memberID)
	require.NoError(t, err)
	require.Equal(t, int64(80), balance)

	// Ledger replay must reproduce the cached balance
	replayed, err := repo.Replay(ctx, memberID)
	require.NoError(t, err)
	require.Equal(t, int64(80), replayed)

	history, err := repo.GetHistory(ctx, memberID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, int64(80), history[0].BalanceAfter)
}

func TestRedeemReward_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	database := setupTestDB(t)
	defer database.Close()

	cleanDatabase(t, database)

	repo := reward.NewRepository(database)
	ctx := context.Background()

	memberID := createTestMember(t, database, "redeem@test.com", "Redeem Member")

	_, err := repo.AddPoints(ctx, memberID, 500, reward.ReasonAdjustment, "seed")
	require.NoError(t, err)

	rw, err := repo.CreateReward(ctx, "Protein Shake", "one free shake", 200, 1)
	require.NoError(t, err)

	red, err := repo.Redeem(ctx, memberID, rw.ID)
	require.NoError(t, err)
	require.Equal(t, int64(200), red.PointsSpent)

	balance, err := repo.GetBalance(ctx, memberID)
	require.NoError(t, err)
	require.Equal(t, int64(300), balance)

	// Quantity exhausted, second redemption must fail
	_, err = repo.Redeem(ctx, memberID, rw.ID)
	require.ErrorIs(t, err, reward.ErrRewardUnavailable)
}
