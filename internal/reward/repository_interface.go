package reward

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Ledger is the points ledger surface other packages depend on.
// AddPointsTx exists so that callers can grant points atomically with
// their own writes.
type Ledger interface {
	AddPointsTx(ctx context.Context, tx *sqlx.Tx, memberID int, delta int64, txType, reason, description string) (int64, error)
	AddPoints(ctx context.Context, memberID int, amount int64, reason, description string) (int64, error)
	DeductPoints(ctx context.Context, memberID int, amount int64, reason, description string) (int64, error)
}

type LedgerRepository interface {
	Ledger
	AdjustPoints(ctx context.Context, memberID int, delta int64, description string) (int64, error)
	GetBalance(ctx context.Context, memberID int) (int64, error)
	GetHistory(ctx context.Context, memberID int, limit, offset int) ([]PointTransaction, error)
	Replay(ctx context.Context, memberID int) (int64, error)
	CreateReward(ctx context.Context, name, description string, pointsCost int64, quantity int) (*Reward, error)
	ListRewards(ctx context.Context) ([]Reward, error)
	Redeem(ctx context.Context, memberID, rewardID int) (*Redemption, error)
	GrantBirthdayPoints(ctx context.Context, today time.Time, points int64) (int, error)
}
