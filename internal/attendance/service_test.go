package attendance

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mMando123/gym-management/internal/clock"
	"github.com/mMando123/gym-management/internal/logger"
	"github.com/mMando123/gym-management/internal/subscription"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

type MockAttendanceRepo struct{ mock.Mock }

func (m *MockAttendanceRepo) CheckIn(ctx context.Context, memberID, sportID, subscriptionID int, trainer *string, now time.Time, points int64) (*Attendance, error) {
	args := m.Called(ctx, memberID, sportID, subscriptionID, trainer, now, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Attendance), args.Error(1)
}

func (m *MockAttendanceRepo) CheckOutByMember(ctx context.Context, memberID int, now time.Time) (*Attendance, error) {
	args := m.Called(ctx, memberID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Attendance), args.Error(1)
}

func (m *MockAttendanceRepo) RecordGuestVisit(ctx context.Context, hostMemberID, subscriptionID int, guestName, guestPhone string, now time.Time) (*GuestVisit, error) {
	args := m.Called(ctx, hostMemberID, subscriptionID, guestName, guestPhone, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GuestVisit), args.Error(1)
}

func (m *MockAttendanceRepo) CheckoutGuest(ctx context.Context, hostMemberID, visitID int, now time.Time) (*GuestVisit, error) {
	args := m.Called(ctx, hostMemberID, visitID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GuestVisit), args.Error(1)
}

func (m *MockAttendanceRepo) AutoCloseStale(ctx context.Context, openedBefore, now time.Time) (int, error) {
	args := m.Called(ctx, openedBefore, now)
	return args.Int(0), args.Error(1)
}

func (m *MockAttendanceRepo) CurrentAttendees(ctx context.Context) ([]AttendeeRow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]AttendeeRow), args.Error(1)
}

func (m *MockAttendanceRepo) History(ctx context.Context, memberID, limit, offset int) ([]Attendance, error) {
	args := m.Called(ctx, memberID, limit, offset)
	return args.Get(0).([]Attendance), args.Error(1)
}

func (m *MockAttendanceRepo) ListGuestVisits(ctx context.Context, hostMemberID int) ([]GuestVisit, error) {
	args := m.Called(ctx, hostMemberID)
	return args.Get(0).([]GuestVisit), args.Error(1)
}

type MockSubRepo struct{ mock.Mock }

func (m *MockSubRepo) Create(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) GetByID(ctx context.Context, id int) (*subscription.Subscription, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) ListByMember(ctx context.Context, memberID int) ([]subscription.Subscription, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) FindForSport(ctx context.Context, memberID, sportID int) (*subscription.Subscription, error) {
	args := m.Called(ctx, memberID, sportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) Activate(ctx context.Context, id int, now time.Time) (*subscription.Subscription, error) {
	args := m.Called(ctx, id, now)
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) Freeze(ctx context.Context, id, days int, reason string, today time.Time) (*subscription.Subscription, error) {
	args := m.Called(ctx, id, days, reason, today)
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) Unfreeze(ctx context.Context, id int, today time.Time) (*subscription.Subscription, error) {
	args := m.Called(ctx, id, today)
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) Cancel(ctx context.Context, id int) (*subscription.Subscription, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) UsePTSession(ctx context.Context, id int) (*subscription.Subscription, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) ExpireOverdue(ctx context.Context, today time.Time) (int, error) {
	args := m.Called(ctx, today)
	return args.Int(0), args.Error(1)
}

func (m *MockSubRepo) AutoUnfreezeDue(ctx context.Context, today time.Time) (int, error) {
	args := m.Called(ctx, today)
	return args.Int(0), args.Error(1)
}

func (m *MockSubRepo) ListFreezes(ctx context.Context, subscriptionID int) ([]subscription.SubscriptionFreeze, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).([]subscription.SubscriptionFreeze), args.Error(1)
}

type MockLedger struct{ mock.Mock }

func (m *MockLedger) AddPointsTx(ctx context.Context, tx *sqlx.Tx, memberID int, delta int64, txType, reason, description string) (int64, error) {
	args := m.Called(ctx, tx, memberID, delta, txType, reason, description)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) AddPoints(ctx context.Context, memberID int, amount int64, reason, description string) (int64, error) {
	args := m.Called(ctx, memberID, amount, reason, description)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) DeductPoints(ctx context.Context, memberID int, amount int64, reason, description string) (int64, error) {
	args := m.Called(ctx, memberID, amount, reason, description)
	return args.Get(0).(int64), args.Error(1)
}

var testClock = clock.Fixed{T: time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)}

func newTestService(repo *MockAttendanceRepo, subs *MockSubRepo, ledger *MockLedger) Service {
	return NewService(repo, subs, ledger, testClock, 10, 5, 90)
}

func activeSub(id int) *subscription.Subscription {
	return &subscription.Subscription{
		ID:      id,
		Status:  subscription.StatusActive,
		EndDate: testClock.Today().AddDate(0, 0, 10),
	}
}

func TestCanAttend(t *testing.T) {
	tests := []struct {
		name       string
		sub        *subscription.Subscription
		findErr    error
		wantAllow  bool
		wantReason string
	}{
		{
			name:      "active subscription",
			sub:       activeSub(10),
			wantAllow: true,
		},
		{
			name:       "no subscription",
			findErr:    subscription.ErrSubscriptionNotFound,
			wantReason: ReasonNoActiveSubscription,
		},
		{
			name: "frozen subscription",
			sub: &subscription.Subscription{
				ID:      10,
				Status:  subscription.StatusFrozen,
				EndDate: testClock.Today().AddDate(0, 0, 10),
			},
			wantReason: ReasonSubscriptionFrozen,
		},
		{
			name: "expired subscription",
			sub: &subscription.Subscription{
				ID:      10,
				Status:  subscription.StatusExpired,
				EndDate: testClock.Today().AddDate(0, 0, -1),
			},
			wantReason: ReasonSubscriptionExpired,
		},
		{
			name: "active but past end date",
			sub: &subscription.Subscription{
				ID:      10,
				Status:  subscription.StatusActive,
				EndDate: testClock.Today().AddDate(0, 0, -1),
			},
			wantReason: ReasonSubscriptionExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := new(MockSubRepo)
			if tt.findErr != nil {
				subs.On("FindForSport", mock.Anything, 4, 5).Return(nil, tt.findErr)
			} else {
				subs.On("FindForSport", mock.Anything, 4, 5).Return(tt.sub, nil)
			}

			svc := newTestService(new(MockAttendanceRepo), subs, new(MockLedger))
			ent, err := svc.CanAttend(context.Background(), 4, 5)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllow, ent.Allowed)
			assert.Equal(t, tt.wantReason, ent.Reason)
		})
	}
}

func TestCheckIn_Allowed(t *testing.T) {
	repo := new(MockAttendanceRepo)
	subs := new(MockSubRepo)
	svc := newTestService(repo, subs, new(MockLedger))

	subs.On("FindForSport", mock.Anything, 4, 5).Return(activeSub(10), nil)
	repo.On("CheckIn", mock.Anything, 4, 5, 10, (*string)(nil), testClock.Now(), int64(10)).
		Return(&Attendance{ID: 1, MemberID: 4, SportID: 5, SubscriptionID: 10}, nil)

	att, err := svc.CheckIn(context.Background(), 4, CheckInRequest{SportID: 5})
	require.NoError(t, err)
	assert.Equal(t, 10, att.SubscriptionID)
	repo.AssertExpectations(t)
}

func TestCheckIn_Denied(t *testing.T) {
	repo := new(MockAttendanceRepo)
	subs := new(MockSubRepo)
	svc := newTestService(repo, subs, new(MockLedger))

	subs.On("FindForSport", mock.Anything, 4, 5).Return(nil, subscription.ErrSubscriptionNotFound)

	_, err := svc.CheckIn(context.Background(), 4, CheckInRequest{SportID: 5})

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, ReasonNoActiveSubscription, denied.Reason)
	repo.AssertNotCalled(t, "CheckIn")
}

func TestCheckOut_LongSessionBonus(t *testing.T) {
	repo := new(MockAttendanceRepo)
	ledger := new(MockLedger)
	svc := newTestService(repo, new(MockSubRepo), ledger)

	checkIn := testClock.Now().Add(-2 * time.Hour)
	repo.On("CheckOutByMember", mock.Anything, 4, testClock.Now()).
		Return(&Attendance{ID: 1, MemberID: 4, CheckIn: checkIn}, nil)
	ledger.On("AddPoints", mock.Anything, 4, int64(5), "long_session", mock.AnythingOfType("string")).
		Return(int64(115), nil)

	_, err := svc.CheckOut(context.Background(), 4)
	require.NoError(t, err)
	ledger.AssertExpectations(t)
}

func TestCheckOut_ShortSessionNoBonus(t *testing.T) {
	repo := new(MockAttendanceRepo)
	ledger := new(MockLedger)
	svc := newTestService(repo, new(MockSubRepo), ledger)

	checkIn := testClock.Now().Add(-30 * time.Minute)
	repo.On("CheckOutByMember", mock.Anything, 4, testClock.Now()).
		Return(&Attendance{ID: 1, MemberID: 4, CheckIn: checkIn}, nil)

	_, err := svc.CheckOut(context.Background(), 4)
	require.NoError(t, err)
	ledger.AssertNotCalled(t, "AddPoints")
}

func TestCheckOut_BonusFailureDoesNotBlock(t *testing.T) {
	repo := new(MockAttendanceRepo)
	ledger := new(MockLedger)
	svc := newTestService(repo, new(MockSubRepo), ledger)

	checkIn := testClock.Now().Add(-3 * time.Hour)
	repo.On("CheckOutByMember", mock.Anything, 4, testClock.Now()).
		Return(&Attendance{ID: 1, MemberID: 4, CheckIn: checkIn}, nil)
	ledger.On("AddPoints", mock.Anything, 4, int64(5), "long_session", mock.AnythingOfType("string")).
		Return(int64(0), errors.New("db down"))

	att, err := svc.CheckOut(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 1, att.ID)
}
