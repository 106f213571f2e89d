package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mMando123/gym-management/internal/clock"
	"github.com/mMando123/gym-management/internal/logger"
	"github.com/mMando123/gym-management/internal/metrics"
	"github.com/mMando123/gym-management/internal/reward"
	"github.com/mMando123/gym-management/internal/subscription"
)

// DeniedError carries the reason a check-in was refused.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("check-in denied: %s", e.Reason)
}

type Service interface {
	CanAttend(ctx context.Context, memberID, sportID int) (*Entitlement, error)
	CheckIn(ctx context.Context, memberID int, req CheckInRequest) (*Attendance, error)
	CheckOut(ctx context.Context, memberID int) (*Attendance, error)
	RecordGuestVisit(ctx context.Context, hostMemberID int, req GuestVisitRequest) (*GuestVisit, error)
	CheckoutGuest(ctx context.Context, hostMemberID, visitID int) (*GuestVisit, error)
	CurrentAttendees(ctx context.Context) ([]AttendeeRow, error)
	History(ctx context.Context, memberID, limit, offset int) ([]Attendance, error)
	ListGuestVisits(ctx context.Context, hostMemberID int) ([]GuestVisit, error)
}

type service struct {
	repo    AttendanceRepository
	subRepo subscription.SubscriptionRepository
	ledger  reward.Ledger
	clk     clock.Clock

	attendancePoints   int64
	longSessionPoints  int64
	longSessionMinutes int
}

func NewService(
	repo AttendanceRepository,
	subRepo subscription.SubscriptionRepository,
	ledger reward.Ledger,
	clk clock.Clock,
	attendancePoints, longSessionPoints int64,
	longSessionMinutes int,
) Service {
	return &service{
		repo:               repo,
		subRepo:            subRepo,
		ledger:             ledger,
		clk:                clk,
		attendancePoints:   attendancePoints,
		longSessionPoints:  longSessionPoints,
		longSessionMinutes: longSessionMinutes,
	}
}

// CanAttend resolves the member's entitlement for a sport right now.
func (s *service) CanAttend(ctx context.Context, memberID, sportID int) (*Entitlement, error) {
	sub, err := s.subRepo.FindForSport(ctx, memberID, sportID)
	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return &Entitlement{Reason: ReasonNoActiveSubscription}, nil
	}
	if err != nil {
		return nil, err
	}

	switch {
	case sub.Status == subscription.StatusFrozen:
		return &Entitlement{Reason: ReasonSubscriptionFrozen, SubscriptionID: sub.ID}, nil
	case sub.Status == subscription.StatusExpired || sub.EndDate.Before(s.clk.Today()):
		return &Entitlement{Reason: ReasonSubscriptionExpired, SubscriptionID: sub.ID}, nil
	}

	return &Entitlement{Allowed: true, SubscriptionID: sub.ID}, nil
}

func (s *service) CheckIn(ctx context.Context, memberID int, req CheckInRequest) (*Attendance, error) {
	ent, err := s.CanAttend(ctx, memberID, req.SportID)
	if err != nil {
		return nil, err
	}
	if !ent.Allowed {
		metrics.RecordCheckIn("denied")
		return nil, &DeniedError{Reason: ent.Reason}
	}

	var trainer *string
	if req.TrainerName != "" {
		trainer = &req.TrainerName
	}

	att, err := s.repo.CheckIn(ctx, memberID, req.SportID, ent.SubscriptionID, trainer, s.clk.Now(), s.attendancePoints)
	if errors.Is(err, ErrAlreadyCheckedIn) {
		metrics.RecordCheckIn("already_open")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordCheckIn("ok")
	return att, nil
}

// CheckOut closes the member's open session. The long-session bonus is
// best effort: a failure to grant it is logged and never blocks the
// checkout.
func (s *service) CheckOut(ctx context.Context, memberID int) (*Attendance, error) {
	now := s.clk.Now()
	att, err := s.repo.CheckOutByMember(ctx, memberID, now)
	if err != nil {
		return nil, err
	}

	duration := now.Sub(att.CheckIn)
	if duration > time.Duration(s.longSessionMinutes)*time.Minute {
		_, err := s.ledger.AddPoints(ctx, memberID, s.longSessionPoints,
			reward.ReasonLongSession, fmt.Sprintf("%d minute session", int(duration.Minutes())))
		if err != nil {
			logger.WithError(err).Error("Failed to grant long-session bonus", "member_id", memberID)
		}
	}

	return att, nil
}

func (s *service) RecordGuestVisit(ctx context.Context, hostMemberID int, req GuestVisitRequest) (*GuestVisit, error) {
	visit, err := s.repo.RecordGuestVisit(ctx, hostMemberID, req.SubscriptionID, req.GuestName, req.GuestPhone, s.clk.Now())
	if err != nil {
		return nil, err
	}
	metrics.RecordGuestVisit()
	return visit, nil
}

func (s *service) CheckoutGuest(ctx context.Context, hostMemberID, visitID int) (*GuestVisit, error) {
	return s.repo.CheckoutGuest(ctx, hostMemberID, visitID, s.clk.Now())
}

func (s *service) CurrentAttendees(ctx context.Context) ([]AttendeeRow, error) {
	return s.repo.CurrentAttendees(ctx)
}

func (s *service) History(ctx context.Context, memberID, limit, offset int) ([]Attendance, error) {
	return s.repo.History(ctx, memberID, limit, offset)
}

func (s *service) ListGuestVisits(ctx context.Context, hostMemberID int) ([]GuestVisit, error) {
	return s.repo.ListGuestVisits(ctx, hostMemberID)
}
