package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mMando123/gym-management/internal/clock"
	"github.com/mMando123/gym-management/internal/logger"
	"github.com/mMando123/gym-management/internal/metrics"
	"github.com/mMando123/gym-management/internal/notifier"
	"github.com/mMando123/gym-management/internal/plan"
	"github.com/mMando123/gym-management/internal/pricing"
)

var (
	ErrPlanInactive    = errors.New("plan is not active")
	ErrInvalidDate     = errors.New("invalid start date")
	ErrPackageInactive = errors.New("package is not active")
)

const methodCash = "cash"

type Service interface {
	Create(ctx context.Context, memberID int, req CreateSubscriptionRequest) (*Subscription, *pricing.Quote, error)
	Get(ctx context.Context, memberID, id int) (*Subscription, error)
	ListMine(ctx context.Context, memberID int) ([]Subscription, error)
	Activate(ctx context.Context, id int) (*Subscription, error)
	Freeze(ctx context.Context, memberID, id int, req FreezeRequest) (*Subscription, error)
	Unfreeze(ctx context.Context, memberID, id int) (*Subscription, error)
	Cancel(ctx context.Context, memberID, id int) (*Subscription, error)
	Renew(ctx context.Context, memberID, id int, promoCode, paymentMethod string) (*Subscription, *pricing.Quote, error)
	UsePTSession(ctx context.Context, memberID, id int) (*Subscription, error)
	ListFreezes(ctx context.Context, memberID, id int) ([]SubscriptionFreeze, error)
}

type service struct {
	repo               SubscriptionRepository
	planRepo           plan.PlanRepository
	calc               *pricing.Calculator
	notifier           notifier.Notifier
	clk                clock.Clock
	autoActivateOnCash bool
}

func NewService(
	repo SubscriptionRepository,
	planRepo plan.PlanRepository,
	calc *pricing.Calculator,
	n notifier.Notifier,
	clk clock.Clock,
	autoActivateOnCash bool,
) Service {
	return &service{
		repo:               repo,
		planRepo:           planRepo,
		calc:               calc,
		notifier:           n,
		clk:                clk,
		autoActivateOnCash: autoActivateOnCash,
	}
}

func (s *service) Create(ctx context.Context, memberID int, req CreateSubscriptionRequest) (*Subscription, *pricing.Quote, error) {
	startDate := s.clk.Today()
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, nil, ErrInvalidDate
		}
		if parsed.Before(startDate) {
			return nil, nil, fmt.Errorf("%w: start date is in the past", ErrInvalidDate)
		}
		startDate = parsed
	}

	return s.create(ctx, memberID, req, startDate, "")
}

func (s *service) create(ctx context.Context, memberID int, req CreateSubscriptionRequest, startDate time.Time, notes string) (*Subscription, *pricing.Quote, error) {
	p, err := s.planRepo.GetPlanByID(ctx, req.PlanID)
	if err != nil {
		return nil, nil, err
	}
	if !p.IsActive {
		return nil, nil, ErrPlanInactive
	}

	prices, err := s.planRepo.GetSportPrices(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}

	var pkg *plan.Package
	if req.PackageID != nil {
		pkg, err = s.planRepo.GetPackageByID(ctx, *req.PackageID)
		if err != nil {
			return nil, nil, err
		}
		if !pkg.IsActive {
			return nil, nil, ErrPackageInactive
		}
	}

	quote, err := s.calc.Calculate(p, prices, req.SportIDs, pkg, req.PromoCode)
	if err != nil {
		return nil, nil, err
	}

	sub := &Subscription{
		SubscriptionNumber:   GenerateSubscriptionNumber(s.clk.Now()),
		MemberID:             memberID,
		PlanID:               p.ID,
		PackageID:            req.PackageID,
		Status:               StatusPending,
		StartDate:            startDate,
		EndDate:              startDate.AddDate(0, 0, p.DurationDays),
		FreezeDaysRemaining:  p.FreezeDaysAllowed,
		GuestPassesRemaining: p.GuestPasses,
		PTSessionsRemaining:  p.PTSessions,
		OriginalPriceCents:   quote.OriginalCents,
		DiscountCents:        quote.DiscountCents,
		FinalPriceCents:      quote.FinalCents,
		Notes:                notes,
		SportIDs:             req.SportIDs,
	}

	created, err := s.repo.Create(ctx, sub)
	if err != nil {
		return nil, nil, err
	}

	metrics.RecordSubscriptionCreated(p.Name)
	s.notify(ctx, memberID, notifier.KindSubscriptionCreated, created)

	// Cash is settled on the spot, so the membership starts working
	// immediately instead of waiting for a payment confirmation.
	if req.PaymentMethod == methodCash && s.autoActivateOnCash {
		activated, err := s.repo.Activate(ctx, created.ID, s.clk.Now())
		if err != nil {
			logger.WithError(err).Error("Failed to auto-activate cash subscription", "subscription_id", created.ID)
			return created, quote, nil
		}
		activated.SportIDs = created.SportIDs
		metrics.RecordSubscriptionTransition(string(StatusActive))
		s.notify(ctx, memberID, notifier.KindSubscriptionActivated, activated)
		return activated, quote, nil
	}

	return created, quote, nil
}

func (s *service) Get(ctx context.Context, memberID, id int) (*Subscription, error) {
	return s.owned(ctx, memberID, id)
}

func (s *service) ListMine(ctx context.Context, memberID int) ([]Subscription, error) {
	return s.repo.ListByMember(ctx, memberID)
}

func (s *service) Activate(ctx context.Context, id int) (*Subscription, error) {
	sub, err := s.repo.Activate(ctx, id, s.clk.Now())
	if err != nil {
		return nil, err
	}
	metrics.RecordSubscriptionTransition(string(StatusActive))
	s.notify(ctx, sub.MemberID, notifier.KindSubscriptionActivated, sub)
	return sub, nil
}

func (s *service) Freeze(ctx context.Context, memberID, id int, req FreezeRequest) (*Subscription, error) {
	if _, err := s.owned(ctx, memberID, id); err != nil {
		return nil, err
	}

	sub, err := s.repo.Freeze(ctx, id, req.Days, req.Reason, s.clk.Today())
	if err != nil {
		return nil, err
	}
	metrics.RecordSubscriptionTransition(string(StatusFrozen))
	s.notify(ctx, memberID, notifier.KindSubscriptionFrozen, sub)
	return sub, nil
}

func (s *service) Unfreeze(ctx context.Context, memberID, id int) (*Subscription, error) {
	if _, err := s.owned(ctx, memberID, id); err != nil {
		return nil, err
	}

	sub, err := s.repo.Unfreeze(ctx, id, s.clk.Today())
	if err != nil {
		return nil, err
	}
	metrics.RecordSubscriptionTransition(string(StatusActive))
	return sub, nil
}

func (s *service) Cancel(ctx context.Context, memberID, id int) (*Subscription, error) {
	if _, err := s.owned(ctx, memberID, id); err != nil {
		return nil, err
	}

	sub, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.RecordSubscriptionTransition(string(StatusCancelled))
	return sub, nil
}

// Renew creates a fresh subscription that picks up where the old one
// ends. The old row is never mutated, so a renewal cannot race a
// concurrent freeze or check-in against it.
func (s *service) Renew(ctx context.Context, memberID, id int, promoCode, paymentMethod string) (*Subscription, *pricing.Quote, error) {
	old, err := s.owned(ctx, memberID, id)
	if err != nil {
		return nil, nil, err
	}

	startDate := s.clk.Today()
	if next := old.EndDate.AddDate(0, 0, 1); next.After(startDate) {
		startDate = next
	}

	req := CreateSubscriptionRequest{
		PlanID:        old.PlanID,
		SportIDs:      old.SportIDs,
		PackageID:     old.PackageID,
		PromoCode:     promoCode,
		PaymentMethod: paymentMethod,
	}

	return s.create(ctx, memberID, req, startDate, "renewal of "+old.SubscriptionNumber)
}

func (s *service) UsePTSession(ctx context.Context, memberID, id int) (*Subscription, error) {
	if _, err := s.owned(ctx, memberID, id); err != nil {
		return nil, err
	}
	return s.repo.UsePTSession(ctx, id)
}

func (s *service) ListFreezes(ctx context.Context, memberID, id int) ([]SubscriptionFreeze, error) {
	if _, err := s.owned(ctx, memberID, id); err != nil {
		return nil, err
	}
	return s.repo.ListFreezes(ctx, id)
}

// owned loads the subscription and hides other members' rows behind
// not-found.
func (s *service) owned(ctx context.Context, memberID, id int) (*Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.MemberID != memberID {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *service) notify(ctx context.Context, memberID int, kind string, sub *Subscription) {
	err := s.notifier.Notify(ctx, memberID, kind, map[string]string{
		"subscription_number": sub.SubscriptionNumber,
		"status":              string(sub.Status),
		"end_date":            sub.EndDate.Format("2006-01-02"),
	})
	if err != nil {
		logger.WithError(err).Error("Failed to queue notification", "kind", kind, "member_id", memberID)
	}
}
