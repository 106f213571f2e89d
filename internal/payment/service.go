package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/mMando123/gym-management/internal/clock"
	"github.com/mMando123/gym-management/internal/logger"
	"github.com/mMando123/gym-management/internal/notifier"
	"github.com/mMando123/gym-management/internal/subscription"
)

var ErrNothingToPay = errors.New("subscription has nothing to pay")

type Service interface {
	Record(ctx context.Context, memberID int, req RecordPaymentRequest) (*Payment, error)
	Complete(ctx context.Context, paymentID int, reference string) (*Payment, error)
	ListByMember(ctx context.Context, memberID int) ([]Payment, error)
}

type service struct {
	repo     PaymentRepository
	subs     subscription.Service
	notifier notifier.Notifier
	clk      clock.Clock

	autoCompleteCash bool
}

func NewService(repo PaymentRepository, subs subscription.Service, n notifier.Notifier, clk clock.Clock, autoCompleteCash bool) Service {
	return &service{
		repo:             repo,
		subs:             subs,
		notifier:         n,
		clk:              clk,
		autoCompleteCash: autoCompleteCash,
	}
}

// Record registers a payment for the member's subscription. Cash is
// settled on the spot when the gym policy says so; card and transfer
// payments stay pending until staff confirms them.
func (s *service) Record(ctx context.Context, memberID int, req RecordPaymentRequest) (*Payment, error) {
	sub, err := s.subs.Get(ctx, memberID, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.FinalPriceCents <= 0 {
		return nil, ErrNothingToPay
	}

	amount := sub.FinalPriceCents
	tax := int64(math.Round(float64(amount) * TaxPercent / 100))

	p := &Payment{
		SubscriptionID: sub.ID,
		MemberID:       memberID,
		Method:         req.Method,
		Status:         StatusPending,
		AmountCents:    amount,
		TaxCents:       tax,
		TotalCents:     amount + tax,
	}

	if req.Method == MethodCash && s.autoCompleteCash {
		now := s.clk.Now()
		p.Status = StatusCompleted
		p.CompletedAt = &now
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	if created.Status == StatusCompleted {
		s.settle(ctx, created, sub.Status)
	}

	return created, nil
}

// Complete settles a pending payment and activates the subscription it
// pays for.
func (s *service) Complete(ctx context.Context, paymentID int, reference string) (*Payment, error) {
	p, err := s.repo.Complete(ctx, paymentID, reference, s.clk.Now())
	if err != nil {
		return nil, err
	}

	sub, err := s.subs.Get(ctx, p.MemberID, p.SubscriptionID)
	if err != nil {
		logger.WithError(err).Error("Settled payment references missing subscription", "payment_id", p.ID)
		return p, nil
	}

	s.settle(ctx, p, sub.Status)
	return p, nil
}

func (s *service) ListByMember(ctx context.Context, memberID int) ([]Payment, error) {
	return s.repo.ListByMember(ctx, memberID)
}

// settle activates the paid subscription if it is still pending and
// queues the receipt notification. Neither step may fail the payment:
// the money is already recorded.
func (s *service) settle(ctx context.Context, p *Payment, subStatus subscription.Status) {
	if subStatus == subscription.StatusPending {
		if _, err := s.subs.Activate(ctx, p.SubscriptionID); err != nil {
			logger.WithError(err).Error("Failed to activate paid subscription",
				"payment_id", p.ID, "subscription_id", p.SubscriptionID)
		}
	}

	err := s.notifier.Notify(ctx, p.MemberID, notifier.KindPaymentReceived, map[string]string{
		"method": p.Method,
		"total":  formatCents(p.TotalCents),
	})
	if err != nil {
		logger.WithError(err).Error("Failed to queue payment notification", "payment_id", p.ID)
	}
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
