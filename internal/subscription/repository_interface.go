package subscription

import (
	"context"
	"time"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) (*Subscription, error)
	GetByID(ctx context.Context, id int) (*Subscription, error)
	ListByMember(ctx context.Context, memberID int) ([]Subscription, error)
	FindForSport(ctx context.Context, memberID, sportID int) (*Subscription, error)
	Activate(ctx context.Context, id int, now time.Time) (*Subscription, error)
	Freeze(ctx context.Context, id, days int, reason string, today time.Time) (*Subscription, error)
	Unfreeze(ctx context.Context, id int, today time.Time) (*Subscription, error)
	Cancel(ctx context.Context, id int) (*Subscription, error)
	UsePTSession(ctx context.Context, id int) (*Subscription, error)
	ExpireOverdue(ctx context.Context, today time.Time) (int, error)
	AutoUnfreezeDue(ctx context.Context, today time.Time) (int, error)
	ListFreezes(ctx context.Context, subscriptionID int) ([]SubscriptionFreeze, error)
}
