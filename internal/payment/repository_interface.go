package payment

import (
	"context"
	"time"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) (*Payment, error)
	GetByID(ctx context.Context, id int) (*Payment, error)
	Complete(ctx context.Context, id int, reference string, now time.Time) (*Payment, error)
	ListByMember(ctx context.Context, memberID int) ([]Payment, error)
}
