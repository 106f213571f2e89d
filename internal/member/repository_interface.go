package member

import (
	"context"
	"time"
)

type MemberRepository interface {
	Create(ctx context.Context, memberNumber, name, email, passwordHash, role string, phone *string, dateOfBirth *time.Time) (*Member, error)
	FindByEmail(ctx context.Context, email string) (*Member, error)
	FindByID(ctx context.Context, id int) (*Member, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
