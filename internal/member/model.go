package member

import (
	"fmt"
	"math/rand"
	"time"
)

type Member struct {
	ID           int        `db:"id" json:"id"`
	MemberNumber string     `db:"member_number" json:"member_number"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	DateOfBirth  *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	// RewardPoints is a materialized projection of the points ledger.
	// It must always equal the latest balance_after in point_transactions
	// and is recomputable from the ledger.
	RewardPoints int64     `db:"reward_points" json:"reward_points"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type RegisterRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Member       Member `json:"member"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// GenerateMemberNumber builds a human-readable unique membership id,
// e.g. MEM202601151030421.
func GenerateMemberNumber(now time.Time) string {
	return fmt.Sprintf("MEM%s%03d", now.Format("20060102150405"), rand.Intn(900)+100)
}
