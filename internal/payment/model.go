package payment

import "time"

const (
	MethodCash     = "cash"
	MethodCard     = "card"
	MethodTransfer = "transfer"

	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// TaxPercent is applied on top of the subscription price.
const TaxPercent = 15

type Payment struct {
	ID             int        `db:"id" json:"id"`
	SubscriptionID int        `db:"subscription_id" json:"subscription_id"`
	MemberID       int        `db:"member_id" json:"member_id"`
	Method         string     `db:"method" json:"method"`
	Status         string     `db:"status" json:"status"`
	AmountCents    int64      `db:"amount_cents" json:"amount_cents"`
	TaxCents       int64      `db:"tax_cents" json:"tax_cents"`
	TotalCents     int64      `db:"total_cents" json:"total_cents"`
	Reference      string     `db:"reference" json:"reference,omitempty"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

type RecordPaymentRequest struct {
	SubscriptionID int    `json:"subscription_id" binding:"required"`
	Method         string `json:"method" binding:"required,oneof=cash card transfer"`
}

type CompletePaymentRequest struct {
	Reference string `json:"reference"`
}
