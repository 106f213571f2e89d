package notifier

import "context"

// Notification kinds emitted by the lifecycle operations.
const (
	KindSubscriptionCreated   = "subscription_created"
	KindSubscriptionActivated = "subscription_activated"
	KindSubscriptionFrozen    = "subscription_frozen"
	KindSubscriptionExpired   = "subscription_expired"
	KindPaymentReceived       = "payment_received"
	KindBirthday              = "birthday"
)

// Notifier hands a member notification off to a delivery channel.
// Callers treat it as fire-and-forget: a failed hand-off is logged and
// never rolls back the operation that produced it.
type Notifier interface {
	Notify(ctx context.Context, memberID int, kind string, payload map[string]string) error
}

// Noop discards notifications. Used in tests and when no queue is
// configured.
type Noop struct{}

func (Noop) Notify(ctx context.Context, memberID int, kind string, payload map[string]string) error {
	return nil
}
