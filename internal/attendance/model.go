package attendance

import "time"

// Denial reasons returned by the entitlement check.
const (
	ReasonNoActiveSubscription = "NoActiveSubscription"
	ReasonSubscriptionFrozen   = "SubscriptionFrozen"
	ReasonSubscriptionExpired  = "SubscriptionExpired"
)

// Attendance is one gym visit. At most one row per member may have a
// null check_out; the attendance_one_open_per_member partial unique
// index enforces this at the store.
type Attendance struct {
	ID             int        `db:"id" json:"id"`
	MemberID       int        `db:"member_id" json:"member_id"`
	SportID        int        `db:"sport_id" json:"sport_id"`
	SubscriptionID int        `db:"subscription_id" json:"subscription_id"`
	TrainerName    *string    `db:"trainer_name" json:"trainer_name,omitempty"`
	CheckIn        time.Time  `db:"check_in" json:"check_in"`
	CheckOut       *time.Time `db:"check_out" json:"check_out,omitempty"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
}

type GuestVisit struct {
	ID             int        `db:"id" json:"id"`
	SubscriptionID int        `db:"subscription_id" json:"subscription_id"`
	HostMemberID   int        `db:"host_member_id" json:"host_member_id"`
	GuestName      string     `db:"guest_name" json:"guest_name"`
	GuestPhone     string     `db:"guest_phone" json:"guest_phone"`
	CheckIn        time.Time  `db:"check_in" json:"check_in"`
	CheckOut       *time.Time `db:"check_out" json:"check_out,omitempty"`
}

type CheckInRequest struct {
	SportID     int    `json:"sport_id" binding:"required"`
	TrainerName string `json:"trainer_name"`
}

type GuestVisitRequest struct {
	SubscriptionID int    `json:"subscription_id" binding:"required"`
	GuestName      string `json:"guest_name" binding:"required"`
	GuestPhone     string `json:"guest_phone" binding:"required"`
}

// Entitlement is the answer to "may this member check in for this
// sport right now".
type Entitlement struct {
	Allowed        bool   `json:"allowed"`
	Reason         string `json:"reason,omitempty"`
	SubscriptionID int    `json:"subscription_id,omitempty"`
}

// AttendeeRow is a current-attendees listing entry.
type AttendeeRow struct {
	AttendanceID int       `db:"attendance_id" json:"attendance_id"`
	MemberID     int       `db:"member_id" json:"member_id"`
	MemberName   string    `db:"member_name" json:"member_name"`
	SportName    string    `db:"sport_name" json:"sport_name"`
	CheckIn      time.Time `db:"check_in" json:"check_in"`
}
