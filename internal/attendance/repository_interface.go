package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	CheckIn(ctx context.Context, memberID, sportID, subscriptionID int, trainer *string, now time.Time, points int64) (*Attendance, error)
	CheckOutByMember(ctx context.Context, memberID int, now time.Time) (*Attendance, error)
	RecordGuestVisit(ctx context.Context, hostMemberID, subscriptionID int, guestName, guestPhone string, now time.Time) (*GuestVisit, error)
	CheckoutGuest(ctx context.Context, hostMemberID, visitID int, now time.Time) (*GuestVisit, error)
	AutoCloseStale(ctx context.Context, openedBefore, now time.Time) (int, error)
	CurrentAttendees(ctx context.Context) ([]AttendeeRow, error)
	History(ctx context.Context, memberID int, limit, offset int) ([]Attendance, error)
	ListGuestVisits(ctx context.Context, hostMemberID int) ([]GuestVisit, error)
}
