package event

import "time"

// Category labels a time slot. The deployment ships a fixed set of three,
// but the type stays open so the service can grow the enumeration without
// breaking this client.
type Category string

const (
	CategoryOne   Category = "Cat 1"
	CategoryTwo   Category = "Cat 2"
	CategoryThree Category = "Cat 3"
)

// KnownCategories returns the categories the client offers in its forms.
// Slots fetched from the service may carry categories outside this set and
// are rendered as-is.
func KnownCategories() []Category {
	return []Category{CategoryOne, CategoryTwo, CategoryThree}
}

func (c Category) Known() bool {
	for _, k := range KnownCategories() {
		if c == k {
			return true
		}
	}
	return false
}

// TimeSlot is a bookable window of time. UserID is empty while the slot is
// unbooked and holds the owning user's id after a booking.
type TimeSlot struct {
	ID       string
	Category Category
	Start    time.Time
	End      time.Time
	UserID   string
}

func (s TimeSlot) Booked() bool {
	return s.UserID != ""
}

func (s TimeSlot) BookedBy(userID string) bool {
	return s.UserID != "" && s.UserID == userID
}

// Valid reports whether the slot satisfies the invariants the client
// enforces before dispatching a create or edit.
func (s TimeSlot) Valid() bool {
	if s.Category == "" {
		return false
	}
	if s.Start.IsZero() || s.End.IsZero() {
		return false
	}
	return s.Start.Before(s.End)
}
