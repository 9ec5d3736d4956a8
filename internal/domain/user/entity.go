package user

import "event-booking/internal/domain/event"

// User is the identity the booking service reports for the authenticated
// account. Preferences is the set of categories the user wants to see on
// the calendar; the comma-joined wire form is a transport detail handled
// by the remote access layer.
type User struct {
	ID          string
	Name        string
	Email       string
	Preferences []event.Category
}

func (u User) Prefers(c event.Category) bool {
	for _, p := range u.Preferences {
		if p == c {
			return true
		}
	}
	return false
}
