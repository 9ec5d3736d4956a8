package schedule

import (
	"time"

	"event-booking/internal/domain/event"
	"event-booking/internal/domain/user"
)

// Filter selects a single category for the calendar, or FilterAll to
// bypass the category match.
type Filter string

const FilterAll Filter = "All"

func (f Filter) Matches(c event.Category) bool {
	return f == FilterAll || event.Category(f) == c
}

// WeekStart returns midnight of the Monday of the week containing anchor,
// in anchor's location.
func WeekStart(anchor time.Time) time.Time {
	y, m, d := anchor.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, anchor.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekDays returns the 7 calendar dates of the week containing anchor,
// Monday first.
func WeekDays(anchor time.Time) [7]time.Time {
	var days [7]time.Time
	start := WeekStart(anchor)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// DayKey formats a date for same-day comparison and day grouping.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func SameDay(a, b time.Time) bool {
	return DayKey(a) == DayKey(b)
}

// VisibleSlots derives the subset of slots rendered for the week
// containing anchor. A slot is kept iff its start date falls on one of the
// week's 7 dates, the category filter matches, and the category is in
// current's preference set. A missing user or an empty preference set
// yields an empty result; this is deliberate and mirrors the service's
// onboarding behavior.
//
// Output preserves the relative order of slots; no sort key is defined
// beyond the grouping by day done at render time.
func VisibleSlots(slots []event.TimeSlot, anchor time.Time, f Filter, current *user.User) []event.TimeSlot {
	if current == nil || len(current.Preferences) == 0 {
		return nil
	}

	days := WeekDays(anchor)
	inWeek := make(map[string]struct{}, len(days))
	for _, d := range days {
		inWeek[DayKey(d)] = struct{}{}
	}

	var visible []event.TimeSlot
	for _, s := range slots {
		if _, ok := inWeek[DayKey(s.Start)]; !ok {
			continue
		}
		if !f.Matches(s.Category) {
			continue
		}
		if !current.Prefers(s.Category) {
			continue
		}
		visible = append(visible, s)
	}
	return visible
}

// SlotsOn returns the visible slots whose start falls on day, preserving
// order. Used by the calendar view to fill each day cell.
func SlotsOn(visible []event.TimeSlot, day time.Time) []event.TimeSlot {
	var out []event.TimeSlot
	for _, s := range visible {
		if SameDay(s.Start, day) {
			out = append(out, s)
		}
	}
	return out
}
