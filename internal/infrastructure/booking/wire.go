package booking

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"event-booking/internal/domain/event"
	"event-booking/internal/domain/user"
)

// wireID tolerates the service's loose identifier typing: stored rows come
// back as JSON numbers while client-created ids stay strings.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = wireID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}

func (id wireID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// wireTimeLayouts are tried in order when parsing service timestamps. The
// service emits bare ISO 8601 without an offset; such values are
// interpreted in local time.
var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseWireTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range wireTimeLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func formatWireTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

type wireSlot struct {
	ID       wireID  `json:"id"`
	Category string  `json:"category"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	UserID   *wireID `json:"user_id"`
}

func (w wireSlot) toDomain() (event.TimeSlot, error) {
	start, err := parseWireTime(w.Start)
	if err != nil {
		return event.TimeSlot{}, fmt.Errorf("slot %s start: %w", w.ID, err)
	}
	end, err := parseWireTime(w.End)
	if err != nil {
		return event.TimeSlot{}, fmt.Errorf("slot %s end: %w", w.ID, err)
	}

	s := event.TimeSlot{
		ID:       string(w.ID),
		Category: event.Category(w.Category),
		Start:    start,
		End:      end,
	}
	if w.UserID != nil {
		s.UserID = string(*w.UserID)
	}
	return s, nil
}

func slotToWire(s event.TimeSlot) wireSlot {
	w := wireSlot{
		ID:       wireID(s.ID),
		Category: string(s.Category),
		Start:    formatWireTime(s.Start),
		End:      formatWireTime(s.End),
	}
	if s.UserID != "" {
		uid := wireID(s.UserID)
		w.UserID = &uid
	}
	return w
}

// wireUser carries preferences as the comma-joined string the service
// speaks; the domain model only ever sees the split set.
type wireUser struct {
	ID          wireID  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Preferences *string `json:"preferences"`
}

func (w wireUser) toDomain() user.User {
	u := user.User{
		ID:    string(w.ID),
		Name:  w.Name,
		Email: w.Email,
	}
	if w.Preferences != nil {
		u.Preferences = splitPreferences(*w.Preferences)
	}
	return u
}

func splitPreferences(joined string) []event.Category {
	var prefs []event.Category
	for _, part := range strings.Split(joined, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		prefs = append(prefs, event.Category(part))
	}
	return prefs
}

func joinPreferences(prefs []event.Category) string {
	parts := make([]string, 0, len(prefs))
	for _, p := range prefs {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ",")
}
