package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"event-booking/internal/domain/event"
	"event-booking/internal/domain/user"
	"event-booking/internal/infrastructure/booking"
	"event-booking/internal/session"
)

var (
	ErrNoPreferences   = errors.New("at least one preference is required")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidSlot     = errors.New("invalid time slot")
)

// Store holds the authoritative local copies of users and time slots after
// the last successful fetch. Every mutating action calls the remote
// service first and applies only its own confirmed result to the local
// collection; a failed call leaves local state untouched. There is no
// optimistic update, so the views always reflect server-confirmed state.
//
// Actions may run concurrently (one per in-flight HTTP request); each
// completion replaces only the record it identifies, so results applied
// out of order never overwrite one another.
type Store struct {
	mu      sync.RWMutex
	remote  booking.Client
	session *session.Session
	log     *zap.Logger

	users []user.User
	slots []event.TimeSlot
}

func NewStore(remote booking.Client, sess *session.Session, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{remote: remote, session: sess, log: log}
}

// Refresh replaces both local collections with fresh server state and pins
// the session's current user to the fetched identity.
func (s *Store) Refresh(ctx context.Context) error {
	users, err := s.remote.FetchUsers(ctx)
	if err != nil {
		return err
	}
	slots, err := s.remote.FetchTimeSlots(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.users = users
	s.slots = slots
	s.mu.Unlock()

	if len(users) > 0 {
		s.session.SetCurrentUser(users[0])
	}

	s.log.Debug("state refreshed",
		zap.Int("users", len(users)),
		zap.Int("slots", len(slots)),
	)
	return nil
}

func (s *Store) Users() []user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]user.User(nil), s.users...)
}

func (s *Store) TimeSlots() []event.TimeSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]event.TimeSlot(nil), s.slots...)
}

func (s *Store) UserByID(id string) (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return user.User{}, false
}

func (s *Store) SlotByID(id string) (event.TimeSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sl := range s.slots {
		if sl.ID == id {
			return sl, true
		}
	}
	return event.TimeSlot{}, false
}

// Book asks the service to book the slot for the authenticated user. The
// service is the sole arbiter of legality; its authoritative slot replaces
// the local copy on success.
func (s *Store) Book(ctx context.Context, slotID string) (event.TimeSlot, error) {
	updated, err := s.remote.Book(ctx, slotID)
	if err != nil {
		s.log.Warn("book failed", zap.String("slot_id", slotID), zap.Error(err))
		return event.TimeSlot{}, err
	}
	s.replaceSlot(updated)
	return updated, nil
}

func (s *Store) CancelBooking(ctx context.Context, slotID string) (event.TimeSlot, error) {
	updated, err := s.remote.Cancel(ctx, slotID)
	if err != nil {
		s.log.Warn("cancel failed", zap.String("slot_id", slotID), zap.Error(err))
		return event.TimeSlot{}, err
	}
	s.replaceSlot(updated)
	return updated, nil
}

// AddSlot creates a new unbooked slot. The service's create schema wants a
// client-supplied id, so one is generated here.
func (s *Store) AddSlot(ctx context.Context, category event.Category, start, end time.Time) (event.TimeSlot, error) {
	slot := event.TimeSlot{
		ID:       uuid.NewString(),
		Category: category,
		Start:    start,
		End:      end,
	}
	if !slot.Valid() {
		return event.TimeSlot{}, ErrInvalidSlot
	}
	if !category.Known() {
		return event.TimeSlot{}, ErrUnknownCategory
	}

	created, err := s.remote.CreateSlot(ctx, slot)
	if err != nil {
		s.log.Warn("create slot failed", zap.Error(err))
		return event.TimeSlot{}, err
	}

	s.mu.Lock()
	s.slots = append(s.slots, created)
	s.mu.Unlock()
	return created, nil
}

// EditSlot commits a draft copy of a slot. The draft is validated locally
// before any request goes out.
func (s *Store) EditSlot(ctx context.Context, draft event.TimeSlot) (event.TimeSlot, error) {
	if draft.ID == "" || !draft.Valid() {
		return event.TimeSlot{}, ErrInvalidSlot
	}

	updated, err := s.remote.UpdateSlot(ctx, draft)
	if err != nil {
		s.log.Warn("edit slot failed", zap.String("slot_id", draft.ID), zap.Error(err))
		return event.TimeSlot{}, err
	}
	s.replaceSlot(updated)
	return updated, nil
}

func (s *Store) DeleteSlot(ctx context.Context, slotID string) error {
	if err := s.remote.DeleteSlot(ctx, slotID); err != nil {
		s.log.Warn("delete slot failed", zap.String("slot_id", slotID), zap.Error(err))
		return err
	}

	s.mu.Lock()
	kept := s.slots[:0]
	for _, sl := range s.slots {
		if sl.ID != slotID {
			kept = append(kept, sl)
		}
	}
	s.slots = kept
	s.mu.Unlock()
	return nil
}

// UpdatePreferences saves a new preference set for the user. An empty or
// unknown selection is rejected locally; no request is sent.
func (s *Store) UpdatePreferences(ctx context.Context, userID string, prefs []event.Category) (user.User, error) {
	if len(prefs) == 0 {
		return user.User{}, ErrNoPreferences
	}
	for _, p := range prefs {
		if !p.Known() {
			return user.User{}, ErrUnknownCategory
		}
	}

	updated, err := s.remote.UpdatePreferences(ctx, userID, prefs)
	if err != nil {
		s.log.Warn("update preferences failed", zap.String("user_id", userID), zap.Error(err))
		return user.User{}, err
	}

	s.mu.Lock()
	for i := range s.users {
		if s.users[i].ID == updated.ID {
			s.users[i] = updated
		}
	}
	s.mu.Unlock()

	if current := s.session.CurrentUser(); current != nil && current.ID == updated.ID {
		s.session.SetCurrentUser(updated)
	}
	return updated, nil
}

// Clear drops the local collections; used on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	s.users = nil
	s.slots = nil
	s.mu.Unlock()
}

// replaceSlot swaps the record matching the id and nothing else. A result
// for a slot that has since been deleted is dropped.
func (s *Store) replaceSlot(updated event.TimeSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		if s.slots[i].ID == updated.ID {
			s.slots[i] = updated
			return
		}
	}
}
