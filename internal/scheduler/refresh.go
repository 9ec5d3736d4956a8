package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"event-booking/internal/session"
	"event-booking/internal/usecase"
)

// Refresher re-fetches users and time slots on a cron schedule so the
// calendar does not go stale between user actions. This is still pull —
// there is no push channel from the service.
type Refresher struct {
	cron    *cron.Cron
	store   *usecase.Store
	session *session.Session
	log     *zap.Logger
}

// New builds a Refresher from a cron spec such as "@every 5m". The spec
// comes from config; an invalid spec is a startup error.
func New(spec string, store *usecase.Store, sess *session.Session, log *zap.Logger) (*Refresher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Refresher{
		cron:    cron.New(),
		store:   store,
		session: sess,
		log:     log,
	}
	if _, err := r.cron.AddFunc(spec, r.tick); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.cron.Start()
	r.log.Info("background refresh enabled")
}

func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Refresher) tick() {
	if !r.session.Authenticated() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.store.Refresh(ctx); err != nil {
		r.log.Warn("background refresh failed", zap.Error(err))
	}
}
