package main

import (
	"github.com/jxwalker/mdcsync/internal/api"
	"github.com/jxwalker/mdcsync/internal/config"
	"github.com/jxwalker/mdcsync/internal/configure"
	friendlyerrors "github.com/jxwalker/mdcsync/internal/errors"
	"github.com/jxwalker/mdcsync/internal/lockfile"
	"github.com/jxwalker/mdcsync/internal/logging"
	"github.com/jxwalker/mdcsync/internal/metrics"
	"github.com/jxwalker/mdcsync/internal/notify"
	"github.com/jxwalker/mdcsync/internal/state"
)

// session bundles what a command needs to talk to MediaDC.
type session struct {
	cfg     *config.Config
	log     *logging.Logger
	db      *state.DB
	client  *api.Client
	metrics *metrics.Manager
	lock    *lockfile.LockFile
}

// openSession opens the state store and API client. Mutating commands
// also take the data root lock.
func openSession(c *config.Config, log *logging.Logger, mutating bool) (*session, error) {
	s := &session{cfg: c, log: log, metrics: metrics.New(c)}
	if err := config.EnsureDir(c.General.DataRoot, 0o755); err != nil {
		return nil, friendlyerrors.PathError(c.General.DataRoot, err)
	}
	if mutating {
		l, err := lockfile.Acquire(c.LockPath())
		if err != nil {
			return nil, err
		}
		s.lock = l
	}
	db, err := state.Open(c)
	if err != nil {
		_ = s.lock.Release()
		return nil, friendlyerrors.DatabaseError(err)
	}
	s.db = db
	client, err := api.New(c, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.client = client
	return s, nil
}

// configurator wires a Configurator to this session. The CLI acts as the
// configuration view, so no navigation happens on startup.
func (s *session) configurator(n notify.Notifier, nav configure.Navigator) *configure.Configurator {
	if nav == nil {
		nav = configure.NewRouteHolder(configure.RouteConfiguration)
	}
	return configure.New(configure.Options{
		API:       s.client,
		Store:     s.db,
		Notifier:  n,
		Navigator: nav,
		Log:       s.log,
		Metrics:   s.metrics,
		History:   s.db,
	})
}

// notifier logs toasts and mirrors them to the desktop when enabled.
func (s *session) notifier(extra ...notify.Notifier) notify.Notifier {
	ns := append([]notify.Notifier{}, extra...)
	if s.cfg.Notify.Desktop {
		ns = append(ns, notify.Desktop("mdcsync", s.log))
	}
	return notify.Multi(ns...)
}

func (s *session) Close() {
	if err := s.metrics.Write(); err != nil {
		s.log.Warnf("metrics: %v", err)
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	if err := s.lock.Release(); err != nil {
		s.log.Warnf("lock: %v", err)
	}
}
