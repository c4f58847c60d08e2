package session

import (
	"context"
	"log/slog"
	"time"

	"scte-signal/internal/events"
	"scte-signal/internal/manifest"

	"github.com/google/uuid"
)

// DefaultIdleTimeout is how long a session may go without updates before the
// reaper disposes it.
const DefaultIdleTimeout = 10 * time.Minute

// Config holds the defaults applied to every new session.
type Config struct {
	Scheme      string
	Scheduler   events.SchedulerConfig
	IdleTimeout time.Duration
}

// Service creates sessions, routes updates to them and expires idle ones.
// Listeners given to NewService are attached to every session it creates.
type Service struct {
	repo      Repository
	cfg       Config
	log       *slog.Logger
	listeners []Listener
}

// NewService returns a Service storing sessions in repo. A zero Scheme or
// IdleTimeout in cfg selects the defaults.
func NewService(repo Repository, cfg Config, log *slog.Logger, listeners ...Listener) *Service {
	if cfg.Scheme == "" {
		cfg.Scheme = events.DefaultScheme
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	return &Service{repo: repo, cfg: cfg, log: log, listeners: listeners}
}

// CreateSession starts a new session. An empty scheme uses the service default.
func (s *Service) CreateSession(scheme string) *Session {
	if scheme == "" {
		scheme = s.cfg.Scheme
	}
	sess := New(ID(uuid.NewString()), scheme, s.cfg.Scheduler)
	for _, l := range s.listeners {
		sess.AddListener(l)
	}
	s.repo.Add(sess)
	s.log.Info("session created",
		slog.String("session_id", string(sess.ID())),
		slog.String("scheme", scheme))
	return sess
}

// Get returns the session with the given id or ErrSessionNotFound.
func (s *Service) Get(id ID) (*Session, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// UpdateManifest feeds a manifest snapshot to the session.
func (s *Service) UpdateManifest(id ID, snap *manifest.Snapshot) (ManifestResult, error) {
	sess, err := s.Get(id)
	if err != nil {
		return ManifestResult{}, err
	}
	return sess.UpdateManifest(snap)
}

// UpdatePlaybackTime feeds a playback-time tick to the session.
func (s *Service) UpdatePlaybackTime(id ID, t float64) ([]Fired, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.UpdatePlaybackTime(t)
}

// State returns a view of the session.
func (s *Service) State(id ID) (State, error) {
	sess, err := s.Get(id)
	if err != nil {
		return State{}, err
	}
	return sess.State(), nil
}

// CloseSession disposes and forgets the session. Closing an unknown id is a
// no-op so that teardown can be retried.
func (s *Service) CloseSession(id ID) {
	sess, ok := s.repo.Remove(id)
	if !ok {
		return
	}
	sess.Close()
	s.log.Info("session closed", slog.String("session_id", string(id)))
}

// ActiveSessionCount returns the number of open sessions.
func (s *Service) ActiveSessionCount() int {
	return s.repo.ActiveSessionCount()
}

// ExpireIdle closes sessions with no activity in the idle timeout before now
// and returns how many it closed. A session touched after it was listed as
// idle is left open.
func (s *Service) ExpireIdle(now time.Time) int {
	cutoff := now.Add(-s.cfg.IdleTimeout)
	closed := 0
	for _, id := range s.repo.IdleSince(cutoff) {
		sess, ok := s.repo.Get(id)
		if !ok || !sess.CloseIfIdle(cutoff) {
			continue
		}
		s.repo.Remove(id)
		closed++
		s.log.Info("session expired", slog.String("session_id", string(id)))
	}
	return closed
}

// RunReaper calls ExpireIdle every interval until ctx is done. A non-positive
// interval uses half the idle timeout.
func (s *Service) RunReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.cfg.IdleTimeout / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.ExpireIdle(now)
		}
	}
}
