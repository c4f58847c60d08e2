package session

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"scte-signal/internal/events"
	"scte-signal/internal/manifest"
)

var (
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionFailed is returned for updates to a session that hit a fatal
	// manifest error. The session must be closed and recreated.
	ErrSessionFailed = errors.New("session failed")

	// ErrSessionClosed is returned for updates to a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// Session binds one media session to its own Scheduler. Manifest and
// playback-time updates may arrive from different goroutines; Session
// serializes them.
type Session struct {
	mu sync.Mutex

	id        ID
	scheme    string
	sched     *events.Scheduler[events.Raw]
	listeners []registered
	nextSlot  int

	playbackTime float64
	live         bool
	liveKnown    bool
	duration     float64
	failed       error
	closed       bool
	lastActive   time.Time
}

type registered struct {
	slot int
	l    Listener
}

// New returns a session recognizing event streams with the given scheme.
func New(id ID, scheme string, cfg events.SchedulerConfig) *Session {
	if scheme == "" {
		scheme = events.DefaultScheme
	}
	return &Session{
		id:         id,
		scheme:     scheme,
		sched:      events.NewScheduler[events.Raw](cfg),
		lastActive: time.Now(),
	}
}

// ID returns the session id.
func (s *Session) ID() ID { return s.id }

// Scheme returns the recognized event stream scheme.
func (s *Session) Scheme() string { return s.scheme }

// Thresholds returns the scheduler's fire lead and retention in seconds.
func (s *Session) Thresholds() (fireLead, retention float64) {
	return s.sched.FireLead(), s.sched.Retention()
}

// AddListener registers l and returns a function that unregisters it.
func (s *Session) AddListener(l Listener) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.nextSlot
	s.nextSlot++
	s.listeners = append(s.listeners, registered{slot: slot, l: l})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, r := range s.listeners {
			if r.slot == slot {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// UpdateManifest notifies listeners of every qualifying declaration of snap,
// duplicates included, then merges the deduplicated events into the scheduler
// and prunes stale events against the last known playback time.
//
// A snapshot carrying the error marker returns a *events.ManifestError, drops
// all scheduler state and fails the session.
func (s *Session) UpdateManifest(snap *manifest.Snapshot) (ManifestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usableLocked(); err != nil {
		return ManifestResult{}, err
	}
	s.lastActive = time.Now()

	declared, err := events.Declared(snap, s.scheme)
	if err != nil {
		s.failed = err
		s.sched.Dispose()
		for _, r := range s.listeners {
			r.l.ManifestFailed(s.id, err)
		}
		return ManifestResult{}, err
	}

	if !s.liveKnown && snap != nil {
		s.live = snap.Dynamic
		s.liveKnown = true
	}
	if !s.live && snap != nil && snap.Duration > 0 {
		s.duration = snap.Duration
	}

	for _, ev := range declared {
		d := Declaration{
			EventID:   ev.ID,
			Duration:  ev.Duration,
			Timescale: ev.Payload.Timescale,
			Event:     ev.Payload.Event,
		}
		for _, r := range s.listeners {
			r.l.DeclarationObserved(s.id, d)
		}
	}

	pruned := s.sched.OnManifestUpdate(events.Dedupe(declared), s.playbackTime)
	return ManifestResult{Declared: len(declared), Pruned: pruned, Live: s.live}, nil
}

// UpdatePlaybackTime records the playback position and returns the events
// that newly entered their window, notifying listeners of each.
func (s *Session) UpdatePlaybackTime(t float64) ([]Fired, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usableLocked(); err != nil {
		return nil, err
	}
	s.lastActive = time.Now()
	s.playbackTime = t

	due := s.sched.OnPlaybackTimeUpdate(t)
	if len(due) == 0 {
		return nil, nil
	}
	out := make([]Fired, 0, len(due))
	for _, ev := range due {
		f := Fired{SignalEvent: ev, Remaining: ev.WindowEnd - t}
		for _, r := range s.listeners {
			r.l.SignalEntered(s.id, f)
		}
		out = append(out, f)
	}
	return out, nil
}

// Duration returns the presentation duration in seconds. Live sessions, and
// static ones whose manifest carries no mediaPresentationDuration, are
// unbounded and report +Inf.
func (s *Session) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durationLocked()
}

func (s *Session) durationLocked() float64 {
	if s.live || s.duration <= 0 {
		return math.Inf(1)
	}
	return s.duration
}

// Close disposes the scheduler and detaches all listeners. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()
}

// CloseIfIdle closes the session if it has not been updated since cutoff and
// reports whether it did. The check and the close happen under one lock, so
// an update racing the idle reaper either keeps the session open or fails
// with ErrSessionClosed.
func (s *Session) CloseIfIdle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.lastActive.Before(cutoff) {
		return false
	}
	s.closeLocked()
	return true
}

func (s *Session) closeLocked() {
	s.closed = true
	s.sched.Dispose()
	s.listeners = nil
}

// State returns a view of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:           s.id,
		Scheme:       s.scheme,
		PlaybackTime: s.playbackTime,
		Live:         s.live,
		Pending:      []string{},
		Fired:        []string{},
	}
	if s.failed != nil {
		st.Failed = s.failed.Error()
	}
	if d := s.durationLocked(); !math.IsInf(d, 1) {
		st.Duration = &d
	}
	waiting, fired := s.sched.Snapshot()
	for _, ev := range waiting {
		st.Pending = append(st.Pending, ev.ID)
	}
	for _, ev := range fired {
		st.Fired = append(st.Fired, ev.ID)
	}
	return st
}

// LastActive returns the time of the last manifest or playback-time update.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) usableLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.failed != nil {
		return fmt.Errorf("%w: %v", ErrSessionFailed, s.failed)
	}
	return nil
}
