package events

import "sort"

const (
	// DefaultFireLead is how many seconds before WindowStart an event may fire.
	DefaultFireLead = 0.2
	// DefaultRetention is how many seconds past WindowEnd an event is kept
	// before it is pruned.
	DefaultRetention = 60.0
)

// SchedulerConfig tunes a Scheduler. Non-positive values select the defaults.
type SchedulerConfig struct {
	FireLead  float64
	Retention float64
}

// Scheduler owns the registry of known events for one media session and
// decides, per playback-time tick, which events have entered their window.
// Each id fires at most once until it is pruned.
//
// A Scheduler is not safe for concurrent use; callers serialize access.
type Scheduler[P any] struct {
	fireLead  float64
	retention float64

	// pending holds every known, unpruned event, fired or not; fired marks
	// the ids already notified. Ids in fired are always keys of pending.
	pending map[string]SignalEvent[P]
	fired   map[string]struct{}
}

// NewScheduler returns an empty Scheduler.
func NewScheduler[P any](cfg SchedulerConfig) *Scheduler[P] {
	if cfg.FireLead <= 0 {
		cfg.FireLead = DefaultFireLead
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	return &Scheduler[P]{
		fireLead:  cfg.FireLead,
		retention: cfg.Retention,
		pending:   make(map[string]SignalEvent[P]),
		fired:     make(map[string]struct{}),
	}
}

// FireLead returns the early-fire tolerance in seconds.
func (s *Scheduler[P]) FireLead() float64 { return s.fireLead }

// Retention returns the retention threshold in seconds.
func (s *Scheduler[P]) Retention() float64 { return s.retention }

// OnManifestUpdate merges newly extracted events into the registry, then
// prunes every event whose window ended more than the retention threshold
// before now. Re-declared ids get their bounds refreshed; an id that already
// fired stays fired. It returns the number of events pruned.
func (s *Scheduler[P]) OnManifestUpdate(evs []SignalEvent[P], now float64) int {
	for _, ev := range evs {
		s.pending[ev.ID] = ev
	}

	pruned := 0
	for id, ev := range s.pending {
		if ev.WindowEnd+s.retention < now {
			delete(s.pending, id)
			delete(s.fired, id)
			pruned++
		}
	}
	return pruned
}

// OnPlaybackTimeUpdate returns the events that entered their window at now
// and marks them fired, ordered by WindowStart then id. An event is in window
// when WindowStart-FireLead < now < WindowEnd. It returns nil when nothing
// fired.
func (s *Scheduler[P]) OnPlaybackTimeUpdate(now float64) []SignalEvent[P] {
	var due []SignalEvent[P]
	for id, ev := range s.pending {
		if _, done := s.fired[id]; done {
			continue
		}
		if now > ev.WindowStart-s.fireLead && now < ev.WindowEnd {
			s.fired[id] = struct{}{}
			due = append(due, ev)
		}
	}
	if len(due) > 1 {
		sortByWindow(due)
	}
	return due
}

// Dispose drops all state. It is safe to call more than once.
func (s *Scheduler[P]) Dispose() {
	clear(s.pending)
	clear(s.fired)
}

// Len returns the number of events in the registry.
func (s *Scheduler[P]) Len() int { return len(s.pending) }

// Known reports whether id is in the registry, fired or not.
func (s *Scheduler[P]) Known(id string) bool {
	_, ok := s.pending[id]
	return ok
}

// Fired reports whether id has fired and is not yet pruned.
func (s *Scheduler[P]) Fired(id string) bool {
	_, ok := s.fired[id]
	return ok
}

// Snapshot returns a copy of the registry ordered by WindowStart then id,
// split into events still waiting to fire and events already fired.
func (s *Scheduler[P]) Snapshot() (waiting, fired []SignalEvent[P]) {
	for id, ev := range s.pending {
		if _, ok := s.fired[id]; ok {
			fired = append(fired, ev)
		} else {
			waiting = append(waiting, ev)
		}
	}
	sortByWindow(waiting)
	sortByWindow(fired)
	return waiting, fired
}

func sortByWindow[P any](evs []SignalEvent[P]) {
	sort.Slice(evs, func(i, j int) bool {
		if evs[i].WindowStart != evs[j].WindowStart {
			return evs[i].WindowStart < evs[j].WindowStart
		}
		return evs[i].ID < evs[j].ID
	})
}
