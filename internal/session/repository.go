package session

import (
	"sort"
	"sync"
	"time"
)

// Repository defines the concurrency-safe contract for tracking the live
// media sessions of the process.
type Repository interface {
	// Add registers a session, replacing any session with the same id.
	Add(s *Session)

	// Get returns the session with the given id.
	Get(id ID) (*Session, bool)

	// Remove unregisters the session with the given id and returns it.
	// Removing an unknown id is a no-op.
	Remove(id ID) (*Session, bool)

	// IdleSince returns the ids of sessions whose last activity is before
	// cutoff, sorted.
	IdleSince(cutoff time.Time) []ID

	// ActiveSessionCount returns the number of registered sessions.
	// Used for metrics.
	ActiveSessionCount() int
}

// InMemoryRepository is a concurrency-safe in-memory implementation of Repository.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given Store.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

// Add implements Repository.Add.
func (r *InMemoryRepository) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.SetSession(s)
}

// Get implements Repository.Get.
func (r *InMemoryRepository) Get(id ID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.GetSession(id)
}

// Remove implements Repository.Remove.
func (r *InMemoryRepository) Remove(id ID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.DeleteSession(id)
}

// IdleSince implements Repository.IdleSince.
func (r *InMemoryRepository) IdleSince(cutoff time.Time) []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var idle []ID
	for _, id := range r.store.ListSessionIDs() {
		if s, ok := r.store.GetSession(id); ok && s.LastActive().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i] < idle[j] })
	return idle
}

// ActiveSessionCount implements Repository.ActiveSessionCount.
func (r *InMemoryRepository) ActiveSessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store.ListSessionIDs())
}
