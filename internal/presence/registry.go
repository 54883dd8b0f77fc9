package presence

import (
	"sync"
	"time"

	"github.com/example/ride-signal/internal/models"
)

// Sender is the outbound capability of a connected participant. Send must
// never block the caller: implementations queue or drop and report the
// failure as an error.
type Sender interface {
	Send(v any) error
}

// Participant is a registered online actor. Values returned by the registry
// are snapshots; Location is replaced wholesale on update and never mutated
// in place, so a snapshot stays consistent after the lock is released.
type Participant struct {
	ID       string
	Role     models.Role
	Location *models.Coordinate
	LastSeen time.Time
	Outbound Sender
}

// Registry is the single source of truth for online state. All access goes
// through one mutex; no other component caches participant state across
// dispatches.
type Registry struct {
	mu    sync.RWMutex
	users map[string]Participant

	now func() time.Time // injectable for tests
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]Participant), now: time.Now}
}

// Register inserts or replaces the entry for id. A second registration under
// the same id overwrites role and location rather than erroring.
func (r *Registry) Register(id string, role models.Role, loc *models.Coordinate, out Sender) Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := Participant{ID: id, Role: role, Location: loc, LastSeen: r.now(), Outbound: out}
	r.users[id] = p
	return p
}

// UpdateLocation mutates location and lastSeen if id exists. A location
// update for a vanished connection is silently dropped, reported as false.
func (r *Registry) UpdateLocation(id string, loc models.Coordinate) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.users[id]
	if !ok {
		return false
	}
	c := loc
	p.Location = &c
	p.LastSeen = r.now()
	r.users[id] = p
	return true
}

func (r *Registry) Get(id string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.users[id]
	return p, ok
}

// Remove deletes the entry; removing an absent id is a no-op. The removed
// participant is returned so callers can react to its role.
func (r *Registry) Remove(id string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.users[id]
	if ok {
		delete(r.users, id)
	}
	return p, ok
}

// ListByRole returns a point-in-time snapshot of every participant with the
// given role. Order is unspecified but stable for the life of the snapshot.
func (r *Registry) ListByRole(role models.Role) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Participant, 0, len(r.users))
	for _, p := range r.users {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// Sweep removes every entry whose lastSeen is older than maxAge and returns
// the number removed. It takes the same lock as every other mutation.
func (r *Registry) Sweep(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxAge)
	removed := 0
	for id, p := range r.users {
		if p.LastSeen.Before(cutoff) {
			delete(r.users, id)
			removed++
		}
	}
	return removed
}

// Reset clears the registry entirely and returns the number of entries
// dropped. Maintenance only; the request path never calls it.
func (r *Registry) Reset() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.users)
	r.users = make(map[string]Participant)
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Counts returns the number of online drivers and riders.
func (r *Registry) Counts() (drivers, riders int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.users {
		switch p.Role {
		case models.RoleDriver:
			drivers++
		case models.RoleRider:
			riders++
		}
	}
	return drivers, riders
}
