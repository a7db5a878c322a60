package registry

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tcriess/lightspeed-rooms/globals"
	"github.com/tcriess/lightspeed-rooms/history"
)

const (
	DefaultIdLength      = 10
	DefaultEvictionGrace = time.Minute
)

// Registry tracks which rooms currently exist and runs the deferred eviction
// of rooms that stay empty past the grace period. Room membership itself
// lives in the connection hub, the registry only consults it through the
// occupancy hook when an eviction timer fires.
type Registry struct {
	idLength int
	grace    time.Duration

	log *history.Log

	// occupancy reports the current number of live connections in a room.
	// Wired to the hub at startup.
	occupancy func(roomId string) int

	active    map[string]time.Time
	evictions map[string]*time.Timer

	sync.Mutex
}

func NewRegistry(idLength int, grace time.Duration, log *history.Log) *Registry {
	if idLength <= 0 {
		idLength = DefaultIdLength
	}
	if grace <= 0 {
		grace = DefaultEvictionGrace
	}
	return &Registry{
		idLength:  idLength,
		grace:     grace,
		log:       log,
		active:    make(map[string]time.Time),
		evictions: make(map[string]*time.Timer),
	}
}

// SetOccupancyFunc wires in the connection hub's membership count. Must be
// set before the first eviction timer can fire.
func (r *Registry) SetOccupancyFunc(f func(roomId string) int) {
	r.Lock()
	defer r.Unlock()
	r.occupancy = f
}

// Create generates a room id unique among the currently active ids and
// marks it active. Short random ids are not collision-free at scale, so the
// generation retries until the id is unused.
func (r *Registry) Create() string {
	r.Lock()
	defer r.Unlock()
	var id string
	for {
		id = newRoomId(r.idLength)
		if _, ok := r.active[id]; !ok {
			break
		}
	}
	r.active[id] = time.Now()
	// a stale timer for a reused id should not normally exist
	if t, ok := r.evictions[id]; ok {
		t.Stop()
		delete(r.evictions, id)
	}
	globals.AppLogger.Info("room created", "room", id, "active", len(r.active))
	return id
}

func newRoomId(length int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if length < len(id) {
		id = id[:length]
	}
	return id
}

func (r *Registry) Exists(id string) bool {
	r.Lock()
	defer r.Unlock()
	_, ok := r.active[id]
	return ok
}

func (r *Registry) List() []string {
	r.Lock()
	defer r.Unlock()
	rooms := make([]string, 0, len(r.active))
	for id := range r.active {
		rooms = append(rooms, id)
	}
	return rooms
}

// Remove marks the room inactive, cancels a pending eviction timer and
// discards the room's message history. Idempotent.
func (r *Registry) Remove(id string) {
	r.Lock()
	existed := r.removeLocked(id)
	r.Unlock()
	if !existed {
		return
	}
	r.log.Clear(id)
	globals.AppLogger.Info("room removed", "room", id)
}

func (r *Registry) removeLocked(id string) bool {
	_, existed := r.active[id]
	delete(r.active, id)
	if t, ok := r.evictions[id]; ok {
		t.Stop()
		delete(r.evictions, id)
	}
	return existed
}

// ScheduleEviction starts the room's grace timer. A no-op for unknown rooms
// and for rooms that already have a timer pending, timers are never stacked.
func (r *Registry) ScheduleEviction(id string) {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.active[id]; !ok {
		return
	}
	if _, ok := r.evictions[id]; ok {
		return
	}
	r.evictions[id] = time.AfterFunc(r.grace, func() { r.evict(id) })
	globals.AppLogger.Debug("eviction scheduled", "room", id, "grace", r.grace)
}

// CancelEviction is safe to call speculatively, it is a no-op when no timer
// is pending.
func (r *Registry) CancelEviction(id string) {
	r.Lock()
	defer r.Unlock()
	if t, ok := r.evictions[id]; ok {
		t.Stop()
		delete(r.evictions, id)
		globals.AppLogger.Debug("eviction cancelled", "room", id)
	}
}

// evict runs when a grace timer fires. The scheduling-time snapshot is a
// grace period old by now, so the room is re-checked against the current
// state: still active, and still without any live connection. The occupancy
// hook only takes the hub's own lock, it is safe to call it here.
func (r *Registry) evict(id string) {
	r.Lock()
	delete(r.evictions, id)
	if _, ok := r.active[id]; !ok {
		r.Unlock()
		return
	}
	if r.occupancy != nil && r.occupancy(id) > 0 {
		r.Unlock()
		globals.AppLogger.Debug("eviction skipped, room occupied again", "room", id)
		return
	}
	r.removeLocked(id)
	r.Unlock()
	r.log.Clear(id)
	globals.AppLogger.Info("room evicted", "room", id)
}
