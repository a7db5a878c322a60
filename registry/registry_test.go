package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcriess/lightspeed-rooms/history"
	"github.com/tcriess/lightspeed-rooms/types"
)

const testGrace = 50 * time.Millisecond

func newTestRegistry(t *testing.T) (*Registry, *history.Log) {
	t.Helper()
	log := history.NewLog(10)
	return NewRegistry(DefaultIdLength, testGrace, log), log
}

func TestCreateUniqueIds(t *testing.T) {
	reg, _ := newTestRegistry(t)
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		id := reg.Create()
		require.Len(t, id, DefaultIdLength)
		_, dup := seen[id]
		require.False(t, dup, "duplicate room id %s", id)
		seen[id] = struct{}{}
		assert.True(t, reg.Exists(id))
	}
	assert.Len(t, reg.List(), 500)
}

func TestRemoveIsIdempotentAndClearsHistory(t *testing.T) {
	reg, log := newTestRegistry(t)
	id := reg.Create()
	log.Append(id, types.MessageTypeChat, "alice", "hello")
	require.Equal(t, 1, log.Count(id))

	reg.Remove(id)
	assert.False(t, reg.Exists(id))
	assert.Equal(t, 0, log.Count(id))

	reg.Remove(id) // second removal is a no-op
	assert.False(t, reg.Exists(id))
}

func TestEvictionFiresOnEmptyRoom(t *testing.T) {
	reg, log := newTestRegistry(t)
	reg.SetOccupancyFunc(func(string) int { return 0 })
	id := reg.Create()
	log.Append(id, types.MessageTypeUserJoined, "alice", "alice joined the room")

	reg.ScheduleEviction(id)
	assert.True(t, reg.Exists(id), "room stays active during the grace period")

	time.Sleep(4 * testGrace)
	assert.False(t, reg.Exists(id))
	assert.Equal(t, 0, log.Count(id), "eviction discards the history")
}

func TestCancelEvictionKeepsRoomAlive(t *testing.T) {
	reg, _ := newTestRegistry(t)
	reg.SetOccupancyFunc(func(string) int { return 0 })
	id := reg.Create()

	reg.ScheduleEviction(id)
	reg.CancelEviction(id)

	time.Sleep(4 * testGrace)
	assert.True(t, reg.Exists(id))
}

func TestCancelEvictionWithoutTimerIsNoop(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id := reg.Create()
	reg.CancelEviction(id)
	reg.CancelEviction("unknown")
	assert.True(t, reg.Exists(id))
}

func TestEvictionRechecksOccupancyAtFireTime(t *testing.T) {
	reg, _ := newTestRegistry(t)
	// someone joined again between scheduling and firing, without the
	// registry being notified
	reg.SetOccupancyFunc(func(string) int { return 1 })
	id := reg.Create()

	reg.ScheduleEviction(id)
	time.Sleep(4 * testGrace)
	assert.True(t, reg.Exists(id), "an occupied room must survive the timer firing")
}

func TestScheduleEvictionDoesNotStackTimers(t *testing.T) {
	reg, _ := newTestRegistry(t)
	reg.SetOccupancyFunc(func(string) int { return 0 })
	id := reg.Create()

	reg.ScheduleEviction(id)
	reg.ScheduleEviction(id)
	reg.ScheduleEviction(id)
	reg.Lock()
	pending := len(reg.evictions)
	reg.Unlock()
	assert.Equal(t, 1, pending)
}

func TestScheduleEvictionOnUnknownRoomIsNoop(t *testing.T) {
	reg, _ := newTestRegistry(t)
	reg.ScheduleEviction("unknown")
	reg.Lock()
	pending := len(reg.evictions)
	reg.Unlock()
	assert.Equal(t, 0, pending)
}
