package history

import (
	"container/ring"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tcriess/lightspeed-rooms/types"
)

const DefaultHistorySize = 1000

type roomHistory struct {
	// start points at the oldest entry, end at the cell the next entry
	// goes into
	start, end *ring.Ring
	count      int
}

// Log keeps the per-room message history in fixed-size ring buffers. Once a
// room's history is full, every append drops the oldest retained entry.
type Log struct {
	size  int
	rooms map[string]*roomHistory

	sync.RWMutex
}

func NewLog(size int) *Log {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Log{
		size:  size,
		rooms: make(map[string]*roomHistory),
	}
}

// Append assigns the message an id and timestamp and attaches it to the
// room's history.
func (l *Log) Append(roomId, messageType, user, content string) *types.Message {
	msg := &types.Message{
		Id:        uuid.NewString(),
		Type:      messageType,
		User:      user,
		Message:   content,
		Timestamp: time.Now(),
		RoomId:    roomId,
	}
	if !types.Persisted(messageType) {
		return msg
	}
	l.Lock()
	defer l.Unlock()
	h, ok := l.rooms[roomId]
	if !ok {
		// one spare cell, the start==end state is reserved for "empty"
		r := ring.New(l.size + 1)
		h = &roomHistory{start: r, end: r}
		l.rooms[roomId] = h
	}
	h.end.Value = msg
	h.end = h.end.Next()
	if h.end == h.start {
		h.start = h.start.Next()
	} else {
		h.count++
	}
	return msg
}

// Recent returns the most recent min(limit, stored) messages, oldest first.
// A limit <= 0 returns the entire retained history.
func (l *Log) Recent(roomId string, limit int) []*types.Message {
	l.RLock()
	defer l.RUnlock()
	h, ok := l.rooms[roomId]
	if !ok {
		return nil
	}
	msgs := make([]*types.Message, 0, h.count)
	for current := h.start; current != h.end; current = current.Next() {
		msgs = append(msgs, current.Value.(*types.Message))
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs
}

// Clear discards the entire history of a room. Called on room eviction.
func (l *Log) Clear(roomId string) {
	l.Lock()
	defer l.Unlock()
	delete(l.rooms, roomId)
}

func (l *Log) Count(roomId string) int {
	l.RLock()
	defer l.RUnlock()
	if h, ok := l.rooms[roomId]; ok {
		return h.count
	}
	return 0
}
