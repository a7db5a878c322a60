package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tcriess/lightspeed-rooms/types"
)

func TestAppendAssignsIdAndTimestamp(t *testing.T) {
	l := NewLog(10)
	msg := l.Append("room1", types.MessageTypeChat, "alice", "hello")
	assert.NotEmpty(t, msg.Id)
	assert.False(t, msg.Timestamp.IsZero())
	assert.Equal(t, "room1", msg.RoomId)
	assert.Equal(t, 1, l.Count("room1"))
}

func TestHistoryIsBounded(t *testing.T) {
	l := NewLog(DefaultHistorySize)
	first := l.Append("room1", types.MessageTypeChat, "alice", "msg-0")
	for i := 1; i <= DefaultHistorySize; i++ {
		l.Append("room1", types.MessageTypeChat, "alice", fmt.Sprintf("msg-%d", i))
	}
	assert.Equal(t, DefaultHistorySize, l.Count("room1"))
	msgs := l.Recent("room1", 0)
	assert.Len(t, msgs, DefaultHistorySize)
	// the very first message fell off the front
	assert.Equal(t, "msg-1", msgs[0].Message)
	for _, msg := range msgs {
		assert.NotEqual(t, first.Id, msg.Id)
	}
}

func TestRecentReturnsOldestFirst(t *testing.T) {
	l := NewLog(10)
	for i := 0; i < 5; i++ {
		l.Append("room1", types.MessageTypeChat, "alice", fmt.Sprintf("msg-%d", i))
	}
	msgs := l.Recent("room1", 3)
	assert.Len(t, msgs, 3)
	assert.Equal(t, "msg-2", msgs[0].Message)
	assert.Equal(t, "msg-4", msgs[2].Message)

	// limit larger than the stored count returns everything
	msgs = l.Recent("room1", 100)
	assert.Len(t, msgs, 5)
	assert.Equal(t, "msg-0", msgs[0].Message)
}

func TestTypingIsNeverPersisted(t *testing.T) {
	l := NewLog(10)
	msg := l.Append("room1", types.MessageTypeTyping, "alice", "")
	assert.NotNil(t, msg)
	assert.Equal(t, 0, l.Count("room1"))
	assert.Empty(t, l.Recent("room1", 10))
}

func TestRecentUnknownRoom(t *testing.T) {
	l := NewLog(10)
	assert.Empty(t, l.Recent("nope", 10))
	assert.Equal(t, 0, l.Count("nope"))
}

func TestClear(t *testing.T) {
	l := NewLog(10)
	l.Append("room1", types.MessageTypeChat, "alice", "hello")
	l.Append("room2", types.MessageTypeChat, "bob", "hi")
	l.Clear("room1")
	assert.Equal(t, 0, l.Count("room1"))
	assert.Empty(t, l.Recent("room1", 10))
	// other rooms are untouched
	assert.Equal(t, 1, l.Count("room2"))
}

func TestRoomsAreIndependent(t *testing.T) {
	l := NewLog(3)
	for i := 0; i < 5; i++ {
		l.Append("room1", types.MessageTypeChat, "alice", fmt.Sprintf("a-%d", i))
	}
	l.Append("room2", types.MessageTypeChat, "bob", "b-0")
	assert.Equal(t, 3, l.Count("room1"))
	assert.Equal(t, 1, l.Count("room2"))
	msgs := l.Recent("room1", 0)
	assert.Equal(t, "a-2", msgs[0].Message)
}
