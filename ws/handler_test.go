package ws

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcriess/lightspeed-rooms/history"
	"github.com/tcriess/lightspeed-rooms/registry"
	"github.com/tcriess/lightspeed-rooms/session"
	"github.com/tcriess/lightspeed-rooms/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := history.NewLog(10)
	reg := registry.NewRegistry(registry.DefaultIdLength, testGrace, log)
	sessions := session.NewStore(session.DefaultTTL)
	hub := NewHub(reg)
	return NewServer(hub, reg, sessions, log, 50)
}

func TestResolveIdentityUsernameVariant(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest("GET", "/ws/room1?username=alice", nil)
	username, sessionId, err := srv.resolveIdentity(r)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.Empty(t, sessionId)

	// trimmed before validation
	r = httptest.NewRequest("GET", "/ws/room1?username="+url.QueryEscape("  bob  "), nil)
	username, _, err = srv.resolveIdentity(r)
	require.NoError(t, err)
	assert.Equal(t, "bob", username)

	r = httptest.NewRequest("GET", "/ws/room1?username=a", nil)
	_, _, err = srv.resolveIdentity(r)
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestResolveIdentityCountsCharactersNotBytes(t *testing.T) {
	srv := newTestServer(t)

	// one character, two bytes: too short
	r := httptest.NewRequest("GET", "/ws/room1?username="+url.QueryEscape("é"), nil)
	_, _, err := srv.resolveIdentity(r)
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)

	// 30 characters, 90 bytes: within the 50-character bound
	name := strings.Repeat("字", 30)
	r = httptest.NewRequest("GET", "/ws/room1?username="+url.QueryEscape(name), nil)
	username, _, err := srv.resolveIdentity(r)
	require.NoError(t, err)
	assert.Equal(t, name, username)

	r = httptest.NewRequest("GET", "/ws/room1?username="+url.QueryEscape(strings.Repeat("字", 51)), nil)
	_, _, err = srv.resolveIdentity(r)
	require.ErrorAs(t, err, &vErr)
}

func TestReplayLimitFitsTheSendBuffer(t *testing.T) {
	log := history.NewLog(10)
	reg := registry.NewRegistry(registry.DefaultIdLength, testGrace, log)
	sessions := session.NewStore(session.DefaultTTL)
	hub := NewHub(reg)

	srv := NewServer(hub, reg, sessions, log, 0)
	assert.Equal(t, 50, srv.historyLimit)

	// a replay larger than the outbound buffer would be truncated by the
	// non-blocking enqueue, so it is capped
	srv = NewServer(hub, reg, sessions, log, 10*sendChannelSize)
	assert.LessOrEqual(t, srv.historyLimit, sendChannelSize)
}

func TestResolveIdentitySessionVariant(t *testing.T) {
	srv := newTestServer(t)
	token, err := srv.sessions.Create("alice")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/ws/room1?session_id="+token, nil)
	username, sessionId, err := srv.resolveIdentity(r)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.Equal(t, token, sessionId)

	r = httptest.NewRequest("GET", "/ws/room1?session_id=bogus", nil)
	_, _, err = srv.resolveIdentity(r)
	assert.ErrorIs(t, err, types.ErrSessionInvalid)
}
