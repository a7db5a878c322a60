package session

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tcriess/lightspeed-rooms/globals"
	"github.com/tcriess/lightspeed-rooms/types"
)

const (
	DefaultTTL = 24 * time.Hour

	minUsernameLength = 2
	maxUsernameLength = 50
)

// Store holds the live user sessions. Expiry is a sliding window: every
// successful lookup refreshes the last-activity timestamp. Stale sessions
// are removed lazily on access, the periodic sweep is only a cleanup
// optimization.
type Store struct {
	ttl time.Duration

	sessions          map[string]*types.Session
	usernameToSession map[string]string

	// now is replaceable in tests
	now func() time.Time

	sync.Mutex
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:               ttl,
		sessions:          make(map[string]*types.Session),
		usernameToSession: make(map[string]string),
		now:               time.Now,
	}
}

// Create issues a new session id for username. A live session already held
// by the same username is silently displaced, its id becomes permanently
// invalid. An expired session does not block the username either, it is
// removed on the spot.
func (s *Store) Create(username string) (string, error) {
	username = strings.TrimSpace(username)
	// the bounds count characters, not bytes
	if utf8.RuneCountInString(username) < minUsernameLength {
		return "", &types.ValidationError{Field: "username", Reason: "must have at least 2 characters"}
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return "", &types.ValidationError{Field: "username", Reason: "must have at most 50 characters"}
	}
	s.Lock()
	defer s.Unlock()
	if oldId, ok := s.usernameToSession[username]; ok {
		if old, ok := s.sessions[oldId]; ok && s.validLocked(old) {
			globals.AppLogger.Info("displacing live session", "username", username)
		}
		s.removeLocked(oldId)
	}
	now := s.now()
	sess := &types.Session{
		Id:           uuid.NewString(),
		Username:     username,
		JoinedRooms:  make([]string, 0),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[sess.Id] = sess
	s.usernameToSession[username] = sess.Id
	return sess.Id, nil
}

// Get resolves a session id. A valid hit renews the sliding expiry window,
// a stale entry is removed on the spot. The returned session is a copy.
func (s *Store) Get(id string) (*types.Session, error) {
	s.Lock()
	defer s.Unlock()
	sess := s.touchLocked(id)
	if sess == nil {
		return nil, types.ErrSessionInvalid
	}
	cpy := *sess
	cpy.JoinedRooms = append([]string(nil), sess.JoinedRooms...)
	return &cpy, nil
}

// AddRoom records that the session joined a room. Idempotent, a no-op for
// invalid sessions.
func (s *Store) AddRoom(id, roomId string) {
	s.Lock()
	defer s.Unlock()
	sess := s.touchLocked(id)
	if sess == nil {
		return
	}
	for _, r := range sess.JoinedRooms {
		if r == roomId {
			return
		}
	}
	sess.JoinedRooms = append(sess.JoinedRooms, roomId)
}

// RemoveRoom is the counterpart of AddRoom, equally idempotent.
func (s *Store) RemoveRoom(id, roomId string) {
	s.Lock()
	defer s.Unlock()
	sess := s.touchLocked(id)
	if sess == nil {
		return
	}
	for i, r := range sess.JoinedRooms {
		if r == roomId {
			sess.JoinedRooms = append(sess.JoinedRooms[:i], sess.JoinedRooms[i+1:]...)
			return
		}
	}
}

// Remove is an explicit logout. Idempotent.
func (s *Store) Remove(id string) {
	s.Lock()
	defer s.Unlock()
	s.removeLocked(id)
}

// SweepExpired removes every session whose expiry window has elapsed and
// reports how many were dropped. Correctness never depends on the sweep,
// Get performs the same check lazily.
func (s *Store) SweepExpired() int {
	s.Lock()
	defer s.Unlock()
	expired := make([]string, 0)
	for id, sess := range s.sessions {
		if !s.validLocked(sess) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.removeLocked(id)
	}
	if len(expired) > 0 {
		globals.AppLogger.Info("swept expired sessions", "count", len(expired))
	}
	return len(expired)
}

// Len returns the number of stored sessions, expired-but-unswept entries
// included.
func (s *Store) Len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.sessions)
}

// touchLocked resolves and refreshes a session, removing it when stale.
func (s *Store) touchLocked(id string) *types.Session {
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if !s.validLocked(sess) {
		s.removeLocked(id)
		return nil
	}
	sess.LastActivity = s.now()
	return sess
}

func (s *Store) validLocked(sess *types.Session) bool {
	return s.now().Sub(sess.LastActivity) < s.ttl
}

func (s *Store) removeLocked(id string) {
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	if s.usernameToSession[sess.Username] == id {
		delete(s.usernameToSession, sess.Username)
	}
	delete(s.sessions, id)
}
