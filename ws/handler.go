package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
	"github.com/tcriess/lightspeed-rooms/globals"
	"github.com/tcriess/lightspeed-rooms/history"
	"github.com/tcriess/lightspeed-rooms/registry"
	"github.com/tcriess/lightspeed-rooms/session"
	"github.com/tcriess/lightspeed-rooms/types"
)

// Server upgrades HTTP requests to websocket connections and drives the
// join, message and close lifecycle of each of them.
type Server struct {
	hub      *Hub
	registry *registry.Registry
	sessions *session.Store
	log      *history.Log

	// number of history entries replayed to a new joiner
	historyLimit int

	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, reg *registry.Registry, sessions *session.Store, messageLog *history.Log, historyLimit int) *Server {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	// the replay burst is enqueued before the write loop drains anything,
	// anything beyond the send buffer would be dropped
	if historyLimit > sendChannelSize {
		historyLimit = sendChannelSize
	}
	return &Server{
		hub:          hub,
		registry:     reg,
		sessions:     sessions,
		log:          messageLog,
		historyLimit: historyLimit,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles a join request. The room and identity are validated
// after the upgrade so that a policy violation can be signalled with a
// proper close code before any membership registration happens.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomId := mux.Vars(r)["room"]

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		globals.AppLogger.Error("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	username, sessionId, err := s.resolveIdentity(r)
	if err != nil {
		closePolicy(conn, err.Error())
		return
	}
	if !s.registry.Exists(roomId) {
		closePolicy(conn, types.ErrRoomNotFound.Error())
		return
	}

	c := newClient(s, conn, roomId, username, sessionId)
	go c.WriteLoop()
	s.onJoin(c)
	c.ReadLoop()
}

// resolveIdentity extracts the caller's username, either through a bearer
// session id or, in the session-less variant, directly from the username
// query parameter.
func (s *Server) resolveIdentity(r *http.Request) (username, sessionId string, err error) {
	vals := r.URL.Query()
	if sid := vals.Get("session_id"); sid != "" {
		sess, err := s.sessions.Get(sid)
		if err != nil {
			return "", "", err
		}
		return sess.Username, sid, nil
	}
	username = strings.TrimSpace(vals.Get("username"))
	if n := utf8.RuneCountInString(username); n < 2 || n > 50 {
		return "", "", &types.ValidationError{Field: "username", Reason: "must have 2 to 50 characters"}
	}
	return username, "", nil
}

func (s *Server) onJoin(c *Client) {
	s.hub.Connect(c, c.roomId)
	if c.sessionId != "" {
		s.sessions.AddRoom(c.sessionId, c.roomId)
	}
	// replay the recent history before the join announcement goes out
	for _, msg := range s.log.Recent(c.roomId, s.historyLimit) {
		if data, err := json.Marshal(msg.Wire()); err == nil {
			c.enqueue(data)
		}
	}
	msg := s.log.Append(c.roomId, types.MessageTypeUserJoined, c.username, fmt.Sprintf("%s joined the room", c.username))
	s.hub.Broadcast(msg.Wire(), c.roomId)
}

// parsePayload decodes a raw inbound frame into the expected payload shape.
func parsePayload(raw []byte) (types.InboundPayload, error) {
	payload := types.InboundPayload{}
	payloadMap := make(map[string]interface{})
	if err := json.Unmarshal(raw, &payloadMap); err != nil {
		return payload, &types.MalformedPayloadError{Err: err}
	}
	if err := mapstructure.WeakDecode(payloadMap, &payload); err != nil {
		return payload, &types.MalformedPayloadError{Err: err}
	}
	return payload, nil
}

// onMessage handles one raw inbound frame. Frames that do not parse as the
// expected payload are logged and dropped, the connection stays open.
func (s *Server) onMessage(c *Client, raw []byte) {
	payload, err := parsePayload(raw)
	if err != nil {
		log.Printf("info: dropping frame from %s: %s", c.username, err)
		return
	}
	switch payload.Type {
	case types.MessageTypeTyping:
		// transient, never persisted, and the sender gets no echo
		s.hub.BroadcastExcept(types.WirePayload{Type: types.MessageTypeTyping, User: c.username}, c.roomId, c)

	case types.MessageTypeChat:
		msg := s.log.Append(c.roomId, types.MessageTypeChat, c.username, payload.Message)
		s.hub.Broadcast(msg.Wire(), c.roomId)

	default:
		log.Printf("info: dropping frame with unknown type %q from %s", payload.Type, c.username)
	}
}

func (s *Server) onClose(c *Client) {
	s.hub.Disconnect(c, c.roomId)
	if c.sessionId != "" {
		s.sessions.RemoveRoom(c.sessionId, c.roomId)
	}
	// the room may already be gone after an administrative removal
	if !s.registry.Exists(c.roomId) {
		return
	}
	msg := s.log.Append(c.roomId, types.MessageTypeUserLeft, c.username, fmt.Sprintf("%s left the room", c.username))
	s.hub.Broadcast(msg.Wire(), c.roomId)
}

// closePolicy signals a policy violation (unknown room, invalid session) to
// the peer before the connection is torn down.
func closePolicy(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(writeWait)
	data := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, data, deadline)
}
