package types

import "time"

const (
	MessageTypeChat       = "chat"
	MessageTypeUserJoined = "user_joined"
	MessageTypeUserLeft   = "user_left"
	MessageTypeTyping     = "typing"
	MessageTypeSystem     = "system"
)

// Message is a single chat event as kept in the per-room history.
type Message struct {
	Id        string    `json:"id"`
	Type      string    `json:"type"`
	User      string    `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RoomId    string    `json:"-"`
}

// Persisted reports whether messages of the given type belong in the room
// history. Typing indicators are transient.
func Persisted(messageType string) bool {
	return messageType != MessageTypeTyping
}

// InboundPayload is what clients send via the websocket connection.
type InboundPayload struct {
	Type    string `json:"type" mapstructure:"type"`
	Message string `json:"message" mapstructure:"message"`
}
