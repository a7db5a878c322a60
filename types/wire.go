package types

import "time"

// WirePayload is the JSON shape of every frame sent to a websocket client.
// The timestamp is omitted for transient events like typing indicators.
type WirePayload struct {
	Id        string `json:"id,omitempty"`
	Type      string `json:"type"`
	User      string `json:"user"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Wire converts a history message into its wire representation.
func (m *Message) Wire() WirePayload {
	return WirePayload{
		Id:        m.Id,
		Type:      m.Type,
		User:      m.User,
		Message:   m.Message,
		Timestamp: m.Timestamp.In(time.UTC).Format(time.RFC3339Nano),
	}
}
