package types

import "time"

// Session is a server-held identity credential with a sliding expiry window.
// There is at most one live session per username.
type Session struct {
	Id           string    `json:"session_id"`
	Username     string    `json:"username"`
	JoinedRooms  []string  `json:"joined_rooms"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}
