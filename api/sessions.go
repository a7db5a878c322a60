package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tcriess/lightspeed-rooms/types"
)

type createSessionRequest struct {
	Username string `json:"username"`
}

type sessionResponse struct {
	SessionId   string   `json:"session_id"`
	Username    string   `json:"username"`
	JoinedRooms []string `json:"joined_rooms"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	req := createSessionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sessionId, err := h.sessions.Create(req.Username)
	if err != nil {
		var vErr *types.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sessionId})
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(bearerToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, types.ErrSessionInvalid.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionId:   sess.Id,
		Username:    sess.Username,
		JoinedRooms: sess.JoinedRooms,
	})
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Remove(bearerToken(r))
	writeJSON(w, http.StatusOK, map[string]string{"message": "session closed"})
}

func (h *Handler) sweepSessions(w http.ResponseWriter, r *http.Request) {
	removed := h.sessions.SweepExpired()
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
