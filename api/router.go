// Package api exposes the HTTP surface of the broker: session and room
// endpoints plus the websocket upgrade route.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/tcriess/lightspeed-rooms/globals"
	"github.com/tcriess/lightspeed-rooms/history"
	"github.com/tcriess/lightspeed-rooms/registry"
	"github.com/tcriess/lightspeed-rooms/session"
	"github.com/tcriess/lightspeed-rooms/ws"
)

const Version = "2.0.0"

type Handler struct {
	registry *registry.Registry
	sessions *session.Store
	log      *history.Log
	hub      *ws.Hub
}

// NewRouter wires all routes. The websocket server is passed in separately,
// it owns the connection lifecycle.
func NewRouter(reg *registry.Registry, sessions *session.Store, log *history.Log, hub *ws.Hub, wsServer *ws.Server) *mux.Router {
	h := &Handler{
		registry: reg,
		sessions: sessions,
		log:      log,
		hub:      hub,
	}
	router := mux.NewRouter()
	router.HandleFunc("/sessions", h.createSession).Methods(http.MethodPost)
	router.HandleFunc("/sessions/me", h.currentSession).Methods(http.MethodGet)
	router.HandleFunc("/sessions/me", h.deleteSession).Methods(http.MethodDelete)
	router.HandleFunc("/sessions/sweep", h.sweepSessions).Methods(http.MethodPost)
	router.HandleFunc("/rooms", h.createRoom).Methods(http.MethodPost)
	router.HandleFunc("/rooms", h.listRooms).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{room:[a-z0-9_-]+}", h.getRoom).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{room:[a-z0-9_-]+}", h.removeRoom).Methods(http.MethodDelete)
	router.HandleFunc("/rooms/{room:[a-z0-9_-]+}/messages", h.roomMessages).Methods(http.MethodGet)
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.HandleFunc("/ping", h.ping).Methods(http.MethodHead)
	router.Handle("/ws/{room:[a-z0-9_-]+}", wsServer).Methods(http.MethodGet)
	return router
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		globals.AppLogger.Error("could not encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// bearerToken extracts the opaque session id from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}
