package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tcriess/lightspeed-rooms/types"
)

type roomResponse struct {
	RoomId    string `json:"room_id"`
	Exists    bool   `json:"exists"`
	UserCount int    `json:"user_count"`
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	roomId := h.registry.Create()
	writeJSON(w, http.StatusCreated, map[string]string{"room_id": roomId})
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"rooms": h.registry.List()})
}

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := mux.Vars(r)["room"]
	if !h.registry.Exists(roomId) {
		writeError(w, http.StatusNotFound, types.ErrRoomNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, roomResponse{
		RoomId:    roomId,
		Exists:    true,
		UserCount: h.hub.RoomUserCount(roomId),
	})
}

// removeRoom is the explicit administrative removal, used by the admin CLI.
func (h *Handler) removeRoom(w http.ResponseWriter, r *http.Request) {
	roomId := mux.Vars(r)["room"]
	if !h.registry.Exists(roomId) {
		writeError(w, http.StatusNotFound, types.ErrRoomNotFound.Error())
		return
	}
	h.registry.Remove(roomId)
	writeJSON(w, http.StatusOK, map[string]string{"message": "room removed"})
}

func (h *Handler) roomMessages(w http.ResponseWriter, r *http.Request) {
	roomId := mux.Vars(r)["room"]
	if !h.registry.Exists(roomId) {
		writeError(w, http.StatusNotFound, types.ErrRoomNotFound.Error())
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	messages := h.log.Recent(roomId, limit)
	payloads := make([]types.WirePayload, 0, len(messages))
	for _, msg := range messages {
		payloads = append(payloads, msg.Wire())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": payloads,
		"count":    h.log.Count(roomId),
	})
}
