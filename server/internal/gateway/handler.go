package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dishpatch/dishpatch/server/internal/config"
	"github.com/dishpatch/dishpatch/server/internal/metrics"
)

// Broadcaster is the slice of the connection server the gateway needs.
type Broadcaster interface {
	Broadcast(room, eventName string, data json.RawMessage) int
}

// notifyRequest is the JSON body accepted by the gateway.
type notifyRequest struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// notifyResponse is returned on an accepted broadcast. Members reports the
// size of the room at broadcast time; zero is a normal outcome for an empty
// or unknown room.
type notifyResponse struct {
	Accepted bool   `json:"accepted"`
	Room     string `json:"room"`
	Event    string `json:"event"`
	Members  int    `json:"members"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves POST /internal/notify. Auth settings are resolved through
// authFn on every request so hot-reloaded config applies immediately.
type Handler struct {
	hub    Broadcaster
	authFn func() config.AuthConfig
}

// New creates a Handler that forwards accepted requests to hub.
func New(hub Broadcaster, authFn func() config.AuthConfig) *Handler {
	return &Handler{hub: hub, authFn: authFn}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	auth := h.authFn()
	if auth.Mode == "apikey" {
		got := r.Header.Get(auth.EffectiveHeader())
		if got == "" {
			h.jsonErr(w, http.StatusUnauthorized, "missing credential")
			return
		}
		if got != auth.Key() {
			h.jsonErr(w, http.StatusForbidden, "invalid credential")
			return
		}
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonErr(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.Room == "" {
		h.jsonErr(w, http.StatusBadRequest, "room is required")
		return
	}
	if req.Event == "" {
		h.jsonErr(w, http.StatusBadRequest, "event is required")
		return
	}

	n := h.hub.Broadcast(req.Room, req.Event, req.Data)

	slog.Debug("gateway: broadcast accepted",
		"room", req.Room, "event", req.Event, "members", n)
	h.jsonResp(w, http.StatusOK, notifyResponse{
		Accepted: true,
		Room:     req.Room,
		Event:    req.Event,
		Members:  n,
	})
}

func (h *Handler) jsonResp(w http.ResponseWriter, code int, v interface{}) {
	metrics.ObserveGatewayRequest(code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func (h *Handler) jsonErr(w http.ResponseWriter, code int, msg string) {
	h.jsonResp(w, code, errorResponse{Error: msg})
}
