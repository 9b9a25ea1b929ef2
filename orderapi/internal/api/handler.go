package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dishpatch/dishpatch/orderapi/internal/orders"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	svc *orders.Service
	mux *http.ServeMux
}

// New creates a Handler wired to the given order service and registers all
// routes.
func New(svc *orders.Service) http.Handler {
	h := &Handler{svc: svc, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/orders", h.orders)
	h.mux.HandleFunc("/api/v1/orders/", h.orderSubtree) // {id} and {id}/status

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

// orders handles POST (create) and GET (list) on /api/v1/orders.
func (h *Handler) orders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createOrder(w, r)
	case http.MethodGet:
		h.listOrders(w, r)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "malformed body")
		return
	}

	o, err := h.svc.Create(r.Context(), req)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResp(w, http.StatusCreated, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	out := h.svc.List(r.URL.Query().Get("restaurant_id"))
	jsonResp(w, http.StatusOK, out)
}

// orderSubtree routes GET /api/v1/orders/{id} and
// POST /api/v1/orders/{id}/status.
func (h *Handler) orderSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/orders/")
	if rest == "" {
		h.orders(w, r)
		return
	}

	if id, ok := strings.CutSuffix(rest, "/status"); ok {
		h.updateStatus(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	o, err := h.svc.Get(rest)
	if err != nil {
		jsonErr(w, http.StatusNotFound, "order not found")
		return
	}
	jsonResp(w, http.StatusOK, o)
}

// statusRequest is the body of POST /api/v1/orders/{id}/status.
type statusRequest struct {
	Status orders.Status `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.Status == "" {
		jsonErr(w, http.StatusBadRequest, "status is required")
		return
	}

	o, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	switch {
	case err == nil:
		jsonResp(w, http.StatusOK, o)
	case errors.Is(err, orders.ErrNotFound):
		jsonErr(w, http.StatusNotFound, "order not found")
	case errors.Is(err, orders.ErrIllegalTransition):
		jsonErr(w, http.StatusConflict, err.Error())
	default:
		jsonErr(w, http.StatusBadRequest, err.Error())
	}
}

// --- helpers ----------------------------------------------------------------

type errorResponse struct {
	Error string `json:"error"`
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
