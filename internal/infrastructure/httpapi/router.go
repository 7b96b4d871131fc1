// Package httpapi exposes identification and history over a small JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/ports"
)

// maxBodyBytes bounds request bodies; base64 camera JPEGs fit comfortably.
const maxBodyBytes = 20 << 20

// Identifier is the identification surface served by the API.
type Identifier interface {
	IdentifyByImage(ctx context.Context, imageBase64 string) (domain.MedicineRecord, error)
	IdentifyByText(ctx context.Context, query string) (domain.MedicineRecord, error)
}

// HealthChecker runs diagnostics for /healthz.
type HealthChecker interface {
	Run(ctx context.Context) (domain.HealthReport, error)
}

// Dependencies are the services behind the routes. Doctor may be nil.
type Dependencies struct {
	Identifier Identifier
	History    ports.HistoryRepository
	Doctor     HealthChecker
	Logger     ports.Logger
}

type handlers struct {
	Dependencies
}

// NewRouter registers all routes.
func NewRouter(deps Dependencies) *mux.Router {
	h := &handlers{Dependencies: deps}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/identify/image", h.identifyImage).Methods(http.MethodPost)
	api.HandleFunc("/identify/text", h.identifyText).Methods(http.MethodPost)
	api.HandleFunc("/history", h.listHistory).Methods(http.MethodGet)
	api.HandleFunc("/history", h.clearHistory).Methods(http.MethodDelete)
	api.HandleFunc("/history/{id}", h.getHistory).Methods(http.MethodGet)
	api.HandleFunc("/history/{id}", h.deleteHistory).Methods(http.MethodDelete)
	return r
}

type imageRequest struct {
	Image string `json:"image"`
}

type textRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) identifyImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := h.Identifier.IdentifyByImage(r.Context(), req.Image)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *handlers) identifyText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := h.Identifier.IdentifyByText(r.Context(), req.Query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *handlers) listHistory(w http.ResponseWriter, r *http.Request) {
	entries := h.History.List(r.Context())
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		if limit < len(entries) {
			entries = entries[:limit]
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handlers) clearHistory(w http.ResponseWriter, r *http.Request) {
	h.History.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getHistory(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.History.Get(r.Context(), mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "history entry not found"})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *handlers) deleteHistory(w http.ResponseWriter, r *http.Request) {
	h.History.Delete(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.Doctor == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	report, err := h.Doctor.Run(r.Context())
	status := http.StatusOK
	if err != nil || !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error("request failed", err, map[string]interface{}{"status": status})
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNoConnectivity):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrMalformedResponse), errors.Is(err, domain.ErrUpstreamFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
