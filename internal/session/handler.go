package session

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"scte-signal/internal/events"
	"scte-signal/internal/manifest"
	"scte-signal/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const maxManifestBytes = 8 << 20

// Handler exposes session HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

type createRequest struct {
	Scheme string `json:"scheme"`
}

type createResponse struct {
	SessionID ID      `json:"session_id"`
	Scheme    string  `json:"scheme"`
	FireLead  float64 `json:"fire_lead"`
	Retention float64 `json:"retention"`
}

type timeRequest struct {
	Time *float64 `json:"time"`
}

type timeResponse struct {
	Fired []Fired `json:"fired"`
}

type errorResponse struct {
	Error string `json:"error"`
	Reset bool   `json:"reset,omitempty"`
}

// CreateSession handles POST /sessions.
// Body (optional): { "scheme": "urn:scte:scte35:2014:xml" }.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Debug("invalid session body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sess := h.svc.CreateSession(req.Scheme)
	lead, retention := sess.Thresholds()
	writeJSON(w, http.StatusCreated, createResponse{
		SessionID: sess.ID(),
		Scheme:    sess.Scheme(),
		FireLead:  lead,
		Retention: retention,
	})
}

// UpdateManifest handles POST /sessions/{session_id}/manifest.
// Body: an MPD document or a JSON manifest snapshot.
func (h *Handler) UpdateManifest(w http.ResponseWriter, r *http.Request) {
	id := ID(chi.URLParam(r, "session_id"))
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxManifestBytes))
	if err != nil {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		return
	}

	snap, err := manifest.Decode(r.Header.Get("Content-Type"), body)
	if err != nil {
		h.log.Debug("invalid manifest body",
			slog.String("session_id", string(id)),
			slog.String("error", err.Error()))
		if errors.Is(err, manifest.ErrUnsupportedContentType) {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := h.svc.UpdateManifest(id, snap)
	if err != nil {
		h.writeSessionError(w, id, err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncManifestUpdates()
		h.metrics.AddPruned(res.Pruned)
	}
	h.log.Debug("manifest updated",
		slog.String("session_id", string(id)),
		slog.Int("declared", res.Declared),
		slog.Int("pruned", res.Pruned))
	writeJSON(w, http.StatusOK, res)
}

// UpdatePlaybackTime handles POST /sessions/{session_id}/time.
// Body: { "time": 12.34 }.
func (h *Handler) UpdatePlaybackTime(w http.ResponseWriter, r *http.Request) {
	id := ID(chi.URLParam(r, "session_id"))
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var req timeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Time == nil || *req.Time < 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	fired, err := h.svc.UpdatePlaybackTime(id, *req.Time)
	if err != nil {
		h.writeSessionError(w, id, err)
		return
	}
	if fired == nil {
		fired = []Fired{}
	}
	writeJSON(w, http.StatusOK, timeResponse{Fired: fired})
}

// GetSession handles GET /sessions/{session_id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := ID(chi.URLParam(r, "session_id"))
	st, err := h.svc.State(id)
	if err != nil {
		h.writeSessionError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// CloseSession handles DELETE /sessions/{session_id}.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := ID(chi.URLParam(r, "session_id"))
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.svc.CloseSession(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeSessionError(w http.ResponseWriter, id ID, err error) {
	var me *events.ManifestError
	switch {
	case errors.As(err, &me):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: me.Error(), Reset: true})
	case errors.Is(err, ErrSessionFailed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Reset: true})
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionClosed):
		w.WriteHeader(http.StatusNotFound)
	default:
		h.log.Error("session update failed",
			slog.String("session_id", string(id)),
			slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
