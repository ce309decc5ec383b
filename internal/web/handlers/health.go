package handlers

import (
	"net/http"

	"github.com/kozaktomas/expression-tracker/internal/source"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
)

// ProducerLister reports connected frame producers.
type ProducerLister interface {
	Producers() []source.Producer
	Len() int
}

// HealthHandler reports detector state.
type HealthHandler struct {
	detector *tracker.Detector
	ingest   ProducerLister
}

// NewHealthHandler creates a new health handler. ingest may be nil.
func NewHealthHandler(detector *tracker.Detector, ingest ProducerLister) *HealthHandler {
	return &HealthHandler{detector: detector, ingest: ingest}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Frames      uint64 `json:"frames"`
	Rules       int    `json:"rules"`
	Subscribers int    `json:"subscribers"`
	Producers   int    `json:"producers"`
	Debug       bool   `json:"debug"`
}

// Get handles the health check endpoint. A closed detector reports 503.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		Frames:      h.detector.Frames(),
		Rules:       h.detector.Rules().Len(),
		Subscribers: h.detector.Subscribers(),
		Debug:       h.detector.Debug(),
	}
	if h.ingest != nil {
		resp.Producers = h.ingest.Len()
	}

	status := http.StatusOK
	if h.detector.Closed() {
		resp.Status = "closed"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}

// Producers lists connected WebSocket producers.
func (h *HealthHandler) Producers(w http.ResponseWriter, r *http.Request) {
	producers := []source.Producer{}
	if h.ingest != nil {
		producers = h.ingest.Producers()
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"producers": producers,
		"count":     len(producers),
	})
}
