package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/expression-tracker/internal/expression"
	"github.com/kozaktomas/expression-tracker/internal/metrics"
	"github.com/kozaktomas/expression-tracker/internal/source"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
)

// FramesHandler accepts single frames pushed over plain HTTP
type FramesHandler struct {
	detector *tracker.Detector
	labels   *expression.Labeler
	metrics  *metrics.Metrics
	log      *logrus.Entry
}

// NewFramesHandler creates a new frames handler
func NewFramesHandler(detector *tracker.Detector, labels *expression.Labeler, m *metrics.Metrics, logger *logrus.Logger) *FramesHandler {
	return &FramesHandler{
		detector: detector,
		labels:   labels,
		metrics:  m,
		log:      componentLogger(logger, "frames"),
	}
}

// FrameResponse is the classification of a pushed frame
type FrameResponse struct {
	Seq         uint64   `json:"seq"`
	Expressions []string `json:"expressions"`
	Labels      []string `json:"labels"`
	Text        string   `json:"text"`
}

// Push classifies the frame in the body and publishes the result to every observer
func (h *FramesHandler) Push(w http.ResponseWriter, r *http.Request) {
	if h.detector.Closed() {
		respondError(w, http.StatusServiceUnavailable, "detector is closed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	f, err := source.DecodeFrame(body)
	if err != nil {
		h.metrics.RejectFrame(metrics.ReasonDecode)
		h.log.WithError(err).Debug("Rejected pushed frame")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}

	set := h.detector.HandleFrame(f)
	if set == nil {
		respondError(w, http.StatusServiceUnavailable, "detector is closed")
		return
	}

	respondJSON(w, http.StatusOK, FrameResponse{
		Seq:         f.Seq,
		Expressions: set.Strings(),
		Labels:      h.labels.Labels(set),
		Text:        h.labels.Join(set),
	})
}
