package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/expression-tracker/internal/broadcast"
	"github.com/kozaktomas/expression-tracker/internal/constants"
	"github.com/kozaktomas/expression-tracker/internal/expression"
	"github.com/kozaktomas/expression-tracker/internal/sink"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
)

// SSE event types.
const (
	eventStatus      = "status"
	eventExpressions = "expressions"
	eventClosed      = "closed"
)

const defaultHeartbeat = constants.SSEHeartbeatInterval

// EventsHandler streams detected expressions to browsers as Server-Sent Events
type EventsHandler struct {
	detector  *tracker.Detector
	labels    *expression.Labeler
	queueSize int
	heartbeat time.Duration
	log       *logrus.Entry
}

// NewEventsHandler creates a new events handler. queueSize bounds the sets buffered per
// client; a client that falls further behind misses sets.
func NewEventsHandler(detector *tracker.Detector, labels *expression.Labeler, queueSize int, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{
		detector:  detector,
		labels:    labels,
		queueSize: queueSize,
		heartbeat: defaultHeartbeat,
		log:       componentLogger(logger, "events"),
	}
}

// StatusEvent is the first event on every stream
type StatusEvent struct {
	Subscriber string `json:"subscriber"`
	Rules      int    `json:"rules"`
	Debug      bool   `json:"debug"`
}

// setupSSEConnection sets SSE headers and returns the flusher.
// On failure, writes an error response and returns false.
func setupSSEConnection(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, true
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}

// Stream subscribes the client to the detector until it disconnects or the detector closes.
// Sets are written from the request goroutine, which drains a per-client mailbox.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	mailbox := broadcast.NewMailbox(h.queueSize)
	defer mailbox.Close()

	// the observer runs only on this goroutine, via the mailbox
	var flusher http.Flusher
	sub := h.detector.Expressions().SubscribeOn(mailbox, func(set expression.Set) {
		sendSSEEvent(w, flusher, eventExpressions, sink.NewMessage(set, h.labels, time.Now()))
	})
	if !sub.Active() {
		respondError(w, http.StatusServiceUnavailable, "detector is closed")
		return
	}
	defer sub.Close()

	var ok bool
	if flusher, ok = setupSSEConnection(w); !ok {
		return
	}

	log := h.log.WithFields(logrus.Fields{
		"subscriber":  sub.ID(),
		"remote_addr": r.RemoteAddr,
	})
	log.Info("Event stream opened")
	defer func() {
		log.WithField("dropped", mailbox.Dropped()).Info("Event stream closed")
	}()

	sendSSEEvent(w, flusher, eventStatus, StatusEvent{
		Subscriber: sub.ID(),
		Rules:      h.detector.Rules().Len(),
		Debug:      h.detector.Debug(),
	})

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case fn := <-mailbox.C():
			fn()
		case <-ticker.C:
			if !sub.Active() {
				sendSSEEvent(w, flusher, eventClosed, map[string]string{"reason": "detector closed"})
				return
			}
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
