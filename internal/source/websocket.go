package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/expression-tracker/internal/metrics"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
)

// ErrAlreadyStarted is returned when Frames is called on a source that is already running.
var ErrAlreadyStarted = errors.New("frame source already started")

const (
	wsReadLimit   = 64 * 1024
	wsPongWait    = 60 * time.Second
	wsWriteWait   = 10 * time.Second
	wsPingPeriod  = wsPongWait * 9 / 10
	defaultBuffer = 32
)

// WebSocketOptions configures the ingest endpoint.
type WebSocketOptions struct {
	// Buffer is the number of decoded frames held for the detector. Producers block while it is full.
	Buffer  int
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
	// CheckOrigin overrides the upgrader's origin check. Nil accepts every origin.
	CheckOrigin func(r *http.Request) bool
}

// Producer describes one connected phone.
type Producer struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
	Frames      uint64    `json:"frames"`
}

type producer struct {
	id          string
	remoteAddr  string
	connectedAt time.Time
	frames      atomic.Uint64
}

// WebSocket is both a frame source and the http.Handler phones connect to.
// Each text message is one JSON frame. Frames from all producers are merged into one stream.
type WebSocket struct {
	upgrader  websocket.Upgrader
	producers cmap.ConcurrentMap[string, *producer]
	log       *logrus.Entry
	metrics   *metrics.Metrics

	frames  chan tracker.Frame
	started atomic.Bool
	seq     atomic.Uint64

	// mu guards closing frames against in-flight sends
	mu   sync.RWMutex
	done chan struct{}
}

// NewWebSocket creates an ingest endpoint. It refuses connections until Frames is called.
func NewWebSocket(opts WebSocketOptions) *WebSocket {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &WebSocket{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		producers: cmap.New[*producer](),
		log:       logger.WithField("source", "websocket"),
		metrics:   opts.Metrics,
		frames:    make(chan tracker.Frame, opts.Buffer),
		done:      make(chan struct{}),
	}
}

// Supported always succeeds; phones may connect at any time.
func (ws *WebSocket) Supported() error { return nil }

// Frames starts accepting producers. The returned channel is closed once ctx is done.
func (ws *WebSocket) Frames(ctx context.Context) (<-chan tracker.Frame, error) {
	if !ws.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}
	go func() {
		<-ctx.Done()
		close(ws.done)
		ws.mu.Lock()
		close(ws.frames)
		ws.mu.Unlock()
	}()
	return ws.frames, nil
}

// Producers lists connected producers ordered by connection time.
func (ws *WebSocket) Producers() []Producer {
	out := make([]Producer, 0, ws.producers.Count())
	for _, p := range ws.producers.Items() {
		out = append(out, Producer{
			ID:          p.id,
			RemoteAddr:  p.remoteAddr,
			ConnectedAt: p.connectedAt,
			Frames:      p.frames.Load(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnectedAt.Before(out[j].ConnectedAt) })
	return out
}

// Len returns the number of connected producers.
func (ws *WebSocket) Len() int { return ws.producers.Count() }

func (ws *WebSocket) accepting() bool {
	if !ws.started.Load() {
		return false
	}
	select {
	case <-ws.done:
		return false
	default:
		return true
	}
}

// ServeHTTP upgrades the request and reads frames until the producer disconnects.
func (ws *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !ws.accepting() {
		http.Error(w, "frame ingest is not running", http.StatusServiceUnavailable)
		return
	}

	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		ws.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	p := &producer{
		id:          uuid.NewString(),
		remoteAddr:  r.RemoteAddr,
		connectedAt: time.Now(),
	}
	ws.producers.Set(p.id, p)
	ws.metrics.ProducerConnected(1)
	log := ws.log.WithFields(logrus.Fields{"producer": p.id, "remote_addr": p.remoteAddr})
	log.Info("Producer connected")
	defer func() {
		ws.producers.Remove(p.id)
		ws.metrics.ProducerConnected(-1)
		log.WithField("frames", p.frames.Load()).Info("Producer disconnected")
	}()

	if err := conn.WriteJSON(map[string]string{"producer_id": p.id}); err != nil {
		log.WithError(err).Warn("Failed to greet producer")
		return
	}

	stopPing := ws.keepAlive(conn)
	defer stopPing()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("Producer read failed")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		f, err := DecodeFrame(data)
		if err != nil {
			log.WithError(err).Debug("Dropping malformed frame")
			ws.metrics.RejectFrame(metrics.ReasonDecode)
			continue
		}
		if f.Timestamp.IsZero() {
			f.Timestamp = time.Now()
		}
		// sequence numbers are assigned on arrival so merged producers stay monotonic
		f.Seq = ws.seq.Add(1)

		if !ws.forward(r.Context(), f) {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "ingest stopped"),
				time.Now().Add(wsWriteWait))
			return
		}
		p.frames.Add(1)
	}
}

func (ws *WebSocket) forward(ctx context.Context, f tracker.Frame) bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	select {
	case <-ws.done:
		return false
	case <-ctx.Done():
		return false
	case ws.frames <- f:
		return true
	}
}

// keepAlive pings conn until the returned stop function is called.
func (ws *WebSocket) keepAlive(conn *websocket.Conn) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()
	return func() { close(stop) }
}
