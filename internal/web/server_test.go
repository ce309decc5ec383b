package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/expression-tracker/internal/config"
	"github.com/kozaktomas/expression-tracker/internal/expression"
	"github.com/kozaktomas/expression-tracker/internal/metrics"
	"github.com/kozaktomas/expression-tracker/internal/source"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
)

type testEnv struct {
	server   *Server
	detector *tracker.Detector
	ingest   *source.WebSocket
}

func newTestEnv(t *testing.T, token string) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Tracker: config.TrackerConfig{QueueSize: 8},
		Web:     config.WebConfig{Host: "127.0.0.1", Port: 0, APIToken: token},
	}
	var d *tracker.Detector
	m := metrics.New(func() int { return d.Subscribers() })
	d = tracker.NewDetector(tracker.Options{Metrics: m})
	ingest := source.NewWebSocket(source.WebSocketOptions{Metrics: m})
	t.Cleanup(d.Close)

	return &testEnv{
		server: NewServer(Options{
			Config:   cfg,
			Detector: d,
			Ingest:   ingest,
			Metrics:  m,
		}),
		detector: d,
		ingest:   ingest,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_Routes(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		method string
		target string
		body   string
		want   int
	}{
		{method: http.MethodGet, target: "/api/v1/health", want: http.StatusOK},
		{method: http.MethodGet, target: "/api/v1/config", want: http.StatusOK},
		{method: http.MethodGet, target: "/api/v1/catalog", want: http.StatusOK},
		{method: http.MethodGet, target: "/api/v1/rules", want: http.StatusOK},
		{method: http.MethodGet, target: "/api/v1/producers", want: http.StatusOK},
		{method: http.MethodPost, target: "/api/v1/rules", body: `{"expression": "eyeWideLeft", "channel": "eyeWideLeft", "threshold": 0.6}`, want: http.StatusCreated},
		{method: http.MethodPost, target: "/api/v1/frames", body: `{"blend_shapes": {"eyeWideLeft": 0.7}}`, want: http.StatusOK},
		{method: http.MethodGet, target: "/metrics", want: http.StatusOK},
		{method: http.MethodGet, target: "/", want: http.StatusOK},
		{method: http.MethodGet, target: "/app.js", want: http.StatusOK},
		{method: http.MethodGet, target: "/missing.png", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.target, tt.body, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_CustomRuleThenFrame(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/v1/rules",
		`{"expression": "eyeWideLeft", "channel": "eyeWideLeft", "threshold": 0.6}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/frames",
		`{"blend_shapes": {"eyeWideLeft": 0.7, "jawOpen": 0.9}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Expressions []string `json:"expressions"`
		Text        string   `json:"text"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"jawOpen", "eyeWideLeft"}, resp.Expressions)
	assert.Equal(t, "Jaw Open, Eye Wide Left", resp.Text)
}

func TestServer_TokenProtectsWrites(t *testing.T) {
	env := newTestEnv(t, "s3cret")
	body := `{"blend_shapes": {"jawOpen": 0.9}}`

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/v1/frames", body, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/frames", body,
		map[string]string{"Authorization": "Bearer s3cret"}).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/rules", "", nil).Code)
}

func TestServer_Metrics(t *testing.T) {
	env := newTestEnv(t, "")
	env.detector.Expressions().Subscribe(func(expression.Set) {})
	env.do(t, http.MethodPost, "/api/v1/frames", `{"blend_shapes": {"jawOpen": 0.9}}`, nil)

	body := env.do(t, http.MethodGet, "/metrics", "", nil).Body.String()
	assert.Contains(t, body, "expression_tracker_frames_total 1")
	assert.Contains(t, body, `expression_tracker_expressions_total{expression="jawOpen"} 1`)
	assert.Contains(t, body, "expression_tracker_subscribers 1")
}

func TestServer_WebSocketIngest(t *testing.T) {
	env := newTestEnv(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []expression.Set
	done := make(chan struct{})
	env.detector.Expressions().Subscribe(func(s expression.Set) {
		got = append(got, s)
		close(done)
	})
	go env.detector.Run(ctx, env.ingest)

	srv := httptest.NewServer(env.server.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/frames/ws"
	// Frames is started by Run; retry until the ingest accepts producers
	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		c, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 5*time.Second, 10*time.Millisecond)
	defer conn.Close()

	var hello map[string]string
	require.NoError(t, conn.ReadJSON(&hello))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"blend_shapes": {"cheekPuff": 0.8}}`)))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("frame was not classified")
	}
	assert.Equal(t, []expression.Set{{expression.CheekPuff}}, got)
}

func TestServer_CORS(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(t, http.MethodOptions, "/api/v1/rules", "", map[string]string{"Origin": "http://localhost:5173"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
