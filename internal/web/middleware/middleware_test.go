package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestOrigins_Allowed(t *testing.T) {
	origins := NewOrigins([]string{"https://dashboard.example.com", " "})

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: false},
		{origin: "http://localhost", want: true},
		{origin: "http://localhost:5173", want: true},
		{origin: "https://127.0.0.1:8443", want: true},
		{origin: "http://localhost.evil.com", want: false},
		{origin: "https://dashboard.example.com", want: true},
		{origin: "https://other.example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, origins.Allowed(tt.origin))
		})
	}
}

func TestOrigins_CheckOrigin(t *testing.T) {
	origins := NewOrigins(nil)

	native := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, origins.CheckOrigin(native))

	foreign := httptest.NewRequest(http.MethodGet, "/ws", nil)
	foreign.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, origins.CheckOrigin(foreign))
}

func TestCORS(t *testing.T) {
	h := CORS(NewOrigins([]string{"https://dashboard.example.com"}))(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dashboard.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(NewOrigins(nil))(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/frames", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRequireToken(t *testing.T) {
	h := RequireToken("s3cret")(okHandler)

	tests := []struct {
		name   string
		target string
		auth   string
		want   int
	}{
		{name: "missing", target: "/", want: http.StatusUnauthorized},
		{name: "bearer", target: "/", auth: "Bearer s3cret", want: http.StatusNoContent},
		{name: "wrong bearer", target: "/", auth: "Bearer nope", want: http.StatusUnauthorized},
		{name: "basic scheme", target: "/", auth: "Basic s3cret", want: http.StatusUnauthorized},
		{name: "query", target: "/?token=s3cret", want: http.StatusNoContent},
		{name: "wrong query", target: "/?token=x", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireToken_Disabled(t *testing.T) {
	h := RequireToken("")(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
