package middleware

import (
	"net/http"
	"strings"
)

// Origins is an origin allowlist. Localhost origins on any port are always allowed.
type Origins map[string]struct{}

// NewOrigins builds an allowlist from configured origins.
func NewOrigins(origins []string) Origins {
	out := make(Origins, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out[o] = struct{}{}
		}
	}
	return out
}

// isLocalhostOrigin returns true if the origin is http(s)://localhost:<port>.
func isLocalhostOrigin(origin string) bool {
	for _, prefix := range []string{"http://localhost", "https://localhost", "http://127.0.0.1", "https://127.0.0.1"} {
		if origin == prefix || strings.HasPrefix(origin, prefix+":") {
			return true
		}
	}
	return false
}

// Allowed checks whether a request origin should be accepted.
func (o Origins) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if isLocalhostOrigin(origin) {
		return true
	}
	_, ok := o[origin]
	return ok
}

// CheckOrigin is a WebSocket upgrader origin check. Requests without an Origin header
// come from native clients such as phone apps and are accepted.
func (o Origins) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || o.Allowed(origin)
}

// CORS returns middleware that sets CORS headers for allowed origins and answers preflight requests.
func CORS(origins Origins) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origins.Allowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Last-Event-ID, X-Requested-With")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
