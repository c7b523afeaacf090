package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	handler := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	if code := do("203.0.113.1:1"); code != http.StatusOK {
		t.Fatalf("first request: got %d", code)
	}
	if code := do("203.0.113.1:2"); code != http.StatusOK {
		t.Fatalf("second request: got %d", code)
	}
	if code := do("203.0.113.1:3"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: got %d, want 429", code)
	}
	// Another client is unaffected.
	if code := do("198.51.100.7:1"); code != http.StatusOK {
		t.Fatalf("other client: got %d", code)
	}
}

func TestClientIPForRateLimit(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		remoteAddr string
		want       string
	}{
		{"forwarded ip wins", "203.0.113.1", "198.51.100.10:1234", "203.0.113.1"},
		{"first valid forwarded", " bogus , 203.0.113.9 ", "198.51.100.10:1234", "203.0.113.9"},
		{"falls back to remote host", "", "198.51.100.10:1234", "198.51.100.10"},
		{"remote without port", "", "203.0.113.1", "203.0.113.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("X-Forwarded-For", tt.header)
			}
			r.RemoteAddr = tt.remoteAddr
			if got := clientIPForRateLimit(r); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
