package trace

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"fiscus/internal/log"
)

func newTestMiddleware() *Middleware {
	logger := log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
	return NewMiddleware(logger, func(r *http.Request) string { return r.RemoteAddr })
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := newTestMiddleware()
	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a uuid", seen)
	}
	if got := rec.Header().Get(HeaderRequestID); got != seen {
		t.Fatalf("header = %q, context = %q", got, seen)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if m.GetMetrics().TotalRequests != 1 {
		t.Fatalf("metrics = %+v", m.GetMetrics())
	}
}

func TestMiddlewareReusesIncomingID(t *testing.T) {
	m := newTestMiddleware()
	incoming := uuid.NewString()

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, incoming)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != incoming {
		t.Fatalf("header = %q, want %q", got, incoming)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "not a uuid\n")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got == "not a uuid\n" {
		t.Fatal("malformed request id was echoed back")
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if got := GetRequestIDFromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
