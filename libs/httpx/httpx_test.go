package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWriteErrorEnvelope(t *testing.T) {
	rw := httptest.NewRecorder()
	WriteError(rw, http.StatusBadRequest, CodeValidation, "bad date", map[string]string{"date": "must be YYYY-MM-DD"})

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}
	if ct := rw.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error.Code != CodeValidation || env.Error.Details["date"] == "" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestWriteDataEnvelope(t *testing.T) {
	rw := httptest.NewRecorder()
	WriteData(rw, http.StatusOK, map[string]int{"n": 1})
	if got := rw.Body.String(); got != `{"success":true,"data":{"n":1}}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, nil)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if !rl.allow("a", now) || !rl.allow("a", now) {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("a", now) {
		t.Fatal("third request in window should be limited")
	}
	if !rl.allow("b", now) {
		t.Fatal("other keys have their own bucket")
	}
	if !rl.allow("a", now.Add(61*time.Second)) {
		t.Fatal("new window should reset the bucket")
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://app.example.com"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         10 * time.Minute,
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/dashboard/owner", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	if rw.Code != http.StatusNoContent || called {
		t.Fatalf("expected short-circuited 204, got %d (called=%v)", rw.Code, called)
	}
	if rw.Header().Get("Access-Control-Max-Age") != "600" {
		t.Fatalf("unexpected max age %q", rw.Header().Get("Access-Control-Max-Age"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origins must not be echoed")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if seen != "abc-123" || rw.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("inbound id not kept: ctx=%q header=%q", seen, rw.Header().Get(RequestIDHeader))
	}

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 {
		t.Fatalf("expected generated uuid, got %q", seen)
	}
}

func TestWithRecover(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), WithRecover(logger))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rw.Code)
	}
}

func TestAccessLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := WithAccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/readyz":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/api/v1/dashboard/owner":
			_, _ = w.Write([]byte("ok"))
		}
	}))

	cases := []struct {
		path   string
		level  string
		status int
		bytes  int
	}{
		{"/healthz", "DEBUG", http.StatusOK, 0},
		{"/readyz", "WARN", http.StatusServiceUnavailable, 0},
		{"/api/v1/dashboard/owner", "INFO", http.StatusOK, 2},
	}
	for _, tc := range cases {
		buf.Reset()
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, nil))

		var rec struct {
			Level  string `json:"level"`
			Status int    `json:"status"`
			Bytes  int    `json:"bytes"`
		}
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("%s: decode: %v", tc.path, err)
		}
		if rec.Level != tc.level || rec.Status != tc.status || rec.Bytes != tc.bytes {
			t.Fatalf("%s: unexpected record %+v", tc.path, rec)
		}
	}
}
