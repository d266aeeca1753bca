package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BeliaevAndrey/vibeBot/internal/metrics"
)

type fixedSessions int

func (f fixedSessions) Len() int { return int(f) }

func get(t *testing.T, h http.Handler, path string, into any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if into != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
			t.Fatalf("%s: decode body %q: %v", path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func TestRouter(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.SessionStarted()
	m.SessionFinished("completed")

	h := NewServer(":0", m, fixedSessions(3), nil).Router()

	var health map[string]string
	if code := get(t, h, "/healthz", &health); code != http.StatusOK || health["status"] != "ok" {
		t.Fatalf("unexpected health response: %d %v", code, health)
	}

	var snapshot metrics.Snapshot
	if code := get(t, h, "/metrics", &snapshot); code != http.StatusOK {
		t.Fatalf("unexpected metrics status %d", code)
	}
	if snapshot.SessionsStarted != 1 || snapshot.SessionsCompleted != 1 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	var sessions map[string]int
	if code := get(t, h, "/sessions", &sessions); code != http.StatusOK || sessions["active"] != 3 {
		t.Fatalf("unexpected sessions response: %d %v", code, sessions)
	}

	if code := get(t, h, "/missing", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestRouterWithoutCollaborators(t *testing.T) {
	t.Parallel()

	h := NewServer(":0", nil, nil, nil).Router()

	var sessions map[string]int
	if code := get(t, h, "/sessions", &sessions); code != http.StatusOK || sessions["active"] != 0 {
		t.Fatalf("unexpected sessions response: %d %v", code, sessions)
	}
	var snapshot metrics.Snapshot
	if code := get(t, h, "/metrics", &snapshot); code != http.StatusOK {
		t.Fatalf("unexpected metrics status %d", code)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer("127.0.0.1:0", nil, nil, nil).Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
