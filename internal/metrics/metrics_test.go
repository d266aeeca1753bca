package metrics

import (
	"sync"
	"testing"
)

func TestMetricsCounters(t *testing.T) {
	t.Parallel()

	m := New()
	start := m.Snapshot().LastUpdateTime

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.SessionStarted()
			m.JudgeFailed()
		}()
	}
	wg.Wait()

	for _, state := range []string{"completed", "completed", "declined", "early_exit", "asking"} {
		m.SessionFinished(state)
	}
	m.SearchFailed()
	m.Report(true)
	m.Report(false)

	s := m.Snapshot()
	if s.SessionsStarted != 10 || s.JudgeFailures != 10 {
		t.Fatalf("unexpected concurrent counters: %+v", s)
	}
	if s.SessionsCompleted != 2 || s.SessionsDeclined != 1 || s.SessionsEarlyExit != 1 || s.SessionsExpired != 1 {
		t.Fatalf("unexpected session counters: %+v", s)
	}
	if s.SearchFailures != 1 || s.ReportsDelivered != 1 || s.ReportsSkipped != 1 {
		t.Fatalf("unexpected delivery counters: %+v", s)
	}
	if s.LastUpdateTime.Before(start) {
		t.Fatal("expected last update time to move forward")
	}
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.SessionStarted()
	m.Report(true)
	if s := m.Snapshot(); s.SessionsStarted != 0 {
		t.Fatalf("expected zero snapshot, got %+v", s)
	}
}
