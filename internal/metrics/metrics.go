package metrics

import (
	"sync"
	"time"
)

// Snapshot is a copy of the counters at one point in time.
type Snapshot struct {
	SessionsStarted   int64     `json:"sessions_started"`
	SessionsCompleted int64     `json:"sessions_completed"`
	SessionsDeclined  int64     `json:"sessions_declined"`
	SessionsEarlyExit int64     `json:"sessions_early_exit"`
	SessionsExpired   int64     `json:"sessions_expired"`
	JudgeFailures     int64     `json:"judge_failures"`
	SearchFailures    int64     `json:"search_failures"`
	ReportsDelivered  int64     `json:"reports_delivered"`
	ReportsSkipped    int64     `json:"reports_skipped"`
	LastUpdateTime    time.Time `json:"last_update_time"`
}

// Metrics counts questionnaire activity. A nil *Metrics is valid and counts nothing.
type Metrics struct {
	mu       sync.RWMutex
	counters Snapshot
}

func New() *Metrics {
	return &Metrics{counters: Snapshot{LastUpdateTime: time.Now()}}
}

func (m *Metrics) update(fn func(s *Snapshot)) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.counters)
	m.counters.LastUpdateTime = time.Now()
}

func (m *Metrics) SessionStarted() {
	m.update(func(s *Snapshot) { s.SessionsStarted++ })
}

// SessionFinished counts a harvested session by its final state. Sessions
// harvested before reaching a terminal state count as expired.
func (m *Metrics) SessionFinished(state string) {
	m.update(func(s *Snapshot) {
		switch state {
		case "completed":
			s.SessionsCompleted++
		case "declined":
			s.SessionsDeclined++
		case "early_exit":
			s.SessionsEarlyExit++
		default:
			s.SessionsExpired++
		}
	})
}

func (m *Metrics) JudgeFailed() {
	m.update(func(s *Snapshot) { s.JudgeFailures++ })
}

func (m *Metrics) SearchFailed() {
	m.update(func(s *Snapshot) { s.SearchFailures++ })
}

// Report counts a recruiter delivery attempt.
func (m *Metrics) Report(delivered bool) {
	m.update(func(s *Snapshot) {
		if delivered {
			s.ReportsDelivered++
			return
		}
		s.ReportsSkipped++
	})
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters
}
