package questionnaire

import "time"

// State is the position of a session in the conversation.
type State string

const (
	StateGreetingSent State = "greeting_sent"
	StateAsking       State = "asking"
	StateDeclined     State = "declined"
	StateCompleted    State = "completed"
	StateEarlyExit    State = "early_exit"
)

// Terminal reports whether the session accepts no further input.
func (s State) Terminal() bool {
	switch s {
	case StateDeclined, StateCompleted, StateEarlyExit:
		return true
	default:
		return false
	}
}

// Entry is one recorded answer attempt.
type Entry struct {
	QuestionIndex int       `json:"question_index"`
	QuestionKey   string    `json:"question_key"`
	QuestionText  string    `json:"question"`
	Answer        string    `json:"answer"`
	Valid         bool      `json:"valid"`
	Comment       string    `json:"comment,omitempty"`
	At            time.Time `json:"at"`
}

// Session is the live state of one candidate's questionnaire.
type Session struct {
	ID            string
	Handle        string
	State         State
	QuestionIndex int
	Entries       []Entry
	AbuseCount    int
	StartedAt     time.Time
	UpdatedAt     time.Time
}

func (s *Session) clone() Session {
	c := *s
	c.Entries = append([]Entry(nil), s.Entries...)
	return c
}
