package questionnaire

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const unknownUser = "unknown"

// Moscow is the time zone results are reported in.
var Moscow = time.FixedZone("MSK", 3*60*60)

// Result is the harvested outcome of one session.
type Result struct {
	ID          string           `json:"id"`
	CandidateID string           `json:"candidate_id"`
	User        string           `json:"user"`
	Date        time.Time        `json:"date"`
	State       State            `json:"state"`
	Questions   []ResultQuestion `json:"questions"`
	AbuseFlag   bool             `json:"profanity_detected"`
}

// ResultQuestion folds every attempt at one question. Answer is the accepted
// answer; RejectedAnswer and Comment come from the latest rejected attempt.
type ResultQuestion struct {
	Number         int    `json:"number"`
	Key            string `json:"key"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	RejectedAnswer string `json:"rejected_answer,omitempty"`
	Comment        string `json:"comment,omitempty"`
}

func newResult(s *Session, questions []Question, now time.Time) *Result {
	r := &Result{
		ID:          uuid.NewString(),
		CandidateID: s.ID,
		User:        s.Handle,
		Date:        now.In(Moscow),
		State:       s.State,
		AbuseFlag:   s.AbuseCount > maxAbuse || s.State == StateEarlyExit,
		Questions:   []ResultQuestion{},
	}
	if r.User == "" {
		r.User = unknownUser
	}

	byIndex := make(map[int]int)
	for _, entry := range s.Entries {
		pos, ok := byIndex[entry.QuestionIndex]
		if !ok {
			text := entry.QuestionText
			if entry.QuestionIndex < len(questions) && text == "" {
				text = questions[entry.QuestionIndex].Text
			}
			r.Questions = append(r.Questions, ResultQuestion{
				Number:   entry.QuestionIndex + 1,
				Key:      entry.QuestionKey,
				Question: text,
			})
			pos = len(r.Questions) - 1
			byIndex[entry.QuestionIndex] = pos
		}

		q := &r.Questions[pos]
		if entry.Valid {
			q.Answer = entry.Answer
			continue
		}
		q.RejectedAnswer = entry.Answer
		if entry.Comment != "" {
			q.Comment = entry.Comment
		}
	}

	return r
}

// Handle is the user name with a leading "@", or "unknown".
func (r *Result) Handle() string {
	if r.User == "" || r.User == unknownUser {
		return unknownUser
	}
	return "@" + r.User
}

// FormatDate renders the result date as "YYYY-MM-DD HH:MM (МСК)".
func (r *Result) FormatDate() string {
	if r.Date.IsZero() {
		return "—"
	}
	return r.Date.In(Moscow).Format("2006-01-02 15:04") + " (МСК)"
}

// Transcript is the JSON form handed to the summary extractor and stored.
func (r *Result) Transcript() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Text renders the recruiter report.
func (r *Result) Text() string {
	lines := []string{
		fmt.Sprintf("Опросник: %s", r.User),
		fmt.Sprintf("Дата: %s", r.FormatDate()),
		"",
	}
	if r.AbuseFlag {
		lines = append(lines, "Причина раннего завершения: грубость/брань в ответах.", "")
	}

	for _, q := range r.Questions {
		lines = append(lines,
			fmt.Sprintf("Вопрос %d: %s", q.Number, q.Question),
			fmt.Sprintf("Ответ: %s", q.Answer),
		)
		if q.RejectedAnswer != "" {
			lines = append(lines, fmt.Sprintf("Некорректный ответ (red_flag): %s", q.RejectedAnswer))
		}
		if q.Comment != "" {
			lines = append(lines, fmt.Sprintf("Комментарий: %s", q.Comment))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
