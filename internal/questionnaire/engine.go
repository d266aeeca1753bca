package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BeliaevAndrey/vibeBot/internal/ai"
	"github.com/BeliaevAndrey/vibeBot/internal/logger"

	"go.uber.org/zap"
)

// Policy selects what happens to an invalid answer.
type Policy string

const (
	// PolicyRetry re-asks the same question until a valid answer arrives.
	PolicyRetry Policy = "retry"
	// PolicyEarlyExit counts invalid answers and ends the questionnaire on the second one.
	PolicyEarlyExit Policy = "early-exit"
)

const (
	defaultJudgeTimeout = 30 * time.Second
	// Invalid answers tolerated under PolicyEarlyExit.
	maxAbuse = 1
)

// Candidate facing texts.
const (
	TextDeclined    = "Спасибо за ответ. Если передумаете — мы всегда рады. Всего доброго!"
	TextEarlyExit   = "К сожалению, мы вынуждены завершить опрос. Спасибо за уделенное время."
	TextRepeat      = "Пожалуйста, ответьте ещё раз, избегая грубых выражений."
	TextCompleted   = "Спасибо! Опрос завершён."
	TextNoQuestions = "Вопросов нет. Спасибо!"
	TextTryAgain    = "Не удалось обработать ваш ответ. Пожалуйста, напишите его ещё раз."
)

// ParsePolicy validates a configured policy name. Empty means PolicyRetry.
func ParsePolicy(v string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(v))); p {
	case "":
		return PolicyRetry, nil
	case PolicyRetry, PolicyEarlyExit:
		return p, nil
	default:
		return "", fmt.Errorf("unknown validation policy %q (want %q or %q)", v, PolicyRetry, PolicyEarlyExit)
	}
}

// Judge is the part of the judge the conversation needs.
type Judge interface {
	ai.AgreementClassifier
	ai.AnswerValidator
}

type Config struct {
	Policy       Policy
	JudgeTimeout time.Duration
}

// Outcome is what the engine wants sent back after an inbound message.
type Outcome struct {
	// Text is empty when nothing should be sent.
	Text     string
	State    State
	Terminal bool
	// JudgeFailed is set when the judge could not be consulted and the session
	// was left untouched.
	JudgeFailed bool
}

// Engine runs questionnaire conversations. It holds no per-candidate state of
// its own; everything lives in the injected Store.
type Engine struct {
	cfg       Config
	questions []Question
	judge     Judge
	store     *Store
	logger    *zap.Logger
	now       func() time.Time
}

func NewEngine(cfg Config, questions []Question, judge Judge, store *Store, log *zap.Logger) (*Engine, error) {
	if judge == nil {
		return nil, errors.New("judge is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}

	policy, err := ParsePolicy(string(cfg.Policy))
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy

	if cfg.JudgeTimeout <= 0 {
		cfg.JudgeTimeout = defaultJudgeTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		cfg:       cfg,
		questions: append([]Question(nil), questions...),
		judge:     judge,
		store:     store,
		logger:    log,
		now:       time.Now,
	}, nil
}

func (e *Engine) Policy() Policy { return e.cfg.Policy }

// Begin opens a session in StateGreetingSent. It fails with ErrSessionExists
// when the candidate already has one, so only one greeting goes out.
func (e *Engine) Begin(id, handle string) error {
	now := e.now()
	err := e.store.Create(&Session{
		ID:        id,
		Handle:    strings.TrimPrefix(strings.TrimSpace(handle), "@"),
		State:     StateGreetingSent,
		StartedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}

	logger.ForCandidate(e.logger, id, handle).Info("questionnaire session started")
	return nil
}

// Handle advances the candidate's session with an inbound message. Messages
// for a terminal session are ignored and yield an empty Outcome text.
func (e *Engine) Handle(ctx context.Context, id, text string) (Outcome, error) {
	var out Outcome
	err := e.store.With(id, func(s *Session) error {
		log := logger.ForCandidate(e.logger, s.ID, s.Handle)

		switch s.State {
		case StateGreetingSent:
			out = e.handleAgreement(ctx, log, s, text)
		case StateAsking:
			out = e.handleAnswer(ctx, log, s, text)
		default:
			out = Outcome{State: s.State, Terminal: s.State.Terminal()}
			return nil
		}

		if !out.JudgeFailed {
			s.UpdatedAt = e.now()
		}
		out.State = s.State
		out.Terminal = s.State.Terminal()
		return nil
	})
	return out, err
}

func (e *Engine) handleAgreement(ctx context.Context, log *zap.Logger, s *Session, text string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.JudgeTimeout)
	defer cancel()

	agreed, err := e.judge.ClassifyAgreement(ctx, text)
	if err != nil {
		log.Warn("agreement classification failed", zap.Error(err))
		return Outcome{Text: TextTryAgain, JudgeFailed: true}
	}

	if !agreed {
		s.State = StateDeclined
		log.Info("candidate declined the questionnaire")
		return Outcome{Text: TextDeclined}
	}

	s.State = StateAsking
	s.QuestionIndex = 0
	if len(e.questions) == 0 {
		s.State = StateCompleted
		return Outcome{Text: TextNoQuestions}
	}

	log.Info("candidate agreed, asking questions", zap.Int("questions", len(e.questions)))
	return Outcome{Text: e.prompt(0)}
}

func (e *Engine) handleAnswer(ctx context.Context, log *zap.Logger, s *Session, text string) Outcome {
	if s.QuestionIndex >= len(e.questions) {
		s.State = StateCompleted
		return Outcome{Text: TextCompleted}
	}

	q := e.questions[s.QuestionIndex]

	vctx, cancel := context.WithTimeout(ctx, e.cfg.JudgeTimeout)
	defer cancel()

	verdict, err := e.judge.ValidateAnswer(vctx, q.Text, text, q.Criteria)
	if err != nil || verdict == nil {
		log.Warn("answer validation failed",
			zap.String("question_key", q.Key),
			zap.Error(err),
		)
		return Outcome{Text: TextTryAgain, JudgeFailed: true}
	}

	entry := Entry{
		QuestionIndex: s.QuestionIndex,
		QuestionKey:   q.Key,
		QuestionText:  q.Text,
		Answer:        strings.TrimSpace(text),
		Valid:         verdict.Valid,
		At:            e.now(),
	}

	if !verdict.Valid {
		entry.Comment = strings.TrimSpace(verdict.Reply)
		s.Entries = append(s.Entries, entry)

		log.Info("answer rejected",
			zap.String("question_key", q.Key),
			zap.String("policy", string(e.cfg.Policy)),
		)

		if e.cfg.Policy == PolicyEarlyExit {
			s.AbuseCount++
			if s.AbuseCount > maxAbuse {
				s.State = StateEarlyExit
				log.Info("questionnaire terminated early", zap.Int("abuse_count", s.AbuseCount))
				return Outcome{Text: TextEarlyExit}
			}
		}

		if entry.Comment != "" {
			return Outcome{Text: entry.Comment}
		}
		return Outcome{Text: TextRepeat}
	}

	s.Entries = append(s.Entries, entry)
	s.QuestionIndex++

	if s.QuestionIndex >= len(e.questions) {
		s.State = StateCompleted
		log.Info("questionnaire completed", zap.Int("entries", len(s.Entries)))
		return Outcome{Text: TextCompleted}
	}

	return Outcome{Text: e.prompt(s.QuestionIndex)}
}

func (e *Engine) prompt(idx int) string {
	return fmt.Sprintf("Вопрос %d.\n%s", idx+1, e.questions[idx].Text)
}

// Finalize removes the session and builds its result. It works in any state,
// so idle sessions can be harvested too. The second call for the same id
// returns false.
func (e *Engine) Finalize(id string) (*Result, bool) {
	s, ok := e.store.Take(id)
	if !ok {
		return nil, false
	}
	return e.finalize(s), true
}

// FinalizeIdle finalizes the session only if it is still idle for ttl. A
// session that saw activity after Idle listed it is left alone.
func (e *Engine) FinalizeIdle(id string, ttl time.Duration) (*Result, bool) {
	before := e.now().Add(-ttl)
	s, ok := e.store.TakeIf(id, func(s *Session) bool {
		return s.UpdatedAt.Before(before)
	})
	if !ok {
		return nil, false
	}
	return e.finalize(s), true
}

func (e *Engine) finalize(s *Session) *Result {
	result := newResult(s, e.questions, e.now())
	logger.ForCandidate(e.logger, s.ID, s.Handle).Info("questionnaire session finalized",
		zap.String("state", string(s.State)),
		zap.String("result_id", result.ID),
		zap.Bool("abuse", result.AbuseFlag),
	)
	return result
}

// Session returns a copy of the candidate's session.
func (e *Engine) Session(id string) (Session, bool) {
	var snapshot Session
	err := e.store.With(id, func(s *Session) error {
		snapshot = s.clone()
		return nil
	})
	return snapshot, err == nil
}

// Idle lists sessions with no activity for at least ttl.
func (e *Engine) Idle(ttl time.Duration) []string {
	return e.store.Idle(e.now().Add(-ttl))
}

// Len is the number of live sessions.
func (e *Engine) Len() int {
	return e.store.Len()
}
