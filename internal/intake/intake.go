package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BeliaevAndrey/vibeBot/internal/ai"
	"github.com/BeliaevAndrey/vibeBot/internal/candidate"
	"github.com/BeliaevAndrey/vibeBot/internal/dictionary"
	"github.com/BeliaevAndrey/vibeBot/internal/filtering"
	"github.com/BeliaevAndrey/vibeBot/internal/logger"
	"github.com/BeliaevAndrey/vibeBot/internal/metrics"
	"github.com/BeliaevAndrey/vibeBot/internal/questionnaire"
	"github.com/BeliaevAndrey/vibeBot/internal/report"
	"github.com/BeliaevAndrey/vibeBot/internal/storage"
	"github.com/BeliaevAndrey/vibeBot/internal/vaxta"

	"go.uber.org/zap"
)

const (
	defaultTopN        = 1
	defaultCallTimeout = 60 * time.Second
)

// Messenger delivers plain text to a chat.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// JobBoard is the vacancy platform.
type JobBoard interface {
	Places(ctx context.Context) ([]dictionary.Place, error)
	Offerings(ctx context.Context, filter *vaxta.Filter) (*vaxta.Offerings, error)
}

// Greeter produces the opening message for a candidate.
type Greeter interface {
	Greeting(handle string) string
}

type Config struct {
	// Recruiter is the chat that receives results. Empty disables delivery.
	Recruiter string
	// Candidates restricts who gets greeted, by username or numeric id.
	// Empty allows everyone.
	Candidates []string
	// TopN is how many offerings go into the vacancy report.
	TopN int
	// CallTimeout bounds summary extraction and the vacancy search.
	CallTimeout time.Duration
}

type Deps struct {
	Engine    *questionnaire.Engine
	Greeter   Greeter
	Messenger Messenger
	Extractor ai.SummaryExtractor
	// Jobs is optional; without it no search happens.
	Jobs    JobBoard
	Filters []filtering.Filter
	Sink    storage.Sink
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Inbound is a text message from a candidate's private chat.
type Inbound struct {
	// SenderID doubles as the chat id for replies.
	SenderID string
	Handle   string
	Text     string
}

// Orchestrator connects the questionnaire engine to the messenger, the judge and
// the vacancy search.
type Orchestrator struct {
	cfg     Config
	deps    Deps
	allowed map[string]struct{}
	logger  *zap.Logger

	mu       sync.Mutex
	finished map[string]struct{}
}

func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Engine == nil {
		return nil, errors.New("questionnaire engine is required")
	}
	if deps.Greeter == nil {
		return nil, errors.New("greeter is required")
	}
	if deps.Extractor == nil {
		return nil, errors.New("summary extractor is required")
	}
	if deps.Sink == nil {
		deps.Sink = storage.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	cfg.Recruiter = strings.TrimSpace(cfg.Recruiter)

	allowed := make(map[string]struct{}, len(cfg.Candidates))
	for _, c := range cfg.Candidates {
		if key := normalizeHandle(c); key != "" {
			allowed[key] = struct{}{}
		}
	}

	return &Orchestrator{
		cfg:      cfg,
		deps:     deps,
		allowed:  allowed,
		logger:   deps.Logger,
		finished: map[string]struct{}{},
	}, nil
}

// HandleMessage routes one inbound message. A sender without a session is
// greeted when allowed; one with a session gets the engine's reply.
func (in *Orchestrator) HandleMessage(ctx context.Context, msg Inbound) error {
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	log := logger.ForCandidate(in.logger, msg.SenderID, msg.Handle)

	out, err := in.deps.Engine.Handle(ctx, msg.SenderID, msg.Text)
	if errors.Is(err, questionnaire.ErrNoSession) {
		if !in.Allowed(msg.SenderID, msg.Handle) {
			log.Debug("ignoring message from a sender outside the candidate list")
			return nil
		}
		if in.isFinished(msg.SenderID) {
			log.Debug("ignoring message after the questionnaire was finished")
			return nil
		}
		return in.Greet(ctx, msg.SenderID, msg.Handle)
	}
	if err != nil {
		return err
	}

	if out.JudgeFailed {
		in.deps.Metrics.JudgeFailed()
	}
	if out.Text != "" {
		if err := in.send(ctx, msg.SenderID, out.Text); err != nil {
			log.Warn("reply not delivered", zap.Error(err))
		}
	}
	if out.Terminal {
		in.complete(ctx, msg.SenderID)
	}
	return nil
}

// Greet opens a session for the candidate and sends the greeting. If the
// greeting cannot be delivered the session is dropped again.
func (in *Orchestrator) Greet(ctx context.Context, id, handle string) error {
	if err := in.deps.Engine.Begin(id, handle); err != nil {
		if errors.Is(err, questionnaire.ErrSessionExists) {
			return nil
		}
		return err
	}

	if err := in.send(ctx, id, in.deps.Greeter.Greeting(handle)); err != nil {
		in.deps.Engine.Finalize(id)
		return fmt.Errorf("sending greeting: %w", err)
	}

	in.deps.Metrics.SessionStarted()
	return nil
}

// Allowed reports whether the sender may take the questionnaire.
func (in *Orchestrator) Allowed(id, handle string) bool {
	if len(in.allowed) == 0 {
		return true
	}
	if _, ok := in.allowed[normalizeHandle(handle)]; ok {
		return true
	}
	_, ok := in.allowed[normalizeHandle(id)]
	return ok
}

// Sweep finalizes sessions idle for at least ttl and returns how many it
// harvested. A session answered meanwhile survives.
func (in *Orchestrator) Sweep(ctx context.Context, ttl time.Duration) int {
	var n int
	for _, id := range in.deps.Engine.Idle(ttl) {
		result, ok := in.deps.Engine.FinalizeIdle(id, ttl)
		if !ok {
			in.logger.Debug("session became active, not finalizing", zap.String(logger.FieldCandidate, id))
			continue
		}
		in.logger.Info("finalizing idle session", zap.String(logger.FieldCandidate, id))
		in.finish(ctx, result)
		n++
	}
	return n
}

func (in *Orchestrator) complete(ctx context.Context, id string) {
	result, ok := in.deps.Engine.Finalize(id)
	if !ok {
		return
	}
	in.finish(ctx, result)
}

func (in *Orchestrator) finish(ctx context.Context, result *questionnaire.Result) {
	id := result.CandidateID
	in.markFinished(id)
	in.deps.Metrics.SessionFinished(string(result.State))

	log := logger.ForCandidate(in.logger, result.CandidateID, result.User)
	rec := &storage.Record{Result: result}

	in.notifyRecruiter(ctx, log, result.Text())

	if result.State == questionnaire.StateCompleted {
		rec.Summary = in.extract(ctx, log, result)
		in.searchAndDeliver(ctx, log, result, rec)
	}

	if err := in.deps.Sink.Save(ctx, rec); err != nil {
		log.Error("failed to store questionnaire result", zap.Error(err))
	}
}

func (in *Orchestrator) extract(ctx context.Context, log *zap.Logger, result *questionnaire.Result) *candidate.Summary {
	transcript, err := result.Transcript()
	if err != nil {
		log.Error("failed to encode transcript", zap.Error(err))
		return &candidate.Summary{}
	}

	ctx, cancel := context.WithTimeout(ctx, in.cfg.CallTimeout)
	defer cancel()

	summary, err := in.deps.Extractor.ExtractSummary(ctx, transcript)
	if err != nil || summary == nil {
		in.deps.Metrics.JudgeFailed()
		log.Warn("summary extraction failed", zap.Error(err))
		return &candidate.Summary{}
	}
	return summary
}

func (in *Orchestrator) searchAndDeliver(ctx context.Context, log *zap.Logger, result *questionnaire.Result, rec *storage.Record) {
	if in.deps.Jobs == nil {
		log.Info("vacancy search skipped: no vacancy platform configured")
		return
	}
	if rec.Summary.IsEmpty() {
		log.Info("vacancy search skipped: nothing usable in the summary")
		return
	}

	offerings, total, err := in.search(ctx, log, rec.Summary)
	if err != nil {
		in.deps.Metrics.SearchFailed()
		log.Error("vacancy search failed", zap.Error(err))
		in.notifyRecruiter(ctx, log, fmt.Sprintf("Не удалось подобрать вакансии для кандидата %s: сервис вакансий недоступен.", result.Handle()))
		return
	}
	rec.Offerings = offerings
	rec.Total = total

	if len(offerings) == 0 {
		log.Info("no offerings matched the candidate", zap.Int("total", total))
		return
	}

	rec.Report = report.FormatTop(offerings, in.cfg.TopN)
	in.notifyRecruiter(ctx, log, recruiterVacancyMessage(result, rec.Summary, total, rec.Report))
	if err := in.send(ctx, result.CandidateID, candidateVacancyMessage(rec.Summary, rec.Report)); err != nil {
		log.Warn("vacancy not delivered to the candidate", zap.Error(err))
	}
}

func (in *Orchestrator) search(ctx context.Context, log *zap.Logger, summary *candidate.Summary) ([]*report.Offering, int, error) {
	ctx, cancel := context.WithTimeout(ctx, in.cfg.CallTimeout)
	defer cancel()

	places, err := in.deps.Jobs.Places(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("loading places: %w", err)
	}
	regions := dictionary.NewRegions(places)

	filter := vaxta.CompileFromSummary(summary, regions)
	if filter == nil {
		log.Info("vacancy search skipped: summary did not resolve to any filter field")
		return nil, 0, nil
	}
	if compact, err := filter.Compact(); err == nil {
		log.Debug("searching offerings", zap.String("filter", compact))
	}

	found, err := in.deps.Jobs.Offerings(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	offerings := report.Enrich(found.Items, regions, log)
	offerings, err = filtering.Run(ctx, log, in.deps.Filters, offerings)
	if err != nil {
		return nil, 0, err
	}
	return offerings, found.Total, nil
}

func (in *Orchestrator) notifyRecruiter(ctx context.Context, log *zap.Logger, text string) {
	if in.cfg.Recruiter == "" {
		in.deps.Metrics.Report(false)
		log.Info("not sent: no recruiter configured")
		return
	}
	if err := in.send(ctx, in.cfg.Recruiter, text); err != nil {
		in.deps.Metrics.Report(false)
		log.Warn("not sent: transport unavailable", zap.Error(err))
		return
	}
	in.deps.Metrics.Report(true)
}

func (in *Orchestrator) send(ctx context.Context, chatID, text string) error {
	if in.deps.Messenger == nil {
		return errors.New("no messenger configured")
	}
	return in.deps.Messenger.SendMessage(ctx, chatID, text)
}

func (in *Orchestrator) markFinished(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.finished[id] = struct{}{}
}

func (in *Orchestrator) isFinished(id string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.finished[id]
	return ok
}

func recruiterVacancyMessage(result *questionnaire.Result, summary *candidate.Summary, total int, body string) string {
	who := result.Handle()
	if summary != nil && summary.FullName != "" {
		who += " (" + summary.FullName + ")"
	}
	return fmt.Sprintf("Вакансия для кандидата %s. Дата опроса: %s. Всего найдено вакансий: %d.\n\n%s",
		who, result.FormatDate(), total, body)
}

func candidateVacancyMessage(summary *candidate.Summary, body string) string {
	intro := "Подобрали Вам вакансию, высылаем описание. Можем обсудить другие варианты вакансий."
	if name := summary.NamePatronymic(); name != "" {
		intro = name + ", подобрали Вам вакансию, высылаем описание. Можем обсудить другие варианты вакансий."
	}
	return intro + "\n\n" + body
}

func normalizeHandle(v string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(v), "@"))
}
