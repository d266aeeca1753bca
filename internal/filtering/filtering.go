package filtering

import (
	"context"
	"fmt"

	"github.com/BeliaevAndrey/vibeBot/internal/report"
	"go.uber.org/zap"
)

// Filter represents a single filtering step applied to enriched offerings.
// Steps never reorder offerings; they only drop them.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, offerings []*report.Offering) ([]*report.Offering, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates and then executes the enabled filters sequentially.
func Run(ctx context.Context, logger *zap.Logger, steps []Filter, offerings []*report.Offering) ([]*report.Offering, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, offerings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		offerings = next
	}

	return offerings, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// exclude keeps the offerings for which drop returns false and reports the
// ids of the removed ones.
func exclude(offerings []*report.Offering, drop func(*report.Offering) bool) ([]*report.Offering, []string) {
	kept := make([]*report.Offering, 0, len(offerings))
	var removed []string
	for _, o := range offerings {
		if o == nil {
			continue
		}
		if drop(o) {
			removed = append(removed, o.ID())
			continue
		}
		kept = append(kept, o)
	}
	return kept, removed
}
