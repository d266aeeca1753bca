package storage

import (
	"context"
	"errors"

	"github.com/BeliaevAndrey/vibeBot/internal/candidate"
	"github.com/BeliaevAndrey/vibeBot/internal/questionnaire"
	"github.com/BeliaevAndrey/vibeBot/internal/report"
)

// Record is everything produced for one finished questionnaire.
type Record struct {
	Result    *questionnaire.Result `json:"result"`
	Summary   *candidate.Summary    `json:"summary,omitempty"`
	Offerings []*report.Offering    `json:"offerings,omitempty"`
	// Total is the number of offerings the job board reported, before filtering.
	Total  int    `json:"total_offerings"`
	Report string `json:"report,omitempty"`
}

// Sink persists records.
type Sink interface {
	Save(ctx context.Context, rec *Record) error
}

// Nop discards records.
type Nop struct{}

func (Nop) Save(context.Context, *Record) error { return nil }

// Multi saves to every sink and joins their errors.
type Multi []Sink

func (m Multi) Save(ctx context.Context, rec *Record) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Save(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
