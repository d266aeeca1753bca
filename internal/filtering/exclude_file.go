package filtering

import (
	"context"
	"fmt"
	"strings"

	"github.com/BeliaevAndrey/vibeBot/internal/report"
	"go.uber.org/zap"
)

type excludeFileFilter struct {
	path   string
	logger *zap.Logger
}

// NewExcludeFile creates a filter that removes offerings listed in the exclude file.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &excludeFileFilter{
		path:   strings.TrimSpace(path),
		logger: logger,
	}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, offerings []*report.Offering) ([]*report.Offering, Step, error) {
	initial := len(offerings)
	if f.path == "" {
		return offerings, Step{Initial: initial, Left: initial}, nil
	}

	excluded, err := LoadExcluded(f.path)
	if err != nil {
		return offerings, Step{}, fmt.Errorf("getting excluded offerings from file: %w", err)
	}

	ids := make(map[string]struct{}, len(excluded.Items))
	for _, id := range excluded.IDs() {
		ids[id] = struct{}{}
	}

	kept, removed := exclude(offerings, func(o *report.Offering) bool {
		_, ok := ids[o.ID()]
		return ok
	})
	if len(removed) > 0 {
		f.logger.Info("excluding offerings based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_offerings", removed),
			zap.Int("offerings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: len(kept)}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
