package filtering

import (
	"context"
	"strings"

	"github.com/BeliaevAndrey/vibeBot/internal/report"
	"go.uber.org/zap"
)

type companiesFilter struct {
	companies map[string]struct{}
	names     []string
	disabled  bool
	reason    string
	logger    *zap.Logger
}

// NewExcludedCompanies creates a filter that removes offerings of the listed
// companies. Names are compared case-insensitively.
func NewExcludedCompanies(companies []string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &companiesFilter{companies: make(map[string]struct{}, len(companies)), logger: logger}
	for _, name := range companies {
		key := companyKey(name)
		if key == "" {
			continue
		}
		if _, ok := f.companies[key]; ok {
			continue
		}
		f.companies[key] = struct{}{}
		f.names = append(f.names, strings.TrimSpace(name))
	}
	return f
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *companiesFilter) IsEnabled() bool { return !f.disabled }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, offerings []*report.Offering) ([]*report.Offering, Step, error) {
	initial := len(offerings)
	if len(f.companies) == 0 {
		return offerings, Step{Initial: initial, Left: initial}, nil
	}

	kept, removed := exclude(offerings, func(o *report.Offering) bool {
		_, ok := f.companies[companyKey(o.Name())]
		return ok
	})
	if len(removed) > 0 {
		f.logger.Info("excluding offerings by companies",
			zap.Strings("excluded_companies", f.names),
			zap.Strings("excluded_offerings", removed),
			zap.Int("offerings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: len(kept)}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["companies"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func companyKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
