package filtering

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BeliaevAndrey/vibeBot/internal/report"
	"github.com/BeliaevAndrey/vibeBot/internal/vaxta"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func offering(id, name string) *report.Offering {
	return &report.Offering{Raw: &vaxta.RawOffering{ID: id, Name: name}}
}

func ids(offerings []*report.Offering) string {
	out := make([]string, 0, len(offerings))
	for _, o := range offerings {
		out = append(out, o.ID())
	}
	return strings.Join(out, ",")
}

func TestExcludeFileFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.yaml")
	content := "items:\n  - id: \"2\"\n    reason: manual\n  - id: \"4\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	core, observed := observer.New(zapcore.InfoLevel)
	f := NewExcludeFile(path, zap.New(core))

	input := []*report.Offering{offering("1", "A"), offering("2", "B"), offering("3", "C"), offering("4", "D")}
	got, step, err := f.Apply(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ids(got) != "1,3" {
		t.Fatalf("unexpected offerings left: %s", ids(got))
	}
	if step != (Step{Initial: 4, Dropped: 2, Left: 2}) {
		t.Fatalf("unexpected step: %+v", step)
	}
	if observed.FilterMessage("excluding offerings based on exclude file").Len() != 1 {
		t.Fatal("expected exclusion to be logged")
	}
}

func TestExcludeFileFilterMissingFile(t *testing.T) {
	f := NewExcludeFile(filepath.Join(t.TempDir(), "absent.json"), nil)

	got, step, err := f.Apply(context.Background(), []*report.Offering{offering("1", "A")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || step.Dropped != 0 {
		t.Fatalf("expected nothing dropped, got %d offerings and %+v", len(got), step)
	}
}

func TestAppendToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")

	added, err := AppendToFile(path, []*report.Offering{offering("1", "A"), offering("2", "B")}, "shown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}

	added, err = AppendToFile(path, []*report.Offering{offering("2", "B"), offering("3", "C"), offering("", "no id")}, "shown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected only the new id to be added, got %d", added)
	}

	excluded, err := LoadExcluded(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(excluded.IDs(), ","); got != "1,2,3" {
		t.Fatalf("unexpected ids: %s", got)
	}
	if excluded.Items[0].Reason != "shown" || excluded.Items[0].ExcludedAt == "" {
		t.Fatalf("unexpected entry: %+v", excluded.Items[0])
	}
}

func TestCompaniesFilter(t *testing.T) {
	t.Parallel()

	f := NewExcludedCompanies([]string{"  Склад  Подольск ", "", "склад подольск"}, nil)

	input := []*report.Offering{offering("1", "Склад Подольск"), offering("2", "Завод"), nil, offering("3", "СКЛАД ПОДОЛЬСК")}
	got, step, err := f.Apply(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids(got) != "2" {
		t.Fatalf("unexpected offerings left: %s", ids(got))
	}
	if step.Dropped != 2 || step.Left != 1 {
		t.Fatalf("unexpected step: %+v", step)
	}

	status := f.(statusProvider).Status()
	if status.Details["companies"] != "Склад  Подольск" {
		t.Fatalf("unexpected status details: %+v", status.Details)
	}
}

type failingFilter struct {
	validateErr error
	applied     bool
}

func (f *failingFilter) Name() string    { return "failing" }
func (f *failingFilter) Disable(string)  {}
func (f *failingFilter) IsEnabled() bool { return true }
func (f *failingFilter) Validate() error { return f.validateErr }

func (f *failingFilter) Apply(_ context.Context, o []*report.Offering) ([]*report.Offering, Step, error) {
	f.applied = true
	return o, Step{Initial: len(o), Left: len(o)}, nil
}

func TestRunValidatesBeforeApplying(t *testing.T) {
	t.Parallel()

	failing := &failingFilter{validateErr: errors.New("broken")}
	companies := NewExcludedCompanies([]string{"A"}, nil)

	_, err := Run(context.Background(), nil, []Filter{companies, failing}, []*report.Offering{offering("1", "A")})
	if err == nil || !strings.Contains(err.Error(), "failing: broken") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if failing.applied {
		t.Fatal("expected no filter to be applied after validation failure")
	}
}

func TestRunSkipsDisabledAndPreservesOrder(t *testing.T) {
	t.Parallel()

	companies := NewExcludedCompanies([]string{"B"}, nil)
	disabled := NewExcludedCompanies([]string{"C"}, nil)
	DisableByName([]Filter{disabled}, "companies", "not needed")

	input := []*report.Offering{offering("3", "C"), offering("1", "A"), offering("2", "B")}
	got, err := Run(context.Background(), zap.NewNop(), []Filter{companies, disabled}, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids(got) != "3,1" {
		t.Fatalf("unexpected offerings: %s", ids(got))
	}

	statuses := Describe([]Filter{companies, disabled, &failingFilter{}})
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[1].Enabled || statuses[1].Reason != "not needed" {
		t.Fatalf("unexpected disabled status: %+v", statuses[1])
	}
	if statuses[2].Name != "failing" || !statuses[2].Enabled {
		t.Fatalf("unexpected fallback status: %+v", statuses[2])
	}
}
