package filtering

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BeliaevAndrey/vibeBot/internal/report"
	"gopkg.in/yaml.v3"
)

// ExcludedOfferings is the content of an exclude file.
type ExcludedOfferings struct {
	Items []*ExcludedOffering `json:"items" yaml:"items"`
}

type ExcludedOffering struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
	ExcludedAt string `json:"excluded_at,omitempty" yaml:"excluded_at,omitempty"`
}

// LoadExcluded reads an exclude file. The file may be written as JSON or YAML;
// a missing or empty file yields an empty list.
func LoadExcluded(path string) (*ExcludedOfferings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ExcludedOfferings{}, nil
		}
		return nil, err
	}

	var excluded ExcludedOfferings
	if len(data) == 0 {
		return &excluded, nil
	}
	if err := yaml.Unmarshal(data, &excluded); err != nil {
		return nil, fmt.Errorf("parse exclude file %s: %w", path, err)
	}
	return &excluded, nil
}

// NewExcluded converts offerings into exclude file entries.
func NewExcluded(offerings []*report.Offering, reason string) *ExcludedOfferings {
	excluded := &ExcludedOfferings{}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, o := range offerings {
		if o == nil || o.ID() == "" {
			continue
		}
		excluded.Items = append(excluded.Items, &ExcludedOffering{
			ID:         o.ID(),
			Name:       o.Name(),
			Reason:     reason,
			ExcludedAt: now,
		})
	}
	return excluded
}

// Append adds entries whose ids are not listed yet.
func (e *ExcludedOfferings) Append(other *ExcludedOfferings) {
	if other == nil {
		return
	}
	seen := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		seen[item.ID] = struct{}{}
	}
	for _, item := range other.Items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

func (e *ExcludedOfferings) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// ToFile rewrites path with the entries as indented JSON.
func (e *ExcludedOfferings) ToFile(path string) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// AppendToFile merges offerings into the exclude file at path.
func AppendToFile(path string, offerings []*report.Offering, reason string) (int, error) {
	excluded, err := LoadExcluded(path)
	if err != nil {
		return 0, fmt.Errorf("load excluded offerings: %w", err)
	}

	before := len(excluded.Items)
	excluded.Append(NewExcluded(offerings, reason))

	if err := excluded.ToFile(path); err != nil {
		return 0, fmt.Errorf("write excluded offerings: %w", err)
	}
	return len(excluded.Items) - before, nil
}
