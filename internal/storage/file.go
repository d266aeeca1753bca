package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BeliaevAndrey/vibeBot/internal/questionnaire"
	"go.uber.org/zap"
)

const (
	jsonDir = "json"
	textDir = "text"
)

// FileSink writes records under dir/json and dir/text.
type FileSink struct {
	dir    string
	logger *zap.Logger
}

func NewFileSink(dir string, logger *zap.Logger) (*FileSink, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("results directory is required")
	}
	for _, sub := range []string{jsonDir, textDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create results directory: %w", err)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{dir: dir, logger: logger}, nil
}

// Save writes the result as JSON and text, then the summary and the offerings
// when present. Every file is attempted; errors are joined.
func (s *FileSink) Save(_ context.Context, rec *Record) error {
	if rec == nil || rec.Result == nil {
		return errors.New("record without result")
	}

	base := baseName(rec.Result)
	var errs []error

	write := func(path string, data []byte) {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", path, err))
			return
		}
		s.logger.Debug("result file written", zap.String("path", path))
	}
	writeJSON := func(name string, v any) {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			errs = append(errs, fmt.Errorf("encode %s: %w", name, err))
			return
		}
		write(filepath.Join(s.dir, jsonDir, name), data)
	}

	writeJSON(base+".json", rec.Result)
	write(filepath.Join(s.dir, textDir, base+".txt"), []byte(rec.Result.Text()))

	if rec.Summary != nil {
		writeJSON("short_"+base+".json", rec.Summary)
	}
	if len(rec.Offerings) > 0 {
		writeJSON("vacancies_"+base+".json", rec.Offerings)
	}

	return errors.Join(errs...)
}

// baseName is "<user>_<YYYY_MM_DD-HH_MM>_<short id>".
func baseName(r *questionnaire.Result) string {
	user := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '@' || r == ' ' {
			return -1
		}
		return r
	}, r.User)
	if user == "" {
		user = "unknown"
	}

	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s_%s", user, r.Date.In(questionnaire.Moscow).Format("2006_01_02-15_04"), id)
}
