package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	empty := StringFields()
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// Ensure logging with the fallback logger does not panic.
	enriched.Info("another log")
}

func TestCommonFields(t *testing.T) {
	fields := CommonFields("  Gemini  ", "model-v1")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldProvider || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if fields[1].Key != FieldModel || fields[1].String != "model-v1" {
		t.Fatalf("unexpected model field: %+v", fields[1])
	}

	empty := CommonFields("", "")
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestCandidateFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		id         string
		handle     string
		wantHandle string
		wantLen    int
	}{
		{name: "adds at sign", id: "42", handle: "ivan", wantHandle: "@ivan", wantLen: 2},
		{name: "keeps single at sign", id: "42", handle: " @ivan ", wantHandle: "@ivan", wantLen: 2},
		{name: "no handle", id: "42", handle: "", wantLen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fields := CandidateFields(tt.id, tt.handle)
			if len(fields) != tt.wantLen {
				t.Fatalf("expected %d fields, got %d", tt.wantLen, len(fields))
			}
			if fields[0].Key != FieldCandidate || fields[0].String != tt.id {
				t.Fatalf("unexpected id field: %+v", fields[0])
			}
			if tt.wantLen == 2 && fields[1].String != tt.wantHandle {
				t.Fatalf("expected handle %q, got %q", tt.wantHandle, fields[1].String)
			}
		})
	}
}

func TestForCandidate(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ForCandidate(logger, "7", "anna").Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldCandidate] != "7" {
		t.Fatalf("expected candidate field to be 7, got %q", ctx[FieldCandidate])
	}
	if ctx[FieldHandle] != "@anna" {
		t.Fatalf("expected handle field to be @anna, got %q", ctx[FieldHandle])
	}

	// Ensure logging with the fallback logger does not panic.
	ForCandidate(nil, "7", "anna").Info("another log")
}

func TestNewWritesWarningsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "errors.log")

	logger, err := New(Options{File: path})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Info("not in file")
	logger.Warn("in file", zap.String("reason", "test"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "not in file") {
		t.Fatal("info entries must not reach the file")
	}
	if !strings.Contains(string(data), "in file") {
		t.Fatalf("expected warning in file, got %q", data)
	}
}
