package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldCandidate identifies a candidate by chat id.
	FieldCandidate = "candidate_id"
	// FieldHandle is the candidate's public handle.
	FieldHandle = "candidate_handle"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, falling back to a no-op logger for nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields describe the AI provider and model. Empty values are skipped.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// CandidateFields describe the candidate a log entry is about. The handle is
// normalized to carry a leading "@".
func CandidateFields(id, handle string) []zap.Field {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle != "" {
		handle = "@" + handle
	}
	return StringFields(
		StringField{Key: FieldCandidate, Value: id},
		StringField{Key: FieldHandle, Value: handle},
	)
}

// ForCandidate returns logger enriched with candidate fields.
func ForCandidate(logger *zap.Logger, id, handle string) *zap.Logger {
	return WithFields(logger, CandidateFields(id, handle)...)
}
