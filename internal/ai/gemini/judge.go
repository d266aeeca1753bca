package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/BeliaevAndrey/vibeBot/internal/ai"
	"github.com/BeliaevAndrey/vibeBot/internal/candidate"
	"github.com/BeliaevAndrey/vibeBot/internal/utils"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, system, message string, schema *genai.Schema) (string, error)
}

var (
	//go:embed prompts/agreement.md
	agreementPrompt string
	//go:embed prompts/validation.md
	validationPrompt string
	//go:embed prompts/summary.md
	summaryPrompt string
)

const defaultMaxLogLength = 200

var (
	agreementSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"agree": {Type: genai.TypeBoolean},
		},
		Required: []string{"agree"},
	}

	validationSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"valid":          {Type: genai.TypeBoolean},
			"human_response": {Type: genai.TypeString},
		},
		Required: []string{"valid", "human_response"},
	}

	summarySchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"full_name":  {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"gender":     {Type: genai.TypeString, Nullable: genai.Ptr(true), Enum: []string{candidate.GenderMale, candidate.GenderFemale}},
			"birth_date": {Type: genai.TypeString, Nullable: genai.Ptr(true), Description: "YYYY-MM-DD"},
			"age":        {Type: genai.TypeInteger, Nullable: genai.Ptr(true)},
			"job_type":   {Type: genai.TypeString, Nullable: genai.Ptr(true), Enum: []string{candidate.JobWarehouse, candidate.JobProduction}},
			"region":     {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		},
		Required: []string{"full_name", "gender", "birth_date", "age", "job_type", "region"},
	}
)

// Judge implements ai.Judge on top of Gemini structured output.
type Judge struct {
	generator jsonGenerator
	logger    *zap.Logger
	maxLogLen int
	now       func() time.Time
}

var _ ai.Judge = (*Judge)(nil)

func NewJudge(generator jsonGenerator, maxLogLength int, logger *zap.Logger) *Judge {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Judge{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
		now:       time.Now,
	}
}

func (j *Judge) ClassifyAgreement(ctx context.Context, text string) (bool, error) {
	raw, err := j.call(ctx, "agreement", agreementPrompt, text, agreementSchema)
	if err != nil {
		return false, err
	}

	return parseAgreement(raw)
}

func (j *Judge) ValidateAnswer(ctx context.Context, question, answer, criteria string) (*ai.Validation, error) {
	message := fmt.Sprintf("Вопрос: %s\nОтвет кандидата: %s", strings.TrimSpace(question), strings.TrimSpace(answer))
	if criteria = strings.TrimSpace(criteria); criteria != "" {
		message += "\n\nКритерии приемлемости ответа: " + criteria
	}

	raw, err := j.call(ctx, "validation", validationPrompt, message, validationSchema)
	if err != nil {
		return nil, err
	}

	return parseValidation(raw)
}

func (j *Judge) ExtractSummary(ctx context.Context, transcript []byte) (*candidate.Summary, error) {
	message := "Вот полный JSON результата опроса кандидата.\n" +
		"Сформируй выжимку по правилам из системного сообщения.\n\n" + string(transcript)

	raw, err := j.call(ctx, "summary", summaryPrompt, message, summarySchema)
	if err != nil {
		return nil, err
	}

	summary, err := parseSummary(raw)
	if err != nil {
		return nil, err
	}

	summary.Normalize(j.now())
	return summary, nil
}

func (j *Judge) call(ctx context.Context, kind, system, message string, schema *genai.Schema) (string, error) {
	if j == nil || j.generator == nil {
		return "", fmt.Errorf("%s: judge is not initialized", kind)
	}

	j.logger.Debug("gemini judge request",
		zap.String("kind", kind),
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, j.maxLogLen)),
	)

	raw, err := j.generator.GenerateJSON(ctx, system, message, schema)
	if err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}

	j.logger.Debug("gemini judge response",
		zap.String("kind", kind),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, j.maxLogLen)),
	)

	return raw, nil
}

func parseAgreement(raw string) (bool, error) {
	data, err := decodeObject(raw)
	if err == nil {
		if v, ok := data["agree"]; ok {
			return coerceBool(v), nil
		}
		return false, fmt.Errorf("%w: agree is missing", ai.ErrMalformedResponse)
	}

	// Plain-text fallback: a bare YES or NO.
	word := strings.ToUpper(strings.TrimSpace(strings.Trim(extractJSON(raw), `"`)))
	switch {
	case strings.HasPrefix(word, "YES"), strings.HasPrefix(word, "ДА"):
		return true, nil
	case strings.HasPrefix(word, "NO"), strings.HasPrefix(word, "НЕТ"):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}
}

func parseValidation(raw string) (*ai.Validation, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}

	v, ok := data["valid"]
	if !ok {
		return nil, fmt.Errorf("%w: valid is missing", ai.ErrMalformedResponse)
	}

	result := &ai.Validation{Valid: coerceBool(v)}
	if !result.Valid {
		result.Reply = coerceString(data["human_response"])
	}

	return result, nil
}

func parseSummary(raw string) (*candidate.Summary, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}

	summary := &candidate.Summary{
		FullName:    coerceString(data["full_name"]),
		FirstName:   coerceString(data["first_name"]),
		Patronymic:  coerceString(data["patronymic"]),
		Gender:      coerceString(data["gender"]),
		BirthDate:   coerceString(data["birth_date"]),
		JobCategory: coerceString(data["job_type"]),
		Region:      coerceString(data["region"]),
	}

	if age := coerceFloat(data["age"]); !math.IsNaN(age) && age > 0 {
		years := int(age)
		summary.Age = &years
	}

	return summary, nil
}

func decodeObject(raw string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("parse gemini response: not an object")
	}
	return data, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes" || lower == "да"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if strings.EqualFold(s, "null") {
			return ""
		}
		return s
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
