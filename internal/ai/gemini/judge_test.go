package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BeliaevAndrey/vibeBot/internal/ai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type stubGenerator struct {
	response    string
	err         error
	lastSystem  string
	lastMessage string
	lastSchema  *genai.Schema
}

func (s *stubGenerator) GenerateJSON(_ context.Context, system, message string, schema *genai.Schema) (string, error) {
	s.lastSystem = system
	s.lastMessage = message
	s.lastSchema = schema
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestClassifyAgreement(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		response string
		expect   bool
		wantErr  bool
	}{
		{name: "json true", response: `{"agree": true}`, expect: true},
		{name: "json false", response: `{"agree": false}`, expect: false},
		{name: "fenced", response: "```json\n{\"agree\": \"yes\"}\n```", expect: true},
		{name: "plain yes", response: "YES", expect: true},
		{name: "plain no", response: "no.", expect: false},
		{name: "missing key", response: `{"answer": true}`, wantErr: true},
		{name: "garbage", response: "maybe later", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			stub := &stubGenerator{response: tc.response}
			judge := NewJudge(stub, 0, zap.NewNop())

			got, err := judge.ClassifyAgreement(context.Background(), "да")
			if tc.wantErr {
				if !errors.Is(err, ai.ErrMalformedResponse) {
					t.Fatalf("expected malformed response error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expect {
				t.Fatalf("expected %v, got %v", tc.expect, got)
			}
			if stub.lastSchema != agreementSchema {
				t.Fatal("expected agreement schema to be used")
			}
			if stub.lastSystem != agreementPrompt {
				t.Fatal("expected agreement prompt as system instruction")
			}
		})
	}
}

func TestValidateAnswer(t *testing.T) {
	stub := &stubGenerator{response: `{"valid": false, "human_response": "  Понял, а сколько вам полных лет?  "}`}
	judge := NewJudge(stub, 0, zap.NewNop())

	v, err := judge.ValidateAnswer(context.Background(), "Сколько вам лет?", "не скажу", "Число от 18 до 65")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v.Valid {
		t.Fatal("expected invalid answer")
	}
	if v.Reply != "Понял, а сколько вам полных лет?" {
		t.Fatalf("unexpected reply: %q", v.Reply)
	}

	for _, part := range []string{"Вопрос: Сколько вам лет?", "Ответ кандидата: не скажу", "Критерии приемлемости ответа: Число от 18 до 65"} {
		if !strings.Contains(stub.lastMessage, part) {
			t.Fatalf("expected message to contain %q, got %q", part, stub.lastMessage)
		}
	}

	stub.response = `{"valid": true, "human_response": "лишнее"}`
	v, err = judge.ValidateAnswer(context.Background(), "Был ли опыт?", "нет", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Valid || v.Reply != "" {
		t.Fatalf("expected valid answer without reply, got %+v", v)
	}
	if strings.Contains(stub.lastMessage, "Критерии") {
		t.Fatal("expected no criteria line when criteria are empty")
	}
}

func TestValidateAnswerFailures(t *testing.T) {
	stub := &stubGenerator{response: `{"human_response": "?"}`}
	judge := NewJudge(stub, 0, zap.NewNop())

	if _, err := judge.ValidateAnswer(context.Background(), "q", "a", ""); !errors.Is(err, ai.ErrMalformedResponse) {
		t.Fatalf("expected malformed response for missing verdict, got %v", err)
	}

	stub.err = errors.New("boom")
	if _, err := judge.ValidateAnswer(context.Background(), "q", "a", ""); err == nil || errors.Is(err, ai.ErrMalformedResponse) {
		t.Fatalf("expected generator error to surface, got %v", err)
	}
}

func TestExtractSummary(t *testing.T) {
	stub := &stubGenerator{response: `{"full_name": "Петров Иван Сергеевич", "gender": "мужчина", "birth_date": "1995-09-10",` +
		` "age": null, "job_type": "склад", "region": "Москва"}`}
	judge := NewJudge(stub, 0, zap.NewNop())
	judge.now = func() time.Time { return time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC) }

	summary, err := judge.ExtractSummary(context.Background(), []byte(`{"questions":[]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Age == nil || *summary.Age != 28 {
		t.Fatalf("expected age computed from birth date, got %v", summary.Age)
	}
	if summary.FirstName != "Иван" || summary.Patronymic != "Сергеевич" {
		t.Fatalf("unexpected name parts: %+v", summary)
	}
	if summary.Region != "Москва" || summary.JobCategory != "склад" || summary.Gender != "мужчина" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !strings.HasSuffix(stub.lastMessage, `{"questions":[]}`) {
		t.Fatalf("expected transcript in message, got %q", stub.lastMessage)
	}
	if stub.lastSchema != summarySchema {
		t.Fatal("expected summary schema")
	}
}

func TestExtractSummaryExplicitAge(t *testing.T) {
	stub := &stubGenerator{response: `{"age": "34", "gender": "unknown", "region": null}`}
	judge := NewJudge(stub, 0, zap.NewNop())

	summary, err := judge.ExtractSummary(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Age == nil || *summary.Age != 34 {
		t.Fatalf("expected age 34, got %v", summary.Age)
	}
	if summary.Gender != "" || summary.Region != "" {
		t.Fatalf("expected unknown values to be dropped, got %+v", summary)
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
		"`{\"a\":1}`":             `{"a":1}`,
	}

	for input, expect := range cases {
		if got := extractJSON(input); got != expect {
			t.Fatalf("extractJSON(%q) = %q, want %q", input, got, expect)
		}
	}
}
