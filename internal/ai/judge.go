package ai

import (
	"context"
	"errors"

	"github.com/BeliaevAndrey/vibeBot/internal/candidate"
)

// ErrMalformedResponse is returned when the model answer cannot be interpreted.
var ErrMalformedResponse = errors.New("malformed judge response")

// Validation is the verdict on a single questionnaire answer.
type Validation struct {
	Valid bool
	// Reply is a follow-up for the candidate, set only for invalid answers.
	Reply string
}

// AgreementClassifier decides whether the candidate agreed to answer questions.
type AgreementClassifier interface {
	ClassifyAgreement(ctx context.Context, text string) (bool, error)
}

// AnswerValidator checks an answer against the question's acceptance criteria.
type AnswerValidator interface {
	ValidateAnswer(ctx context.Context, question, answer, criteria string) (*Validation, error)
}

// SummaryExtractor distils a questionnaire transcript into a candidate summary.
type SummaryExtractor interface {
	ExtractSummary(ctx context.Context, transcript []byte) (*candidate.Summary, error)
}

// Judge bundles all judge capabilities.
type Judge interface {
	AgreementClassifier
	AnswerValidator
	SummaryExtractor
}
