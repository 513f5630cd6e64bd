package summarize

import (
	"context"
	"errors"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askboxhq/askbox/internal/core"
	"github.com/askboxhq/askbox/internal/core/store"
	"github.com/askboxhq/askbox/internal/metrics"
	"github.com/askboxhq/askbox/internal/usage"
)

// Sentinel errors surfaced to callers of Generate.
var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrNoResponses      = errors.New("question has no responses to summarize")
)

// Service generates and persists summaries, accounting billed token usage
// after each successful completion call.
type Service struct {
	Store  *store.Store
	Client *Client
	Usage  *usage.Accountant
	Logger *logging.Logger
	Clock  func() time.Time
}

// NewService wires a summarization service.
func NewService(st *store.Store, client *Client, accountant *usage.Accountant, logger *logging.Logger) *Service {
	return &Service{
		Store:  st,
		Client: client,
		Usage:  accountant,
		Logger: logger,
		Clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Generate summarizes all responses to a question and stores the result.
// Usage is recorded only after the external call completed, with the tokens
// it actually consumed.
func (s *Service) Generate(ctx context.Context, questionID string) (*core.Summary, error) {
	question, err := s.Store.Question(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, ErrQuestionNotFound
	}

	responses, err := s.Store.Responses(ctx, questionID, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		return nil, ErrNoResponses
	}

	texts := make([]string, len(responses))
	for i, response := range responses {
		texts[i] = response.Text
	}

	result, err := s.Client.Summarize(ctx, question.Text, texts)
	if err != nil {
		metrics.RecordSummary(false)
		return nil, err
	}

	now := s.now()
	summary := core.Summary{
		ID:         uuid.New().String(),
		QuestionID: questionID,
		Text:       result.Text,
		Tokens:     result.Tokens,
		Responses:  len(responses),
		CreatedAt:  now,
	}

	if err := s.Store.InsertSummary(ctx, summary); err != nil {
		metrics.RecordSummary(false)
		return nil, err
	}

	metrics.RecordSummary(true)

	// The completion call is already billed at this point, so usage is
	// recorded regardless of what the caller does with the summary.
	if s.Usage != nil {
		s.Usage.Record(ctx, questionID, int64(result.Tokens), now)
	}

	if s.Logger != nil {
		s.Logger.Info("Generated summary",
			zap.String("question_id", questionID),
			zap.Int("responses", len(responses)),
			zap.Int("tokens", result.Tokens))
	}

	return &summary, nil
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}
