package summarize

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/askboxhq/askbox/internal/core/store"
)

// Policy decides when a question's responses get re-summarized: after
// BatchSize new responses accumulate, or once MaxInterval has passed since
// the first unsummarized response, whichever comes first.
type Policy struct {
	BatchSize   int
	MaxInterval time.Duration
}

// DefaultPolicy matches the product default of summarizing in small batches.
var DefaultPolicy = Policy{
	BatchSize:   10,
	MaxInterval: 15 * time.Minute,
}

// Worker subscribes to the response insert stream and triggers summary
// generation per the configured policy.
type Worker struct {
	Service  *Service
	Notifier *store.Notifier
	Policy   Policy
	Logger   *logging.Logger

	// tick overrides the poll interval; intended for tests.
	tick time.Duration
}

// NewWorker wires a summary worker. Zero policy fields fall back to
// DefaultPolicy.
func NewWorker(service *Service, notifier *store.Notifier, policy Policy, logger *logging.Logger) *Worker {
	if policy.BatchSize <= 0 {
		policy.BatchSize = DefaultPolicy.BatchSize
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = DefaultPolicy.MaxInterval
	}
	return &Worker{
		Service:  service,
		Notifier: notifier,
		Policy:   policy,
		Logger:   logger,
		tick:     time.Minute,
	}
}

// Run consumes insert events until ctx is cancelled. Generation failures are
// logged and the pending count kept, so the next trigger retries.
func (w *Worker) Run(ctx context.Context) {
	events, cancel := w.Notifier.Subscribe(64)
	defer cancel()

	pending := make(map[string]int)
	oldest := make(map[string]time.Time)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			pending[event.QuestionID]++
			if _, tracked := oldest[event.QuestionID]; !tracked {
				oldest[event.QuestionID] = w.Service.now()
			}
			if pending[event.QuestionID] >= w.Policy.BatchSize {
				w.generate(ctx, event.QuestionID, pending, oldest)
			}

		case <-ticker.C:
			now := w.Service.now()
			for questionID, since := range oldest {
				if pending[questionID] > 0 && now.Sub(since) >= w.Policy.MaxInterval {
					w.generate(ctx, questionID, pending, oldest)
				}
			}
		}
	}
}

func (w *Worker) generate(ctx context.Context, questionID string, pending map[string]int, oldest map[string]time.Time) {
	if _, err := w.Service.Generate(ctx, questionID); err != nil {
		if w.Logger != nil {
			w.Logger.Warn("Scheduled summary generation failed",
				zap.String("question_id", questionID),
				zap.Error(err))
		}
		return
	}
	delete(pending, questionID)
	delete(oldest, questionID)
}
