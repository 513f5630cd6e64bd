package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/askboxhq/askbox/internal/errors"
	"github.com/askboxhq/askbox/internal/summarize"
)

// CreateSummary handles POST /api/questions/{id}/summary. Summary generation
// is rate limited per requesting identity before the completion provider is
// called.
func (a *API) CreateSummary(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "id")

	outcome := a.Gate.AdmitSummary(r.Context(), clientIdentity(r), a.SummaryPolicy)
	if !outcome.Allowed {
		rejectOutcome(w, r, outcome)
		return
	}

	summary, err := a.Summarizer.Generate(r.Context(), questionID)
	if err != nil {
		switch {
		case errors.Is(err, summarize.ErrQuestionNotFound):
			respondWithError(w, r, apperrors.NewNotFoundError("Question not found"))
		case errors.Is(err, summarize.ErrNoResponses):
			respondWithError(w, r, apperrors.NewInvalidInputError("Question has no responses to summarize"))
		default:
			var providerErr *summarize.ProviderError
			if errors.As(err, &providerErr) {
				respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "Summary provider request failed"))
				return
			}
			respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "Unable to generate summary"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, summaryPayload{
		ID:        summary.ID,
		Text:      summary.Text,
		Responses: summary.Responses,
		CreatedAt: summary.CreatedAt,
	})
}
