package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/askboxhq/askbox/internal/core"
	apperrors "github.com/askboxhq/askbox/internal/errors"
)

type createQuestionRequest struct {
	Text      string `json:"text"`
	CreatedBy string `json:"created_by,omitempty"`
}

type questionPayload struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type responsePayload struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type summaryPayload struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Responses int       `json:"responses"`
	CreatedAt time.Time `json:"created_at"`
}

type questionDetailResponse struct {
	Question  questionPayload   `json:"question"`
	Responses []responsePayload `json:"responses"`
	Summary   *summaryPayload   `json:"summary,omitempty"`
}

// CreateQuestion handles POST /api/questions.
func (a *API) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("Question text is required"))
		return
	}
	if len(text) > maxQuestionLength {
		respondWithError(w, r, apperrors.NewInvalidInputError("Question text is too long"))
		return
	}

	outcome := a.Gate.AdmitQuestion(r.Context(), clientIdentity(r))
	if !outcome.Allowed {
		rejectOutcome(w, r, outcome)
		return
	}

	question := core.Question{
		ID:        uuid.New().String(),
		Text:      text,
		CreatedBy: strings.TrimSpace(req.CreatedBy),
		CreatedAt: time.Now().UTC(),
	}

	if err := a.Store.InsertQuestion(r.Context(), question); err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "Unable to save question"))
		return
	}

	writeJSON(w, http.StatusCreated, toQuestionPayload(question))
}

// GetQuestion handles GET /api/questions/{id}, returning the question together
// with its responses and the latest summary when one exists.
func (a *API) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	question, err := a.Store.Question(r.Context(), id)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "Unable to load question"))
		return
	}
	if question == nil {
		respondWithError(w, r, apperrors.NewNotFoundError("Question not found"))
		return
	}

	responses, err := a.Store.Responses(r.Context(), id, time.Time{})
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "Unable to load responses"))
		return
	}

	summary, err := a.Store.LatestSummary(r.Context(), id)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "Unable to load summary"))
		return
	}

	payload := questionDetailResponse{
		Question:  toQuestionPayload(*question),
		Responses: make([]responsePayload, 0, len(responses)),
	}
	for _, response := range responses {
		payload.Responses = append(payload.Responses, responsePayload{
			ID:        response.ID,
			Text:      response.Text,
			CreatedAt: response.CreatedAt,
		})
	}
	if summary != nil {
		payload.Summary = &summaryPayload{
			ID:        summary.ID,
			Text:      summary.Text,
			Responses: summary.Responses,
			CreatedAt: summary.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

func toQuestionPayload(question core.Question) questionPayload {
	return questionPayload{
		ID:        question.ID,
		Text:      question.Text,
		CreatedBy: question.CreatedBy,
		CreatedAt: question.CreatedAt,
	}
}
