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

type createResponseRequest struct {
	Text string `json:"text"`
}

// CreateResponse handles POST /api/questions/{id}/responses. The admission
// gate runs the dual-key rate limit and the content filters before the
// response reaches storage.
func (a *API) CreateResponse(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "id")

	question, err := a.Store.Question(r.Context(), questionID)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "Unable to load question"))
		return
	}
	if question == nil {
		respondWithError(w, r, apperrors.NewNotFoundError("Question not found"))
		return
	}

	var req createResponseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("Response text is required"))
		return
	}
	if len(text) > maxResponseLength {
		respondWithError(w, r, apperrors.NewInvalidInputError("Response text is too long"))
		return
	}

	outcome := a.Gate.AdmitResponse(r.Context(), questionID, clientIdentity(r), text)
	if !outcome.Allowed {
		rejectOutcome(w, r, outcome)
		return
	}

	response := core.Response{
		ID:         uuid.New().String(),
		QuestionID: questionID,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}

	if err := a.Store.InsertResponse(r.Context(), response); err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "Unable to save response"))
		return
	}

	writeJSON(w, http.StatusCreated, responsePayload{
		ID:        response.ID,
		Text:      response.Text,
		CreatedAt: response.CreatedAt,
	})
}
