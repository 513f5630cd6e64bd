package handlers

import (
	"encoding/json"
	"net"
	"net/http"

	apperrors "github.com/askboxhq/askbox/internal/errors"

	"github.com/askboxhq/askbox/internal/admission"
	"github.com/askboxhq/askbox/internal/core/store"
	"github.com/askboxhq/askbox/internal/summarize"
)

const (
	maxQuestionLength = 500
	maxResponseLength = 2000

	// maxBodyBytes caps request bodies well above the largest accepted text.
	maxBodyBytes = 64 << 10
)

// API carries the service dependencies behind the HTTP surface.
type API struct {
	Store      *store.Store
	Gate       *admission.Gate
	Summarizer *summarize.Service

	// SummaryPolicy optionally overrides the default summary-request limit.
	SummaryPolicy *admission.Policy
}

// clientIdentity resolves the submitting client's rate limit identity from the
// request. RealIP middleware has already rewritten RemoteAddr when forwarding
// headers are present.
func clientIdentity(r *http.Request) string {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return admission.NormalizeIdentity(addr)
}

// decodeJSON parses the request body into dst, responding with INVALID_INPUT
// on failure. Returns false when the caller should stop processing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		respondWithError(w, r, apperrors.NewInvalidInputError("Request body must be valid JSON"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// rejectOutcome translates a gate refusal into the matching error envelope.
func rejectOutcome(w http.ResponseWriter, r *http.Request, outcome admission.Outcome) {
	if outcome.Kind == admission.RejectRateLimited {
		respondWithError(w, r, apperrors.NewRateLimitedError(outcome.Reason, outcome.RetryAt))
		return
	}
	respondWithError(w, r, apperrors.NewContentRejectedError(outcome.Reason, string(outcome.Kind)))
}
