// Package admission decides, for every write-inducing request, whether it may
// proceed: windowed rate limits against the shared counter store, plus local
// spam and duplicate filters for response submissions.
package admission

import "time"

// Scope names a category of rate-limited operation.
type Scope string

const (
	ScopeQuestionCreate     Scope = "question-create-by-ip"
	ScopeResponseByIP       Scope = "response-by-ip"
	ScopeResponseByQuestion Scope = "response-by-question"
	ScopeSummaryRequest     Scope = "summary-request-by-ip"
)

// Key identifies one rate-limited counter: a scope plus the client identity or
// resource id the counter tracks. One WindowState exists per Key.
type Key struct {
	Scope    Scope
	Identity string
}

func (k Key) String() string {
	return string(k.Scope) + ":" + k.Identity
}

// DefaultWindow is the short-window length when a policy does not set one.
const DefaultWindow = time.Minute

// Policy is the static limit configuration for a scope. PerHour and PerDay of
// zero leave those tiers unenforced (single-tier policies check only the short
// window). Policies are configuration data, never mutated at runtime.
type Policy struct {
	PerMinute int
	PerHour   int
	PerDay    int
	Window    time.Duration
	Message   string
}

// DefaultPolicies provides per-scope defaults. Per-question maxima are much
// larger than per-identity ones: many distinct submitters hit one question.
var DefaultPolicies = map[Scope]Policy{
	ScopeQuestionCreate: {
		PerMinute: 3,
		Window:    time.Minute,
		Message:   "You are creating questions too quickly. Please wait a moment.",
	},
	ScopeResponseByIP: {
		PerMinute: 5,
		PerHour:   30,
		PerDay:    100,
		Window:    time.Minute,
		Message:   "You are submitting responses too quickly. Please wait a moment.",
	},
	ScopeResponseByQuestion: {
		PerMinute: 60,
		PerHour:   1000,
		PerDay:    5000,
		Window:    time.Minute,
		Message:   "This question is receiving too many responses right now. Please try again later.",
	},
	ScopeSummaryRequest: {
		PerMinute: 2,
		Window:    time.Minute,
		Message:   "A summary was generated recently. Please wait before requesting another.",
	},
}
