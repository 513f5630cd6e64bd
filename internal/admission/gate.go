package admission

import (
	"context"
	"strings"
	"time"

	"github.com/askboxhq/askbox/internal/metrics"
)

// AnonymousIdentity is used when no client identity can be resolved.
const AnonymousIdentity = "anonymous"

// NormalizeIdentity maps a resolved client address to a rate limit identity.
func NormalizeIdentity(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return AnonymousIdentity
	}
	return addr
}

// RejectKind categorizes why the gate refused a request.
type RejectKind string

const (
	RejectRateLimited RejectKind = "rate_limited"
	RejectSpam        RejectKind = "spam"
	RejectDuplicate   RejectKind = "duplicate"
)

// Outcome is the gate's verdict for one write request.
type Outcome struct {
	Allowed bool
	Kind    RejectKind
	Reason  string
	RetryAt time.Time
}

// Gate composes the rate limiter and the content filters in front of every
// write-inducing request. The persistence call happens only after the gate
// fully admits; a content rejection does not touch the counter store again.
type Gate struct {
	Limiter    *Limiter
	Duplicates *DuplicateFilter
}

// NewGate wires a gate from its two collaborators.
func NewGate(limiter *Limiter, duplicates *DuplicateFilter) *Gate {
	return &Gate{Limiter: limiter, Duplicates: duplicates}
}

// AdmitQuestion gates question creation by client identity.
func (g *Gate) AdmitQuestion(ctx context.Context, identity string) Outcome {
	key := Key{Scope: ScopeQuestionCreate, Identity: NormalizeIdentity(identity)}
	return fromDecision(g.Limiter.Check(ctx, key))
}

// AdmitSummary gates summary generation by client identity, with an optional
// per-call-site policy override.
func (g *Gate) AdmitSummary(ctx context.Context, identity string, override *Policy) Outcome {
	key := Key{Scope: ScopeSummaryRequest, Identity: NormalizeIdentity(identity)}
	if override != nil {
		return fromDecision(g.Limiter.CheckWith(ctx, key, *override))
	}
	return fromDecision(g.Limiter.Check(ctx, key))
}

// AdmitResponse gates a response submission: the dual-key rate limit check
// first, then spam classification, then duplicate detection.
func (g *Gate) AdmitResponse(ctx context.Context, questionID, identity, text string) Outcome {
	identity = NormalizeIdentity(identity)

	decision := g.Limiter.CheckPair(ctx,
		Key{Scope: ScopeResponseByIP, Identity: identity},
		Key{Scope: ScopeResponseByQuestion, Identity: questionID},
	)
	if !decision.Allowed {
		return fromDecision(decision)
	}

	if verdict := Classify(text); verdict.Spam {
		metrics.RecordContentRejection(string(RejectSpam))
		return Outcome{Kind: RejectSpam, Reason: verdict.Reason}
	}

	if g.Duplicates != nil && g.Duplicates.Seen(questionID, identity, text) {
		metrics.RecordContentRejection(string(RejectDuplicate))
		return Outcome{Kind: RejectDuplicate, Reason: "You have already submitted this response."}
	}

	return Outcome{Allowed: true}
}

func fromDecision(decision Decision) Outcome {
	if decision.Allowed {
		return Outcome{Allowed: true}
	}
	return Outcome{
		Kind:    RejectRateLimited,
		Reason:  decision.Reason,
		RetryAt: decision.RetryAt,
	}
}
