package admission

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/askboxhq/askbox/internal/counter"
	"github.com/askboxhq/askbox/internal/metrics"
)

// FailMode selects limiter behavior when the counter store is unavailable.
type FailMode int

const (
	// FailOpen admits requests when the store fails; an outage in the counter
	// store must not block the primary product function.
	FailOpen FailMode = iota

	// FailClosed denies requests when the store fails.
	FailClosed
)

const (
	// stateRetention is how long a key's window state survives in the store.
	// Absence after expiry is equivalent to a fresh zero state.
	stateRetention = 24 * time.Hour

	statePrefix = "rl:"

	unavailableMessage = "Rate limiting is temporarily unavailable. Please try again later."
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed bool
	Reason  string
	RetryAt time.Time
}

// Limiter enforces windowed limits against the shared counter store.
//
// Increments are read-modify-write, not compare-and-swap: two concurrent
// checks for the same key may both observe the same state and both persist
// count+1, so a limit can be exceeded by the degree of concurrent overlap.
// An approximate limiter is the accepted contract here.
type Limiter struct {
	Store    counter.Store
	Policies map[Scope]Policy
	Clock    func() time.Time
	Mode     FailMode
	Logger   *logging.Logger
}

// NewLimiter returns a limiter with the default policies and a UTC clock.
func NewLimiter(store counter.Store, logger *logging.Logger) *Limiter {
	return &Limiter{
		Store:  store,
		Logger: logger,
		Clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Check runs a single-key check using the policy configured for the key's
// scope, consuming one unit on admission.
func (l *Limiter) Check(ctx context.Context, key Key) Decision {
	return l.CheckWith(ctx, key, l.policy(key.Scope))
}

// CheckWith runs a single-key check with a caller-supplied policy, overriding
// the scope defaults. On admission the incremented state is persisted with a
// refreshed expiry; on denial the state is not mutated.
func (l *Limiter) CheckWith(ctx context.Context, key Key, policy Policy) Decision {
	state, err := l.load(ctx, key)
	if err != nil {
		return l.storeFailure(key, "read", err)
	}

	state = Advance(state, l.now(), policy.Window)
	if tier, ok := Evaluate(state, policy); !ok {
		metrics.RecordAdmission(string(key.Scope), false, string(tier))
		return deny(state, tier, policy)
	}

	state.Window++
	state.Hourly++
	state.Daily++
	if err := l.persist(ctx, key, state); err != nil {
		decision := l.storeFailure(key, "write", err)
		if !decision.Allowed {
			return decision
		}
	}

	metrics.RecordAdmission(string(key.Scope), true, "")
	return Decision{Allowed: true}
}

// CheckPair runs a dual-key check: the identity-scoped key and the
// resource-scoped key must both admit. Verdicts are computed for both keys
// before either counter is persisted, so a denial on one key never increments
// the other.
func (l *Limiter) CheckPair(ctx context.Context, identityKey, resourceKey Key) Decision {
	identityState, err := l.load(ctx, identityKey)
	if err != nil {
		return l.storeFailure(identityKey, "read", err)
	}
	resourceState, err := l.load(ctx, resourceKey)
	if err != nil {
		return l.storeFailure(resourceKey, "read", err)
	}

	now := l.now()
	identityPolicy := l.policy(identityKey.Scope)
	resourcePolicy := l.policy(resourceKey.Scope)

	identityState = Advance(identityState, now, identityPolicy.Window)
	resourceState = Advance(resourceState, now, resourcePolicy.Window)

	if tier, ok := Evaluate(identityState, identityPolicy); !ok {
		metrics.RecordAdmission(string(identityKey.Scope), false, string(tier))
		return deny(identityState, tier, identityPolicy)
	}
	if tier, ok := Evaluate(resourceState, resourcePolicy); !ok {
		metrics.RecordAdmission(string(resourceKey.Scope), false, string(tier))
		return deny(resourceState, tier, resourcePolicy)
	}

	identityState.Window++
	identityState.Hourly++
	identityState.Daily++
	resourceState.Window++
	resourceState.Hourly++
	resourceState.Daily++

	if err := l.persist(ctx, identityKey, identityState); err != nil {
		if decision := l.storeFailure(identityKey, "write", err); !decision.Allowed {
			return decision
		}
	}
	if err := l.persist(ctx, resourceKey, resourceState); err != nil {
		if decision := l.storeFailure(resourceKey, "write", err); !decision.Allowed {
			return decision
		}
	}

	metrics.RecordAdmission(string(identityKey.Scope), true, "")
	metrics.RecordAdmission(string(resourceKey.Scope), true, "")
	return Decision{Allowed: true}
}

func (l *Limiter) policy(scope Scope) Policy {
	if l.Policies != nil {
		if policy, ok := l.Policies[scope]; ok {
			return policy
		}
	}
	if policy, ok := DefaultPolicies[scope]; ok {
		return policy
	}
	return Policy{PerMinute: 30, Window: DefaultWindow}
}

// load fetches and decodes the window state for key. A malformed stored value
// is logged and treated as absent; only store errors propagate.
func (l *Limiter) load(ctx context.Context, key Key) (WindowState, error) {
	fresh := WindowState{LastReset: l.now()}

	raw, found, err := l.Store.Get(ctx, statePrefix+key.String())
	if err != nil {
		return fresh, err
	}
	if !found {
		return fresh, nil
	}

	var state WindowState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		if l.Logger != nil {
			l.Logger.Warn("Discarding malformed rate limit state",
				zap.String("key", key.String()),
				zap.Error(err))
		}
		metrics.RecordCounterStoreFailure("decode")
		return fresh, nil
	}
	if state.LastReset.IsZero() {
		state.LastReset = l.now()
	}
	return state, nil
}

func (l *Limiter) persist(ctx context.Context, key Key, state WindowState) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return l.Store.Set(ctx, statePrefix+key.String(), string(encoded), stateRetention)
}

// storeFailure records a counter store error and resolves it per the
// configured failure mode. Fail-open admits; the error is never surfaced to
// the caller as a rejection.
func (l *Limiter) storeFailure(key Key, op string, err error) Decision {
	if l.Logger != nil {
		l.Logger.Warn("Counter store unavailable for rate limit check",
			zap.String("key", key.String()),
			zap.String("op", op),
			zap.String("mode", l.Mode.String()),
			zap.Error(err))
	}
	metrics.RecordCounterStoreFailure(op)

	if l.Mode == FailClosed {
		return Decision{Allowed: false, Reason: unavailableMessage}
	}
	return Decision{Allowed: true}
}

func (l *Limiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}

func deny(state WindowState, tier Tier, policy Policy) Decision {
	reason := policy.Message
	if reason == "" {
		reason = "Rate limit exceeded. Please try again later."
	}
	return Decision{
		Allowed: false,
		Reason:  reason,
		RetryAt: RetryAt(state, tier, policy),
	}
}

func (m FailMode) String() string {
	if m == FailClosed {
		return "fail-closed"
	}
	return "fail-open"
}
