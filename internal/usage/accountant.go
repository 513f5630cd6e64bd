// Package usage tracks billed API consumption (tokens and request counts) in
// calendar-day buckets on the shared counter store. Accounting is best-effort
// telemetry: it runs strictly after the billed call completed and never gates
// the request that triggered it.
package usage

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/askboxhq/askbox/internal/core"
	"github.com/askboxhq/askbox/internal/counter"
	"github.com/askboxhq/askbox/internal/metrics"
)

const (
	// retention bounds how long day buckets survive in the store.
	retention = 90 * 24 * time.Hour

	keyPrefix = "usage:"

	fieldTokens   = "tokens"
	fieldRequests = "requests"

	// questionFieldPrefix namespaces per-question request counters inside the
	// day bucket hash.
	questionFieldPrefix = "q:"
)

// Accountant increments day-bucket usage counters via the store's atomic
// increment primitive. Counters only ever increase, so no read-modify-write
// is involved.
type Accountant struct {
	Store  counter.Store
	Logger *logging.Logger
}

// NewAccountant wires an accountant to the counter store.
func NewAccountant(store counter.Store, logger *logging.Logger) *Accountant {
	return &Accountant{Store: store, Logger: logger}
}

// DayKey returns the store key of the day bucket containing now.
func DayKey(now time.Time) string {
	return keyPrefix + now.UTC().Format("2006-01-02")
}

// Record accounts one billed request against questionID: total tokens, total
// requests, and the per-question request count for the day, refreshing the
// bucket's retention on every increment. Store errors are logged and
// swallowed.
func (a *Accountant) Record(ctx context.Context, questionID string, tokens int64, now time.Time) {
	key := DayKey(now)

	increments := []struct {
		field string
		by    int64
	}{
		{fieldTokens, tokens},
		{fieldRequests, 1},
		{questionFieldPrefix + questionID, 1},
	}

	for _, increment := range increments {
		if _, err := a.Store.IncrField(ctx, key, increment.field, increment.by); err != nil {
			a.swallow(key, increment.field, err)
			return
		}
	}

	if err := a.Store.Expire(ctx, key, retention); err != nil {
		a.swallow(key, "expire", err)
		return
	}

	metrics.RecordUsage(tokens)
}

// Report returns the decoded usage bucket for the day containing at.
func (a *Accountant) Report(ctx context.Context, at time.Time) (*core.DayUsage, error) {
	key := DayKey(at)

	fields, err := a.Store.Fields(ctx, key)
	if err != nil {
		return nil, err
	}

	report := &core.DayUsage{
		Day:        at.UTC().Format("2006-01-02"),
		ByQuestion: make(map[string]int64),
	}

	for field, raw := range fields {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		switch {
		case field == fieldTokens:
			report.TotalTokens = value
		case field == fieldRequests:
			report.TotalRequests = value
		case strings.HasPrefix(field, questionFieldPrefix):
			report.ByQuestion[strings.TrimPrefix(field, questionFieldPrefix)] = value
		}
	}

	return report, nil
}

func (a *Accountant) swallow(key, field string, err error) {
	if a.Logger != nil {
		a.Logger.Warn("Usage accounting failed",
			zap.String("key", key),
			zap.String("field", field),
			zap.Error(err))
	}
	metrics.RecordUsageError()
}
