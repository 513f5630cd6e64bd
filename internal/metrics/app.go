package metrics

import (
	"github.com/askboxhq/askbox/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Admission metrics
	AdmissionTotal         = "admission_checks_total"
	ContentRejectionsTotal = "admission_content_rejections_total"
	CounterStoreFailures   = "admission_counter_store_failures_total"

	// Usage accounting metrics
	UsageTokensTotal  = "usage_tokens_total"
	UsageRecordErrors = "usage_record_errors_total"

	// Summary generation metrics
	SummariesTotal = "summaries_generated_total"
)

// RecordAdmission records a rate limit check outcome. For denials, tier names
// the limit tier that produced the denial (minute, hour, day).
func RecordAdmission(scope string, allowed bool, tier string) {
	if observability.TelemetrySystem == nil {
		return
	}

	status := "allowed"
	if !allowed {
		status = "denied"
	}

	labels := map[string]string{
		"scope":  scope,
		"status": status,
	}
	if tier != "" {
		labels["tier"] = tier
	}

	_ = observability.TelemetrySystem.Counter(AdmissionTotal, 1, labels)
}

// RecordContentRejection records a spam or duplicate rejection.
func RecordContentRejection(kind string) {
	if observability.TelemetrySystem == nil {
		return
	}

	_ = observability.TelemetrySystem.Counter(
		ContentRejectionsTotal,
		1,
		map[string]string{"kind": kind},
	)
}

// RecordCounterStoreFailure records a counter store error by operation.
// These correspond to fail-open admissions (or fail-closed denials).
func RecordCounterStoreFailure(op string) {
	if observability.TelemetrySystem == nil {
		return
	}

	_ = observability.TelemetrySystem.Counter(
		CounterStoreFailures,
		1,
		map[string]string{"op": op},
	)
}

// RecordUsage records billed token usage after an external completion call.
func RecordUsage(tokens int64) {
	if observability.TelemetrySystem == nil {
		return
	}

	_ = observability.TelemetrySystem.Counter(UsageTokensTotal, float64(tokens), nil)
}

// RecordUsageError records a swallowed usage accounting failure.
func RecordUsageError() {
	if observability.TelemetrySystem == nil {
		return
	}

	_ = observability.TelemetrySystem.Counter(UsageRecordErrors, 1, nil)
}

// RecordSummary records a summary generation attempt.
func RecordSummary(success bool) {
	if observability.TelemetrySystem == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}

	_ = observability.TelemetrySystem.Counter(
		SummariesTotal,
		1,
		map[string]string{"status": status},
	)
}
