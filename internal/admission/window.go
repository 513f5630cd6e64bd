package admission

import "time"

// WindowState is the persisted counter state for one rate-limited key. The
// three counters roll over on independent cadences and may diverge; only the
// configured maxima gate decisions. A key absent from the store is equivalent
// to a fresh zero state.
type WindowState struct {
	Window    int       `json:"window_count"`
	Hourly    int       `json:"hourly_count"`
	Daily     int       `json:"daily_count"`
	LastReset time.Time `json:"last_reset"`
}

// Tier identifies which limit tier produced a denial.
type Tier string

const (
	TierMinute Tier = "minute"
	TierHour   Tier = "hour"
	TierDay    Tier = "day"
)

// Advance applies window rollovers to state for the given instant. Pure; no
// I/O. The short-window reset shares the LastReset anchor with the hour/day
// rollover clock, so a window reset also restarts that clock (see DESIGN.md
// for the rejected three-anchor alternative).
func Advance(state WindowState, now time.Time, window time.Duration) WindowState {
	if window <= 0 {
		window = DefaultWindow
	}

	elapsed := now.Sub(state.LastReset)
	switch {
	case elapsed >= 24*time.Hour:
		state.Window = 0
		state.Hourly = 0
		state.Daily = 0
		state.LastReset = now
	case elapsed >= time.Hour:
		state.Hourly = 0
	}

	if now.Sub(state.LastReset) > window {
		state.Window = 0
		state.LastReset = now
	}

	return state
}

// Evaluate checks state against policy and returns the denial tier, if any.
// The day tier is checked first so the most user-meaningful denial wins, then
// hour, then the short window. Tiers with a zero maximum are unenforced.
func Evaluate(state WindowState, policy Policy) (Tier, bool) {
	if policy.PerDay > 0 && state.Daily >= policy.PerDay {
		return TierDay, false
	}
	if policy.PerHour > 0 && state.Hourly >= policy.PerHour {
		return TierHour, false
	}
	if policy.PerMinute > 0 && state.Window >= policy.PerMinute {
		return TierMinute, false
	}
	return "", true
}

// RetryAt estimates when a denied key next rolls over at the given tier.
func RetryAt(state WindowState, tier Tier, policy Policy) time.Time {
	window := policy.Window
	if window <= 0 {
		window = DefaultWindow
	}

	switch tier {
	case TierDay:
		return state.LastReset.Add(24 * time.Hour)
	case TierHour:
		return state.LastReset.Add(time.Hour)
	default:
		return state.LastReset.Add(window)
	}
}
