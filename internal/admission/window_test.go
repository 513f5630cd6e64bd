package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceShortWindowReset(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	state := WindowState{Window: 5, Hourly: 5, Daily: 5, LastReset: base}

	// Inside the window nothing changes.
	advanced := Advance(state, base.Add(30*time.Second), time.Minute)
	assert.Equal(t, 5, advanced.Window)
	assert.Equal(t, base, advanced.LastReset)

	// Past the window the short counter resets and the anchor moves; hourly
	// and daily counts survive.
	now := base.Add(90 * time.Second)
	advanced = Advance(state, now, time.Minute)
	assert.Equal(t, 0, advanced.Window)
	assert.Equal(t, 5, advanced.Hourly)
	assert.Equal(t, 5, advanced.Daily)
	assert.Equal(t, now, advanced.LastReset)
}

func TestAdvanceHourlyReset(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	state := WindowState{Window: 2, Hourly: 20, Daily: 40, LastReset: base}

	now := base.Add(2 * time.Hour)
	advanced := Advance(state, now, time.Minute)

	assert.Equal(t, 0, advanced.Hourly)
	assert.Equal(t, 40, advanced.Daily, "daily count survives an hourly rollover")
	assert.Equal(t, 0, advanced.Window, "window also elapsed")
	assert.Equal(t, now, advanced.LastReset)
}

func TestAdvanceDailyReset(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	state := WindowState{Window: 3, Hourly: 25, Daily: 99, LastReset: base}

	now := base.Add(25 * time.Hour)
	advanced := Advance(state, now, time.Minute)

	assert.Equal(t, WindowState{LastReset: now}, advanced)
}

func TestAdvanceZeroWindowUsesDefault(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	state := WindowState{Window: 4, LastReset: base}

	advanced := Advance(state, base.Add(30*time.Second), 0)
	assert.Equal(t, 4, advanced.Window, "default window is one minute, not zero")

	advanced = Advance(state, base.Add(2*time.Minute), 0)
	assert.Equal(t, 0, advanced.Window)
}

func TestEvaluateDenialPriority(t *testing.T) {
	policy := Policy{PerMinute: 5, PerHour: 30, PerDay: 100, Window: time.Minute}

	tests := []struct {
		name    string
		state   WindowState
		allowed bool
		tier    Tier
	}{
		{"under all limits", WindowState{Window: 4, Hourly: 29, Daily: 99}, true, ""},
		{"minute exhausted", WindowState{Window: 5, Hourly: 10, Daily: 10}, false, TierMinute},
		{"hour exhausted", WindowState{Window: 0, Hourly: 30, Daily: 10}, false, TierHour},
		{"day exhausted", WindowState{Window: 0, Hourly: 0, Daily: 100}, false, TierDay},
		{"day wins over hour and minute", WindowState{Window: 5, Hourly: 30, Daily: 100}, false, TierDay},
		{"hour wins over minute", WindowState{Window: 5, Hourly: 30, Daily: 0}, false, TierHour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, ok := Evaluate(tt.state, policy)
			assert.Equal(t, tt.allowed, ok)
			assert.Equal(t, tt.tier, tier)
		})
	}
}

func TestEvaluateZeroMaximaUnenforced(t *testing.T) {
	policy := Policy{PerMinute: 3, Window: time.Minute}
	state := WindowState{Window: 2, Hourly: 100000, Daily: 100000}

	tier, ok := Evaluate(state, policy)
	require.True(t, ok, "hour and day tiers with zero maxima never deny")
	assert.Empty(t, tier)
}

func TestRetryAtPerTier(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	state := WindowState{LastReset: base}
	policy := Policy{PerMinute: 5, PerHour: 30, PerDay: 100, Window: time.Minute}

	assert.Equal(t, base.Add(time.Minute), RetryAt(state, TierMinute, policy))
	assert.Equal(t, base.Add(time.Hour), RetryAt(state, TierHour, policy))
	assert.Equal(t, base.Add(24*time.Hour), RetryAt(state, TierDay, policy))
}

func TestRetryAtZeroWindowUsesDefault(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	state := WindowState{LastReset: base}

	assert.Equal(t, base.Add(DefaultWindow), RetryAt(state, TierMinute, Policy{}))
}
