package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{
		StatusDraft, StatusApproved, StatusSending, StatusSent, StatusFailed, StatusCanceled,
	} {
		assert.True(t, s.Valid(), "expected %q to be valid", s)
	}

	assert.False(t, Status("pending").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusSent.IsTerminal())
	assert.True(t, StatusCanceled.IsTerminal())
	assert.False(t, StatusDraft.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
	assert.False(t, StatusSending.IsTerminal())
	assert.False(t, StatusFailed.IsTerminal())
}

// TestStatus_CanTransitionTo walks every status pair and asserts that exactly
// the edges of the delivery state machine are allowed.
func TestStatus_CanTransitionTo(t *testing.T) {
	all := []Status{
		StatusDraft, StatusApproved, StatusSending, StatusSent, StatusFailed, StatusCanceled,
	}

	allowed := map[Status]map[Status]bool{
		StatusDraft:    {StatusApproved: true, StatusCanceled: true},
		StatusApproved: {StatusSending: true, StatusCanceled: true},
		StatusSending: {
			StatusSent: true, StatusFailed: true, StatusApproved: true, StatusCanceled: true,
		},
		StatusFailed:   {StatusApproved: true, StatusCanceled: true},
		StatusSent:     {},
		StatusCanceled: {},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			got := from.CanTransitionTo(to)
			assert.Equal(t, want, got, "transition %s -> %s", from, to)
		}
	}
}

func TestStatus_NoDirectJumps(t *testing.T) {
	// The edges a caller bug would most plausibly try.
	assert.False(t, StatusDraft.CanTransitionTo(StatusSent))
	assert.False(t, StatusDraft.CanTransitionTo(StatusSending))
	assert.False(t, StatusApproved.CanTransitionTo(StatusSent))
	assert.False(t, StatusSent.CanTransitionTo(StatusApproved))
	assert.False(t, StatusCanceled.CanTransitionTo(StatusApproved))
	assert.False(t, StatusFailed.CanTransitionTo(StatusSent))
}

func TestBackoffDelay(t *testing.T) {
	base := 2 * time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{10, 10 * time.Minute}, // capped
		{0, 2 * time.Second},   // clamped to first attempt
		{-3, 2 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BackoffDelay(tt.attempt, base), "attempt %d", tt.attempt)
	}
}

func TestBackoffDelay_Cap(t *testing.T) {
	// A large base is capped immediately.
	assert.Equal(t, 10*time.Minute, BackoffDelay(1, time.Hour))
}
