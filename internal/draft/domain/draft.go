// Package domain defines the outreach draft domain models.
// A draft is one candidate sponsorship email moving through an explicit status
// machine from generation to approval to dispatch.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a draft.
type Status string

const (
	// StatusDraft is the initial state set by the draft generator.
	StatusDraft Status = "draft"

	// StatusApproved marks a draft cleared by the operator for sending.
	StatusApproved Status = "approved"

	// StatusSending marks a draft claimed by a dispatch worker; at most one
	// worker holds a draft in this state.
	StatusSending Status = "sending"

	// StatusSent is terminal: the relay accepted the message.
	StatusSent Status = "sent"

	// StatusFailed marks a failed attempt. Below the retry ceiling the draft
	// may return to approved; at the ceiling it stays failed permanently.
	StatusFailed Status = "failed"

	// StatusCanceled is the terminal soft-delete state. Drafts are never
	// physically deleted so the audit trail stays intact.
	StatusCanceled Status = "canceled"
)

// transitions is the exhaustive edge table of the draft status machine.
// Any pair not listed here is an illegal transition.
var transitions = map[Status]map[Status]bool{
	StatusDraft: {
		StatusApproved: true,
		StatusCanceled: true,
	},
	StatusApproved: {
		StatusSending:  true,
		StatusCanceled: true,
	},
	StatusSending: {
		StatusSent:   true,
		StatusFailed: true,
		// Crash-recovery sweep reclaims stale sending rows.
		StatusApproved: true,
		StatusCanceled: true,
	},
	StatusFailed: {
		// Retry re-approval, only below the retry ceiling.
		StatusApproved: true,
		StatusCanceled: true,
	},
	StatusSent:     {},
	StatusCanceled: {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further mutation is allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusCanceled
}

// CanTransitionTo reports whether the edge s -> target exists in the status machine.
func (s Status) CanTransitionTo(target Status) bool {
	return transitions[s][target]
}

// Draft identifies one candidate outreach email.
type Draft struct {
	ID               uuid.UUID
	CampaignID       uuid.UUID
	RecipientAddress string
	Subject          string
	Body             string
	Status           Status
	AttemptCount     int
	FailureReason    *string
	ApprovedAt       *time.Time
	ClaimedAt        *time.Time
	RetryAt          *time.Time
	LastAttemptAt    *time.Time
	SentAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Campaign groups the drafts belonging to one outreach run.
type Campaign struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// QueueStats summarizes the delivery queue for the operator dashboard.
type QueueStats struct {
	PendingApproved int64
	Sending         int64
	Sent            int64
	Failed          int64
	Canceled        int64
}

// maxBackoff caps the exponential curve so a draft with a high attempt count
// is never pushed out further than ten minutes.
const maxBackoff = 10 * time.Minute

// BackoffDelay returns the retry delay after the given attempt number
// (1-based): base * 2^(attempt-1), capped at maxBackoff.
func BackoffDelay(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}
