// Package domain defines the delivery log domain models.
// The delivery log is the append-only record of every send attempt and the
// source of truth for "what happened" to a draft. Entries are never mutated
// or deleted; it doubles as the replay source for the send rate limiter.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of one relay submission attempt.
type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeFailed Outcome = "failed"
)

// LogEntry is one immutable send-attempt record. Written only by the dispatch
// worker, readable by any observer.
type LogEntry struct {
	ID        uuid.UUID
	DraftID   uuid.UUID
	Outcome   Outcome
	Detail    string
	MessageID string
	CreatedAt time.Time
}
