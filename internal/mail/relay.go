// Package mail provides the outbound mail relay abstraction used by the
// dispatch worker. Implementations submit one message per call and classify
// failures as transient (retryable) or permanent (hard bounce).
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Relay failure classification. The dispatch worker retries transient errors
// with backoff up to the retry ceiling; permanent errors are never retried.
var (
	// ErrTransient indicates a temporary relay failure: timeout, connection
	// refused, or a 4xx-style throttle signal.
	ErrTransient = errors.New("transient relay error")

	// ErrPermanent indicates a hard failure: malformed recipient, hard
	// bounce, or a relay-reported permanent rejection.
	ErrPermanent = errors.New("permanent relay error")

	// ErrConfig indicates unusable relay configuration. Fatal at startup:
	// no sends can occur, so the worker refuses to run.
	ErrConfig = errors.New("invalid relay configuration")
)

// Message is one fully-prepared outbound email.
type Message struct {
	From      string
	To        string
	Subject   string
	Body      string
	MessageID string
}

// Relay submits messages to an external mail relay.
type Relay interface {
	// Validate checks the relay configuration without sending. Called once at
	// worker startup; an error here is fatal.
	Validate() error

	// Send submits the message. The context bounds the attempt; expiry is a
	// transient failure. Returned errors wrap ErrTransient or ErrPermanent.
	Send(ctx context.Context, msg *Message) error
}

// messageIDNamespace is the fixed UUIDv5 namespace for idempotency tokens.
var messageIDNamespace = uuid.MustParse("7d9f44a2-55c1-4f4e-9f29-0b1d5a6a8f30")

// MessageID derives the stable Message-Id for a draft. The value is a pure
// function of the draft id, so a crash-and-retry resubmission carries the same
// token and relay-side deduplication can collapse it.
func MessageID(draftID uuid.UUID) string {
	token := uuid.NewSHA1(messageIDNamespace, draftID[:])
	return fmt.Sprintf("<%s@outreach.local>", token)
}
