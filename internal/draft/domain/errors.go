package domain

import (
	"github.com/allisson/outreach/internal/errors"
)

// Draft store errors.
var (
	// ErrDraftNotFound indicates a draft with the specified ID was not found.
	ErrDraftNotFound = errors.Wrap(errors.ErrNotFound, "draft not found")

	// ErrCampaignNotFound indicates a campaign with the specified ID was not found.
	ErrCampaignNotFound = errors.Wrap(errors.ErrNotFound, "campaign not found")

	// ErrClaimConflict indicates another worker already claimed the draft.
	// Non-fatal: the loser skips the draft and moves on.
	ErrClaimConflict = errors.Wrap(errors.ErrConflict, "draft already claimed")
)
