package dto

import (
	"time"

	deliveryDomain "github.com/allisson/outreach/internal/delivery/domain"
	"github.com/allisson/outreach/internal/draft/domain"
)

// CampaignResponse represents a campaign in API responses.
type CampaignResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// MapCampaignToResponse converts a domain campaign to a response.
func MapCampaignToResponse(campaign *domain.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:        campaign.ID.String(),
		Name:      campaign.Name,
		CreatedAt: campaign.CreatedAt,
	}
}

// DraftResponse represents a draft in API responses.
type DraftResponse struct {
	ID               string     `json:"id"`
	CampaignID       string     `json:"campaign_id"`
	RecipientAddress string     `json:"recipient_address"`
	Subject          string     `json:"subject"`
	Body             string     `json:"body"`
	Status           string     `json:"status"`
	AttemptCount     int        `json:"attempt_count"`
	FailureReason    *string    `json:"failure_reason,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	RetryAt          *time.Time `json:"retry_at,omitempty"`
	LastAttemptAt    *time.Time `json:"last_attempt_at,omitempty"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// MapDraftToResponse converts a domain draft to a response.
func MapDraftToResponse(draft *domain.Draft) DraftResponse {
	return DraftResponse{
		ID:               draft.ID.String(),
		CampaignID:       draft.CampaignID.String(),
		RecipientAddress: draft.RecipientAddress,
		Subject:          draft.Subject,
		Body:             draft.Body,
		Status:           string(draft.Status),
		AttemptCount:     draft.AttemptCount,
		FailureReason:    draft.FailureReason,
		ApprovedAt:       draft.ApprovedAt,
		RetryAt:          draft.RetryAt,
		LastAttemptAt:    draft.LastAttemptAt,
		SentAt:           draft.SentAt,
		CreatedAt:        draft.CreatedAt,
		UpdatedAt:        draft.UpdatedAt,
	}
}

// ListDraftsResponse represents a paginated list of drafts in API responses.
type ListDraftsResponse struct {
	Data []DraftResponse `json:"data"`
}

// MapDraftsToListResponse converts a slice of domain drafts to a list response.
func MapDraftsToListResponse(drafts []*domain.Draft) ListDraftsResponse {
	data := make([]DraftResponse, 0, len(drafts))
	for _, draft := range drafts {
		data = append(data, MapDraftToResponse(draft))
	}
	return ListDraftsResponse{Data: data}
}

// QueueStatsResponse represents queue counts in API responses.
type QueueStatsResponse struct {
	PendingApproved int64 `json:"pending_approved"`
	Sending         int64 `json:"sending"`
	Sent            int64 `json:"sent"`
	Failed          int64 `json:"failed"`
	Canceled        int64 `json:"canceled"`
}

// MapQueueStatsToResponse converts domain queue stats to a response.
func MapQueueStatsToResponse(stats *domain.QueueStats) QueueStatsResponse {
	return QueueStatsResponse{
		PendingApproved: stats.PendingApproved,
		Sending:         stats.Sending,
		Sent:            stats.Sent,
		Failed:          stats.Failed,
		Canceled:        stats.Canceled,
	}
}

// DeliveryLogEntryResponse represents one delivery log entry in API responses.
type DeliveryLogEntryResponse struct {
	ID        string    `json:"id"`
	DraftID   string    `json:"draft_id"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	MessageID string    `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ListDeliveriesResponse represents a list of delivery log entries.
type ListDeliveriesResponse struct {
	Data []DeliveryLogEntryResponse `json:"data"`
}

// MapDeliveriesToListResponse converts delivery log entries to a list response.
func MapDeliveriesToListResponse(entries []*deliveryDomain.LogEntry) ListDeliveriesResponse {
	data := make([]DeliveryLogEntryResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, DeliveryLogEntryResponse{
			ID:        entry.ID.String(),
			DraftID:   entry.DraftID.String(),
			Outcome:   string(entry.Outcome),
			Detail:    entry.Detail,
			MessageID: entry.MessageID,
			CreatedAt: entry.CreatedAt,
		})
	}
	return ListDeliveriesResponse{Data: data}
}
