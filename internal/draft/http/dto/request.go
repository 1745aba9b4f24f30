// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/allisson/outreach/internal/validation"
)

// CreateCampaignRequest represents the payload for campaign creation.
type CreateCampaignRequest struct {
	Name string `json:"name"`
}

// Validate validates the campaign creation request.
func (r CreateCampaignRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
	)
}

// CreateDraftRequest represents the payload for draft creation.
type CreateDraftRequest struct {
	CampaignID       string `json:"campaign_id"`
	RecipientAddress string `json:"recipient_address"`
	Subject          string `json:"subject"`
	Body             string `json:"body"`
}

// Validate validates the draft creation request.
func (r CreateDraftRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CampaignID,
			validation.Required.Error("campaign_id is required"),
			validation.Length(36, 36).Error("campaign_id must be a UUID"),
		),
		validation.Field(&r.RecipientAddress,
			validation.Required.Error("recipient_address is required"),
			appValidation.EmailAddress,
		),
		validation.Field(&r.Subject,
			validation.Required.Error("subject is required"),
			validation.Length(1, 998).Error("subject must be between 1 and 998 characters"),
		),
		validation.Field(&r.Body,
			validation.Required.Error("body is required"),
		),
	)
}
