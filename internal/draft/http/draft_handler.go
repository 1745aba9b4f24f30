// Package http provides HTTP handlers for draft and delivery queue operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	deliveryUseCase "github.com/allisson/outreach/internal/delivery/usecase"
	"github.com/allisson/outreach/internal/draft/domain"
	"github.com/allisson/outreach/internal/draft/http/dto"
	draftUseCase "github.com/allisson/outreach/internal/draft/usecase"
	"github.com/allisson/outreach/internal/httputil"
	customValidation "github.com/allisson/outreach/internal/validation"
)

// DraftHandler handles HTTP requests for draft queue operations.
type DraftHandler struct {
	draftUseCase    draftUseCase.UseCase
	deliveryUseCase deliveryUseCase.UseCase
	logger          *slog.Logger
}

// NewDraftHandler creates a new draft handler with required dependencies.
func NewDraftHandler(
	draftUseCase draftUseCase.UseCase,
	deliveryUseCase deliveryUseCase.UseCase,
	logger *slog.Logger,
) *DraftHandler {
	return &DraftHandler{
		draftUseCase:    draftUseCase,
		deliveryUseCase: deliveryUseCase,
		logger:          logger,
	}
}

// CreateCampaignHandler creates a new campaign.
// POST /v1/campaigns
// Returns 201 Created with the campaign.
func (h *DraftHandler) CreateCampaignHandler(c *gin.Context) {
	var req dto.CreateCampaignRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	campaign, err := h.draftUseCase.CreateCampaign(c.Request.Context(), draftUseCase.CreateCampaignInput{
		Name: req.Name,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCampaignToResponse(campaign))
}

// CreateDraftHandler creates a new draft in the initial status.
// POST /v1/drafts
// Returns 201 Created with the draft.
func (h *DraftHandler) CreateDraftHandler(c *gin.Context) {
	var req dto.CreateDraftRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid campaign_id: %w", err), h.logger)
		return
	}

	draft, err := h.draftUseCase.CreateDraft(c.Request.Context(), draftUseCase.CreateDraftInput{
		CampaignID:       campaignID,
		RecipientAddress: req.RecipientAddress,
		Subject:          req.Subject,
		Body:             req.Body,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapDraftToResponse(draft))
}

// GetDraftHandler retrieves a draft by ID.
// GET /v1/drafts/:id
// Returns 200 OK with the draft.
func (h *DraftHandler) GetDraftHandler(c *gin.Context) {
	id, ok := h.parseDraftID(c)
	if !ok {
		return
	}

	draft, err := h.draftUseCase.GetDraft(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDraftToResponse(draft))
}

// ListDraftsHandler lists drafts with optional status and campaign filters.
// GET /v1/drafts?status=approved&campaign_id=...&offset=0&limit=50
// Returns 200 OK with a paginated list.
func (h *DraftHandler) ListDraftsHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	input := draftUseCase.ListDraftsInput{Offset: offset, Limit: limit}

	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.Status(statusStr)
		input.Status = &status
	}

	if campaignStr := c.Query("campaign_id"); campaignStr != "" {
		campaignID, err := uuid.Parse(campaignStr)
		if err != nil {
			httputil.HandleBadRequestGin(c, fmt.Errorf("invalid campaign_id: %w", err), h.logger)
			return
		}
		input.CampaignID = &campaignID
	}

	drafts, err := h.draftUseCase.ListDrafts(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDraftsToListResponse(drafts))
}

// ApproveDraftHandler clears a draft for sending.
// POST /v1/drafts/:id/approve
// Returns 200 OK with the approved draft.
func (h *DraftHandler) ApproveDraftHandler(c *gin.Context) {
	id, ok := h.parseDraftID(c)
	if !ok {
		return
	}

	draft, err := h.draftUseCase.ApproveDraft(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDraftToResponse(draft))
}

// CancelDraftHandler soft-deletes a draft.
// POST /v1/drafts/:id/cancel
// Returns 200 OK with the canceled draft. A draft mid-send returns 409; the
// in-flight attempt finishes first.
func (h *DraftHandler) CancelDraftHandler(c *gin.Context) {
	id, ok := h.parseDraftID(c)
	if !ok {
		return
	}

	draft, err := h.draftUseCase.CancelDraft(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDraftToResponse(draft))
}

// QueueStatsHandler returns per-status queue counts.
// GET /v1/queue/stats
// Returns 200 OK with the counts.
func (h *DraftHandler) QueueStatsHandler(c *gin.Context) {
	stats, err := h.draftUseCase.QueueStats(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQueueStatsToResponse(stats))
}

// ListDeliveriesHandler lists recent delivery log entries.
// GET /v1/deliveries?offset=0&limit=50
// Returns 200 OK with the entries, newest first.
func (h *DraftHandler) ListDeliveriesHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	entries, err := h.deliveryUseCase.ListRecent(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDeliveriesToListResponse(entries))
}

// ListDraftDeliveriesHandler lists the attempt history of one draft.
// GET /v1/drafts/:id/deliveries
// Returns 200 OK with the entries, oldest first.
func (h *DraftHandler) ListDraftDeliveriesHandler(c *gin.Context) {
	id, ok := h.parseDraftID(c)
	if !ok {
		return
	}

	// Surface 404 for unknown drafts instead of an empty history.
	if _, err := h.draftUseCase.GetDraft(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	entries, err := h.deliveryUseCase.ListByDraft(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDeliveriesToListResponse(entries))
}

func (h *DraftHandler) parseDraftID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid draft id: %w", err), h.logger)
		return uuid.Nil, false
	}
	return id, true
}
