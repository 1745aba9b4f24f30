package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	deliveryDomain "github.com/allisson/outreach/internal/delivery/domain"
	deliveryMocks "github.com/allisson/outreach/internal/delivery/usecase/mocks"
	"github.com/allisson/outreach/internal/draft/domain"
	"github.com/allisson/outreach/internal/draft/http/dto"
	draftUseCase "github.com/allisson/outreach/internal/draft/usecase"
	draftMocks "github.com/allisson/outreach/internal/draft/usecase/mocks"
	apperrors "github.com/allisson/outreach/internal/errors"
)

// setupTestDraftHandler creates a test handler with mocked dependencies.
func setupTestDraftHandler(t *testing.T) (*DraftHandler, *draftMocks.MockDraftUseCase, *deliveryMocks.MockDeliveryUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockDraftUseCase := draftMocks.NewMockDraftUseCase(t)
	mockDeliveryUseCase := deliveryMocks.NewMockDeliveryUseCase(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewDraftHandler(mockDraftUseCase, mockDeliveryUseCase, logger)

	return handler, mockDraftUseCase, mockDeliveryUseCase
}

func testDraft(status domain.Status) *domain.Draft {
	now := time.Now().UTC()
	return &domain.Draft{
		ID:               uuid.Must(uuid.NewV7()),
		CampaignID:       uuid.Must(uuid.NewV7()),
		RecipientAddress: "csr@example.com",
		Subject:          "Sponsorship opportunity",
		Body:             "Hello",
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestDraftHandler_CreateCampaignHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		campaignID := uuid.Must(uuid.NewV7())
		mockUseCase.On("CreateCampaign", mock.Anything, draftUseCase.CreateCampaignInput{Name: "summer-sponsors"}).
			Return(&domain.Campaign{ID: campaignID, Name: "summer-sponsors", CreatedAt: time.Now().UTC()}, nil)

		c, w := createTestContext(http.MethodPost, "/v1/campaigns", dto.CreateCampaignRequest{Name: "summer-sponsors"})

		handler.CreateCampaignHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.CampaignResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, campaignID.String(), response.ID)
		assert.Equal(t, "summer-sponsors", response.Name)
	})

	t.Run("ValidationError_MissingName", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/campaigns", dto.CreateCampaignRequest{})

		handler.CreateCampaignHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "CreateCampaign")
	})
}

func TestDraftHandler_CreateDraftHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		draft := testDraft(domain.StatusDraft)
		mockUseCase.On("CreateDraft", mock.Anything, draftUseCase.CreateDraftInput{
			CampaignID:       draft.CampaignID,
			RecipientAddress: "csr@example.com",
			Subject:          "Sponsorship opportunity",
			Body:             "Hello",
		}).Return(draft, nil)

		c, w := createTestContext(http.MethodPost, "/v1/drafts", dto.CreateDraftRequest{
			CampaignID:       draft.CampaignID.String(),
			RecipientAddress: "csr@example.com",
			Subject:          "Sponsorship opportunity",
			Body:             "Hello",
		})

		handler.CreateDraftHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.DraftResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, draft.ID.String(), response.ID)
		assert.Equal(t, "draft", response.Status)
		assert.Equal(t, 0, response.AttemptCount)
	})

	t.Run("ValidationError_MalformedRecipient", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/drafts", dto.CreateDraftRequest{
			CampaignID:       uuid.Must(uuid.NewV7()).String(),
			RecipientAddress: "not-an-email",
			Subject:          "Sponsorship opportunity",
			Body:             "Hello",
		})

		handler.CreateDraftHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "CreateDraft")
	})

	t.Run("ValidationError_InvalidCampaignID", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/drafts", dto.CreateDraftRequest{
			CampaignID:       "not-a-uuid",
			RecipientAddress: "csr@example.com",
			Subject:          "Sponsorship opportunity",
			Body:             "Hello",
		})

		handler.CreateDraftHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "CreateDraft")
	})

	t.Run("UnknownCampaign", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		campaignID := uuid.Must(uuid.NewV7())
		mockUseCase.On("CreateDraft", mock.Anything, mock.Anything).
			Return(nil, domain.ErrCampaignNotFound)

		c, w := createTestContext(http.MethodPost, "/v1/drafts", dto.CreateDraftRequest{
			CampaignID:       campaignID.String(),
			RecipientAddress: "csr@example.com",
			Subject:          "Sponsorship opportunity",
			Body:             "Hello",
		})

		handler.CreateDraftHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDraftHandler_GetDraftHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		draft := testDraft(domain.StatusApproved)
		mockUseCase.On("GetDraft", mock.Anything, draft.ID).Return(draft, nil)

		c, w := createTestContext(http.MethodGet, "/v1/drafts/"+draft.ID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: draft.ID.String()}}

		handler.GetDraftHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.DraftResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, draft.ID.String(), response.ID)
		assert.Equal(t, "approved", response.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("GetDraft", mock.Anything, id).Return(nil, domain.ErrDraftNotFound)

		c, w := createTestContext(http.MethodGet, "/v1/drafts/"+id.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.GetDraftHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/drafts/not-a-uuid", nil)
		c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

		handler.GetDraftHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "GetDraft")
	})
}

func TestDraftHandler_ListDraftsHandler(t *testing.T) {
	t.Run("Success_DefaultPagination", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		drafts := []*domain.Draft{testDraft(domain.StatusDraft), testDraft(domain.StatusApproved)}
		mockUseCase.On("ListDrafts", mock.Anything, draftUseCase.ListDraftsInput{Offset: 0, Limit: 50}).
			Return(drafts, nil)

		c, w := createTestContext(http.MethodGet, "/v1/drafts", nil)

		handler.ListDraftsHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListDraftsResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 2)
	})

	t.Run("Success_StatusFilter", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		status := domain.StatusFailed
		mockUseCase.On("ListDrafts", mock.Anything, draftUseCase.ListDraftsInput{
			Status: &status,
			Offset: 0,
			Limit:  50,
		}).Return([]*domain.Draft{}, nil)

		c, w := createTestContext(http.MethodGet, "/v1/drafts?status=failed", nil)

		handler.ListDraftsHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListDraftsResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Empty(t, response.Data)
	})

	t.Run("InvalidCampaignID", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/drafts?campaign_id=not-a-uuid", nil)

		handler.ListDraftsHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "ListDrafts")
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		mockUseCase.On("ListDrafts", mock.Anything, mock.Anything).
			Return(nil, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown status"))

		c, w := createTestContext(http.MethodGet, "/v1/drafts?status=bogus", nil)

		handler.ListDraftsHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestDraftHandler_ApproveDraftHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		draft := testDraft(domain.StatusApproved)
		mockUseCase.On("ApproveDraft", mock.Anything, draft.ID).Return(draft, nil)

		c, w := createTestContext(http.MethodPost, "/v1/drafts/"+draft.ID.String()+"/approve", nil)
		c.Params = gin.Params{{Key: "id", Value: draft.ID.String()}}

		handler.ApproveDraftHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.DraftResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "approved", response.Status)
	})

	t.Run("InvalidTransition", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("ApproveDraft", mock.Anything, id).
			Return(nil, apperrors.Wrap(apperrors.ErrInvalidTransition, "cannot approve draft in status sent"))

		c, w := createTestContext(http.MethodPost, "/v1/drafts/"+id.String()+"/approve", nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.ApproveDraftHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_transition")
	})
}

func TestDraftHandler_CancelDraftHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		draft := testDraft(domain.StatusCanceled)
		mockUseCase.On("CancelDraft", mock.Anything, draft.ID).Return(draft, nil)

		c, w := createTestContext(http.MethodPost, "/v1/drafts/"+draft.ID.String()+"/cancel", nil)
		c.Params = gin.Params{{Key: "id", Value: draft.ID.String()}}

		handler.CancelDraftHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.DraftResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "canceled", response.Status)
	})

	t.Run("MidSendReturnsConflict", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("CancelDraft", mock.Anything, id).
			Return(nil, apperrors.Wrap(apperrors.ErrInvalidTransition, "cannot cancel draft in status sending"))

		c, w := createTestContext(http.MethodPost, "/v1/drafts/"+id.String()+"/cancel", nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.CancelDraftHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_transition")
	})
}

func TestDraftHandler_QueueStatsHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		mockUseCase.On("QueueStats", mock.Anything).Return(&domain.QueueStats{
			PendingApproved: 4,
			Sending:         1,
			Sent:            20,
			Failed:          2,
			Canceled:        3,
		}, nil)

		c, w := createTestContext(http.MethodGet, "/v1/queue/stats", nil)

		handler.QueueStatsHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.QueueStatsResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, int64(4), response.PendingApproved)
		assert.Equal(t, int64(20), response.Sent)
	})

	t.Run("InternalError", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestDraftHandler(t)

		mockUseCase.On("QueueStats", mock.Anything).Return(nil, errors.New("database gone"))

		c, w := createTestContext(http.MethodGet, "/v1/queue/stats", nil)

		handler.QueueStatsHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "database gone")
	})
}

func TestDraftHandler_ListDeliveriesHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, _, mockDeliveryUseCase := setupTestDraftHandler(t)

		draftID := uuid.Must(uuid.NewV7())
		entries := []*deliveryDomain.LogEntry{
			{
				ID:        uuid.Must(uuid.NewV7()),
				DraftID:   draftID,
				Outcome:   deliveryDomain.OutcomeSent,
				MessageID: "<test@outreach.local>",
				CreatedAt: time.Now().UTC(),
			},
		}
		mockDeliveryUseCase.On("ListRecent", mock.Anything, 0, 50).Return(entries, nil)

		c, w := createTestContext(http.MethodGet, "/v1/deliveries", nil)

		handler.ListDeliveriesHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListDeliveriesResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 1)
		assert.Equal(t, "sent", response.Data[0].Outcome)
	})
}

func TestDraftHandler_ListDraftDeliveriesHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase, mockDeliveryUseCase := setupTestDraftHandler(t)

		draft := testDraft(domain.StatusSent)
		mockUseCase.On("GetDraft", mock.Anything, draft.ID).Return(draft, nil)

		entries := []*deliveryDomain.LogEntry{
			{
				ID:        uuid.Must(uuid.NewV7()),
				DraftID:   draft.ID,
				Outcome:   deliveryDomain.OutcomeFailed,
				Detail:    "transient relay error",
				MessageID: "<test@outreach.local>",
				CreatedAt: time.Now().UTC(),
			},
			{
				ID:        uuid.Must(uuid.NewV7()),
				DraftID:   draft.ID,
				Outcome:   deliveryDomain.OutcomeSent,
				MessageID: "<test@outreach.local>",
				CreatedAt: time.Now().UTC(),
			},
		}
		mockDeliveryUseCase.On("ListByDraft", mock.Anything, draft.ID).Return(entries, nil)

		c, w := createTestContext(http.MethodGet, "/v1/drafts/"+draft.ID.String()+"/deliveries", nil)
		c.Params = gin.Params{{Key: "id", Value: draft.ID.String()}}

		handler.ListDraftDeliveriesHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListDeliveriesResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 2)
		assert.Equal(t, "failed", response.Data[0].Outcome)
		assert.Equal(t, "sent", response.Data[1].Outcome)
	})

	t.Run("UnknownDraftReturnsNotFound", func(t *testing.T) {
		handler, mockUseCase, mockDeliveryUseCase := setupTestDraftHandler(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("GetDraft", mock.Anything, id).Return(nil, domain.ErrDraftNotFound)

		c, w := createTestContext(http.MethodGet, "/v1/drafts/"+id.String()+"/deliveries", nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.ListDraftDeliveriesHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockDeliveryUseCase.AssertNotCalled(t, "ListByDraft")
	})
}
