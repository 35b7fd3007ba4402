package assessments

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobmatch-backend/internal/candidates"
	"jobmatch-backend/internal/notify"
	"jobmatch-backend/internal/shared/metrics"
	"jobmatch-backend/internal/shared/server/respond"
	"jobmatch-backend/internal/shared/telemetry"
)

// Vendor is the slice of the vendor API the webhook needs.
type Vendor interface {
	AssessmentDescription(ctx context.Context, assessmentID string) (string, error)
}

// Handler serves the vendor's completion webhook.
type Handler struct {
	Aggregator   *Aggregator
	Vendor       Vendor
	WebhookToken string
}

// NewHandler constructs a Handler.
func NewHandler(agg *Aggregator, vendor Vendor, token string) *Handler {
	return &Handler{Aggregator: agg, Vendor: vendor, WebhookToken: token}
}

// RegisterRoutes attaches webhook routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/assessments/completed", h.completed)
}

type webhookPayload struct {
	Type               *string  `json:"type"`
	Event              *string  `json:"event"`
	AssessmentID       string   `json:"assessmentId"`
	Email              string   `json:"email"`
	AvgScorePercentage *float64 `json:"avgScorePercentage"`
}

func (h *Handler) completed(c *gin.Context) {
	metrics.IncWebhookReceived()

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		metrics.IncWebhookRejected()
		respond.WebhookReason(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Subscription handshakes arrive without type or event markers and are
	// acknowledged without further processing.
	if payload.Type == nil && payload.Event == nil {
		respond.WebhookData(c, http.StatusOK, "acknowledged")
		return
	}

	if h.WebhookToken != "" {
		got := c.GetHeader("X-Webhook-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookToken)) != 1 {
			metrics.IncWebhookRejected()
			respond.WebhookReason(c, http.StatusUnauthorized, "invalid webhook token")
			return
		}
	}

	assessmentID := strings.TrimSpace(payload.AssessmentID)
	if assessmentID == "" {
		metrics.IncWebhookRejected()
		respond.WebhookReason(c, http.StatusBadRequest, "assessmentId is required")
		return
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" {
		metrics.IncWebhookRejected()
		respond.WebhookReason(c, http.StatusBadRequest, "email is required")
		return
	}
	var score float64
	if payload.AvgScorePercentage != nil {
		score = *payload.AvgScorePercentage
	}

	c.Set("assessment_id", assessmentID)
	ctx := c.Request.Context()

	description, err := h.Vendor.AssessmentDescription(ctx, assessmentID)
	if err != nil {
		telemetry.Error("webhook.vendor_lookup_failed", map[string]any{
			"assessment_id": assessmentID,
			"error":         err.Error(),
		})
		metrics.IncWebhookRejected()
		respond.WebhookReason(c, HTTPStatus(err), "assessment vendor error")
		return
	}

	cand, err := h.Aggregator.Repo.GetByEmailAndRequisitionTitle(ctx, email, description)
	if err != nil {
		if errors.Is(err, candidates.ErrNotFound) {
			metrics.IncWebhookRejected()
			respond.WebhookReason(c, http.StatusNotFound, "candidate not found")
			return
		}
		respond.WebhookReason(c, http.StatusInternalServerError, "candidate lookup failed")
		return
	}
	c.Set("candidate_id", cand.ID)

	// The vendor description is the job title used for the lookup above, not
	// an assessment name; rows created here carry no name.
	if err := h.Aggregator.ProcessCompletion(ctx, cand, description, assessmentID, "", score); err != nil {
		switch {
		case errors.Is(err, notify.ErrNoRecipient):
			metrics.IncWebhookRejected()
			respond.WebhookReason(c, http.StatusNotFound, "rejection notice recipient missing")
		case errors.Is(err, candidates.ErrNotFound):
			metrics.IncWebhookRejected()
			respond.WebhookReason(c, http.StatusNotFound, "candidate not found")
		default:
			telemetry.Error("webhook.completion_failed", map[string]any{
				"candidate_id":  cand.ID,
				"assessment_id": assessmentID,
				"error":         err.Error(),
			})
			respond.WebhookReason(c, http.StatusInternalServerError, "failed to record completion")
		}
		return
	}

	respond.WebhookData(c, http.StatusOK, gin.H{
		"candidateId":  cand.ID,
		"assessmentId": assessmentID,
	})
}
