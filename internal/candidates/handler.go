package candidates

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobmatch-backend/internal/requisitions"
	"jobmatch-backend/internal/shared/server/middleware"
	"jobmatch-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches candidate routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/candidates", h.intake)
	rg.POST("/candidates/:id/evaluate", h.evaluate)
	rg.GET("/candidates/:id", h.get)
}

func (h *Handler) intake(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("resume")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resume file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read resume file", nil)
		return
	}
	defer file.Close()

	in := IntakeInput{
		RequisitionID: c.PostForm("requisitionId"),
		Email:         c.PostForm("email"),
		FirstName:     c.PostForm("firstName"),
		LastName:      c.PostForm("lastName"),
		FileName:      fileHeader.Filename,
		Resume:        file,
	}

	cand, err := h.Svc.Intake(c.Request.Context(), in, middleware.RequestIDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "requisitionId and email are required", nil)
		case errors.Is(err, requisitions.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "requisition not found", nil)
		case errors.Is(err, ErrDuplicate):
			respond.Error(c, http.StatusConflict, "duplicate_application", "an application already exists for this email and requisition", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create candidate", nil)
		}
		return
	}

	c.Set("candidate_id", cand.ID)
	respond.JSON(c, http.StatusCreated, toResponse(cand, nil))
}

type evaluateRequest struct {
	Force bool `json:"force"`
}

func (h *Handler) evaluate(c *gin.Context) {
	id := c.Param("id")

	var req evaluateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	if c.Query("force") == "true" {
		req.Force = true
	}

	err := h.Svc.RequestEvaluation(c.Request.Context(), id, req.Force, middleware.RequestIDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "candidate not found", nil)
		case errors.Is(err, ErrNoResume):
			respond.Error(c, http.StatusConflict, "no_resume", "candidate has no resume attachment", nil)
		case errors.Is(err, ErrEvaluationInProgress):
			respond.Error(c, http.StatusConflict, "evaluation_in_progress", "an evaluation is already running", nil)
		case errors.Is(err, ErrCooldown):
			respond.Error(c, http.StatusTooManyRequests, "cooldown_active", "retry requested before the cooldown expired", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to enqueue evaluation", nil)
		}
		return
	}

	c.Set("candidate_id", id)
	respond.JSON(c, http.StatusAccepted, gin.H{"candidateId": id, "enqueued": true})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")

	cand, records, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "candidate not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch candidate", nil)
		}
		return
	}

	c.Set("candidate_id", id)
	respond.OK(c, toResponse(cand, records))
}
