package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/skillsenselab/scribe/errors"
	"github.com/skillsenselab/scribe/scribe"
	"github.com/skillsenselab/scribe/server"
	"github.com/skillsenselab/scribe/validation"
)

// Handler exposes the transcription service over HTTP.
type Handler struct {
	svc *scribe.Service
}

// NewHandler creates the API handler around the service facade.
func NewHandler(svc *scribe.Service) *Handler {
	return &Handler{svc: svc}
}

// Submit handles POST /transcribe.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("request body must be valid JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		server.RespondWithError(c, err)
		return
	}
	callID, err := validation.ValidateUUID("call_id", req.CallID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	job, err := h.svc.Submit(callID, req.AudioPath, req.Options(), req.CallbackURL, req.Priority)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	server.RespondAccepted(c, SubmitResponse{
		RequestID:     job.ID,
		CallID:        job.CallID,
		Status:        string(scribe.StatusPending),
		QueuePosition: h.svc.Stats().QueueDepth,
	})
}

// Status handles GET /status/:id.
func (h *Handler) Status(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}
	status, err := h.svc.Status(id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, StatusResponse{RequestID: id, Status: string(status)})
}

// Result handles GET /result/:id.
func (h *Handler) Result(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}
	res, err := h.svc.Result(id)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrCodeNotReady {
			// Pollers get the current state back so they know to keep waiting.
			status, serr := h.svc.Status(id)
			if serr == nil {
				server.RespondAccepted(c, StatusResponse{RequestID: id, Status: string(status)})
				return
			}
		}
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, res)
}

// Cancel handles DELETE /cancel/:id.
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}
	if err := h.svc.Cancel(id); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, StatusResponse{RequestID: id, Status: string(scribe.StatusCancelled)})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health(c.Request.Context()))
}

// Stats handles GET /stats.
func (h *Handler) Stats(c *gin.Context) {
	server.RespondOK(c, h.svc.Stats())
}

func (h *Handler) jobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := validation.ValidateUUID("id", c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return uuid.Nil, false
	}
	return id, true
}
