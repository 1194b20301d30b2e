package tracking

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"partyroom/internal/pkg/response"
)

type Handler struct {
	service *Service
	loggerf func(format string, args ...interface{})
}

func NewHandler(service *Service, loggerf func(format string, args ...interface{})) *Handler {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Handler{service: service, loggerf: loggerf}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tracking/sessions", h.StartSession)
	rg.PUT("/tracking/sessions/link", h.LinkSession)
	rg.POST("/tracking/events", h.RecordEvent)
}

func (h *Handler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "visitor_id is required")
		return
	}

	session, err := h.service.StartSession(c.Request.Context(), req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.loggerf("level=warn msg=tracking session upsert failed visitor_id=%s err=%v", req.VisitorID, err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record session")
		return
	}

	response.Success(c, http.StatusOK, session)
}

func (h *Handler) LinkSession(c *gin.Context) {
	var req LinkSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "visitor_id and user_id are required")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "user_id must be a UUID")
		return
	}

	if err := h.service.LinkUser(c.Request.Context(), req.VisitorID, userID); err != nil {
		h.loggerf("level=warn msg=tracking session link failed visitor_id=%s err=%v", req.VisitorID, err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to link session")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"linked": true})
}

func (h *Handler) RecordEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "visitor_id and event_type are required")
		return
	}

	if err := h.service.RecordEvent(c.Request.Context(), req); err != nil {
		h.loggerf("level=warn msg=tracking event insert failed visitor_id=%s err=%v", req.VisitorID, err)
	}

	// Analytics must never surface a failure to the caller's flow.
	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}
