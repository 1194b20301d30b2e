package slots

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"partyroom/internal/pkg/response"
)

type Handler struct {
	service  *Service
	fakeBusy FakeBusy
}

func NewHandler(service *Service, fakeBusy FakeBusy) *Handler {
	return &Handler{service: service, fakeBusy: fakeBusy}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/slots", h.GetSlots)
}

func (h *Handler) GetSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Date is required")
		return
	}

	slots, err := h.service.SlotsFor(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date format")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch slots")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"slots": h.fakeBusy.Apply(date, slots)})
}
