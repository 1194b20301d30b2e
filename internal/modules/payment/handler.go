package payment

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"partyroom/internal/modules/booking"
	"partyroom/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout", h.Checkout)
	rg.POST("/topup", h.Topup)
}

func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/webhook", h.Webhook)
}

func (h *Handler) Checkout(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing principal")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	resp, err := h.service.CreateBookingCheckout(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation), errors.Is(err, booking.ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date or start hour")
		case errors.Is(err, booking.ErrPastSlot):
			response.Error(c, http.StatusBadRequest, "INVALID_STATE", "Slot is in the past")
		case errors.Is(err, booking.ErrSlotConflict):
			response.Error(c, http.StatusConflict, "SLOT_CONFLICT", "This time slot is no longer available")
		case errors.Is(err, ErrExternalService):
			response.Error(c, http.StatusInternalServerError, "EXTERNAL_SERVICE_ERROR", "Failed to create checkout session")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create checkout session")
		}
		return
	}

	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) Topup(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing principal")
		return
	}

	var req TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	resp, err := h.service.CreateTopupCheckout(c.Request.Context(), userID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrMinTopup):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Minimum top up is 10000")
		case errors.Is(err, ErrExternalService):
			response.Error(c, http.StatusInternalServerError, "EXTERNAL_SERVICE_ERROR", "Failed to create checkout session")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create checkout session")
		}
		return
	}

	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unreadable payload")
		return
	}

	err = h.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Webhook-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignature):
			response.Error(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Signature verification failed")
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed event payload")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process event")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"received": true})
}
