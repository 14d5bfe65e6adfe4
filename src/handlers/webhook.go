package handlers

import (
	"net/http"
	"time"

	"github.com/Attique-dash/cjs-backend/src/middleware"
	"github.com/Attique-dash/cjs-backend/src/services"
	"github.com/gin-gonic/gin"
)

// WebhookHandler receives courier tracking callbacks
type WebhookHandler struct {
	sink services.TrackingSink
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(sink services.TrackingSink) *WebhookHandler {
	return &WebhookHandler{sink: sink}
}

// TrackingWebhookRequest is the payload couriers post on status change
type TrackingWebhookRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
	CourierCode    string `json:"courier_code"`
	Status         string `json:"status" binding:"required"`
}

// HandleTrackingWebhook accepts a tracking update from an authenticated
// partner. The event is handed to the sink and acknowledged immediately;
// couriers retry on anything but a 2xx.
func (wh *WebhookHandler) HandleTrackingWebhook(c *gin.Context) {
	wc, ok := middleware.GetWebhookContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": services.ErrCredentialMissing.Error()})
		return
	}

	var req TrackingWebhookRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tracking_number and status are required"})
		return
	}

	event := services.TrackingEvent{
		TrackingNumber: req.TrackingNumber,
		CourierCode:    req.CourierCode,
		Status:         req.Status,
		Source:         wc.Source,
		ReceivedAt:     time.Now(),
	}
	if event.CourierCode == "" {
		event.CourierCode = wc.Source
	}

	if err := wh.sink.RecordTrackingEvent(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record tracking event"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":          "accepted",
		"tracking_number": event.TrackingNumber,
	})
}
