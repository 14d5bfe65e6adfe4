package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Attique-dash/cjs-backend/src/middleware"
	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []services.TrackingEvent
	err    error
}

func (s *captureSink) RecordTrackingEvent(_ context.Context, event services.TrackingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func newWebhookTestRouter(t *testing.T, sink services.TrackingSink, source string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewWebhookHandler(sink)
	router := gin.New()
	router.POST("/webhooks/tracking", func(c *gin.Context) {
		c.Set(middleware.WebhookContextKey, &models.WebhookContext{
			KeyID:       uuid.New(),
			Source:      source,
			ValidatedAt: time.Now(),
		})
	}, handler.HandleTrackingWebhook)
	return router
}

func TestHandleTrackingWebhook(t *testing.T) {
	sink := &captureSink{}
	router := newWebhookTestRouter(t, sink, "KCD")

	w := doJSON(router, http.MethodPost, "/webhooks/tracking", TrackingWebhookRequest{
		TrackingNumber: "1Z999AA10123456784",
		Status:         "out_for_delivery",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "1Z999AA10123456784")

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, "KCD", event.Source)
	// Courier code defaults to the authenticated source when the payload
	// omits it
	assert.Equal(t, "KCD", event.CourierCode)
	assert.False(t, event.ReceivedAt.IsZero())
}

func TestHandleTrackingWebhookExplicitCourier(t *testing.T) {
	sink := &captureSink{}
	router := newWebhookTestRouter(t, sink, "partner")

	w := doJSON(router, http.MethodPost, "/webhooks/tracking", TrackingWebhookRequest{
		TrackingNumber: "TRK-1",
		CourierCode:    "ACME",
		Status:         "delivered",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "ACME", sink.events[0].CourierCode)
	assert.Equal(t, "partner", sink.events[0].Source)
}

func TestHandleTrackingWebhookBadPayload(t *testing.T) {
	sink := &captureSink{}
	router := newWebhookTestRouter(t, sink, "KCD")

	w := doJSON(router, http.MethodPost, "/webhooks/tracking", map[string]string{"status": "delivered"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, sink.events)
}

func TestHandleTrackingWebhookSinkFailure(t *testing.T) {
	sink := &captureSink{err: assert.AnError}
	router := newWebhookTestRouter(t, sink, "KCD")

	w := doJSON(router, http.MethodPost, "/webhooks/tracking", TrackingWebhookRequest{
		TrackingNumber: "TRK-2",
		Status:         "delivered",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
