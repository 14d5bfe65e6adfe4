package services

import (
	"context"
	"time"

	"github.com/Attique-dash/cjs-backend/src/logging"
	"github.com/rs/zerolog"
)

// TrackingEvent is a courier status update received over the webhook
// intake endpoint
type TrackingEvent struct {
	TrackingNumber string    `json:"tracking_number"`
	CourierCode    string    `json:"courier_code"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	ReceivedAt     time.Time `json:"received_at"`
}

// TrackingSink receives validated tracking events for downstream
// processing
type TrackingSink interface {
	RecordTrackingEvent(ctx context.Context, event TrackingEvent) error
}

// LogTrackingSink records tracking events to the structured log. The
// shipment pipeline consumes the same events from its own queue; this
// sink keeps the intake endpoint observable on its own.
type LogTrackingSink struct {
	logger zerolog.Logger
}

// NewLogTrackingSink creates a log-backed tracking sink
func NewLogTrackingSink() *LogTrackingSink {
	return &LogTrackingSink{logger: logging.NewLogger("tracking")}
}

// RecordTrackingEvent logs the event
func (s *LogTrackingSink) RecordTrackingEvent(_ context.Context, event TrackingEvent) error {
	s.logger.Info().
		Str("tracking_number", event.TrackingNumber).
		Str("courier_code", event.CourierCode).
		Str("status", event.Status).
		Str("source", event.Source).
		Msg("Tracking event received")
	return nil
}

var _ TrackingSink = (*LogTrackingSink)(nil)
