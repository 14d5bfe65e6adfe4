package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Attique-dash/cjs-backend/src/logging"
	"github.com/Attique-dash/cjs-backend/src/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UsageRecorder updates usage counters off the request path. Semantics
// are at-least-once and never blocking the response: a use is queued
// before the handler returns, the storage write happens on a background
// worker, and a write failure is logged and swallowed rather than
// failing the wrapping request.
type UsageRecorder struct {
	repo     repositories.KeyRepository
	queue    chan uuid.UUID
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	pending  atomic.Int64
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewUsageRecorder creates a recorder with the given queue capacity
func NewUsageRecorder(repo repositories.KeyRepository, buffer int) *UsageRecorder {
	if buffer <= 0 {
		buffer = 1024
	}
	return &UsageRecorder{
		repo:    repo,
		queue:   make(chan uuid.UUID, buffer),
		stopCh:  make(chan struct{}),
		timeout: 5 * time.Second,
		logger:  logging.NewLogger("usage_recorder"),
	}
}

// Start launches the background worker
func (ur *UsageRecorder) Start() {
	ur.wg.Add(1)
	go ur.loop()
}

// Record queues exactly one usage update for the key. The send blocks
// if the queue is full so updates are never silently dropped under
// load; the queue is sized to make that a back-pressure edge case.
func (ur *UsageRecorder) Record(keyID uuid.UUID) {
	ur.pending.Add(1)
	select {
	case ur.queue <- keyID:
	case <-ur.stopCh:
		ur.pending.Add(-1)
	}
}

// Stop drains the queue and stops the worker. Safe to call more than
// once.
func (ur *UsageRecorder) Stop() {
	ur.stopOnce.Do(func() {
		close(ur.stopCh)
	})
	ur.wg.Wait()
}

func (ur *UsageRecorder) loop() {
	defer ur.wg.Done()

	for {
		select {
		case keyID := <-ur.queue:
			ur.flush(keyID)
		case <-ur.stopCh:
			// Drain whatever was queued before shutdown
			for {
				select {
				case keyID := <-ur.queue:
					ur.flush(keyID)
				default:
					return
				}
			}
		}
	}
}

func (ur *UsageRecorder) flush(keyID uuid.UUID) {
	defer ur.pending.Add(-1)

	ctx, cancel := context.WithTimeout(context.Background(), ur.timeout)
	defer cancel()

	if err := ur.repo.IncrementUsage(ctx, keyID); err != nil {
		ur.logger.Error().
			Err(err).
			Str("key_id", keyID.String()).
			Msg("usage update failed, count may undercount")
	}
}

// Wait blocks until every queued update has been written, for tests
// and graceful shutdown
func (ur *UsageRecorder) Wait() {
	for ur.pending.Load() > 0 {
		time.Sleep(time.Millisecond)
	}
}
