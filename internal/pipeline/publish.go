package pipeline

import (
	"context"
	"time"

	"github.com/couchcryptid/delivery-eta-service/internal/domain"
)

const maxPublishAttempts = 3

// enqueue hands an event to the publish loop without blocking the request.
// A full queue drops the event.
func (e *Estimator) enqueue(event domain.PredictionEvent) {
	if e.events == nil {
		return
	}
	select {
	case e.events <- event:
	default:
		e.metrics.PublishErrors.Inc()
		e.logger.Warn("prediction event queue full, dropping event", "id", event.ID)
	}
}

// Run publishes queued prediction events in batches until the context is
// cancelled. It returns immediately when publishing is disabled.
func (e *Estimator) Run(ctx context.Context) error {
	if e.publisher == nil {
		e.logger.Info("prediction event publishing disabled")
		return nil
	}
	e.logger.Info("prediction publisher started", "batch_size", e.batchSize)

	for {
		batch, ok := e.nextBatch(ctx)
		if !ok {
			e.logger.Info("prediction publisher stopping", "reason", ctx.Err(), "pending", len(e.events))
			return nil
		}
		if !e.publishBatch(ctx, batch) {
			return nil
		}
	}
}

// nextBatch blocks for one event, then takes whatever else is queued up to
// the batch size. Returns false when the context is done.
func (e *Estimator) nextBatch(ctx context.Context) ([]domain.PredictionEvent, bool) {
	var first domain.PredictionEvent
	select {
	case <-ctx.Done():
		return nil, false
	case first = <-e.events:
	}

	batch := make([]domain.PredictionEvent, 1, e.batchSize)
	batch[0] = first
	for len(batch) < e.batchSize {
		select {
		case ev := <-e.events:
			batch = append(batch, ev)
		default:
			return batch, true
		}
	}
	return batch, true
}

// publishBatch retries with exponential backoff and drops the batch after
// maxPublishAttempts. Returns false if the loop should stop.
func (e *Estimator) publishBatch(ctx context.Context, batch []domain.PredictionEvent) bool {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for attempt := 1; ; attempt++ {
		err := e.publisher.PublishBatch(ctx, batch)
		if err == nil {
			e.metrics.EventsPublished.Add(float64(len(batch)))
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		e.logger.Error("publish prediction events failed",
			"error", err,
			"batch_size", len(batch),
			"attempt", attempt,
		)
		if attempt == maxPublishAttempts {
			e.metrics.PublishErrors.Add(float64(len(batch)))
			return true
		}
		if !sleepWithContext(ctx, backoff) {
			return false
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
