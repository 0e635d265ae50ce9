package events

import (
	"context"

	"go.uber.org/zap"
)

// LogEvents drains a subscription and logs every event until ctx is
// canceled or the channel is closed. Run it in its own goroutine.
func LogEvents(ctx context.Context, logger *zap.Logger, ch <-chan Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-ch:
			if !ok {
				return
			}
			logger.Info("Event",
				zap.String("event_type", env.Event.EventType()),
				zap.String("event_id", env.ID.String()),
				zap.Time("occurred_at", env.OccurredAt),
				zap.Any("payload", env.Event),
			)
		}
	}
}
