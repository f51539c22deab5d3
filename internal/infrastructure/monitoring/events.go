package monitoring

import (
	"context"

	"github.com/foodtrack/api/internal/domain/shared"
	"go.uber.org/zap"
)

// EventLogger publishes domain events to the structured log and counts them.
// Handlers subscribed with Subscribe run synchronously after logging; their
// failures are logged and never reach the publisher's caller.
type EventLogger struct {
	logger   *zap.Logger
	metrics  *Metrics
	handlers map[string][]shared.EventHandler
}

// NewEventLogger creates an event publisher; metrics may be nil
func NewEventLogger(logger *zap.Logger, metrics *Metrics) *EventLogger {
	return &EventLogger{
		logger:   logger.Named("events"),
		metrics:  metrics,
		handlers: make(map[string][]shared.EventHandler),
	}
}

// Subscribe registers handler for events named name. It must be called
// before the publisher is shared.
func (p *EventLogger) Subscribe(name string, handler shared.EventHandler) {
	p.handlers[name] = append(p.handlers[name], handler)
}

// Publish implements outbound.EventPublisher
func (p *EventLogger) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		p.logger.Info("Domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
			zap.String("trace_id", TraceIDFromContext(ctx)),
			zap.Any("payload", event),
		)
		if p.metrics != nil {
			p.metrics.EventPublished(event.EventName())
		}

		for _, handle := range p.handlers[event.EventName()] {
			if err := handle(event); err != nil {
				p.logger.Error("Event handler failed",
					zap.String("event", event.EventName()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}
