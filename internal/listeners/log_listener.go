package listeners

import (
	"context"

	"go.uber.org/zap"

	"inventory-system/internal/events"
	"inventory-system/pkg/eventbus"
)

// LogListener - замена Kafka, когда она выключена: события просто попадают в лог.
type LogListener struct {
	logger *zap.Logger
}

func NewLogListener(logger *zap.Logger) *LogListener {
	return &LogListener{logger: logger}
}

func (l *LogListener) Register(bus *eventbus.Bus) {
	bus.SubscribeAll(events.All, l.handle)
}

func (l *LogListener) handle(_ context.Context, event eventbus.Event) error {
	l.logger.Info("Доменное событие",
		zap.String("event", event.Name()),
		zap.String("partitionKey", partitionKey(event)),
		zap.Any("payload", event),
	)
	return nil
}
