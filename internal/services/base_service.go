package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"inventory-system/pkg/eventbus"
	apperrors "inventory-system/pkg/errors"
)

// DefaultConflictRetries - сколько раз повторяется транзакция, проигравшая гонку.
const DefaultConflictRetries = 3

// EventPublisher - то, что сервисам нужно от шины событий.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, eventbus.Event) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// withConflictRetry повторяет fn, пока она возвращает ErrConflict, но не больше attempts раз.
// Каждая попытка заново читает данные и заново проверяет все правила.
// Если гонка не ушла, вызывающий получает ValidationError, которая по-прежнему errors.Is(ErrConflict).
func withConflictRetry(ctx context.Context, logger *zap.Logger, attempts int, op string, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !apperrors.IsConflict(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(ctxErr, err)
		}
		logger.Warn("Конфликт параллельного изменения, повтор",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max", attempts),
			zap.Error(err),
		)
	}
	return &apperrors.ValidationError{
		Reason:  apperrors.ReasonConcurrentModification,
		Message: "Данные одновременно меняются другим запросом, повторите попытку",
		Err:     err,
	}
}
