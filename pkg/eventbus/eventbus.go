package eventbus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event - любое доменное событие.
type Event interface {
	Name() string
}

// Listener - обработчик события.
type Listener func(ctx context.Context, event Event) error

// Bus - внутрипроцессная шина событий. Обработчики выполняются асинхронно,
// публикация никогда не блокирует транзакционный путь. Каждый подписчик
// получает события строго в порядке вызовов Publish.
type Bus struct {
	subscriptions map[string][]*subscription
	mu            sync.RWMutex
	wg            sync.WaitGroup
	timeout       time.Duration
	logger        *zap.Logger
}

// subscription - очередь одного подписчика. Очередь разбирает не больше одной горутины.
type subscription struct {
	listener Listener
	mu       sync.Mutex
	queue    []Event
	running  bool
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		subscriptions: make(map[string][]*subscription),
		timeout:       time.Minute,
		logger:        logger,
	}
}

// Subscribe регистрирует обработчик одного события.
func (b *Bus) Subscribe(eventName string, listener Listener) {
	b.SubscribeAll([]string{eventName}, listener)
}

// SubscribeAll регистрирует обработчик сразу на несколько событий с общей очередью:
// порядок сохраняется и между событиями разных типов.
func (b *Bus) SubscribeAll(eventNames []string, listener Listener) {
	sub := &subscription{listener: listener}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, name := range eventNames {
		b.subscriptions[name] = append(b.subscriptions[name], sub)
	}
}

// Publish ставит событие в очередь каждого подписчика.
// Контекст запроса не передается: обработчик не должен умирать вместе с HTTP-ответом.
func (b *Bus) Publish(_ context.Context, event Event) {
	b.mu.RLock()
	subs := append([]*subscription(nil), b.subscriptions[event.Name()]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.wg.Add(1)
		sub.mu.Lock()
		sub.queue = append(sub.queue, event)
		if !sub.running {
			sub.running = true
			go b.drain(sub)
		}
		sub.mu.Unlock()
	}
}

// drain разбирает очередь подписчика, пока она не опустеет.
func (b *Bus) drain(sub *subscription) {
	for {
		sub.mu.Lock()
		if len(sub.queue) == 0 {
			sub.running = false
			sub.mu.Unlock()
			return
		}
		event := sub.queue[0]
		sub.queue[0] = nil
		sub.queue = sub.queue[1:]
		sub.mu.Unlock()

		b.handle(sub.listener, event)
	}
}

func (b *Bus) handle(l Listener, event Event) {
	defer b.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if err := l(ctx, event); err != nil {
		b.logger.Error("Ошибка в обработчике события",
			zap.String("event", event.Name()),
			zap.Error(err),
		)
	}
}

// Wait дожидается обработки всех опубликованных событий. Используется при остановке сервиса.
func (b *Bus) Wait() {
	b.wg.Wait()
}
