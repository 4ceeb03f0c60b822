package listeners

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"inventory-system/internal/events"
	"inventory-system/pkg/config"
	"inventory-system/pkg/eventbus"
)

// NewKafkaProducer создает синхронный идемпотентный продюсер.
func NewKafkaProducer(cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = cfg.Retries
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать Kafka-продюсер: %w", err)
	}
	return producer, nil
}

// KafkaListener пересылает доменные события из шины в один топик Kafka.
// Ключ партиции - бронь или метка. Шина отдает события подписчику в порядке публикации,
// а SendMessage синхронный, поэтому события одного объекта попадают в партицию по порядку.
type KafkaListener struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func NewKafkaListener(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaListener {
	return &KafkaListener{producer: producer, topic: topic, logger: logger}
}

func (l *KafkaListener) Register(bus *eventbus.Bus) {
	bus.SubscribeAll(events.All, l.handle)
	l.logger.Info("KafkaListener подписан на доменные события", zap.String("topic", l.topic))
}

func (l *KafkaListener) handle(ctx context.Context, event eventbus.Event) error {
	msg, err := buildMessage(l.topic, event)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	partition, offset, err := l.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("отправка %s в Kafka: %w", event.Name(), err)
	}
	l.logger.Debug("Событие отправлено в Kafka",
		zap.String("event", event.Name()),
		zap.String("topic", l.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func buildMessage(topic string, event eventbus.Event) (*sarama.ProducerMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("сериализация события %s: %w", event.Name(), err)
	}

	eventID := ""
	if m, ok := eventMeta(event); ok {
		eventID = m.EventID
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.Name())},
			{Key: []byte("event-id"), Value: []byte(eventID)},
			{Key: []byte("timestamp"), Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}
	if key := partitionKey(event); key != "" {
		msg.Key = sarama.StringEncoder(key)
	}
	return msg, nil
}

func eventMeta(event eventbus.Event) (events.Meta, bool) {
	switch e := event.(type) {
	case events.ReservationCreatedEvent:
		return e.Meta, true
	case events.ReservationStatusChangedEvent:
		return e.Meta, true
	case events.ScanClassifiedEvent:
		return e.Meta, true
	case events.TagAssignedEvent:
		return e.Meta, true
	}
	return events.Meta{}, false
}

func partitionKey(event eventbus.Event) string {
	switch e := event.(type) {
	case events.ReservationCreatedEvent:
		return "reservation:" + strconv.FormatUint(e.ReservationID, 10)
	case events.ReservationStatusChangedEvent:
		return "reservation:" + strconv.FormatUint(e.ReservationID, 10)
	case events.ScanClassifiedEvent:
		return "tag:" + e.TagID
	case events.TagAssignedEvent:
		return "tag:" + e.TagID
	}
	return ""
}
