package listeners

import (
	"context"

	"go.uber.org/zap"

	"inventory-system/internal/events"
	"inventory-system/pkg/constants"
	"inventory-system/pkg/eventbus"
	"inventory-system/pkg/websocket"
)

// Notifier - то, что слушателю нужно от WebSocket-хаба.
type Notifier interface {
	BroadcastToStaff(messageType string, payload interface{}) (int, error)
	SendMessageToUser(userID uint64, messageType string, payload interface{}) (int, error)
}

var _ Notifier = (*websocket.Hub)(nil)

// WebSocketListener: перемещения оборудования уходят сотрудникам,
// смена статуса брони - ее автору.
type WebSocketListener struct {
	notifier Notifier
	logger   *zap.Logger
}

func NewWebSocketListener(notifier Notifier, logger *zap.Logger) *WebSocketListener {
	return &WebSocketListener{notifier: notifier, logger: logger}
}

func (l *WebSocketListener) Register(bus *eventbus.Bus) {
	bus.SubscribeAll([]string{constants.EventScanClassified, constants.EventReservationStatusChanged}, l.handle)
}

func (l *WebSocketListener) handle(_ context.Context, event eventbus.Event) error {
	var (
		sent int
		err  error
	)
	switch e := event.(type) {
	case events.ScanClassifiedEvent:
		sent, err = l.notifier.BroadcastToStaff(e.Name(), e)
	case events.ReservationStatusChangedEvent:
		sent, err = l.notifier.SendMessageToUser(e.RequesterID, e.Name(), e)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	l.logger.Debug("WebSocket: событие разослано", zap.String("event", event.Name()), zap.Int("recipients", sent))
	return nil
}
