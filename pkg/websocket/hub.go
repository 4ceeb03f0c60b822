package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub хранит подключенных клиентов и раздает им сообщения.
// Медленный клиент с переполненным буфером отключается, рассылка не блокируется.
type Hub struct {
	clients map[*Client]struct{}
	mu      sync.RWMutex
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("Клиент зарегистрирован", zap.Uint64("userID", c.UserID), zap.Bool("staff", c.Staff))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop вызывается под h.mu.
func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Send)
	h.logger.Info("Клиент отсоединен", zap.Uint64("userID", c.UserID))
}

// Count - число активных соединений.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encode(messageType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
}

// deliver отправляет сообщение всем клиентам, прошедшим match. Возвращает число получателей.
func (h *Hub) deliver(message []byte, match func(*Client) bool) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.Send <- message:
			sent++
		default:
			h.logger.Warn("WebSocket: буфер клиента переполнен, отключаем", zap.Uint64("userID", c.UserID))
			h.drop(c)
		}
	}
	return sent
}

func (h *Hub) BroadcastToStaff(messageType string, payload interface{}) (int, error) {
	message, err := encode(messageType, payload)
	if err != nil {
		return 0, err
	}
	return h.deliver(message, func(c *Client) bool { return c.Staff }), nil
}

func (h *Hub) SendMessageToUser(userID uint64, messageType string, payload interface{}) (int, error) {
	message, err := encode(messageType, payload)
	if err != nil {
		return 0, err
	}
	return h.deliver(message, func(c *Client) bool { return c.UserID == userID }), nil
}

// Close отключает всех клиентов при остановке сервера.
func (h *Hub) Close(_ context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.drop(c)
	}
}
