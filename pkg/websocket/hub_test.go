package websocket

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_Routing(t *testing.T) {
	hub := NewHub(zap.NewNop())
	student := NewClient(hub, nil, 1, false)
	faculty := NewClient(hub, nil, 2, true)
	admin := NewClient(hub, nil, 3, true)
	for _, c := range []*Client{student, faculty, admin} {
		hub.Register(c)
	}
	require.Equal(t, 3, hub.Count())

	sent, err := hub.BroadcastToStaff("scan.classified", map[string]string{"tag_id": "001A"})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, student.Send, 0)
	require.Len(t, faculty.Send, 1)

	var env struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(<-faculty.Send, &env))
	assert.Equal(t, "scan.classified", env.Type)
	assert.Equal(t, "001A", env.Payload["tag_id"])

	sent, err = hub.SendMessageToUser(1, "reservation.status_changed", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, student.Send, 1)

	sent, err = hub.SendMessageToUser(42, "reservation.status_changed", nil)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	slow := NewClient(hub, nil, 1, true)
	hub.Register(slow)

	for i := 0; i < cap(slow.Send); i++ {
		_, err := hub.BroadcastToStaff("ping", i)
		require.NoError(t, err)
	}
	sent, err := hub.BroadcastToStaff("ping", "overflow")
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, hub.Count())

	// повторный Unregister безопасен: канал уже закрыт
	hub.Unregister(slow)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := NewClient(hub, nil, 1, false)
	hub.Register(c)

	hub.Close(context.Background())
	assert.Zero(t, hub.Count())
	_, ok := <-c.Send
	assert.False(t, ok, "канал клиента закрыт")
}
