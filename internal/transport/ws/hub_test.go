package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Stop()

	a := &Connection{Send: make(chan []byte, 4), Hub: hub}
	b := &Connection{Send: make(chan []byte, 4), Hub: hub}
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast("instance_sent", map[string]string{"id": "inst-1"})

	for _, conn := range []*Connection{a, b} {
		select {
		case data := <-conn.Send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, MessageType("instance_sent"), msg.Type)
			assert.JSONEq(t, `{"id":"inst-1"}`, string(msg.Payload))
		case <-time.After(time.Second):
			t.Fatal("no message received")
		}
	}

	hub.Unregister(a)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	_, open := <-a.Send
	assert.False(t, open)
}

func TestHubStopClosesConnections(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := &Connection{Send: make(chan []byte, 1), Hub: hub}
	hub.Register(conn)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	hub.Stop()
	hub.Stop()

	select {
	case _, open := <-conn.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("connection not closed")
	}

	// no-ops once stopped
	hub.Broadcast("instance_sent", nil)
	hub.Unregister(conn)
}

func TestInstancesWS(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Stop()
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, zap.NewNop()).InstancesWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast("instance_completed", map[string]interface{}{"id": "inst-9", "status": "completed"})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, client.ReadJSON(&msg))
	assert.Equal(t, MessageType("instance_completed"), msg.Type)
	assert.JSONEq(t, `{"id":"inst-9","status":"completed"}`, string(msg.Payload))

	client.Close()
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
