package mq

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	router := httprouter.New()
	router.GET("/ws/events", hub.Handler)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEventsReachSubscribers(t *testing.T) {
	hub := NewHub()
	first := dial(t, hub)
	second := dial(t, hub)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	id := primitive.NewObjectID()
	hub.Emit("recipe", MethodCreate, id)

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, Event{Entity: "recipe", Method: "create", ID: id.Hex()}, ev)
	}
}

func TestSubscriberLeaving(t *testing.T) {
	hub := NewHub()
	conn := dial(t, hub)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)

	assert.NotPanics(t, func() { hub.Emit("unit", MethodDelete, primitive.NewObjectID()) })
}

func TestNilHub(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.Emit("recipe", MethodUpdate, primitive.NewObjectID())
		hub.Close()
	})
	assert.Zero(t, hub.Count())
}
