package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscribe/backend/pkg/queue"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)

	c1, c2 := &websocket.Conn{}, &websocket.Conn{}
	out1 := hub.Register(c1)
	out2 := hub.Register(c2)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Broadcast([]byte("hello"))
	assert.Equal(t, "hello", string(<-out1))
	assert.Equal(t, "hello", string(<-out2))

	hub.Unregister(c1)
	assert.Equal(t, 1, hub.ClientCount())
	_, open := <-out1
	assert.False(t, open)
}

func TestHubDropsForSlowClients(t *testing.T) {
	hub := NewHub(nil)
	conn := &websocket.Conn{}
	out := hub.Register(conn)

	for i := 0; i < cap(out)+10; i++ {
		hub.Broadcast([]byte("x"))
	}
	assert.Len(t, out, cap(out), "overflow messages are dropped, not blocking")
}

func TestPublisherAndBridge(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub := NewHub(nil)
	conn := &websocket.Conn{}
	out := hub.Register(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Bridge(ctx, client, hub, nil)
	time.Sleep(50 * time.Millisecond)

	NewPublisher(client, nil).PublishStageEvent(ctx, queue.StageExtract, "abc123", "completed")

	select {
	case raw := <-out:
		var event StageEvent
		require.NoError(t, json.Unmarshal(raw, &event))
		assert.Equal(t, "extract", event.Stage)
		assert.Equal(t, "abc123", event.VideoID)
		assert.Equal(t, "completed", event.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received through the bridge")
	}
}
