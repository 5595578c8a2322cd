package api

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/example/realtime-chat/modules/realtime"
	fastws "github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3, 1)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow(), "frame %d should pass within the burst", i)
	}
	assert.False(t, rl.allow(), "burst exhausted")

	// Simulate a second passing.
	rl.mu.Lock()
	rl.lastRefill = rl.lastRefill.Add(-time.Second)
	rl.mu.Unlock()

	assert.True(t, rl.allow())
	assert.False(t, rl.allow())
}

func TestRateLimiter_RefillCapped(t *testing.T) {
	rl := newRateLimiter(2, 10)
	rl.mu.Lock()
	rl.tokens = 0
	rl.lastRefill = rl.lastRefill.Add(-5 * time.Second)
	rl.mu.Unlock()

	assert.True(t, rl.allow())
	assert.True(t, rl.allow())
	assert.False(t, rl.allow())
}

// startWSServer serves the app on a loopback listener. It returns the /ws URL,
// the running hub and a func that stops the hub.
func startWSServer(t *testing.T) (string, *realtime.Hub, context.CancelFunc) {
	t.Helper()

	hub := realtime.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	m := &APIModule{
		config:      Config{WSRequireAuth: false},
		authAdapter: validTokenAuth(),
		chatAdapter: &mockChatPort{},
		hub:         hub,
	}
	app := m.newApp()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()

	t.Cleanup(func() {
		cancel()
		hub.Wait()
		_ = app.ShutdownWithTimeout(time.Second)
	})
	return "ws://" + ln.Addr().String() + "/ws", hub, cancel
}

func dialWS(t *testing.T, url string) *fastws.Conn {
	t.Helper()
	conn, _, err := fastws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *fastws.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(realtime.Frame{Event: event, Data: raw})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(fastws.TextMessage, frame))
}

func readFrame(t *testing.T, conn *fastws.Conn) realtime.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame realtime.Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestWebSocket_SetupAndUnregisterOnClose(t *testing.T) {
	url, hub, _ := startWSServer(t)

	conn := dialWS(t, url)
	sendFrame(t, conn, realtime.EventSetup, map[string]string{"id": "u1"})
	assert.Equal(t, realtime.EventConnected, readFrame(t, conn).Event)
	assert.Equal(t, 1, hub.ClientCount())
	assert.Equal(t, 1, hub.RoomSize(realtime.PersonalRoom("u1")))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.RoomSize(realtime.PersonalRoom("u1")))
}

func TestWebSocket_MessageDelivery(t *testing.T) {
	url, _, _ := startWSServer(t)

	sender := dialWS(t, url)
	recipient := dialWS(t, url)
	sendFrame(t, sender, realtime.EventSetup, map[string]string{"id": "u1"})
	sendFrame(t, recipient, realtime.EventSetup, map[string]string{"id": "u2"})
	require.Equal(t, realtime.EventConnected, readFrame(t, sender).Event)
	require.Equal(t, realtime.EventConnected, readFrame(t, recipient).Event)

	sendFrame(t, sender, realtime.EventNewMessage, map[string]any{
		"id":      "m1",
		"content": "hello",
		"sender":  map[string]string{"id": "u1"},
		"chat": map[string]any{
			"id":    "c1",
			"users": []map[string]string{{"id": "u1"}, {"id": "u2"}},
		},
	})

	frame := readFrame(t, recipient)
	assert.Equal(t, realtime.EventMessageReceived, frame.Event)
	assert.Contains(t, string(frame.Data), `"hello"`)
}

func TestWebSocket_ClosedWhenHubStops(t *testing.T) {
	url, _, stopHub := startWSServer(t)

	conn := dialWS(t, url)
	sendFrame(t, conn, realtime.EventSetup, map[string]string{"id": "u1"})
	require.Equal(t, realtime.EventConnected, readFrame(t, conn).Event)

	stopHub()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, fastws.IsCloseError(err, fastws.CloseNormalClosure), "got %v", err)
}
