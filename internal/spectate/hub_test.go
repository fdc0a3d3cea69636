package spectate

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"git.lost.host/meutraa/tempo/internal/engine"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(logrus.New())
	conn := dial(t, hub)

	now := time.Now()
	require.NoError(t, hub.Publish(engine.Snapshot{Taken: now, Phase: engine.Active, Score: 300}))
	m := read(t, conn)
	assert.Equal(t, "active", m["phase"])
	assert.Equal(t, float64(300), m["score"])

	// Too soon after the previous one, dropped.
	require.NoError(t, hub.Publish(engine.Snapshot{Taken: now.Add(time.Millisecond), Phase: engine.Active, Score: 500}))
	// Finished always goes out.
	require.NoError(t, hub.Publish(engine.Snapshot{Taken: now.Add(2 * time.Millisecond), Phase: engine.Finished, Score: 600}))
	m = read(t, conn)
	assert.Equal(t, "finished", m["phase"])
	assert.Equal(t, float64(600), m["score"])
}

func TestHubRun(t *testing.T) {
	hub := NewHub(logrus.New())
	conn := dial(t, hub)

	snapshots := make(chan engine.Snapshot, 1)
	snapshots <- engine.Snapshot{Taken: time.Now(), Phase: engine.Pretiming, TimeMs: -2500}
	close(snapshots)
	require.NoError(t, hub.Run(context.Background(), snapshots))

	m := read(t, conn)
	assert.Equal(t, "pretiming", m["phase"])
	assert.Equal(t, -2500.0, m["time_ms"])
}

func TestHubClose(t *testing.T) {
	hub := NewHub(logrus.New())
	conn := dial(t, hub)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHubDisconnect(t *testing.T) {
	hub := NewHub(logrus.New())
	conn := dial(t, hub)
	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, time.Millisecond)
}
