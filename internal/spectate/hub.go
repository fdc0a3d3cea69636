// Package spectate streams session snapshots to websocket viewers.
package spectate

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"git.lost.host/meutraa/tempo/internal/engine"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultInterval limits how often viewers receive a snapshot.
	DefaultInterval = time.Second / 30
	writeWait       = time.Second
	clientBuffer    = 4
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers are local tools
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub fans snapshots out to connected viewers. A slow viewer loses its
// oldest pending snapshots and never holds up the others.
type Hub struct {
	Interval time.Duration
	Log      logrus.FieldLogger

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    time.Time
}

func NewHub(log logrus.FieldLogger) *Hub {
	if nil == log {
		log = logrus.StandardLogger()
	}
	return &Hub{
		Interval: DefaultInterval,
		Log:      log,
		clients:  make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the connection and registers the viewer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if nil != err {
		h.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.Log.WithField("remote", r.RemoteAddr).Info("spectator connected")

	go h.write(c)
	// Read loop, only there to notice disconnects.
	go func() {
		defer h.remove(c)
		for {
			if _, _, err := conn.ReadMessage(); nil != err {
				return
			}
		}
	}()
}

func (h *Hub) write(c *client) {
	defer h.remove(c)
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); nil != err {
				h.Log.WithError(err).Debug("websocket write failed")
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
	if ok {
		h.Log.Info("spectator disconnected")
	}
}

// Publish queues a snapshot for every viewer, skipping it when the previous
// one went out less than Interval ago. Finished snapshots are always sent.
// Publish is called from a single goroutine.
func (h *Hub) Publish(s engine.Snapshot) error {
	if s.Phase != engine.Finished && s.Taken.Sub(h.last) < h.Interval {
		return nil
	}
	h.last = s.Taken

	data, err := json.Marshal(s)
	if nil != err {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		engine.Publish(c.send, data)
	}
	return nil
}

// Run publishes snapshots until the channel closes or ctx is done.
func (h *Hub) Run(ctx context.Context, snapshots <-chan engine.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-snapshots:
			if !ok {
				return nil
			}
			if err := h.Publish(s); nil != err {
				h.Log.WithError(err).Warn("unable to encode snapshot")
			}
		}
	}
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.remove(c)
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
