// Package notify delivers "sequence changed" events to connected
// WebSocket clients. Delivery is fire-and-forget: a slow or broken client
// never fails the chat turn that produced the event.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"helix/internal/logging"
	"helix/internal/types"
)

const writeTimeout = 5 * time.Second

// Event is the wire shape pushed to clients.
type Event struct {
	Type      string               `json:"type"`
	SessionID string               `json:"session_id"`
	Sequence  []types.SequenceStep `json:"sequence"`
}

// Hub fans sequence updates out to all connected clients. It implements
// types.NotificationSink.
type Hub struct {
	allowedOrigin string

	mu      sync.Mutex
	conns   map[*websocket.Conn]struct{}
	closed  bool
	pending sync.WaitGroup
}

// NewHub creates an empty hub. allowedOrigin of "*" (or empty) accepts
// any origin.
func NewHub(allowedOrigin string) *Hub {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &Hub{
		allowedOrigin: allowedOrigin,
		conns:         make(map[*websocket.Conn]struct{}),
	}
}

// SequenceUpdated broadcasts the full step list for a session to every
// connected client. It returns immediately; delivery happens in the
// background and failures are only logged.
func (h *Hub) SequenceUpdated(sessionID string, steps []types.SequenceStep) {
	if steps == nil {
		steps = []types.SequenceStep{}
	}
	payload, err := json.Marshal(Event{
		Type:      "sequence_updated",
		SessionID: sessionID,
		Sequence:  steps,
	})
	if err != nil {
		logging.Server("SequenceUpdated: marshal failed: %v", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	targets := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.pending.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.pending.Done()
		h.broadcast(targets, payload)
	}()
}

func (h *Hub) broadcast(targets []*websocket.Conn, payload []byte) {
	if len(targets) == 0 {
		return
	}

	var g errgroup.Group
	for _, conn := range targets {
		conn := conn
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				logging.ServerDebug("broadcast: write failed, dropping client: %v", err)
				h.remove(conn)
				conn.Close(websocket.StatusPolicyViolation, "write failed")
			}
			return nil
		})
	}
	g.Wait()
}

// ServeHTTP upgrades the request to a WebSocket and holds the connection
// open until the client goes away. Clients only listen; inbound frames
// are drained and discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{h.allowedOrigin},
	})
	if err != nil {
		logging.Server("ws accept failed: %v", err)
		return
	}

	h.add(conn)
	logging.ServerDebug("ws client connected (%d total)", h.ClientCount())

	defer func() {
		h.remove(conn)
		conn.Close(websocket.StatusNormalClosure, "")
		logging.ServerDebug("ws client disconnected (%d total)", h.ClientCount())
	}()

	// Block until the peer closes or the request context ends.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close drops all clients and waits for in-flight broadcasts to finish.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		c.Close(websocket.StatusGoingAway, "shutting down")
	}
	h.pending.Wait()
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.conns[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}
