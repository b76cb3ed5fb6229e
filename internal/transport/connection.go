// Package transport owns the WebSocket event channel: connection upgrade,
// per-connection bounded send queues, the process-wide connection registry,
// and the stale-connection reaper.
package transport

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const sendQueueSize = 64

// Connection wraps one upgraded WebSocket with a bounded async send queue so
// a single slow client cannot stall a room tick (see design notes on the
// per-connection write path).
type Connection struct {
	ID       string
	PlayerID string
	RoomID   string

	ws      *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	closed    chan struct{}
	closeOnce sync.Once
}

// NewConnection wraps an upgraded websocket.Conn with an inbound rate
// limiter, adapting the pattern the event log applies to per-player log
// emission one hop earlier, to inbound command ingestion.
func NewConnection(id string, ws *websocket.Conn, eventsPerSecond float64, burst int) *Connection {
	return &Connection{
		ID:      id,
		ws:      ws,
		send:    make(chan []byte, sendQueueSize),
		limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), burst),
		closed:  make(chan struct{}),
	}
}

// Enqueue attempts a non-blocking send. Returns false if the queue is full,
// in which case the connection is considered slow and the caller should
// close it.
func (c *Connection) Enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// EnqueueJSON marshals v and enqueues it.
func (c *Connection) EnqueueJSON(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("connection %s: marshal failed: %v", c.ID, err)
		return false
	}
	return c.Enqueue(data)
}

// AllowInbound reports whether one more inbound message may be accepted
// this instant, per the per-connection inbound rate limit.
func (c *Connection) AllowInbound() bool {
	return c.limiter.Allow()
}

// Close closes the underlying socket and the closed signal exactly once.
// Safe to call concurrently from the write pump, the read goroutine, the
// slow-consumer drop path, and the reaper.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// WritePump drains the send queue to the socket until the connection
// closes. Must run on its own goroutine.
func (c *Connection) WritePump(idleTimeout time.Duration) {
	defer c.Close()
	for {
		select {
		case <-c.closed:
			return
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(idleTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

// ReadPump reads inbound frames and hands each to handle. A frame larger
// than maxFrameBytes ends the read loop; frames arriving over the inbound
// rate limit are discarded while the connection stays open. Frame contents
// are not parsed here. Must run on its own goroutine; returns (and the
// caller should clean up) when the socket closes or a read fails.
func (c *Connection) ReadPump(idleTimeout time.Duration, maxFrameBytes int64, handle func(raw []byte)) {
	c.ws.SetReadLimit(maxFrameBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(idleTimeout))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(idleTimeout))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if !c.AllowInbound() {
			continue
		}
		handle(raw)
	}
}
