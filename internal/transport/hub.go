package transport

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RidwanSharkar/Erebus-sub004/internal/room"
)

// Hub owns the connection registry and turns Room Controller broadcasts
// into concrete WebSocket writes. It is the only thing in this repository
// that touches a *websocket.Conn directly.
type Hub struct {
	Registry *Registry
	upgrader websocket.Upgrader
}

// NewHub constructs a Hub whose upgrade handshake accepts only origins for
// which isAllowedOrigin returns true.
func NewHub(isAllowedOrigin func(origin string) bool) *Hub {
	return &Hub{
		Registry: NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return isAllowedOrigin(origin)
			},
		},
	}
}

// Upgrade promotes an HTTP request to a registered WebSocket connection and
// starts its read/write pumps. The caller supplies onMessage to translate
// inbound frames into Event Router commands and onClose to run the
// connection cleanup path.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, connID string, idleTimeout time.Duration, maxFrameBytes int64, inboundEventsPerSecond float64, inboundBurst int, onMessage func(connID string, raw []byte), onClose func(connID string)) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("transport: upgrade failed: %v", err)
		return
	}

	c := NewConnection(connID, ws, inboundEventsPerSecond, inboundBurst)
	h.Registry.Register(c)

	go c.WritePump(idleTimeout)
	go func() {
		c.ReadPump(idleTimeout, maxFrameBytes, func(raw []byte) {
			onMessage(connID, raw)
		})
		// onClose must run while the registry entry still exists: the cleanup
		// path resolves connID back to its room/player through the registry.
		onClose(connID)
		h.Registry.Unregister(connID)
		c.Close()
	}()
}

// Dispatch resolves a room.Broadcast's scope against the registry and
// enqueues the envelope on every matching connection. A connection whose
// send queue is full is treated as slow and dropped.
func (h *Hub) Dispatch(b room.Broadcast) {
	envelope := room.NewEnvelope(b.Event, b.Data)

	var targets []*Connection
	switch b.Scope {
	case room.ScopeRoom:
		targets = h.Registry.ByRoom(b.RoomID)
	case room.ScopeRoomExcludingSender:
		for _, c := range h.Registry.ByRoom(b.RoomID) {
			if c.ID != b.ExcludeConnID {
				targets = append(targets, c)
			}
		}
	case room.ScopeSender:
		if c := h.Registry.Get(b.ExcludeConnID); c != nil {
			targets = []*Connection{c}
		}
	}

	for _, c := range targets {
		if !c.EnqueueJSON(envelope) {
			log.Printf("transport: connection %s send queue full, dropping", c.ID)
			// Closing the socket unblocks the read pump, whose goroutine runs
			// the ordered cleanup (player eviction, then unregistration).
			c.Close()
		}
	}
}

// SendTo enqueues an envelope directly on one connection id, used for
// single-connection replies (room-full, start-game-failed, pong, etc.)
// that aren't modeled as a room.Broadcast because no room may exist yet.
func (h *Hub) SendTo(connID string, event room.EventType, data any) {
	c := h.Registry.Get(connID)
	if c == nil {
		return
	}
	c.EnqueueJSON(room.NewEnvelope(event, data))
}

// StartReaper runs a process-wide sweep every interval, forcibly closing
// any connection whose last heartbeat predates staleAfter. onStale receives
// the connection id so the caller can run the player-eviction path.
func (h *Hub) StartReaper(stop <-chan struct{}, interval, staleAfter time.Duration, onStale func(connID string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, id := range h.Registry.Stale(staleAfter) {
				if c := h.Registry.Get(id); c != nil {
					c.Close()
				}
				// Same ordering as the disconnect path: evict the player
				// while the registry entry can still resolve its room.
				onStale(id)
				h.Registry.Unregister(id)
			}
		}
	}
}

// AllowAllLocalOrigins is a convenience CheckOrigin predicate for local
// development: any http(s)://localhost or 127.0.0.1 origin, any port.
func AllowAllLocalOrigins(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://127.0.0.1")
}
