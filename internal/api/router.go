package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/RidwanSharkar/Erebus-sub004/internal/config"
	"github.com/RidwanSharkar/Erebus-sub004/internal/room"
	"github.com/RidwanSharkar/Erebus-sub004/internal/router"
	"github.com/RidwanSharkar/Erebus-sub004/internal/transport"
)

// healthResponse is the /health payload: a snapshot of room and connection
// counts used by uptime monitoring and manual operator checks.
type healthResponse struct {
	Status         string         `json:"status"`
	Timestamp      int64          `json:"timestamp"`
	Rooms          int            `json:"rooms"`
	TotalSockets   int            `json:"totalSockets"`
	PlayersInRooms int            `json:"playersInRooms"`
	RoomDetails    []room.Details `json:"roomDetails"`
}

// maxInboundFrameBytes bounds a single WebSocket frame; well above the
// largest legitimate player-update payload. A larger frame ends the
// connection's read loop.
const maxInboundFrameBytes = 16 * 1024

// NewChiRouter builds the HTTP surface: a CORS-guarded health check and the
// WebSocket upgrade endpoint, fronted by per-IP rate limiting and chi's
// panic recoverer.
func NewChiRouter(cfg config.AppConfig, rooms *room.Registry, hub *transport.Hub, rt *router.Router, ipLimiter *IPRateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if ipLimiter != nil {
		r.Use(ipLimiter.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		resp := healthResponse{
			Status:         "ok",
			Timestamp:      time.Now().UnixMilli(),
			Rooms:          rooms.Count(),
			TotalSockets:   hub.Registry.Count(),
			PlayersInRooms: rooms.TotalPlayers(),
			RoomDetails:    rooms.AllDetails(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		connID := generateConnectionID()
		hub.Upgrade(
			w, req, connID,
			cfg.Ticks.TransportIdleTimeout,
			maxInboundFrameBytes,
			cfg.Inbound.EventsPerSecond,
			cfg.Inbound.Burst,
			rt.HandleMessage,
			rt.HandleDisconnect,
		)
	})

	return r
}

// generateConnectionID creates a cryptographically random connection id.
func generateConnectionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
