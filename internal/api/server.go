package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/RidwanSharkar/Erebus-sub004/internal/config"
	"github.com/RidwanSharkar/Erebus-sub004/internal/room"
	"github.com/RidwanSharkar/Erebus-sub004/internal/router"
	"github.com/RidwanSharkar/Erebus-sub004/internal/transport"
)

// Server is the HTTP/WebSocket front door: the chi router plus the
// background workers that keep connection and room state healthy
// (the stale-connection reaper, the IP rate limiter's cleanup loop).
type Server struct {
	cfg         config.AppConfig
	rooms       *room.Registry
	hub         *transport.Hub
	rt          *router.Router
	router      http.Handler
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
	stopReaper  chan struct{}
}

// NewServer wires the room registry, connection hub, and event router into
// an HTTP server.
//
// IMPORTANT: no listener is opened here; the only goroutine started is the
// IP rate limiter's cleanup loop, which Stop ends. Call Start to run the
// process; construct-then-Router() is safe for httptest-based tests.
func NewServer(cfg config.AppConfig) *Server {
	hub := transport.NewHub(func(origin string) bool {
		return IsAllowedOrigin(config.CORSOrigins(), origin)
	})
	rooms := room.NewRegistry(cfg, hub.Dispatch)
	rt := router.New(rooms, hub)
	rateLimiter := NewIPRateLimiter(cfg.RateLimit)

	return &Server{
		cfg:         cfg,
		rooms:       rooms,
		hub:         hub,
		rt:          rt,
		router:      NewChiRouter(cfg, rooms, hub, rt, rateLimiter),
		rateLimiter: rateLimiter,
		stopReaper:  make(chan struct{}),
	}
}

// Router returns the HTTP handler, for use with httptest.NewServer.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins the stale-connection reaper and the HTTP listener. This is
// the only method that opens a network listener.
func (s *Server) Start(addr string) error {
	go s.hub.StartReaper(s.stopReaper, s.cfg.Ticks.ReaperInterval, s.cfg.Ticks.ConnectionStaleAfter, s.rt.HandleDisconnect)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("🌐 server listening on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop performs a graceful shutdown of the HTTP listener and background
// workers.
func (s *Server) Stop(ctx context.Context) error {
	close(s.stopReaper)
	s.rateLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
