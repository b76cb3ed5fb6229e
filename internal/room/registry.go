package room

import (
	"log"
	"sync"

	"github.com/RidwanSharkar/Erebus-sub004/internal/config"
)

// Registry is the process-wide rooms map. Only connection/room lifecycle
// paths mutate it; all other access is read-only lookups.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	cfg   config.AppConfig
	emit  Emitter
}

// NewRegistry constructs an empty room registry.
func NewRegistry(cfg config.AppConfig, emit Emitter) *Registry {
	return &Registry{rooms: make(map[string]*Room), cfg: cfg, emit: emit}
}

// GetOrCreate returns the room for id, creating it if absent.
func (reg *Registry) GetOrCreate(id string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[id]; ok {
		return r
	}
	r := New(id, reg.cfg, reg.emit)
	reg.rooms[id] = r
	log.Printf("room %s: created", id)
	return r
}

// Get returns a room if present, without creating it.
func (reg *Registry) Get(id string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[id]
}

// RemoveIfEmpty destroys and removes a room if it currently has no players.
func (reg *Registry) RemoveIfEmpty(id string) {
	reg.mu.Lock()
	r, ok := reg.rooms[id]
	if !ok || !r.IsEmpty() {
		reg.mu.Unlock()
		return
	}
	delete(reg.rooms, id)
	reg.mu.Unlock()

	r.Destroy()
	log.Printf("room %s: destroyed (empty)", id)
}

// Count returns the number of live rooms.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// Details returns a per-room summary used by the /health endpoint.
type Details struct {
	ID      string `json:"id"`
	Mode    Mode   `json:"mode"`
	Players int    `json:"players"`
	Started bool   `json:"started"`
}

// AllDetails returns a summary of every live room.
func (reg *Registry) AllDetails() []Details {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]Details, 0, len(reg.rooms))
	for id, r := range reg.rooms {
		out = append(out, Details{ID: id, Mode: r.Mode, Players: r.PlayerCount(), Started: r.Started})
	}
	return out
}

// TotalPlayers sums player counts across every room.
func (reg *Registry) TotalPlayers() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	total := 0
	for _, r := range reg.rooms {
		total += r.PlayerCount()
	}
	return total
}
