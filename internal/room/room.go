package room

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/RidwanSharkar/Erebus-sub004/internal/config"
)

// Emitter enqueues a composed Broadcast for fan-out by the transport layer.
// The Room Controller never touches a connection directly (see design notes
// on one-way parent pointers from subsystem to room).
type Emitter func(Broadcast)

// aggroEntry is the Enemy AI's per-enemy target-tracking state.
type aggroEntry struct {
	targetPlayerID string
	aggro          float64
	lastUpdate     time.Time
}

// Room owns every piece of mutable state for one game instance and is the
// single serialization point for mutating it. All exported command methods
// either fully succeed (state mutated, broadcasts emitted) or no-op.
type Room struct {
	mu sync.RWMutex

	ID                string
	Mode              Mode
	Started           bool
	KillCount         int
	StartedAt         time.Time
	LastGlobalSpawnAt time.Time

	players       map[string]*Player
	enemies       map[string]*Enemy
	towers        map[string]*Tower
	pillars       map[string]*Pillar
	summonedUnits map[string]*SummonedUnit

	waves              map[string]*Wave // waveID -> Wave
	waveByOwner        map[string]string
	legacyWaveID       string
	legacyCompletionAt time.Time

	statusEffects         map[string]map[StatusEffectType]time.Time
	pendingKills          map[string]*PendingKill
	destroyedEnemyPillars map[string]int

	aggro map[string]*aggroEntry

	cfg  config.AppConfig
	emit Emitter
	rng  *rand.Rand

	stopCh  chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

// New constructs an idle room. No timers run until StartGame succeeds.
func New(id string, cfg config.AppConfig, emit Emitter) *Room {
	return &Room{
		ID:                    id,
		players:               make(map[string]*Player),
		enemies:               make(map[string]*Enemy),
		towers:                make(map[string]*Tower),
		pillars:               make(map[string]*Pillar),
		summonedUnits:         make(map[string]*SummonedUnit),
		waves:                 make(map[string]*Wave),
		waveByOwner:           make(map[string]string),
		statusEffects:         make(map[string]map[StatusEffectType]time.Time),
		pendingKills:          make(map[string]*PendingKill),
		destroyedEnemyPillars: make(map[string]int),
		aggro:                 make(map[string]*aggroEntry),
		cfg:                   cfg,
		emit:                  emit,
		rng:                   rand.New(rand.NewSource(time.Now().UnixNano())),
		stopCh:                make(chan struct{}),
	}
}

func (r *Room) broadcastRoom(event EventType, data any) {
	r.emit(Broadcast{RoomID: r.ID, Scope: ScopeRoom, Event: event, Data: data})
}

// IsEmpty reports whether the room has no connected players.
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players) == 0
}

// AddPlayer admits a new player. Fails (returns nil) if the room is full or
// the player is already present. Fixes the room's mode on first join.
func (r *Room) AddPlayer(id, name, weapon, subclass string, mode Mode) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[id]; exists {
		return nil
	}
	if len(r.players) >= r.cfg.RoomLimits.MaxPlayersPerRoom {
		return nil
	}
	if len(r.players) == 0 {
		r.Mode = mode
	}

	level := 1
	maxHealth := r.initialMaxHealthLocked(level)
	p := &Player{
		ID:        id,
		Name:      name,
		Weapon:    weapon,
		Subclass:  subclass,
		Level:     level,
		Health:    maxHealth,
		MaxHealth: maxHealth,
		Purchased: make(map[string]bool),
		JoinedAt:  time.Now(),
	}
	r.players[id] = p

	if r.Mode == ModePvP {
		r.createTowerAndPillarsLocked(p)
	}

	r.broadcastRoom(EventPlayerJoined, playerJoinedPayload(p))
	return p
}

func (r *Room) initialMaxHealthLocked(level int) int {
	switch r.Mode {
	case ModeMultiplayer:
		return baseMultiplayerMaxHealth + r.KillCount
	default:
		return MaxHealthForLevel(level)
	}
}

func (r *Room) createTowerAndPillarsLocked(p *Player) {
	if len(r.towers) >= r.cfg.RoomLimits.MaxTowersPerRoom {
		return
	}
	geo := r.cfg.Geometry
	angle := r.rng.Float64() * 2 * math.Pi
	towerPos := Vector3{X: geo.TowerRingRadius * math.Cos(angle), Y: 0, Z: geo.TowerRingRadius * math.Sin(angle)}
	tower := &Tower{
		ID:        fmt.Sprintf("tower_%s", p.ID),
		OwnerID:   p.ID,
		OwnerName: p.Name,
		Position:  towerPos,
		Health:    towerStartHealth,
		MaxHealth: towerStartHealth,
		IsActive:  true,
	}
	r.towers[tower.ID] = tower
	r.broadcastRoom(EventTowerSpawned, tower)

	// Spawn the player just in front of their tower, facing the opposing side
	// of the ring.
	p.Position = Vector3{
		X: towerPos.X - geo.PlayerSpawnRadius*math.Cos(angle),
		Y: 0,
		Z: towerPos.Z - geo.PlayerSpawnRadius*math.Sin(angle),
	}
	p.Rotation = math.Atan2(-towerPos.X, -towerPos.Z)

	dirX, dirZ := -math.Cos(angle), -math.Sin(angle)
	perpX, perpZ := -dirZ, dirX
	for i := 0; i < 3; i++ {
		offset := float64(i-1) * geo.PillarSpacing
		pos := Vector3{
			X: towerPos.X + dirX*geo.PillarOffsetBack + perpX*offset,
			Y: 0,
			Z: towerPos.Z + dirZ*geo.PillarOffsetBack + perpZ*offset,
		}
		pillar := &Pillar{
			ID:        fmt.Sprintf("pillar_%s_%d", p.ID, i),
			OwnerID:   p.ID,
			Index:     i,
			Position:  pos,
			Health:    pillarStartHealth,
			MaxHealth: pillarStartHealth,
		}
		r.pillars[pillar.ID] = pillar
		r.broadcastRoom(EventPillarSpawned, pillar)
	}
}

// RemovePlayer deletes a player (no-op if absent). In PvP, marks the
// player's tower and pillars dead and broadcasts. Stops simulation if the
// room is now empty.
func (r *Room) RemovePlayer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	for _, entry := range r.aggro {
		if entry.targetPlayerID == id {
			entry.targetPlayerID = ""
			entry.aggro = 0
		}
	}

	if r.Mode == ModePvP {
		towerID := fmt.Sprintf("tower_%s", id)
		if t, ok := r.towers[towerID]; ok && !t.IsDead {
			t.IsDead = true
			r.broadcastRoom(EventTowerDestroyed, map[string]any{"towerId": t.ID})
		}
		for _, pl := range r.pillars {
			if pl.OwnerID == id && !pl.IsDead {
				pl.IsDead = true
				r.broadcastRoom(EventPillarDestroyed, map[string]any{"pillarId": pl.ID})
			}
		}
	}

	r.broadcastRoom(EventPlayerLeft, map[string]any{"playerId": id})

	if len(r.players) == 0 {
		r.stopTimersLocked()
	}
}

// StartGame is idempotent; fails (returns false) if the room has already
// started. Wires mode-specific spawners and AI per the room's mode.
func (r *Room) StartGame(initiatorID string) bool {
	r.mu.Lock()
	if r.Started {
		r.mu.Unlock()
		return false
	}
	if _, ok := r.players[initiatorID]; !ok {
		r.mu.Unlock()
		return false
	}
	r.Started = true
	r.StartedAt = time.Now()
	r.mu.Unlock()

	switch r.Mode {
	case ModeMultiplayer:
		r.spawnInitialElites(2)
		r.startSpawnEngine()
		r.startEnemyAI()
	case ModeCoop:
		r.startEnemyAI()
		r.scheduleBossSpawn()
	case ModePvP:
		r.startSummonedUnitSimulation()
	}

	r.broadcastRoom(EventGameStarted, map[string]any{"roomId": r.ID, "mode": r.Mode})
	return true
}

// Destroy stops every timer owned by the room and clears its state. It is
// safe to call more than once.
func (r *Room) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimersLocked()
	r.players = make(map[string]*Player)
	r.enemies = make(map[string]*Enemy)
	r.towers = make(map[string]*Tower)
	r.pillars = make(map[string]*Pillar)
	r.summonedUnits = make(map[string]*SummonedUnit)
	r.waves = make(map[string]*Wave)
	r.waveByOwner = make(map[string]string)
	r.statusEffects = make(map[string]map[StatusEffectType]time.Time)
	r.pendingKills = make(map[string]*PendingKill)
	r.destroyedEnemyPillars = make(map[string]int)
	r.aggro = make(map[string]*aggroEntry)
}

func (r *Room) stopTimersLocked() {
	if r.stopped {
		return
	}
	r.stopped = true
	close(r.stopCh)
	log.Printf("room %s: all timers stopped", r.ID)
}

// --- player command methods -------------------------------------------------

// UpdatePlayerPosition is an unclamped, pass-through write: position/rotation/
// movement-direction only, no broadcast composition beyond the caller's.
func (r *Room) UpdatePlayerPosition(id string, pos Vector3, rotation float64, movementDir Vector3) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return false
	}
	p.Position = pos
	p.Rotation = rotation
	p.MovementDir = movementDir
	p.lastUpdateAt = time.Now()
	return true
}

func (r *Room) UpdatePlayerWeapon(id, weapon, subclass string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return false
	}
	p.Weapon = weapon
	if subclass != "" {
		p.Subclass = subclass
	}
	return true
}

func (r *Room) UpdatePlayerHealth(id string, health int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return false
	}
	p.Health = clamp(health, 0, p.MaxHealth)
	return true
}

func (r *Room) UpdatePlayerShield(id string, shield int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return false
	}
	p.Shield = shield
	if p.Shield < 0 {
		p.Shield = 0
	}
	return true
}

func (r *Room) UpdatePlayerEssence(id string, essence int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return false
	}
	p.Essence = essence
	if p.Essence < 0 {
		p.Essence = 0
	}
	return true
}

// UpdatePlayerLevel sets a player's level and rescales their max health,
// capping current health at the new max so it never exceeds it.
func (r *Room) UpdatePlayerLevel(id string, level int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return false
	}
	if level < 1 {
		level = 1
	}
	if level > maxLevel {
		level = maxLevel
	}
	p.Level = level
	p.MaxHealth = MaxHealthForLevel(level)
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
	return true
}

// MarkPurchased records a one-shot item purchase for the player.
func (r *Room) MarkPurchased(id, itemID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return false
	}
	p.Purchased[itemID] = true
	return true
}

// GetPlayer returns a defensive copy of a player's state, or nil if absent.
func (r *Room) GetPlayer(id string) *Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// Snapshot is the point-in-time state sent to a newcomer on join.
type Snapshot struct {
	RoomID        string          `json:"roomId"`
	Mode          Mode            `json:"gameMode"`
	GameStarted   bool            `json:"gameStarted"`
	KillCount     int             `json:"killCount"`
	Players       []*Player       `json:"players"`
	Enemies       []*Enemy        `json:"enemies"`
	Towers        []*Tower        `json:"towers"`
	Pillars       []*Pillar       `json:"pillars"`
	SummonedUnits []*SummonedUnit `json:"summonedUnits"`
}

// GetSnapshot returns defensive copies of every entity in the room, used to
// answer join-room and preview-room queries.
func (r *Room) GetSnapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{RoomID: r.ID, Mode: r.Mode, GameStarted: r.Started, KillCount: r.KillCount}
	for _, p := range r.players {
		cp := *p
		snap.Players = append(snap.Players, &cp)
	}
	for _, e := range r.enemies {
		cp := *e
		snap.Enemies = append(snap.Enemies, &cp)
	}
	for _, t := range r.towers {
		cp := *t
		snap.Towers = append(snap.Towers, &cp)
	}
	for _, pl := range r.pillars {
		cp := *pl
		snap.Pillars = append(snap.Pillars, &cp)
	}
	for _, u := range r.summonedUnits {
		if u.IsActive && !u.IsDead {
			cp := *u
			snap.SummonedUnits = append(snap.SummonedUnits, &cp)
		}
	}
	return snap
}

// PlayerCount returns the number of connected players.
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func playerJoinedPayload(p *Player) map[string]any {
	return map[string]any{
		"playerId": p.ID,
		"name":     p.Name,
		"weapon":   p.Weapon,
		"subclass": p.Subclass,
		"level":    p.Level,
		"health":   p.Health,
		"position": p.Position,
		"rotation": p.Rotation,
	}
}
