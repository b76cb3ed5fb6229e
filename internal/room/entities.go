// Package room implements the authoritative per-room game simulation: the
// Room Controller, Combat Resolver, Spawn Engine, Enemy AI, Summoned-Unit
// Simulation, Experience & Progression, and the status-effect/pending-kill
// bookkeeping that sit behind them.
package room

import "time"

// Mode identifies a room's fixed game mode.
type Mode string

const (
	ModeMultiplayer Mode = "multiplayer"
	ModePvP         Mode = "pvp"
	ModeCoop        Mode = "coop"
)

// Vector3 is a plain 3D position/direction, always broadcast by value.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Player is a connected client's authoritative game state.
type Player struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Position     Vector3         `json:"position"`
	Rotation     float64         `json:"rotation"`
	MovementDir  Vector3         `json:"movementDirection"`
	Weapon       string          `json:"weapon"`
	Subclass     string          `json:"subclass,omitempty"`
	Level        int             `json:"level"`
	Health       int             `json:"health"`
	MaxHealth    int             `json:"maxHealth"`
	Essence      int             `json:"essence"`
	Shield       int             `json:"shield"`
	Invisible    bool            `json:"invisible"`
	Stealthing   bool            `json:"stealthing"`
	Purchased    map[string]bool `json:"purchased"`
	JoinedAt     time.Time       `json:"joinedAt"`
	lastUpdateAt time.Time
}

// IsDead reports whether the player has no health left.
func (p *Player) IsDead() bool { return p.Health <= 0 }

// EnemyType enumerates PvE enemy archetypes.
type EnemyType string

const (
	EnemyElite        EnemyType = "elite"
	EnemySkeleton     EnemyType = "skeleton"
	EnemyMage         EnemyType = "mage"
	EnemyReaper       EnemyType = "reaper"
	EnemyAbomination  EnemyType = "abomination"
	EnemyDeathKnight  EnemyType = "death-knight"
	EnemyAscendant    EnemyType = "ascendant"
	EnemyFallenTitan  EnemyType = "fallen-titan"
	EnemyBoss         EnemyType = "boss"
	EnemyBossSkeleton EnemyType = "boss-skeleton"
)

// Enemy is a server-controlled PvE combatant.
type Enemy struct {
	ID        string    `json:"id"`
	Type      EnemyType `json:"type"`
	Position  Vector3   `json:"position"`
	Rotation  float64   `json:"rotation"`
	Health    int       `json:"health"`
	MaxHealth int       `json:"maxHealth"`
	SpawnedAt time.Time `json:"spawnedAt"`
	IsDying   bool      `json:"isDying"`
	DeathTime time.Time `json:"deathTime,omitempty"`
}

// Tower is a PvP player's base structure.
type Tower struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	OwnerName string    `json:"ownerName"`
	Position  Vector3   `json:"position"`
	Health    int       `json:"health"`
	MaxHealth int       `json:"maxHealth"`
	IsDead    bool      `json:"isDead"`
	IsActive  bool      `json:"isActive"`
	deadAt    time.Time
}

// Pillar is one of a PvP player's three defensive structures.
type Pillar struct {
	ID        string  `json:"id"`
	OwnerID   string  `json:"ownerId"`
	Index     int     `json:"index"`
	Position  Vector3 `json:"position"`
	Health    int     `json:"health"`
	MaxHealth int     `json:"maxHealth"`
	IsDead    bool    `json:"isDead"`
	deadAt    time.Time
}

// SummonedUnit is a tower-spawned PvP combatant.
type SummonedUnit struct {
	UnitID               string        `json:"unitId"`
	OwnerID              string        `json:"ownerId"`
	Position             Vector3       `json:"position"`
	TargetPosition       *Vector3      `json:"targetPosition,omitempty"`
	CurrentTarget        string        `json:"currentTarget,omitempty"`
	Health               int           `json:"health"`
	MaxHealth            int           `json:"maxHealth"`
	AttackRange          float64       `json:"attackRange"`
	AttackDamage         int           `json:"attackDamage"`
	AttackCooldown       time.Duration `json:"-"`
	LastAttackAt         time.Time     `json:"-"`
	MoveSpeed            float64       `json:"moveSpeed"`
	LastTargetSearchAt   time.Time     `json:"-"`
	TargetSearchCooldown time.Duration `json:"-"`
	IsActive             bool          `json:"isActive"`
	IsDead               bool          `json:"isDead"`
	IsElite              bool          `json:"isElite"`
	SummonTime           time.Time     `json:"summonTime"`
	Lifetime             time.Duration `json:"-"`
}

// Expired reports whether the unit has outlived its lifetime.
func (u *SummonedUnit) Expired(now time.Time) bool {
	return now.Sub(u.SummonTime) >= u.Lifetime
}

// Wave is one batch of summoned units spawned together.
type Wave struct {
	WaveID    string          `json:"waveId"`
	OwnerID   string          `json:"ownerId,omitempty"` // empty for the legacy multiplayer global wave
	Units     map[string]bool `json:"-"`
	StartTime time.Time       `json:"startTime"`
}

// Empty reports whether every unit in the wave has been removed.
func (w *Wave) Empty() bool { return len(w.Units) == 0 }

// StatusEffectType enumerates the effects that can be applied to an enemy.
type StatusEffectType string

const (
	EffectStun      StatusEffectType = "stun"
	EffectFreeze    StatusEffectType = "freeze"
	EffectSlow      StatusEffectType = "slow"
	EffectBurning   StatusEffectType = "burning"
	EffectCorrupted StatusEffectType = "corrupted"
	EffectVenom     StatusEffectType = "venom"
)

// PendingKill tracks an unconfirmed PvP kill awaiting the victim's respawn.
type PendingKill struct {
	KillerID   string    `json:"killerId"`
	KillerName string    `json:"killerName"`
	VictimName string    `json:"victimName"`
	DamageType string    `json:"damageType"`
	At         time.Time `json:"at"`
}
