package router

import (
	"encoding/json"
	"log"

	"github.com/RidwanSharkar/Erebus-sub004/internal/room"
	"github.com/RidwanSharkar/Erebus-sub004/internal/transport"
)

// Router is the Event Router: the single place inbound WebSocket frames are
// validated, translated into Room Controller commands, and turned into
// composed broadcasts.
type Router struct {
	Rooms *room.Registry
	Hub   *transport.Hub
}

// New constructs a Router over the given room and connection registries.
func New(rooms *room.Registry, hub *transport.Hub) *Router {
	return &Router{Rooms: rooms, Hub: hub}
}

// HandleMessage is the transport layer's onMessage callback: one raw frame
// in, zero or more broadcasts out. Unknown events and malformed JSON are
// silently dropped (transient validation failure, §7).
func (rt *Router) HandleMessage(connID string, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	handler, ok := handlers[msg.Event]
	if !ok {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.Printf("router: recovered panic handling %q from %s: %v", msg.Event, connID, p)
		}
	}()
	handler(rt, connID, msg.Data)
}

// conn resolves the sender's connection, or nil if it no longer exists.
func (rt *Router) conn(connID string) *transport.Connection {
	return rt.Hub.Registry.Get(connID)
}

// requireRoomAndPlayer resolves and validates that connID is a player in an
// existing room. Returns (room, playerID, ok). A transient validation
// failure (unknown room, sender not a member) yields ok=false with no
// reply, per the silent-drop error taxonomy.
func (rt *Router) requireRoomAndPlayer(connID string) (*room.Room, string, bool) {
	c := rt.conn(connID)
	if c == nil || c.RoomID == "" || c.PlayerID == "" {
		return nil, "", false
	}
	r := rt.Rooms.Get(c.RoomID)
	if r == nil {
		return nil, "", false
	}
	if r.GetPlayer(c.PlayerID) == nil {
		return nil, "", false
	}
	return r, c.PlayerID, true
}

type handlerFunc func(rt *Router, connID string, data json.RawMessage)

// handlers categorizes every client->server event (spec §4.9):
//   - state-mutating, server-authoritative: mutate room state via the Room
//     Controller and broadcast the resulting delta.
//   - pass-through: validated for room membership, re-broadcast largely
//     as-is.
//   - queries/control: answer the sender directly, no room-wide broadcast.
var handlers = map[string]handlerFunc{
	"join-room":  handleJoinRoom,
	"start-game": handleStartGame,
	"leave-room": handleLeaveRoom,
	"heartbeat":  handleHeartbeat,
	"ping":       handlePing,

	"player-update":  handlePlayerUpdate,
	"weapon-changed": handleWeaponChanged,

	"player-attack":          passThroughExcludingSender(room.EventPlayerAttacked),
	"player-ability":         passThroughExcludingSender(room.EventPlayerUsedAbility),
	"player-animation-state": passThroughExcludingSender(room.EventPlayerAnimationState),
	"player-effect":          passThroughExcludingSender(room.EventPlayerEffect),
	"player-debuff":          passThroughExcludingSender(room.EventPlayerDebuff),
	"player-stealth":         passThroughIncludingSender(room.EventPlayerStealth),
	"player-knockback":       passThroughIncludingSender(room.EventPlayerKnockback),
	"player-tornado-effect":  passThroughIncludingSender(room.EventPlayerTornadoEffect),
	"player-death-effect":    passThroughExcludingSender(room.EventPlayerDeathEffect),

	"player-health-changed":  handlePlayerHealthChanged,
	"player-shield-changed":  handlePlayerShieldChanged,
	"player-essence-changed": handlePlayerEssenceChanged,
	"player-level-changed":   handlePlayerLevelChanged,
	"player-purchase":        handlePlayerPurchase,
	"player-died":            handlePlayerDied,
	"player-respawn":         handlePlayerRespawn,
	"player-respawned":       passThroughExcludingSender(room.EventPlayerRespawned),

	"player-damage":      handlePlayerDamage,
	"heal-allies":        handleHealAllies,
	"heal-nearby-allies": handleHealNearbyAllies,
	"player-healing":     handlePlayerHealing,

	"enemy-damage":          handleEnemyDamage,
	"enemy-position-update": handleEnemyPositionUpdate,
	"apply-status-effect":   handleApplyStatusEffect,
	"get-enemy-status":      handleGetEnemyStatus,
	"tower-damage":          handleTowerDamage,
	"pillar-damage":         handlePillarDamage,
	"summoned-unit-damage":  handleSummonedUnitDamage,

	"chat-message": passThroughExcludingSender(room.EventChatMessage),
	"preview-room": handlePreviewRoom,
}
