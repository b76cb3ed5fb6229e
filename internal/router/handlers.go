package router

import (
	"encoding/json"
	"fmt"

	"github.com/RidwanSharkar/Erebus-sub004/internal/room"
)

// --- queries/control ----------------------------------------------------------

func handleJoinRoom(rt *Router, connID string, raw json.RawMessage) {
	var d joinRoomData
	if err := json.Unmarshal(raw, &d); err != nil || d.RoomID == "" {
		return
	}

	r := rt.Rooms.GetOrCreate(d.RoomID)
	playerID := connID // one connection, one player, identified by connection id
	p := r.AddPlayer(playerID, d.PlayerName, d.Weapon, d.Subclass, d.GameMode)
	if p == nil {
		rt.Hub.SendTo(connID, room.EventRoomFull, map[string]any{"roomId": d.RoomID})
		return
	}

	rt.Hub.Registry.SetRoom(connID, playerID, d.RoomID)
	rt.Hub.SendTo(connID, room.EventRoomJoined, r.GetSnapshot())
}

func handleStartGame(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		rt.Hub.SendTo(connID, room.EventStartGameFailed, map[string]any{"error": "not in room"})
		return
	}
	if !r.StartGame(playerID) {
		rt.Hub.SendTo(connID, room.EventStartGameFailed, map[string]any{"error": "already started"})
		return
	}
	rt.Hub.SendTo(connID, room.EventStartGameSuccess, map[string]any{"roomId": r.ID})
}

func handleLeaveRoom(rt *Router, connID string, _ json.RawMessage) {
	cleanupPlayer(rt, connID)
}

// HandleDisconnect runs the idempotent cleanup path for a connection that
// closed for any reason (client disconnect, stale-connection reaper, slow
// consumer eviction).
func (rt *Router) HandleDisconnect(connID string) {
	cleanupPlayer(rt, connID)
}

// cleanupPlayer is the one idempotent disconnect path (spec §7 Lifecycle):
// remove the player from its room, destroy the room if now empty, and clear
// the connection's room association so re-running it is a no-op.
func cleanupPlayer(rt *Router, connID string) {
	c := rt.conn(connID)
	if c == nil || c.RoomID == "" {
		return
	}
	roomID, playerID := c.RoomID, c.PlayerID
	if r := rt.Rooms.Get(roomID); r != nil {
		r.ClearPendingKill(playerID)
		r.RemovePlayer(playerID)
		rt.Rooms.RemoveIfEmpty(roomID)
	}
	rt.Hub.Registry.SetRoom(connID, "", "")
}

func handleHeartbeat(rt *Router, connID string, _ json.RawMessage) {
	rt.Hub.Registry.Touch(connID)
}

func handlePing(rt *Router, connID string, _ json.RawMessage) {
	rt.Hub.Registry.Touch(connID)
	rt.Hub.SendTo(connID, room.EventPong, map[string]any{})
}

func handlePreviewRoom(rt *Router, connID string, raw json.RawMessage) {
	var d previewRoomData
	if err := json.Unmarshal(raw, &d); err != nil || d.RoomID == "" {
		return
	}
	r := rt.Rooms.Get(d.RoomID)
	if r == nil {
		return
	}
	rt.Hub.SendTo(connID, room.EventRoomPreview, r.GetSnapshot())
}

// --- pass-through handlers -----------------------------------------------------

// passThroughExcludingSender validates room membership, stamps the
// sender's player id onto the payload, and re-broadcasts under serverEvent
// to every other connection in the room.
func passThroughExcludingSender(serverEvent room.EventType) handlerFunc {
	return func(rt *Router, connID string, raw json.RawMessage) {
		_, playerID, ok := rt.requireRoomAndPlayer(connID)
		if !ok {
			return
		}
		c := rt.conn(connID)
		payload := stampSender(raw, playerID)
		rt.Hub.Dispatch(room.Broadcast{
			RoomID: c.RoomID, Scope: room.ScopeRoomExcludingSender, ExcludeConnID: connID,
			Event: serverEvent, Data: payload,
		})
	}
}

// passThroughIncludingSender is identical but broadcasts to the whole room,
// including the sender, for events where client-side consistency requires
// every client (sender included) to observe the same authoritative echo.
func passThroughIncludingSender(serverEvent room.EventType) handlerFunc {
	return func(rt *Router, connID string, raw json.RawMessage) {
		_, playerID, ok := rt.requireRoomAndPlayer(connID)
		if !ok {
			return
		}
		c := rt.conn(connID)
		payload := stampSender(raw, playerID)
		rt.Hub.Dispatch(room.Broadcast{
			RoomID: c.RoomID, Scope: room.ScopeRoom, Event: serverEvent, Data: payload,
		})
	}
}

func stampSender(raw json.RawMessage, playerID string) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		payload = map[string]any{}
	}
	payload["playerId"] = playerID
	return payload
}

func handlePlayerUpdate(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d playerUpdateData
	if err := json.Unmarshal(raw, &d); err != nil {
		return
	}
	if !r.UpdatePlayerPosition(playerID, d.Position, d.Rotation, d.MovementDirection) {
		return
	}
	if d.Weapon != "" {
		r.UpdatePlayerWeapon(playerID, d.Weapon, "")
	}
	if d.Health != nil {
		r.UpdatePlayerHealth(playerID, *d.Health)
	}
	c := rt.conn(connID)
	rt.Hub.Dispatch(room.Broadcast{
		RoomID: c.RoomID, Scope: room.ScopeRoomExcludingSender, ExcludeConnID: connID,
		Event: room.EventPlayerMoved, Data: map[string]any{
			"playerId": playerID, "position": d.Position, "rotation": d.Rotation,
			"movementDirection": d.MovementDirection,
		},
	})
}

func handleWeaponChanged(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d weaponChangedData
	if err := json.Unmarshal(raw, &d); err != nil {
		return
	}
	if !r.UpdatePlayerWeapon(playerID, d.Weapon, d.Subclass) {
		return
	}
	c := rt.conn(connID)
	rt.Hub.Dispatch(room.Broadcast{
		RoomID: c.RoomID, Scope: room.ScopeRoomExcludingSender, ExcludeConnID: connID,
		Event: room.EventPlayerWeaponChanged,
		Data:  map[string]any{"playerId": playerID, "weapon": d.Weapon, "subclass": d.Subclass},
	})
}

// --- state-mutating handlers ---------------------------------------------------

func handlePlayerHealthChanged(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d playerHealthChangedData
	if err := json.Unmarshal(raw, &d); err != nil {
		return
	}
	if !r.UpdatePlayerHealth(playerID, d.Health) {
		return
	}
	p := r.GetPlayer(playerID)
	c := rt.conn(connID)
	rt.Hub.Dispatch(room.Broadcast{
		RoomID: c.RoomID, Scope: room.ScopeRoom, Event: room.EventPlayerHealthUpdated,
		Data: map[string]any{"playerId": playerID, "health": p.Health, "maxHealth": p.MaxHealth},
	})
}

func handlePlayerShieldChanged(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d playerShieldChangedData
	if err := json.Unmarshal(raw, &d); err != nil {
		return
	}
	if !r.UpdatePlayerShield(playerID, d.Shield) {
		return
	}
	c := rt.conn(connID)
	rt.Hub.Dispatch(room.Broadcast{
		RoomID: c.RoomID, Scope: room.ScopeRoom, Event: room.EventPlayerShieldChanged,
		Data: map[string]any{"playerId": playerID, "shield": d.Shield},
	})
}

func handlePlayerEssenceChanged(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d playerEssenceChangedData
	if err := json.Unmarshal(raw, &d); err != nil {
		return
	}
	if !r.UpdatePlayerEssence(playerID, d.Essence) {
		return
	}
	c := rt.conn(connID)
	rt.Hub.Dispatch(room.Broadcast{
		RoomID: c.RoomID, Scope: room.ScopeRoom, Event: room.EventPlayerEssenceChanged,
		Data: map[string]any{"playerId": playerID, "essence": d.Essence},
	})
}

func handlePlayerLevelChanged(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d playerLevelChangedData
	if err := json.Unmarshal(raw, &d); err != nil {
		return
	}
	if !r.UpdatePlayerLevel(playerID, d.Level) {
		return
	}
	c := rt.conn(connID)
	rt.Hub.Dispatch(room.Broadcast{
		RoomID: c.RoomID, Scope: room.ScopeRoom, Event: room.EventPlayerLevelChanged,
		Data: map[string]any{"playerId": playerID, "level": d.Level},
	})
}

func handlePlayerPurchase(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d playerPurchaseData
	if err := json.Unmarshal(raw, &d); err != nil || d.ItemID == "" {
		return
	}
	if !r.MarkPurchased(playerID, d.ItemID) {
		return
	}
	c := rt.conn(connID)
	rt.Hub.Dispatch(room.Broadcast{
		RoomID: c.RoomID, Scope: room.ScopeRoom, Event: room.EventPlayerPurchase,
		Data: map[string]any{"playerId": playerID, "itemId": d.ItemID},
	})
}

func handlePlayerDied(rt *Router, connID string, _ json.RawMessage) {
	_, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	c := rt.conn(connID)
	rt.Hub.Dispatch(room.Broadcast{
		RoomID: c.RoomID, Scope: room.ScopeRoom, Event: room.EventPlayerDied,
		Data: map[string]any{"playerId": playerID},
	})
}

func handlePlayerRespawn(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	r.ConfirmPlayerDeath(playerID)
}

func handlePlayerDamage(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d playerDamageData
	if err := json.Unmarshal(raw, &d); err != nil || d.TargetPlayerID == "" {
		return
	}
	if d.TargetPlayerID == playerID {
		return
	}
	r.DamagePlayer(d.TargetPlayerID, d.Damage, playerID, d.DamageType)
}

func handleHealAllies(rt *Router, connID string, raw json.RawMessage) {
	r, _, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d healAlliesData
	if err := json.Unmarshal(raw, &d); err != nil || d.Amount <= 0 {
		return
	}
	r.HealAllies(d.Amount)
}

func handleHealNearbyAllies(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d healAlliesData
	if err := json.Unmarshal(raw, &d); err != nil || d.Amount <= 0 || d.Radius <= 0 {
		return
	}
	r.HealNearbyAllies(playerID, d.Amount, d.Radius)
}

// handlePlayerHealing applies the sender's self-heal authoritatively (clamped,
// dead players ignored) and echoes the healing event to the whole room,
// sender included.
func handlePlayerHealing(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d playerHealingData
	if err := json.Unmarshal(raw, &d); err != nil {
		return
	}
	if d.Amount > 0 {
		r.HealPlayer(playerID, d.Amount)
	}
	c := rt.conn(connID)
	rt.Hub.Dispatch(room.Broadcast{
		RoomID: c.RoomID, Scope: room.ScopeRoom, Event: room.EventPlayerHealing,
		Data: stampSender(raw, playerID),
	})
}

func handleEnemyDamage(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d enemyDamageData
	if err := json.Unmarshal(raw, &d); err != nil || d.EnemyID == "" {
		return
	}
	r.DamageEnemy(d.EnemyID, d.Damage, playerID)
}

// handleEnemyPositionUpdate validates room membership and otherwise drops
// the message: enemy position is authoritative server state driven by the
// Enemy AI tick (§4.3), so a client-reported position never mutates it.
func handleEnemyPositionUpdate(rt *Router, connID string, _ json.RawMessage) {
	_, _, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
}

func handleApplyStatusEffect(rt *Router, connID string, raw json.RawMessage) {
	r, _, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d applyStatusEffectData
	if err := json.Unmarshal(raw, &d); err != nil || d.EnemyID == "" {
		return
	}
	r.ApplyStatusEffect(d.EnemyID, room.StatusEffectType(d.Effect), durationFromMillis(d.DurationMs))
}

func handleGetEnemyStatus(rt *Router, connID string, raw json.RawMessage) {
	r, _, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d getEnemyStatusData
	if err := json.Unmarshal(raw, &d); err != nil || d.EnemyID == "" {
		return
	}
	effects := r.GetStatusEffects(d.EnemyID)
	rt.Hub.SendTo(connID, room.EventEnemyStatusResponse, map[string]any{
		"enemyId": d.EnemyID, "effects": effects,
	})
}

func handleTowerDamage(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d towerDamageData
	if err := json.Unmarshal(raw, &d); err != nil || d.TowerID == "" {
		return
	}
	expectedSelf := fmt.Sprintf("tower_%s", playerID)
	if d.TowerID == expectedSelf {
		return
	}
	r.DamageTower(d.TowerID, d.Damage, playerID, d.DamageType)
}

func handlePillarDamage(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d pillarDamageData
	if err := json.Unmarshal(raw, &d); err != nil || d.PillarID == "" {
		return
	}
	r.DamagePillar(d.PillarID, d.Damage, playerID)
}

func handleSummonedUnitDamage(rt *Router, connID string, raw json.RawMessage) {
	r, playerID, ok := rt.requireRoomAndPlayer(connID)
	if !ok {
		return
	}
	var d summonedUnitDamageData
	if err := json.Unmarshal(raw, &d); err != nil || d.UnitID == "" {
		return
	}
	if d.UnitOwnerID == playerID {
		return
	}
	r.DamageSummonedUnit(d.UnitID, d.Damage, playerID)
}
