package room

import "time"

// EnemyDamageResult is the outcome of a successful damageEnemy call.
type EnemyDamageResult struct {
	EnemyID   string
	NewHealth int
	MaxHealth int
	WasKilled bool
}

// DamageEnemy is the single entry point for applying damage to a PvE enemy.
// Returns nil if the enemy is absent or already dying.
func (r *Room) DamageEnemy(enemyID string, dmg int, fromID string) *EnemyDamageResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.enemies[enemyID]
	if !ok || e.IsDying {
		return nil
	}
	if dmg < 0 {
		dmg = 0
	}

	prev := e.Health
	e.Health -= dmg
	if e.Health < 0 {
		e.Health = 0
	}
	wasKilled := prev > 0 && e.Health == 0

	r.broadcastRoom(EventEnemyDamaged, map[string]any{
		"enemyId": enemyID, "newHealth": e.Health, "maxHealth": e.MaxHealth,
		"wasKilled": wasKilled, "fromPlayerId": fromID,
	})

	if wasKilled {
		r.resolveEnemyKillLocked(e, fromID)
	} else if entry, ok := r.aggro[enemyID]; ok {
		entry.targetPlayerID = fromID
		entry.aggro += 50
	}

	return &EnemyDamageResult{EnemyID: enemyID, NewHealth: e.Health, MaxHealth: e.MaxHealth, WasKilled: wasKilled}
}

func (r *Room) resolveEnemyKillLocked(e *Enemy, fromID string) {
	e.IsDying = true
	e.DeathTime = time.Now()
	delete(r.aggro, e.ID)

	linger := r.cfg.Ticks.EnemyDeathLinger
	if e.Type == EnemyBossSkeleton {
		linger = r.cfg.Ticks.BossSkeletonLinger
	}
	id := e.ID
	r.scheduleDeleteLocked(linger, func() {
		r.mu.Lock()
		delete(r.enemies, id)
		r.mu.Unlock()
		r.broadcastRoom(EventEnemyRemoved, map[string]any{"enemyId": id})
	})

	switch e.Type {
	case EnemyBoss:
		for _, p := range r.players {
			r.awardXPLocked(p.ID, 100, "boss_kill")
		}
		r.broadcastRoom(EventBossDefeated, map[string]any{"enemyId": e.ID})
	case EnemyBossSkeleton:
		r.awardXPLocked(fromID, 5, "boss_skeleton_kill")
	default:
		r.KillCount++
		for _, p := range r.players {
			if r.Mode == ModeMultiplayer {
				p.MaxHealth = baseMultiplayerMaxHealth + r.KillCount
			}
			p.Health = clamp(p.Health+1, 0, p.MaxHealth)
		}
		r.broadcastRoom(EventKillCountUpdated, map[string]any{"killCount": r.KillCount, "killedBy": fromID})
		for _, p := range r.players {
			r.broadcastRoom(EventPlayerHealthUpdated, map[string]any{
				"playerId": p.ID, "health": p.Health, "maxHealth": p.MaxHealth,
			})
		}
	}
}

// scheduleDeleteLocked runs fn after d on its own goroutine. Must be called
// with r.mu held; fn must not assume the lock is held when it runs.
func (r *Room) scheduleDeleteLocked(d time.Duration, fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if d <= 0 {
			fn()
			return
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			fn()
		case <-r.stopCh:
		}
	}()
}

// DamageTower applies damage to a PvP tower. Only opponents may damage a
// tower in practice (enforced by the event router); the controller itself
// only rejects damage to an already-dead tower.
func (r *Room) DamageTower(towerID string, dmg int, fromID, damageType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.towers[towerID]
	if !ok || t.IsDead {
		return false
	}
	if dmg < 0 {
		dmg = 0
	}
	t.Health -= dmg
	if t.Health < 0 {
		t.Health = 0
	}
	wasKilled := t.Health == 0

	r.broadcastRoom(EventTowerDamaged, map[string]any{
		"towerId": towerID, "newHealth": t.Health, "maxHealth": t.MaxHealth,
		"wasKilled": wasKilled, "fromPlayerId": fromID, "damageType": damageType,
	})

	if wasKilled {
		t.IsDead = true
		id := towerID
		r.scheduleDeleteLocked(r.cfg.Ticks.TowerDeathLinger, func() {
			r.broadcastRoom(EventTowerDestroyed, map[string]any{"towerId": id})
		})
	}
	return true
}

// DamagePillar applies damage to a PvP pillar. Rejects self-damage by the
// pillar's own owner.
func (r *Room) DamagePillar(pillarID string, dmg int, fromID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pillars[pillarID]
	if !ok || p.IsDead {
		return false
	}
	if fromID == p.OwnerID {
		return false
	}
	if dmg < 0 {
		dmg = 0
	}
	p.Health -= dmg
	if p.Health < 0 {
		p.Health = 0
	}
	wasKilled := p.Health == 0

	r.broadcastRoom(EventPillarDamaged, map[string]any{
		"pillarId": pillarID, "newHealth": p.Health, "maxHealth": p.MaxHealth,
		"wasKilled": wasKilled, "fromPlayerId": fromID,
	})

	if wasKilled {
		p.IsDead = true
		r.destroyedEnemyPillars[p.OwnerID]++
		id := pillarID
		r.scheduleDeleteLocked(r.cfg.Ticks.PillarDeathLinger, func() {
			r.broadcastRoom(EventPillarDestroyed, map[string]any{"pillarId": id})
		})
	}
	return true
}

// DamageSummonedUnit applies damage to a summoned unit. Rejects self-damage
// by the unit's own owner. Awards PvP XP to the attacker on kill.
func (r *Room) DamageSummonedUnit(unitID string, dmg int, fromID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.summonedUnits[unitID]
	if !ok || u.IsDead {
		return false
	}
	if fromID == u.OwnerID {
		return false
	}
	if dmg < 0 {
		dmg = 0
	}
	u.Health -= dmg
	if u.Health < 0 {
		u.Health = 0
	}
	wasKilled := u.Health == 0

	r.broadcastRoom(EventSummonedUnitDamaged, map[string]any{
		"unitId": unitID, "newHealth": u.Health, "maxHealth": u.MaxHealth,
		"wasKilled": wasKilled, "fromPlayerId": fromID,
	})

	if wasKilled {
		u.IsDead = true
		if r.Mode == ModePvP {
			r.awardXPLocked(fromID, 5, "summoned_unit_kill")
		}
	}
	return true
}

// DamagePlayer applies PvP player-vs-player damage. Rejects damage to an
// already-dead target. On the killing blow, records a pending kill instead
// of awarding XP immediately (see ConfirmPlayerDeath).
func (r *Room) DamagePlayer(targetID string, dmg int, fromID, damageType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.players[targetID]
	if !ok || target.IsDead() {
		return false
	}
	if dmg < 0 {
		dmg = 0
	}
	target.Health -= dmg
	if target.Health < 0 {
		target.Health = 0
	}
	wasKilled := target.Health == 0

	r.broadcastRoom(EventPlayerDamaged, map[string]any{
		"playerId": targetID, "newHealth": target.Health, "wasKilled": wasKilled,
		"fromPlayerId": fromID, "damageType": damageType,
	})

	if wasKilled {
		attacker := r.players[fromID]
		killerName := fromID
		if attacker != nil {
			killerName = attacker.Name
		}
		r.setPendingKillLocked(targetID, fromID, killerName, target.Name, damageType)
		r.broadcastRoom(EventPlayerKill, map[string]any{"killerId": fromID, "victimId": targetID})
	}
	return true
}

// HealPlayer applies a clamped heal; ignored for dead players.
func (r *Room) HealPlayer(id string, amount int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok || p.IsDead() {
		return false
	}
	r.healPlayerLocked(p, amount)
	return true
}

func (r *Room) healPlayerLocked(p *Player, amount int) {
	p.Health = clamp(p.Health+amount, 0, p.MaxHealth)
	r.broadcastRoom(EventAllyHealed, map[string]any{"playerId": p.ID, "health": p.Health, "amount": amount})
}

// HealAllies heals every living player in the room, one ally-healed delta
// per player touched. Returns the number of players healed.
func (r *Room) HealAllies(amount int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	healed := 0
	for _, p := range r.players {
		if p.IsDead() {
			continue
		}
		r.healPlayerLocked(p, amount)
		healed++
	}
	return healed
}

// HealNearbyAllies heals living players within radius of the healer,
// the healer included. Returns the number of players healed; 0 if the
// healer is absent.
func (r *Room) HealNearbyAllies(healerID string, amount int, radius float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	healer, ok := r.players[healerID]
	if !ok {
		return 0
	}
	healed := 0
	for _, p := range r.players {
		if p.IsDead() || distance(healer.Position, p.Position) > radius {
			continue
		}
		r.healPlayerLocked(p, amount)
		healed++
	}
	return healed
}

// --- status effects ----------------------------------------------------------

// ApplyStatusEffect records an effect's expiration for an enemy.
func (r *Room) ApplyStatusEffect(enemyID string, effect StatusEffectType, duration time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.enemies[enemyID]; !ok {
		return false
	}
	m, ok := r.statusEffects[enemyID]
	if !ok {
		m = make(map[StatusEffectType]time.Time)
		r.statusEffects[enemyID] = m
	}
	m[effect] = time.Now().Add(duration)
	r.broadcastRoom(EventEnemyStatusEffect, map[string]any{
		"enemyId": enemyID, "effect": effect, "durationMs": duration.Milliseconds(),
	})
	return true
}

// GetStatusEffects returns the live (expiration-pruned) effect set for an
// enemy, answering the get-enemy-status query.
func (r *Room) GetStatusEffects(enemyID string) map[StatusEffectType]time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.statusEffects[enemyID]
	if !ok {
		return nil
	}
	now := time.Now()
	out := make(map[StatusEffectType]time.Duration)
	for effect, expiry := range m {
		if expiry.Before(now) {
			delete(m, effect)
			continue
		}
		out[effect] = expiry.Sub(now)
	}
	return out
}

// IsAffectedBy reports whether an enemy currently carries a live effect.
func (r *Room) IsAffectedBy(enemyID string, effect StatusEffectType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.statusEffects[enemyID]
	if !ok {
		return false
	}
	expiry, ok := m[effect]
	if !ok {
		return false
	}
	if expiry.Before(time.Now()) {
		delete(m, effect)
		return false
	}
	return true
}

// --- pending kills ------------------------------------------------------------

func (r *Room) setPendingKillLocked(victimID, killerID, killerName, victimName, damageType string) {
	r.pruneExpiredPendingKillsLocked()
	r.pendingKills[victimID] = &PendingKill{
		KillerID: killerID, KillerName: killerName, VictimName: victimName,
		DamageType: damageType, At: time.Now(),
	}
}

func (r *Room) pruneExpiredPendingKillsLocked() {
	cutoff := time.Now().Add(-r.cfg.Ticks.PendingKillExpiry)
	for victim, pk := range r.pendingKills {
		if pk.At.Before(cutoff) {
			delete(r.pendingKills, victim)
		}
	}
}

// ConfirmPlayerDeath is invoked on a player-respawn message. The victim is
// always restored to full health and announced; if a pending kill exists for
// them, PvP kill XP goes to the killer and the entry is cleared. Stale
// (>10s) entries never award XP.
func (r *Room) ConfirmPlayerDeath(victimID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneExpiredPendingKillsLocked()
	if pk, ok := r.pendingKills[victimID]; ok {
		delete(r.pendingKills, victimID)
		r.awardXPLocked(pk.KillerID, 10, "pvp_player_kill")
	}

	if p, ok := r.players[victimID]; ok {
		p.Health = p.MaxHealth
		r.broadcastRoom(EventPlayerRespawned, map[string]any{"playerId": victimID, "health": p.Health})
	}
}

// ClearPendingKill discards a pending kill without awarding XP (used when a
// victim leaves the room instead of respawning).
func (r *Room) ClearPendingKill(victimID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pendingKills, victimID)
}
