package room

import (
	"fmt"
	"math"
	"time"

	"github.com/RidwanSharkar/Erebus-sub004/internal/config"
)

// spawnInitialElites seeds a multiplayer room with its opening elites.
func (r *Room) spawnInitialElites(count int) {
	r.mu.Lock()
	level := LevelFromKillCount(r.KillCount)
	enemies := make([]*Enemy, 0, count)
	for i := 0; i < count; i++ {
		if e := r.spawnEnemyLocked(EnemyElite, level); e != nil {
			enemies = append(enemies, e)
		}
	}
	r.mu.Unlock()
	for _, e := range enemies {
		r.broadcastRoom(EventEnemySpawned, e)
	}
}

// startSpawnEngine launches one periodic goroutine per PvE spawn category.
// Suppressed entirely in PvP; coop uses a one-shot boss spawn instead (see
// scheduleBossSpawn).
func (r *Room) startSpawnEngine() {
	if r.Mode != ModeMultiplayer {
		return
	}
	for _, spawner := range r.cfg.Spawners {
		sp := spawner
		r.wg.Add(1)
		go r.runSpawner(sp)
	}
}

func (r *Room) runSpawner(sp config.SpawnerConfig) {
	defer r.wg.Done()
	ticker := time.NewTicker(sp.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.trySpawn(sp)
		}
	}
}

func (r *Room) trySpawn(sp config.SpawnerConfig) {
	r.mu.Lock()
	level := LevelFromKillCount(r.KillCount)
	if level < sp.MinLevel {
		r.mu.Unlock()
		return
	}
	freeSlots := r.cfg.RoomLimits.MaxEnemies - len(r.enemies)
	if freeSlots <= 0 {
		r.mu.Unlock()
		return
	}
	if sp.TypeCap > 0 {
		alive := 0
		for _, e := range r.enemies {
			if string(e.Type) == sp.Type && !e.IsDying {
				alive++
			}
		}
		if alive >= sp.TypeCap {
			r.mu.Unlock()
			return
		}
	}
	count := sp.CountMax
	if count > freeSlots {
		count = freeSlots
	}
	spawned := make([]*Enemy, 0, count)
	for i := 0; i < count; i++ {
		if e := r.spawnEnemyLocked(EnemyType(sp.Type), level); e != nil {
			spawned = append(spawned, e)
		}
	}
	r.mu.Unlock()

	for _, e := range spawned {
		r.broadcastRoom(EventEnemySpawned, e)
	}
}

// spawnEnemyLocked creates one enemy at a random ring position. Must be
// called with r.mu held.
func (r *Room) spawnEnemyLocked(t EnemyType, level int) *Enemy {
	if len(r.enemies) >= r.cfg.RoomLimits.MaxEnemies {
		return nil
	}
	angle := r.rng.Float64() * 2 * math.Pi
	dist := 5 + r.rng.Float64()*15 // 5..20
	pos := Vector3{X: dist * math.Cos(angle), Y: 0, Z: dist * math.Sin(angle)}

	id := fmt.Sprintf("%s_%d_%d", t, level, r.rng.Int63())
	maxHP := EnemyMaxHealth(t, level)
	e := &Enemy{
		ID:        id,
		Type:      t,
		Position:  pos,
		Health:    maxHP,
		MaxHealth: maxHP,
		SpawnedAt: time.Now(),
	}
	r.enemies[id] = e
	r.aggro[id] = &aggroEntry{}
	return e
}

// scheduleBossSpawn fires the coop one-shot boss spawn at t+BossSpawnDelay.
func (r *Room) scheduleBossSpawn() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTimer(r.cfg.Ticks.BossSpawnDelay)
		defer t.Stop()
		select {
		case <-r.stopCh:
			return
		case <-t.C:
		}
		r.mu.Lock()
		id := fmt.Sprintf("boss_%d", r.rng.Int63())
		boss := &Enemy{
			ID:        id,
			Type:      EnemyBoss,
			Position:  Vector3{},
			Health:    bossHealth,
			MaxHealth: bossHealth,
			SpawnedAt: time.Now(),
		}
		r.enemies[id] = boss
		r.aggro[id] = &aggroEntry{}
		r.mu.Unlock()

		r.broadcastRoom(EventBossSpawned, boss)
	}()
}
