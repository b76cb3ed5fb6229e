package room

import "testing"

func TestSpawnEnemyLockedRespectsCap(t *testing.T) {
	r, _ := captureRoom(ModeMultiplayer)
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < r.cfg.RoomLimits.MaxEnemies; i++ {
		if e := r.spawnEnemyLocked(EnemySkeleton, 1); e == nil {
			t.Fatalf("expected spawn %d to succeed under the cap", i)
		}
	}
	if e := r.spawnEnemyLocked(EnemySkeleton, 1); e != nil {
		t.Error("spawning beyond MaxEnemies should return nil")
	}
	if len(r.enemies) != r.cfg.RoomLimits.MaxEnemies {
		t.Errorf("enemy count = %d, want %d", len(r.enemies), r.cfg.RoomLimits.MaxEnemies)
	}
}

func TestSpawnInitialElites(t *testing.T) {
	r, events := captureRoom(ModeMultiplayer)
	r.spawnInitialElites(2)

	count := 0
	for _, e := range r.enemies {
		if e.Type == EnemyElite {
			count++
		}
	}
	if count != 2 {
		t.Errorf("initial elite count = %d, want 2", count)
	}
	if countEvents(*events, EventEnemySpawned) != 2 {
		t.Error("expected one enemy-spawned broadcast per initial elite")
	}
}

func TestTrySpawnRespectsMinLevelAndTypeCap(t *testing.T) {
	r, _ := captureRoom(ModeMultiplayer)
	mageSpawner := r.cfg.Spawners[1] // mage: min level 1, type cap 2
	if mageSpawner.Type != "mage" {
		t.Fatalf("expected spawner[1] to be mage, got %s", mageSpawner.Type)
	}

	r.trySpawn(mageSpawner)
	r.trySpawn(mageSpawner)
	r.trySpawn(mageSpawner) // should be capped at 2 alive mages

	count := 0
	for _, e := range r.enemies {
		if e.Type == EnemyMage {
			count++
		}
	}
	if count != 2 {
		t.Errorf("alive mage count = %d, want 2 (type cap)", count)
	}
}

func TestTrySpawnGatedByLevel(t *testing.T) {
	r, _ := captureRoom(ModeMultiplayer)
	fallenTitan := r.cfg.Spawners[len(r.cfg.Spawners)-1]
	if fallenTitan.Type != "fallen-titan" {
		t.Fatalf("expected last spawner to be fallen-titan, got %s", fallenTitan.Type)
	}
	r.KillCount = 0 // level 1, below fallen-titan's min level 5

	r.trySpawn(fallenTitan)

	for _, e := range r.enemies {
		if e.Type == EnemyFallenTitan {
			t.Error("fallen-titan should not spawn below min level 5")
		}
	}
}
