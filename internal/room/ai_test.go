package room

import "testing"

func TestEnemyAITargetsClosestPlayer(t *testing.T) {
	r, events := captureRoom(ModeMultiplayer)
	r.AddPlayer("near", "Near", "sword", "", ModeMultiplayer)
	r.AddPlayer("far", "Far", "sword", "", ModeMultiplayer)

	r.mu.Lock()
	r.players["near"].Position = Vector3{X: 1, Y: 0, Z: 0}
	r.players["far"].Position = Vector3{X: 50, Y: 0, Z: 0}
	r.enemies["e1"] = &Enemy{ID: "e1", Type: EnemySkeleton, Position: Vector3{}, Health: 100, MaxHealth: 100}
	r.aggro["e1"] = &aggroEntry{}
	r.mu.Unlock()

	r.tickEnemyAI()

	r.mu.RLock()
	target := r.aggro["e1"].targetPlayerID
	r.mu.RUnlock()
	if target != "near" {
		t.Errorf("enemy targeted %q, want closest player %q", target, "near")
	}
	if countEvents(*events, EventEnemyMoved) != 1 {
		t.Error("expected one enemy-moved broadcast per live enemy per tick")
	}
}

func TestEnemyAIDoesNotMoveWithinStopDistance(t *testing.T) {
	r, _ := captureRoom(ModeMultiplayer)
	r.AddPlayer("p1", "Alice", "sword", "", ModeMultiplayer)

	r.mu.Lock()
	r.players["p1"].Position = Vector3{X: 1, Y: 0, Z: 0} // within the 2.0 stop distance
	r.enemies["e1"] = &Enemy{ID: "e1", Type: EnemySkeleton, Position: Vector3{}, Health: 100, MaxHealth: 100}
	r.aggro["e1"] = &aggroEntry{targetPlayerID: "p1"}
	r.mu.Unlock()

	r.tickEnemyAI()

	r.mu.RLock()
	pos := r.enemies["e1"].Position
	r.mu.RUnlock()
	if pos != (Vector3{}) {
		t.Errorf("enemy moved while within stop distance: %+v", pos)
	}
}

func TestEnemyAIRetargetsOnDamage(t *testing.T) {
	r, _ := captureRoom(ModeMultiplayer)
	r.AddPlayer("p1", "Alice", "sword", "", ModeMultiplayer)
	r.AddPlayer("p2", "Bob", "bow", "", ModeMultiplayer)

	r.mu.Lock()
	r.enemies["e1"] = &Enemy{ID: "e1", Type: EnemySkeleton, Health: 725, MaxHealth: 725}
	r.aggro["e1"] = &aggroEntry{targetPlayerID: "p1", aggro: 0}
	r.mu.Unlock()

	r.DamageEnemy("e1", 1, "p2")

	r.mu.RLock()
	entry := r.aggro["e1"]
	r.mu.RUnlock()
	if entry.targetPlayerID != "p2" {
		t.Errorf("aggro target after damage = %q, want p2", entry.targetPlayerID)
	}
	if entry.aggro != 50 {
		t.Errorf("aggro value after damage = %v, want 50", entry.aggro)
	}
}

func TestEnemyAIAggroRemovedOnDeath(t *testing.T) {
	r, _ := captureRoom(ModeMultiplayer)
	r.AddPlayer("p1", "Alice", "sword", "", ModeMultiplayer)

	r.mu.Lock()
	r.enemies["e1"] = &Enemy{ID: "e1", Type: EnemySkeleton, Health: 10, MaxHealth: 10}
	r.aggro["e1"] = &aggroEntry{targetPlayerID: "p1"}
	r.mu.Unlock()

	r.DamageEnemy("e1", 10, "p1")

	r.mu.RLock()
	_, stillTracked := r.aggro["e1"]
	r.mu.RUnlock()
	if stillTracked {
		t.Error("aggro entry should be removed once the enemy dies")
	}
}
