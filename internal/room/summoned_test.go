package room

import (
	"testing"
	"time"
)

// seedWave creates a 3-unit wave owned by ownerID, attackable by anyone else.
func seedWave(r *Room, ownerID string) []string {
	wave := &Wave{WaveID: "wave_" + ownerID, OwnerID: ownerID, Units: make(map[string]bool)}
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		id := "unit_" + ownerID + "_" + string(rune('0'+i))
		r.summonedUnits[id] = &SummonedUnit{UnitID: id, OwnerID: ownerID, Health: 100, MaxHealth: 100}
		wave.Units[id] = true
		ids = append(ids, id)
	}
	r.waves[wave.WaveID] = wave
	r.waveByOwner[ownerID] = wave.WaveID
	return ids
}

// TestWaveCompletionAwardsXPAndDeletesWave exercises S3: killing every unit
// in a wave emits exactly one wave-completed event and awards PvP XP to the
// opponent, then deletes the wave entry.
func TestWaveCompletionAwardsXPAndDeletesWave(t *testing.T) {
	r, events := captureRoom(ModePvP)
	r.AddPlayer("p1", "Alice", "sword", "", ModePvP)
	r.AddPlayer("p2", "Bob", "bow", "", ModePvP)

	r.mu.Lock()
	ids := seedWave(r, "p1")
	r.LastGlobalSpawnAt = time.Now() // suppress the tick's own wave-spawn cadence
	r.mu.Unlock()

	for _, id := range ids {
		if !r.DamageSummonedUnit(id, 100, "p2") {
			t.Fatalf("expected damage to %s to succeed", id)
		}
	}

	r.tickSummonedUnits()

	waveCompletions := countEvents(*events, EventWaveCompleted)
	if waveCompletions != 1 {
		t.Errorf("wave-completed emitted %d times, want 1", waveCompletions)
	}
	if _, ok := r.waveByOwner["p1"]; ok {
		t.Error("wave entry for p1 should be deleted after completion")
	}
	xpEvents := filterEvents(*events, EventPlayerExperienceGain)
	found := false
	for _, e := range xpEvents {
		data, ok := e.Data.(map[string]any)
		if ok && data["playerId"] == "p2" && data["source"] == "pvp_wave_completion" {
			found = true
		}
	}
	if !found {
		t.Error("expected player-experience-gained{playerId=p2, source=pvp_wave_completion}")
	}
}

// TestSpawnWaveGrantsEliteFromDestroyedPillars exercises S2: a player whose
// opponent lost a pillar gets one elite unit in their next wave.
func TestSpawnWaveGrantsEliteFromDestroyedPillars(t *testing.T) {
	r, _ := captureRoom(ModePvP)
	r.AddPlayer("p1", "Alice", "sword", "", ModePvP)
	r.AddPlayer("p2", "Bob", "bow", "", ModePvP)

	r.mu.Lock()
	r.destroyedEnemyPillars["p2"] = 1 // p1 destroyed one of p2's pillars
	tower := r.towers["tower_p1"]
	r.spawnWaveForTowerLocked(tower, r.StartedAt)
	r.mu.Unlock()

	var eliteCount, normalCount int
	for _, u := range r.summonedUnits {
		if u.OwnerID != "p1" {
			continue
		}
		if u.IsElite {
			eliteCount++
			if u.MaxHealth != 1500 || u.AttackDamage != 120 {
				t.Errorf("elite unit stats = %d/%d dmg, want 1500/120", u.MaxHealth, u.AttackDamage)
			}
		} else {
			normalCount++
		}
	}
	if eliteCount != 1 {
		t.Errorf("elite units spawned for p1 = %d, want 1", eliteCount)
	}
	if eliteCount+normalCount != 3 {
		t.Errorf("total wave size = %d, want 3", eliteCount+normalCount)
	}
}

// TestBroadcastSummonedUnitUpdatesSkipsEmpty exercises the "emits nothing
// when there are no live units" rule.
func TestBroadcastSummonedUnitUpdatesSkipsEmpty(t *testing.T) {
	r, events := captureRoom(ModePvP)
	r.broadcastSummonedUnitUpdates()
	if countEvents(*events, EventSummonedUnitsUpdated) != 0 {
		t.Error("expected no summoned-units-updated broadcast when no units are live")
	}

	r.mu.Lock()
	r.summonedUnits["u1"] = &SummonedUnit{UnitID: "u1", OwnerID: "p1", IsActive: true, Health: 10, MaxHealth: 10}
	r.mu.Unlock()
	r.broadcastSummonedUnitUpdates()
	if countEvents(*events, EventSummonedUnitsUpdated) != 1 {
		t.Error("expected exactly one summoned-units-updated broadcast once a unit is live")
	}
}

func countEvents(events []Broadcast, event EventType) int {
	n := 0
	for _, e := range events {
		if e.Event == event {
			n++
		}
	}
	return n
}

func filterEvents(events []Broadcast, event EventType) []Broadcast {
	var out []Broadcast
	for _, e := range events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
