package room

import (
	"testing"

	"github.com/RidwanSharkar/Erebus-sub004/internal/config"
)

func captureRoom(mode Mode) (*Room, *[]Broadcast) {
	cfg := config.Load()
	events := &[]Broadcast{}
	r := New("room-1", cfg, func(b Broadcast) { *events = append(*events, b) })
	if mode != "" {
		// mode is fixed on first join; pre-set so the caller can assert against it
		// before any player exists.
		r.Mode = mode
	}
	return r, events
}

func TestAddPlayerFixesModeOnFirstJoin(t *testing.T) {
	r, _ := captureRoom("")
	p := r.AddPlayer("p1", "Alice", "sword", "", ModePvP)
	if p == nil {
		t.Fatal("AddPlayer returned nil")
	}
	if r.Mode != ModePvP {
		t.Errorf("room mode = %s, want pvp", r.Mode)
	}
	// Second join with a different requested mode does not change the fixed mode.
	p2 := r.AddPlayer("p2", "Bob", "bow", "", ModeMultiplayer)
	if p2 == nil {
		t.Fatal("AddPlayer returned nil for second player")
	}
	if r.Mode != ModePvP {
		t.Errorf("room mode changed on second join: %s", r.Mode)
	}
}

func TestAddPlayerRejectsDuplicateAndFull(t *testing.T) {
	r, _ := captureRoom(ModeMultiplayer)
	if p := r.AddPlayer("p1", "Alice", "sword", "", ModeMultiplayer); p == nil {
		t.Fatal("first AddPlayer should succeed")
	}
	if p := r.AddPlayer("p1", "Alice", "sword", "", ModeMultiplayer); p != nil {
		t.Error("duplicate AddPlayer should return nil")
	}
	for i := 2; i <= 5; i++ {
		id := string(rune('a' + i))
		if p := r.AddPlayer(id, id, "sword", "", ModeMultiplayer); p == nil {
			t.Fatalf("AddPlayer %d should succeed", i)
		}
	}
	if p := r.AddPlayer("p6", "Overflow", "sword", "", ModeMultiplayer); p != nil {
		t.Error("6th AddPlayer into a full room should return nil")
	}
}

func TestAddPlayerPvPCreatesTowerAndPillars(t *testing.T) {
	r, _ := captureRoom(ModePvP)
	r.AddPlayer("p1", "Alice", "sword", "", ModePvP)

	if len(r.towers) != 1 {
		t.Fatalf("expected 1 tower, got %d", len(r.towers))
	}
	tower, ok := r.towers["tower_p1"]
	if !ok {
		t.Fatal("expected tower_p1 to exist")
	}
	if tower.Health != towerStartHealth || tower.MaxHealth != towerStartHealth {
		t.Errorf("tower health = %d/%d, want %d/%d", tower.Health, tower.MaxHealth, towerStartHealth, towerStartHealth)
	}
	if len(r.pillars) != 3 {
		t.Fatalf("expected 3 pillars, got %d", len(r.pillars))
	}
	for i := 0; i < 3; i++ {
		id := pillarID("p1", i)
		pl, ok := r.pillars[id]
		if !ok {
			t.Fatalf("expected pillar %s to exist", id)
		}
		if pl.Health != pillarStartHealth {
			t.Errorf("pillar %s health = %d, want %d", id, pl.Health, pillarStartHealth)
		}
	}

	// A third PvP join must not exceed the 2-tower cap.
	r.AddPlayer("p2", "Bob", "bow", "", ModePvP)
	r.AddPlayer("p3", "Carl", "bow", "", ModePvP)
	if len(r.towers) > 2 {
		t.Errorf("towers exceeded cap: %d", len(r.towers))
	}
}

func pillarID(owner string, index int) string {
	return "pillar_" + owner + "_" + string(rune('0'+index))
}

func TestStartGameIdempotent(t *testing.T) {
	r, _ := captureRoom(ModeMultiplayer)
	r.AddPlayer("p1", "Alice", "sword", "", ModeMultiplayer)

	if !r.StartGame("p1") {
		t.Fatal("first StartGame should succeed")
	}
	if r.StartGame("p1") {
		t.Error("second StartGame should fail (already started)")
	}
	defer r.Destroy()
}

func TestStartGameFailsForNonMember(t *testing.T) {
	r, _ := captureRoom(ModeMultiplayer)
	r.AddPlayer("p1", "Alice", "sword", "", ModeMultiplayer)
	if r.StartGame("ghost") {
		t.Error("StartGame should fail for a non-member initiator")
	}
}

func TestRemovePlayerNoopOnAbsent(t *testing.T) {
	r, _ := captureRoom(ModeMultiplayer)
	r.RemovePlayer("nobody") // must not panic
}

func TestRemovePlayerPvPKillsTowerAndPillars(t *testing.T) {
	r, _ := captureRoom(ModePvP)
	r.AddPlayer("p1", "Alice", "sword", "", ModePvP)
	r.RemovePlayer("p1")

	tower := r.towers["tower_p1"]
	if tower == nil || !tower.IsDead {
		t.Error("tower should be marked dead after owner leaves")
	}
	for _, pl := range r.pillars {
		if pl.OwnerID == "p1" && !pl.IsDead {
			t.Errorf("pillar %s should be marked dead after owner leaves", pl.ID)
		}
	}
}

func TestPlayerInvariantHealthBounds(t *testing.T) {
	r, _ := captureRoom(ModeMultiplayer)
	r.AddPlayer("p1", "Alice", "sword", "", ModeMultiplayer)

	r.UpdatePlayerHealth("p1", -50)
	if p := r.GetPlayer("p1"); p.Health != 0 {
		t.Errorf("health clamped low = %d, want 0", p.Health)
	}
	r.UpdatePlayerHealth("p1", 99999)
	p := r.GetPlayer("p1")
	if p.Health != p.MaxHealth {
		t.Errorf("health clamped high = %d, want maxHealth %d", p.Health, p.MaxHealth)
	}
}
