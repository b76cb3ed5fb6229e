package room

// awardXPLocked emits a pure experience-award event. The server keeps no
// authoritative XP total beyond what each event already carries; clients
// apply the award and handle level-up presentation themselves, except
// where PvP requires the server to track a derived value (essence,
// purchases), which are mutated through their own command methods.
// Must be called with r.mu held.
func (r *Room) awardXPLocked(playerID string, amount int, source string) {
	if playerID == "" {
		return
	}
	r.broadcastRoom(EventPlayerExperienceGain, map[string]any{
		"playerId": playerID,
		"amount":   amount,
		"source":   source,
	})
}
