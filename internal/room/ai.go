package room

import "math"

// startEnemyAI launches the 100ms aggro/pursuit ticker for PvE enemies.
func (r *Room) startEnemyAI() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runTicker(r.cfg.Ticks.EnemyAIInterval, r.tickEnemyAI)
	}()
}

func (r *Room) tickEnemyAI() {
	r.mu.Lock()

	type move struct {
		id       string
		pos      Vector3
		rotation float64
	}
	var moves []move

	for id, e := range r.enemies {
		if e.IsDying {
			continue
		}
		speed := enemyMoveSpeed[e.Type]
		entry, ok := r.aggro[id]
		if !ok {
			entry = &aggroEntry{}
			r.aggro[id] = entry
		}

		target := r.players[entry.targetPlayerID]
		if target == nil {
			target = r.closestPlayerLocked(e.Position)
			if target != nil {
				entry.targetPlayerID = target.ID
			}
		}
		if target == nil {
			continue
		}

		dx := target.Position.X - e.Position.X
		dz := target.Position.Z - e.Position.Z
		dist := math.Hypot(dx, dz)
		rotation := math.Atan2(dx, dz)

		if speed > 0 && dist >= 2.0 {
			step := speed * r.cfg.Ticks.EnemyAIInterval.Seconds()
			if step > dist {
				step = dist
			}
			e.Position.X += dx / dist * step
			e.Position.Z += dz / dist * step
		}
		e.Rotation = rotation
		moves = append(moves, move{id: id, pos: e.Position, rotation: rotation})
	}
	r.mu.Unlock()

	for _, m := range moves {
		r.broadcastRoom(EventEnemyMoved, map[string]any{
			"enemyId": m.id, "position": m.pos, "rotation": m.rotation,
		})
	}
}

// closestPlayerLocked returns the nearest living player to pos. Must be
// called with r.mu held.
func (r *Room) closestPlayerLocked(pos Vector3) *Player {
	var best *Player
	bestDist := math.MaxFloat64
	for _, p := range r.players {
		if p.IsDead() {
			continue
		}
		dx := p.Position.X - pos.X
		dy := p.Position.Y - pos.Y
		dz := p.Position.Z - pos.Z
		d := dx*dx + dy*dy + dz*dz
		if d < bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}
