package room

import "time"

// runTicker drives fn at interval until the room stops. Each room-owned
// periodic goroutine uses this so Destroy()'s stopCh close cancels every
// timer uniformly.
func (r *Room) runTicker(interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			fn()
		}
	}
}
