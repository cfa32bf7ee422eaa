package ws

import (
	"log/slog"
	"time"
)

// supervise runs the periodic liveness sweep. A connection silent for longer
// than heartbeat_interval × (max_missed_beats + 1) is terminated and removed
// through the normal teardown path; a frame arriving before the sweep fires
// moves it back to active. Termination is final — a Conn is never reused.
func (h *Hub) supervise() {
	ticker := time.NewTicker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.sweep(time.Now())
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) sweep(now time.Time) int {
	threshold := h.cfg.staleAfter()
	terminated := 0
	for _, c := range h.registry.AllConns() {
		idle := c.idleFor(now)
		if idle <= threshold {
			continue
		}
		slog.Info("terminating stale connection",
			"connID", c.id, "userID", c.identity.UserID, "admin", c.identity.Admin, "idle", idle)
		h.drop(c, CloseGoingAway, "heartbeat timeout")
		terminated++
	}

	// Survivors are still live; let sinks with expiring state (presence TTLs)
	// re-arm it.
	for _, id := range h.registry.UserIDs() {
		h.notify(ConnectionEvent{Kind: "refresh", UserID: id, At: now})
	}
	return terminated
}
