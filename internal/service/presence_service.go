package service

import (
	"context"
	"log/slog"
	"time"

	"tutor-service/internal/repository"
	"tutor-service/internal/ws"
)

// PresenceService mirrors connection lifecycle into Redis: a user is flagged
// online on their first connection, re-armed on every supervisor refresh so
// the TTL outlives long-held connections, and cleared on their last
// disconnect. It implements ws.EventSink.
type PresenceService struct {
	repo repository.PresenceRepository
}

func NewPresenceService(repo repository.PresenceRepository) *PresenceService {
	return &PresenceService{repo: repo}
}

func (p *PresenceService) ConnectionEvent(ev ws.ConnectionEvent) {
	if ev.Admin {
		return
	}
	// Sinks must not block the session goroutine; Redis happens off to the side.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		var err error
		switch {
		case ev.Kind == "connect" || ev.Kind == "refresh":
			err = p.repo.SetOnline(ctx, ev.UserID)
		case ev.Kind == "disconnect" && ev.Last:
			err = p.repo.SetOffline(ctx, ev.UserID)
		}
		if err != nil {
			slog.Warn("presence update failed", "userID", ev.UserID, "kind", ev.Kind, "error", err)
		}
	}()
}

// IsOnline reports the Redis-side presence flag.
func (p *PresenceService) IsOnline(ctx context.Context, userID uint) (bool, error) {
	return p.repo.IsOnline(ctx, userID)
}

// OnlineUsers filters ids down to those currently flagged online.
func (p *PresenceService) OnlineUsers(ctx context.Context, userIDs []uint) ([]uint, error) {
	return p.repo.OnlineUsers(ctx, userIDs)
}
