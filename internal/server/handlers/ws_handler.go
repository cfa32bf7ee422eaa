package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"tutor-service/internal/server/middleware"
	"tutor-service/internal/ws"

	"github.com/gin-gonic/gin"
)

// PresenceReader is the Redis-side view of who is online, used to enrich the
// status payload beyond this process's own registry.
type PresenceReader interface {
	OnlineUsers(ctx context.Context, userIDs []uint) ([]uint, error)
}

// StatusResponse combines the registry snapshot with the Redis presence
// flags for the same user ids.
type StatusResponse struct {
	Stats  ws.Stats `json:"stats"`
	Online []uint   `json:"online_users"`
}

type WSHandler struct {
	hub      *ws.Hub
	presence PresenceReader
}

func NewWSHandler(hub *ws.Hub, presence PresenceReader) *WSHandler {
	return &WSHandler{hub: hub, presence: presence}
}

// Connect upgrades an authenticated user onto the user namespace.
func (h *WSHandler) Connect(c *gin.Context) {
	identity := ws.Identity{UserID: middleware.UserID(c)}
	ws.Serve(h.hub, c.Writer, c.Request, identity)
}

// ConnectAdmin upgrades onto the admin namespace. Authenticated callers
// without the admin claim get a websocket-level policy close so admin
// dashboards can distinguish "denied" from "unreachable".
func (h *WSHandler) ConnectAdmin(c *gin.Context) {
	if !middleware.IsAdmin(c) {
		ws.Reject(c.Writer, c.Request, ws.ClosePolicyAdmin, "admin access required")
		return
	}
	identity := ws.Identity{UserID: middleware.UserID(c), Admin: true}
	ws.Serve(h.hub, c.Writer, c.Request, identity)
}

// @Summary Connection statistics
// @Description Snapshot of live connection counts per namespace plus Redis-side presence
// @Tags ws
// @Produce json
// @Success 200 {object} handlers.StatusResponse
// @Router /ws/status [get]
func (h *WSHandler) Status(c *gin.Context) {
	stats := h.hub.Stats()

	online := []uint{}
	if h.presence != nil {
		ids := make([]uint, 0, len(stats.Users.Connections))
		for id := range stats.Users.Connections {
			ids = append(ids, id)
		}
		flagged, err := h.presence.OnlineUsers(c.Request.Context(), ids)
		if err != nil {
			// Presence is advisory; the registry snapshot still goes out.
			slog.Warn("presence lookup failed", "error", err)
		} else if flagged != nil {
			online = flagged
		}
	}
	sort.Slice(online, func(i, j int) bool { return online[i] < online[j] })

	c.JSON(http.StatusOK, StatusResponse{Stats: stats, Online: online})
}
