package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Session owns one connection's lifecycle after identity is established:
// it consumes inbound frames, dispatches decoded events and guarantees the
// registry is cleaned up when the transport dies, no matter which of the
// possible termination triggers fires first.
type Session struct {
	hub  *Hub
	conn *Conn
}

// Conn returns the session's connection, mainly for the status surface and
// tests.
func (s *Session) Conn() *Conn { return s.conn }

// Close force-terminates the session through the normal teardown path.
func (s *Session) Close(code int, reason string) {
	s.hub.drop(s.conn, code, reason)
}

// Done is closed when the session's connection has been torn down.
func (s *Session) Done() <-chan struct{} { return s.conn.done }

func (s *Session) readLoop() {
	c := s.conn
	defer s.hub.drop(c, CloseNormal, "connection closed")

	c.sock.SetReadLimit(maxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(s.hub.cfg.staleAfter()))
	c.sock.SetPongHandler(func(string) error {
		c.touch()
		return c.sock.SetReadDeadline(time.Now().Add(s.hub.cfg.staleAfter()))
	})

	for {
		select {
		case <-c.done:
			return
		case <-s.hub.ctx.Done():
			return
		default:
		}

		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("read failed", "connID", c.id, "userID", c.identity.UserID, "error", err)
			}
			return
		}

		// Any inbound frame counts as liveness, including malformed ones:
		// the peer is demonstrably there.
		c.touch()
		c.sock.SetReadDeadline(time.Now().Add(s.hub.cfg.staleAfter()))

		event, err := DecodeEvent(raw)
		if err != nil {
			// Admin control frames carry a command instead of a type.
			if c.identity.Admin && s.tryAdminCommand(raw) {
				continue
			}
			// Drop the frame, keep the connection. A single bad frame must
			// not kill the session.
			slog.Warn("dropping malformed frame",
				"connID", c.id, "userID", c.identity.UserID, "error", err)
			continue
		}
		s.dispatch(event)
	}
}

func (s *Session) dispatch(event Event) {
	c := s.conn
	switch ev := event.(type) {
	case HeartbeatEvent:
		// Unicast liveness reply on this connection only.
		if err := c.enqueue(heartbeatReply()); err != nil {
			slog.Debug("heartbeat reply not queued", "connID", c.id, "error", err)
		}

	case ChatEvent:
		if c.identity.Admin {
			if !s.tryAdminCommand(ev.Raw) {
				slog.Warn("ignoring non-command admin frame",
					"connID", c.id, "userID", c.identity.UserID)
			}
			return
		}
		// Fan out to the sender's other tabs/devices and to admins, then
		// hand the event to the application.
		s.hub.router.SendToUser(c.identity.UserID, ev.Raw)
		s.hub.router.SendToAllAdmins(ev.Raw)
		if s.hub.chat != nil {
			s.hub.chat(s.hub.ctx, c.identity, ev)
		}

	case UnknownEvent:
		slog.Warn("ignoring unknown event type",
			"connID", c.id, "userID", c.identity.UserID, "type", ev.Type)
	}
}

// adminCommand is the control vocabulary admins may speak over their socket.
type adminCommand struct {
	Command string `json:"command"`
	Message string `json:"message"`
}

// tryAdminCommand parses and executes an admin control frame. It reports
// whether the frame carried a recognizable command envelope.
func (s *Session) tryAdminCommand(raw []byte) bool {
	c := s.conn

	var cmd adminCommand
	if err := json.Unmarshal(raw, &cmd); err != nil || cmd.Command == "" {
		return false
	}

	switch cmd.Command {
	case "get_stats":
		payload, err := json.Marshal(Frame{
			Type:      FrameTypeStats,
			Content:   mustMarshal(s.hub.Stats()),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			slog.Error("stats frame marshal", "error", err)
			return true
		}
		if err := c.enqueue(payload); err != nil {
			slog.Debug("stats reply not queued", "connID", c.id, "error", err)
		}

	case "broadcast":
		s.hub.router.BroadcastSystem(cmd.Message)

	default:
		slog.Warn("unknown admin command", "connID", c.id, "command", cmd.Command)
	}
	return true
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`null`)
	}
	return b
}
