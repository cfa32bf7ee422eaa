package ws

import (
	"encoding/json"
	"time"
)

// Outbound frame types produced by the core itself. Application payloads
// pass through pre-serialized and keep whatever type tag the caller chose.
const (
	FrameTypeHeartbeat        = "heartbeat"
	FrameTypeSystem           = "system"
	FrameTypeUserDisconnected = "user_disconnected"
	FrameTypeStats            = "stats"
)

// Frame is the outbound envelope. Content is application-defined; the core
// only fills the fields it owns.
type Frame struct {
	Type           string          `json:"type"`
	Content        json.RawMessage `json:"content,omitempty"`
	UserID         uint            `json:"user_id,omitempty"`
	SessionID      string          `json:"session_id,omitempty"`
	ConversationID uint            `json:"conversation_id,omitempty"`
	Timestamp      string          `json:"timestamp,omitempty"`
}

func heartbeatReply() []byte {
	// Fixed reply, mirrors what clients already expect.
	return []byte(`{"type":"heartbeat","status":"alive"}`)
}

func userDisconnectedFrame(userID uint) []byte {
	b, _ := json.Marshal(Frame{
		Type:      FrameTypeUserDisconnected,
		UserID:    userID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return b
}

// SystemFrame builds a system notice payload for broadcast.
func SystemFrame(content string) []byte {
	raw, _ := json.Marshal(content)
	b, _ := json.Marshal(Frame{
		Type:      FrameTypeSystem,
		Content:   raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return b
}

// ChatFrame wraps an application chat payload with the routing envelope.
func ChatFrame(userID uint, sessionID string, content string) []byte {
	raw, _ := json.Marshal(content)
	b, _ := json.Marshal(Frame{
		Type:      "message",
		Content:   raw,
		UserID:    userID,
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return b
}
