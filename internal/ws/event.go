package ws

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is one decoded inbound frame. The decode step produces a closed set
// of variants so that dispatch is a type switch instead of per-handler
// string comparisons scattered around the reader loop.
type Event interface {
	isEvent()
}

// HeartbeatEvent is a client liveness frame ("heartbeat" or "ping").
// It is answered in-core with a unicast reply and never broadcast.
type HeartbeatEvent struct{}

// ChatEvent is any application-level frame. The core does not interpret
// Content beyond the envelope fields needed for routing.
type ChatEvent struct {
	Type           string
	Content        string
	SessionID      string
	ConversationID uint
	Raw            json.RawMessage
}

// UnknownEvent is a structurally valid frame with a type the core does not
// recognize as a control frame and the application has not claimed either.
type UnknownEvent struct {
	Type string
}

func (HeartbeatEvent) isEvent() {}
func (ChatEvent) isEvent()      {}
func (UnknownEvent) isEvent()   {}

// envelope is the minimal shape every inbound frame must have.
type envelope struct {
	Type           string `json:"type"`
	Content        string `json:"content"`
	SessionID      string `json:"session_id"`
	ConversationID uint   `json:"conversation_id"`
}

// DecodeEvent parses one wire frame. A decode error means "drop this frame";
// only transport failures terminate a session.
func DecodeEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("frame missing type field")
	}

	switch strings.ToLower(env.Type) {
	case "heartbeat", "ping":
		return HeartbeatEvent{}, nil
	case "chat", "message":
		return ChatEvent{
			Type:           env.Type,
			Content:        env.Content,
			SessionID:      env.SessionID,
			ConversationID: env.ConversationID,
			Raw:            json.RawMessage(raw),
		}, nil
	default:
		return UnknownEvent{Type: env.Type}, nil
	}
}
