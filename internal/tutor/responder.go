package tutor

import (
	"context"
	"fmt"
	"strings"

	"tutor-service/internal/models"
)

// Prompt is everything the responder may use to produce a reply.
type Prompt struct {
	User         *models.User
	Conversation *models.Conversation
	History      []*models.Message
	Content      string
}

// Responder produces the tutor's side of the conversation. Real language
// models live behind this interface; the service layer never knows which
// implementation it is talking to.
type Responder interface {
	Reply(ctx context.Context, p Prompt) (string, error)
}

// ScriptedResponder is the built-in fallback: deterministic canned replies
// keyed on the learner's level. Good enough for local development and tests.
type ScriptedResponder struct{}

func NewScriptedResponder() *ScriptedResponder {
	return &ScriptedResponder{}
}

func (s *ScriptedResponder) Reply(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lang := "the target language"
	level := ""
	if p.User != nil {
		lang = p.User.TargetLanguage
		level = p.User.Level
	}
	if p.Conversation != nil && p.Conversation.Language != "" {
		lang = p.Conversation.Language
	}

	content := strings.TrimSpace(p.Content)
	if content == "" {
		return fmt.Sprintf("Let's practice %s. Tell me about your day.", lang), nil
	}

	switch level {
	case "advanced":
		return fmt.Sprintf("Well put. Could you rephrase %q using a more formal register in %s?", content, lang), nil
	case "intermediate":
		return fmt.Sprintf("Good. Now try expanding on %q with one more sentence in %s.", content, lang), nil
	default:
		return fmt.Sprintf("Nice try! Repeat after me in %s, then tell me more about %q.", lang, content), nil
	}
}
