package ai

import (
	"context"
	"errors"

	"github.com/songzhibin97/tokenguard/internal/models"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultMaxTokens = 5000
)

var (
	ErrEmptyCompletion     = errors.New("model returned no completion")
	ErrUnsupportedProvider = errors.New("unsupported ai provider")
)

// Completer sends one conversation to a generative backend and returns the
// single completion text. Implementations never retry.
type Completer interface {
	Name() string

	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest 一次模型调用
type CompletionRequest struct {
	Messages  []models.ChatMessage `json:"messages"`
	MaxTokens int                  `json:"max_tokens"`
	// JSONMode 要求模型只输出一个 JSON 对象
	JSONMode bool `json:"json_mode"`
}

// SplitSystem separates system instructions from the conversation turns, for
// backends that take the system prompt out of band.
func SplitSystem(messages []models.ChatMessage) (string, []models.ChatMessage) {
	var system string
	turns := make([]models.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
