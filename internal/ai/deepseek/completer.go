package deepseek

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenguard/internal/ai"
	"github.com/songzhibin97/tokenguard/internal/utils/request"
)

const (
	defaultAPIEndpoint = "https://api.deepseek.com/v1"
	defaultModel       = "deepseek-chat"
)

// DeepSeekCompleter implements ai.Completer on DeepSeek's OpenAI-compatible API
type DeepSeekCompleter struct {
	apiKey   string
	endpoint string
	model    string
	client   *resty.Client
}

// NewDeepSeekCompleter creates a new DeepSeek completer instance
func NewDeepSeekCompleter(apiKey, model, endpoint string, client *resty.Client) *DeepSeekCompleter {
	if model == "" {
		model = defaultModel
	}
	if endpoint == "" {
		endpoint = defaultAPIEndpoint
	}
	if client == nil {
		client = request.New(0)
	}

	return &DeepSeekCompleter{
		apiKey:   apiKey,
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client:   client,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *DeepSeekCompleter) Name() string {
	return "deepseek:" + c.model
}

// Complete implements ai.Completer
func (c *DeepSeekCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	reqBody := chatRequest{
		Model:     c.model,
		Messages:  make([]chatMessage, 0, len(req.Messages)),
		MaxTokens: req.MaxTokens,
	}
	if reqBody.MaxTokens <= 0 {
		reqBody.MaxTokens = ai.DefaultMaxTokens
	}
	if req.JSONMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	for _, m := range req.Messages {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(c.apiKey).
		SetBody(reqBody).
		Post(fmt.Sprintf("%s/chat/completions", c.endpoint))
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("api error: status=%d, body=%s", resp.StatusCode(), resp.String())
	}

	var chatResp chatResponse
	if err := json.Unmarshal(resp.Body(), &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("api error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from api: %w", ai.ErrEmptyCompletion)
	}

	return chatResp.Choices[0].Message.Content, nil
}
