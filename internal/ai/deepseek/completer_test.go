package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenguard/internal/ai"
	"github.com/songzhibin97/tokenguard/internal/models"
)

func setupTestServer(t *testing.T, status int, body string, inspect func(req chatRequest)) (*httptest.Server, *DeepSeekCompleter) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer ds-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if inspect != nil {
			inspect(req)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}))

	return server, NewDeepSeekCompleter("ds-key", "", server.URL, resty.NewWithClient(server.Client()))
}

func TestDeepSeekCompleter_Complete(t *testing.T) {
	server, completer := setupTestServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"FINAL VERDICT: ok"}}]}`,
		func(req chatRequest) {
			assert.Equal(t, "deepseek-chat", req.Model)
			assert.Equal(t, 5000, req.MaxTokens)
			require.NotNil(t, req.ResponseFormat)
			assert.Equal(t, "json_object", req.ResponseFormat.Type)
			require.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)
		})
	defer server.Close()

	out, err := completer.Complete(context.Background(), ai.CompletionRequest{
		Messages: []models.ChatMessage{
			{Role: ai.RoleSystem, Content: "policy"},
			{Role: ai.RoleUser, Content: "contract X {}"},
		},
		JSONMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "FINAL VERDICT: ok", out)
}

func TestDeepSeekCompleter_ErrorHandling(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantEmpty  bool
	}{
		{name: "http 500 error", statusCode: http.StatusInternalServerError, body: `{}`},
		{name: "api error payload", statusCode: http.StatusOK, body: `{"error":{"message":"quota"}}`},
		{name: "invalid json response", statusCode: http.StatusOK, body: "invalid json"},
		{name: "no choices", statusCode: http.StatusOK, body: `{"choices":[]}`, wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, completer := setupTestServer(t, tt.statusCode, tt.body, nil)
			defer server.Close()

			out, err := completer.Complete(context.Background(), ai.CompletionRequest{
				Messages: []models.ChatMessage{{Role: ai.RoleUser, Content: "x"}},
			})
			require.Error(t, err)
			assert.Empty(t, out)
			assert.Equal(t, tt.wantEmpty, errors.Is(err, ai.ErrEmptyCompletion))
		})
	}
}
