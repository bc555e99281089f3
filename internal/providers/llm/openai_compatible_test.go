package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sandevgo/reportgen/internal/config"
	"github.com/sandevgo/reportgen/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`

func TestOpenAICompatible_ChatSendsSamplingAndTools(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, defaultChatPath, r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	p := NewCustomOpenAI(srv.URL, "sk-test", "gpt-test", time.Second)
	tools := []core.Tool{{Type: "function", Function: core.Function{Name: "noop", Parameters: json.RawMessage(`{"type":"object"}`)}}}

	msg, err := p.Chat(context.Background(), []core.Message{core.UserMessage("hi")}, tools, core.Deterministic())
	require.NoError(t, err)

	assert.Equal(t, core.AssistantMessage("hello"), msg)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-test", got["model"])
	assert.Equal(t, float64(0), got["temperature"])
	assert.Equal(t, float64(0), got["top_p"])
	assert.Len(t, got["tools"], 1)
}

func TestOpenAICompatible_ChatOmitsUnsetSampling(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	_, err := NewCustomOpenAI(srv.URL, "", "m", time.Second).
		Chat(context.Background(), []core.Message{core.UserMessage("hi")}, nil, core.Sampling{})
	require.NoError(t, err)

	assert.NotContains(t, got, "temperature")
	assert.NotContains(t, got, "top_p")
	assert.NotContains(t, got, "tools")
}

func TestOpenAICompatible_ParsesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[{"id":"c1","type":"function","function":{"name":"summarize_financials","arguments":"{\"company_id\":\"1\"}"}}]}}]}`))
	}))
	defer srv.Close()

	msg, err := NewCustomOpenAI(srv.URL, "", "m", time.Second).
		Chat(context.Background(), nil, nil, core.Sampling{})
	require.NoError(t, err)

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "summarize_financials", msg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"company_id":"1"}`, msg.ToolCalls[0].Function.Arguments)
}

func TestOpenAICompatible_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{not json`))
			},
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(okBody))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewCustomOpenAI(srv.URL, "", "m", 50*time.Millisecond).
				Chat(context.Background(), nil, nil, core.Sampling{})
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrUpstream)
			assert.False(t, core.IsClientError(err))
		})
	}
}

func TestOpenAICompatible_NoInternalRetry(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewCustomOpenAI(srv.URL, "", "m", time.Second).
		Chat(context.Background(), nil, nil, core.Sampling{})

	assert.ErrorIs(t, err, core.ErrUpstream)
	assert.Contains(t, err.Error(), "http 429")
	assert.Equal(t, 1, hits)
}

func TestAzureOpenAI_Chat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/gpt4o/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-10-21", r.URL.Query().Get("api-version"))
		assert.Equal(t, "azure-key", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	p := NewAzureOpenAI(srv.URL+"/", "azure-key", "gpt4o", "2024-10-21", time.Second)
	msg, err := p.Chat(context.Background(), []core.Message{core.UserMessage("hi")}, nil, core.Sampling{})
	require.NoError(t, err)

	assert.Equal(t, "hello", msg.Content)
	assert.NotContains(t, got, "model")
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		want    any
		wantErr bool
	}{
		{name: "openai", cfg: config.LLMConfig{Provider: "openai"}, want: &OpenAI{}},
		{name: "openrouter", cfg: config.LLMConfig{Provider: "openrouter"}, want: &OpenRouter{}},
		{name: "ollama", cfg: config.LLMConfig{Provider: "ollama", OllamaBaseURL: "http://localhost:11434"}, want: &Ollama{}},
		{name: "azure", cfg: config.LLMConfig{Provider: "azure", AzureEndpoint: "https://x", AzureDeployment: "d"}, want: &AzureOpenAI{}},
		{name: "azure without deployment", cfg: config.LLMConfig{Provider: "azure"}, wantErr: true},
		{name: "custom", cfg: config.LLMConfig{Provider: "custom", CustomBaseURL: "http://x"}, want: &CustomOpenAI{}},
		{name: "custom without url", cfg: config.LLMConfig{Provider: "custom"}, wantErr: true},
		{name: "unknown", cfg: config.LLMConfig{Provider: "anthropic"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(context.Background(), &tt.cfg, time.Second)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}
}
