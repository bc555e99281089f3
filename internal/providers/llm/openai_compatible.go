package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/pkg/log"
)

const (
	defaultChatPath = "/v1/chat/completions"
	defaultTimeout  = 120 * time.Second
	// completions carrying a whole report stay well below this
	maxResponseBytes = 8 << 20
)

type OpenAICompatible struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	model        string
	chatPath     string
	authHeader   string
	authPrefix   string
	extraHeaders map[string]string
}

type OpenAICompatibleConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	ChatPath     string // defaults to /v1/chat/completions
	AuthHeader   string // e.g., "Authorization"
	AuthPrefix   string // e.g., "Bearer "
	ExtraHeaders map[string]string
	Timeout      time.Duration
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	chatPath := cfg.ChatPath
	if chatPath == "" {
		chatPath = defaultChatPath
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAICompatible{
		client:       &http.Client{Timeout: timeout},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		chatPath:     chatPath,
		authHeader:   cfg.AuthHeader,
		authPrefix:   cfg.AuthPrefix,
		extraHeaders: cfg.ExtraHeaders,
	}
}

type chatRequest struct {
	Model       string         `json:"model,omitempty"`
	Messages    []core.Message `json:"messages"`
	Tools       []core.Tool    `json:"tools,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	TopP        *float64       `json:"top_p,omitempty"`
}

func (o *OpenAICompatible) Chat(ctx context.Context, history []core.Message, tools []core.Tool, sampling core.Sampling) (core.Message, error) {
	payload := chatRequest{
		Model:       o.model,
		Messages:    history,
		Tools:       tools,
		Temperature: sampling.Temperature,
		TopP:        sampling.TopP,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.Message{}, fmt.Errorf("marshal: %w", err)
	}

	start := time.Now()
	resp, err := o.post(ctx, body)
	if err != nil {
		return core.Message{}, err
	}
	defer resp.Body.Close()

	msg, err := parseOpenAIResponse(resp)
	log.FromCtx(ctx).Debug().
		Str("model", o.model).
		Int("messages", len(history)).
		Int("tools", len(tools)).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Err(err).
		Msg("chat completion")

	return msg, err
}

func (o *OpenAICompatible) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+o.chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", core.AppUserAgent)
	if o.authHeader != "" && o.apiKey != "" {
		req.Header.Set(o.authHeader, o.authPrefix+o.apiKey)
	}
	for k, v := range o.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w: %w", core.ErrUpstream, err)
	}
	return resp, nil
}

func parseOpenAIResponse(resp *http.Response) (core.Message, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return core.Message{}, fmt.Errorf("read body: %w: %w", core.ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return core.Message{}, fmt.Errorf("%w: http %d: %s", core.ErrUpstream, resp.StatusCode, string(data))
	}

	var result struct {
		Choices []struct {
			Message core.Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return core.Message{}, fmt.Errorf("decode: %w: %w", core.ErrUpstream, err)
	}
	if len(result.Choices) == 0 {
		return core.Message{}, fmt.Errorf("%w: empty choices: %s", core.ErrUpstream, string(data))
	}
	return result.Choices[0].Message, nil
}
