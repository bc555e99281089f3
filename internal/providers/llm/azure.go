package llm

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// AzureOpenAI addresses a deployment instead of a model; the model name is omitted
// from the payload and the key goes in the api-key header.
type AzureOpenAI struct {
	*OpenAICompatible
	deployment string
}

func NewAzureOpenAI(endpoint, apiKey, deployment, apiVersion string, timeout time.Duration) *AzureOpenAI {
	path := fmt.Sprintf("/openai/deployments/%s/chat/completions?api-version=%s",
		url.PathEscape(deployment), url.QueryEscape(apiVersion))

	return &AzureOpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    strings.TrimSuffix(endpoint, "/"),
			APIKey:     apiKey,
			ChatPath:   path,
			AuthHeader: "api-key",
			Timeout:    timeout,
		}),
		deployment: deployment,
	}
}
