package core

import "encoding/json"

const (
	AppName          = "reportgen"
	AppUserAgent     = "reportgen/0.1"
	AppRepositoryURL = "https://github.com/sandevgo/reportgen"
	AppVersion       = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Sampling pins oracle sampling parameters. Nil fields are left to the provider default.
type Sampling struct {
	Temperature *float64
	TopP        *float64
}

// Deterministic is the zero-variance sampling used for answer generation.
func Deterministic() Sampling {
	temperature, topP := 0.0, 0.0
	return Sampling{Temperature: &temperature, TopP: &topP}
}
