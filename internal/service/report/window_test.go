package report

import (
	"testing"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/internal/service/resolve"
	"github.com/stretchr/testify/assert"
)

// byteCounter counts one token per byte so budgets are easy to reason about.
type byteCounter struct{}

func (byteCounter) Count(text string) int { return len(text) }

func TestWindow_Fit(t *testing.T) {
	marker := resolve.Marker(core.CompanyRef{ID: "3", Name: "Microsoft"})
	history := []core.Message{
		core.SystemMessage("sys"),
		core.UserMessage("first question"),
		marker,
		core.AssistantMessage("a long answer to the first question"),
		core.UserMessage("second"),
		core.AssistantMessage("short"),
		core.UserMessage("now"),
	}

	t.Run("within budget", func(t *testing.T) {
		w := NewWindow(byteCounter{}, 10000)
		assert.Equal(t, history, w.Fit(history, 1))
	})

	t.Run("drops oldest unpinned", func(t *testing.T) {
		budget := 0
		for _, m := range []core.Message{history[0], marker, history[4], history[5], history[6]} {
			budget += len(m.Content) + messageOverhead
		}
		w := NewWindow(byteCounter{}, budget)

		got := w.Fit(history, 1)
		assert.Equal(t, []core.Message{history[0], marker, history[4], history[5], history[6]}, got)
	})

	t.Run("pinned messages survive a tiny budget", func(t *testing.T) {
		w := NewWindow(byteCounter{}, 1)
		got := w.Fit(history, 2)
		assert.Equal(t, []core.Message{history[0], marker, history[5], history[6]}, got)
	})

	t.Run("disabled", func(t *testing.T) {
		var w *Window
		assert.Equal(t, history, w.Fit(history, 1))
	})
}

func TestSanitizeToolCalls(t *testing.T) {
	tests := []struct {
		name     string
		input    []core.Message
		expected []core.Message
	}{
		{
			name:     "empty messages",
			input:    []core.Message{},
			expected: nil,
		},
		{
			name: "normal conversation",
			input: []core.Message{
				{Role: core.RoleUser, Content: "hi"},
				{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{ID: "call_1"}}},
				{Role: core.RoleTool, ToolCallID: "call_1", Content: "result"},
			},
			expected: []core.Message{
				{Role: core.RoleUser, Content: "hi"},
				{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{ID: "call_1"}}},
				{Role: core.RoleTool, ToolCallID: "call_1", Content: "result"},
			},
		},
		{
			name: "orphaned tool result at start",
			input: []core.Message{
				{Role: core.RoleTool, ToolCallID: "call_1", Content: "result"},
				{Role: core.RoleUser, Content: "hi"},
			},
			expected: []core.Message{
				{Role: core.RoleUser, Content: "hi"},
			},
		},
		{
			name: "orphaned tool result after user message",
			input: []core.Message{
				{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{ID: "call_1"}}},
				{Role: core.RoleUser, Content: "hi"},
				{Role: core.RoleTool, ToolCallID: "call_1", Content: "result"},
			},
			expected: []core.Message{
				{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{ID: "call_1"}}},
				{Role: core.RoleUser, Content: "hi"},
			},
		},
		{
			name: "tool call id mismatch",
			input: []core.Message{
				{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{ID: "call_1"}}},
				{Role: core.RoleTool, ToolCallID: "call_2", Content: "result"},
			},
			expected: []core.Message{
				{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{ID: "call_1"}}},
			},
		},
		{
			name: "multiple results",
			input: []core.Message{
				{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{ID: "call_1"}, {ID: "call_2"}}},
				{Role: core.RoleTool, ToolCallID: "call_1", Content: "result 1"},
				{Role: core.RoleTool, ToolCallID: "call_2", Content: "result 2"},
			},
			expected: []core.Message{
				{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{ID: "call_1"}, {ID: "call_2"}}},
				{Role: core.RoleTool, ToolCallID: "call_1", Content: "result 1"},
				{Role: core.RoleTool, ToolCallID: "call_2", Content: "result 2"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeToolCalls(tt.input))
		})
	}
}
