package report

import (
	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/internal/service/resolve"
	"github.com/sandevgo/reportgen/pkg/tokens"
)

const messageOverhead = 4

// Window trims the history sent to the oracle to a token budget. The stored history is
// never changed.
type Window struct {
	counter tokens.Counter
	budget  int
}

func NewWindow(counter tokens.Counter, budget int) *Window {
	return &Window{counter: counter, budget: budget}
}

// Fit drops the oldest messages until history fits the budget. The leading system
// prompt, the latest identity marker and the last keepTail messages always stay.
func (w *Window) Fit(history []core.Message, keepTail int) []core.Message {
	if w == nil || w.counter == nil || w.budget <= 0 {
		return sanitizeToolCalls(history)
	}

	pinned := make([]bool, len(history))
	if len(history) > 0 && history[0].Role == core.RoleSystem {
		pinned[0] = true
	}
	for i := len(history) - 1; i >= 0; i-- {
		if resolve.IsMarker(history[i]) {
			pinned[i] = true
			break
		}
	}
	for i := len(history) - keepTail; i < len(history); i++ {
		if i >= 0 {
			pinned[i] = true
		}
	}

	total := 0
	costs := make([]int, len(history))
	for i, m := range history {
		costs[i] = w.cost(m)
		total += costs[i]
	}

	dropped := make([]bool, len(history))
	for i := range history {
		if total <= w.budget {
			break
		}
		if pinned[i] {
			continue
		}
		dropped[i] = true
		total -= costs[i]
	}

	out := make([]core.Message, 0, len(history))
	for i, m := range history {
		if !dropped[i] {
			out = append(out, m)
		}
	}
	return sanitizeToolCalls(out)
}

func (w *Window) cost(m core.Message) int {
	n := messageOverhead + w.counter.Count(m.Content)
	for _, tc := range m.ToolCalls {
		n += w.counter.Count(tc.Function.Name) + w.counter.Count(tc.Function.Arguments)
	}
	return n
}

// sanitizeToolCalls drops tool results that do not answer a call of the assistant
// message they follow.
func sanitizeToolCalls(msgs []core.Message) []core.Message {
	var out []core.Message
	valid := map[string]bool{}
	for _, m := range msgs {
		switch m.Role {
		case core.RoleTool:
			if !valid[m.ToolCallID] {
				continue
			}
		case core.RoleAssistant:
			valid = make(map[string]bool, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				valid[tc.ID] = true
			}
		default:
			valid = map[string]bool{}
		}
		out = append(out, m)
	}
	return out
}
