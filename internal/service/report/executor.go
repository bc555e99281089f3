package report

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/pkg/log"
)

const maxToolOutput = 8000

type Executor struct {
	tools *Toolset
}

func NewExecutor(tools *Toolset) *Executor {
	return &Executor{
		tools: tools,
	}
}

// Execute runs every tool call and returns one tool message per call. Failures are
// reported to the oracle as the tool result.
func (e *Executor) Execute(ctx context.Context, toolCalls []core.ToolCall) []core.Message {
	logger := log.FromCtx(ctx)

	results := make([]core.Message, 0, len(toolCalls))
	for _, tc := range toolCalls {
		logger.Info().Str("tool", tc.Function.Name).Msg("executing tool")

		res, err := e.tools.Call(ctx, tc.Function.Name, tc.Function.Arguments)
		if err != nil {
			logger.Warn().Err(err).Str("tool", tc.Function.Name).Msg("tool failed")
			res = fmt.Sprintf("Error: %v", err)
		}

		results = append(results, core.Message{
			Role:       core.RoleTool,
			Content:    e.truncate(res),
			ToolCallID: tc.ID,
		})
	}
	return results
}

func (e *Executor) truncate(input string) string {
	if len(input) <= maxToolOutput {
		return input
	}

	headEnd := runeStart(input, maxToolOutput/4)
	tailStart := runeStart(input, len(input)-(maxToolOutput-maxToolOutput/4))
	head, tail := input[:headEnd], input[tailStart:]
	return fmt.Sprintf("%s\n\n... [TRUNCATED %d bytes] ...\n\n%s", head, tailStart-headEnd, tail)
}

// runeStart backs i up to the first byte of the rune it falls in.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
