package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/pkg/log"
)

const helpName = "help"

// Router dispatches slash commands. Anything that does not start with "/" is left
// for the report flow.
type Router struct {
	commands map[string]core.Command
}

func New(commands []core.Command) *Router {
	r := &Router{commands: make(map[string]core.Command, len(commands))}
	for _, cmd := range commands {
		r.commands[strings.ToLower(cmd.Name())] = cmd
	}
	return r
}

func (r *Router) Execute(ctx context.Context, sessionID, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	parts := strings.Fields(input)
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	// Telegram group chats address commands as /name@bot
	name, _, _ = strings.Cut(name, "@")
	args := parts[1:]

	if name == helpName {
		return r.help(), true
	}

	cmd, ok := r.commands[name]
	if !ok {
		return combine(failure(fmt.Sprintf("Unknown command: /%s", name)), tip("Send /help for the list of commands")), true
	}

	result, err := cmd.Execute(ctx, sessionID, args)
	if err != nil {
		if core.IsClientError(err) {
			return failure(err.Error()), true
		}
		log.FromCtx(ctx).Error().Err(err).Str("command", name).Msg("command failed")
		return failure("The command failed, please try again later"), true
	}
	return result, true
}

// ListCommands returns the registered commands ordered by name.
func (r *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		res = append(res, cmd)
	}
	slices.SortFunc(res, func(a, b core.Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return res
}

func (r *Router) help() string {
	items := make([]string, 0, len(r.commands)+1)
	for _, cmd := range r.ListCommands() {
		items = append(items, fmt.Sprintf("`/%s` %s", cmd.Name(), cmd.Description()))
	}
	items = append(items, fmt.Sprintf("`/%s` Show this list", helpName))
	return combine(info("Commands"), list(items), tip("Anything else is answered as a report question"))
}
