package core

import "context"

// Command is a slash command handled outside the report flow.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, sessionID string, args []string) (string, error)
}
