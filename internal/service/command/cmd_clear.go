package command

import (
	"context"
)

type SessionClearer interface {
	Clear(sessionID string) bool
}

type ClearCommand struct {
	sessions SessionClearer
}

func NewClearCommand(sessions SessionClearer) *ClearCommand {
	return &ClearCommand{sessions: sessions}
}

func (c *ClearCommand) Name() string {
	return "clear"
}

func (c *ClearCommand) Description() string {
	return "Forget the conversation and the active company"
}

func (c *ClearCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if !c.sessions.Clear(sessionID) {
		return info("Nothing to clear"), nil
	}
	return success("Conversation cleared"), nil
}
