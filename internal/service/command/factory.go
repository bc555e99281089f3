package command

import "github.com/sandevgo/reportgen/internal/core"

// NewCommands builds the slash commands shared by the chat transports.
func NewCommands(sessions SessionClearer, directory DirectorySource) []core.Command {
	return []core.Command{
		NewClearCommand(sessions),
		NewCompaniesCommand(directory),
	}
}
