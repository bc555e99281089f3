package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/reportgen/internal/core"
)

const maxListed = 50

type DirectorySource interface {
	Get(ctx context.Context) (core.Directory, error)
}

type CompaniesCommand struct {
	directory DirectorySource
}

func NewCompaniesCommand(directory DirectorySource) *CompaniesCommand {
	return &CompaniesCommand{directory: directory}
}

func (c *CompaniesCommand) Name() string {
	return "companies"
}

func (c *CompaniesCommand) Description() string {
	return "List known companies, optionally filtered by a name fragment"
}

func (c *CompaniesCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	dir, err := c.directory.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load companies: %w", err)
	}

	filter := strings.ToLower(strings.Join(args, " "))
	var items []string
	for _, ref := range dir.Entries() {
		if filter != "" && !strings.Contains(strings.ToLower(ref.Name), filter) {
			continue
		}
		items = append(items, fmt.Sprintf("%s `%s`", ref.Name, ref.ID))
	}

	if len(items) == 0 {
		return combine(
			info("No companies found"),
			usage("/companies [name]"),
		), nil
	}

	total := len(items)
	if total > maxListed {
		items = items[:maxListed]
	}

	sections := []string{
		info(fmt.Sprintf("Companies (%d)", total)),
		list(items),
	}
	if total > maxListed {
		sections = append(sections, tip("Add a name fragment to narrow the list"))
	}
	return combine(sections...), nil
}
