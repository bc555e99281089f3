package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sandevgo/reportgen/internal/core"
)

// CompanyTable renders refs as an aligned two-column listing.
func CompanyTable(refs []core.CompanyRef) string {
	if len(refs) == 0 {
		return DescStyle.Render("no companies")
	}

	width := len("ID")
	for _, ref := range refs {
		width = max(width, lipgloss.Width(ref.ID))
	}
	idCol := lipgloss.NewStyle().Width(width + 2)

	var sb strings.Builder
	sb.WriteString(TitleStyle.UnsetMarginBottom().Render(idCol.Render("ID") + "NAME"))
	sb.WriteByte('\n')
	for _, ref := range refs {
		sb.WriteString(UsageStyle.Render(idCol.Render(ref.ID)))
		sb.WriteString(ref.Name)
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
