package command

import (
	"fmt"
	"strings"
)

// Replies are Markdown; each transport renders them for its surface.

func info(title string) string {
	return fmt.Sprintf("ℹ️ **%s**\n", title)
}

func success(message string) string {
	return fmt.Sprintf("✅ **%s**\n", message)
}

func failure(message string) string {
	return fmt.Sprintf("❌ %s\n", message)
}

func usage(line string) string {
	return fmt.Sprintf("**Usage**: `%s`\n", line)
}

func list(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("› " + item + "\n")
	}
	return sb.String()
}

func tip(text string) string {
	return fmt.Sprintf("_%s_\n", text)
}

func combine(sections ...string) string {
	return strings.Join(sections, "\n")
}
