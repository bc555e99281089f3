package conv

import (
	"strings"
	"testing"
)

func TestMarkdownToTelegramHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty input", input: "", expected: ""},
		{name: "plain sentence", input: "Microsoft had 4 new assignments.", expected: "Microsoft had 4 new assignments.\n"},
		{name: "bold company name", input: "**AAS, Inc**", expected: "<strong>AAS, Inc</strong>\n"},
		{name: "emphasis and code", input: "*FY2024* revenue `12.5B`", expected: "<em>FY2024</em> revenue <code>12.5B</code>\n"},
		{name: "underscore bold", input: "__Summary__", expected: "<strong>Summary</strong>\n"},
		{name: "strikethrough", input: "~~withdrawn~~", expected: "<del>withdrawn</del>\n"},
		{name: "raw underline kept", input: "<u>note</u>", expected: "<u>note</u>\n"},
		{name: "section heading flattened", input: "## Engagement Activity", expected: "Engagement Activity\n"},
		{name: "quoted source", input: "> from the annual filing", expected: "<blockquote>\nfrom the annual filing\n</blockquote>\n"},
		{
			name:     "fenced block keeps language class",
			input:    "```json\n[1, 2]\n```",
			expected: "<pre><code class=\"language-json\">[1, 2]\n</code></pre>\n",
		},
		{name: "source link loses target", input: "[filing](https://example.com/10k)", expected: "<a href=\"https://example.com/10k\">filing</a>\n"},
		{name: "script removed", input: "<script>alert('xss')</script>", expected: "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToTelegramHTML([]byte(tt.input))
			if got != tt.expected {
				t.Errorf("MarkdownToTelegramHTML(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMarkdownToTelegramHTML_TableFlattened(t *testing.T) {
	out := MarkdownToTelegramHTML([]byte("| Year | Revenue |\n|---|---|\n| 2024 | 12.5B |"))

	for _, tag := range []string{"<table", "<td", "<th", "<tr"} {
		if strings.Contains(out, tag) {
			t.Errorf("table markup %s leaked: %q", tag, out)
		}
	}
	if !strings.Contains(out, "2024") || !strings.Contains(out, "12.5B") {
		t.Errorf("table cells lost: %q", out)
	}
}

func TestMarkdownToHTML(t *testing.T) {
	out := MarkdownToHTML([]byte("## Financials\n\n| A | B |\n|---|---|\n| 1 | 2 |\n\n<script>alert(1)</script>"))

	if !strings.Contains(out, "<h2") || !strings.Contains(out, "Financials</h2>") {
		t.Errorf("heading not rendered: %q", out)
	}
	if !strings.Contains(out, "<table>") || !strings.Contains(out, "<td>1</td>") {
		t.Errorf("table not rendered: %q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("script not stripped: %q", out)
	}
}
