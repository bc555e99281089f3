package resolve

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sandevgo/reportgen/internal/core"
)

const (
	tokenNotFound = "not_found"
	tokenChoose   = "choose_company"
)

const directoryPromptTemplate = `The following is a JSON list of companies and their company IDs. Each node has the form "company_id":"company_name".

Companies: %s

When processing the user's message:

1. If a company name is mentioned and it exactly matches one in the list, use that company.
   a. If the name is also part of other company names in the list (e.g. "AAS" and "AAS, Inc"), ask the user to choose between them.
2. If a company name is mentioned but does not exactly match any in the list:
   a. Check for close matches such as misspellings, abbreviations or partial names.
   b. If exactly one close match is found and the difference is minimal (one or two characters), use it without asking.
   c. If several close matches are found, ask the user to choose between them.
3. Never add quotes or other special characters to the company name.

If a single company matches, respond ONLY with JSON, without markdown or code fences:
{"company_name": "Microsoft", "company_id": "123456"}

If the user must choose, respond with a JSON list of the matching companies in the same format followed by '%s'.

If no company matches, explain briefly and end your response with '%s'.`

// DirectoryPrompt renders the directory-listing system prompt for the resolution
// sub-conversation.
func DirectoryPrompt(dir core.Directory) string {
	entries := dir.Entries()
	nodes := make([]map[string]string, 0, len(entries))
	for _, ref := range entries {
		nodes = append(nodes, map[string]string{ref.ID: ref.Name})
	}
	listing, _ := json.Marshal(nodes)
	return fmt.Sprintf(directoryPromptTemplate, listing, tokenChoose, tokenNotFound)
}

const defaultNotFound = "I couldn't find a company matching your request. Please check the company name and try again."

func ambiguousText(candidates []core.CompanyRef) string {
	var sb strings.Builder
	sb.WriteString("Several companies match your request. Which one do you mean?\n")
	for _, c := range candidates {
		sb.WriteString("- ")
		sb.WriteString(c.Name)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
