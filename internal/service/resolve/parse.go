package resolve

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/reportgen/internal/core"
)

// reply is the oracle's match answer decoded from its text protocol.
type reply struct {
	kind       Kind
	ref        core.CompanyRef
	candidates []core.CompanyRef
	text       string
}

const tokenCutset = " \t\r\n:'`"

func parseReply(raw string) (reply, error) {
	text := strings.TrimSpace(raw)

	switch {
	case strings.Contains(text, tokenNotFound):
		return reply{kind: KindNotFound, text: stripToken(text, tokenNotFound)}, nil

	case strings.Contains(text, tokenChoose):
		text = stripToken(text, tokenChoose)
		return reply{kind: KindAmbiguous, text: text, candidates: parseCandidates(text)}, nil
	}

	body, ok := jsonSpan(stripFences(text), '{', '}')
	if !ok {
		return reply{}, fmt.Errorf("%w: malformed match reply: %q", core.ErrUpstream, raw)
	}

	var ref core.CompanyRef
	if err := json.Unmarshal([]byte(body), &ref); err != nil {
		return reply{}, fmt.Errorf("%w: malformed match reply: %v", core.ErrUpstream, err)
	}
	ref.Name = trimQuotes(ref.Name)
	ref.ID = strings.TrimSpace(ref.ID)
	if ref.IsZero() {
		return reply{}, fmt.Errorf("%w: match reply carries no company: %q", core.ErrUpstream, raw)
	}

	return reply{kind: KindResolved, ref: ref, text: body}, nil
}

func stripToken(text, token string) string {
	text = strings.ReplaceAll(text, token, "")
	return strings.Trim(text, tokenCutset)
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(text), "```")
}

func jsonSpan(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// parseCandidates reads a candidate listing in either the marker shape or the
// directory "id":"name" shape. Anything unreadable yields no candidates.
func parseCandidates(text string) []core.CompanyRef {
	body, ok := jsonSpan(stripFences(text), '[', ']')
	if !ok {
		return nil
	}

	var nodes []map[string]string
	if err := json.Unmarshal([]byte(body), &nodes); err != nil {
		return nil
	}

	var refs []core.CompanyRef
	for _, node := range nodes {
		if name, ok := node["company_name"]; ok {
			refs = append(refs, core.CompanyRef{ID: node["company_id"], Name: trimQuotes(name)})
			continue
		}
		ids := make([]string, 0, len(node))
		for id := range node {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			refs = append(refs, core.CompanyRef{ID: id, Name: trimQuotes(node[id])})
		}
	}
	return refs
}
