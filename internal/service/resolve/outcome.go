package resolve

import (
	"encoding/json"
	"strings"

	"github.com/sandevgo/reportgen/internal/core"
)

type Kind int

const (
	KindNotFound Kind = iota
	KindResolved
	KindAmbiguous
	KindDeferred
)

func (k Kind) String() string {
	switch k {
	case KindResolved:
		return "resolved"
	case KindAmbiguous:
		return "ambiguous"
	case KindDeferred:
		return "deferred"
	default:
		return "not_found"
	}
}

// Outcome is the per-turn answer to "which company is the user talking about".
//
// The message slices are what the turn must append once it commits: MainMessages go
// after the user's utterance in the main history, ResolutionMessages go to the
// resolution sub-conversation, which is first seeded with DirectoryPrompt when set.
type Outcome struct {
	Kind       Kind
	Company    core.CompanyRef
	Candidates []core.CompanyRef
	// Clarification is the user-facing text for NotFound and Ambiguous.
	Clarification string

	DirectoryPrompt    string
	MainMessages       []core.Message
	ResolutionMessages []core.Message
}

// Terminal reports whether the turn ends with a clarification instead of an answer.
func (o Outcome) Terminal() bool {
	return o.Kind == KindNotFound || o.Kind == KindAmbiguous
}

// Marker is the identity message injected into the main history once a company is
// resolved.
func Marker(ref core.CompanyRef) core.Message {
	data, _ := json.Marshal(struct {
		Name string `json:"company_name"`
		ID   string `json:"company_id"`
	}{Name: ref.Name, ID: ref.ID})
	return core.UserMessage(string(data))
}

// LatestMarker returns the most recent identity marker in history.
func LatestMarker(history []core.Message) (core.CompanyRef, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if ref, ok := parseMarker(history[i]); ok {
			return ref, true
		}
	}
	return core.CompanyRef{}, false
}

// IsMarker reports whether msg is an identity marker.
func IsMarker(msg core.Message) bool {
	_, ok := parseMarker(msg)
	return ok
}

func parseMarker(msg core.Message) (core.CompanyRef, bool) {
	if msg.Role != core.RoleUser {
		return core.CompanyRef{}, false
	}
	content := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(content, "{") || !strings.HasSuffix(content, "}") {
		return core.CompanyRef{}, false
	}

	var ref core.CompanyRef
	if err := json.Unmarshal([]byte(content), &ref); err != nil {
		return core.CompanyRef{}, false
	}
	if ref.ID == "" || ref.Name == "" {
		return core.CompanyRef{}, false
	}
	return ref, true
}
