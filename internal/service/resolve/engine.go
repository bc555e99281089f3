package resolve

import (
	"context"
	"fmt"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/pkg/log"
)

// DirectorySource is the cached directory the engine matches against.
type DirectorySource interface {
	Get(ctx context.Context) (core.Directory, error)
}

// Request is one turn's input. Main and Resolution are snapshots of the two histories
// before the turn; the engine never writes to them.
type Request struct {
	Utterance  string
	Explicit   core.CompanyRef
	Main       []core.Message
	Resolution []core.Message
}

type Engine struct {
	oracle    core.Oracle
	directory DirectorySource
	sampling  core.Sampling
}

func NewEngine(oracle core.Oracle, directory DirectorySource) *Engine {
	return &Engine{
		oracle:    oracle,
		directory: directory,
		sampling:  core.Deterministic(),
	}
}

// Resolve decides the active company for the turn. NotFound and Ambiguous are
// returned as outcomes, not errors; errors mean the directory or the oracle failed.
func (e *Engine) Resolve(ctx context.Context, req Request) (Outcome, error) {
	logger := log.FromCtx(ctx)

	if !req.Explicit.IsZero() {
		out, err := e.explicit(ctx, req)
		if err == nil {
			logger.Debug().Str("outcome", out.Kind.String()).Str("company", out.Company.Name).Msg("explicit company")
		}
		return out, err
	}

	if ref, ok := LatestMarker(req.Main); ok {
		logger.Debug().Str("company", ref.Name).Msg("company deferred to history")
		return Outcome{Kind: KindDeferred, Company: ref}, nil
	}

	dir, err := e.directory.Get(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load directory: %w", err)
	}

	sub := make([]core.Message, 0, len(req.Resolution)+2)
	var seed string
	if len(req.Resolution) == 0 || req.Resolution[0].Role != core.RoleSystem {
		seed = DirectoryPrompt(dir)
		sub = append(sub, core.SystemMessage(seed))
	}
	sub = append(sub, req.Resolution...)
	sub = append(sub, core.UserMessage(req.Utterance))

	answer, err := e.oracle.Chat(ctx, sub, nil, e.sampling)
	if err != nil {
		return Outcome{}, fmt.Errorf("match company: %w", err)
	}

	r, err := parseReply(answer.Content)
	if err != nil {
		return Outcome{}, err
	}

	out := reconcile(req.Utterance, r, dir)
	out.DirectoryPrompt = seed

	if out.Kind == KindResolved {
		out.MainMessages = []core.Message{Marker(out.Company)}
		out.ResolutionMessages = []core.Message{core.UserMessage(req.Utterance), core.AssistantMessage(answer.Content)}
	} else {
		recordClarification(&out, req.Utterance)
	}

	logger.Info().
		Str("outcome", out.Kind.String()).
		Str("company", out.Company.Name).
		Int("candidates", len(out.Candidates)).
		Msg("company resolution")

	return out, nil
}

func (e *Engine) explicit(ctx context.Context, req Request) (Outcome, error) {
	ref := core.CompanyRef{ID: req.Explicit.ID, Name: trimQuotes(req.Explicit.Name)}

	if ref.ID == "" || ref.Name == "" {
		dir, err := e.directory.Get(ctx)
		if err != nil {
			return Outcome{}, fmt.Errorf("load directory: %w", err)
		}

		if ref.ID != "" {
			name, _ := dir.Name(ref.ID)
			ref.Name = name
		} else {
			kind, refs := Match(ref.Name, dir)
			if kind != KindResolved {
				out := clarify(kind, refs, "")
				recordClarification(&out, req.Utterance)
				return out, nil
			}
			ref = refs[0]
		}
	}

	out := Outcome{Kind: KindResolved, Company: ref}
	if latest, ok := LatestMarker(req.Main); !ok || latest != ref {
		out.MainMessages = []core.Message{Marker(ref)}
	}
	return out, nil
}

// reconcile enforces the tie-break rules on top of the oracle's answer. A pick stands
// unless a name the user typed is shared by several entries including the pick. Names
// found in the utterance are used only when the oracle could not place the company.
func reconcile(utterance string, r reply, dir core.Directory) Outcome {
	mentions := Mentions(utterance, dir)

	switch r.kind {
	case KindResolved:
		kind, refs := Match(r.ref.Name, dir)
		if kind == KindNotFound && r.ref.ID != "" {
			if name, ok := dir.Name(r.ref.ID); ok {
				kind, refs = KindResolved, []core.CompanyRef{{ID: r.ref.ID, Name: name}}
			}
		}
		switch kind {
		case KindResolved:
			if shared := sharedMention(mentions, refs[0], dir); len(shared) > 0 {
				return clarify(KindAmbiguous, shared, "")
			}
			return clarify(kind, refs, "")
		case KindAmbiguous:
			return clarify(kind, refs, "")
		}
		return fromMentions(mentions, dir, "")

	case KindAmbiguous:
		var known []core.CompanyRef
		for _, c := range r.candidates {
			if name, ok := dir.Name(c.ID); ok {
				known = append(known, core.CompanyRef{ID: c.ID, Name: name})
			} else if found := dir.FindByName(c.Name); len(found) == 1 {
				known = append(known, found[0])
			}
		}
		if len(known) == 0 {
			return Outcome{Kind: KindAmbiguous, Clarification: orDefault(r.text, ambiguousText(nil))}
		}
		return Outcome{Kind: KindAmbiguous, Candidates: known, Clarification: ambiguousText(known)}

	default:
		return fromMentions(mentions, dir, r.text)
	}
}

// sharedMention returns the entries a typed name matches when that name is ambiguous
// and picked is one of them.
func sharedMention(mentions []core.CompanyRef, picked core.CompanyRef, dir core.Directory) []core.CompanyRef {
	for _, m := range mentions {
		kind, refs := Match(m.Name, dir)
		if kind != KindAmbiguous {
			continue
		}
		for _, ref := range refs {
			if ref.ID == picked.ID {
				return refs
			}
		}
	}
	return nil
}

func fromMentions(mentions []core.CompanyRef, dir core.Directory, text string) Outcome {
	switch len(mentions) {
	case 0:
		return clarify(KindNotFound, nil, text)
	case 1:
		kind, refs := Match(mentions[0].Name, dir)
		if kind == KindNotFound {
			return clarify(KindResolved, mentions, "")
		}
		return clarify(kind, refs, "")
	default:
		return clarify(KindAmbiguous, mentions, "")
	}
}

func clarify(kind Kind, refs []core.CompanyRef, text string) Outcome {
	switch kind {
	case KindResolved:
		return Outcome{Kind: KindResolved, Company: refs[0]}
	case KindAmbiguous:
		return Outcome{Kind: KindAmbiguous, Candidates: refs, Clarification: ambiguousText(refs)}
	default:
		return Outcome{Kind: KindNotFound, Clarification: orDefault(text, defaultNotFound)}
	}
}

// recordClarification writes the clarification into both histories as a system note.
func recordClarification(out *Outcome, utterance string) {
	note := core.SystemMessage(out.Clarification)
	out.MainMessages = []core.Message{note}
	out.ResolutionMessages = []core.Message{core.UserMessage(utterance), note}
}

func orDefault(text, fallback string) string {
	if text == "" {
		return fallback
	}
	return text
}
