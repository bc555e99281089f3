package command

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/stretchr/testify/assert"
)

type fakeClearer struct {
	cleared []string
}

func (f *fakeClearer) Clear(sessionID string) bool {
	f.cleared = append(f.cleared, sessionID)
	return len(f.cleared) == 1
}

type fakeDirectory struct {
	dir core.Directory
	err error
}

func (f fakeDirectory) Get(ctx context.Context) (core.Directory, error) {
	return f.dir, f.err
}

func newTestRouter(clearer SessionClearer, dir DirectorySource) *Router {
	return New(NewCommands(clearer, dir))
}

func TestRouter_Execute(t *testing.T) {
	clearer := &fakeClearer{}
	dir := fakeDirectory{dir: core.NewDirectory(map[string]string{"1": "AAS", "2": "AAS, Inc", "3": "Microsoft"})}
	router := newTestRouter(clearer, dir)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		handled  bool
		contains []string
		excludes []string
	}{
		{name: "plain text passes through", input: "Summarize Microsoft", handled: false},
		{name: "unknown command", input: "/model gpt", handled: true, contains: []string{"Unknown command: /model"}},
		{name: "clear", input: "/clear", handled: true, contains: []string{"Conversation cleared"}},
		{name: "clear twice", input: "/clear", handled: true, contains: []string{"Nothing to clear"}},
		{
			name:     "companies",
			input:    "/companies",
			handled:  true,
			contains: []string{"Companies (3)", "› AAS `1`", "› AAS, Inc `2`", "› Microsoft `3`"},
		},
		{
			name:     "companies filtered",
			input:    "/companies inc",
			handled:  true,
			contains: []string{"Companies (1)", "AAS, Inc"},
			excludes: []string{"Microsoft"},
		},
		{name: "companies no match", input: "/companies globex", handled: true, contains: []string{"No companies found", "/companies [name]"}},
		{name: "bot suffix and case", input: "/Companies@reportgen_bot micro", handled: true, contains: []string{"Companies (1)", "Microsoft"}},
		{
			name:     "help",
			input:    " /help ",
			handled:  true,
			contains: []string{"`/clear` Forget the conversation", "`/companies` List known companies", "`/help`"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, handled := router.Execute(ctx, "s1", tt.input)
			assert.Equal(t, tt.handled, handled)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}

	assert.Equal(t, []string{"s1", "s1"}, clearer.cleared)
}

func TestRouter_CommandError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
		excludes string
	}{
		{name: "client error is shown", err: fmt.Errorf("%w: bad filter", core.ErrInvalidInput), contains: "bad filter"},
		{name: "upstream error is hidden", err: fmt.Errorf("%w: store down", core.ErrUpstream), contains: "try again later", excludes: "store down"},
		{name: "unclassified error is hidden", err: errors.New("boom"), contains: "try again later", excludes: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeClearer{}, fakeDirectory{err: tt.err})

			out, handled := router.Execute(context.Background(), "s1", "/companies")
			assert.True(t, handled)
			assert.Contains(t, out, tt.contains)
			if tt.excludes != "" {
				assert.NotContains(t, out, tt.excludes)
			}
		})
	}
}

func TestRouter_ListCommands(t *testing.T) {
	router := newTestRouter(&fakeClearer{}, fakeDirectory{})

	var names []string
	for _, cmd := range router.ListCommands() {
		names = append(names, cmd.Name())
	}
	assert.Equal(t, []string{"clear", "companies"}, names)
}
