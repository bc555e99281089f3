package resolve

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedOracle struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]core.Message
}

func (o *scriptedOracle) Chat(ctx context.Context, history []core.Message, tools []core.Tool, sampling core.Sampling) (core.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls = append(o.calls, history)
	if o.err != nil {
		return core.Message{}, o.err
	}
	if len(o.replies) == 0 {
		return core.Message{}, errors.New("no scripted reply")
	}
	reply := o.replies[0]
	o.replies = o.replies[1:]
	return core.AssistantMessage(reply), nil
}

type staticDirectory struct {
	dir core.Directory
	err error
}

func (d staticDirectory) Get(ctx context.Context) (core.Directory, error) {
	return d.dir, d.err
}

func newTestEngine(replies ...string) (*Engine, *scriptedOracle) {
	oracle := &scriptedOracle{replies: replies}
	return NewEngine(oracle, staticDirectory{dir: testDirectory()}), oracle
}

func TestEngine_AmbiguousEvenWhenOraclePicksOne(t *testing.T) {
	engine, oracle := newTestEngine(`{"company_name":"AAS","company_id":"1"}`)

	out, err := engine.Resolve(context.Background(), Request{Utterance: "Give me an overview of AAS"})
	require.NoError(t, err)

	assert.Equal(t, KindAmbiguous, out.Kind)
	assert.True(t, out.Terminal())
	assert.Equal(t, []core.CompanyRef{{ID: "1", Name: "AAS"}, {ID: "2", Name: "AAS, Inc"}}, out.Candidates)
	assert.Contains(t, out.Clarification, "- AAS\n- AAS, Inc")

	assert.Equal(t, []core.Message{core.SystemMessage(out.Clarification)}, out.MainMessages)
	assert.Equal(t, []core.Message{
		core.UserMessage("Give me an overview of AAS"),
		core.SystemMessage(out.Clarification),
	}, out.ResolutionMessages)
	assert.NotEmpty(t, out.DirectoryPrompt)
	require.Len(t, oracle.calls, 1)
}

func TestEngine_FuzzyMisspelling(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "oracle corrects the name", reply: `{"company_name":"Microsoft","company_id":"3"}`},
		{name: "oracle echoes the typo", reply: `{"company_name":"Microsft","company_id":""}`},
		{name: "oracle returns only a valid id", reply: `{"company_name":"Macrohard","company_id":"3"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(tt.reply)

			out, err := engine.Resolve(context.Background(), Request{Utterance: "Summarize financials for Microsft"})
			require.NoError(t, err)

			want := core.CompanyRef{ID: "3", Name: "Microsoft"}
			assert.Equal(t, KindResolved, out.Kind)
			assert.False(t, out.Terminal())
			assert.Equal(t, want, out.Company)
			assert.Equal(t, []core.Message{Marker(want)}, out.MainMessages)
			assert.Equal(t, []core.Message{
				core.UserMessage("Summarize financials for Microsft"),
				core.AssistantMessage(tt.reply),
			}, out.ResolutionMessages)
		})
	}
}

func TestEngine_SecondTurnDefersToHistory(t *testing.T) {
	engine, oracle := newTestEngine(`{"company_name":"Microsoft","company_id":"3"}`)
	ctx := context.Background()

	main := []core.Message{core.SystemMessage("base")}
	utterance := "Summarize financials for Microsoft"

	first, err := engine.Resolve(ctx, Request{Utterance: utterance, Main: main})
	require.NoError(t, err)
	require.Equal(t, KindResolved, first.Kind)

	main = append(main, core.UserMessage(utterance))
	main = append(main, first.MainMessages...)
	main = append(main, core.AssistantMessage("Here is the summary"))

	second, err := engine.Resolve(ctx, Request{Utterance: utterance, Main: main, Resolution: first.ResolutionMessages})
	require.NoError(t, err)

	assert.Equal(t, KindDeferred, second.Kind)
	assert.Equal(t, first.Company, second.Company)
	assert.Empty(t, second.MainMessages)
	assert.Empty(t, second.ResolutionMessages)
	assert.Len(t, oracle.calls, 1)
}

func TestEngine_NotFound(t *testing.T) {
	engine, _ := newTestEngine("There is no company called Oracle in the list. not_found")

	out, err := engine.Resolve(context.Background(), Request{Utterance: "How is Oracle doing?"})
	require.NoError(t, err)

	assert.Equal(t, KindNotFound, out.Kind)
	assert.True(t, out.Terminal())
	assert.Equal(t, "There is no company called Oracle in the list.", out.Clarification)
	assert.Equal(t, []core.Message{core.SystemMessage(out.Clarification)}, out.MainMessages)
}

func TestEngine_NotFoundDefaultText(t *testing.T) {
	engine, _ := newTestEngine("not_found")

	out, err := engine.Resolve(context.Background(), Request{Utterance: "Tell me about Globex"})
	require.NoError(t, err)

	assert.Equal(t, KindNotFound, out.Kind)
	assert.Equal(t, defaultNotFound, out.Clarification)
}

func TestEngine_OracleAmbiguousKeepsKnownCandidates(t *testing.T) {
	engine, _ := newTestEngine(`[{"company_name":"Contoso Ltd","company_id":"5"},{"company_name":"Contoso Labs","company_id":"99"},{"company_name":"Apple","company_id":"x"}] choose_company`)

	out, err := engine.Resolve(context.Background(), Request{Utterance: "the fruit or the widget one"})
	require.NoError(t, err)

	assert.Equal(t, KindAmbiguous, out.Kind)
	assert.Equal(t, []core.CompanyRef{{ID: "5", Name: "Contoso Ltd"}, {ID: "6", Name: "Apple"}}, out.Candidates)
}

func TestEngine_ReusesSeededSubConversation(t *testing.T) {
	engine, oracle := newTestEngine(`{"company_name":"Apple","company_id":"6"}`)

	prior := []core.Message{
		core.SystemMessage("directory v1"),
		core.UserMessage("Globex?"),
		core.SystemMessage("not found"),
	}
	out, err := engine.Resolve(context.Background(), Request{Utterance: "Apple then", Resolution: prior})
	require.NoError(t, err)

	assert.Empty(t, out.DirectoryPrompt)
	require.Len(t, oracle.calls, 1)
	sent := oracle.calls[0]
	assert.Equal(t, prior, sent[:3])
	assert.Equal(t, core.UserMessage("Apple then"), sent[3])
}

func TestEngine_SeedsDirectoryPromptFirst(t *testing.T) {
	engine, oracle := newTestEngine(`{"company_name":"Apple","company_id":"6"}`)

	out, err := engine.Resolve(context.Background(), Request{Utterance: "Apple"})
	require.NoError(t, err)

	require.Len(t, oracle.calls, 1)
	sent := oracle.calls[0]
	require.Len(t, sent, 2)
	assert.Equal(t, core.SystemMessage(out.DirectoryPrompt), sent[0])
	assert.Contains(t, out.DirectoryPrompt, `{"6":"Apple"}`)
}

func TestEngine_Explicit(t *testing.T) {
	ctx := context.Background()
	msft := core.CompanyRef{ID: "3", Name: "Microsoft"}

	tests := []struct {
		name     string
		explicit core.CompanyRef
		main     []core.Message
		wantKind Kind
		wantRef  core.CompanyRef
		wantMain []core.Message
	}{
		{
			name:     "id and name",
			explicit: msft,
			wantKind: KindResolved,
			wantRef:  msft,
			wantMain: []core.Message{Marker(msft)},
		},
		{
			name:     "already the active company",
			explicit: msft,
			main:     []core.Message{Marker(msft)},
			wantKind: KindResolved,
			wantRef:  msft,
		},
		{
			name:     "overrides history",
			explicit: msft,
			main:     []core.Message{Marker(core.CompanyRef{ID: "6", Name: "Apple"})},
			wantKind: KindResolved,
			wantRef:  msft,
			wantMain: []core.Message{Marker(msft)},
		},
		{
			name:     "id only fills the name",
			explicit: core.CompanyRef{ID: "3"},
			wantKind: KindResolved,
			wantRef:  msft,
			wantMain: []core.Message{Marker(msft)},
		},
		{
			name:     "quoted name only",
			explicit: core.CompanyRef{Name: `"microsoft"`},
			wantKind: KindResolved,
			wantRef:  msft,
			wantMain: []core.Message{Marker(msft)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, oracle := newTestEngine()

			out, err := engine.Resolve(ctx, Request{Utterance: "overview", Explicit: tt.explicit, Main: tt.main})
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantRef, out.Company)
			assert.Equal(t, tt.wantMain, out.MainMessages)
			assert.Empty(t, oracle.calls)
		})
	}
}

func TestEngine_ExplicitAmbiguousName(t *testing.T) {
	engine, oracle := newTestEngine()

	out, err := engine.Resolve(context.Background(), Request{Utterance: "overview", Explicit: core.CompanyRef{Name: "AAS"}})
	require.NoError(t, err)

	assert.Equal(t, KindAmbiguous, out.Kind)
	assert.Len(t, out.Candidates, 2)
	assert.Len(t, out.ResolutionMessages, 2)
	assert.Empty(t, oracle.calls)
}

func TestEngine_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("oracle transport", func(t *testing.T) {
		oracle := &scriptedOracle{err: core.ErrUpstream}
		engine := NewEngine(oracle, staticDirectory{dir: testDirectory()})

		_, err := engine.Resolve(ctx, Request{Utterance: "Apple"})
		assert.ErrorIs(t, err, core.ErrUpstream)
		assert.False(t, core.IsClientError(err))
	})

	t.Run("malformed reply", func(t *testing.T) {
		engine, _ := newTestEngine("Apple, I guess")

		_, err := engine.Resolve(ctx, Request{Utterance: "Apple"})
		assert.ErrorIs(t, err, core.ErrUpstream)
	})

	t.Run("directory", func(t *testing.T) {
		engine := NewEngine(&scriptedOracle{}, staticDirectory{err: core.ErrUpstream})

		_, err := engine.Resolve(ctx, Request{Utterance: "Apple"})
		assert.ErrorIs(t, err, core.ErrUpstream)
	})
}

func TestEngine_OraclePickSurvivesCommonWordNames(t *testing.T) {
	dir := core.NewDirectory(map[string]string{"1": "Microsoft", "2": "Target"})
	msft := core.CompanyRef{ID: "1", Name: "Microsoft"}

	tests := []struct {
		name      string
		utterance string
	}{
		{name: "possessive", utterance: "Did Microsoft's revenue hit its target?"},
		{name: "plain", utterance: "Did Microsoft hit its revenue target?"},
		{name: "curly apostrophe", utterance: "Did Microsoft’s revenue hit its target?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &scriptedOracle{replies: []string{`{"company_name":"Microsoft","company_id":"1"}`}}
			engine := NewEngine(oracle, staticDirectory{dir: dir})

			out, err := engine.Resolve(context.Background(), Request{Utterance: tt.utterance})
			require.NoError(t, err)

			assert.Equal(t, KindResolved, out.Kind)
			assert.Equal(t, msft, out.Company)
			assert.Empty(t, out.Candidates)
		})
	}
}

func TestEngine_OraclePickOfLongerNameStillAmbiguous(t *testing.T) {
	engine, _ := newTestEngine(`{"company_name":"AAS, Inc","company_id":"2"}`)

	out, err := engine.Resolve(context.Background(), Request{Utterance: "Give me an overview of AAS"})
	require.NoError(t, err)

	assert.Equal(t, KindAmbiguous, out.Kind)
	assert.Equal(t, []core.CompanyRef{{ID: "1", Name: "AAS"}, {ID: "2", Name: "AAS, Inc"}}, out.Candidates)
}

func TestEngine_NotFoundFallsBackToMentions(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		wantKind  Kind
		wantIDs   []string
	}{
		{name: "one mention", utterance: "What about Apple's margins?", wantKind: KindResolved, wantIDs: []string{"6"}},
		{name: "two mentions", utterance: "Compare Apple and Microsoft", wantKind: KindAmbiguous, wantIDs: []string{"6", "3"}},
		{name: "no mention", utterance: "What about Globex?", wantKind: KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine("not_found")

			out, err := engine.Resolve(context.Background(), Request{Utterance: tt.utterance})
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, out.Kind)
			if tt.wantKind == KindResolved {
				assert.Equal(t, tt.wantIDs, ids([]core.CompanyRef{out.Company}))
			} else {
				assert.Equal(t, tt.wantIDs, ids(out.Candidates))
			}
		})
	}
}
