package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/internal/service/resolve"
	"github.com/sandevgo/reportgen/internal/service/session"
	"github.com/sandevgo/reportgen/pkg/log"
)

type Resolver interface {
	Resolve(ctx context.Context, req resolve.Request) (resolve.Outcome, error)
}

// Turn is one inbound user message.
type Turn struct {
	SessionID   string
	CompanyID   string
	CompanyName string
	Prompt      string
}

// Reply is the answer to a turn. Outcome tells whether Text is a report answer or a
// clarification.
type Reply struct {
	SessionID  string
	Text       string
	Outcome    resolve.Kind
	Company    core.CompanyRef
	Candidates []core.CompanyRef
}

type Options struct {
	MaxToolRounds  int
	RequestTimeout time.Duration
	OracleTimeout  time.Duration
}

type Orchestrator struct {
	main       *session.Store
	resolution *session.Store
	resolver   Resolver
	records    RecordSource
	oracle     core.Oracle
	tools      *Toolset
	executor   *Executor
	window     *Window
	opts       Options
}

func NewOrchestrator(
	main, resolution *session.Store,
	resolver Resolver,
	records RecordSource,
	oracle core.Oracle,
	tools *Toolset,
	window *Window,
	opts Options,
) *Orchestrator {
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = 6
	}
	return &Orchestrator{
		main:       main,
		resolution: resolution,
		resolver:   resolver,
		records:    records,
		oracle:     oracle,
		tools:      tools,
		executor:   NewExecutor(tools),
		window:     window,
		opts:       opts,
	}
}

// Handle runs one conversational turn. Histories are only written once the turn has
// an outcome; a failed turn leaves both sessions as they were.
func (o *Orchestrator) Handle(ctx context.Context, turn Turn) (Reply, error) {
	if turn.SessionID == "" {
		turn.SessionID = uuid.NewString()
	}
	ctx = log.WithSession(ctx, turn.SessionID)

	reply, err := o.handle(ctx, turn)
	if err != nil {
		logger := log.FromCtx(ctx)
		if core.IsClientError(err) {
			logger.Warn().Err(err).Msg("turn rejected")
		} else {
			logger.Error().Err(err).Msg("turn failed")
		}
		return Reply{SessionID: turn.SessionID}, err
	}
	return reply, nil
}

func (o *Orchestrator) handle(ctx context.Context, turn Turn) (Reply, error) {
	prompt := strings.TrimSpace(turn.Prompt)
	if prompt == "" {
		return Reply{}, fmt.Errorf("%w: prompt is required", core.ErrInvalidInput)
	}

	if o.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.RequestTimeout)
		defer cancel()
	}

	main := o.main.GetOrCreate(turn.SessionID)
	sub := o.resolution.GetOrCreate(turn.SessionID)
	history := main.Messages()

	outcome, err := o.resolver.Resolve(ctx, resolve.Request{
		Utterance:  prompt,
		Explicit:   core.CompanyRef{ID: strings.TrimSpace(turn.CompanyID), Name: strings.TrimSpace(turn.CompanyName)},
		Main:       history,
		Resolution: sub.Messages(),
	})
	if err != nil {
		return Reply{}, fmt.Errorf("resolve company: %w", err)
	}

	reply := Reply{
		SessionID:  turn.SessionID,
		Outcome:    outcome.Kind,
		Company:    outcome.Company,
		Candidates: outcome.Candidates,
	}
	pending := append([]core.Message{core.UserMessage(prompt)}, outcome.MainMessages...)

	if outcome.Terminal() {
		o.commit(main, sub, outcome, pending)
		reply.Text = outcome.Clarification
		return reply, nil
	}

	company, err := o.records.Ensure(ctx, outcome.Company)
	if err != nil {
		return Reply{}, err
	}
	if outcome.Company.Name == "" {
		outcome.Company.Name = company.CompanyName
		reply.Company = outcome.Company
		pending = []core.Message{core.UserMessage(prompt), resolve.Marker(outcome.Company)}
	}

	exchange, err := o.answer(ctx, append(history, pending...), len(pending))
	if err != nil {
		return Reply{}, err
	}

	o.commit(main, sub, outcome, append(pending, exchange...))
	reply.Text = exchange[len(exchange)-1].Content
	return reply, nil
}

// answer runs the oracle with the report tools until it replies without tool calls.
// It returns every message produced by the exchange; the last one is the answer.
func (o *Orchestrator) answer(ctx context.Context, conversation []core.Message, turnLen int) ([]core.Message, error) {
	var exchange []core.Message

	for round := 0; ; round++ {
		tools := o.tools.Definitions()
		if round >= o.opts.MaxToolRounds {
			tools = nil
		}

		outbound := o.window.Fit(append(conversation, exchange...), turnLen+len(exchange))
		msg, err := o.chat(ctx, outbound, tools)
		if err != nil {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
		exchange = append(exchange, msg)

		if len(msg.ToolCalls) == 0 || tools == nil {
			exchange[len(exchange)-1].ToolCalls = nil
			return exchange, nil
		}

		exchange = append(exchange, o.executor.Execute(ctx, msg.ToolCalls)...)
	}
}

func (o *Orchestrator) chat(ctx context.Context, history []core.Message, tools []core.Tool) (core.Message, error) {
	if o.opts.OracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.OracleTimeout)
		defer cancel()
	}
	return o.oracle.Chat(ctx, history, tools, core.Deterministic())
}

func (o *Orchestrator) commit(main, sub *session.Session, outcome resolve.Outcome, mainMsgs []core.Message) {
	main.Append(mainMsgs...)
	if outcome.DirectoryPrompt != "" {
		sub.SeedSystem(outcome.DirectoryPrompt)
	}
	sub.Append(outcome.ResolutionMessages...)
}

// Clear forgets both conversations of a session.
func (o *Orchestrator) Clear(sessionID string) bool {
	cleared := o.main.Clear(sessionID)
	return o.resolution.Clear(sessionID) || cleared
}
