package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/reportgen/internal/config"
	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/internal/service/report"
	"github.com/sandevgo/reportgen/internal/service/resolve"
	"github.com/sandevgo/reportgen/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Reporter interface {
	Handle(ctx context.Context, turn report.Turn) (report.Reply, error)
}

type CommandRouter interface {
	Execute(ctx context.Context, sessionID, input string) (string, bool)
}

type Bot struct {
	bot      *tele.Bot
	sender   *sender
	reporter Reporter
	commands CommandRouter
	picks    *picks
	ownerID  int64
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	reporter Reporter,
	commands CommandRouter,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:      b,
		sender:   newSender(b),
		reporter: reporter,
		commands: commands,
		picks:    newPicks(),
		ownerID:  cfg.OwnerID,
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: Only allow the owner
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if bot.ownerID != 0 && c.Sender().ID != bot.ownerID {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)
	b.Handle(&tele.Btn{Unique: pickUnique}, bot.handlePick)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func sessionID(chatID int64) string {
	return fmt.Sprintf("telegram-%d", chatID)
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	chatID := c.Chat().ID
	id := sessionID(chatID)

	if out, ok := b.commands.Execute(ctx, id, c.Text()); ok {
		b.picks.forget(chatID)
		return b.sender.sendMarkdown(ctx, c.Recipient(), out, true, nil)
	}

	b.picks.forget(chatID)
	return b.answer(ctx, c, report.Turn{SessionID: id, Prompt: c.Text()})
}

// handlePick replays an ambiguous question against the tapped candidate.
func (b *Bot) handlePick(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	chatID := c.Chat().ID

	turn, ok := b.picks.take(chatID, c.Data())
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "This choice has expired, please ask again"})
	}
	_ = c.Respond()
	_ = c.Edit(fmt.Sprintf("✔️ %s", turn.CompanyName))

	return b.answer(ctx, c, turn)
}

func (b *Bot) answer(ctx context.Context, c tele.Context, turn report.Turn) error {
	logger := log.FromCtx(ctx)
	_ = c.Notify(tele.Typing)

	reply, err := b.reporter.Handle(ctx, turn)
	if err != nil {
		if core.IsClientError(err) {
			return c.Send(fmt.Sprintf("⚠️ %v", err))
		}
		logger.Error().Err(err).Msg("report turn failed")
		return c.Send("error: the report could not be generated, please try again")
	}

	var markup *tele.ReplyMarkup
	if reply.Outcome == resolve.KindAmbiguous && len(reply.Candidates) > 0 {
		b.picks.offer(c.Chat().ID, turn.Prompt, reply.Candidates)
		markup = pickerMarkup(reply.Candidates)
	}
	return b.sender.sendMarkdown(ctx, c.Recipient(), reply.Text, false, markup)
}
