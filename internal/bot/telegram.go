package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dictbot/core/logger"
	tg "github.com/m3rciful/dictbot/core/telegram"
	"github.com/m3rciful/dictbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/dictbot/core/telegram/helpers"
	"github.com/m3rciful/dictbot/core/telegram/keyboard"
	"github.com/m3rciful/dictbot/core/telegram/router"
	tgsender "github.com/m3rciful/dictbot/core/telegram/sender"
	"github.com/m3rciful/dictbot/core/telegram/state"
	"github.com/m3rciful/dictbot/internal/listing"
)

const (
	textRateLimited       = "Too many requests. Please slow down."
	textUnsupportedAction = "Unsupported action"
)

// SessionCounter reports open confirmation sessions for /stats.
type SessionCounter interface {
	Len() int
}

// Telegram binds a Bot to telebot. It implements ui.FallbackProvider.
type Telegram struct {
	bot        *Bot
	states     state.Manager
	sessions   SessionCounter
	dispatcher atomic.Pointer[tgsender.Dispatcher]
}

// NewTelegram returns the adapter. states must be the Manager the Bot was built with.
func NewTelegram(b *Bot, states state.Manager, sessions SessionCounter) *Telegram {
	return &Telegram{bot: b, states: states, sessions: sessions}
}

// Register adds the bot commands, the confirmation callback and the prompt dialog handler.
func (t *Telegram) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		cmd  tg.Command
	}{
		{CmdStart, tg.Command{Handler: t.handle, Description: "Start the bot"}},
		{CmdHelp, tg.Command{Handler: t.handle, Description: "Show available commands"}},
		{CmdInfo, tg.Command{Handler: t.handle, Description: "Show your language code"}},
		{CmdAddWord, tg.Command{Handler: t.handle, Description: "Add a word to your vocabulary", Aliases: []string{LabelAddWord}}},
		{CmdShow, tg.Command{Handler: t.handle, Description: "List your saved words", Aliases: []string{LabelShow}}},
		{CmdStats, tg.Command{Handler: t.stats, Description: "Runtime counters", AdminOnly: true, Hidden: true}},
	}
	var errs []error
	for _, c := range cmds {
		errs = append(errs, reg.RegisterCommand(c.name, c.cmd))
	}
	errs = append(errs, reg.RegisterCallback(ConfirmUnique, t.handle))
	reg.SetCallbackNotFound(t.UnknownCallback())
	if t.states != nil {
		t.states.Handle(StateAwaitingWord, t.handle)
	}
	return errors.Join(errs...)
}

// Routes builds every route for reg, with the prompt dialog ahead of text fallbacks.
func (t *Telegram) Routes(reg *tg.Registry, adminID int64) []tg.Route {
	var fsm router.FSM
	if t.states != nil {
		fsm = t.states
	}
	return router.AllRoutes(reg, fsm, t, router.CommandRouteOptions{AdminID: adminID})
}

// OnStart records the runtime dispatcher for /stats.
func (t *Telegram) OnStart(_ context.Context, rt tg.Runtime) error {
	t.dispatcher.Store(rt.Dispatcher)
	return nil
}

// OnLimited answers updates dropped by the rate limiter.
func (t *Telegram) OnLimited(c tele.Context) error {
	if c.Callback() != nil {
		return tghelpers.Respond(c, textRateLimited)
	}
	return tghelpers.SendText(c, textRateLimited)
}

func (t *Telegram) UnknownText() tele.HandlerFunc { return t.handle }

func (t *Telegram) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(router.OutcomeKey, "unrecognized")
		return tghelpers.SendText(c, TextUnrecognized)
	}
}

func (t *Telegram) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(router.OutcomeKey, "unrecognized")
		return tghelpers.Respond(c, textUnsupportedAction)
	}
}

func (t *Telegram) handle(c tele.Context) error {
	in, ok := inboundFrom(c)
	if !ok {
		return nil
	}
	in.AwaitingWord = t.bot.Awaiting(in.UserID)
	ctx := tghelpers.BuildContext(c)

	if c.Callback() != nil {
		// stop the client spinner before the lookup
		if err := tghelpers.Respond(c, ""); err != nil {
			logger.Warn(ctx, logger.CompTG, "callback.respond", slog.String("status", "fail"), slog.Any("err", err))
		}
	}

	outcome, err := t.bot.Deliver(ctx, in.UserID, Parse(in), telegramReplier{c: c})
	c.Set(router.OutcomeKey, outcome)
	return err
}

func (t *Telegram) stats(c tele.Context) error {
	var sent, failed uint64
	if d := t.dispatcher.Load(); d != nil {
		sent, failed = d.Sent(), d.ErrorCount()
	}
	sessions := 0
	if t.sessions != nil {
		sessions = t.sessions.Len()
	}
	return tghelpers.SendText(c, fmt.Sprintf("open sessions: %d\nsent: %d\nsend errors: %d", sessions, sent, failed))
}

// inboundFrom extracts the fields Parse needs. Updates without a sender are ignored.
func inboundFrom(c tele.Context) (Inbound, bool) {
	user := c.Sender()
	if user == nil {
		return Inbound{}, false
	}
	in := Inbound{
		UserID:    user.ID,
		FirstName: user.FirstName,
		Language:  user.LanguageCode,
	}
	if cb := c.Callback(); cb != nil {
		in.CallbackUnique, in.CallbackData = callbacks.ParseCallbackData(cb)
		return in, true
	}
	in.Text = c.Text()
	return in, true
}

type telegramReplier struct {
	c tele.Context
}

// Reply sends rep.Text in message-sized chunks, in order. The keyboard rides
// on the last chunk.
func (r telegramReplier) Reply(_ context.Context, rep Reply) error {
	chunks := listing.Chunks(rep.Text, listing.MessageLimit)
	for i, text := range chunks {
		var markup *tele.ReplyMarkup
		if i == len(chunks)-1 {
			markup = replyMarkup(rep)
		}
		var err error
		if rep.Markdown {
			err = tghelpers.SendMDV2(r.c, text, markup)
		} else {
			err = tghelpers.SendWithMarkup(r.c, text, markup)
		}
		if err != nil {
			return fmt.Errorf("send chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

// replyMarkup returns the inline choices, or the main menu, or nil.
func replyMarkup(rep Reply) *tele.ReplyMarkup {
	if len(rep.Choices) > 0 {
		btns := make([]keyboard.InlineBtn, 0, len(rep.Choices))
		for _, ch := range rep.Choices {
			btns = append(btns, keyboard.InlineBtn{Text: ch.Label, Unique: ConfirmUnique, Data: ch.Token})
		}
		return keyboard.InlineButtons(btns)
	}
	if rep.MainMenu {
		return keyboard.ReplyButtons([]string{LabelAddWord, LabelShow})
	}
	return nil
}
