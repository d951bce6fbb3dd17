package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/dictbot/core/logger"
	"github.com/m3rciful/dictbot/core/telegram/state"
	"github.com/m3rciful/dictbot/internal/addword"
	"github.com/m3rciful/dictbot/internal/domain"
)

// StateAwaitingWord marks a user who was asked to type a word.
const StateAwaitingWord state.State = "awaiting_word"

// Texts sent outside the add-word pipeline.
const (
	TextPrompt       = "Enter the word:"
	TextUnrecognized = "I do not know what to do with this. I will just remind you that there is a /help command."
	textGreeting     = "Hello, %s! Type /help"
	textInfo         = "Your language code: %s"
)

// TextHelp lists the commands.
var TextHelp = strings.Join([]string{
	"/addword <word> - look the word up and save it",
	"/show - list your saved words",
	"/info - show your language code",
	"/help - show this message",
}, "\n")

// Reply is one outbound message. Choices render as one button each.
type Reply struct {
	Text     string
	Markdown bool
	Choices  []addword.Choice
	MainMenu bool
}

// Replier sends replies to the user who triggered the event.
type Replier interface {
	Reply(ctx context.Context, r Reply) error
}

// Service is the part of the add-word service the bot drives.
type Service interface {
	Add(ctx context.Context, userID domain.UserID, raw string) addword.Result
	Confirm(ctx context.Context, userID domain.UserID, sessionToken string) addword.Result
	Show(ctx context.Context, userID domain.UserID) addword.Result
}

// Bot delivers parsed events. It keeps no per-user state besides the
// awaiting-word marker held by states.
type Bot struct {
	svc    Service
	states state.Manager
}

// New returns a Bot over svc. states may be nil, which disables the word prompt dialog.
func New(svc Service, states state.Manager) *Bot {
	return &Bot{svc: svc, states: states}
}

// Awaiting reports whether userID was prompted for a word.
func (b *Bot) Awaiting(userID int64) bool {
	return b.states != nil && b.states.GetState(userID) == StateAwaitingWord
}

// Deliver handles ev for userID and replies through r. It returns the outcome
// for the handler summary; the error is the replier's.
func (b *Bot) Deliver(ctx context.Context, userID int64, ev Event, r Replier) (string, error) {
	if _, prompt := ev.(PromptAddWord); !prompt && b.states != nil {
		b.states.ClearState(userID)
	}
	uid := domain.UserID(userID)

	switch e := ev.(type) {
	case AddWord:
		return b.result(ctx, r, b.svc.Add(ctx, uid, e.Raw))
	case Confirm:
		return b.result(ctx, r, b.svc.Confirm(ctx, uid, e.Token))
	case Show:
		return b.result(ctx, r, b.svc.Show(ctx, uid))
	case PromptAddWord:
		if b.states != nil {
			b.states.SetState(userID, StateAwaitingWord)
		}
		return "ok", r.Reply(ctx, Reply{Text: TextPrompt})
	case Start:
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = "there"
		}
		return "ok", r.Reply(ctx, Reply{Text: fmt.Sprintf(textGreeting, name), MainMenu: true})
	case Help:
		return "ok", r.Reply(ctx, Reply{Text: TextHelp, MainMenu: true})
	case Info:
		lang := e.Language
		if lang == "" {
			lang = "unknown"
		}
		return "ok", r.Reply(ctx, Reply{Text: fmt.Sprintf(textInfo, lang)})
	default:
		logger.Debug(ctx, logger.CompTG, "event.unrecognized", slog.String("event", fmt.Sprintf("%T", ev)))
		return "unrecognized", r.Reply(ctx, Reply{Text: TextUnrecognized})
	}
}

func (b *Bot) result(ctx context.Context, r Replier, res addword.Result) (string, error) {
	return res.Status.Outcome(), r.Reply(ctx, Reply{
		Text:     res.Text,
		Markdown: res.Markdown,
		Choices:  res.Choices,
	})
}
