// Package bot turns inbound Telegram updates into a closed set of events and
// delivers each one to the add-word service.
package bot

import (
	"strings"
	"unicode"
)

// Command names.
const (
	CmdStart   = "/start"
	CmdHelp    = "/help"
	CmdInfo    = "/info"
	CmdAddWord = "/addword"
	CmdShow    = "/show"
	CmdStats   = "/stats"
)

// Reply keyboard labels.
const (
	LabelAddWord = "Add word"
	LabelShow    = "My words"
)

// ConfirmUnique is the inline button unique key of a confirmation choice.
const ConfirmUnique = "confirm"

// Inbound is the transport-neutral view of one update.
type Inbound struct {
	UserID    int64
	FirstName string
	Language  string
	Text      string
	// CallbackUnique and CallbackData are set for inline button presses.
	CallbackUnique string
	CallbackData   string
	// AwaitingWord reports that the previous reply asked for a word.
	AwaitingWord bool
}

// Event is one of AddWord, Show, Confirm, Start, Help, Info, PromptAddWord or Unrecognized.
type Event interface {
	event()
}

type (
	// AddWord asks to add Raw, the text after /addword or the reply to a prompt.
	AddWord struct{ Raw string }
	// Show asks for the saved words.
	Show struct{}
	// Confirm picks the candidate bound to Token.
	Confirm struct{ Token string }
	Start   struct{ Name string }
	Help    struct{}
	Info    struct{ Language string }
	// PromptAddWord asks the user to type a word.
	PromptAddWord struct{}
	Unrecognized  struct{}
)

func (AddWord) event()       {}
func (Show) event()          {}
func (Confirm) event()       {}
func (Start) event()         {}
func (Help) event()          {}
func (Info) event()          {}
func (PromptAddWord) event() {}
func (Unrecognized) event()  {}

// Parse classifies in. Callbacks win over text; commands win over a pending prompt.
func Parse(in Inbound) Event {
	if in.CallbackUnique != "" {
		if in.CallbackUnique == ConfirmUnique && strings.TrimSpace(in.CallbackData) != "" {
			return Confirm{Token: strings.TrimSpace(in.CallbackData)}
		}
		return Unrecognized{}
	}

	text := strings.TrimSpace(in.Text)
	if name, payload, ok := splitCommand(text); ok {
		switch name {
		case CmdAddWord:
			if strings.TrimSpace(payload) == "" {
				return PromptAddWord{}
			}
			return AddWord{Raw: payload}
		case CmdShow:
			return Show{}
		case CmdStart:
			return Start{Name: in.FirstName}
		case CmdHelp:
			return Help{}
		case CmdInfo:
			return Info{Language: in.Language}
		}
		return Unrecognized{}
	}

	switch {
	case strings.EqualFold(text, LabelAddWord):
		return PromptAddWord{}
	case strings.EqualFold(text, LabelShow):
		return Show{}
	case in.AwaitingWord && text != "":
		return AddWord{Raw: text}
	}
	return Unrecognized{}
}

// splitCommand splits "/cmd@bot payload" into "/cmd" and "payload".
func splitCommand(text string) (name, payload string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		head, rest = text[:i], text[i:]
	}
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest), true
}
