package bot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		in   Inbound
		want Event
	}{
		{"addword", Inbound{Text: "/addword Cat"}, AddWord{Raw: "Cat"}},
		{"addword mention", Inbound{Text: "/addword@dict_bot  ice cream "}, AddWord{Raw: "ice cream"}},
		{"addword newline", Inbound{Text: "/addword\ncat"}, AddWord{Raw: "cat"}},
		{"addword upper command", Inbound{Text: "/ADDWORD cat"}, AddWord{Raw: "cat"}},
		{"addword without word prompts", Inbound{Text: "/addword"}, PromptAddWord{}},
		{"show", Inbound{Text: "/show"}, Show{}},
		{"show label", Inbound{Text: "My words"}, Show{}},
		{"start", Inbound{Text: "/start", FirstName: "Ann"}, Start{Name: "Ann"}},
		{"help", Inbound{Text: "/help"}, Help{}},
		{"info", Inbound{Text: "/info", Language: "de"}, Info{Language: "de"}},
		{"menu label", Inbound{Text: "Add word"}, PromptAddWord{}},
		{"reply to prompt", Inbound{Text: "Cat", AwaitingWord: true}, AddWord{Raw: "Cat"}},
		{"command beats prompt", Inbound{Text: "/show", AwaitingWord: true}, Show{}},
		{"plain text", Inbound{Text: "hello"}, Unrecognized{}},
		{"unknown command", Inbound{Text: "/play"}, Unrecognized{}},
		{"empty", Inbound{}, Unrecognized{}},
		{"confirm", Inbound{CallbackUnique: ConfirmUnique, CallbackData: "tok-1"}, Confirm{Token: "tok-1"}},
		{"confirm without token", Inbound{CallbackUnique: ConfirmUnique}, Unrecognized{}},
		{"other callback", Inbound{CallbackUnique: "play", CallbackData: "x", Text: "/show"}, Unrecognized{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Parse(tc.in))
		})
	}
}
