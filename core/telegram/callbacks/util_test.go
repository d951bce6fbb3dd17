package callbacks

import (
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name          string
		cb            *tele.Callback
		unique, value string
	}{
		{"nil", nil, "", ""},
		{"raw encoding", &tele.Callback{Data: Encode("confirm", "4d1c")}, "confirm", "4d1c"},
		{"no payload", &tele.Callback{Data: Encode("cancel", "")}, "cancel", ""},
		{"payload with separator", &tele.Callback{Data: "\fconfirm|a|b"}, "confirm", "a|b"},
		{"already split", &tele.Callback{Unique: "confirm", Data: "4d1c"}, "confirm", "4d1c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			unique, payload := ParseCallbackData(tc.cb)
			require.Equal(t, tc.unique, unique)
			require.Equal(t, tc.value, payload)
		})
	}
}
