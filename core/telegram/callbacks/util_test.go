package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name         string
		cb           *tele.Callback
		unique, data string
	}{
		{"nil", nil, "", ""},
		{"raw", &tele.Callback{Data: "\fcat|3"}, "cat", "3"},
		{"no payload", &tele.Callback{Data: "\fcancel"}, "cancel", ""},
		{"matched", &tele.Callback{Unique: "cat", Data: "1"}, "cat", "1"},
		{"pipe in payload", &tele.Callback{Data: "\fx|a|b"}, "x", "a|b"},
		{"foreign data", &tele.Callback{Data: "cat_🏠 Аренда"}, "cat_🏠 Аренда", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, p := ParseCallbackData(tc.cb)
			assert.Equal(t, tc.unique, u)
			assert.Equal(t, tc.data, p)
		})
	}
}
