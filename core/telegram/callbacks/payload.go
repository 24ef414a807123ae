package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// PayloadInt parses callback payload as int.
func PayloadInt(c tele.Context) (int, error) {
	return strconv.Atoi(strings.TrimSpace(CallbackPayload(c)))
}

// Index parses the payload as a zero-based index into a list of n items.
func Index(c tele.Context, n int) (int, bool) {
	i, err := PayloadInt(c)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}
