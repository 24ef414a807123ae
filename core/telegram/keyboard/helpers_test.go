package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"a"}, []string{"b", "c"})
	require.Len(t, m.ReplyKeyboard, 2)
	assert.Equal(t, "a", m.ReplyKeyboard[0][0].Text)
	assert.Len(t, m.ReplyKeyboard[1], 2)
	assert.True(t, m.ResizeKeyboard)
}

func TestWithCancel(t *testing.T) {
	m := WithCancel([]InlineBtn{{Text: "x", Unique: "cat", Data: "0"}, {Text: "y", Unique: "cat", Data: "1"}}, "stop", "cancel")
	require.Len(t, m.InlineKeyboard, 3)
	assert.Equal(t, "y", m.InlineKeyboard[1][0].Text)
	assert.Equal(t, "cat", m.InlineKeyboard[1][0].Unique)
	assert.Equal(t, "1", m.InlineKeyboard[1][0].Data)
	assert.Equal(t, "cancel", m.InlineKeyboard[2][0].Unique)
}
