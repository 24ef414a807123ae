package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/adboard/bot/conversation"
	"github.com/m3rciful/adboard/bot/listing"
	"github.com/m3rciful/adboard/bot/texts"
	tg "github.com/m3rciful/adboard/core/telegram"
)

func TestCardEscapesAndFormats(t *testing.T) {
	photo := "AgAC"
	l := listing.Listing{
		ID:          3,
		Category:    "🛒 Куплю/Продам",
		Title:       "Велосипед <b>почти</b> новый",
		Description: "Рама & колёса",
		Price:       "4500",
		Photo:       &photo,
		Contact:     "@rider",
		CreatedAt:   time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC),
	}
	prague := time.FixedZone("CEST", 2*60*60)

	got := Card(l, "CZK", prague)
	want := "<b>Велосипед &lt;b&gt;почти&lt;/b&gt; новый</b>\n" +
		"Категория: 🛒 Куплю/Продам\n" +
		"Цена: 4500 CZK\n" +
		"Описание: Рама &amp; колёса\n" +
		"Контакт: @rider\n" +
		"Добавлено: 2024-05-02"
	assert.Equal(t, want, got)
}

func TestCardWithoutDate(t *testing.T) {
	got := Card(listing.Listing{Title: "t", Category: "c", Price: "1", Description: "d", Contact: "x"}, "CZK", nil)
	assert.NotContains(t, got, texts.CardAdded)
}

func TestWithCurrency(t *testing.T) {
	assert.Equal(t, "100 CZK", withCurrency("100", "CZK"))
	assert.Equal(t, "100 czk", withCurrency("100 czk", "CZK"))
	assert.Equal(t, "договорная CZK", withCurrency("договорная", "CZK"))
	assert.Equal(t, "100", withCurrency("100", ""))
}

func TestCategoryKeyboard(t *testing.T) {
	m := CategoryKeyboard(conversation.DefaultCategories)
	require.Len(t, m.InlineKeyboard, len(conversation.DefaultCategories)+1)
	first := m.InlineKeyboard[0][0]
	assert.Equal(t, "🏠 Аренда", first.Text)
	assert.Equal(t, uniqueCategory, first.Unique)
	assert.Equal(t, "0", first.Data)
	assert.Equal(t, uniqueCancel, m.InlineKeyboard[len(m.InlineKeyboard)-1][0].Unique)
}

func TestMainKeyboard(t *testing.T) {
	m := MainKeyboard()
	require.Len(t, m.ReplyKeyboard, 2)
	assert.Equal(t, texts.ButtonAdd, m.ReplyKeyboard[0][0].Text)
	assert.Equal(t, texts.ButtonList, m.ReplyKeyboard[1][0].Text)
}

func TestPhotosOf(t *testing.T) {
	assert.Nil(t, photosOf(nil))
	assert.Nil(t, photosOf(&tele.Message{Text: "hi"}))

	msg := &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "big", FileSize: 2048}, Width: 1280, Height: 720}}
	assert.Equal(t, []conversation.Photo{{FileID: "big", Width: 1280, Height: 720, FileSize: 2048}}, photosOf(msg))
}

type stubEngine struct{}

func (stubEngine) Handle(context.Context, conversation.Event) (conversation.Action, error) {
	return conversation.Action{}, nil
}
func (stubEngine) InProgress(int64) bool { return false }
func (stubEngine) Categories() []string  { return conversation.DefaultCategories }

func TestRegister(t *testing.T) {
	reg := tg.NewRegistry()
	h := New(stubEngine{}, Options{Currency: "CZK"})
	require.NoError(t, h.Register(reg))

	name, _, ok := reg.LookupCommand(texts.ButtonAdd)
	require.True(t, ok)
	assert.Equal(t, "/add", name)
	name, _, ok = reg.LookupCommand(texts.ButtonList)
	require.True(t, ok)
	assert.Equal(t, "/list", name)

	assert.Equal(t, []string{uniqueCancel, uniqueCategory}, reg.ListCallbacks())
	assert.NotNil(t, reg.TextFallback())
	assert.NotNil(t, reg.PhotoFallback())

	// Four commands, text, photo and the callback route.
	assert.Len(t, h.Routes(reg), 7)
}
