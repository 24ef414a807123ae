package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/adboard/core/telegram"
	"github.com/m3rciful/adboard/core/telegram/commands"
)

type inProgress map[int64]bool

func (p inProgress) InProgress(userID int64) bool { return p[userID] }

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	require.NoError(t, err)
	return b
}

func textCtx(b *tele.Bot, userID int64, text string) tele.Context {
	return b.NewContext(tele.Update{ID: 1, Message: &tele.Message{
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID},
		Text:   text,
	}})
}

func routeFor(routes []tg.Route, endpoint any) tele.HandlerFunc {
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	return nil
}

func TestTextRoutingOrder(t *testing.T) {
	b := offlineBot(t)
	var hits []string
	record := func(name string) tele.HandlerFunc {
		return func(tele.Context) error { hits = append(hits, name); return nil }
	}

	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/add", commands.Command{
		Handler: record("add"), Description: "add", Aliases: []string{"➕ Добавить объявление"},
	}))
	reg.SetTextFallback(record("fallback"))

	routes := MessageRoutes(reg, MessageOptions{
		Conversation: inProgress{1: true},
		Text:         record("fsm"),
		Photo:        record("fsm_photo"),
	})
	text := routeFor(routes, tele.OnText)
	require.NotNil(t, text)

	require.NoError(t, text(textCtx(b, 1, "➕ Добавить объявление")))
	require.NoError(t, text(textCtx(b, 1, "Продам велосипед")))
	require.NoError(t, text(textCtx(b, 2, "Продам велосипед")))
	assert.Equal(t, []string{"add", "fsm", "fallback"}, hits)

	photo := routeFor(routes, tele.OnPhoto)
	require.NotNil(t, photo)
	require.NoError(t, photo(textCtx(b, 1, "")))
	require.NoError(t, photo(textCtx(b, 2, "")))
	assert.Equal(t, []string{"add", "fsm", "fallback", "fsm_photo"}, hits)
}

func TestCallbackRoute(t *testing.T) {
	b := offlineBot(t)
	reg := tg.NewRegistry()
	var got string
	require.NoError(t, reg.RegisterCallback("cat", func(c tele.Context) error {
		got = c.Callback().Data
		return nil
	}))
	notFound := errors.New("not found")
	reg.SetCallbackNotFound(func(tele.Context) error { return notFound })

	h := CallbackRoute(reg).Handler
	cb := func(data string) tele.Context {
		return b.NewContext(tele.Update{ID: 2, Callback: &tele.Callback{Sender: &tele.User{ID: 5}, Data: data}})
	}

	require.NoError(t, h(cb("\fcat|3")))
	assert.Equal(t, "\fcat|3", got)
	assert.ErrorIs(t, h(cb("\funknown")), notFound)
}

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
	assert.Empty(t, deriveErrorCode(nil))
	assert.Equal(t, "command.add", "command."+normalizeHandlerName("/Add"))
}
