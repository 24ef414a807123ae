// Package handlers adapts Telegram updates to conversation events and renders
// the resulting actions.
package handlers

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/adboard/bot/conversation"
	"github.com/m3rciful/adboard/bot/texts"
	"github.com/m3rciful/adboard/core/logger"
	tg "github.com/m3rciful/adboard/core/telegram"
	"github.com/m3rciful/adboard/core/telegram/callbacks"
	"github.com/m3rciful/adboard/core/telegram/commands"
	"github.com/m3rciful/adboard/core/telegram/format"
	tghelpers "github.com/m3rciful/adboard/core/telegram/helpers"
	"github.com/m3rciful/adboard/core/telegram/router"
)

// Engine is the part of the conversation engine the handlers drive.
type Engine interface {
	Handle(ctx context.Context, ev conversation.Event) (conversation.Action, error)
	InProgress(userID int64) bool
	Categories() []string
}

// Options tune listing rendering.
type Options struct {
	Currency string
	Location *time.Location
}

// Handlers holds the bot's Telegram handlers.
type Handlers struct {
	engine Engine
	opts   Options
}

// New returns handlers over engine.
func New(engine Engine, opts Options) *Handlers {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Handlers{engine: engine, opts: opts}
}

// Register adds the bot's commands, callbacks and fallbacks to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := map[string]commands.Command{
		"/start":  {Handler: h.Start, Description: "Главное меню", Hidden: true},
		"/add":    {Handler: h.Add, Description: "Добавить объявление", Aliases: []string{texts.ButtonAdd}},
		"/list":   {Handler: h.List, Description: "Последние объявления", Aliases: []string{texts.ButtonList}},
		"/cancel": {Handler: h.Cancel, Description: "Отменить добавление", Aliases: []string{texts.ButtonStop}},
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return err
		}
	}
	if err := reg.RegisterCallback(uniqueCategory, h.Category); err != nil {
		return err
	}
	if err := reg.RegisterCallback(uniqueCancel, h.CancelButton); err != nil {
		return err
	}
	reg.SetCallbackNotFound(func(c tele.Context) error { return tghelpers.Answer(c) })
	reg.SetTextFallback(h.Text)
	reg.SetPhotoFallback(h.Photo)
	return nil
}

// Routes returns every route of the bot, built from reg after Register.
func (h *Handlers) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg)
	routes = append(routes, router.MessageRoutes(reg, router.MessageOptions{
		Conversation: h.engine,
		Text:         h.Text,
		Photo:        h.Photo,
	})...)
	return append(routes, router.CallbackRoute(reg))
}

// Start greets the user and shows the main keyboard.
func (h *Handlers) Start(c tele.Context) error {
	return tghelpers.SendText(c, texts.Greeting, MainKeyboard())
}

// Add begins a new listing.
func (h *Handlers) Add(c tele.Context) error {
	return h.dispatch(c, conversation.Start(tghelpers.SenderID(c)))
}

// List shows the most recent listings.
func (h *Handlers) List(c tele.Context) error {
	return h.dispatch(c, conversation.Browse(tghelpers.SenderID(c)))
}

// Cancel aborts the listing in progress.
func (h *Handlers) Cancel(c tele.Context) error {
	return h.dispatch(c, conversation.Cancel(tghelpers.SenderID(c)))
}

// Text forwards a plain message to the conversation.
func (h *Handlers) Text(c tele.Context) error {
	return h.dispatch(c, conversation.Text(tghelpers.SenderID(c), c.Text()))
}

// Photo forwards an attached picture to the conversation.
func (h *Handlers) Photo(c tele.Context) error {
	var album string
	if m := c.Message(); m != nil {
		album = m.AlbumID
	}
	return h.dispatch(c, conversation.AlbumPhotos(tghelpers.SenderID(c), album, photosOf(c.Message())...))
}

// Category handles a press on a category button.
func (h *Handlers) Category(c tele.Context) error {
	_ = tghelpers.Answer(c)
	label := ""
	choices := h.engine.Categories()
	if i, ok := callbacks.Index(c, len(choices)); ok {
		label = choices[i]
	}
	return h.dispatch(c, conversation.MenuSelection(tghelpers.SenderID(c), label))
}

// CancelButton handles the inline cancel button.
func (h *Handlers) CancelButton(c tele.Context) error {
	_ = tghelpers.Answer(c)
	return h.Cancel(c)
}

// Limited replies to a user who sends updates too fast.
func (h *Handlers) Limited(c tele.Context) error {
	if c.Callback() != nil {
		return tghelpers.Answer(c, texts.TooFast)
	}
	return tghelpers.SendText(c, texts.TooFast)
}

func photosOf(m *tele.Message) []conversation.Photo {
	if m == nil || m.Photo == nil {
		return nil
	}
	p := m.Photo
	return []conversation.Photo{{
		FileID:   p.FileID,
		Width:    p.Width,
		Height:   p.Height,
		FileSize: p.FileSize,
	}}
}

func (h *Handlers) dispatch(c tele.Context, ev conversation.Event) error {
	ctx := tghelpers.BuildContext(c)
	act, err := h.engine.Handle(ctx, ev)
	if err != nil {
		logger.Error(ctx, "tg", "dispatch.failed",
			slog.String("input", ev.Kind.String()),
			logger.Err(err),
		)
		// Logged above; the bot-level error handler only sees send failures.
		return tghelpers.SendText(c, texts.Failure)
	}
	return h.render(ctx, c, act)
}

func (h *Handlers) render(ctx context.Context, c tele.Context, act conversation.Action) error {
	switch act.Kind {
	case conversation.ActionPromptWithChoices:
		return tghelpers.SendText(c, act.Text, CategoryKeyboard(act.Choices))
	case conversation.ActionReject:
		if len(act.Choices) > 0 {
			return tghelpers.SendText(c, act.Text, CategoryKeyboard(act.Choices))
		}
		return tghelpers.SendText(c, act.Text)
	case conversation.ActionPrompt:
		return tghelpers.SendText(c, act.Text)
	case conversation.ActionConfirm, conversation.ActionQuotaRejected, conversation.ActionIdle:
		return tghelpers.SendText(c, act.Text, MainKeyboard())
	case conversation.ActionListings:
		return h.sendListings(ctx, c, act)
	case conversation.ActionNone:
		return nil
	default:
		logger.Warn(ctx, "tg", "render.unknown_action", slog.String("status", act.Kind.String()))
		return nil
	}
}

func (h *Handlers) sendListings(ctx context.Context, c tele.Context, act conversation.Action) error {
	if len(act.Listings) == 0 {
		return tghelpers.SendText(c, act.Text, MainKeyboard())
	}
	for _, l := range act.Listings {
		card := Card(l, h.opts.Currency, h.opts.Location)
		var err error
		if l.HasPhoto() {
			err = tghelpers.SendPhotoHTML(c, format.DerefString(l.Photo, ""), card)
		} else {
			err = tghelpers.SendHTML(c, card)
		}
		if err != nil {
			logger.Warn(ctx, "tg", "listing.send_failed", slog.Int64("listing_id", l.ID), logger.Err(err))
			return err
		}
	}
	return nil
}
