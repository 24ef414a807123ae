package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/adboard/core/telegram"
	tghelpers "github.com/m3rciful/adboard/core/telegram/helpers"
)

// Conversation reports whether a user is in the middle of a multi-step dialogue.
type Conversation interface {
	InProgress(userID int64) bool
}

// MessageOptions wires plain messages into a conversation.
// Text and Photo receive messages from users with a dialogue in progress.
type MessageOptions struct {
	Conversation Conversation
	Text         tele.HandlerFunc
	Photo        tele.HandlerFunc
}

// MessageRoutes builds handlers for text and photo messages.
// Text is matched against command aliases first, so a reply keyboard button
// always works, then routed to the conversation, then to the text fallback.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	inProgress := func(c tele.Context) bool {
		return opts.Conversation != nil && opts.Conversation.InProgress(tghelpers.SenderID(c))
	}

	text := func(c tele.Context) error {
		if reg != nil {
			if name, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handleWithSummary(c, "command."+normalizeHandlerName(name), func() error { return cmd.Handler(c) })
			}
		}
		if opts.Text != nil && inProgress(c) {
			return handleWithSummary(c, "fsm.text", func() error { return opts.Text(c) })
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback.text", func() error { return fb(c) })
			}
		}
		logHandlerSummary(c, "unknown_text", time.Now(), "skip", nil)
		return nil
	}

	photo := func(c tele.Context) error {
		if opts.Photo != nil && inProgress(c) {
			return handleWithSummary(c, "fsm.photo", func() error { return opts.Photo(c) })
		}
		if reg != nil {
			if fb := reg.PhotoFallback(); fb != nil {
				return handleWithSummary(c, "fallback.photo", func() error { return fb(c) })
			}
		}
		logHandlerSummary(c, "unexpected_photo", time.Now(), "skip", nil)
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: text},
		{Endpoint: tele.OnPhoto, Handler: photo},
	}
}
