package helpers

import (
	"unicode/utf8"

	tele "gopkg.in/telebot.v4"
)

// CaptionLimit is the longest photo caption Telegram accepts, in characters.
const CaptionLimit = 1024

func markupOf(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}

// SendText sends raw text (no parse mode) with an optional reply markup.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Send(text, &tele.SendOptions{ParseMode: tele.ModeDefault, ReplyMarkup: markupOf(markup)})
}

// SendHTML sends an HTML formatted message with an optional reply markup.
func SendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Send(text, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markupOf(markup)})
}

// SendPhotoHTML sends a stored photo by file id with an HTML caption. A caption
// too long for Telegram is sent as a separate message right after the photo.
func SendPhotoHTML(c tele.Context, fileID, caption string, markup ...*tele.ReplyMarkup) error {
	photo := &tele.Photo{File: tele.File{FileID: fileID}}
	if utf8.RuneCountInString(caption) <= CaptionLimit {
		photo.Caption = caption
		return c.Send(photo, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markupOf(markup)})
	}
	if err := c.Send(photo); err != nil {
		return err
	}
	return SendHTML(c, caption, markup...)
}

// Answer acknowledges a callback query so the client stops its spinner.
// It is a no-op for other updates.
func Answer(c tele.Context, text ...string) error {
	if c.Callback() == nil {
		return nil
	}
	resp := &tele.CallbackResponse{}
	if len(text) > 0 {
		resp.Text = text[0]
	}
	return c.Respond(resp)
}
