package handlers

import (
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/adboard/bot/listing"
	"github.com/m3rciful/adboard/bot/texts"
	"github.com/m3rciful/adboard/core/telegram/format"
	"github.com/m3rciful/adboard/core/telegram/keyboard"
)

const (
	uniqueCategory = "cat"
	uniqueCancel   = "cancel"
)

// MainKeyboard is the persistent two-button reply keyboard.
func MainKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{texts.ButtonAdd}, []string{texts.ButtonList})
}

// CategoryKeyboard lists the choices as inline buttons carrying their index,
// followed by a cancel button.
func CategoryKeyboard(choices []string) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(choices))
	for i, label := range choices {
		buttons = append(buttons, keyboard.InlineBtn{Text: label, Unique: uniqueCategory, Data: strconv.Itoa(i)})
	}
	return keyboard.WithCancel(buttons, texts.ButtonStop, uniqueCancel)
}

// Card renders one listing as Telegram HTML.
func Card(l listing.Listing, currency string, loc *time.Location) string {
	added := ""
	if !l.CreatedAt.IsZero() {
		if loc == nil {
			loc = time.UTC
		}
		added = listing.DateKey(l.CreatedAt.In(loc))
	}
	return format.Lines(
		format.Bold(l.Title),
		format.Field(texts.CardCategory, l.Category),
		format.Field(texts.CardPrice, withCurrency(l.Price, currency)),
		format.Field(texts.CardDescription, l.Description),
		format.Field(texts.CardContact, l.Contact),
		format.Field(texts.CardAdded, added),
	)
}

// withCurrency appends the currency unless the user already typed it.
func withCurrency(price, currency string) string {
	price = strings.TrimSpace(price)
	if price == "" || currency == "" {
		return price
	}
	if strings.Contains(strings.ToUpper(price), strings.ToUpper(currency)) {
		return price
	}
	return price + " " + currency
}
