// Package keyboard builds inline keyboards whose callback data is the plain
// "<key>|<payload>" string understood by the callback router.
package keyboard

import (
	"github.com/m3rciful/rosterbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// Button returns a callback button carrying key and payload.
func Button(text, key, payload string) tele.InlineButton {
	return tele.InlineButton{Text: text, Data: callbacks.Data(key, payload)}
}

// Link returns a button that opens url.
func Link(text, url string) tele.InlineButton {
	return tele.InlineButton{Text: text, URL: url}
}

// Row groups buttons into one keyboard row.
func Row(buttons ...tele.InlineButton) []tele.InlineButton {
	return buttons
}

// Inline assembles rows into a markup. Empty rows are dropped.
func Inline(rows ...[]tele.InlineButton) *tele.ReplyMarkup {
	kb := make([][]tele.InlineButton, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			kb = append(kb, r)
		}
	}
	return &tele.ReplyMarkup{InlineKeyboard: kb}
}
