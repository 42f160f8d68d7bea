package router

import (
	"strings"

	tg "github.com/m3rciful/rosterbot/core/telegram"
	"github.com/m3rciful/rosterbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for a dialog manager keyed by chat id.
type FSM interface {
	InProgress(chatID int64) bool
	Dispatch(c tele.Context) error
}

// TextRoutes routes free text in private chats to the dialog manager.
// Text in groups, text outside a dialog and unknown commands are ignored.
func TextRoutes(fsmMgr FSM) []tg.Route {
	handler := func(c tele.Context) error {
		chat := c.Chat()
		text := c.Text()

		switch {
		case fsmMgr == nil || chat == nil:
		case chat.Type != tele.ChatPrivate:
		case strings.HasPrefix(text, "/"):
		case fsmMgr.InProgress(chat.ID):
			return newSummary("fsm").run(c, func() error {
				return fsmMgr.Dispatch(c)
			})
		}

		if chat != nil && chat.Type == tele.ChatPrivate {
			newSummary("text").skip(c, "idle")
		}
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}
