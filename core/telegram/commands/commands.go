// Package commands describes slash commands kept in the registry.
package commands

import tele "gopkg.in/telebot.v4"

// Command is one slash command.
type Command struct {
	Handler tele.HandlerFunc
	// Description is shown in the Telegram command menu.
	Description string
	// AdminOnly commands never appear in the menu and are dropped for
	// senders outside the admin set.
	AdminOnly bool
	// Hidden commands work but are left out of the menu.
	Hidden bool
}
