// Package bot holds the Telegram handlers of rosterbot and wires them into
// the command, callback and text routers.
package bot

import (
	"context"
	"fmt"
	"strconv"

	tg "github.com/m3rciful/rosterbot/core/telegram"
	"github.com/m3rciful/rosterbot/core/telegram/commands"
	"github.com/m3rciful/rosterbot/core/telegram/router"
	"github.com/m3rciful/rosterbot/core/telegram/state"
	"github.com/m3rciful/rosterbot/internal/locale"
	"github.com/m3rciful/rosterbot/internal/registration"
	"github.com/m3rciful/rosterbot/internal/report"
	"github.com/m3rciful/rosterbot/internal/roster"
	"github.com/m3rciful/rosterbot/internal/userinfo"

	tele "gopkg.in/telebot.v4"
)

// Callback keys. Data on the wire is <key>|<payload>.
const (
	CallbackPage   = "grp_page"
	CallbackSelect = "grp_sel"
)

// GroupRegistrar is the store write used by /register.
type GroupRegistrar interface {
	AddGroup(ctx context.Context, groupID int64, title string) error
}

// Deps are the collaborators of the handlers.
type Deps struct {
	Texts        *locale.Store
	Groups       GroupRegistrar
	Registration *registration.Service
	Roster       *roster.Browser
	Reports      *report.Generator
	Info         *userinfo.Service
	Sessions     state.Manager
	Admins       map[int64]struct{}
	// Username is the bot's @name without the at sign, used in deep links.
	Username string
}

// Bot implements the handlers.
type Bot struct {
	Deps
}

// New builds the handler set.
func New(d Deps) *Bot {
	if d.Texts == nil {
		d.Texts = locale.New(nil)
	}
	return &Bot{Deps: d}
}

// DeepLink returns the registration link for a group.
func (b *Bot) DeepLink(groupID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%s%s", b.Username, registration.LinkPrefix, strconv.FormatInt(groupID, 10))
}

// Register adds commands, callbacks and the dialog handler to the registry
// and returns the routes to install on the bot.
func (b *Bot) Register(reg *tg.Registry) ([]tg.Route, error) {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: b.handleStart, Description: "Start or continue registration"}},
		{"/register", commands.Command{Handler: b.handleRegister, Description: "Post the registration link in this group", AdminOnly: true}},
		{"/users", commands.Command{Handler: b.handleUsers, Description: "Browse groups and export registrations", AdminOnly: true}},
		{"/info", commands.Command{Handler: b.handleInfo, Description: "Show what is stored about a user", AdminOnly: true}},
		{"/id", commands.Command{Handler: b.handleID, Description: "Show this chat's id", Hidden: true}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return nil, err
		}
	}

	if err := reg.RegisterCallback(CallbackPage, b.handlePage); err != nil {
		return nil, err
	}
	if err := reg.RegisterCallback(CallbackSelect, b.handleSelect); err != nil {
		return nil, err
	}
	reg.SetCallbackNotFound(func(tele.Context) error { return nil })

	if b.Sessions != nil {
		b.Sessions.Handle(registration.StateAwaitingName, b.handleName)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{Admins: b.Admins})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		Admins: b.Admins,
		AdminKeys: map[string]struct{}{
			CallbackPage:   {},
			CallbackSelect: {},
		},
	}))
	if b.Sessions != nil {
		routes = append(routes, router.TextRoutes(b.Sessions)...)
	}
	return routes, nil
}
