package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rosterbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"}))
	require.NoError(t, reg.RegisterCommand("/users", commands.Command{Handler: noop, Description: "users", AdminOnly: true}))
	require.NoError(t, reg.RegisterCommand("/id", commands.Command{Handler: noop, Description: "id", Hidden: true}))

	assert.ErrorIs(t, reg.RegisterCommand("nostart", commands.Command{Handler: noop, Description: "bad"}), ErrInvalidRegistration)
	assert.ErrorIs(t, reg.RegisterCommand("/empty", commands.Command{Handler: noop}), ErrInvalidRegistration)
	assert.ErrorIs(t, reg.RegisterCommand("/", commands.Command{Handler: noop, Description: "x"}), ErrInvalidRegistration)
	assert.ErrorIs(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"}), ErrDuplicate)

	assert.Len(t, reg.Commands(), 3)
	assert.Equal(t, "start", reg.Commands()["/start"].Description)
	assert.Equal(t, []tele.Command{{Text: "start", Description: "start"}}, reg.MenuCommands())
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("grp_sel", noop))
	require.NoError(t, reg.RegisterCallback("grp_page", noop))
	assert.ErrorIs(t, reg.RegisterCallback("grp_page", noop), ErrDuplicate)
	assert.ErrorIs(t, reg.RegisterCallback("", noop), ErrInvalidRegistration)

	assert.Equal(t, []string{"grp_page", "grp_sel"}, reg.CallbackKeys())
	_, ok := reg.Callback("grp_sel")
	assert.True(t, ok)
	_, ok = reg.Callback("other")
	assert.False(t, ok)

	assert.NoError(t, reg.CallbackNotFound()(nil))
	called := false
	reg.SetCallbackNotFound(func(tele.Context) error { called = true; return nil })
	reg.SetCallbackNotFound(nil)
	require.NoError(t, reg.CallbackNotFound()(nil))
	assert.True(t, called)
}

type menuRecorder struct {
	got []any
	err error
}

func (m *menuRecorder) SetCommands(opts ...any) error {
	m.got = opts
	return m.err
}

func TestPublishCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"}))

	rec := &menuRecorder{}
	PublishCommands(rec, reg)
	require.Len(t, rec.got, 1)
	assert.Equal(t, []tele.Command{{Text: "start", Description: "start"}}, rec.got[0])

	rec.err = assert.AnError
	PublishCommands(rec, reg)
}

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "webhook", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"}})
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)

	lp, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, lp.Timeout)
}

func TestBuildHTTPClientTimeout(t *testing.T) {
	c := BuildHTTPClient(PollTimeout(25))
	assert.Equal(t, PollTimeout(25)+defaultRequestBudget, c.Timeout)
}

func TestBuildPollerIPv6Listen(t *testing.T) {
	wh, ok := BuildPoller(PollerOptions{RunMode: "WEBHOOK", Webhook: WebhookOptions{Listen: "::", Port: 80}}).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "[::]:80", wh.Listen)
	assert.Equal(t, defaultRequestBudget, BuildHTTPClient(-time.Second).Timeout)
}
