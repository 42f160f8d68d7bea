package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/rosterbot/core/logger"
	"github.com/m3rciful/rosterbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrInvalidRegistration is returned for empty names, missing handlers
	// or commands without a leading slash or description.
	ErrInvalidRegistration = errors.New("telegram: invalid registration")
	// ErrDuplicate is returned when a command or callback key is taken.
	ErrDuplicate = errors.New("telegram: already registered")
)

// Registry maps command names and callback keys to handlers.
// Registration happens during setup; lookups are safe from any goroutine.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]commands.Command
	callbacks map[string]tele.HandlerFunc
	notFound  tele.HandlerFunc
}

// NewRegistry returns an empty registry whose unknown-callback handler does nothing.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
		notFound:  func(tele.Context) error { return nil },
	}
}

// RegisterCommand adds a "/name" command.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	if !strings.HasPrefix(name, "/") || len(name) < 2 || cmd.Handler == nil || cmd.Description == "" {
		return fmt.Errorf("%w: command %q", ErrInvalidRegistration, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.commands[name]; taken {
		return fmt.Errorf("%w: command %q", ErrDuplicate, name)
	}
	r.commands[name] = cmd
	return nil
}

// Commands returns a copy of the registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.commands)
}

// MenuCommands lists commands for the Telegram menu: public ones only,
// sorted, names without the slash.
func (r *Registry) MenuCommands() []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var menu []tele.Command
	for _, name := range slices.Sorted(maps.Keys(r.commands)) {
		cmd := r.commands[name]
		if cmd.Hidden || cmd.AdminOnly {
			continue
		}
		menu = append(menu, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
	}
	return menu
}

// RegisterCallback binds a callback key.
func (r *Registry) RegisterCallback(key string, h tele.HandlerFunc) error {
	if key == "" || h == nil {
		return fmt.Errorf("%w: callback %q", ErrInvalidRegistration, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.callbacks[key]; taken {
		return fmt.Errorf("%w: callback %q", ErrDuplicate, key)
	}
	r.callbacks[key] = h
	return nil
}

// Callback returns the handler bound to key.
func (r *Registry) Callback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// CallbackKeys returns the bound keys, sorted.
func (r *Registry) CallbackKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.callbacks))
}

// SetCallbackNotFound replaces the handler for unknown keys. Nil is ignored.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.notFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the handler for unknown keys.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notFound
}

// CommandSetter is the part of *tele.Bot that publishes the command menu.
type CommandSetter interface {
	SetCommands(opts ...any) error
}

// PublishCommands sends the menu to Telegram. Failure is logged, not fatal.
func PublishCommands(bot CommandSetter, reg *Registry) {
	menu := reg.MenuCommands()
	if err := bot.SetCommands(menu); err != nil {
		logger.TWire.Warn("set commands failed",
			slog.String("event", "commands.publish"),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.TWire.Info("commands published",
		slog.String("event", "commands.publish"),
		slog.Int("count", len(menu)),
	)
}
