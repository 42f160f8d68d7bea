package state

import (
	"log/slog"
	"maps"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rosterbot/core/logger"
	tghelpers "github.com/m3rciful/rosterbot/core/telegram/helpers"
)

type session struct {
	state State
	temp  map[string]any
}

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*session
	handlers map[State]tele.HandlerFunc
}

// NewMemoryManager returns a Manager whose sessions live for the process lifetime.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*session),
		handlers: make(map[State]tele.HandlerFunc),
	}
}

func (m *memoryManager) ensure(id int64) *session {
	s, ok := m.sessions[id]
	if !ok {
		s = &session{state: StateIdle, temp: make(map[string]any)}
		m.sessions[id] = s
	}
	return s
}

// Get returns a copy of the session, or an idle one.
func (m *memoryManager) Get(id int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{State: StateIdle, Temp: map[string]any{}}
	}
	return Session{State: s.state, Temp: maps.Clone(s.temp)}
}

func (m *memoryManager) SetState(id int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(id).state = st
}

func (m *memoryManager) SetTemp(id int64, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(id).temp[key] = value
}

func (m *memoryManager) GetTempInt64(id int64, key string) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return 0, false
	}
	v, ok := s.temp[key].(int64)
	return v, ok
}

// Clear drops the session entirely.
func (m *memoryManager) Clear(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// InProgress reports whether the conversation is in a non-idle state.
func (m *memoryManager) InProgress(id int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return ok && s.state != StateIdle
}

// Handle registers the text handler for a state.
func (m *memoryManager) Handle(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

// Dispatch runs the handler registered for the chat's current state, if any.
func (m *memoryManager) Dispatch(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	m.mu.RLock()
	current := StateIdle
	if s, ok := m.sessions[chat.ID]; ok {
		current = s.state
	}
	h := m.handlers[current]
	m.mu.RUnlock()

	logger.Debug(tghelpers.BuildContext(c), "tg", "fsm.dispatch",
		slog.String("status", "ok"),
		slog.String("state", string(current)),
	)
	if h == nil {
		return nil
	}
	return h(c)
}
