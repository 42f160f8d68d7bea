package state

import tele "gopkg.in/telebot.v4"

// State identifies a dialog step.
type State string

// StateIdle means no dialog is active.
const StateIdle State = "idle"

// Session is a snapshot of one conversation's state and scratch values.
type Session struct {
	State State
	Temp  map[string]any
}

// Store keeps sessions keyed by conversation (chat) id.
type Store interface {
	Get(id int64) Session
	SetState(id int64, st State)
	SetTemp(id int64, key string, value any)
	GetTempInt64(id int64, key string) (int64, bool)
	Clear(id int64)
	InProgress(id int64) bool
}

// Manager is a Store that also dispatches text to per-state handlers.
type Manager interface {
	Store
	Handle(st State, h tele.HandlerFunc)
	Dispatch(c tele.Context) error
}
