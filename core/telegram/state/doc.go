// Package state keeps per-conversation dialog state in memory and routes free
// text to the handler registered for the current state.
package state
