package logger

import (
	"log/slog"
	"strings"
)

// knownOutcome lists handler results and registration flow results.
var knownOutcome = enum("ok", "fail", "cancelled", "rate_limited", "denied",
	"prompted", "registered", "already_registered", "not_member",
	"invalid_link", "empty_name", "idle",
	"not_found", "empty", "bad_payload")

func enum(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// levelName maps slog levels onto the names used in output.
func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

// defaultKeyOrder puts identifying keys first; the rest follow alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "handler",
	"op", "cb_key", "outcome", "duration_ms",
	"group_id", "target_user_id", "page", "count",
	"members", "registered", "unregistered",
	"payload", "username", "lang",
	"mode", "listen", "public_url", "storage", "driver",
	"err", "err_code",
}

// sanitizeEnums lowercases status and outcome. Unknown outcomes are dropped.
func sanitizeEnums(e entry) {
	if v, ok := e.str("status"); ok {
		e.set("status", strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := e.str("outcome"); ok {
		v = strings.ToLower(strings.TrimSpace(v))
		if _, known := knownOutcome[v]; known {
			e.set("outcome", v)
		} else {
			e.del("outcome")
		}
	}
}
