package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

type format int

const (
	formatJSON format = iota
	formatKV
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type field struct {
	key string
	val any
}

// entry is one log line before encoding.
type entry map[string]any

func (e entry) set(k string, v any) { e[k] = v }
func (e entry) del(k string)        { delete(e, k) }

func (e entry) str(k string) (string, bool) {
	v, ok := e[k].(string)
	return v, ok && v != ""
}

// handler renders slog records as one JSON object or one key=value line.
// Durations become <key>_ms integers; update metadata from the context fills
// rid, update_id, user_id, chat_id and handler unless set explicitly.
type handler struct {
	level  slog.Leveler
	out    *sink
	format format
	order  []string
	group  string
	pre    []field
}

func (h *handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	ts := r.Time.UTC()
	e := entry{
		"ts":    ts.Truncate(time.Millisecond).Format(timeLayout),
		"level": levelName(r.Level),
	}
	if h.format == formatJSON {
		e["ts_unix_nano"] = ts.UnixNano()
	}
	for _, f := range h.pre {
		e[f.key] = f.val
	}
	r.Attrs(func(a slog.Attr) bool {
		for _, f := range flatten(h.group, a) {
			e[f.key] = f.val
		}
		return true
	})
	for _, f := range metaFrom(ctx).attrs() {
		if _, ok := e[f.key]; !ok {
			e[f.key] = f.val
		}
	}

	if rid, ok := e.str("rid"); ok {
		if short := CompactRID(rid); short != rid {
			e["rid"] = short
			if h.format == formatJSON {
				e["rid_full"] = rid
			}
		}
	}
	if _, ok := e.str("event"); !ok {
		e["event"] = cmpOr(r.Message, "unknown")
	}
	if _, ok := e.str("component"); !ok {
		e["component"] = "app"
	}
	sanitizeEnums(e)

	var line []byte
	if h.format == formatJSON {
		var err error
		if line, err = encodeJSON(e, h.order); err != nil {
			return err
		}
	} else {
		line = encodeKV(e, h.order)
	}
	return h.out.Write(append(line, '\n'))
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.pre = slices.Clone(h.pre)
	for _, a := range attrs {
		clone.pre = append(clone.pre, flatten(h.group, a)...)
	}
	return &clone
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = joinKey(h.group, name)
	return &clone
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

func cmpOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// flatten resolves groups into dotted keys and normalizes values.
func flatten(prefix string, a slog.Attr) []field {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		var out []field
		for _, child := range v.Group() {
			out = append(out, flatten(key, child)...)
		}
		return out
	}
	if key == "" {
		return nil
	}
	k, val, ok := normalize(key, v)
	if !ok {
		return nil
	}
	return []field{{k, val}}
}

func normalize(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return "", nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// durationKey maps duration keys onto millisecond keys: duration -> duration_ms.
func durationKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

// keys returns the populated keys: the configured order first, then the rest sorted.
func keys(e entry, order []string) []string {
	out := make([]string, 0, len(e))
	seen := make(map[string]bool, len(e))
	for _, k := range order {
		if v, ok := e[k]; ok && !empty(v) && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	var rest []string
	for k, v := range e {
		if !seen[k] && !empty(v) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	return false
}

func encodeJSON(e entry, order []string) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys(e, order) {
		val, err := json.Marshal(e[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func encodeKV(e entry, order []string) []byte {
	var b strings.Builder
	for i, k := range keys(e, order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		s := fmt.Sprint(e[k])
		if strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0 {
			s = strconv.Quote(s)
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s)
	}
	return []byte(b.String())
}
