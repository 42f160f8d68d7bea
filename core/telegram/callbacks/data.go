// Package callbacks encodes and decodes inline button callback data.
package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Sep separates the callback key from its payload.
const Sep = "|"

// Data encodes a callback as <key>|<payload>.
func Data(key, payload string) string {
	return key + Sep + payload
}

// ParseCallbackData splits callback data into key and payload. Plain
// <key>|<payload> data and Telebot's "\f<unique>|<payload>" form both parse;
// a callback Telebot has already split keeps its Unique as the key.
func ParseCallbackData(cb *tele.Callback) (key, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	key, payload, _ = strings.Cut(strings.TrimPrefix(cb.Data, "\f"), Sep)
	return strings.TrimSpace(key), payload
}

func payload(c tele.Context) string {
	_, p := ParseCallbackData(c.Callback())
	return strings.TrimSpace(p)
}

// PayloadInt parses the current callback's payload as an int.
func PayloadInt(c tele.Context) (int, error) {
	return strconv.Atoi(payload(c))
}

// PayloadInt64 parses the current callback's payload as an int64.
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(payload(c), 10, 64)
}
