package logger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Status is "ok" for a nil error and "fail" otherwise.
func Status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// Took is the time since start rounded to milliseconds.
func Took(start time.Time) time.Duration { return RoundMS(time.Since(start)) }

// RoundMS rounds d to milliseconds; negative durations become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values and reports whether any were cut.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}

// SanitizeLimit drops control and format runes (keeping tab and newline)
// and truncates to max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, s)
	if r := []rune(clean); len(r) > max {
		return string(r[:max])
	}
	return clean
}

// BuildRID formats a correlation id as updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID rewrites each numeric segment of a BuildRID value in base36,
// joined with dots. Other input is returned unchanged.
func CompactRID(rid string) string {
	parts := strings.Split(strings.TrimSpace(rid), ":")
	if len(parts) != 3 {
		return rid
	}
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}
