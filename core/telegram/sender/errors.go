package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"

	tele "gopkg.in/telebot.v4"
)

var (
	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
	// Bot API errors end with the HTTP status in parentheses.
	statusRe = regexp.MustCompile(`\((\d{3})\)\s*$`)
)

// classifyError maps a failed send to a small set of kinds used as the
// metric label and the error_kind log attribute.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var (
		netErr   net.Error
		dnsErr   *net.DNSError
		opErr    *net.OpError
		alertErr tls.AlertError
	)
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return "dial"
	case errors.As(err, &alertErr):
		return "tls"
	}

	switch status := httpStatus(err); {
	case status == http.StatusTooManyRequests:
		return "flood"
	case status >= 500:
		return "http_5xx"
	case status >= 400:
		return "http_4xx"
	}
	return "unknown"
}

func httpStatus(err error) int {
	var (
		apiErr   *tele.Error
		floodErr tele.FloodError
		groupErr tele.GroupError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.As(err, &floodErr):
		return http.StatusTooManyRequests
	case errors.As(err, &groupErr):
		return http.StatusBadRequest
	}
	if m := statusRe.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	return 0
}

// sanitizeErrorMessage redacts bot tokens that transport errors embed in URLs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
