package telegram

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/rosterbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const (
	defaultPollSeconds   = 10
	defaultRequestBudget = 30 * time.Second
)

// WebhookOptions declares the webhook listener.
type WebhookOptions struct {
	Listen string
	Port   int
	URL    string
}

// PollerOptions selects between long polling and a webhook.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// BuildPoller returns a webhook poller for run mode "webhook", a long poller otherwise.
func BuildPoller(opts PollerOptions) tele.Poller {
	if !strings.EqualFold(strings.TrimSpace(opts.RunMode), coreconfig.RunModeWebhook) {
		return &tele.LongPoller{Timeout: PollTimeout(opts.LongPollTimeoutSeconds)}
	}
	return &tele.Webhook{
		Listen:   net.JoinHostPort(opts.Webhook.Listen, strconv.Itoa(opts.Webhook.Port)),
		Endpoint: &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
	}
}

// PollTimeout converts the configured seconds; zero or less means 10s.
func PollTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = defaultPollSeconds
	}
	return time.Duration(seconds) * time.Second
}

// BuildHTTPClient returns the Bot API client. Its timeout covers one long-poll
// window plus defaultRequestBudget for uploads. Requests are never retried.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Timeout: max(pollTimeout, 0) + defaultRequestBudget,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       30 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
}
