// Package platform answers chat membership questions against Telegram.
package platform

//go:generate go run go.uber.org/mock/mockgen -source=platform.go -destination=../mocks/mock_platform.go -package=mocks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rosterbot/core/logger"
)

// Platform is the subset of the chat API the services depend on.
type Platform interface {
	// IsMember reports whether the user is currently in the chat.
	// Left and kicked count as not a member.
	IsMember(ctx context.Context, chatID, userID int64) (bool, error)
	// MemberCount returns the live member count of a chat.
	MemberCount(ctx context.Context, chatID int64) (int, error)
}

// API is the telebot surface used by Telegram.
type API interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
	Len(chat *tele.Chat) (int, error)
}

// Telegram implements Platform on top of a telebot bot.
type Telegram struct {
	api API
}

// New wraps a telebot API (normally *tele.Bot).
func New(api API) *Telegram {
	return &Telegram{api: api}
}

func (t *Telegram) IsMember(ctx context.Context, chatID, userID int64) (bool, error) {
	start := time.Now()
	m, err := t.api.ChatMemberOf(tele.ChatID(chatID), tele.ChatID(userID))
	if err != nil {
		logger.Debug(ctx, "tg", "tg.chat_member",
			slog.Int64("group_id", chatID),
			slog.Int64("target_user_id", userID),
			slog.String("status", "error"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return false, fmt.Errorf("chat member %d/%d: %w", chatID, userID, err)
	}
	switch m.Role {
	case tele.Left, tele.Kicked:
		return false, nil
	}
	return true, nil
}

func (t *Telegram) MemberCount(ctx context.Context, chatID int64) (int, error) {
	n, err := t.api.Len(&tele.Chat{ID: chatID})
	if err != nil {
		logger.Debug(ctx, "tg", "tg.member_count",
			slog.Int64("group_id", chatID),
			slog.String("status", "error"),
			slog.String("err", err.Error()),
		)
		return 0, fmt.Errorf("member count %d: %w", chatID, err)
	}
	return n, nil
}
