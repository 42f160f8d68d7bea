// Package registration implements the deep-link sign-up dialog:
// a user opens register_<groupId>, is checked against the group, then sends
// their real name which is stored once per (group, user).
package registration

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/rosterbot/core/logger"
	"github.com/m3rciful/rosterbot/core/metrics"
	"github.com/m3rciful/rosterbot/core/telegram/state"
	"github.com/m3rciful/rosterbot/internal/platform"
	"github.com/m3rciful/rosterbot/internal/store"
)

const (
	// LinkPrefix starts every registration deep-link payload.
	LinkPrefix = "register_"

	// StateAwaitingName marks a conversation waiting for the user's real name.
	StateAwaitingName state.State = "awaiting_name"

	tempGroupID = "reg_group_id"

	// UnknownGroupTitle is shown in the prompt when the group has no stored title.
	UnknownGroupTitle = "Unknown Group"
)

var (
	// ErrInvalidLink is returned by ParseDeepLink for malformed payloads.
	ErrInvalidLink = errors.New("registration: invalid deep link")
	// ErrEmptyName marks a blank name submission.
	ErrEmptyName = errors.New("registration: empty name")
)

// Outcome is the result of a dialog step.
type Outcome string

const (
	OutcomeInvalidLink       Outcome = "invalid_link"
	OutcomeAlreadyRegistered Outcome = "already_registered"
	OutcomeNotAMember        Outcome = "not_member"
	OutcomePrompted          Outcome = "prompted"
	OutcomeIdle              Outcome = "idle"
	OutcomeEmptyName         Outcome = "empty_name"
	OutcomeRegistered        Outcome = "registered"
)

// User is the sender of the update as reported by Telegram.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// Result describes what happened and carries data for the reply.
type Result struct {
	Outcome    Outcome
	GroupID    int64
	GroupTitle string
}

// Repository is the slice of the store the dialog needs.
type Repository interface {
	GroupTitle(ctx context.Context, groupID int64) (string, bool, error)
	Registration(ctx context.Context, groupID, userID int64) (string, bool, error)
	SetRegistration(ctx context.Context, groupID, userID int64, realName string) error
	UpsertProfile(ctx context.Context, p store.Profile) error
}

// Service runs the dialog. Safe for concurrent use.
type Service struct {
	repo     Repository
	platform platform.Platform
	sessions state.Store
}

// NewService wires the dialog to its dependencies.
func NewService(repo Repository, p platform.Platform, sessions state.Store) *Service {
	return &Service{repo: repo, platform: p, sessions: sessions}
}

// ParseDeepLink extracts the group id from a register_<groupId> payload.
func ParseDeepLink(payload string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(payload), LinkPrefix)
	if !ok || rest == "" {
		return 0, ErrInvalidLink
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, ErrInvalidLink
	}
	return id, nil
}

// Begin handles a /start register_<groupId> link.
func (s *Service) Begin(ctx context.Context, conversationID int64, user User, payload string) (Result, error) {
	start := time.Now()
	groupID, err := ParseDeepLink(payload)
	if err != nil {
		return s.done(ctx, "begin", start, Result{Outcome: OutcomeInvalidLink}, nil)
	}
	res := Result{GroupID: groupID}

	_, registered, err := s.repo.Registration(ctx, groupID, user.ID)
	if err != nil {
		return s.done(ctx, "begin", start, res, err)
	}
	if registered {
		res.Outcome = OutcomeAlreadyRegistered
		return s.done(ctx, "begin", start, res, nil)
	}

	member, err := s.platform.IsMember(ctx, groupID, user.ID)
	if err != nil || !member {
		if err != nil {
			logger.Warn(ctx, "service.registration", "registration.member_check",
				slog.Int64("group_id", groupID),
				slog.String("err", err.Error()),
			)
		}
		res.Outcome = OutcomeNotAMember
		return s.done(ctx, "begin", start, res, nil)
	}

	title, ok, err := s.repo.GroupTitle(ctx, groupID)
	if err != nil {
		return s.done(ctx, "begin", start, res, err)
	}
	if !ok {
		title = UnknownGroupTitle
	}
	res.GroupTitle = title

	s.sessions.SetState(conversationID, StateAwaitingName)
	s.sessions.SetTemp(conversationID, tempGroupID, groupID)
	res.Outcome = OutcomePrompted
	return s.done(ctx, "begin", start, res, nil)
}

// Awaiting reports whether the conversation expects a name.
func (s *Service) Awaiting(conversationID int64) bool {
	return s.sessions.Get(conversationID).State == StateAwaitingName
}

// SubmitName handles free text sent while awaiting a name. The text is stored verbatim.
func (s *Service) SubmitName(ctx context.Context, conversationID int64, user User, text string) (Result, error) {
	start := time.Now()
	if !s.Awaiting(conversationID) {
		return Result{Outcome: OutcomeIdle}, nil
	}
	groupID, ok := s.sessions.GetTempInt64(conversationID, tempGroupID)
	if !ok {
		s.sessions.Clear(conversationID)
		return s.done(ctx, "submit", start, Result{Outcome: OutcomeIdle}, nil)
	}
	res := Result{GroupID: groupID}

	if strings.TrimSpace(text) == "" {
		res.Outcome = OutcomeEmptyName
		return s.done(ctx, "submit", start, res, nil)
	}

	_, registered, err := s.repo.Registration(ctx, groupID, user.ID)
	if err != nil {
		return s.done(ctx, "submit", start, res, err)
	}
	if registered {
		s.sessions.Clear(conversationID)
		res.Outcome = OutcomeAlreadyRegistered
		return s.done(ctx, "submit", start, res, nil)
	}

	if err := s.repo.SetRegistration(ctx, groupID, user.ID, text); err != nil {
		return s.done(ctx, "submit", start, res, err)
	}
	if err := s.repo.UpsertProfile(ctx, profileOf(user)); err != nil {
		return s.done(ctx, "submit", start, res, err)
	}
	s.sessions.Clear(conversationID)
	res.Outcome = OutcomeRegistered
	return s.done(ctx, "submit", start, res, nil)
}

func profileOf(u User) store.Profile {
	return store.Profile{
		UserID:    u.ID,
		FirstName: &u.FirstName,
		LastName:  &u.LastName,
		Username:  &u.Username,
	}
}

func (s *Service) done(ctx context.Context, op string, start time.Time, res Result, err error) (Result, error) {
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.Duration("duration", logger.Took(start)),
	}
	if res.GroupID != 0 {
		attrs = append(attrs, slog.Int64("group_id", res.GroupID))
	}
	if err != nil {
		metrics.Registrations.WithLabelValues("error").Inc()
		logger.Error(ctx, "service.registration", "registration."+op,
			append(attrs, slog.String("status", "error"), slog.String("err", err.Error()))...,
		)
		return res, err
	}
	metrics.Registrations.WithLabelValues(string(res.Outcome)).Inc()
	logger.Info(ctx, "service.registration", "registration."+op,
		append(attrs, slog.String("status", "ok"), slog.String("outcome", string(res.Outcome)))...,
	)
	return res, nil
}
