// Package userinfo answers the admin /info lookup.
package userinfo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/m3rciful/rosterbot/internal/locale"
	"github.com/m3rciful/rosterbot/internal/store"
)

// ErrNotFound means no profile is cached for the user.
var ErrNotFound = errors.New("userinfo: profile not found")

// Repository is the slice of the store the lookup needs.
type Repository interface {
	Profile(ctx context.Context, userID int64) (store.Profile, bool, error)
	ListGroups(ctx context.Context) ([]int64, error)
	Registration(ctx context.Context, groupID, userID int64) (string, bool, error)
	GroupTitle(ctx context.Context, groupID int64) (string, bool, error)
}

// Membership is one group the user registered for.
type Membership struct {
	GroupID  int64
	Title    string
	RealName string
}

// Info is the lookup result.
type Info struct {
	Profile       store.Profile
	Registrations []Membership
}

// Service performs lookups.
type Service struct {
	repo Repository
}

// NewService wires the lookup to the store.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ParseTarget reads a user id argument.
func ParseTarget(arg string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// Lookup loads the cached profile and every registration of userID across known groups.
func (s *Service) Lookup(ctx context.Context, userID int64) (Info, error) {
	p, ok, err := s.repo.Profile(ctx, userID)
	if err != nil {
		return Info{}, err
	}
	if !ok {
		return Info{}, ErrNotFound
	}
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return Info{}, err
	}
	info := Info{Profile: p}
	for _, gid := range groups {
		name, ok, err := s.repo.Registration(ctx, gid, userID)
		if err != nil {
			return Info{}, err
		}
		if !ok {
			continue
		}
		title, ok, err := s.repo.GroupTitle(ctx, gid)
		if err != nil {
			return Info{}, err
		}
		if !ok {
			title = strconv.FormatInt(gid, 10)
		}
		info.Registrations = append(info.Registrations, Membership{GroupID: gid, Title: title, RealName: name})
	}
	return info, nil
}

// Render fills the info template. none is used when there are no registrations.
func (i Info) Render(template, none string) string {
	regs := none
	if len(i.Registrations) > 0 {
		regs = strings.Join(lo.Map(i.Registrations, func(m Membership, _ int) string {
			return fmt.Sprintf("- %s: %s", m.Title, m.RealName)
		}), "\n")
	}
	return locale.Render(template, map[string]any{
		"user_id":    i.Profile.UserID,
		"first_name": lo.FromPtrOr(i.Profile.FirstName, "?"),
		"last_name":  lo.FromPtrOr(i.Profile.LastName, ""),
		"username":   lo.FromPtrOr(i.Profile.Username, ""),
		"real_name":  regs,
	})
}
