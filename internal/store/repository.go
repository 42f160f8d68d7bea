package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/m3rciful/rosterbot/core/logger"
)

// Key scheme shared by every backend. Kept compatible with existing deployments.
const (
	keyGroups        = "groups_list"
	keyGroupInfo     = "group_info:"
	keyRegistrations = "group_registrations:"
	keyUserInfo      = "user_info:"

	fieldTitle     = "title"
	fieldUserID    = "user_id"
	fieldFirstName = "first_name"
	fieldLastName  = "last_name"
	fieldUsername  = "username"
)

// Profile is the cached view of a Telegram user. Nil fields were absent in the store.
type Profile struct {
	UserID    int64
	FirstName *string
	LastName  *string
	Username  *string
}

// Repository is the typed access layer over a KV backend.
type Repository struct {
	kv KV
}

// NewRepository wraps a KV backend.
func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv}
}

// Close releases the backend.
func (r *Repository) Close() error {
	return r.kv.Close()
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

// AddGroup records a group and (re)writes its title.
func (r *Repository) AddGroup(ctx context.Context, groupID int64, title string) error {
	if err := r.kv.SAdd(ctx, keyGroups, id(groupID)); err != nil {
		return fmt.Errorf("add group %d: %w", groupID, err)
	}
	if err := r.kv.HSet(ctx, keyGroupInfo+id(groupID), map[string]string{fieldTitle: title}); err != nil {
		return fmt.Errorf("set group %d title: %w", groupID, err)
	}
	return nil
}

// GroupTitle returns the stored title; ok is false when none is stored or it is empty.
func (r *Repository) GroupTitle(ctx context.Context, groupID int64) (string, bool, error) {
	title, ok, err := r.kv.HGet(ctx, keyGroupInfo+id(groupID), fieldTitle)
	if err != nil {
		return "", false, fmt.Errorf("get group %d title: %w", groupID, err)
	}
	return title, ok && title != "", nil
}

// ListGroups returns all known group ids in ascending order.
// Members that do not parse as integers are skipped.
func (r *Repository) ListGroups(ctx context.Context) ([]int64, error) {
	members, err := r.kv.SMembers(ctx, keyGroups)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		v, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			logger.Warn(ctx, "store", "store.bad_member",
				slog.String("key", keyGroups),
				slog.String("member", m),
			)
			continue
		}
		ids = append(ids, v)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Registration returns the real name stored for (group, user).
func (r *Repository) Registration(ctx context.Context, groupID, userID int64) (string, bool, error) {
	name, ok, err := r.kv.HGet(ctx, keyRegistrations+id(groupID), id(userID))
	if err != nil {
		return "", false, fmt.Errorf("get registration %d/%d: %w", groupID, userID, err)
	}
	return name, ok && name != "", nil
}

// SetRegistration writes the real name for (group, user). Callers check
// Registration first; the write itself overwrites.
func (r *Repository) SetRegistration(ctx context.Context, groupID, userID int64, realName string) error {
	if err := r.kv.HSet(ctx, keyRegistrations+id(groupID), map[string]string{id(userID): realName}); err != nil {
		return fmt.Errorf("set registration %d/%d: %w", groupID, userID, err)
	}
	return nil
}

// Registrations returns user id -> real name for a group.
func (r *Repository) Registrations(ctx context.Context, groupID int64) (map[int64]string, error) {
	raw, err := r.kv.HGetAll(ctx, keyRegistrations+id(groupID))
	if err != nil {
		return nil, fmt.Errorf("list registrations %d: %w", groupID, err)
	}
	out := make(map[int64]string, len(raw))
	for uid, name := range raw {
		v, err := strconv.ParseInt(uid, 10, 64)
		if err != nil {
			logger.Warn(ctx, "store", "store.bad_member",
				slog.String("key", keyRegistrations+id(groupID)),
				slog.String("member", uid),
			)
			continue
		}
		out[v] = name
	}
	return out, nil
}

// UpsertProfile overwrites the cached profile. Nil optional fields are stored as "".
func (r *Repository) UpsertProfile(ctx context.Context, p Profile) error {
	fields := map[string]string{
		fieldUserID:    id(p.UserID),
		fieldFirstName: deref(p.FirstName),
		fieldLastName:  deref(p.LastName),
		fieldUsername:  deref(p.Username),
	}
	if err := r.kv.HSet(ctx, keyUserInfo+id(p.UserID), fields); err != nil {
		return fmt.Errorf("upsert profile %d: %w", p.UserID, err)
	}
	return nil
}

// Profile loads the cached profile; ok is false when nothing is stored.
func (r *Repository) Profile(ctx context.Context, userID int64) (Profile, bool, error) {
	raw, err := r.kv.HGetAll(ctx, keyUserInfo+id(userID))
	if err != nil {
		return Profile{}, false, fmt.Errorf("get profile %d: %w", userID, err)
	}
	p := Profile{UserID: userID}
	if len(raw) == 0 {
		return p, false, nil
	}
	p.FirstName = field(raw, fieldFirstName)
	p.LastName = field(raw, fieldLastName)
	p.Username = field(raw, fieldUsername)
	return p, true, nil
}

func field(raw map[string]string, name string) *string {
	if v, ok := raw[name]; ok {
		return &v
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
