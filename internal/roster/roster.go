// Package roster pages through known groups for the admin picker.
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/m3rciful/rosterbot/core/logger"
)

// PageSize is the number of groups per page.
const PageSize = 4

// ErrNoGroups is returned when no group has been registered yet.
var ErrNoGroups = errors.New("roster: no groups")

// Repository is the slice of the store the browser needs.
type Repository interface {
	ListGroups(ctx context.Context) ([]int64, error)
	GroupTitle(ctx context.Context, groupID int64) (string, bool, error)
}

// Entry is one selectable group.
type Entry struct {
	GroupID int64
	Title   string
}

// Page is one screen of the picker.
type Page struct {
	Number  int
	Entries []Entry
	HasPrev bool
	HasNext bool
}

// Browser builds picker pages. Stateless; the page number travels in callback data.
type Browser struct {
	repo Repository
}

// NewBrowser wires the browser to the store.
func NewBrowser(repo Repository) *Browser {
	return &Browser{repo: repo}
}

// Page returns page n. Negative n clamps to the first page and n past the end
// clamps to the last one.
func (b *Browser) Page(ctx context.Context, n int) (Page, error) {
	ids, err := b.repo.ListGroups(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("roster page: %w", err)
	}
	if len(ids) == 0 {
		return Page{}, ErrNoGroups
	}

	last := (len(ids) - 1) / PageSize
	n = max(0, min(n, last))
	start := n * PageSize
	end := min(start+PageSize, len(ids))

	entries := make([]Entry, 0, end-start)
	for _, id := range ids[start:end] {
		title, ok, err := b.repo.GroupTitle(ctx, id)
		if err != nil {
			return Page{}, fmt.Errorf("roster page: %w", err)
		}
		if !ok {
			title = fmt.Sprintf("Group %d", id)
		}
		entries = append(entries, Entry{GroupID: id, Title: title})
	}

	logger.Debug(ctx, "service.roster", "roster.page",
		slog.Int("page", n),
		slog.Int("pages", last+1),
		slog.Int("count", len(ids)),
	)
	return Page{
		Number:  n,
		Entries: entries,
		HasPrev: n > 0,
		HasNext: end < len(ids),
	}, nil
}

// IDs returns the group ids on the page.
func (p Page) IDs() []int64 {
	return lo.Map(p.Entries, func(e Entry, _ int) int64 { return e.GroupID })
}
