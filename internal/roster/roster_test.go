package roster_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/rosterbot/internal/roster"
	"github.com/m3rciful/rosterbot/internal/store"
)

func seed(t *testing.T, n int) *store.Repository {
	t.Helper()
	ctx := context.Background()
	repo := store.NewRepository(store.NewMemoryKV())
	for i := 1; i <= n; i++ {
		require.NoError(t, repo.AddGroup(ctx, int64(-i), "G"))
	}
	return repo
}

func TestPageFlags(t *testing.T) {
	tests := []struct {
		name     string
		groups   int
		page     int
		wantNum  int
		wantLen  int
		wantPrev bool
		wantNext bool
	}{
		{"single partial page", 3, 0, 0, 3, false, false},
		{"exactly one page", 4, 0, 0, 4, false, false},
		{"first of two", 6, 0, 0, 4, false, true},
		{"second of two", 6, 1, 1, 2, true, false},
		{"middle page", 10, 1, 1, 4, true, true},
		{"negative clamps to first", 6, -3, 0, 4, false, true},
		{"past end clamps to last", 6, 9, 1, 2, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := roster.NewBrowser(seed(t, tt.groups))
			p, err := b.Page(context.Background(), tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNum, p.Number)
			assert.Len(t, p.Entries, tt.wantLen)
			assert.Equal(t, tt.wantPrev, p.HasPrev)
			assert.Equal(t, tt.wantNext, p.HasNext)
		})
	}
}

func TestPagesAreStableAndDisjoint(t *testing.T) {
	b := roster.NewBrowser(seed(t, 9))
	ctx := context.Background()

	var all []int64
	for n := 0; n < 3; n++ {
		p, err := b.Page(ctx, n)
		require.NoError(t, err)
		all = append(all, p.IDs()...)
	}
	assert.Equal(t, []int64{-9, -8, -7, -6, -5, -4, -3, -2, -1}, all)

	again, err := b.Page(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{-5, -4, -3, -2}, again.IDs())
}

func TestPageTitleFallback(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(store.NewMemoryKV())
	require.NoError(t, repo.AddGroup(ctx, -100, ""))
	require.NoError(t, repo.AddGroup(ctx, -200, "Named"))

	p, err := roster.NewBrowser(repo).Page(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []roster.Entry{
		{GroupID: -200, Title: "Named"},
		{GroupID: -100, Title: "Group -100"},
	}, p.Entries)
}

func TestPageNoGroups(t *testing.T) {
	_, err := roster.NewBrowser(seed(t, 0)).Page(context.Background(), 0)
	assert.True(t, errors.Is(err, roster.ErrNoGroups))
}
