package report_test

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/m3rciful/rosterbot/internal/mocks"
	"github.com/m3rciful/rosterbot/internal/report"
	"github.com/m3rciful/rosterbot/internal/store"
)

const captionTmpl = "{group_title}: {member_count}/{registered_count}/{unregistered_count}"

func ptr(s string) *string { return &s }

func TestUnregistered(t *testing.T) {
	tests := []struct{ members, registered, want int }{
		{10, 3, 7},
		{3, 3, 0},
		{0, 2, 0},
		{2, 5, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, report.Unregistered(tt.members, tt.registered))
	}
}

func TestGenerateTenMembersThreeRegistered(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(store.NewMemoryKV())
	require.NoError(t, repo.AddGroup(ctx, -100, "Chess Club"))
	require.NoError(t, repo.SetRegistration(ctx, -100, 30, "Carol C"))
	require.NoError(t, repo.SetRegistration(ctx, -100, 10, "Alice A"))
	require.NoError(t, repo.SetRegistration(ctx, -100, 20, "Bob B"))
	require.NoError(t, repo.UpsertProfile(ctx, store.Profile{UserID: 10, FirstName: ptr("Alice"), LastName: ptr("Smith"), Username: ptr("alice")}))
	require.NoError(t, repo.UpsertProfile(ctx, store.Profile{UserID: 20, FirstName: ptr("Bob"), LastName: ptr(""), Username: ptr("")}))

	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)
	p.EXPECT().MemberCount(gomock.Any(), int64(-100)).Return(10, nil)
	p.EXPECT().IsMember(gomock.Any(), int64(-100), int64(10)).Return(true, nil)
	p.EXPECT().IsMember(gomock.Any(), int64(-100), int64(20)).Return(false, nil)
	p.EXPECT().IsMember(gomock.Any(), int64(-100), int64(30)).Return(false, errors.New("boom"))

	rep, err := report.NewGenerator(repo, p, "Unknown Group").Generate(ctx, -100)
	require.NoError(t, err)

	assert.Equal(t, "Chess Club", rep.Title)
	assert.Equal(t, 10, rep.MemberCount)
	assert.Equal(t, 3, rep.Registered())
	assert.Equal(t, 7, rep.Unregistered())
	assert.Equal(t, "Chess Club_Users.csv", rep.FileName())
	assert.Equal(t, "Chess Club: 10/3/7", rep.Caption(captionTmpl))

	require.Len(t, rep.Rows, 3)
	assert.Equal(t, report.Row{UserID: 10, TelegramName: "Alice Smith", Username: "alice", RealName: "Alice A", GroupID: -100}, rep.Rows[0])
	assert.Equal(t, report.Row{UserID: 20, TelegramName: "Bob ", Username: "", RealName: "Bob B", GroupID: -100}, rep.Rows[1])
	assert.Equal(t, report.Row{UserID: 30, TelegramName: "Unknown ", Username: "None", RealName: "Carol C", GroupID: -100}, rep.Rows[2])

	body, err := rep.CSV("no users")
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, report.Header, records[0])
	assert.Equal(t, []string{"10", "Alice Smith", "alice", "Alice A", "-100"}, records[1])
}

func TestGenerateEmptyGroupUsesPlaceholders(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(store.NewMemoryKV())

	ctrl := gomock.NewController(t)
	p := mocks.NewMockPlatform(ctrl)
	p.EXPECT().MemberCount(gomock.Any(), int64(-5)).Return(0, errors.New("forbidden"))

	rep, err := report.NewGenerator(repo, p, "Unknown Group").Generate(ctx, -5)
	require.NoError(t, err)
	assert.Equal(t, "Unknown Group", rep.Title)
	assert.Equal(t, 0, rep.MemberCount)
	assert.Empty(t, rep.Rows)

	body, err := rep.CSV("No registered users.")
	require.NoError(t, err)
	assert.Equal(t, "No registered users.", string(body))
	assert.Equal(t, "Unknown Group_Users.csv", rep.FileName())
}

func TestCSVQuoting(t *testing.T) {
	rep := report.Report{GroupID: 1, Title: "T", Rows: []report.Row{
		{UserID: 1, TelegramName: "Doe, Jane", Username: "j", RealName: `Jane "JD" Doe`, GroupID: 1},
	}}
	body, err := rep.CSV("")
	require.NoError(t, err)
	assert.Contains(t, string(body), `"Doe, Jane"`)
	assert.Contains(t, string(body), `"Jane ""JD"" Doe"`)
}

func TestGenerateWithoutPlatform(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(store.NewMemoryKV())
	require.NoError(t, repo.SetRegistration(ctx, -1, 5, "Eve"))

	rep, err := report.NewGenerator(repo, nil, "?").Generate(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.MemberCount)
	assert.Equal(t, 0, rep.Unregistered())
	assert.Len(t, rep.Rows, 1)
}
