package registration_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/m3rciful/rosterbot/core/telegram/state"
	"github.com/m3rciful/rosterbot/internal/mocks"
	"github.com/m3rciful/rosterbot/internal/registration"
	"github.com/m3rciful/rosterbot/internal/store"
)

type fixture struct {
	svc      *registration.Service
	repo     *store.Repository
	platform *mocks.MockPlatform
	sessions state.Manager
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := fixture{
		repo:     store.NewRepository(store.NewMemoryKV()),
		platform: mocks.NewMockPlatform(ctrl),
		sessions: state.NewMemoryManager(),
	}
	f.svc = registration.NewService(f.repo, f.platform, f.sessions)
	return f
}

var jane = registration.User{ID: 7, FirstName: "Jane", Username: "jdoe"}

func TestParseDeepLink(t *testing.T) {
	tests := []struct {
		payload string
		want    int64
		wantErr bool
	}{
		{"register_555", 555, false},
		{"register_-1001234567890", -1001234567890, false},
		{" register_42 ", 42, false},
		{"register_", 0, true},
		{"register_abc", 0, true},
		{"register_12_34", 0, true},
		{"signup_555", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := registration.ParseDeepLink(tt.payload)
			if tt.wantErr {
				assert.ErrorIs(t, err, registration.ErrInvalidLink)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repo.AddGroup(ctx, 555, "Chess Club"))
	f.platform.EXPECT().IsMember(gomock.Any(), int64(555), int64(7)).Return(true, nil)

	res, err := f.svc.Begin(ctx, 7, jane, "register_555")
	require.NoError(t, err)
	assert.Equal(t, registration.OutcomePrompted, res.Outcome)
	assert.Equal(t, "Chess Club", res.GroupTitle)
	assert.True(t, f.svc.Awaiting(7))

	res, err = f.svc.SubmitName(ctx, 7, jane, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, registration.OutcomeRegistered, res.Outcome)
	assert.False(t, f.svc.Awaiting(7))

	name, ok, err := f.repo.Registration(ctx, 555, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Jane Doe", name)

	p, ok, err := f.repo.Profile(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Jane", *p.FirstName)
	assert.Equal(t, "", *p.LastName)
	assert.Equal(t, "jdoe", *p.Username)
}

func TestBeginUnknownTitleUsesPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.platform.EXPECT().IsMember(gomock.Any(), int64(555), int64(7)).Return(true, nil)

	res, err := f.svc.Begin(context.Background(), 7, jane, "register_555")
	require.NoError(t, err)
	assert.Equal(t, registration.OutcomePrompted, res.Outcome)
	assert.Equal(t, registration.UnknownGroupTitle, res.GroupTitle)
}

func TestBeginInvalidLink(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Begin(context.Background(), 7, jane, "register_abc")
	require.NoError(t, err)
	assert.Equal(t, registration.OutcomeInvalidLink, res.Outcome)
	assert.False(t, f.sessions.InProgress(7))
}

func TestBeginAlreadyRegistered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repo.SetRegistration(ctx, 555, 7, "Jane Doe"))

	res, err := f.svc.Begin(ctx, 7, jane, "register_555")
	require.NoError(t, err)
	assert.Equal(t, registration.OutcomeAlreadyRegistered, res.Outcome)
	assert.False(t, f.sessions.InProgress(7))
}

func TestBeginNotMember(t *testing.T) {
	tests := []struct {
		name   string
		member bool
		err    error
	}{
		{"left or kicked", false, nil},
		{"lookup failure fails closed", false, errors.New("chat not found")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.platform.EXPECT().IsMember(gomock.Any(), int64(555), int64(7)).Return(tt.member, tt.err)

			res, err := f.svc.Begin(context.Background(), 7, jane, "register_555")
			require.NoError(t, err)
			assert.Equal(t, registration.OutcomeNotAMember, res.Outcome)
			assert.False(t, f.sessions.InProgress(7))
		})
	}
}

func TestSubmitNameIdle(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.SubmitName(context.Background(), 7, jane, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, registration.OutcomeIdle, res.Outcome)
}

func TestSubmitNameEmptyKeepsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.platform.EXPECT().IsMember(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	_, err := f.svc.Begin(ctx, 7, jane, "register_555")
	require.NoError(t, err)

	res, err := f.svc.SubmitName(ctx, 7, jane, "   ")
	require.NoError(t, err)
	assert.Equal(t, registration.OutcomeEmptyName, res.Outcome)
	assert.True(t, f.svc.Awaiting(7))

	res, err = f.svc.SubmitName(ctx, 7, jane, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, registration.OutcomeRegistered, res.Outcome)
}

func TestSubmitNameWriteOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.platform.EXPECT().IsMember(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	_, err := f.svc.Begin(ctx, 7, jane, "register_555")
	require.NoError(t, err)

	// Registered from another conversation in the meantime.
	require.NoError(t, f.repo.SetRegistration(ctx, 555, 7, "First Name"))

	res, err := f.svc.SubmitName(ctx, 7, jane, "Second Name")
	require.NoError(t, err)
	assert.Equal(t, registration.OutcomeAlreadyRegistered, res.Outcome)
	assert.False(t, f.svc.Awaiting(7))

	name, _, err := f.repo.Registration(ctx, 555, 7)
	require.NoError(t, err)
	assert.Equal(t, "First Name", name)
}

type failingRepo struct {
	registration.Repository
}

func (failingRepo) Registration(context.Context, int64, int64) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func TestBeginStoreErrorPropagates(t *testing.T) {
	f := newFixture(t)
	svc := registration.NewService(failingRepo{Repository: f.repo}, f.platform, f.sessions)

	_, err := svc.Begin(context.Background(), 7, jane, "register_555")
	assert.Error(t, err)
	assert.False(t, f.sessions.InProgress(7))
}
