package bot

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	tg "github.com/m3rciful/rosterbot/core/telegram"
	"github.com/m3rciful/rosterbot/core/telegram/state"
	"github.com/m3rciful/rosterbot/core/telegram/teletest"
	"github.com/m3rciful/rosterbot/internal/locale"
	"github.com/m3rciful/rosterbot/internal/mocks"
	"github.com/m3rciful/rosterbot/internal/registration"
	"github.com/m3rciful/rosterbot/internal/report"
	"github.com/m3rciful/rosterbot/internal/roster"
	"github.com/m3rciful/rosterbot/internal/store"
	"github.com/m3rciful/rosterbot/internal/userinfo"

	tele "gopkg.in/telebot.v4"
)

var (
	admin = &tele.User{ID: 1, FirstName: "Ada"}
	jane  = &tele.User{ID: 7, FirstName: "Jane", LastName: "Doe", Username: "jdoe"}
)

type fixture struct {
	bot      *Bot
	repo     *store.Repository
	platform *mocks.MockPlatform
	sessions state.Manager
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	texts, err := locale.Parse([]byte(`
start_msg: "hello"
only_group_command: "groups only"
register_btn: "Register"
register_msg: "press"
already_registered: "already"
not_member: "not a member"
welcome_user_msg: "welcome to {group_title}"
invalid_format: "bad name"
register_success: "done"
invalid_link: "bad link"
no_groups: "no groups"
select_group: "pick"
no_users_csv: "nobody"
csv_caption: "{group_title}: {registered_count}/{member_count}"
input_user_id: "who?"
info_not_found: "unknown user"
no_registrations: "none"
info_template: "{user_id} {first_name}\n{real_name}"
chat_id: "id={chat_id}"
error_generic: "oops"
`))
	require.NoError(t, err)

	f := fixture{
		repo:     store.NewRepository(store.NewMemoryKV()),
		platform: mocks.NewMockPlatform(ctrl),
		sessions: state.NewMemoryManager(),
	}
	f.bot = New(Deps{
		Texts:        texts,
		Groups:       f.repo,
		Registration: registration.NewService(f.repo, f.platform, f.sessions),
		Roster:       roster.NewBrowser(f.repo),
		Reports:      report.NewGenerator(f.repo, f.platform, registration.UnknownGroupTitle),
		Info:         userinfo.NewService(f.repo),
		Sessions:     f.sessions,
		Admins:       map[int64]struct{}{admin.ID: {}},
		Username:     "roster_bot",
	})
	f.sessions.Handle(registration.StateAwaitingName, f.bot.handleName)
	return f
}

func TestDeepLink(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "https://t.me/roster_bot?start=register_-100123", f.bot.DeepLink(-100123))
}

func TestRegisterInstallsRoutes(t *testing.T) {
	f := newFixture(t)
	reg := tg.NewRegistry()
	routes, err := f.bot.Register(reg)
	require.NoError(t, err)

	endpoints := make(map[any]bool, len(routes))
	for _, r := range routes {
		endpoints[r.Endpoint] = true
	}
	for _, want := range []any{"/start", "/register", "/users", "/info", "/id", tele.OnCallback, tele.OnText} {
		assert.True(t, endpoints[want], "missing route %v", want)
	}
	assert.ElementsMatch(t, []string{CallbackPage, CallbackSelect}, reg.CallbackKeys())
	assert.Len(t, reg.MenuCommands(), 1)
}

func TestStartWithoutLink(t *testing.T) {
	f := newFixture(t)
	c := teletest.Private(jane, "/start")
	require.NoError(t, f.bot.handleStart(c))
	assert.Equal(t, "hello", c.LastText())
}

func TestRegistrationFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.AddGroup(ctx, -555, "Chess Club"))
	f.platform.EXPECT().IsMember(gomock.Any(), int64(-555), jane.ID).Return(true, nil)

	c := teletest.Private(jane, "/start register_-555")
	require.NoError(t, f.bot.handleStart(c))
	assert.Equal(t, "welcome to Chess Club", c.LastText())
	assert.True(t, f.sessions.InProgress(jane.ID))

	c = teletest.Private(jane, "   ")
	require.NoError(t, f.sessions.Dispatch(c))
	assert.Equal(t, "bad name", c.LastText())
	assert.True(t, f.sessions.InProgress(jane.ID))

	c = teletest.Private(jane, "Jane Q. Doe")
	require.NoError(t, f.sessions.Dispatch(c))
	assert.Equal(t, "done", c.LastText())
	assert.False(t, f.sessions.InProgress(jane.ID))

	name, ok, err := f.repo.Registration(ctx, -555, jane.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Jane Q. Doe", name)

	c = teletest.Private(jane, "/start register_-555")
	require.NoError(t, f.bot.handleStart(c))
	assert.Equal(t, "already", c.LastText())
}

func TestStartRejections(t *testing.T) {
	f := newFixture(t)

	c := teletest.Private(jane, "/start register_abc")
	require.NoError(t, f.bot.handleStart(c))
	assert.Equal(t, "bad link", c.LastText())

	f.platform.EXPECT().IsMember(gomock.Any(), int64(-9), jane.ID).Return(false, nil)
	c = teletest.Private(jane, "/start register_-9")
	require.NoError(t, f.bot.handleStart(c))
	assert.Equal(t, "not a member", c.LastText())
	assert.False(t, f.sessions.InProgress(jane.ID))
}

func TestRegisterCommand(t *testing.T) {
	f := newFixture(t)

	c := teletest.Private(admin, "/register")
	require.NoError(t, f.bot.handleRegister(c))
	assert.Equal(t, "groups only", c.LastText())

	c = teletest.Group(admin, -42, "Book Club", "/register")
	require.NoError(t, f.bot.handleRegister(c))
	require.Len(t, c.Sent, 1)
	assert.Equal(t, "press", c.Sent[0].Text())
	markup := c.Sent[0].Markup()
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 1)
	btn := markup.InlineKeyboard[0][0]
	assert.Equal(t, "Register", btn.Text)
	assert.Equal(t, "https://t.me/roster_bot?start=register_-42", btn.URL)

	title, ok, err := f.repo.GroupTitle(context.Background(), -42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Book Club", title)
}

func TestUsersPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := teletest.Private(admin, "/users")
	require.NoError(t, f.bot.handleUsers(c))
	assert.Equal(t, "no groups", c.LastText())

	for i := int64(1); i <= 6; i++ {
		require.NoError(t, f.repo.AddGroup(ctx, -i, ""))
	}

	c = teletest.Private(admin, "/users")
	require.NoError(t, f.bot.handleUsers(c))
	require.Len(t, c.Sent, 1)
	assert.Equal(t, "pick", c.Sent[0].Text())
	rows := c.Sent[0].Markup().InlineKeyboard
	require.Len(t, rows, roster.PageSize+1)
	assert.Equal(t, "grp_sel|-6", rows[0][0].Data)
	assert.Equal(t, "Group -6", rows[0][0].Text)
	require.Len(t, rows[roster.PageSize], 1)
	assert.Equal(t, "grp_page|1", rows[roster.PageSize][0].Data)

	cb := teletest.Callback(admin, &tele.Chat{ID: admin.ID, Type: tele.ChatPrivate}, "grp_page|1")
	require.NoError(t, f.bot.handlePage(cb))
	require.Len(t, cb.Edited, 1)
	rows = cb.Edited[0].Markup().InlineKeyboard
	require.Len(t, rows, 3)
	assert.Equal(t, "grp_sel|-2", rows[0][0].Data)
	assert.Equal(t, "grp_page|0", rows[2][0].Data)
}

func TestSelectSendsCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.AddGroup(ctx, -100, "Alpha"))
	require.NoError(t, f.repo.SetRegistration(ctx, -100, 7, "Jane Doe"))
	f.platform.EXPECT().MemberCount(gomock.Any(), int64(-100)).Return(5, nil)
	f.platform.EXPECT().IsMember(gomock.Any(), int64(-100), gomock.Any()).Return(true, nil).AnyTimes()

	cb := teletest.Callback(admin, &tele.Chat{ID: admin.ID, Type: tele.ChatPrivate}, "grp_sel|-100")
	require.NoError(t, f.bot.handleSelect(cb))
	require.Len(t, cb.Sent, 1)
	doc, ok := cb.Sent[0].What.(*tele.Document)
	require.True(t, ok)
	assert.Equal(t, "Alpha: 1/5", doc.Caption)
	assert.Equal(t, "Alpha_Users.csv", doc.FileName)

	body, err := io.ReadAll(doc.File.FileReader)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, report.Header, records[0])
	assert.Equal(t, "Jane Doe", records[1][3])
}

func TestSelectBadPayload(t *testing.T) {
	f := newFixture(t)
	cb := teletest.Callback(admin, &tele.Chat{ID: admin.ID, Type: tele.ChatPrivate}, "grp_sel|abc")
	require.NoError(t, f.bot.handleSelect(cb))
	assert.Empty(t, cb.Sent)
}

func TestInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := teletest.Private(admin, "/info")
	require.NoError(t, f.bot.handleInfo(c))
	assert.Equal(t, "who?", c.LastText())

	c = teletest.Private(admin, "/info nope")
	require.NoError(t, f.bot.handleInfo(c))
	assert.Equal(t, "unknown user", c.LastText())

	c = teletest.Private(admin, "/info 7")
	require.NoError(t, f.bot.handleInfo(c))
	assert.Equal(t, "unknown user", c.LastText())

	first := "Jane"
	require.NoError(t, f.repo.UpsertProfile(ctx, store.Profile{UserID: 7, FirstName: &first}))
	c = teletest.Private(admin, "/info 7")
	require.NoError(t, f.bot.handleInfo(c))
	assert.Equal(t, "7 Jane\nnone", c.LastText())

	require.NoError(t, f.repo.AddGroup(ctx, -100, "Alpha"))
	require.NoError(t, f.repo.SetRegistration(ctx, -100, 7, "Jane Doe"))
	c = teletest.Private(admin, "/info")
	c.Message().ReplyTo = &tele.Message{Sender: &tele.User{ID: 7}}
	require.NoError(t, f.bot.handleInfo(c))
	assert.Equal(t, "7 Jane\n- Alpha: Jane Doe", c.LastText())
}

func TestID(t *testing.T) {
	f := newFixture(t)
	c := teletest.Group(jane, -321, "G", "/id")
	require.NoError(t, f.bot.handleID(c))
	assert.Equal(t, "id=-321", c.LastText())
}
