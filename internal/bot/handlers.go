package bot

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/m3rciful/rosterbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/rosterbot/core/telegram/helpers"
	"github.com/m3rciful/rosterbot/core/telegram/keyboard"
	"github.com/m3rciful/rosterbot/internal/locale"
	"github.com/m3rciful/rosterbot/internal/registration"
	"github.com/m3rciful/rosterbot/internal/roster"
	"github.com/m3rciful/rosterbot/internal/userinfo"

	tele "gopkg.in/telebot.v4"
)

func userOf(u *tele.User) registration.User {
	if u == nil {
		return registration.User{}
	}
	return registration.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

func isPrivate(c tele.Context) bool {
	return c.Chat() != nil && c.Chat().Type == tele.ChatPrivate
}

func (b *Bot) reply(c tele.Context, key string) error {
	return tghelpers.SendText(c, b.Texts.Get(key))
}

func (b *Bot) fail(c tele.Context, err error) error {
	tghelpers.SetOutcome(c, "fail")
	_ = b.reply(c, locale.KeyErrorGeneric)
	return err
}

func (b *Bot) handleStart(c tele.Context) error {
	payload := ""
	if m := c.Message(); m != nil {
		payload = strings.TrimSpace(m.Payload)
	}
	if payload == "" || !isPrivate(c) || !strings.HasPrefix(payload, registration.LinkPrefix) {
		return b.reply(c, locale.KeyStart)
	}

	ctx := tghelpers.BuildContext(c)
	res, err := b.Registration.Begin(ctx, c.Chat().ID, userOf(c.Sender()), payload)
	if err != nil {
		return b.fail(c, err)
	}
	tghelpers.SetOutcome(c, string(res.Outcome))

	switch res.Outcome {
	case registration.OutcomeInvalidLink:
		return b.reply(c, locale.KeyInvalidLink)
	case registration.OutcomeAlreadyRegistered:
		return b.reply(c, locale.KeyAlreadyRegistered)
	case registration.OutcomeNotAMember:
		return b.reply(c, locale.KeyNotMember)
	case registration.OutcomePrompted:
		return tghelpers.SendText(c, b.Texts.Format(locale.KeyWelcomeUser, map[string]any{
			"group_title": res.GroupTitle,
		}))
	}
	return nil
}

func (b *Bot) handleName(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	res, err := b.Registration.SubmitName(ctx, c.Chat().ID, userOf(c.Sender()), c.Text())
	if err != nil {
		return b.fail(c, err)
	}
	tghelpers.SetOutcome(c, string(res.Outcome))

	switch res.Outcome {
	case registration.OutcomeEmptyName:
		return b.reply(c, locale.KeyInvalidFormat)
	case registration.OutcomeAlreadyRegistered:
		return b.reply(c, locale.KeyAlreadyRegistered)
	case registration.OutcomeRegistered:
		return b.reply(c, locale.KeyRegisterSuccess)
	}
	return nil
}

func (b *Bot) handleRegister(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if chat.Type == tele.ChatPrivate {
		return b.reply(c, locale.KeyOnlyGroupCommand)
	}

	ctx := tghelpers.BuildContext(c)
	if err := b.Groups.AddGroup(ctx, chat.ID, chat.Title); err != nil {
		return b.fail(c, err)
	}
	markup := keyboard.Inline(keyboard.Row(keyboard.Link(b.Texts.Get(locale.KeyRegisterButton), b.DeepLink(chat.ID))))
	return tghelpers.SendText(c, b.Texts.Get(locale.KeyRegisterMessage), markup)
}

func (b *Bot) handleUsers(c tele.Context) error {
	return b.showPage(c, 0, false)
}

func (b *Bot) handlePage(c tele.Context) error {
	n, err := callbacks.PayloadInt(c)
	if err != nil {
		tghelpers.SetOutcome(c, "bad_payload")
		return nil
	}
	return b.showPage(c, n, true)
}

func (b *Bot) showPage(c tele.Context, n int, edit bool) error {
	ctx := tghelpers.BuildContext(c)
	page, err := b.Roster.Page(ctx, n)
	if errors.Is(err, roster.ErrNoGroups) {
		tghelpers.SetOutcome(c, "empty")
		if edit {
			return tghelpers.EditText(c, b.Texts.Get(locale.KeyNoGroups))
		}
		return b.reply(c, locale.KeyNoGroups)
	}
	if err != nil {
		return b.fail(c, err)
	}

	markup := pageKeyboard(page)
	text := b.Texts.Get(locale.KeySelectGroup)
	if edit {
		return tghelpers.EditText(c, text, markup)
	}
	return tghelpers.SendText(c, text, markup)
}

func pageKeyboard(p roster.Page) *tele.ReplyMarkup {
	rows := make([][]tele.InlineButton, 0, len(p.Entries)+1)
	for _, e := range p.Entries {
		rows = append(rows, keyboard.Row(keyboard.Button(e.Title, CallbackSelect, strconv.FormatInt(e.GroupID, 10))))
	}
	var nav []tele.InlineButton
	if p.HasPrev {
		nav = append(nav, keyboard.Button("⬅️", CallbackPage, strconv.Itoa(p.Number-1)))
	}
	if p.HasNext {
		nav = append(nav, keyboard.Button("➡️", CallbackPage, strconv.Itoa(p.Number+1)))
	}
	return keyboard.Inline(append(rows, nav)...)
}

func (b *Bot) handleSelect(c tele.Context) error {
	groupID, err := callbacks.PayloadInt64(c)
	if err != nil {
		tghelpers.SetOutcome(c, "bad_payload")
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	rep, err := b.Reports.Generate(ctx, groupID)
	if err != nil {
		return b.fail(c, err)
	}
	body, err := rep.CSV(b.Texts.Get(locale.KeyNoUsersCSV))
	if err != nil {
		return b.fail(c, err)
	}
	return tghelpers.SendDocument(c, &tele.Document{
		File:     tele.FromReader(bytes.NewReader(body)),
		FileName: rep.FileName(),
		Caption:  rep.Caption(b.Texts.Get(locale.KeyCSVCaption)),
	})
}

func (b *Bot) handleInfo(c tele.Context) error {
	var (
		target int64
		given  bool
	)
	if m := c.Message(); m != nil && m.ReplyTo != nil && m.ReplyTo.Sender != nil {
		target, given = m.ReplyTo.Sender.ID, true
	} else if args := c.Args(); len(args) > 0 {
		given = true
		target, _ = userinfo.ParseTarget(args[0])
	}
	if !given {
		return b.reply(c, locale.KeyInputUserID)
	}
	if target == 0 {
		tghelpers.SetOutcome(c, "not_found")
		return b.reply(c, locale.KeyInfoNotFound)
	}

	info, err := b.Info.Lookup(tghelpers.BuildContext(c), target)
	if errors.Is(err, userinfo.ErrNotFound) {
		tghelpers.SetOutcome(c, "not_found")
		return b.reply(c, locale.KeyInfoNotFound)
	}
	if err != nil {
		return b.fail(c, err)
	}
	return tghelpers.SendText(c, info.Render(b.Texts.Get(locale.KeyInfoTemplate), b.Texts.Get(locale.KeyNoRegistrations)))
}

func (b *Bot) handleID(c tele.Context) error {
	if c.Chat() == nil {
		return nil
	}
	return tghelpers.SendText(c, b.Texts.Format(locale.KeyChatID, map[string]any{"chat_id": c.Chat().ID}))
}
