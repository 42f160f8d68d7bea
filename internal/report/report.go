// Package report builds the per-group CSV roster sent to admins.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/m3rciful/rosterbot/core/logger"
	"github.com/m3rciful/rosterbot/core/metrics"
	"github.com/m3rciful/rosterbot/internal/locale"
	"github.com/m3rciful/rosterbot/internal/platform"
	"github.com/m3rciful/rosterbot/internal/store"
)

// Header is the CSV column row.
var Header = []string{"User ID", "Telegram Name", "Username", "Real Name", "Group ID"}

// Profile defaults used when the cached profile lacks a field.
const (
	DefaultFirstName = "Unknown"
	DefaultLastName  = ""
	DefaultUsername  = "None"
)

// Repository is the slice of the store the generator needs.
type Repository interface {
	GroupTitle(ctx context.Context, groupID int64) (string, bool, error)
	Registrations(ctx context.Context, groupID int64) (map[int64]string, error)
	Profile(ctx context.Context, userID int64) (store.Profile, bool, error)
}

// Row is one registrant.
type Row struct {
	UserID       int64
	TelegramName string
	Username     string
	RealName     string
	GroupID      int64
}

// Report is a snapshot of one group's registrations.
type Report struct {
	GroupID     int64
	Title       string
	MemberCount int
	Rows        []Row
}

// Registered is the number of registrants.
func (r Report) Registered() int { return len(r.Rows) }

// Unregistered is the number of members without a registration.
func (r Report) Unregistered() int { return Unregistered(r.MemberCount, r.Registered()) }

// Unregistered returns max(0, members-registered).
func Unregistered(members, registered int) int {
	return max(0, members-registered)
}

// FileName is the attachment name.
func (r Report) FileName() string {
	return r.Title + "_Users.csv"
}

// Caption renders the caption template with the report counters.
func (r Report) Caption(template string) string {
	return locale.Render(template, map[string]any{
		"group_title":        r.Title,
		"member_count":       r.MemberCount,
		"registered_count":   r.Registered(),
		"unregistered_count": r.Unregistered(),
	})
}

// CSV renders the rows. With no rows the body is placeholder alone.
func (r Report) CSV(placeholder string) ([]byte, error) {
	if len(r.Rows) == 0 {
		return []byte(placeholder), nil
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range r.Rows {
		rec := []string{
			strconv.FormatInt(row.UserID, 10),
			row.TelegramName,
			row.Username,
			row.RealName,
			strconv.FormatInt(row.GroupID, 10),
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", row.UserID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Generator assembles reports from the store and live chat data.
type Generator struct {
	repo         Repository
	platform     platform.Platform
	unknownTitle string
}

// NewGenerator wires the generator. unknownTitle replaces a missing group title.
// A nil platform reports zero members and skips membership checks.
func NewGenerator(repo Repository, p platform.Platform, unknownTitle string) *Generator {
	return &Generator{repo: repo, platform: p, unknownTitle: unknownTitle}
}

// Generate builds the report for groupID.
func (g *Generator) Generate(ctx context.Context, groupID int64) (rep Report, err error) {
	start := time.Now()
	defer func() {
		metrics.Reports.WithLabelValues(logger.Status(err)).Inc()
		attrs := []slog.Attr{
			slog.String("status", logger.Status(err)),
			slog.Int64("group_id", groupID),
			slog.Int("members", rep.MemberCount),
			slog.Int("registered", rep.Registered()),
			slog.Int("unregistered", rep.Unregistered()),
			slog.Duration("duration", logger.Took(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
			logger.Error(ctx, "service.report", "report.generate", attrs...)
			return
		}
		logger.Info(ctx, "service.report", "report.generate", attrs...)
	}()

	title, ok, err := g.repo.GroupTitle(ctx, groupID)
	if err != nil {
		return Report{}, err
	}
	if !ok {
		title = g.unknownTitle
	}
	rep = Report{GroupID: groupID, Title: title, MemberCount: g.memberCount(ctx, groupID)}

	regs, err := g.repo.Registrations(ctx, groupID)
	if err != nil {
		return Report{}, err
	}
	uids := lo.Keys(regs)
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	rows := make([]Row, 0, len(uids))
	for _, uid := range uids {
		p, _, err := g.repo.Profile(ctx, uid)
		if err != nil {
			return Report{}, err
		}
		g.recheckMembership(ctx, groupID, uid)
		first := lo.FromPtrOr(p.FirstName, DefaultFirstName)
		last := lo.FromPtrOr(p.LastName, DefaultLastName)
		rows = append(rows, Row{
			UserID:       uid,
			TelegramName: first + " " + last,
			Username:     lo.FromPtrOr(p.Username, DefaultUsername),
			RealName:     regs[uid],
			GroupID:      groupID,
		})
	}
	rep.Rows = rows
	return rep, nil
}

func (g *Generator) memberCount(ctx context.Context, groupID int64) int {
	if g.platform == nil {
		return 0
	}
	n, err := g.platform.MemberCount(ctx, groupID)
	if err != nil {
		logger.Warn(ctx, "service.report", "report.member_count",
			slog.Int64("group_id", groupID),
			slog.String("err", err.Error()),
		)
		return 0
	}
	return n
}

// recheckMembership queries the member status of each registrant. The answer
// does not change the report: people who left stay listed.
func (g *Generator) recheckMembership(ctx context.Context, groupID, userID int64) {
	if g.platform == nil {
		return
	}
	member, err := g.platform.IsMember(ctx, groupID, userID)
	if err != nil || member {
		return
	}
	logger.Debug(ctx, "service.report", "report.member_left",
		slog.Int64("group_id", groupID),
		slog.Int64("target_user_id", userID),
	)
}
