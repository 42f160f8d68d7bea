package app

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/m3rciful/rosterbot/internal/locale"
	"github.com/m3rciful/rosterbot/internal/report"
	"github.com/m3rciful/rosterbot/internal/store"
)

// WriteGroups prints every known group with its registration count.
func WriteGroups(ctx context.Context, repo *store.Repository, w io.Writer) error {
	ids, err := repo.ListGroups(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Group ID", "Title", "Registered"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, id := range ids {
		title, _, err := repo.GroupTitle(ctx, id)
		if err != nil {
			return err
		}
		regs, err := repo.Registrations(ctx, id)
		if err != nil {
			return err
		}
		table.Append([]string{strconv.FormatInt(id, 10), title, strconv.Itoa(len(regs))})
	}
	table.Render()
	return nil
}

// ExportCSV writes the report of one group without contacting Telegram, so
// member counts are reported as zero.
func ExportCSV(ctx context.Context, repo *store.Repository, texts *locale.Store, groupID int64, w io.Writer) error {
	gen := report.NewGenerator(repo, nil, texts.Get(locale.KeyUnknownGroup))
	rep, err := gen.Generate(ctx, groupID)
	if err != nil {
		return err
	}
	body, err := rep.CSV(texts.Get(locale.KeyNoUsersCSV))
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
