package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-songcard-backend/internal/app"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <idOrShareId>",
		Short: "Show a card with its generation jobs and email history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app.App) error {
				rep, err := a.Inspect(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("show %s: %w", args[0], err)
				}
				if asJSON {
					return writeJSON(cmd, rep)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderReport(rep, a.Workflow.ShareURL(rep.Card.ShareID)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func renderReport(rep *app.CardReport, shareURL string) string {
	c := rep.Card
	var b strings.Builder

	b.WriteString(renderTable(
		[]string{"Field", "Value"},
		[][]string{
			{"ID", c.ID},
			{"Share URL", shareURL},
			{"Recipient", c.RecipientName},
			{"Sender", c.SenderName},
			{"Occasion", string(c.Occasion)},
			{"Style", string(c.MusicStyle)},
			{"Status", string(c.SongStatus)},
			{"Lyrics", yesNo(c.HasLyrics())},
			{"Song", deref(c.SongURL)},
			{"Created", c.CreatedAt.Format(time.RFC3339)},
		},
		nil,
	))

	if len(rep.Jobs) > 0 {
		rows := make([][]string, 0, len(rep.Jobs))
		for _, j := range rep.Jobs {
			rows = append(rows, []string{j.SunoJobID, string(j.Status), deref(j.ErrorMessage), j.UpdatedAt.Format(time.RFC3339)})
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"Job", "Status", "Error", "Updated"}, rows, nil))
	}

	if len(rep.Emails) > 0 {
		rows := make([][]string, 0, len(rep.Emails))
		for _, e := range rep.Emails {
			rows = append(rows, []string{e.RecipientEmail, string(e.Status), deref(e.ErrorMessage), e.SentAt.Format(time.RFC3339)})
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"Recipient", "Status", "Error", "Sent"}, rows, nil))
	}

	return b.String()
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
