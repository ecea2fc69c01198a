package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-songcard-backend/internal/app"
)

func newPollCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "poll <jobId>",
		Short: "Poll a song generation job once and record the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Workflow.PollSongStatus(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("poll %s: %w", args[0], err)
				}
				rows := [][]string{
					{"Card", res.CardID},
					{"Job", res.JobID},
					{"Status", string(res.Status)},
				}
				if res.SongURL != "" {
					rows = append(rows, []string{"Song", res.SongURL})
				}
				if res.Error != "" {
					rows = append(rows, []string{"Error", res.Error})
				}
				if res.Cached {
					rows = append(rows, []string{"Cached", "yes"})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}
}
