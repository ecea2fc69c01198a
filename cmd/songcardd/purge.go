package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-songcard-backend/internal/app"
)

func newPurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired idempotency records and stale rate limit windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app.App) error {
				idem, windows, err := a.Purge(cmd.Context(), time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d idempotency records, %d rate limit windows\n", idem, windows)
				return nil
			})
		},
	}
}
