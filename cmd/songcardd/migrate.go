package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDB()
			if err != nil {
				return err
			}
			closeDB(db)
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", ctx.config.DB.Driver)
			return nil
		},
	}
}
