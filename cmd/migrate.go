package main

import (
	"context"

	root "duesbook"
	"duesbook/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCommand constructs the 'migrate' subcommand that brings the members,
// payments and River job tables to their latest version.
func migrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrates database to the latest version",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			pgsql, closeStrg := a.postgres(ctx)
			defer closeStrg()

			res, err := pgsql.Migrate(ctx, root.Migrations())
			if err != nil {
				logger.Fatal(ctx, "could not migrate database", zap.Error(err))
			}

			logger.Info(ctx, "database migrated",
				zap.Int64s("schemaVersions", res.Schema),
				zap.Ints("queueVersions", res.Queue))
		},
	}

	return cmd
}
