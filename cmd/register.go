package main

import (
	"context"
	"encoding/json"
	"fmt"

	"duesbook/internal/api/handler/v1handler"
	"duesbook/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// printJSON writes v to stdout as indented JSON.
func printJSON(ctx context.Context, v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatal(ctx, "could not encode output", zap.Error(err))
	}

	fmt.Println(string(out)) //nolint: forbidigo
}

// registerCommand constructs the 'register' subcommand that registers a
// member the same way the API does.
func registerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Registers a member",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			pgsql, closeStrg := a.postgres(ctx)
			defer closeStrg()

			m, err := a.identity(pgsql).RegisterMember(ctx, name, email, password)
			if err != nil {
				logger.Fatal(ctx, "could not register member", zap.Error(err))
			}

			printJSON(ctx, v1handler.DomainMemberToView(m))
		},
	}

	cmd.Flags().String("name", "", "Member display name")
	cmd.Flags().String("email", "", "Member email")
	cmd.Flags().String("password", "", "Member password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
