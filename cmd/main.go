// Package main is the duesbook command line: it serves the API and workers,
// migrates the database and offers a few administrative commands.
package main

import (
	"context"
	"fmt"
	"os"

	"duesbook/internal/billing"
	"duesbook/internal/config"
	"duesbook/internal/identity"
	"duesbook/pkg/credential"
	"duesbook/pkg/logger"
	"duesbook/pkg/storage/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every subcommand shares. cfg is filled in by the root
// command's PersistentPreRunE, before any subcommand runs.
type app struct {
	configPath string
	cfg        *config.Config
}

func (a *app) load(*cobra.Command, []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Setup(cfg.Environment, cfg.LogLevel); err != nil {
		// the logger is still usable with the environment's default level
		logger.Warn(context.Background(), "ignoring log level", zap.Error(err))
	}

	return nil
}

// postgres connects to the configured database. The returned func closes it.
func (a *app) postgres(ctx context.Context) (*postgres.PgSQL, func()) {
	db := a.cfg.Database
	pgsql, err := postgres.New(ctx, postgres.Options{
		Username:           db.Username,
		Password:           db.Password,
		Host:               db.Host,
		Port:               db.Port,
		Database:           db.DatabaseName,
		SslMode:            db.SslMode,
		ApplicationName:    db.ApplicationName,
		ConnMaxLifetime:    db.ConnMaxLifetime,
		ConnMaxIdleTime:    db.ConnMaxIdleTime,
		MaxOpenConnections: db.MaxOpenConnections,
		MaxIdleConnections: db.MaxIdleConnections,
	})
	if err != nil {
		logger.Fatal(ctx, "could not create postgres storage", zap.Error(err))
	}

	return pgsql, func() {
		if err := pgsql.Close(); err != nil {
			logger.Warn(ctx, "could not close postgres connection", zap.Error(err))
		}
	}
}

func (a *app) identity(pgsql *postgres.PgSQL) identity.Service {
	c := a.cfg.Credential
	hasher := credential.NewArgon2id(credential.Params{
		MemoryKiB:   c.MemoryKiB,
		Iterations:  c.Iterations,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	})

	return identity.New(pgsql, hasher, identity.NewOptions(a.cfg))
}

func (a *app) billing(ctx context.Context, pgsql *postgres.PgSQL) billing.Service {
	options, err := billing.NewOptions(a.cfg)
	if err != nil {
		logger.Fatal(ctx, "could not configure billing", zap.Error(err))
	}

	return billing.New(pgsql, options)
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "duesbook",
		Short:             "Member registration and dues tracking",
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.yml", "Config file path")

	root.AddCommand(
		migrateCommand(a),
		serveCommand(a),
		registerCommand(a),
		paymentCommand(a),
	)

	return root
}

func main() {
	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			_ = logger.Get(ctx).Sync()

			panic(p)
		}
	}()

	err := newRootCommand().Execute()
	_ = logger.Get(ctx).Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1) //nolint: gocritic
	}
}
