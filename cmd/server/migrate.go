package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/config"
	"github.com/septivank/rnsync-vitals/internal/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the patients, readings and files tables for the postgres or sqlite driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Read()
			if err := cfg.ValidateDatastore(); err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()

			applied, err := migrate(cmd.Context(), cfg.Datastore)
			if err != nil {
				return err
			}
			logger.Info("schema applied",
				zap.String("driver", cfg.Datastore.Driver),
				zap.Int("statements", applied),
			)
			return nil
		},
	}
}

func migrate(ctx context.Context, ds config.DatastoreConfig) (int, error) {
	switch ds.Driver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, ds.DatabaseURL, ds.MaxConns)
		if err != nil {
			return 0, err
		}
		defer pool.Close()
		return db.MigratePostgres(ctx, pool)

	case config.DriverSQLite:
		// OpenSQLite applies the schema itself
		conn, err := db.OpenSQLite(ctx, ds.SQLitePath)
		if err != nil {
			return 0, err
		}
		defer conn.Close()
		return db.MigrateSQLite(ctx, conn)
	}

	return 0, fmt.Errorf("driver %q has no schema to migrate; the rest datastore is managed remotely", ds.Driver)
}
