package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"PONTO-backend/internal/platform/db"
)

func runMigrate(cmd *cobra.Command, args []string) error {
	conn, dialect, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()

	n, err := db.Migrate(cmd.Context(), conn, dialect)
	if err != nil {
		return err
	}
	appLog.Info("db.migrated", slog.String("driver", dialect.Name), slog.Int("applied", n))
	fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", n)
	return nil
}
