package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "PONTO-backend/docs"
	"PONTO-backend/internal/platform/config"
	"PONTO-backend/internal/platform/logger"
)

var (
	// Global flags
	configPath string

	cfg    *config.Config
	appLog *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ponto",
	Short: "PONTO - attendance records with a chat assistant",
	Long: `ponto serves the attendance API and the chat assistant that reads
and writes presence records on behalf of the user.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		appLog = logger.New(cfg.Log)
		slog.SetDefault(appLog)
		return nil
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage login accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a login account",
	Long: `Create a login account directly in the database.

The first administrator has to be created this way; later accounts can
also be registered through POST /api/register.`,
	RunE: runUserAdd,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $CONFIG_PATH or "+config.DefaultPath+")")

	userAddCmd.Flags().String("email", "", "Account e-mail")
	userAddCmd.Flags().String("password", "", "Account password")
	userAddCmd.Flags().String("name", "", "Display name")
	userAddCmd.Flags().String("role", "user", "user or admin")
	_ = userAddCmd.MarkFlagRequired("email")
	_ = userAddCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
