package main

import (
	"fmt"
	"os"

	"collabolab/internal/config"
	"collabolab/internal/logger"
	"collabolab/internal/repository"
	"collabolab/internal/server"

	"github.com/spf13/cobra"
)

// @title           Collabolab API
// @version         1.0
// @description     Collaborative projects, invitations, tasks and chat.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http

var rollbackSteps int

var rootCmd = &cobra.Command{
	Use:   "collabolab",
	Short: "Collabolab - collaborative project backend",
	Long: `Collabolab serves the project, invitation, task and chat API
and pushes notifications to connected devices.`,
	RunE: runServer,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServer,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()
		defer log.Sync()

		if err := repository.Migrate(cfg.DatabaseURL()); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		log.Info("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()
		defer log.Sync()

		if err := repository.Rollback(cfg.DatabaseURL(), rollbackSteps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		log.Info("migrations rolled back", "steps", rollbackSteps)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVarP(&rollbackSteps, "steps", "n", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *logger.Logger) {
	cfg, found := config.Load()
	log := logger.New("collabolab", cfg.AppEnv)
	if !found {
		log.Debug("no .env file found, using environment")
	}
	return cfg, log
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, log := setup()
	defer log.Sync()

	s, err := server.Init(cfg, log)
	if err != nil {
		log.Error("server initialization failed", "error", err)
		return err
	}
	return s.Run()
}
