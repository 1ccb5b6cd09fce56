package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrsuite/faceauth/internal/config"
	"github.com/hrsuite/faceauth/internal/database/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Apply the faceauth schema to the configured PostgreSQL database.
The signature column dimension is taken from SIGNATURE_DIM and is fixed
once the enrollments table exists.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	defer pool.Close()

	if err := pool.Migrate(cmd.Context(), cfg.Matcher.SignatureDim); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	fmt.Printf("Schema ready (signature dimension %d)\n", cfg.Matcher.SignatureDim)
	return nil
}
