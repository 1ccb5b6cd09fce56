package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "faceauth",
	Short: "Face authentication service for HR personnel records",
	Long: `Faceauth manages face signature enrollment for employees and
verifies probe signatures against the enrolled population. It serves a
JSON API for the HR admin frontend and keeps a forensic audit trail of
every enrollment and verification attempt.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
