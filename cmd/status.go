package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrsuite/faceauth/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status <identity-id>",
	Short: "Show the enrollment status of an identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	identityID := args[0]

	cfg := config.Load()
	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	c, err := buildCore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer c.close(logger)

	status, err := c.enroller.Status(cmd.Context(), identityID)
	if err != nil {
		return err
	}

	if !status.Enrolled {
		fmt.Printf("%s: not enrolled\n", identityID)
		return nil
	}

	state := "enabled"
	if !status.Enabled {
		state = "disabled"
	}
	fmt.Printf("%s: enrolled (%s)\n", identityID, state)
	fmt.Printf("  Enrolled at: %s\n", status.EnrolledAt.Format("2006-01-02 15:04:05 MST"))
	if status.LastUsedAt != nil {
		fmt.Printf("  Last used:   %s\n", status.LastUsedAt.Format("2006-01-02 15:04:05 MST"))
	} else {
		fmt.Println("  Last used:   never")
	}

	count, dim, err := c.enroller.Population(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Population: %d enrolled, signature dimension %d\n", count, dim)
	return nil
}
