package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hrsuite/faceauth/internal/config"
	"github.com/hrsuite/faceauth/internal/faceauth"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-enroll face signatures from a JSON file",
	Long: `Enroll many identities at once from a JSON file containing an array
of {"identity_id": "...", "signature": [...]} objects. Existing
enrollments are replaced and re-activated; each imported identity
produces one audit record.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("file", "", "Path to the JSON file to import (required)")
	importCmd.MarkFlagRequired("file")
}

type importEntry struct {
	IdentityID string    `json:"identity_id"`
	Signature  []float64 `json:"signature"`
}

func runImport(cmd *cobra.Command, args []string) error {
	path := mustGetString(cmd, "file")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var entries []importEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s contains no entries", path)
	}

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

	meta := faceauth.RequestMeta{Origin: "cli", Client: "faceauth import"}
	bar := progressbar.Default(int64(len(entries)))

	var failed int
	for _, entry := range entries {
		if _, err := c.enroller.Enroll(cmd.Context(), meta, entry.IdentityID, entry.Signature); err != nil {
			failed++
			logger.Warn("import entry failed",
				zap.String("identity_id", entry.IdentityID),
				zap.Error(err),
			)
		}
		bar.Add(1)
	}

	fmt.Printf("Imported %d enrollments (%d failed)\n", len(entries)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d entries failed", failed, len(entries))
	}
	return nil
}
