package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hrsuite/faceauth/internal/config"
	"github.com/hrsuite/faceauth/internal/faceauth"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a probe signature against the enrolled population",
	Long: `Run one verification from the command line. The probe file contains
a JSON array of numbers (the face signature from the external
extractor). Useful for threshold tuning against a known population.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("file", "", "Path to the probe signature JSON file (required)")
	verifyCmd.Flags().Float64("threshold", 0, "Override the acceptance threshold for this run")
	verifyCmd.MarkFlagRequired("file")
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := mustGetString(cmd, "file")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var probe []float64
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := config.Load()
	if override := mustGetFloat64(cmd, "threshold"); override > 0 {
		cfg.Matcher.Threshold = override
	}

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

	meta := faceauth.RequestMeta{Origin: "cli", Client: "faceauth verify"}
	match, err := c.matcher.Verify(cmd.Context(), meta, probe)
	if err != nil {
		var notRecognized *faceauth.NotRecognizedError
		switch {
		case errors.Is(err, faceauth.ErrNoCandidates):
			fmt.Println("No enabled enrollments to match against")
		case errors.As(err, &notRecognized):
			if notRecognized.Confidence != nil {
				fmt.Printf("Not recognized (best candidate %s, confidence %.4f, threshold %.2f)\n",
					notRecognized.BestIdentity, *notRecognized.Confidence, cfg.Matcher.Threshold)
			} else {
				fmt.Println("Not recognized (no comparable candidates)")
			}
		default:
			return err
		}
		return nil
	}

	fmt.Printf("Recognized %s (confidence %.4f)\n", match.IdentityID, match.Confidence)
	return nil
}
