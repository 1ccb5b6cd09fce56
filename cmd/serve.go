package cmd

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hrsuite/faceauth/internal/config"
	"github.com/hrsuite/faceauth/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the face authentication API server",
	Long: `Start the faceauth web server. The server exposes the enrollment,
verification, status, and audit endpoints consumed by the HR admin
frontend, plus health and Prometheus metrics endpoints.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		if n, err := strconv.Atoi(envPort); err == nil {
			port = n
		}
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
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

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(c.enroller, c.matcher, c.recorder, host, port, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-stop:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
