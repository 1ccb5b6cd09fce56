package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/hrsuite/faceauth/internal/config"
	"github.com/hrsuite/faceauth/internal/database"
	"github.com/hrsuite/faceauth/internal/database/memory"
	"github.com/hrsuite/faceauth/internal/database/postgres"
	"github.com/hrsuite/faceauth/internal/directory"
	"github.com/hrsuite/faceauth/internal/faceauth"
)

// buildLogger creates the process logger from the configured level.
func buildLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zapCfg.Level = parsed
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// core bundles the wired services and their cleanup.
type core struct {
	enroller *faceauth.Enroller
	matcher  *faceauth.Matcher
	recorder *faceauth.Recorder
	closers  []io.Closer
}

func (c *core) close(logger *zap.Logger) {
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			logger.Warn("cleanup failed", zap.Error(err))
		}
	}
}

// buildCore wires the storage backend, the identity directory, and the
// core services. PostgreSQL is used when DATABASE_URL is set; otherwise
// a non-durable in-memory backend serves development use.
func buildCore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*core, error) {
	var (
		enrollments database.EnrollmentRepository
		attempts    database.AuditRepository
		c           core
	)

	if cfg.Database.URL != "" {
		pool, err := postgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(ctx, cfg.Matcher.SignatureDim); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		enrollments = postgres.NewEnrollmentRepository(pool)
		attempts = postgres.NewAuditRepository(pool)
		c.closers = append(c.closers, pool)
		logger.Info("using PostgreSQL backend")
	} else {
		enrollments = memory.NewEnrollmentStore()
		attempts = memory.NewAuditLog()
		logger.Warn("DATABASE_URL not set, using non-durable in-memory backend")
	}

	var dir directory.Directory
	if cfg.HR.DatabaseURL != "" {
		mysqlDir, err := directory.NewMySQLDirectory(cfg.HR.DatabaseURL)
		if err != nil {
			c.close(logger)
			return nil, fmt.Errorf("connecting to HR directory: %w", err)
		}
		dir = mysqlDir
		c.closers = append(c.closers, mysqlDir)
		logger.Info("identity directory enabled (HR database)")
	}

	c.recorder = faceauth.NewRecorder(attempts, logger)
	c.enroller = faceauth.NewEnroller(enrollments, c.recorder, dir, logger)
	c.matcher = faceauth.NewMatcher(enrollments, c.recorder, cfg.Matcher.Threshold, logger)
	return &c, nil
}
