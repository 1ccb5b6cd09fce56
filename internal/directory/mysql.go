package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDirectory looks up employees directly in the HR application's
// MariaDB database.
type MySQLDirectory struct {
	db *sql.DB
}

// NewMySQLDirectory opens a connection pool against the HR database.
func NewMySQLDirectory(dsn string) (*MySQLDirectory, error) {
	if dsn == "" {
		return nil, errors.New("HR database DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open HR database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping HR database: %w", err)
	}

	return &MySQLDirectory{db: db}, nil
}

// Exists reports whether an employee row exists for the identity.
func (d *MySQLDirectory) Exists(ctx context.Context, identityID string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx,
		"SELECT 1 FROM employees WHERE id = ? LIMIT 1", identityID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup employee: %w", err)
	}
	return true, nil
}

// Close closes the connection pool.
func (d *MySQLDirectory) Close() error {
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			return fmt.Errorf("closing HR database connection: %w", err)
		}
	}
	return nil
}
