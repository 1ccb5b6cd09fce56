//go:build integration

package postgres

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hrsuite/faceauth/internal/config"
	"github.com/hrsuite/faceauth/internal/database"
)

const testSignatureDim = 3

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx, testSignatureDim); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func testRecord(id string, sig []float64, enabled bool) database.EnrollmentRecord {
	return database.EnrollmentRecord{
		IdentityID: id,
		Signature:  sig,
		Enabled:    enabled,
		EnrolledAt: time.Now().UTC(),
	}
}

func TestEnrollmentRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewEnrollmentRepository(pool)

	t.Run("UpsertAndGet", func(t *testing.T) {
		created, err := repo.Upsert(ctx, testRecord("emp-1", []float64{0.1, 0.2, 0.3}, true))
		if err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		if !created {
			t.Error("Expected creation, got replacement")
		}

		rec, err := repo.Get(ctx, "emp-1")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if rec == nil {
			t.Fatal("Expected record, got nil")
		}
		if rec.IdentityID != "emp-1" || !rec.Enabled {
			t.Errorf("Unexpected record: %+v", rec)
		}
		// pgvector stores float32, so compare with tolerance.
		want := []float64{0.1, 0.2, 0.3}
		for i, v := range rec.Signature {
			if math.Abs(v-want[i]) > 1e-6 {
				t.Errorf("Signature[%d] = %v, want ~%v", i, v, want[i])
			}
		}
		if rec.LastUsedAt != nil {
			t.Error("Fresh enrollment has last_used_at set")
		}
	})

	t.Run("UpsertReplace", func(t *testing.T) {
		created, err := repo.Upsert(ctx, testRecord("emp-1", []float64{0.9, 0.9, 0.9}, true))
		if err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		if created {
			t.Error("Replacement reported as creation")
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 record after replace, got %d", count)
		}
	})

	t.Run("GetAbsent", func(t *testing.T) {
		rec, err := repo.Get(ctx, "ghost")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if rec != nil {
			t.Errorf("Expected nil for absent identity, got %+v", rec)
		}
	})

	t.Run("ListEnabledCandidates", func(t *testing.T) {
		if _, err := repo.Upsert(ctx, testRecord("emp-2", []float64{1, 1, 1}, true)); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		if _, err := repo.Upsert(ctx, testRecord("emp-3", []float64{2, 2, 2}, false)); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}

		candidates, err := repo.ListEnabledCandidates(ctx)
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(candidates) != 2 {
			t.Fatalf("Expected 2 enabled candidates, got %d", len(candidates))
		}
		for _, c := range candidates {
			if c.IdentityID == "emp-3" {
				t.Error("Disabled record returned as candidate")
			}
			if len(c.Signature) != testSignatureDim {
				t.Errorf("Candidate %s has %d dims", c.IdentityID, len(c.Signature))
			}
		}
	})

	t.Run("Dimension", func(t *testing.T) {
		dim, err := repo.Dimension(ctx)
		if err != nil {
			t.Fatalf("Failed to get dimension: %v", err)
		}
		if dim != testSignatureDim {
			t.Errorf("Expected dimension %d, got %d", testSignatureDim, dim)
		}
	})

	t.Run("SetEnabled", func(t *testing.T) {
		found, err := repo.SetEnabled(ctx, "emp-2", false)
		if err != nil {
			t.Fatalf("Failed to set enabled: %v", err)
		}
		if !found {
			t.Error("Expected found, got false")
		}

		rec, err := repo.Get(ctx, "emp-2")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if rec.Enabled {
			t.Error("Record still enabled after disable")
		}

		found, err = repo.SetEnabled(ctx, "ghost", true)
		if err != nil {
			t.Fatalf("Failed to set enabled: %v", err)
		}
		if found {
			t.Error("Expected not found for absent identity")
		}
	})

	t.Run("TouchLastUsed", func(t *testing.T) {
		usedAt := time.Now().UTC()
		if err := repo.TouchLastUsed(ctx, "emp-1", usedAt); err != nil {
			t.Fatalf("Failed to touch: %v", err)
		}

		rec, err := repo.Get(ctx, "emp-1")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if rec.LastUsedAt == nil {
			t.Fatal("last_used_at not set")
		}

		// Missing identity is a no-op, not an error.
		if err := repo.TouchLastUsed(ctx, "ghost", usedAt); err != nil {
			t.Errorf("Touch on absent identity: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		found, err := repo.Delete(ctx, "emp-1")
		if err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if !found {
			t.Error("Expected found, got false")
		}

		found, err = repo.Delete(ctx, "emp-1")
		if err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if found {
			t.Error("Repeated delete reported found")
		}
	})
}

func TestAuditRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewAuditRepository(pool)

	id := "emp-1"
	confidence := 0.85
	detail := "distance above threshold"

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records := []database.AuditRecord{
		{ID: uuid.New(), IdentityID: &id, Action: database.ActionEnrollment, Success: true, Origin: "10.0.0.1", Client: "test", OccurredAt: base},
		{ID: uuid.New(), IdentityID: &id, Action: database.ActionVerification, Confidence: &confidence, Success: true, Origin: "10.0.0.1", Client: "test", OccurredAt: base.Add(time.Second)},
		{ID: uuid.New(), Action: database.ActionVerification, Success: false, ErrorDetail: &detail, Origin: "10.0.0.2", Client: "test", OccurredAt: base.Add(2 * time.Second)},
	}

	t.Run("Append", func(t *testing.T) {
		for _, rec := range records {
			if err := repo.Append(ctx, rec); err != nil {
				t.Fatalf("Failed to append: %v", err)
			}
		}
	})

	t.Run("ListByIdentity", func(t *testing.T) {
		out, err := repo.ListByIdentity(ctx, id, 10)
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("Expected 2 records for %s, got %d", id, len(out))
		}
		if out[0].Action != database.ActionVerification {
			t.Errorf("Expected newest record first, got action %s", out[0].Action)
		}
		if out[0].Confidence == nil || *out[0].Confidence != confidence {
			t.Errorf("Confidence = %v, want %v", out[0].Confidence, confidence)
		}
	})

	t.Run("ListRecent", func(t *testing.T) {
		out, err := repo.ListRecent(ctx, 2)
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(out))
		}
		if out[0].IdentityID != nil {
			t.Error("Expected the anonymous rejection newest")
		}
		if out[0].ErrorDetail == nil || *out[0].ErrorDetail != detail {
			t.Errorf("Error detail = %v, want %q", out[0].ErrorDetail, detail)
		}
	})
}
