// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jobquest/jobquest/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// PostgresURL returns DATABASE_URL when set. Otherwise it starts a disposable
// PostgreSQL container for the test and returns its connection string.
func PostgresURL(t testing.TB) string {
	t.Helper()
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("jobquest"),
		postgres.WithUsername("jobquest"),
		postgres.WithPassword("jobquest"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	return url
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// TruncateDocuments empties every document table.
func TruncateDocuments(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `TRUNCATE jobs, applications, stories, premiums`); err != nil {
		return fmt.Errorf("truncate documents: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestJob creates a job posted by email with sensible defaults.
func NewTestJob(t testing.TB, email string) *model.Job {
	t.Helper()
	job := &model.Job{ID: model.NewID()}
	for key, value := range map[string]any{
		"job_title":            "Backend Engineer",
		"job_img":              "https://example.com/job.png",
		"job_category":         "On Site",
		"job_description":      "Build and run APIs.",
		"number_of_applicants": 0,
		"deadline":             "2030-01-01",
		"salary_range":         "$100k-$120k",
		"posted_by":            map[string]string{"email": email},
	} {
		if err := job.Set(key, value); err != nil {
			t.Fatalf("failed to build test job: %v", err)
		}
	}
	return job
}

// NewTestApplication creates an application by email for jobID.
func NewTestApplication(t testing.TB, jobID, email string) *model.Application {
	t.Helper()
	return &model.Application{
		ID:    model.NewID(),
		JobID: jobID,
		Email: email,
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
