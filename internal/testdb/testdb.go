// Package testdb runs an embedded Postgres for integration tests and loads
// billing fixtures into it.
package testdb

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/fixture"
	"github.com/gyeh/billingdash/internal/ingest"
	"github.com/gyeh/billingdash/internal/logging"
	"github.com/gyeh/billingdash/internal/model"
)

const (
	testDB       = "billingtest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var dsn string

// DSN returns the connection string of the running test database.
func DSN() string {
	return dsn
}

// Main starts an embedded Postgres on port, runs the package's tests and
// stops the server. Each package uses its own port so packages can run in
// parallel.
func Main(m *testing.M, port uint32) int {
	dsn = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, port, testDB)

	runtime, err := os.MkdirTemp("", fmt.Sprintf("billingdash-pg-%d-", port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "create runtime dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(runtime)

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			RuntimePath(runtime).
			StartTimeout(30 * time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		return 1
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}
	return code
}

// Setup connects to the test database, drops every table and applies the
// migrations from scratch.
func Setup(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, table := range []string{"procedure_summary", "transactions", "uploads"} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			pool.Close()
			t.Fatalf("drop table %s: %v", table, err)
		}
	}

	if err := db.ApplyMigrations(ctx, pool, logging.Setup("text")); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

// Import writes lines to a workbook and runs the import pipeline on it.
func Import(t *testing.T, pool *pgxpool.Pool, lines ...fixture.Line) *model.ImportSummary {
	t.Helper()
	ctx := context.Background()

	var buf bytes.Buffer
	if err := fixture.New(lines...).Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	path := filepath.Join(t.TempDir(), "billing.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	up, err := ingest.CreateUpload(ctx, pool, filepath.Base(path), "billing.xlsx", int64(buf.Len()))
	if err != nil {
		t.Fatalf("create upload: %v", err)
	}
	summary, err := ingest.Run(ctx, pool, logging.Setup("text"), ingest.Request{
		Path:     path,
		UploadID: up.ID,
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	return summary
}
