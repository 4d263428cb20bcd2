package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgstore "github.com/josh-kwaku/credit-ledger/internal/storage/postgres"
)

// SetupTestDB starts a throwaway Postgres, applies the schema and returns a
// pool sized below the server's connection limit. Skipped under -short.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("ledger_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	if err := pgstore.Migrate(connStr); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	db, err := pgstore.Connect(ctx, connStr, pgstore.PoolConfig{
		MaxOpenConns:     20,
		MaxIdleConns:     10,
		ConnMaxLifetimeS: 300,
		ConnMaxIdleTimeS: 60,
	}, 5)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// ResetTables empties the ledger so a single container can serve several
// subtests.
func ResetTables(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.Exec(`TRUNCATE transactions, accounts RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
