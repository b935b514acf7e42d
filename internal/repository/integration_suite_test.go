//go:build integration

package repository_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var tcPool *pgxpool.Pool

const schema = `
CREATE TABLE orders (
    id                      TEXT PRIMARY KEY,
    customer_id             TEXT NOT NULL,
    restaurant_id           TEXT NOT NULL,
    courier_id              TEXT,
    status                  TEXT NOT NULL,
    delivery_lat            DOUBLE PRECISION NOT NULL,
    delivery_lon            DOUBLE PRECISION NOT NULL,
    estimated_delivery_time TIMESTAMPTZ,
    actual_delivery_time    TIMESTAMPTZ,
    updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE delivery_status_history (
    id         BIGSERIAL PRIMARY KEY,
    order_id   TEXT NOT NULL,
    status     TEXT NOT NULL,
    actor      TEXT NOT NULL,
    notes      TEXT NOT NULL DEFAULT '',
    changed_at TIMESTAMPTZ NOT NULL
);
`

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start postgres testcontainer: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		log.Fatalf("failed to get connection string from container: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		log.Fatalf("failed to create pgx pool: %v", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
		log.Fatalf("failed to apply schema: %v", err)
	}

	tcPool = pool
	code := m.Run()

	pool.Close()
	if err := pgContainer.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %v", err)
	}
	os.Exit(code)
}
