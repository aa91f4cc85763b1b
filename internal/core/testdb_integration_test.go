package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to TEST_DATABASE_URL, wipes the shop tables and seeds two
// customers. The schema must already be migrated (go run ./cmd/app migrate).
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err, "connect to test database")
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE message_logs, payments, order_status_log, orders, message_templates,
			products, customers, staff RESTART IDENTITY CASCADE;

		INSERT INTO customers (name, phone, email, address, tags) VALUES
		('Asha Traders',  '+91 98000 00001', 'asha@example.in',  'Kochi',     '{wholesale}'),
		('Bharat Prints', '+91 98000 00002', 'bharat@example.in', 'Bengaluru', '{}');
	`)
	require.NoError(t, err, "seed test database")
	return pool
}
