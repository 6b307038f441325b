package testutil

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/repair_shop/pkg/db"
)

// PostgresEnv names the URL-form DSN of a scratch postgres server for
// engine-specific tests.
const PostgresEnv = "TEST_DATABASE_URL"

// NewPostgresDB opens the server named by TEST_DATABASE_URL inside a fresh
// schema that is dropped on cleanup. The test is skipped when the variable is unset.
func NewPostgresDB(t *testing.T, migrate ...func(*gorm.DB) error) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresEnv)
	}
	ctx := context.Background()
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, admin.Exec("CREATE SCHEMA "+schema).Error)

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	gdb, err := db.Open(ctx, dsn+sep+"search_path="+schema)
	require.NoError(t, err)

	for _, m := range migrate {
		require.NoError(t, m(gdb))
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = admin.Exec("DROP SCHEMA " + schema + " CASCADE").Error
		if sqlDB, err := admin.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
