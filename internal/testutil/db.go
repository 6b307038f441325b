package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/repair_shop/pkg/db"
)

// NewDB opens a private in-memory sqlite database and runs migrate on it.
func NewDB(t *testing.T, migrate ...func(*gorm.DB) error) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite("")
	require.NoError(t, err)

	for _, m := range migrate {
		require.NoError(t, m(gdb))
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
