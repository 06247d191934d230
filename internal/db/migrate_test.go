package db_test

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/abilitycore/internal/db"
	"github.com/udisondev/abilitycore/internal/testutil"
)

func TestMigrate_SharedWithTestDB(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := testutil.ContextWithTimeout(t, 30*time.Second)

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	// SetupTestDB already migrated through db.Migrate; a second run is a no-op.
	version, err := db.Migrate(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}
