package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/abilitycore/internal/db"
	"github.com/udisondev/abilitycore/internal/testutil"
)

func TestCombatLogRepository(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := db.NewCombatLogRepository(pool)
	ctx := testutil.ContextWithTimeout(t, 30*time.Second)

	battle := db.BattleRow{ID: uuid.New(), Scenario: "duel", Seed: 7, Duration: 3 * time.Second}
	entries := []db.CombatLogEntry{
		{Seq: 0, At: 0, Type: "execution_started", Source: 1, ConfigID: 2, Detail: "bolt"},
		{Seq: 1, At: 500 * time.Millisecond, Type: "damage_received", Source: 1, Target: 2, ConfigID: 2, Amount: 20},
		{Seq: 2, At: 1500 * time.Millisecond, Type: "damage_received", Source: 1, Target: 2, Amount: 7.5, Critical: true},
		{Seq: 3, At: 2000 * time.Millisecond, Type: "damage_received", Source: 2, Target: 1, Amount: 3},
	}

	t.Run("InsertAndList", func(t *testing.T) {
		require.NoError(t, repo.InsertBatch(ctx, battle, entries))

		got, err := repo.ListByBattle(ctx, battle.ID)
		require.NoError(t, err)
		assert.Equal(t, entries, got)

		header, err := repo.Battle(ctx, battle.ID)
		require.NoError(t, err)
		assert.Equal(t, "duel", header.Scenario)
		assert.Equal(t, uint64(7), header.Seed)
		assert.Equal(t, 3*time.Second, header.Duration)
	})

	t.Run("DamageByTarget", func(t *testing.T) {
		totals, err := repo.DamageByTarget(ctx, battle.ID)
		require.NoError(t, err)
		assert.Equal(t, map[uint32]float64{2: 27.5, 1: 3}, totals)
	})

	t.Run("EmptyBattle", func(t *testing.T) {
		empty := db.BattleRow{ID: uuid.New(), Scenario: "idle"}
		require.NoError(t, repo.InsertBatch(ctx, empty, nil))

		got, err := repo.ListByBattle(ctx, empty.ID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("DuplicateBattleRollsBack", func(t *testing.T) {
		err := repo.InsertBatch(ctx, battle, entries[:1])
		require.Error(t, err)

		got, err := repo.ListByBattle(ctx, battle.ID)
		require.NoError(t, err)
		assert.Len(t, got, len(entries))
	})

	t.Run("UnknownBattle", func(t *testing.T) {
		_, err := repo.Battle(context.Background(), uuid.New())
		require.ErrorIs(t, err, db.ErrBattleNotFound)
	})
}
