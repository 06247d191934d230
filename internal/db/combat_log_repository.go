package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBattleNotFound is returned when a battle id has no stored row.
var ErrBattleNotFound = errors.New("battle not found")

// BattleRow is the header of one recorded battle.
type BattleRow struct {
	ID        uuid.UUID
	Scenario  string
	Seed      uint64
	Duration  time.Duration
	StartedAt time.Time
}

// CombatLogEntry is one persisted combat notification.
type CombatLogEntry struct {
	Seq      int32
	At       time.Duration
	Type     string
	Source   uint32
	Target   uint32
	ConfigID int32
	Amount   float64
	Critical bool
	Detail   string
}

// CombatLogRepository stores battles and their combat logs.
type CombatLogRepository struct {
	db *pgxpool.Pool
}

// NewCombatLogRepository создаёт новый CombatLogRepository.
func NewCombatLogRepository(db *pgxpool.Pool) *CombatLogRepository {
	return &CombatLogRepository{db: db}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: [16]byte(id), Valid: true}
}

// InsertBatch writes a battle header and all of its entries in one transaction.
// Entries are bulk-loaded with COPY.
func (r *CombatLogRepository) InsertBatch(ctx context.Context, battle BattleRow, entries []CombatLogEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		// Rollback after commit is expected to fail
		_ = tx.Rollback(ctx)
	}()

	startedAt := battle.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO battles (id, scenario, seed, duration_ms, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		pgUUID(battle.ID), battle.Scenario, int64(battle.Seed), battle.Duration.Milliseconds(), startedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting battle %s: %w", battle.ID, err)
	}

	if len(entries) > 0 {
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				pgUUID(battle.ID), e.Seq, e.At.Milliseconds(), e.Type,
				int64(e.Source), int64(e.Target), e.ConfigID, e.Amount, e.Critical, e.Detail,
			})
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"combat_log"},
			[]string{"battle_id", "seq", "at_ms", "type", "source", "target", "config_id", "amount", "critical", "detail"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copying combat log for battle %s: %w", battle.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing combat log for battle %s: %w", battle.ID, err)
	}

	slog.Debug("saved combat log",
		"battle", battle.ID,
		"count", len(entries))

	return nil
}

// Battle returns the stored header of a battle.
func (r *CombatLogRepository) Battle(ctx context.Context, id uuid.UUID) (BattleRow, error) {
	var (
		row        BattleRow
		seed       int64
		durationMs int64
	)
	err := r.db.QueryRow(ctx,
		`SELECT scenario, seed, duration_ms, started_at FROM battles WHERE id = $1`, pgUUID(id),
	).Scan(&row.Scenario, &seed, &durationMs, &row.StartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BattleRow{}, fmt.Errorf("battle %s: %w", id, ErrBattleNotFound)
		}
		return BattleRow{}, fmt.Errorf("querying battle %s: %w", id, err)
	}
	row.ID = id
	row.Seed = uint64(seed)
	row.Duration = time.Duration(durationMs) * time.Millisecond
	return row, nil
}

// ListByBattle returns every entry of a battle in publish order.
func (r *CombatLogRepository) ListByBattle(ctx context.Context, id uuid.UUID) ([]CombatLogEntry, error) {
	query := `
		SELECT seq, at_ms, type, source, target, config_id, amount, critical, detail
		FROM combat_log
		WHERE battle_id = $1
		ORDER BY seq
	`

	rows, err := r.db.Query(ctx, query, pgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("querying combat log for battle %s: %w", id, err)
	}
	defer rows.Close()

	entries := make([]CombatLogEntry, 0, 64)
	for rows.Next() {
		var (
			e              CombatLogEntry
			atMs           int64
			source, target int64
		)
		if err := rows.Scan(&e.Seq, &atMs, &e.Type, &source, &target, &e.ConfigID, &e.Amount, &e.Critical, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning combat log row: %w", err)
		}
		e.At = time.Duration(atMs) * time.Millisecond
		e.Source = uint32(source)
		e.Target = uint32(target)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating combat log rows: %w", err)
	}

	return entries, nil
}

// DamageByTarget sums the damage each target received during a battle.
func (r *CombatLogRepository) DamageByTarget(ctx context.Context, id uuid.UUID) (map[uint32]float64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT target, SUM(amount)
		 FROM combat_log
		 WHERE battle_id = $1 AND type = 'damage_received'
		 GROUP BY target`,
		pgUUID(id),
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating damage for battle %s: %w", id, err)
	}
	defer rows.Close()

	result := make(map[uint32]float64)
	for rows.Next() {
		var (
			target int64
			total  float64
		)
		if err := rows.Scan(&target, &total); err != nil {
			return nil, fmt.Errorf("scanning damage row: %w", err)
		}
		result[uint32(target)] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating damage rows: %w", err)
	}

	return result, nil
}
