package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"

	"chacara-backend/internal/logger"
	"chacara-backend/internal/storage"
)

// SlotRepository stores slots as rows of the kv_slots table.
type SlotRepository struct {
	db *sql.DB
}

// NewSlotRepository returns a slot store backed by db.
func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

var _ storage.SlotStore = (*SlotRepository)(nil)

func (r *SlotRepository) Load(ctx context.Context, slot string) ([]byte, bool, error) {
	query := `SELECT data FROM kv_slots WHERE slot = $1`
	logger.StorageCall(r.Backend(), "load", slot)

	var data []byte
	err := r.db.QueryRowContext(ctx, query, slot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		logger.StorageResult(r.Backend(), "load", 0, nil)
		return nil, false, nil
	}
	logger.StorageResult(r.Backend(), "load", len(data), err)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load slot %s: %w", slot, err)
	}
	return data, true, nil
}

// LoadMany reads several slots in one round trip. Missing slots are absent
// from the result.
func (r *SlotRepository) LoadMany(ctx context.Context, slots []string) (map[string][]byte, error) {
	query := `SELECT slot, data FROM kv_slots WHERE slot = ANY($1)`
	logger.StorageCall(r.Backend(), "load_many", slots...)

	rows, err := r.db.QueryContext(ctx, query, pq.Array(slots))
	if err != nil {
		logger.StorageResult(r.Backend(), "load_many", 0, err)
		return nil, fmt.Errorf("failed to load slots: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte, len(slots))
	total := 0
	for rows.Next() {
		var slot string
		var data []byte
		if err := rows.Scan(&slot, &data); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		out[slot] = data
		total += len(data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slots: %w", err)
	}
	logger.StorageResult(r.Backend(), "load_many", total, nil)
	return out, nil
}

func (r *SlotRepository) Save(ctx context.Context, slot string, data []byte) error {
	return r.SaveMany(ctx, map[string][]byte{slot: data})
}

// SaveMany upserts every slot inside one transaction.
func (r *SlotRepository) SaveMany(ctx context.Context, writes map[string][]byte) error {
	slots := make([]string, 0, len(writes))
	for slot := range writes {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	logger.StorageCall(r.Backend(), "save", slots...)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.StorageResult(r.Backend(), "save", 0, err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO kv_slots (slot, data, updated_on) VALUES ($1, $2, $3)
	          ON CONFLICT (slot) DO UPDATE SET data = EXCLUDED.data, updated_on = EXCLUDED.updated_on`
	now := time.Now()
	total := 0
	for _, slot := range slots {
		if _, err := tx.ExecContext(ctx, query, slot, writes[slot], now); err != nil {
			logger.StorageResult(r.Backend(), "save", total, err)
			return fmt.Errorf("failed to save slot %s: %w", slot, err)
		}
		total += len(writes[slot])
	}

	if err := tx.Commit(); err != nil {
		logger.StorageResult(r.Backend(), "save", total, err)
		return fmt.Errorf("failed to commit slots: %w", err)
	}
	logger.StorageResult(r.Backend(), "save", total, nil)
	return nil
}

func (r *SlotRepository) Delete(ctx context.Context, slot string) error {
	query := `DELETE FROM kv_slots WHERE slot = $1`
	if _, err := r.db.ExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", slot, err)
	}
	return nil
}

func (r *SlotRepository) Backend() string {
	return "postgres"
}
