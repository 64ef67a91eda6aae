package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/flowstate/flowstate/internal/storage"
)

// UpdateTaskSchedule writes an accepted slot back to the task.
func (s *Store) UpdateTaskSchedule(ctx context.Context, taskID string, start, end time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET start_at = ?, end_at = ? WHERE id = ?",
		storage.SQLiteDialect.Time(start), storage.SQLiteDialect.Time(end), taskID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", taskID, storage.ErrNotFound)
	}
	return nil
}

// Seed upserts a dataset in one transaction.
func (s *Store) Seed(ctx context.Context, ds storage.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	if err := storage.SeedTx(ctx, tx, storage.SQLiteDialect, ds); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
