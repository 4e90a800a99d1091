package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/sqlitedb"
)

// UpdateHeartbeat updates the last heartbeat timestamp for a dispatching task.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := sqlitedb.Now()
	if _, err := s.exec(
		ctx,
		`UPDATE tasks SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStale returns dispatching tasks whose heartbeat is older than cutoff
// to pending.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(
		ctx,
		`UPDATE tasks
         SET status = ?, last_heartbeat = NULL, updated_at = ?,
             error_message = 'Reclaimed after missed heartbeat'
         WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
		StatusPending,
		sqlitedb.Now(),
		StatusDispatching,
		sqlitedb.FormatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale tasks: %w", err)
	}
	return res.RowsAffected()
}

// ResetDispatching returns every dispatching task to pending. Used at startup,
// when no dispatch can still be in flight.
func (s *Store) ResetDispatching(ctx context.Context) (int64, error) {
	res, err := s.exec(
		ctx,
		`UPDATE tasks SET status = ?, last_heartbeat = NULL, updated_at = ? WHERE status = ?`,
		StatusPending,
		sqlitedb.Now(),
		StatusDispatching,
	)
	if err != nil {
		return 0, fmt.Errorf("reset dispatching tasks: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of tasks grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates queue state for status output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusDispatching:
			health.Dispatching += count
		case StatusFailed:
			health.Failed += count
		case StatusCompleted:
			health.Completed += count
		}
	}
	return health, nil
}

// Retry moves failed tasks back to pending with a fresh attempt budget. With
// no ids every failed task is retried.
func (s *Store) Retry(ctx context.Context, ids ...int64) (int64, error) {
	now := sqlitedb.Now()
	query := `UPDATE tasks SET status = ?, attempts = 0, error_message = NULL, last_heartbeat = NULL, updated_at = ? WHERE status = ?`
	args := []any{StatusPending, now, StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + sqlitedb.Placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry tasks: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes tasks in the given statuses, or every task when none are given.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	query := `DELETE FROM tasks`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + sqlitedb.Placeholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear tasks: %w", err)
	}
	return res.RowsAffected()
}
