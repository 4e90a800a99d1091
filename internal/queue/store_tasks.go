package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/sqlitedb"
)

// Enqueue inserts a pending task.
func (s *Store) Enqueue(ctx context.Context, req NewTask) (*Task, error) {
	if strings.TrimSpace(req.TargetURL) == "" {
		return nil, errors.New("enqueue: target url is required")
	}
	if strings.TrimSpace(req.QueueName) == "" {
		return nil, errors.New("enqueue: queue name is required")
	}
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	deadline := req.DispatchDeadline
	if deadline <= 0 {
		deadline = DefaultDispatchDeadline
	}

	timestamp := sqlitedb.Now()
	res, err := s.exec(
		ctx,
		`INSERT INTO tasks (
            queue_name, source_audio_uid, target_url, payload_json, status,
            attempts, dispatch_deadline_seconds, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		req.QueueName,
		sqlitedb.NullableString(req.SourceAudioUID),
		req.TargetURL,
		string(payload),
		StatusPending,
		int(deadline/time.Second),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a task by identifier. A missing task yields nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// List returns tasks filtered by status set (or all tasks when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Task, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		query := baseQuery + ` WHERE status IN (` + sqlitedb.Placeholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, statusArgs(statuses)...)
	}
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return scanTasks(rows)
}

// ListBySourceAudio returns every task recorded for a source audio.
func (s *Store) ListBySourceAudio(ctx context.Context, sourceAudioUID string) ([]*Task, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE source_audio_uid = ? ORDER BY created_at, id`,
		sourceAudioUID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by source audio: %w", err)
	}
	return scanTasks(rows)
}

// NextPending returns the oldest pending task, or nil when the queue is idle.
func (s *Store) NextPending(ctx context.Context) (*Task, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = ? ORDER BY created_at, id LIMIT 1`,
		StatusPending,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return task, nil
}

// Update persists changes to an existing task.
func (s *Store) Update(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	task.UpdatedAt = time.Now().UTC()
	_, err := s.exec(
		ctx,
		`UPDATE tasks
         SET status = ?, attempts = ?, error_message = ?, target_url = ?,
             payload_json = ?, dispatch_deadline_seconds = ?, updated_at = ?, last_heartbeat = ?
         WHERE id = ?`,
		task.Status,
		task.Attempts,
		sqlitedb.NullableString(task.ErrorMessage),
		task.TargetURL,
		task.PayloadJSON,
		task.DispatchDeadlineSeconds,
		sqlitedb.FormatTime(task.UpdatedAt),
		sqlitedb.NullableTime(task.LastHeartbeat),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}
