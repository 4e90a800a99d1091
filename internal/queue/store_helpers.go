package queue

import (
	"database/sql"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/sqlitedb"
)

const taskColumns = "id, queue_name, source_audio_uid, target_url, payload_json, status, attempts, error_message, dispatch_deadline_seconds, created_at, updated_at, last_heartbeat"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id               int64
		queueName        string
		sourceAudioUID   sql.NullString
		targetURL        string
		payload          string
		statusStr        string
		attempts         int
		errorMessage     sql.NullString
		deadline         sql.NullInt64
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&queueName,
		&sourceAudioUID,
		&targetURL,
		&payload,
		&statusStr,
		&attempts,
		&errorMessage,
		&deadline,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:                      id,
		QueueName:               queueName,
		SourceAudioUID:          sourceAudioUID.String,
		TargetURL:               targetURL,
		PayloadJSON:             payload,
		Status:                  Status(statusStr),
		Attempts:                attempts,
		ErrorMessage:            errorMessage.String,
		DispatchDeadlineSeconds: int(deadline.Int64),
	}
	if created, err := sqlitedb.ParseTime(createdRaw.String); err == nil {
		task.CreatedAt = created
	}
	if updated, err := sqlitedb.ParseTime(updatedRaw.String); err == nil {
		task.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := sqlitedb.ParseTime(lastHeartbeatRaw.String); err == nil {
			task.LastHeartbeat = &heartbeat
		}
	}
	return task, nil
}

func scanTasks(rows *sql.Rows) ([]*Task, error) {
	defer rows.Close()
	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}
