package docstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/sqlitedb"
)

// CountSnippets counts the snippets stored for a source audio, stopping at
// limit when limit is positive.
func (s *Store) CountSnippets(ctx context.Context, sourceAudioUID string, limit int) (int, error) {
	query := `SELECT COUNT(1) FROM snippets WHERE source_audio_uid = ?`
	args := []any{sourceAudioUID}
	if limit > 0 {
		query = `SELECT COUNT(1) FROM (SELECT 1 FROM snippets WHERE source_audio_uid = ? LIMIT ?)`
		args = append(args, limit)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count snippets: %w", err)
	}
	return count, nil
}

// ReplaceSnippets overwrites the snippet list of a source audio. Snippets
// without an id get a generated one; the stored order follows the slice.
func (s *Store) ReplaceSnippets(ctx context.Context, sourceAudioUID string, snippets []Snippet) ([]Snippet, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin replace snippets: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM source_audios WHERE id = ?`, sourceAudioUID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check source audio: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("source audio %q: %w", sourceAudioUID, ErrNotFound)
	}

	if _, err := sqlitedb.Exec(ctx, tx, `DELETE FROM snippets WHERE source_audio_uid = ?`, sourceAudioUID); err != nil {
		return nil, fmt.Errorf("delete snippets: %w", err)
	}

	now := sqlitedb.Now()
	stored := make([]Snippet, len(snippets))
	for i, snippet := range snippets {
		if snippet.ID == "" {
			snippet.ID = uuid.NewString()
		}
		if _, err := sqlitedb.Exec(
			ctx,
			tx,
			`INSERT INTO snippets (id, source_audio_uid, position, start_time, end_time, text, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snippet.ID,
			sourceAudioUID,
			i,
			snippet.StartTime,
			snippet.EndTime,
			snippet.Text,
			now,
		); err != nil {
			return nil, fmt.Errorf("insert snippet %d: %w", i, err)
		}
		stored[i] = snippet
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snippets: %w", err)
	}
	return stored, nil
}

// ListSnippets returns the snippets of a source audio in stored order.
func (s *Store) ListSnippets(ctx context.Context, sourceAudioUID string) ([]Snippet, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, start_time, end_time, text FROM snippets WHERE source_audio_uid = ? ORDER BY position`,
		sourceAudioUID,
	)
	if err != nil {
		return nil, fmt.Errorf("list snippets: %w", err)
	}
	defer rows.Close()

	var snippets []Snippet
	for rows.Next() {
		var snippet Snippet
		if err := rows.Scan(&snippet.ID, &snippet.StartTime, &snippet.EndTime, &snippet.Text); err != nil {
			return nil, err
		}
		snippets = append(snippets, snippet)
	}
	return snippets, rows.Err()
}
