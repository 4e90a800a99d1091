package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/sqlitedb"
)

const sourceAudioColumns = "id, name, storage_ref_path, pre_process_done, speaker_id, youtube_url, subtitle, content_hash, is_annotated, created_at, updated_at"

// CreateSourceAudio inserts a source audio, assigning an id when none is set.
func (s *Store) CreateSourceAudio(ctx context.Context, audio SourceAudio) (*SourceAudio, error) {
	if strings.TrimSpace(audio.StorageRefPath) == "" {
		return nil, errors.New("create source audio: storage ref path is required")
	}
	if audio.ID == "" {
		audio.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := sqlitedb.Exec(
		ctx,
		s.db,
		`INSERT INTO source_audios (
            id, name, storage_ref_path, pre_process_done, speaker_id, youtube_url,
            subtitle, content_hash, is_annotated, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		audio.ID,
		audio.Name,
		audio.StorageRefPath,
		sqlitedb.BoolToInt(audio.PreProcessDone),
		sqlitedb.NullableString(audio.SpeakerID),
		sqlitedb.NullableString(audio.YouTubeURL),
		sqlitedb.NullableString(audio.Subtitle),
		sqlitedb.NullableString(audio.ContentHash),
		sqlitedb.BoolToInt(audio.IsAnnotated),
		sqlitedb.FormatTime(now),
		sqlitedb.FormatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert source audio: %w", err)
	}
	return s.GetSourceAudio(ctx, audio.ID)
}

// GetSourceAudio fetches a source audio by id. A missing document yields nil, nil.
func (s *Store) GetSourceAudio(ctx context.Context, id string) (*SourceAudio, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sourceAudioColumns+` FROM source_audios WHERE id = ?`, id)
	audio, err := scanSourceAudio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get source audio: %w", err)
	}
	return audio, nil
}

// FindSourceAudioByHash returns the oldest source audio with the given content hash.
func (s *Store) FindSourceAudioByHash(ctx context.Context, hash string) (*SourceAudio, error) {
	if strings.TrimSpace(hash) == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+sourceAudioColumns+` FROM source_audios WHERE content_hash = ? ORDER BY created_at LIMIT 1`,
		hash,
	)
	audio, err := scanSourceAudio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find source audio by hash: %w", err)
	}
	return audio, nil
}

// ListSourceAudios returns every source audio, newest first.
func (s *Store) ListSourceAudios(ctx context.Context) ([]*SourceAudio, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sourceAudioColumns+` FROM source_audios ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list source audios: %w", err)
	}
	defer rows.Close()

	var audios []*SourceAudio
	for rows.Next() {
		audio, err := scanSourceAudio(rows)
		if err != nil {
			return nil, err
		}
		audios = append(audios, audio)
	}
	return audios, rows.Err()
}

// MarkPreProcessed flags a source audio as having received its first snippet set.
func (s *Store) MarkPreProcessed(ctx context.Context, id string) error {
	return s.setFlag(ctx, id, "pre_process_done", true)
}

// SetAnnotated records whether an editor has finished annotating the source audio.
func (s *Store) SetAnnotated(ctx context.Context, id string, annotated bool) error {
	return s.setFlag(ctx, id, "is_annotated", annotated)
}

// SetSpeaker reassigns the speaker of a source audio.
func (s *Store) SetSpeaker(ctx context.Context, id, speakerID string) error {
	res, err := sqlitedb.Exec(
		ctx,
		s.db,
		`UPDATE source_audios SET speaker_id = ?, updated_at = ? WHERE id = ?`,
		sqlitedb.NullableString(speakerID),
		sqlitedb.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("set speaker: %w", err)
	}
	return requireAffected(res, id)
}

func (s *Store) setFlag(ctx context.Context, id, column string, value bool) error {
	res, err := sqlitedb.Exec(
		ctx,
		s.db,
		`UPDATE source_audios SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		sqlitedb.BoolToInt(value),
		sqlitedb.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("source audio %q: %w", id, ErrNotFound)
	}
	return nil
}

func scanSourceAudio(scanner interface{ Scan(dest ...any) error }) (*SourceAudio, error) {
	var (
		audio          SourceAudio
		preProcessDone int
		speakerID      sql.NullString
		youtubeURL     sql.NullString
		subtitle       sql.NullString
		contentHash    sql.NullString
		isAnnotated    int
		createdRaw     string
		updatedRaw     string
	)
	if err := scanner.Scan(
		&audio.ID,
		&audio.Name,
		&audio.StorageRefPath,
		&preProcessDone,
		&speakerID,
		&youtubeURL,
		&subtitle,
		&contentHash,
		&isAnnotated,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	audio.PreProcessDone = preProcessDone != 0
	audio.IsAnnotated = isAnnotated != 0
	audio.SpeakerID = speakerID.String
	audio.YouTubeURL = youtubeURL.String
	audio.Subtitle = subtitle.String
	audio.ContentHash = contentHash.String
	if created, err := sqlitedb.ParseTime(createdRaw); err == nil {
		audio.CreatedAt = created
	}
	if updated, err := sqlitedb.ParseTime(updatedRaw); err == nil {
		audio.UpdatedAt = updated
	}
	return &audio, nil
}
