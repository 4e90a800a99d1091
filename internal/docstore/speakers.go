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

// CreateSpeaker inserts a speaker with a generated id.
func (s *Store) CreateSpeaker(ctx context.Context, name string) (*Speaker, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("create speaker: name is required")
	}
	speaker := &Speaker{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	if _, err := sqlitedb.Exec(
		ctx,
		s.db,
		`INSERT INTO speakers (id, name, created_at) VALUES (?, ?, ?)`,
		speaker.ID,
		speaker.Name,
		sqlitedb.FormatTime(speaker.CreatedAt),
	); err != nil {
		return nil, fmt.Errorf("insert speaker: %w", err)
	}
	return speaker, nil
}

// GetSpeaker fetches a speaker by id. A missing speaker yields nil, nil.
func (s *Store) GetSpeaker(ctx context.Context, id string) (*Speaker, error) {
	var (
		speaker    Speaker
		createdRaw string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM speakers WHERE id = ?`, id).
		Scan(&speaker.ID, &speaker.Name, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	if created, err := sqlitedb.ParseTime(createdRaw); err == nil {
		speaker.CreatedAt = created
	}
	return &speaker, nil
}

// ListSpeakers returns all speakers ordered by name.
func (s *Store) ListSpeakers(ctx context.Context) ([]*Speaker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM speakers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list speakers: %w", err)
	}
	defer rows.Close()

	var speakers []*Speaker
	for rows.Next() {
		var (
			speaker    Speaker
			createdRaw string
		)
		if err := rows.Scan(&speaker.ID, &speaker.Name, &createdRaw); err != nil {
			return nil, err
		}
		if created, err := sqlitedb.ParseTime(createdRaw); err == nil {
			speaker.CreatedAt = created
		}
		speakers = append(speakers, &speaker)
	}
	return speakers, rows.Err()
}
