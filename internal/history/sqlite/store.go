// Package sqlite stores translation history in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"speech-translation-service/internal/history"
	"speech-translation-service/internal/models"
)

const table = "translations"

const schema = `
CREATE TABLE IF NOT EXISTS translations (
	record_id     TEXT    NOT NULL,
	scope         TEXT    NOT NULL,
	user_id       TEXT    NOT NULL,
	room_id       TEXT    NOT NULL DEFAULT '',
	source_text   TEXT    NOT NULL,
	source_lang   TEXT    NOT NULL,
	target_text   TEXT    NOT NULL,
	target_lang   TEXT    NOT NULL,
	created_by    TEXT    NOT NULL DEFAULT '',
	translator    TEXT    NOT NULL DEFAULT '',
	processing_ms INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	PRIMARY KEY (record_id, scope)
);
CREATE INDEX IF NOT EXISTS idx_translations_user ON translations(scope, user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_translations_room ON translations(scope, room_id, created_at);
`

var columns = []string{
	"record_id",
	"source_text",
	"source_lang",
	"target_text",
	"target_lang",
	"created_by",
	"translator",
	"processing_ms",
	"created_at",
}

// Store implements history.Store, history.Reader and history.Pruner.
type Store struct {
	db *sql.DB
	sq sq.StatementBuilderType
}

var (
	_ history.Store  = (*Store)(nil)
	_ history.Reader = (*Store)(nil)
	_ history.Pruner = (*Store)(nil)
)

// Open opens (or creates) the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The modernc driver serializes writers; one connection also keeps an
	// in-memory database alive and shared.
	db.SetMaxOpenConns(1)

	s := &Store{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Name returns the store name.
func (s *Store) Name() string {
	return "sqlite"
}

// Append inserts rec under scope. Re-appending the same record to the same
// scope is a no-op.
func (s *Store) Append(ctx context.Context, scope models.Scope, rec models.TranslationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	q := s.sq.Insert(table).
		Columns(
			"record_id",
			"scope",
			"user_id",
			"room_id",
			"source_text",
			"source_lang",
			"target_text",
			"target_lang",
			"created_by",
			"translator",
			"processing_ms",
			"created_at",
		).
		Values(
			rec.ID,
			scope.String(),
			scope.UserID,
			scope.RoomID,
			rec.SourceText,
			rec.SourceLang,
			rec.TargetText,
			rec.TargetLang,
			rec.CreatedBy,
			rec.Metadata.Translator,
			rec.Metadata.ProcessingTimeMs,
			rec.CreatedAt.UnixMilli(),
		).
		Suffix("ON CONFLICT(record_id, scope) DO NOTHING")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert translation: %w", err)
	}
	return nil
}

// ListByUser returns the user's personal history, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]models.TranslationRecord, error) {
	return s.list(ctx, sq.Eq{"scope": "user", "user_id": userID}, limit)
}

// ListByRoom returns the room history, newest first.
func (s *Store) ListByRoom(ctx context.Context, roomID string, limit int) ([]models.TranslationRecord, error) {
	return s.list(ctx, sq.Eq{"scope": "room", "room_id": roomID}, limit)
}

func (s *Store) list(ctx context.Context, where sq.Eq, limit int) ([]models.TranslationRecord, error) {
	if limit <= 0 {
		limit = history.DefaultListLimit
	}

	sqlStr, args, err := s.sq.Select(columns...).
		From(table).
		Where(where).
		OrderBy("created_at DESC", "record_id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()

	out := make([]models.TranslationRecord, 0)
	for rows.Next() {
		var rec models.TranslationRecord
		var createdAt int64
		if err := rows.Scan(
			&rec.ID,
			&rec.SourceText,
			&rec.SourceLang,
			&rec.TargetText,
			&rec.TargetLang,
			&rec.CreatedBy,
			&rec.Metadata.Translator,
			&rec.Metadata.ProcessingTimeMs,
			&createdAt,
		); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		rec.Metadata.Timestamp = rec.CreatedAt
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteRoom removes every room-scoped record of roomID. Personal copies
// in user histories are kept.
func (s *Store) DeleteRoom(ctx context.Context, roomID string) (int64, error) {
	sqlStr, args, err := s.sq.Delete(table).
		Where(sq.Eq{"scope": "room", "room_id": roomID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("delete room translations: %w", err)
	}
	return res.RowsAffected()
}

// PruneBefore removes personal records created before cutoff. Room records
// are only removed with the room.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	sqlStr, args, err := s.sq.Delete(table).
		Where(sq.Eq{"scope": models.UserScope("").String()}).
		Where(sq.Lt{"created_at": cutoff.UnixMilli()}).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("prune translations: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
