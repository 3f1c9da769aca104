package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leapstack-labs/treegrid/pkg/core"
)

// SQLStore implements core.Store over database/sql. The SQLite and
// PostgreSQL stores differ only in driver, DSN and placeholder style.
type SQLStore struct {
	db      *sql.DB
	dialect string
	logger  *slog.Logger
}

// newSQLStore wraps an open database. dialect selects placeholder style.
func newSQLStore(db *sql.DB, dialect string, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLStore{db: db, dialect: dialect, logger: logger}
}

// DB returns the underlying connection.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LoadRecords returns every record ordered by insertion position.
func (s *SQLStore) LoadRecords(ctx context.Context) ([]core.Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, is_container, fields FROM records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var rec core.Record
		var parentID sql.NullString
		var fields string
		if err := rows.Scan(&rec.ID, &parentID, &rec.IsContainer, &fields); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.ParentID = core.RecordID(parentID.String)
		if fields != "" && fields != "{}" {
			decoded, err := decodeFields(fields)
			if err != nil {
				return nil, fmt.Errorf("failed to decode fields of record %q: %w", rec.ID, err)
			}
			rec.Fields = decoded
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// decodeFields parses a stored fields object. Integral numbers come back as
// int and the rest as float64, matching what the YAML loader produces.
func decodeFields(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		fields[k] = normalizeNumbers(v)
	}
	return fields, nil
}

func normalizeNumbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(v.String(), 10, strconv.IntSize); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		for k, inner := range v {
			v[k] = normalizeNumbers(inner)
		}
		return v
	case []any:
		for i, inner := range v {
			v[i] = normalizeNumbers(inner)
		}
		return v
	default:
		return v
	}
}

// ReplaceRecords deletes all records and moves and inserts records in order.
func (s *SQLStore) ReplaceRecords(ctx context.Context, records []core.Record) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM moves`); err != nil {
		return fmt.Errorf("failed to clear moves: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO records (id, parent_id, is_container, position, fields) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		fields, err := encodeFields(rec.Fields)
		if err != nil {
			return fmt.Errorf("failed to encode fields of record %q: %w", rec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, string(rec.ID), nullID(rec.ParentID), rec.IsContainer, i, fields); err != nil {
			return fmt.Errorf("failed to insert record %q: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("records replaced", "store", s.dialect, "count", len(records))
	return nil
}

// CommitMove updates the parent and journals the move in one transaction.
func (s *SQLStore) CommitMove(ctx context.Context, ev core.MoveEvent) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.rebind(`UPDATE records SET parent_id = ? WHERE id = ?`),
		nullID(ev.NewParentID), string(ev.RecordID))
	if err != nil {
		return fmt.Errorf("failed to update record %q: %w", ev.RecordID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update record %q: %w", ev.RecordID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", core.ErrNotFound, ev.RecordID)
	}

	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO moves (id, record_id, old_parent_id, new_parent_id, moved_at) VALUES (?, ?, ?, ?, ?)`),
		ev.ID, string(ev.RecordID), nullID(ev.OldParentID), nullID(ev.NewParentID), ev.MovedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to journal move of %q: %w", ev.RecordID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListMoves returns up to limit moves, newest first. limit <= 0 returns all.
func (s *SQLStore) ListMoves(ctx context.Context, limit int) ([]core.MoveEvent, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT id, record_id, old_parent_id, new_parent_id, moved_at FROM moves ORDER BY moved_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}
	defer rows.Close()

	var moves []core.MoveEvent
	for rows.Next() {
		var ev core.MoveEvent
		var oldParent, newParent sql.NullString
		if err := rows.Scan(&ev.ID, &ev.RecordID, &oldParent, &newParent, &ev.MovedAt); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		ev.OldParentID = core.RecordID(oldParent.String)
		ev.NewParentID = core.RecordID(newParent.String)
		ev.MovedAt = ev.MovedAt.UTC()
		moves = append(moves, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate moves: %w", err)
	}
	return moves, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// nullID stores roots as NULL.
func nullID(id core.RecordID) sql.NullString {
	return sql.NullString{String: string(id), Valid: id != core.NoParent}
}

func encodeFields(fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
