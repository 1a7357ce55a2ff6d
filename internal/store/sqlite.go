package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dstreuter/zeitlog/internal/db"
	"github.com/dstreuter/zeitlog/internal/domain"
)

const activeKey = "active"

// SQLiteStore is the local offline backend. Each logical operation runs in
// one transaction, so a failure mid-operation leaves either the old or the
// new record, never a mix. Mutations additionally append an audit record
// for later inspection.
type SQLiteStore struct {
	db  *sql.DB
	uow db.UnitOfWork
}

// NewSQLiteStore creates a store over an open tracking database.
func NewSQLiteStore(database *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: database, uow: db.NewSQLiteUnitOfWork(database)}
}

// AuditRecord is one line of the local audit log.
type AuditRecord struct {
	ID      string
	TS      int64
	Action  string
	EntryID string
	Detail  string
}

func (s *SQLiteStore) ListEntries(ctx context.Context) ([]*domain.TimeEntry, error) {
	query := `SELECT id, client, skills, tasks, start_ms, end_ms, pause_ms, acknowledged_break
		FROM entries ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.TimeEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) AppendEntry(ctx context.Context, e *domain.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := insertEntry(ctx, tx, e); err != nil {
			return err
		}
		return audit(ctx, tx, "entry.create", e.ID, e)
	})
}

func (s *SQLiteStore) UpdateEntry(ctx context.Context, id string, patch *domain.EntryPatch) (*domain.TimeEntry, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	var updated *domain.TimeEntry
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		e, err := getEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(e)
		skills, err := json.Marshal(e.Skills)
		if err != nil {
			return fmt.Errorf("encoding skills: %w", err)
		}
		query := `UPDATE entries SET client = ?, skills = ?, tasks = ?, start_ms = ?,
			end_ms = ?, pause_ms = ?, acknowledged_break = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query,
			e.Client, string(skills), e.Tasks, e.Start, e.End, e.PauseMs,
			boolToInt(e.AcknowledgedBreak), id,
		); err != nil {
			return fmt.Errorf("updating entry: %w", err)
		}
		if err := audit(ctx, tx, "entry.update", id, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SQLiteStore) DeleteEntry(ctx context.Context, id string) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		before, err := getEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting entry: %w", err)
		}
		return audit(ctx, tx, "entry.delete", id, before)
	})
}

func (s *SQLiteStore) GetActive(ctx context.Context) (*domain.ActiveSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, activeKey)
	return scanActive(row)
}

func (s *SQLiteStore) SetActive(ctx context.Context, a *domain.ActiveSession) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		value, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encoding active session: %w", err)
		}
		query := `INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`
		if _, err := tx.ExecContext(ctx, query, activeKey, string(value)); err != nil {
			return fmt.Errorf("writing active session: %w", err)
		}
		if a == nil {
			return audit(ctx, tx, "active.clear", "", nil)
		}
		return audit(ctx, tx, "active.set", a.ID, a)
	})
}

// AuditLog returns all audit records in chronological order.
func (s *SQLiteStore) AuditLog(ctx context.Context) ([]AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, action, entry_id, detail FROM audits ORDER BY ts, id`)
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var r AuditRecord
		if err := rows.Scan(&r.ID, &r.TS, &r.Action, &r.EntryID, &r.Detail); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	return records, nil
}

func insertEntry(ctx context.Context, tx db.DBTX, e *domain.TimeEntry) error {
	skills, err := json.Marshal(e.Skills)
	if err != nil {
		return fmt.Errorf("encoding skills: %w", err)
	}
	query := `INSERT INTO entries (id, client, skills, tasks, start_ms, end_ms, pause_ms, acknowledged_break, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM entries))`
	if _, err := tx.ExecContext(ctx, query,
		e.ID, e.Client, string(skills), e.Tasks, e.Start, e.End, e.PauseMs,
		boolToInt(e.AcknowledgedBreak),
	); err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

func getEntry(ctx context.Context, tx db.DBTX, id string) (*domain.TimeEntry, error) {
	query := `SELECT id, client, skills, tasks, start_ms, end_ms, pause_ms, acknowledged_break
		FROM entries WHERE id = ?`
	e, err := scanEntry(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	return e, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	var skills string
	var ack int
	if err := row.Scan(&e.ID, &e.Client, &skills, &e.Tasks, &e.Start, &e.End, &e.PauseMs, &ack); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning entry: %w", err)
	}
	if err := json.Unmarshal([]byte(skills), &e.Skills); err != nil {
		return nil, fmt.Errorf("decoding skills: %w", err)
	}
	e.AcknowledgedBreak = ack != 0
	return &e, nil
}

func scanActive(row *sql.Row) (*domain.ActiveSession, error) {
	var value sql.NullString
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading active session: %w", err)
	}
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var a *domain.ActiveSession
	if err := json.Unmarshal([]byte(value.String), &a); err != nil {
		return nil, fmt.Errorf("decoding active session: %w", err)
	}
	return a, nil
}

func audit(ctx context.Context, tx db.DBTX, action, entryID string, detail any) error {
	var detailJSON string
	if detail != nil {
		data, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("encoding audit detail: %w", err)
		}
		detailJSON = string(data)
	}
	query := `INSERT INTO audits (id, ts, action, entry_id, detail) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query,
		uuid.New().String(), time.Now().UnixMilli(), action, entryID, detailJSON,
	); err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ Store = (*SQLiteStore)(nil)
