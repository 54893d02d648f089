package savedata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"ksc/pkg/interpreter"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

var ErrSlotNotFound = errors.New("save slot not found")

// Slot is one saved position of a script
type Slot struct {
	Name     string
	Script   string // script file name the snapshot belongs to
	Snapshot interpreter.Snapshot
	SavedAt  time.Time
}

// Store keeps save slots in a SQLite database file
type Store struct {
	db  *sql.DB
	log *log.Logger
	now func() time.Time
}

const schema = `CREATE TABLE IF NOT EXISTS slots (
	name     TEXT PRIMARY KEY,
	script   TEXT NOT NULL,
	snapshot TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);`

// Open creates or opens the database at path
func Open(ctx context.Context, path string) (*Store, error) {
	l := log.Default().WithPrefix("savedata")

	if strings.TrimSpace(path) == "" {
		return nil, errors.New("save database path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create save dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	l.Debug("save database ready", "path", path)
	return &Store{db: db, log: l, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes slot, replacing any slot with the same name. SavedAt is set to now.
func (s *Store) Save(ctx context.Context, slot Slot) error {
	if strings.TrimSpace(slot.Name) == "" {
		return errors.New("slot name is required")
	}

	data, err := json.Marshal(slot.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO slots(name, script, snapshot, saved_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET script = excluded.script, snapshot = excluded.snapshot, saved_at = excluded.saved_at`,
		slot.Name, slot.Script, string(data), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save slot %s: %w", slot.Name, err)
	}

	s.log.Debug("slot saved", "slot", slot.Name, "script", slot.Script, "line", slot.Snapshot.PC+1)
	return nil
}

// Load reads the slot called name
func (s *Store) Load(ctx context.Context, name string) (Slot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, script, snapshot, saved_at FROM slots WHERE name = ?`, name)

	slot, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Slot{}, fmt.Errorf("%w: %s", ErrSlotNotFound, name)
	}

	return slot, err
}

// List returns every slot, most recent first
func (s *Store) List(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, script, snapshot, saved_at FROM slots ORDER BY saved_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, slot)
	}

	return out, rows.Err()
}

// Delete removes the slot called name
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSlotNotFound, name)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSlot(sc scanner) (Slot, error) {
	var (
		slot    Slot
		data    string
		savedAt int64
	)

	if err := sc.Scan(&slot.Name, &slot.Script, &data, &savedAt); err != nil {
		return Slot{}, err
	}

	if err := json.Unmarshal([]byte(data), &slot.Snapshot); err != nil {
		return Slot{}, fmt.Errorf("decode slot %s: %w", slot.Name, err)
	}

	slot.SavedAt = time.UnixMilli(savedAt)
	return slot, nil
}
