// Package state keeps the incremental build ledger: which source produced which
// outputs, keyed by content hash, so unchanged sources can be skipped.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"
)

// Ledger records task outputs per source file.
type Ledger interface {
	// Fresh reports whether source was last processed with the same hash and all outputs still exist.
	Fresh(ctx context.Context, task, source, hash string) (bool, error)
	// Record stores the outputs produced from source.
	Record(ctx context.Context, task, source, hash string, outputs []string) error
	// Forget drops every entry of task.
	Forget(ctx context.Context, task string) error
	Close() error
}

// NoopLedger never reports sources as fresh.
type NoopLedger struct{}

func (NoopLedger) Fresh(context.Context, string, string, string) (bool, error)    { return false, nil }
func (NoopLedger) Record(context.Context, string, string, string, []string) error { return nil }
func (NoopLedger) Forget(context.Context, string) error                           { return nil }
func (NoopLedger) Close() error                                                   { return nil }

// SQLiteLedger implements Ledger using SQLite.
type SQLiteLedger struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (creating if needed) the ledger at path. Use ":memory:" for tests.
func OpenSQLite(path string) (*SQLiteLedger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	l := &SQLiteLedger{db: db}
	if err := l.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return l, nil
}

func (l *SQLiteLedger) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assets (
		task TEXT NOT NULL,
		source TEXT NOT NULL,
		hash TEXT NOT NULL,
		outputs TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (task, source)
	);
	CREATE INDEX IF NOT EXISTS idx_assets_task ON assets(task);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Fresh implements Ledger.
func (l *SQLiteLedger) Fresh(ctx context.Context, task, source, hash string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var stored, outputsJSON string
	err := l.db.QueryRowContext(ctx,
		"SELECT hash, outputs FROM assets WHERE task = ? AND source = ?", task, source,
	).Scan(&stored, &outputsJSON)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query asset: %w", err)
	}
	if stored != hash {
		return false, nil
	}
	var outputs []string
	if err := json.Unmarshal([]byte(outputsJSON), &outputs); err != nil {
		return false, fmt.Errorf("decode outputs: %w", err)
	}
	for _, out := range outputs {
		if _, err := os.Stat(out); err != nil {
			return false, nil
		}
	}
	return true, nil
}

// Record implements Ledger.
func (l *SQLiteLedger) Record(ctx context.Context, task, source, hash string, outputs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	outputsJSON, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO assets (task, source, hash, outputs, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(task, source) DO UPDATE SET hash = excluded.hash, outputs = excluded.outputs, updated_at = excluded.updated_at`,
		task, source, hash, string(outputsJSON), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert asset: %w", err)
	}
	return nil
}

// Forget implements Ledger.
func (l *SQLiteLedger) Forget(ctx context.Context, task string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.db.ExecContext(ctx, "DELETE FROM assets WHERE task = ?", task); err != nil {
		return fmt.Errorf("delete assets: %w", err)
	}
	return nil
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// HashFile returns the xxhash of the file contents mixed with salt (e.g. the settings that shape the outputs).
func HashFile(path string, salt ...string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	for _, s := range salt {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}

// HashBytes returns the xxhash of data as a hex string.
func HashBytes(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
