package eventlog

import (
	"database/sql"
	"fmt"
	"os"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "github.com/glebarez/go-sqlite"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"

	"github.com/terminal-sim/terminal-sim/sim/trace"
)

const defaultBatchSize = 10000

// SQLiteWriter stores records in the "events" table of an SQLite database.
// Records are buffered and inserted one transaction per batch.
type SQLiteWriter struct {
	db        *sql.DB
	insert    *sql.Stmt
	path      string
	pending   []trace.EventRecord
	batchSize int
	err       error
	closed    bool
}

// NewSQLiteWriter creates a new database at path, or
// terminal_trace_<id>.sqlite3 when path is empty. It refuses to overwrite an
// existing file.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if path == "" {
		path = "terminal_trace_" + xid.New().String() + ".sqlite3"
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file %s already exists", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	w := &SQLiteWriter{db: db, path: path, batchSize: defaultBatchSize}
	if err := w.createTable(); err != nil {
		_ = db.Close()
		return nil, err
	}
	w.insert, err = db.Prepare(`INSERT INTO events VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("preparing insert: %w", err)
	}

	logrus.Infof("Trace is collected in database: %s", path)
	atexit.Register(func() { _ = w.Close() })
	return w, nil
}

// Path returns the database file name.
func (w *SQLiteWriter) Path() string { return w.path }

// SetBatchSize sets how many records are buffered before an insert
// transaction is issued. Values below 1 are treated as 1.
func (w *SQLiteWriter) SetBatchSize(n int) {
	w.batchSize = max(n, 1)
}

func (w *SQLiteWriter) createTable() error {
	stmts := []string{
		`CREATE TABLE events
		(
			run_id    VARCHAR(40) NOT NULL,
			seq       INTEGER     NOT NULL,
			time      FLOAT       NOT NULL,
			kind      VARCHAR(20) NOT NULL,
			vessel    INTEGER     NOT NULL,
			container INTEGER     NOT NULL DEFAULT 0,
			message   TEXT
		)`,
		`CREATE INDEX events_time_index ON events (time)`,
		`CREATE INDEX events_vessel_index ON events (vessel)`,
		`CREATE INDEX events_kind_index ON events (kind)`,
	}
	for _, s := range stmts {
		if _, err := w.db.Exec(s); err != nil {
			return fmt.Errorf("creating events table: %w", err)
		}
	}
	return nil
}

// Record implements trace.Sink.
func (w *SQLiteWriter) Record(rec trace.EventRecord) {
	if w.err != nil || w.closed {
		return
	}
	w.pending = append(w.pending, rec)
	if len(w.pending) >= w.batchSize {
		_ = w.Flush()
	}
}

// Flush writes all buffered records in a single transaction.
func (w *SQLiteWriter) Flush() error {
	if w.err != nil || w.closed || len(w.pending) == 0 {
		return w.err
	}

	tx, err := w.db.Begin()
	if err != nil {
		w.err = fmt.Errorf("beginning transaction: %w", err)
		return w.err
	}
	stmt := tx.Stmt(w.insert)
	for _, rec := range w.pending {
		_, err := stmt.Exec(rec.RunID, rec.Seq, rec.Time, string(rec.Kind), rec.Vessel, rec.Container, rec.Message)
		if err != nil {
			_ = tx.Rollback()
			w.err = fmt.Errorf("inserting record %d: %w", rec.Seq, err)
			return w.err
		}
	}
	if err := tx.Commit(); err != nil {
		w.err = fmt.Errorf("committing transaction: %w", err)
		return w.err
	}
	w.pending = w.pending[:0]
	return nil
}

// Close implements Writer. It is safe to call more than once.
func (w *SQLiteWriter) Close() error {
	if w.closed {
		return w.err
	}
	_ = w.Flush()
	w.closed = true
	_ = w.insert.Close()
	if err := w.db.Close(); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}
