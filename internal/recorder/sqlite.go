package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists request history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{
		db:  db,
		log: log.With().Str("component", "recorder").Logger(),
		now: time.Now,
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fetch_log (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			session_id  TEXT,
			symbol      TEXT NOT NULL,
			kind        TEXT NOT NULL,
			params      TEXT,
			duration_ms INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_log(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_symbol ON fetch_log(symbol)`,

		`CREATE TABLE IF NOT EXISTS analysis_log (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp         INTEGER NOT NULL,
			symbol            TEXT NOT NULL,
			range_start       TEXT,
			range_end         TEXT,
			short_window      INTEGER,
			long_window       INTEGER,
			oscillator_window INTEGER,
			row_count         INTEGER,
			duration_us       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_ts ON analysis_log(timestamp)`,

		`CREATE TABLE IF NOT EXISTS session_log (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			old_session TEXT,
			new_session TEXT,
			source      TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordFetch(evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetch_log
		(timestamp, session_id, symbol, kind, params, duration_ms, error)
		VALUES (?,?,?,?,?,?,?)`,
		r.now().Unix(), evt.SessionID, evt.Symbol, evt.Kind, evt.Params,
		evt.Duration.Milliseconds(), evt.Err,
	)
	return err
}

func (r *SQLiteRecorder) RecordAnalysis(evt *AnalysisEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO analysis_log
		(timestamp, symbol, range_start, range_end, short_window, long_window, oscillator_window, row_count, duration_us)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), evt.Symbol, evt.RangeStart, evt.RangeEnd,
		evt.ShortWindow, evt.LongWindow, evt.OscillatorWindow,
		evt.Rows, evt.Duration.Microseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordSession(evt *SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO session_log
		(timestamp, old_session, new_session, source)
		VALUES (?,?,?,?)`,
		r.now().Unix(), evt.OldSession, evt.NewSession, evt.Trigger,
	)
	return err
}

// RecentAnalyses returns up to limit analysis events, newest first.
func (r *SQLiteRecorder) RecentAnalyses(limit int) ([]AnalysisEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT timestamp, symbol, range_start, range_end,
		short_window, long_window, oscillator_window, row_count, duration_us
		FROM analysis_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisEvent
	for rows.Next() {
		var (
			evt    AnalysisEvent
			ts, us int64
		)
		if err := rows.Scan(&ts, &evt.Symbol, &evt.RangeStart, &evt.RangeEnd,
			&evt.ShortWindow, &evt.LongWindow, &evt.OscillatorWindow, &evt.Rows, &us); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		evt.RecordedAt = time.Unix(ts, 0).UTC()
		evt.Duration = time.Duration(us) * time.Microsecond
		out = append(out, evt)
	}
	return out, rows.Err()
}

// Count returns the number of rows in table. Used for inspection and tests.
func (r *SQLiteRecorder) Count(table string) (int, error) {
	switch table {
	case "fetch_log", "analysis_log", "session_log":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
