package corpus

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"scorekit/internal/logging"
)

// ErrNotFound is returned when a path has no index row.
var ErrNotFound = errors.New("score not indexed")

// Index is the SQLite-backed metadata cache.
type Index struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Stamp is the change-detection fingerprint kept per indexed file.
type Stamp struct {
	Size    int64
	ModTime int64
	Hash    string
}

// OpenIndex opens (or creates) the index database at path. Use
// ":memory:" for an ephemeral index.
func OpenIndex(path string) (*Index, error) {
	timer := logging.StartTimer(logging.CategoryStore, "OpenIndex")
	defer timer.Stop()

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
		}
		if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
			logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
		}
	}

	idx := &Index{db: db, path: path}
	if err := idx.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	if err := idx.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Index opened at %s", path)
	return idx, nil
}

func (idx *Index) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scores (
		path TEXT PRIMARY KEY,
		format TEXT NOT NULL,
		size INTEGER NOT NULL,
		modtime INTEGER NOT NULL,
		hash TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'ok',
		error TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		composer TEXT NOT NULL DEFAULT '',
		parts INTEGER NOT NULL DEFAULT 0,
		measures INTEGER NOT NULL DEFAULT 0,
		notes INTEGER NOT NULL DEFAULT 0,
		key_sig TEXT NOT NULL DEFAULT '',
		time_sig TEXT NOT NULL DEFAULT '',
		ambitus_low INTEGER NOT NULL DEFAULT 0,
		ambitus_high INTEGER NOT NULL DEFAULT 0,
		duration_quarters REAL NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_scores_composer ON scores(composer);
	CREATE INDEX IF NOT EXISTS idx_scores_key ON scores(key_sig);
	CREATE INDEX IF NOT EXISTS idx_scores_status ON scores(status);
	`
	if _, err := idx.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// migration adds a column to an existing table.
type migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations upgrade databases created before these columns
// existed. CREATE TABLE IF NOT EXISTS does not add them to old files.
var pendingMigrations = []migration{
	{"scores", "notes", "INTEGER NOT NULL DEFAULT 0"},
	{"scores", "duration_quarters", "REAL NOT NULL DEFAULT 0"},
	{"scores", "error", "TEXT NOT NULL DEFAULT ''"},
}

func (idx *Index) runMigrations() error {
	applied := 0
	for _, m := range pendingMigrations {
		if idx.columnExists(m.Table, m.Column) {
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := idx.db.Exec(query); err != nil {
			logging.Get(logging.CategoryStore).Warn("Migration failed (may already exist): %s.%s: %v", m.Table, m.Column, err)
			continue
		}
		logging.Store("Migration applied: added %s.%s", m.Table, m.Column)
		applied++
	}
	if applied > 0 {
		logging.Store("Schema migrations complete: applied=%d", applied)
	}
	return nil
}

func (idx *Index) columnExists(table, column string) bool {
	rows, err := idx.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// Upsert stores extracted metadata, replacing any previous row for the
// path and clearing an earlier error state.
func (idx *Index) Upsert(md *Metadata) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, err := idx.db.Exec(`
		INSERT INTO scores (path, format, size, modtime, hash, status, error,
			title, composer, parts, measures, notes, key_sig, time_sig,
			ambitus_low, ambitus_high, duration_quarters, updated_at)
		VALUES (?, ?, ?, ?, ?, 'ok', '', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			format = excluded.format,
			size = excluded.size,
			modtime = excluded.modtime,
			hash = excluded.hash,
			status = 'ok',
			error = '',
			title = excluded.title,
			composer = excluded.composer,
			parts = excluded.parts,
			measures = excluded.measures,
			notes = excluded.notes,
			key_sig = excluded.key_sig,
			time_sig = excluded.time_sig,
			ambitus_low = excluded.ambitus_low,
			ambitus_high = excluded.ambitus_high,
			duration_quarters = excluded.duration_quarters,
			updated_at = CURRENT_TIMESTAMP`,
		md.Path, md.Format, md.Size, md.ModTime, md.Hash,
		md.Title, md.Composer, md.Parts, md.Measures, md.Notes,
		md.KeySig, md.TimeSig, md.AmbitusLow, md.AmbitusHigh, md.DurationQuarters)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", md.Path, err)
	}
	return nil
}

// MarkError records a failed extraction. An existing row keeps its last
// good musical fields; only the stamp and error state change.
func (idx *Index) MarkError(path string, size, modtime int64, extractErr error) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	msg := extractErr.Error()
	res, err := idx.db.Exec(`
		UPDATE scores SET size = ?, modtime = ?, status = 'error', error = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE path = ?`, size, modtime, msg, path)
	if err != nil {
		return fmt.Errorf("mark error %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = idx.db.Exec(`
		INSERT INTO scores (path, format, size, modtime, status, error)
		VALUES (?, ?, ?, ?, 'error', ?)`,
		path, formatOf(path), size, modtime, msg)
	if err != nil {
		return fmt.Errorf("mark error %s: %w", path, err)
	}
	return nil
}

// Get returns one indexed score by path.
func (idx *Index) Get(path string) (*Metadata, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	row := idx.db.QueryRow(`
		SELECT path, format, size, modtime, hash, title, composer, parts,
			measures, notes, key_sig, time_sig, ambitus_low, ambitus_high,
			duration_quarters
		FROM scores WHERE path = ?`, path)
	md, err := scanMetadata(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return md, err
}

// Status reports the extraction state of one path: "ok", "error", or ""
// when the path is not indexed.
func (idx *Index) Status(path string) (status, errMsg string, err error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	row := idx.db.QueryRow(`SELECT status, error FROM scores WHERE path = ?`, path)
	if err := row.Scan(&status, &errMsg); err != nil {
		if err == sql.ErrNoRows {
			return "", "", nil
		}
		return "", "", err
	}
	return status, errMsg, nil
}

// Remove deletes one path from the index.
func (idx *Index) Remove(path string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := idx.db.Exec(`DELETE FROM scores WHERE path = ?`, path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Stamps returns the change-detection fingerprints for every indexed
// path.
func (idx *Index) Stamps() (map[string]Stamp, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`SELECT path, size, modtime, hash FROM scores`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stamps := make(map[string]Stamp)
	for rows.Next() {
		var path string
		var s Stamp
		if err := rows.Scan(&path, &s.Size, &s.ModTime, &s.Hash); err != nil {
			return nil, err
		}
		stamps[path] = s
	}
	return stamps, rows.Err()
}

// Stats summarizes the index contents.
type Stats struct {
	Scores    int
	Errors    int
	Composers int
	Notes     int
	ByFormat  map[string]int
}

// Stats aggregates index-wide counts.
func (idx *Index) Stats() (*Stats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	st := &Stats{ByFormat: make(map[string]int)}
	row := idx.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT CASE WHEN composer != '' THEN composer END),
			COALESCE(SUM(notes), 0)
		FROM scores`)
	if err := row.Scan(&st.Scores, &st.Errors, &st.Composers, &st.Notes); err != nil {
		return nil, err
	}

	rows, err := idx.db.Query(`SELECT format, COUNT(*) FROM scores GROUP BY format`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var format string
		var n int
		if err := rows.Scan(&format, &n); err != nil {
			return nil, err
		}
		st.ByFormat[format] = n
	}
	return st, rows.Err()
}

// Close closes the underlying database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// rowScanner covers sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMetadata(row rowScanner) (*Metadata, error) {
	var md Metadata
	err := row.Scan(&md.Path, &md.Format, &md.Size, &md.ModTime, &md.Hash,
		&md.Title, &md.Composer, &md.Parts, &md.Measures, &md.Notes,
		&md.KeySig, &md.TimeSig, &md.AmbitusLow, &md.AmbitusHigh,
		&md.DurationQuarters)
	if err != nil {
		return nil, err
	}
	return &md, nil
}
