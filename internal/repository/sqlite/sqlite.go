package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bnshell/internal/domain"
	"bnshell/internal/repository"

	_ "modernc.org/sqlite"
)

// ErrSessionNotFound is returned when no session matches an id or prefix.
var ErrSessionNotFound = errors.New("session not found")

// Journal implements repository.Journal using SQLite
type Journal struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

var _ repository.Journal = (*Journal)(nil)

// New opens (creating if needed) the journal database at dbPath. ":memory:" gives a
// private in-memory journal.
func New(dbPath string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and the shell is
	// the only writer.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	j := &Journal{db: db, log: logger, now: time.Now}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return j, nil
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		context TEXT NOT NULL,
		started_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		network TEXT NOT NULL,
		variable TEXT,
		source TEXT,
		value JSON,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_entries_session ON entries(session_id, seq);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	`

	if _, err := j.db.Exec(schema); err != nil {
		return err
	}

	// Columns added after the first release.
	return addColumnIfNotExists(j.db, "sessions", "hostname", "TEXT")
}

// BeginSession registers a new session
func (j *Journal) BeginSession(ctx context.Context, id, contextName string) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	hostname, _ := os.Hostname()
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, context, started_at, hostname) VALUES (?, ?, ?, ?)
	`, id, contextName, timeToInt(j.now()), stringToNull(hostname))
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	j.log.Debug("session started", "session", id, "context", contextName)
	return nil
}

// Record appends an entry to its session
func (j *Journal) Record(ctx context.Context, entry *domain.JournalEntry) error {
	if entry.SessionID == "" {
		return fmt.Errorf("journal entry has no session")
	}
	value, err := marshalToNull(entry.Value)
	if err != nil {
		return fmt.Errorf("failed to marshal entry value: %w", err)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = j.now().UTC()
	}

	res, err := j.db.ExecContext(ctx, `
		INSERT INTO entries (session_id, kind, network, variable, source, value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.SessionID, string(entry.Kind), entry.Network,
		stringToNull(entry.Variable), stringToNull(entry.Source), value, timeToInt(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read entry seq: %w", err)
	}
	entry.Seq = seq
	return nil
}

// ListSessions returns the most recent sessions first. limit <= 0 means no limit.
func (j *Journal) ListSessions(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	query := `
		SELECT s.id, s.context, s.started_at, COUNT(e.seq)
		FROM sessions s
		LEFT JOIN entries e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.SessionSummary
	for rows.Next() {
		var (
			s         domain.SessionSummary
			startedAt int64
		)
		if err := rows.Scan(&s.ID, &s.Context, &startedAt, &s.Entries); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.StartedAt = intToTime(startedAt)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

// Entries returns a session's entries in recording order
func (j *Journal) Entries(ctx context.Context, sessionID string) ([]domain.JournalEntry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE session_id = ?
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var row entryRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		value, err := unmarshalJSONValue(row.ValueJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal value of entry %d: %w", row.Seq, err)
		}
		entries = append(entries, domain.JournalEntry{
			Seq:       row.Seq,
			SessionID: row.SessionID,
			Kind:      domain.EntryKind(row.Kind),
			Network:   row.Network,
			Variable:  nullToString(row.Variable),
			Source:    nullToString(row.Source),
			Value:     value,
			CreatedAt: intToTime(row.CreatedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

// ResolveSession expands a unique id prefix to the full session id
func (j *Journal) ResolveSession(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrSessionNotFound)
	}
	pattern := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix) + "%"

	rows, err := j.db.QueryContext(ctx, `
		SELECT id FROM sessions WHERE id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2
	`, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, prefix)
	case 1:
		return ids[0], nil
	}
	return "", fmt.Errorf("session prefix %q is ambiguous", prefix)
}

// DeleteSession removes a session and its entries
func (j *Journal) DeleteSession(ctx context.Context, id string) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return tx.Commit()
}

// Close releases the database
func (j *Journal) Close() error {
	return j.db.Close()
}
