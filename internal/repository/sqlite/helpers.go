package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Timestamps are stored as Unix nanoseconds in UTC.
func timeToInt(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func intToTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONValue decodes a nullable JSON column into an untyped value
func unmarshalJSONValue(ns sql.NullString) (any, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(ns.String), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// marshalToNull marshals a value to a nullable JSON string. nil stays NULL.
func marshalToNull(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Schema Helpers
// ============================================================================
//
// To add a column to an existing table:
// 1. Add it to the CREATE TABLE statement in migrate()
// 2. Add an addColumnIfNotExists() call below the schema so older files gain it
// 3. Update entryColumns and entryRow.scanArgs() together, appending at the end

// addColumnIfNotExists adds a column to a table created by an older version
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scan %s column: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

// ============================================================================
// Entry Row Scanner
// ============================================================================

// entryColumns MUST match entryRow.scanArgs() order
const entryColumns = `seq, session_id, kind, network, variable, source, value, created_at`

type entryRow struct {
	Seq       int64
	SessionID string
	Kind      string
	Network   string
	Variable  sql.NullString
	Source    sql.NullString
	ValueJSON sql.NullString
	CreatedAt int64
}

func (r *entryRow) scanArgs() []any {
	return []any{
		&r.Seq,
		&r.SessionID,
		&r.Kind,
		&r.Network,
		&r.Variable,
		&r.Source,
		&r.ValueJSON,
		&r.CreatedAt,
	}
}
