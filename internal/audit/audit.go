// Package audit records the change history of brag documents in a SQLite
// database under the workspace.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/brag/internal/sqlutil"
)

// Operation names a recorded change.
type Operation string

const (
	OpCreate Operation = "create" // document created from the template
	OpAdd    Operation = "add"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpRepair Operation = "repair"
)

// ValidOperation reports whether op names a recorded operation.
func ValidOperation(op string) bool {
	switch Operation(op) {
	case OpCreate, OpAdd, OpUpdate, OpDelete, OpRepair:
		return true
	}
	return false
}

// Entry is one recorded change.
type Entry struct {
	ID          int64                  `json:"id"`
	Timestamp   time.Time              `json:"ts"`
	Document    string                 `json:"document"`
	Operation   Operation              `json:"op"`
	EntryID     string                 `json:"entry_id,omitempty"`
	SectionPath string                 `json:"section_path,omitempty"`
	OldText     string                 `json:"old_text,omitempty"`
	NewText     string                 `json:"new_text,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// Filter narrows a history query. Zero values match everything.
type Filter struct {
	EntryID    string
	Operations []Operation
	Limit      int
}

// Logger writes and reads the history database. The database is opened on
// first use.
type Logger struct {
	path    string
	enabled bool

	mu sync.Mutex
	db *sql.DB
}

const schemaSQL = `
	PRAGMA journal_mode = WAL;
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS history (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		ts           TEXT NOT NULL,
		document     TEXT NOT NULL,
		op           TEXT NOT NULL,
		entry_id     TEXT NOT NULL DEFAULT '',
		section_path TEXT NOT NULL DEFAULT '',
		old_text     TEXT NOT NULL DEFAULT '',
		new_text     TEXT NOT NULL DEFAULT '',
		extra        TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_history_document ON history(document, id);
	CREATE INDEX IF NOT EXISTS idx_history_entry ON history(entry_id);
`

// DatabasePath returns where the history of a workspace is stored.
func DatabasePath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, ".brag", "history.db")
}

// New creates a history logger for the given workspace.
// If enabled is false, the logger is a no-op.
func New(workspaceRoot string, enabled bool) *Logger {
	if !enabled {
		return &Logger{enabled: false}
	}
	return &Logger{path: DatabasePath(workspaceRoot), enabled: true}
}

// Enabled reports whether changes are recorded.
func (l *Logger) Enabled() bool { return l != nil && l.enabled }

func (l *Logger) open() (*sql.DB, error) {
	if l.db != nil {
		return l.db, nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	l.db = db
	return db, nil
}

// Log appends an entry.
func (l *Logger) Log(entry Entry) error {
	if !l.Enabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	extra := ""
	if len(entry.Extra) > 0 {
		data, err := json.Marshal(entry.Extra)
		if err != nil {
			return fmt.Errorf("failed to marshal history extra: %w", err)
		}
		extra = string(data)
	}

	db, err := l.open()
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO history (ts, document, op, entry_id, section_path, old_text, new_text, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.Document, string(entry.Operation),
		entry.EntryID, entry.SectionPath, entry.OldText, entry.NewText, extra)
	if err != nil {
		return fmt.Errorf("failed to write history entry: %w", err)
	}
	return nil
}

// LogCreate records that a document was created.
func (l *Logger) LogCreate(document string) error {
	return l.Log(Entry{Document: document, Operation: OpCreate})
}

// LogAdd records a new entry.
func (l *Logger) LogAdd(document, entryID, sectionPath, text string) error {
	return l.Log(Entry{
		Document:    document,
		Operation:   OpAdd,
		EntryID:     entryID,
		SectionPath: sectionPath,
		NewText:     text,
	})
}

// LogUpdate records a text change.
func (l *Logger) LogUpdate(document, entryID, sectionPath, oldText, newText string, adopted bool) error {
	var extra map[string]interface{}
	if adopted {
		extra = map[string]interface{}{"adopted": true}
	}
	return l.Log(Entry{
		Document:    document,
		Operation:   OpUpdate,
		EntryID:     entryID,
		SectionPath: sectionPath,
		OldText:     oldText,
		NewText:     newText,
		Extra:       extra,
	})
}

// LogDelete records a removed entry.
func (l *Logger) LogDelete(document, entryID, sectionPath, text string) error {
	return l.Log(Entry{
		Document:    document,
		Operation:   OpDelete,
		EntryID:     entryID,
		SectionPath: sectionPath,
		OldText:     text,
	})
}

// LogRepair records an index repair with adopted and pruned ids.
func (l *Logger) LogRepair(document string, adopted, pruned []string) error {
	extra := make(map[string]interface{})
	if len(adopted) > 0 {
		extra["adopted"] = adopted
	}
	if len(pruned) > 0 {
		extra["pruned"] = pruned
	}
	return l.Log(Entry{Document: document, Operation: OpRepair, Extra: extra})
}

// Recent returns the history of a document, newest first.
func (l *Logger) Recent(document string, f Filter) ([]Entry, error) {
	if !l.Enabled() {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	db, err := l.open()
	if err != nil {
		return nil, err
	}

	query := `SELECT id, ts, document, op, entry_id, section_path, old_text, new_text, extra
		FROM history WHERE document = ?`
	args := []any{document}
	if f.EntryID != "" {
		query += " AND entry_id = ?"
		args = append(args, f.EntryID)
	}
	if len(f.Operations) > 0 {
		ops := make([]string, len(f.Operations))
		for i, op := range f.Operations {
			ops[i] = string(op)
		}
		ph, opArgs := sqlutil.InClauseArgs(ops)
		query += " AND op IN (" + ph + ")"
		args = append(args, opArgs...)
	}
	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return sqlutil.ScanRows(rows, scanEntry)
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var ts, op, extra string
	if err := rows.Scan(&e.ID, &ts, &e.Document, &op, &e.EntryID, &e.SectionPath, &e.OldText, &e.NewText, &extra); err != nil {
		return Entry{}, fmt.Errorf("failed to read history row: %w", err)
	}
	e.Operation = Operation(op)
	var err error
	if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return Entry{}, fmt.Errorf("bad history timestamp %q: %w", ts, err)
	}
	if extra != "" {
		if err := json.Unmarshal([]byte(extra), &e.Extra); err != nil {
			return Entry{}, fmt.Errorf("bad history extra: %w", err)
		}
	}
	return e, nil
}

// Close releases the database handle.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}
