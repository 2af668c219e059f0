package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteLedger keeps the ledger in an append-only SQLite table.
type SQLiteLedger struct {
	db *sql.DB

	appendStmt *sql.Stmt
}

// NewSQLiteLedger opens (or creates) the SQLite database at dbPath, applies
// schema migrations, and prepares the insert statement.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	stmt, err := db.Prepare(`INSERT INTO transactions(date,book_id,member_id,kind) VALUES(?,?,?,?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return &SQLiteLedger{db: db, appendStmt: stmt}, nil
}

// Close releases the prepared statement and closes the DB.
func (l *SQLiteLedger) Close() error {
	if l.appendStmt != nil {
		l.appendStmt.Close()
	}
	return l.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            date TEXT NOT NULL,
            book_id INTEGER NOT NULL,
            member_id INTEGER NOT NULL,
            kind TEXT NOT NULL CHECK (kind IN ('Borrow','Return'))
        );`,
		// The ledger is append-only; reject edits at the storage level too.
		`CREATE TRIGGER IF NOT EXISTS trg_transactions_no_update BEFORE UPDATE ON transactions BEGIN
            SELECT RAISE(ABORT, 'ledger is append-only');
        END;`,
		`CREATE TRIGGER IF NOT EXISTS trg_transactions_no_delete BEFORE DELETE ON transactions BEGIN
            SELECT RAISE(ABORT, 'ledger is append-only');
        END;`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// Append records one transaction.
func (l *SQLiteLedger) Append(t Transaction) error {
	if _, err := l.appendStmt.Exec(t.Date, t.BookID, t.MemberID, string(t.Kind)); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// LoadAll returns every transaction in the order it was appended.
func (l *SQLiteLedger) LoadAll() ([]Transaction, error) {
	rows, err := l.db.Query(`SELECT date,book_id,member_id,kind FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		var kind string
		if err := rows.Scan(&t.Date, &t.BookID, &t.MemberID, &kind); err != nil {
			return nil, err
		}
		t.Kind = TransactionKind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}
