/*
Package sqlite is the storage gateway: the sole owner of persistent state
for both entity families.

PURPOSE:
  Implements staff.Gateway and fleet.Gateway over SQLite files in a
  per-user data directory, one file per entity family. Each store lazily
  creates its schema on first use and runs an idempotent per-table seed
  pass, so callers never bootstrap explicitly.

SCHEMA:
  staff.db: Departments, Employees, FamilyMembers
  fleet.db: Drones
  Tables are created if absent and never altered. FamilyMembers declares a
  foreign key to Employees but cascade behavior is owned by this package,
  not the database: multi-table deletes run in one transaction.

TIMESTAMPS:
  UpdatedAt is assigned here on every insert/update (never caller
  supplied) and stored as a round-trip UTC RFC 3339 string with
  nanoseconds. Readers parse with the same layout; no locale-dependent
  formats.

CONCURRENCY:
  One logical caller. The initialization flag is checked-then-set without
  synchronization; racing initializers from a concurrent host is
  undefined. Individual statements are atomic, multi-statement deletes
  transactional; there is no isolation across separate calls.

ERRORS:
  Every failure is wrapped exactly once as a record.StorageError carrying
  the user-facing summary of the failing operation plus the cause.

USAGE:
  store := sqlite.NewStaffStore(filepath.Join(dir, "staff.db"))
  defer store.Close()
  departments, err := store.Departments(ctx)

SEE ALSO:
  - staff.go, fleet.go: per-family schemas, seeds, and cascade deletes
  - record/errors.go: the failure taxonomy
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/staffdesk/record"
)

// timeLayout is the round-trip format for UpdatedAt columns. Values are
// always UTC.
const timeLayout = time.RFC3339Nano

// DefaultDir returns the per-user application-data directory holding the
// store files.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "staffdesk"), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// conn is one database file plus the lazy-initialization state shared by
// both stores.
type conn struct {
	path  string
	db    *sql.DB
	ready bool
}

// open creates the containing directory, opens the database, and applies
// schema. It does not set ready; the owning store does that before its
// seed pass so seed inserts can re-enter the store.
func (c *conn) open(ctx context.Context, schema string) error {
	// c.db is only set once schema creation succeeded, so a live handle
	// from an earlier initialization attempt is reused, not replaced.
	if c.db != nil {
		return nil
	}
	if c.path != ":memory:" {
		if dir := filepath.Dir(c.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
	}

	db, err := sql.Open("sqlite3", c.path+"?_foreign_keys=on")
	if err != nil {
		return err
	}
	if strings.Contains(c.path, ":memory:") {
		// The pool would hand out fresh empty databases otherwise.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return err
	}
	c.db = db
	return nil
}

// Close closes the underlying database, if it was ever opened.
func (c *conn) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *conn) count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

// scanner abstracts *sql.Row and *sql.Rows for the per-table scan funcs.
type scanner interface {
	Scan(dest ...any) error
}

// tableMessages are the user-facing summaries attached to failures of each
// operation on one table.
type tableMessages struct {
	list   string
	insert string
	update string
}

// table maps one record shape onto its SQL table and centralizes the
// list/insert/update/delete statements shared by every entity family.
type table[T record.Entity] struct {
	name    string
	columns []string // mutable columns, Id excluded
	orderBy string
	bind    func(T) []any // values for columns, in column order
	scan    func(scanner) (T, error)
	msg     tableMessages
}

func (t *table[T]) selectSQL(where string) string {
	q := fmt.Sprintf("SELECT Id, %s FROM %s", strings.Join(t.columns, ", "), t.name)
	if where != "" {
		q += " WHERE " + where
	}
	return q + " ORDER BY " + t.orderBy
}

func (t *table[T]) insertSQL() string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(t.columns, ", "), marks)
}

func (t *table[T]) updateSQL() string {
	sets := make([]string, len(t.columns))
	for i, col := range t.columns {
		sets[i] = col + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE Id = ?", t.name, strings.Join(sets, ", "))
}

func (t *table[T]) list(ctx context.Context, db *sql.DB, where string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, t.selectSQL(where), args...)
	if err != nil {
		return nil, record.WrapStorage(t.msg.list, err)
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return nil, record.WrapStorage(t.msg.list, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, record.WrapStorage(t.msg.list, err)
	}
	return items, nil
}

// insert stamps rec, writes a new row, and sets the generated id on rec.
func (t *table[T]) insert(ctx context.Context, db *sql.DB, rec T) error {
	rec.Stamp(time.Now().UTC())
	res, err := db.ExecContext(ctx, t.insertSQL(), t.bind(rec)...)
	if err != nil {
		return record.WrapStorage(t.msg.insert, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return record.WrapStorage(t.msg.insert, err)
	}
	rec.SetRecordID(id)
	return nil
}

// update stamps rec and overwrites all mutable columns of its row. Zero
// rows affected means the id no longer exists; not an error.
func (t *table[T]) update(ctx context.Context, db *sql.DB, rec T) error {
	rec.Stamp(time.Now().UTC())
	args := append(t.bind(rec), rec.RecordID())
	if _, err := db.ExecContext(ctx, t.updateSQL(), args...); err != nil {
		return record.WrapStorage(t.msg.update, err)
	}
	return nil
}
