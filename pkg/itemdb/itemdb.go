// Package itemdb reads crafting items and their recipes from SQLite.
//
// The database holds two tables:
//
//	items(id INTEGER PRIMARY KEY, text TEXT, emoji TEXT)
//	recipes(result INTEGER, first INTEGER, second INTEGER)
//
// Every recipe combines two ingredients into a result. Items 1 through 4 are
// the base elements and are never expanded.
package itemdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	apperrors "github.com/matzehuels/craftree/pkg/errors"
)

// BaseItems is the number of base elements. Items with an ID up to and
// including BaseItems have no recipe.
const BaseItems = 4

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id    INTEGER PRIMARY KEY,
	text  TEXT NOT NULL,
	emoji TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS recipes (
	result INTEGER NOT NULL,
	first  INTEGER NOT NULL,
	second INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS recipes_result ON recipes(result);
`

// Item is one row of the items table.
type Item struct {
	ID    int
	Text  string
	Emoji string
}

// Label returns the text shown for the item: its emoji and its name.
func (i Item) Label() string {
	return i.Emoji + " " + i.Text
}

// Entry returns the item's list entry.
func (i Item) Entry() Entry {
	return Entry{ID: i.ID, Label: i.Label()}
}

// Entry is an item as listed by the API.
type Entry struct {
	ID    int
	Label string
}

// MarshalJSON encodes the entry as [id, label].
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.ID, e.Label})
}

// UnmarshalJSON decodes [id, label].
func (e *Entry) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("entry has %d fields, want 2", len(parts))
	}
	if err := json.Unmarshal(parts[0], &e.ID); err != nil {
		return err
	}
	return json.Unmarshal(parts[1], &e.Label)
}

// DB is a handle to an item database. It is safe for concurrent use.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens the database at path read-only.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "open item database %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "open item database %s", path)
	}
	return &DB{db: db, path: path}, nil
}

// Create opens the database at path read-write, creating the file and the
// schema if needed.
func Create(ctx context.Context, path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "create item database %s", path)
	}
	d := &DB{db: db, path: path}
	if err := d.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// OpenMemory opens an empty, writable in-memory database with the schema
// already created.
func OpenMemory(ctx context.Context) (*DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Each connection would get its own in-memory database.
	db.SetMaxOpenConns(1)
	d := &DB{db: db, path: ":memory:"}
	if err := d.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Init creates the tables if they do not exist.
func (d *DB) Init(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "create schema")
	}
	return nil
}

// Path returns the path the database was opened from.
func (d *DB) Path() string { return d.path }

// Close closes the database.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// AddItem inserts or replaces an item.
func (d *DB) AddItem(ctx context.Context, it Item) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO items (id, text, emoji) VALUES (?, ?, ?)`,
		it.ID, it.Text, it.Emoji)
	return err
}

// AddRecipe records that first and second combine into result.
func (d *DB) AddRecipe(ctx context.Context, result, first, second int) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO recipes (result, first, second) VALUES (?, ?, ?)`,
		result, first, second)
	return err
}

// TotalItems returns the number of items.
func (d *DB) TotalItems(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(id) FROM items`).Scan(&n); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeInternal, err, "count items")
	}
	return n, nil
}

// Item returns the item with the given ID.
func (d *DB) Item(ctx context.Context, id int) (Item, error) {
	var it Item
	err := d.db.QueryRowContext(ctx,
		`SELECT id, text, emoji FROM items WHERE id = ?`, id,
	).Scan(&it.ID, &it.Text, &it.Emoji)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, apperrors.Wrap(apperrors.ErrCodeNotFound, err, "item %d", id)
	}
	if err != nil {
		return Item{}, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query item %d", id)
	}
	return it, nil
}

// ItemBatch returns up to limit items with an ID greater than afterID, in
// ID order.
func (d *DB) ItemBatch(ctx context.Context, limit, afterID int) ([]Entry, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, text, emoji FROM items WHERE id > ? ORDER BY id LIMIT ?`,
		afterID, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "query items after %d", afterID)
	}
	return scanEntries(rows)
}

// SearchItems returns up to limit items whose name contains query,
// ignoring case.
func (d *DB) SearchItems(ctx context.Context, query string, limit int) ([]Entry, error) {
	if err := apperrors.ValidateItemQuery(query); err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, text, emoji FROM items
		WHERE text LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY id
		LIMIT ?`,
		query, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "search items %q", query)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Text, &it.Emoji); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "scan item")
		}
		entries = append(entries, it.Entry())
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "read items")
	}
	return entries, nil
}
