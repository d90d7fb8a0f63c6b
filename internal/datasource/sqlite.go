package datasource

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/kinship/pkg/model"
)

// SQLiteReader provides read access to a kinship SQLite database.
//
// Schema: people(name TEXT NOT NULL, parent TEXT, position INTEGER).
// parent NULL/'' marks the root; position orders siblings. Names link rows
// case-insensitively, matching the tree model's identity rules. Because the
// parent column references people by name, this storage format requires
// unique names; duplicates that the in-memory model tolerates are rejected
// on both read and write.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading.
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Read performance pragmas; failures are non-fatal.
	for _, pragma := range []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	} {
		_, _ = db.Exec(pragma)
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection.
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadTree reassembles the genealogy tree from the people table.
func (r *SQLiteReader) LoadTree() (*model.Person, error) {
	rows, err := r.db.Query(`
		SELECT name, COALESCE(parent, ''), COALESCE(position, 0)
		FROM people
		ORDER BY COALESCE(parent, ''), COALESCE(position, 0), rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	type row struct {
		name   string
		parent string
	}
	var records []row
	for rows.Next() {
		var rec row
		var position int
		if err := rows.Scan(&rec.name, &rec.parent, &position); err != nil {
			return nil, fmt.Errorf("scanning person row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("people table is empty")
	}

	nodes := make(map[string]*model.Person, len(records))
	var root *model.Person
	for _, rec := range records {
		key := model.Key(rec.name)
		if _, dup := nodes[key]; dup {
			return nil, fmt.Errorf("duplicate name %q: people rows link by name, so names must be unique", rec.name)
		}
		nodes[key] = &model.Person{Name: rec.name}
	}
	for _, rec := range records {
		node := nodes[model.Key(rec.name)]
		if rec.parent == "" {
			if root == nil {
				root = node
			}
			continue
		}
		parent, ok := nodes[model.Key(rec.parent)]
		if !ok {
			// Orphan row: its named parent never got a row of its own.
			return nil, fmt.Errorf("person %q references unknown parent %q", rec.name, rec.parent)
		}
		parent.Children = append(parent.Children, node)
	}
	if root == nil {
		return nil, fmt.Errorf("people table has no root row (parent IS NULL)")
	}

	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tree in %s: %w", r.path, err)
	}
	return root, nil
}

// CountPeople returns the number of rows in the people table.
func (r *SQLiteReader) CountPeople() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM people").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// WriteTree stores a tree into a fresh kinship database at path, replacing
// any existing people table. Used by the converter and by tests.
func WriteTree(path string, root *model.Person) error {
	seen := make(map[string]bool)
	dup := ""
	model.Walk(root, func(p *model.Person, _ int) bool {
		key := model.Key(p.Name)
		if seen[key] {
			dup = p.Name
			return false
		}
		seen[key] = true
		return true
	})
	if dup != "" {
		return fmt.Errorf("cannot store duplicate name %q: people rows link by name, so names must be unique", dup)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("cannot create database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(`
		DROP TABLE IF EXISTS people;
		CREATE TABLE people (
			name TEXT NOT NULL,
			parent TEXT,
			position INTEGER NOT NULL DEFAULT 0
		);
	`); err != nil {
		return fmt.Errorf("creating people table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO people (name, parent, position) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(root.Name, nil, 0); err != nil {
		tx.Rollback()
		return fmt.Errorf("inserting root: %w", err)
	}
	for i, child := range root.Children {
		if err := insertChild(stmt, child, root.Name, i); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting people: %w", err)
		}
	}
	return tx.Commit()
}

func insertChild(stmt *sql.Stmt, p *model.Person, parent string, position int) error {
	if _, err := stmt.Exec(p.Name, parent, position); err != nil {
		return err
	}
	for i, child := range p.Children {
		if err := insertChild(stmt, child, p.Name, i); err != nil {
			return err
		}
	}
	return nil
}
