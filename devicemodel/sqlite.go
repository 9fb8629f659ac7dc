package devicemodel

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage keeps variables in a single table of an sqlite file.
type SQLiteStorage struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS variables (
			component TEXT NOT NULL,
			variable  TEXT NOT NULL,
			attribute TEXT NOT NULL,
			value     TEXT NOT NULL,
			PRIMARY KEY (component, variable, attribute)
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create variables table: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) Load() (map[VariableRef]string, error) {
	rows, err := s.db.Query(`SELECT component, variable, attribute, value FROM variables`)
	if err != nil {
		return nil, fmt.Errorf("failed to query variables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := make(map[VariableRef]string)
	for rows.Next() {
		var ref VariableRef
		var value string
		if err := rows.Scan(&ref.Component, &ref.Variable, &ref.Attribute, &value); err != nil {
			return nil, fmt.Errorf("failed to scan variable: %w", err)
		}
		values[ref] = value
	}
	return values, rows.Err()
}

func (s *SQLiteStorage) Save(ref VariableRef, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO variables (component, variable, attribute, value) VALUES (?, ?, ?, ?)
		ON CONFLICT (component, variable, attribute) DO UPDATE SET value = excluded.value
	`, ref.Component, ref.Variable, ref.Attribute, value)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", ref, err)
	}
	return nil
}
