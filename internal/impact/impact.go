// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package impact looks up journal impact factors in a read-only reference
// database distributed alongside the tool.
package impact

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Func resolves a journal abbreviation to an impact factor and the full
// journal name. Harvesters call it once per article; implementations
// return (-1, "Unknown") when the journal cannot be resolved.
type Func func(journal string) (float64, string)

// Unknown is the lookup used when no factor database is configured.
func Unknown(string) (float64, string) {
	return -1, "Unknown"
}

// Store reads the journal factor table. The database is reference data
// shipped with a release; it is never written by the pipeline.
type Store struct {
	db *sql.DB
}

// Open opens the factor database at dbPath in read-only mode.
func Open(dbPath string) (*Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("factor database: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening factor database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup resolves a journal abbreviation. The match must be unambiguous:
// anything other than exactly one row yields (-1, "Unknown").
func (s *Store) Lookup(journal string) (float64, string) {
	rows, err := s.db.Query(
		`SELECT journal, factor FROM factor
		 WHERE journal = ? COLLATE NOCASE OR journal_abbr = ? COLLATE NOCASE`,
		journal, journal,
	)
	if err != nil {
		return -1, "Unknown"
	}
	defer rows.Close()

	var (
		name   string
		factor float64
		found  int
	)
	for rows.Next() {
		found++
		if found > 1 {
			return -1, "Unknown"
		}
		if err := rows.Scan(&name, &factor); err != nil {
			return -1, "Unknown"
		}
	}
	if found != 1 || rows.Err() != nil {
		return -1, "Unknown"
	}
	return factor, name
}
