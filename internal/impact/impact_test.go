// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package impact

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactorDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "factor.db")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE factor (
		journal TEXT,
		journal_abbr TEXT,
		factor REAL
	)`)
	require.NoError(t, err)

	_, err = db.Exec(
		`INSERT INTO factor (journal, journal_abbr, factor) VALUES
		 ('Nature', 'Nature', 64.8),
		 ('Nature Communications', 'Nat Commun', 16.6),
		 ('Ambiguous Reviews', 'Amb Rev', 1.0),
		 ('Ambiguous Reviews B', 'Amb Rev', 2.0)`,
	)
	require.NoError(t, err)
	return dbPath
}

func TestLookup(t *testing.T) {
	store, err := Open(newFactorDB(t))
	require.NoError(t, err)
	defer store.Close()

	tests := []struct {
		name       string
		journal    string
		wantFactor float64
		wantName   string
	}{
		{"by abbreviation", "Nat Commun", 16.6, "Nature Communications"},
		{"by full name", "Nature Communications", 16.6, "Nature Communications"},
		{"case insensitive", "nat commun", 16.6, "Nature Communications"},
		{"unknown journal", "Fake Journal", -1, "Unknown"},
		{"ambiguous match", "Amb Rev", -1, "Unknown"},
		{"empty", "", -1, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factor, name := store.Lookup(tt.journal)
			assert.Equal(t, tt.wantFactor, factor)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestUnknown(t *testing.T) {
	factor, name := Unknown("Nature")
	assert.Equal(t, -1.0, factor)
	assert.Equal(t, "Unknown", name)
}
