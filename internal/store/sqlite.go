// Package store persists record tables in a SQLite archive file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chrissnell/regrid/internal/dataset"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS readings (
	source_id TEXT NOT NULL,
	ts_ms     INTEGER NOT NULL,
	property  TEXT NOT NULL,
	value     REAL NOT NULL
)`

const createIndexSQL = `
CREATE INDEX IF NOT EXISTS readings_property_ts ON readings (property, ts_ms)`

// Store is a readings archive backed by a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive at path and verifies the connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &Store{db: db}, nil
}

// Init creates the readings table and its lookup index if missing.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create readings table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("failed to create readings index: %w", err)
	}
	return nil
}

// SaveRecords appends records atomically. Timestamps are stored as Unix
// milliseconds, the input data's native precision.
func (s *Store) SaveRecords(ctx context.Context, records []dataset.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO readings (source_id, ts_ms, property, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.SourceID, rec.Time.UnixMilli(), rec.Property, rec.Value); err != nil {
			return fmt.Errorf("failed to insert reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadRecords returns every reading ordered by time, then property.
// Timestamps come back in UTC at the stored millisecond precision.
func (s *Store) LoadRecords(ctx context.Context) ([]dataset.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, ts_ms, property, value FROM readings ORDER BY ts_ms, property`)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var records []dataset.Record
	for rows.Next() {
		var rec dataset.Record
		var tsMS int64
		if err := rows.Scan(&rec.SourceID, &tsMS, &rec.Property, &rec.Value); err != nil {
			return nil, fmt.Errorf("failed to scan reading row: %w", err)
		}
		rec.Time = time.UnixMilli(tsMS).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read readings: %w", err)
	}
	return records, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
