package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped on any change to schema.sql. There are no
// migrations: a mismatch means export, recreate, and import.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by another schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// storedVersion reads the recorded schema version; 0 means a fresh database.
func (s *Store) storedVersion(ctx context.Context) (int, error) {
	rows, err := s.query(ctx, []string{"n"},
		"SELECT COUNT(1) AS n FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'")
	if err != nil {
		return 0, fmt.Errorf("probe schema_version: %w", err)
	}
	if len(rows) == 0 || asInt64(rows[0]["n"]) == 0 {
		return 0, nil
	}
	rows, err = s.query(ctx, []string{"version"}, "SELECT version FROM schema_version LIMIT 1")
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if len(rows) == 0 {
		return 0, errors.New("schema_version table is empty")
	}
	return int(asInt64(rows[0]["version"])), nil
}

func (s *Store) initSchema(ctx context.Context) error {
	version, err := s.storedVersion(ctx)
	if err != nil {
		return err
	}
	switch version {
	case 0:
		return s.WithTx(ctx, func(tx *Tx) error {
			if _, err := tx.exec(ctx, schemaSQL); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
			if _, err := tx.exec(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
				return fmt.Errorf("record schema version: %w", err)
			}
			return nil
		})
	case schemaVersion:
		return nil
	default:
		return fmt.Errorf("%w: database %s has version %d, this build expects %d (export, recreate, and re-import)",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}
}
