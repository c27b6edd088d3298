package jobqueue

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into the database header via PRAGMA user_version.
// Bump it when schema.sql changes; old databases must be cleared rather than
// migrated in place.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible
// version of reelsmith.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	switch version {
	case 0:
		return s.createSchema(ctx)
	case schemaVersion:
		return nil
	default:
		return fmt.Errorf("%w: database reports version %d, this build expects %d (run 'reelsmith queue clear' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	// PRAGMA does not accept bind parameters; schemaVersion is a trusted constant.
	stamp := fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)
	if _, err := tx.ExecContext(ctx, stamp); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
