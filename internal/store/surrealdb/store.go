// Package surrealdb implements the Job Store against SurrealDB,
// adapted from the teacher's storage manager and job-queue store.
package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/careerforge/internal/common"
	"github.com/surrealdb/surrealdb.go"
)

// Store connects to SurrealDB and exposes the job table.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// New connects to SurrealDB per config, selects the namespace/database, and
// ensures the job table exists.
func New(ctx context.Context, config *common.StoreConfig, logger *common.Logger) (*Store, error) {
	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if config.Username != "" {
		if _, err := db.SignIn(ctx, map[string]interface{}{
			"user": config.Username,
			"pass": config.Password,
		}); err != nil {
			return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
		}
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	if _, err := surrealdb.Query[any](ctx, db, "DEFINE TABLE IF NOT EXISTS job SCHEMALESS", nil); err != nil {
		return nil, fmt.Errorf("failed to define table job: %w", err)
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("job store connected")

	return &Store{db: db, logger: logger}, nil
}

// Close disconnects from SurrealDB.
func (s *Store) Close() error {
	s.db.Close(context.Background())
	return nil
}
