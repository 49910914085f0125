package sqlstore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Migration is a named schema change applied at most once.
type Migration struct {
	Name string
	SQL  string
}

// Column types are limited to ones sqlite, postgres and mysql all accept.
// Timestamps are stored as unix microseconds.
var migrations = []Migration{
	{
		Name: "001_create_users_table",
		SQL: `CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	},
	{
		Name: "002_create_soil_data_table",
		SQL: `CREATE TABLE IF NOT EXISTS soil_data (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			nitrogen DOUBLE PRECISION NOT NULL,
			phosphorus DOUBLE PRECISION NOT NULL,
			potassium DOUBLE PRECISION NOT NULL,
			ph_level DOUBLE PRECISION NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			humidity DOUBLE PRECISION NOT NULL,
			rainfall DOUBLE PRECISION NOT NULL,
			location VARCHAR(255) NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)`,
	},
	{
		Name: "003_index_soil_data_user",
		SQL:  `CREATE INDEX idx_soil_data_user ON soil_data (user_id, created_at)`,
	},
	{
		Name: "004_create_crop_recommendations_table",
		SQL: `CREATE TABLE IF NOT EXISTS crop_recommendations (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			soil_data_id VARCHAR(64) NOT NULL,
			recommended_crop VARCHAR(64) NOT NULL,
			confidence_score DOUBLE PRECISION NOT NULL,
			alternative_crops TEXT NOT NULL,
			reasoning TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	},
	{
		Name: "005_create_fertilizer_recommendations_table",
		SQL: `CREATE TABLE IF NOT EXISTS fertilizer_recommendations (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			soil_data_id VARCHAR(64) NOT NULL,
			crop_type VARCHAR(64) NOT NULL,
			fertilizer_type VARCHAR(255) NOT NULL,
			dosage VARCHAR(64) NOT NULL,
			application_timing TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	},
	{
		Name: "006_create_yield_predictions_table",
		SQL: `CREATE TABLE IF NOT EXISTS yield_predictions (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			soil_data_id VARCHAR(64) NOT NULL,
			crop_type VARCHAR(64) NOT NULL,
			predicted_yield DOUBLE PRECISION NOT NULL,
			confidence_interval TEXT NOT NULL,
			factors TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	},
	{
		Name: "007_index_history_user",
		SQL:  `CREATE INDEX idx_crop_recommendations_user ON crop_recommendations (user_id, created_at)`,
	},
	{
		Name: "008_index_fertilizer_user",
		SQL:  `CREATE INDEX idx_fertilizer_recommendations_user ON fertilizer_recommendations (user_id, created_at)`,
	},
	{
		Name: "009_index_yield_user",
		SQL:  `CREATE INDEX idx_yield_predictions_user ON yield_predictions (user_id, created_at)`,
	},
}

// migrate creates the migrations table and applies every pending migration.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name VARCHAR(255) PRIMARY KEY,
		executed_at BIGINT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range migrations {
		applied, err := s.runMigrationIfNotExists(ctx, m)
		if err != nil {
			return fmt.Errorf("run migration %s: %w", m.Name, err)
		}
		if applied {
			s.logger.Info("migration applied", zap.String("migration", m.Name))
		}
	}
	return nil
}

func (s *Store) runMigrationIfNotExists(ctx context.Context, m Migration) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`), m.Name)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		s.dialect.Rebind(`INSERT INTO schema_migrations (name, executed_at) VALUES (?, ?)`),
		m.Name, time.Now().UnixMicro()); err != nil {
		return false, err
	}
	return true, tx.Commit()
}
