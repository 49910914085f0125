// Package sqlstore implements domain.Store on database/sql for sqlite, postgres and mysql.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cropadvisor/backend/internal/domain"
	"go.uber.org/zap"
)

var _ domain.Store = (*Store)(nil)

// Store persists measurements, history rows and users in a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// Open connects to the database for the named store driver, verifies the
// connection and applies pending migrations.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	dialect, err := LookupDialect(driver)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, fmt.Errorf("open %s: empty dsn", dialect.Name)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}
	if dialect.maxOpenConns > 0 {
		db.SetMaxOpenConns(dialect.maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}

	s := &Store{
		db:      db,
		dialect: dialect,
		logger:  logger.With(zap.String("store", dialect.Name)),
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(query), args...)
	return err
}

func toMicros(t time.Time) int64 { return t.UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

func (s *Store) CreateMeasurement(ctx context.Context, record *domain.MeasurementRecord) error {
	m := record.Measurement
	err := s.exec(ctx, `INSERT INTO soil_data
		(id, user_id, nitrogen, phosphorus, potassium, ph_level, temperature, humidity, rainfall, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.UserID,
		m.Nitrogen, m.Phosphorus, m.Potassium, m.PH, m.Temperature, m.Humidity, m.Rainfall,
		record.Location, toMicros(record.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert soil data: %w", err)
	}
	return nil
}

const measurementColumns = `id, user_id, nitrogen, phosphorus, potassium, ph_level, temperature, humidity, rainfall, location, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMeasurement(row rowScanner) (*domain.MeasurementRecord, error) {
	var (
		r       domain.MeasurementRecord
		created int64
	)
	err := row.Scan(&r.ID, &r.UserID,
		&r.Nitrogen, &r.Phosphorus, &r.Potassium, &r.PH, &r.Temperature, &r.Humidity, &r.Rainfall,
		&r.Location, &created)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = fromMicros(created)
	return &r, nil
}

func (s *Store) GetMeasurement(ctx context.Context, userID, id string) (*domain.MeasurementRecord, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.Rebind(`SELECT `+measurementColumns+` FROM soil_data WHERE id = ? AND user_id = ?`),
		id, userID)
	record, err := scanMeasurement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMeasurementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select soil data: %w", err)
	}
	return record, nil
}

func (s *Store) ListMeasurements(ctx context.Context, userID string) ([]domain.MeasurementRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		s.dialect.Rebind(`SELECT `+measurementColumns+` FROM soil_data WHERE user_id = ? ORDER BY created_at DESC, id DESC`),
		userID)
	if err != nil {
		return nil, fmt.Errorf("list soil data: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.MeasurementRecord, 0)
	for rows.Next() {
		record, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan soil data: %w", err)
		}
		out = append(out, *record)
	}
	return out, rows.Err()
}

// DeleteMeasurement removes the measurement and its history rows in one transaction.
func (s *Store) DeleteMeasurement(ctx context.Context, userID, id string) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM soil_data WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete soil data: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete soil data: %w", err)
	}
	if n == 0 {
		return domain.ErrMeasurementNotFound
	}

	for _, table := range []string{"crop_recommendations", "fertilizer_recommendations", "yield_predictions"} {
		if _, err := tx.ExecContext(ctx,
			s.dialect.Rebind(`DELETE FROM `+table+` WHERE soil_data_id = ? AND user_id = ?`), id, userID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func (s *Store) SaveCropRecommendation(ctx context.Context, record *domain.CropRecommendationRecord) error {
	alternates := record.Alternates
	if alternates == nil {
		alternates = []string{}
	}
	encoded, err := json.Marshal(alternates)
	if err != nil {
		return fmt.Errorf("encode alternates: %w", err)
	}
	err = s.exec(ctx, `INSERT INTO crop_recommendations
		(id, user_id, soil_data_id, recommended_crop, confidence_score, alternative_crops, reasoning, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.UserID, record.MeasurementID,
		record.Crop, record.Confidence, string(encoded), record.Reasoning, toMicros(record.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert crop recommendation: %w", err)
	}
	return nil
}

func (s *Store) SaveFertilizerPlan(ctx context.Context, record *domain.FertilizerRecord) error {
	err := s.exec(ctx, `INSERT INTO fertilizer_recommendations
		(id, user_id, soil_data_id, crop_type, fertilizer_type, dosage, application_timing, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.UserID, record.MeasurementID,
		record.Crop, record.Type, record.Dosage, record.Timing, toMicros(record.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert fertilizer recommendation: %w", err)
	}
	return nil
}

func (s *Store) SaveYieldEstimate(ctx context.Context, record *domain.YieldRecord) error {
	interval, err := json.Marshal(record.ConfidenceInterval)
	if err != nil {
		return fmt.Errorf("encode confidence interval: %w", err)
	}
	factors, err := json.Marshal(record.Factors)
	if err != nil {
		return fmt.Errorf("encode factors: %w", err)
	}
	err = s.exec(ctx, `INSERT INTO yield_predictions
		(id, user_id, soil_data_id, crop_type, predicted_yield, confidence_interval, factors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.UserID, record.MeasurementID,
		record.Crop, record.Yield, string(interval), string(factors), toMicros(record.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert yield prediction: %w", err)
	}
	return nil
}

func (s *Store) ListCropRecommendations(ctx context.Context, userID string) ([]domain.CropRecommendationRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(`SELECT
		id, user_id, soil_data_id, recommended_crop, confidence_score, alternative_crops, reasoning, created_at
		FROM crop_recommendations WHERE user_id = ? ORDER BY created_at, id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list crop recommendations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.CropRecommendationRecord, 0)
	for rows.Next() {
		var (
			r          domain.CropRecommendationRecord
			alternates string
			created    int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.MeasurementID,
			&r.Crop, &r.Confidence, &alternates, &r.Reasoning, &created); err != nil {
			return nil, fmt.Errorf("scan crop recommendation: %w", err)
		}
		if err := json.Unmarshal([]byte(alternates), &r.Alternates); err != nil {
			return nil, fmt.Errorf("decode alternates: %w", err)
		}
		r.CreatedAt = fromMicros(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListFertilizerPlans(ctx context.Context, userID string) ([]domain.FertilizerRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(`SELECT
		id, user_id, soil_data_id, crop_type, fertilizer_type, dosage, application_timing, created_at
		FROM fertilizer_recommendations WHERE user_id = ? ORDER BY created_at, id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list fertilizer recommendations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.FertilizerRecord, 0)
	for rows.Next() {
		var (
			r       domain.FertilizerRecord
			created int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.MeasurementID,
			&r.Crop, &r.Type, &r.Dosage, &r.Timing, &created); err != nil {
			return nil, fmt.Errorf("scan fertilizer recommendation: %w", err)
		}
		r.CreatedAt = fromMicros(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListYieldEstimates(ctx context.Context, userID string) ([]domain.YieldRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(`SELECT
		id, user_id, soil_data_id, crop_type, predicted_yield, confidence_interval, factors, created_at
		FROM yield_predictions WHERE user_id = ? ORDER BY created_at, id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list yield predictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.YieldRecord, 0)
	for rows.Next() {
		var (
			r                 domain.YieldRecord
			interval, factors string
			created           int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.MeasurementID,
			&r.Crop, &r.Yield, &interval, &factors, &created); err != nil {
			return nil, fmt.Errorf("scan yield prediction: %w", err)
		}
		if err := json.Unmarshal([]byte(interval), &r.ConfidenceInterval); err != nil {
			return nil, fmt.Errorf("decode confidence interval: %w", err)
		}
		if err := json.Unmarshal([]byte(factors), &r.Factors); err != nil {
			return nil, fmt.Errorf("decode factors: %w", err)
		}
		r.CreatedAt = fromMicros(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	err := s.exec(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, toMicros(user.CreatedAt))
	if isUniqueViolation(err) {
		return domain.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var (
		u       domain.User
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind(`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`), email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.CreatedAt = fromMicros(created)
	return &u, nil
}
