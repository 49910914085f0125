package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cropadvisor/backend/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MeasurementServiceConfig holds configuration for the measurement service
type MeasurementServiceConfig struct {
	CacheTTL time.Duration
}

// MeasurementService stores soil measurements and keeps recently used rows in
// cache, since every recommendation call re-reads the same measurement.
type MeasurementService struct {
	repo     domain.MeasurementRepository
	cache    domain.CacheRepository
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewMeasurementService creates a new measurement service with dependencies
func NewMeasurementService(
	repo domain.MeasurementRepository,
	cache domain.CacheRepository,
	logger *zap.Logger,
	config MeasurementServiceConfig,
) *MeasurementService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MeasurementService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Create validates and stores a new measurement for userID.
func (s *MeasurementService) Create(
	ctx context.Context,
	userID string,
	request *domain.CreateMeasurementRequest,
) (*domain.MeasurementRecord, error) {
	m, err := request.ToMeasurement()
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	record := &domain.MeasurementRecord{
		ID:          s.newID(),
		UserID:      userID,
		Measurement: m,
		Location:    request.Location,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateMeasurement(ctx, record); err != nil {
		return nil, fmt.Errorf("store measurement: %w", err)
	}

	s.setInCache(ctx, record)
	s.logger.Debug("measurement stored",
		zap.String("user", userID),
		zap.String("measurement", record.ID))
	return record, nil
}

// Get returns the measurement id owned by userID.
func (s *MeasurementService) Get(ctx context.Context, userID, id string) (*domain.MeasurementRecord, error) {
	if id == "" {
		return nil, domain.ErrMeasurementNotFound
	}

	if cached, err := s.getFromCache(ctx, userID, id); err == nil {
		return cached, nil
	}

	record, err := s.repo.GetMeasurement(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.setInCache(ctx, record)
	return record, nil
}

// List returns every measurement owned by userID, newest first.
func (s *MeasurementService) List(ctx context.Context, userID string) ([]domain.MeasurementRecord, error) {
	records, err := s.repo.ListMeasurements(ctx, userID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.MeasurementRecord{}
	}
	return records, nil
}

// Delete removes the measurement and its history.
func (s *MeasurementService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteMeasurement(ctx, userID, id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, measurementCacheKey(userID, id)); err != nil {
		s.logger.Warn("cache delete failed", zap.String("measurement", id), zap.Error(err))
	}
	return nil
}

// measurementCacheKey format: "measurement:{user}:{id}"
func measurementCacheKey(userID, id string) string {
	return fmt.Sprintf("measurement:%s:%s", userID, id)
}

func (s *MeasurementService) getFromCache(ctx context.Context, userID, id string) (*domain.MeasurementRecord, error) {
	value, err := s.cache.Get(ctx, measurementCacheKey(userID, id))
	if err != nil {
		return nil, err
	}

	var record domain.MeasurementRecord
	if err := decodeCached(value, &record); err != nil {
		return nil, domain.ErrCacheMiss
	}
	if record.UserID != userID {
		return nil, domain.ErrCacheMiss
	}
	return &record, nil
}

func (s *MeasurementService) setInCache(ctx context.Context, record *domain.MeasurementRecord) {
	key := measurementCacheKey(record.UserID, record.ID)
	if err := s.cache.Set(ctx, key, record, s.cacheTTL); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// decodeCached converts a cached value back into out. The memory cache stores
// JSON-decoded maps, so values come back untyped.
func decodeCached(value interface{}, out interface{}) error {
	if typed, ok := value.(*domain.MeasurementRecord); ok {
		if dst, ok := out.(*domain.MeasurementRecord); ok {
			*dst = *typed
			return nil
		}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
