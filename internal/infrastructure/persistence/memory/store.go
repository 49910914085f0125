// Package memory provides a process-local Store used in development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cropadvisor/backend/internal/domain"
)

var _ domain.Store = (*Store)(nil)

// Store keeps every table in maps guarded by a single RWMutex.
type Store struct {
	mu           sync.RWMutex
	measurements map[string]domain.MeasurementRecord
	crops        []domain.CropRecommendationRecord
	plans        []domain.FertilizerRecord
	yields       []domain.YieldRecord
	usersByEmail map[string]domain.User
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		measurements: make(map[string]domain.MeasurementRecord),
		usersByEmail: make(map[string]domain.User),
	}
}

func (s *Store) CreateMeasurement(ctx context.Context, record *domain.MeasurementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measurements[record.ID] = *record
	return nil
}

func (s *Store) GetMeasurement(ctx context.Context, userID, id string) (*domain.MeasurementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.measurements[id]
	if !ok || record.UserID != userID {
		return nil, domain.ErrMeasurementNotFound
	}
	return &record, nil
}

func (s *Store) ListMeasurements(ctx context.Context, userID string) ([]domain.MeasurementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.MeasurementRecord, 0)
	for _, record := range s.measurements {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteMeasurement(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.measurements[id]
	if !ok || record.UserID != userID {
		return domain.ErrMeasurementNotFound
	}
	delete(s.measurements, id)
	s.crops = filterOut(s.crops, func(r domain.CropRecommendationRecord) bool { return r.MeasurementID == id })
	s.plans = filterOut(s.plans, func(r domain.FertilizerRecord) bool { return r.MeasurementID == id })
	s.yields = filterOut(s.yields, func(r domain.YieldRecord) bool { return r.MeasurementID == id })
	return nil
}

func (s *Store) SaveCropRecommendation(ctx context.Context, record *domain.CropRecommendationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := *record
	row.Alternates = append([]string(nil), record.Alternates...)
	s.crops = append(s.crops, row)
	return nil
}

func (s *Store) SaveFertilizerPlan(ctx context.Context, record *domain.FertilizerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = append(s.plans, *record)
	return nil
}

func (s *Store) SaveYieldEstimate(ctx context.Context, record *domain.YieldRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := *record
	row.Factors = make(map[string]string, len(record.Factors))
	for k, v := range record.Factors {
		row.Factors[k] = v
	}
	s.yields = append(s.yields, row)
	return nil
}

func (s *Store) ListCropRecommendations(ctx context.Context, userID string) ([]domain.CropRecommendationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ownedBy(s.crops, userID, func(r domain.CropRecommendationRecord) string { return r.UserID }), nil
}

func (s *Store) ListFertilizerPlans(ctx context.Context, userID string) ([]domain.FertilizerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ownedBy(s.plans, userID, func(r domain.FertilizerRecord) string { return r.UserID }), nil
}

func (s *Store) ListYieldEstimates(ctx context.Context, userID string) ([]domain.YieldRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ownedBy(s.yields, userID, func(r domain.YieldRecord) string { return r.UserID }), nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByEmail[user.Email]; ok {
		return domain.ErrUserExists
	}
	s.usersByEmail[user.Email] = *user
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.usersByEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func ownedBy[T any](rows []T, userID string, owner func(T) string) []T {
	out := make([]T, 0)
	for _, r := range rows {
		if owner(r) == userID {
			out = append(out, r)
		}
	}
	return out
}

func filterOut[T any](rows []T, drop func(T) bool) []T {
	kept := rows[:0]
	for _, r := range rows {
		if !drop(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
