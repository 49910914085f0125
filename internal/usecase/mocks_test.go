package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cropadvisor/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled int
	setCalled int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockStore is an in-memory implementation of the measurement, history and user repositories
type MockStore struct {
	mu           sync.Mutex
	measurements map[string]domain.MeasurementRecord
	crops        []domain.CropRecommendationRecord
	plans        []domain.FertilizerRecord
	yields       []domain.YieldRecord
	users        map[string]domain.User

	getCalled int
	saveError error
	listError error
}

func NewMockStore() *MockStore {
	return &MockStore{
		measurements: make(map[string]domain.MeasurementRecord),
		users:        make(map[string]domain.User),
	}
}

func (m *MockStore) CreateMeasurement(ctx context.Context, record *domain.MeasurementRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.measurements[record.ID] = *record
	return nil
}

func (m *MockStore) GetMeasurement(ctx context.Context, userID, id string) (*domain.MeasurementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled++
	record, ok := m.measurements[id]
	if !ok || record.UserID != userID {
		return nil, domain.ErrMeasurementNotFound
	}
	return &record, nil
}

func (m *MockStore) ListMeasurements(ctx context.Context, userID string) ([]domain.MeasurementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	var out []domain.MeasurementRecord
	for _, r := range m.measurements {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockStore) DeleteMeasurement(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.measurements[id]
	if !ok || record.UserID != userID {
		return domain.ErrMeasurementNotFound
	}
	delete(m.measurements, id)
	return nil
}

func (m *MockStore) SaveCropRecommendation(ctx context.Context, record *domain.CropRecommendationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.crops = append(m.crops, *record)
	return nil
}

func (m *MockStore) SaveFertilizerPlan(ctx context.Context, record *domain.FertilizerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.plans = append(m.plans, *record)
	return nil
}

func (m *MockStore) SaveYieldEstimate(ctx context.Context, record *domain.YieldRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.yields = append(m.yields, *record)
	return nil
}

func (m *MockStore) ListCropRecommendations(ctx context.Context, userID string) ([]domain.CropRecommendationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	var out []domain.CropRecommendationRecord
	for _, r := range m.crops {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockStore) ListFertilizerPlans(ctx context.Context, userID string) ([]domain.FertilizerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.FertilizerRecord
	for _, r := range m.plans {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockStore) ListYieldEstimates(ctx context.Context, userID string) ([]domain.YieldRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.YieldRecord
	for _, r := range m.yields {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockStore) CreateUser(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return domain.ErrUserExists
	}
	m.users[user.Email] = *user
	return nil
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

// MockTokenManager issues tokens of the form "token-{userID}"
type MockTokenManager struct {
	issueError error
}

func (m *MockTokenManager) Issue(userID string) (string, error) {
	if m.issueError != nil {
		return "", m.issueError
	}
	return "token-" + userID, nil
}

func (m *MockTokenManager) Verify(token string) (string, error) {
	if len(token) <= len("token-") || token[:len("token-")] != "token-" {
		return "", errors.New("bad token")
	}
	return token[len("token-"):], nil
}

// MockHasher prefixes passwords instead of hashing them
type MockHasher struct{}

func (MockHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (MockHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// recordingObserver counts observed recommendations
type recordingObserver struct {
	crops       []string
	fertilizers []string
	yields      []float64
}

func (o *recordingObserver) ObserveCropRecommendation(rec domain.CropRecommendation) {
	o.crops = append(o.crops, rec.Crop)
}

func (o *recordingObserver) ObserveFertilizerPlan(crop string, plan domain.FertilizerPlan) {
	o.fertilizers = append(o.fertilizers, plan.Type)
}

func (o *recordingObserver) ObserveYieldEstimate(crop string, estimate domain.YieldEstimate) {
	o.yields = append(o.yields, estimate.Yield)
}

func float(v float64) *float64 { return &v }

func measurementRequest(m domain.Measurement, location string) *domain.CreateMeasurementRequest {
	return &domain.CreateMeasurementRequest{
		Nitrogen:    float(m.Nitrogen),
		Phosphorus:  float(m.Phosphorus),
		Potassium:   float(m.Potassium),
		PH:          float(m.PH),
		Temperature: float(m.Temperature),
		Humidity:    float(m.Humidity),
		Rainfall:    float(m.Rainfall),
		Location:    location,
	}
}
