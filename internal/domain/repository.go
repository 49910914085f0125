package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MeasurementRepository stores soil measurements. Lookups are always scoped to
// the owning user; a row owned by someone else is reported as ErrMeasurementNotFound.
type MeasurementRepository interface {
	CreateMeasurement(ctx context.Context, record *MeasurementRecord) error
	GetMeasurement(ctx context.Context, userID, id string) (*MeasurementRecord, error)
	// ListMeasurements returns the user's measurements, newest first
	ListMeasurements(ctx context.Context, userID string) ([]MeasurementRecord, error)
	// DeleteMeasurement removes the measurement and every history row referencing it
	DeleteMeasurement(ctx context.Context, userID, id string) error
}

// RecommendationRepository stores history rows for the three scoring functions.
// List methods return rows oldest first.
type RecommendationRepository interface {
	SaveCropRecommendation(ctx context.Context, record *CropRecommendationRecord) error
	SaveFertilizerPlan(ctx context.Context, record *FertilizerRecord) error
	SaveYieldEstimate(ctx context.Context, record *YieldRecord) error
	ListCropRecommendations(ctx context.Context, userID string) ([]CropRecommendationRecord, error)
	ListFertilizerPlans(ctx context.Context, userID string) ([]FertilizerRecord, error)
	ListYieldEstimates(ctx context.Context, userID string) ([]YieldRecord, error)
}

// UserRepository stores accounts
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// Store is the full row-oriented datastore
type Store interface {
	MeasurementRepository
	RecommendationRepository
	UserRepository
	Close() error
}

// TokenManager issues and verifies identity tokens
type TokenManager interface {
	Issue(userID string) (string, error)
	Verify(token string) (userID string, err error)
}

// PasswordHasher hashes and checks passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
