// Package storetest holds behaviour tests shared by every domain.Store implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/cropadvisor/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) domain.Store

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// Run exercises newStore against the repository contracts.
func Run(t *testing.T, newStore Factory) {
	t.Run("measurement round trip", func(t *testing.T) { testMeasurementRoundTrip(t, newStore(t)) })
	t.Run("measurement ownership", func(t *testing.T) { testMeasurementOwnership(t, newStore(t)) })
	t.Run("measurements newest first", func(t *testing.T) { testListMeasurements(t, newStore(t)) })
	t.Run("delete cascades history", func(t *testing.T) { testDeleteCascades(t, newStore(t)) })
	t.Run("history rows", func(t *testing.T) { testHistoryRows(t, newStore(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
}

func measurement(id, userID string, at time.Time) *domain.MeasurementRecord {
	return &domain.MeasurementRecord{
		ID:     id,
		UserID: userID,
		Measurement: domain.Measurement{
			Nitrogen:    90.5,
			Phosphorus:  45,
			Potassium:   42.25,
			PH:          6.4,
			Temperature: 27.5,
			Humidity:    84,
			Rainfall:    210,
		},
		Location:  "Plot 7",
		CreatedAt: at,
	}
}

func testMeasurementRoundTrip(t *testing.T, store domain.Store) {
	ctx := context.Background()
	want := measurement("m1", "u1", base)
	require.NoError(t, store.CreateMeasurement(ctx, want))

	got, err := store.GetMeasurement(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.Measurement, got.Measurement)
	assert.Equal(t, want.Location, got.Location)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", got.CreatedAt, want.CreatedAt)
}

func testMeasurementOwnership(t *testing.T, store domain.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateMeasurement(ctx, measurement("m1", "u1", base)))

	_, err := store.GetMeasurement(ctx, "u2", "m1")
	assert.ErrorIs(t, err, domain.ErrMeasurementNotFound)

	_, err = store.GetMeasurement(ctx, "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrMeasurementNotFound)

	assert.ErrorIs(t, store.DeleteMeasurement(ctx, "u2", "m1"), domain.ErrMeasurementNotFound)
	_, err = store.GetMeasurement(ctx, "u1", "m1")
	assert.NoError(t, err)
}

func testListMeasurements(t *testing.T, store domain.Store) {
	ctx := context.Background()
	empty, err := store.ListMeasurements(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.CreateMeasurement(ctx, measurement("m1", "u1", base)))
	require.NoError(t, store.CreateMeasurement(ctx, measurement("m3", "u1", base.Add(2*time.Hour))))
	require.NoError(t, store.CreateMeasurement(ctx, measurement("m2", "u1", base.Add(time.Hour))))
	require.NoError(t, store.CreateMeasurement(ctx, measurement("x1", "u2", base.Add(3*time.Hour))))

	list, err := store.ListMeasurements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"m3", "m2", "m1"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func saveHistory(t *testing.T, store domain.Store, id, userID, measurementID string, at time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveCropRecommendation(ctx, &domain.CropRecommendationRecord{
		ID:            "c-" + id,
		UserID:        userID,
		MeasurementID: measurementID,
		CropRecommendation: domain.CropRecommendation{
			Crop:       domain.CropRice,
			Confidence: 0.93,
			Alternates: []string{domain.CropSugarcane, domain.CropMaize, domain.CropCotton},
			Reasoning:  "Based on soil analysis",
		},
		CreatedAt: at,
	}))
	require.NoError(t, store.SaveFertilizerPlan(ctx, &domain.FertilizerRecord{
		ID:            "f-" + id,
		UserID:        userID,
		MeasurementID: measurementID,
		Crop:          domain.CropRice,
		FertilizerPlan: domain.FertilizerPlan{
			Type:   "Urea (46-0-0)",
			Dosage: "44 kg/hectare",
			Timing: "Split application",
		},
		CreatedAt: at,
	}))
	require.NoError(t, store.SaveYieldEstimate(ctx, &domain.YieldRecord{
		ID:            "y-" + id,
		UserID:        userID,
		MeasurementID: measurementID,
		Crop:          domain.CropRice,
		YieldEstimate: domain.YieldEstimate{
			Yield:              4.21,
			ConfidenceInterval: domain.ConfidenceInterval{Lower: 3.58, Upper: 4.84},
			Factors:            map[string]string{"Nitrogen": "Good", "Rainfall": "Ideal"},
		},
		CreatedAt: at,
	}))
}

func testHistoryRows(t *testing.T, store domain.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateMeasurement(ctx, measurement("m1", "u1", base)))
	require.NoError(t, store.CreateMeasurement(ctx, measurement("m2", "u2", base)))
	saveHistory(t, store, "1", "u1", "m1", base.Add(time.Minute))
	saveHistory(t, store, "2", "u1", "m1", base.Add(2*time.Minute))
	saveHistory(t, store, "3", "u2", "m2", base.Add(3*time.Minute))

	crops, err := store.ListCropRecommendations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, crops, 2)
	assert.Equal(t, "c-1", crops[0].ID)
	assert.Equal(t, "c-2", crops[1].ID)
	assert.Equal(t, "m1", crops[0].MeasurementID)
	assert.Equal(t, domain.CropRice, crops[0].Crop)
	assert.Equal(t, 0.93, crops[0].Confidence)
	assert.Equal(t, []string{domain.CropSugarcane, domain.CropMaize, domain.CropCotton}, crops[0].Alternates)

	plans, err := store.ListFertilizerPlans(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "f-1", plans[0].ID)
	assert.Equal(t, domain.CropRice, plans[0].Crop)
	assert.Equal(t, "44 kg/hectare", plans[0].Dosage)

	yields, err := store.ListYieldEstimates(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, yields, 2)
	assert.Equal(t, 4.21, yields[1].Yield)
	assert.Equal(t, domain.ConfidenceInterval{Lower: 3.58, Upper: 4.84}, yields[1].ConfidenceInterval)
	assert.Equal(t, "Ideal", yields[1].Factors["Rainfall"])

	other, err := store.ListCropRecommendations(ctx, "u3")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func testDeleteCascades(t *testing.T, store domain.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateMeasurement(ctx, measurement("m1", "u1", base)))
	require.NoError(t, store.CreateMeasurement(ctx, measurement("m2", "u1", base.Add(time.Hour))))
	saveHistory(t, store, "1", "u1", "m1", base.Add(time.Minute))
	saveHistory(t, store, "2", "u1", "m2", base.Add(2*time.Minute))

	require.NoError(t, store.DeleteMeasurement(ctx, "u1", "m1"))

	_, err := store.GetMeasurement(ctx, "u1", "m1")
	assert.ErrorIs(t, err, domain.ErrMeasurementNotFound)

	crops, err := store.ListCropRecommendations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, crops, 1)
	assert.Equal(t, "m2", crops[0].MeasurementID)

	plans, err := store.ListFertilizerPlans(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	yields, err := store.ListYieldEstimates(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, yields, 1)
}

func testUsers(t *testing.T, store domain.Store) {
	ctx := context.Background()
	user := &domain.User{ID: "u1", Email: "a@b.com", PasswordHash: "$2a$hash", CreatedAt: base}
	require.NoError(t, store.CreateUser(ctx, user))

	err := store.CreateUser(ctx, &domain.User{ID: "u2", Email: "a@b.com", PasswordHash: "x", CreatedAt: base})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	got, err := store.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "$2a$hash", got.PasswordHash)

	_, err = store.GetUserByEmail(ctx, "nobody@b.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
