package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cropadvisor/backend/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MeasurementSource loads measurements scoped to their owner
type MeasurementSource interface {
	Get(ctx context.Context, userID, id string) (*domain.MeasurementRecord, error)
	List(ctx context.Context, userID string) ([]domain.MeasurementRecord, error)
}

// RecommendationObserver is notified of every computed recommendation
type RecommendationObserver interface {
	ObserveCropRecommendation(rec domain.CropRecommendation)
	ObserveFertilizerPlan(crop string, plan domain.FertilizerPlan)
	ObserveYieldEstimate(crop string, estimate domain.YieldEstimate)
}

// noHistoryValue is shown in history when a measurement has no fertilizer plan yet
const noHistoryValue = "N/A"

// AdvisoryService runs the scoring engine against stored measurements and
// records each result as a history row.
type AdvisoryService struct {
	measurements MeasurementSource
	history      domain.RecommendationRepository
	observer     RecommendationObserver
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string
}

// NewAdvisoryService creates a new advisory service. observer may be nil.
func NewAdvisoryService(
	measurements MeasurementSource,
	history domain.RecommendationRepository,
	observer RecommendationObserver,
	logger *zap.Logger,
) *AdvisoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisoryService{
		measurements: measurements,
		history:      history,
		observer:     observer,
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// RecommendCrop matches the measurement against every crop profile.
func (s *AdvisoryService) RecommendCrop(
	ctx context.Context,
	userID, measurementID string,
) (*domain.CropRecommendation, error) {
	record, err := s.measurements.Get(ctx, userID, measurementID)
	if err != nil {
		return nil, err
	}

	rec := MatchCrop(record.Measurement)

	row := &domain.CropRecommendationRecord{
		ID:                 s.newID(),
		UserID:             userID,
		MeasurementID:      record.ID,
		CropRecommendation: rec,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.history.SaveCropRecommendation(ctx, row); err != nil {
		return nil, fmt.Errorf("save crop recommendation: %w", err)
	}

	if s.observer != nil {
		s.observer.ObserveCropRecommendation(rec)
	}
	s.logger.Info("crop recommended",
		zap.String("user", userID),
		zap.String("measurement", record.ID),
		zap.String("crop", rec.Crop),
		zap.Float64("confidence", rec.Confidence))
	return &rec, nil
}

// RecommendFertilizer computes a fertilizer plan for crop on the measurement.
func (s *AdvisoryService) RecommendFertilizer(
	ctx context.Context,
	userID, measurementID, crop string,
) (*domain.FertilizerPlan, error) {
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return nil, fmt.Errorf("%w: crop is required", domain.ErrInvalidRequest)
	}

	record, err := s.measurements.Get(ctx, userID, measurementID)
	if err != nil {
		return nil, err
	}

	m := record.Measurement
	plan := RecommendFertilizer(crop, m.Nitrogen, m.Phosphorus, m.Potassium, m.PH)

	row := &domain.FertilizerRecord{
		ID:             s.newID(),
		UserID:         userID,
		MeasurementID:  record.ID,
		Crop:           crop,
		FertilizerPlan: plan,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.history.SaveFertilizerPlan(ctx, row); err != nil {
		return nil, fmt.Errorf("save fertilizer plan: %w", err)
	}

	if s.observer != nil {
		s.observer.ObserveFertilizerPlan(crop, plan)
	}
	s.logFallback(crop, "fertilizer")
	s.logger.Info("fertilizer recommended",
		zap.String("user", userID),
		zap.String("measurement", record.ID),
		zap.String("crop", crop),
		zap.String("type", plan.Type))
	return &plan, nil
}

// EstimateYield predicts yield for crop on the measurement.
func (s *AdvisoryService) EstimateYield(
	ctx context.Context,
	userID, measurementID, crop string,
) (*domain.YieldEstimate, error) {
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return nil, fmt.Errorf("%w: crop is required", domain.ErrInvalidRequest)
	}

	record, err := s.measurements.Get(ctx, userID, measurementID)
	if err != nil {
		return nil, err
	}

	estimate := EstimateYield(crop, record.Measurement)

	row := &domain.YieldRecord{
		ID:            s.newID(),
		UserID:        userID,
		MeasurementID: record.ID,
		Crop:          crop,
		YieldEstimate: estimate,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.history.SaveYieldEstimate(ctx, row); err != nil {
		return nil, fmt.Errorf("save yield estimate: %w", err)
	}

	if s.observer != nil {
		s.observer.ObserveYieldEstimate(crop, estimate)
	}
	s.logFallback(crop, "yield")
	s.logger.Info("yield estimated",
		zap.String("user", userID),
		zap.String("measurement", record.ID),
		zap.String("crop", crop),
		zap.Float64("yield", estimate.Yield))
	return &estimate, nil
}

// History lists the user's crop recommendations, newest first, each joined
// with the latest fertilizer type and yield recorded for the same measurement.
func (s *AdvisoryService) History(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	crops, err := s.history.ListCropRecommendations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list crop recommendations: %w", err)
	}
	plans, err := s.history.ListFertilizerPlans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list fertilizer plans: %w", err)
	}
	yields, err := s.history.ListYieldEstimates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list yield estimates: %w", err)
	}
	measurements, err := s.measurements.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}

	// Rows are oldest first, so later entries win.
	fertilizerByMeasurement := make(map[string]string, len(plans))
	for _, p := range plans {
		fertilizerByMeasurement[p.MeasurementID] = p.Type
	}
	yieldByMeasurement := make(map[string]float64, len(yields))
	for _, y := range yields {
		yieldByMeasurement[y.MeasurementID] = y.Yield
	}
	measurementByID := make(map[string]*domain.MeasurementRecord, len(measurements))
	for i := range measurements {
		measurementByID[measurements[i].ID] = &measurements[i]
	}

	entries := make([]domain.HistoryEntry, 0, len(crops))
	for _, c := range crops {
		fertilizer, ok := fertilizerByMeasurement[c.MeasurementID]
		if !ok {
			fertilizer = noHistoryValue
		}
		entries = append(entries, domain.HistoryEntry{
			ID:         c.ID,
			CreatedAt:  c.CreatedAt,
			SoilData:   measurementByID[c.MeasurementID],
			Crop:       c.Crop,
			Fertilizer: fertilizer,
			Yield:      yieldByMeasurement[c.MeasurementID],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// logFallback notes when an unrecognized crop silently resolved to a default profile.
func (s *AdvisoryService) logFallback(crop, kind string) {
	if domain.IsKnownCrop(crop) {
		return
	}
	fields := []zap.Field{zap.String("crop", crop), zap.String("kind", kind)}
	if suggestion, ok := SuggestCrop(crop); ok {
		fields = append(fields, zap.String("suggestion", suggestion))
	}
	s.logger.Warn("unrecognized crop, using default reference profile", fields...)
}
