package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/cropadvisor/backend/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "cropadvisor-backend"
	serviceVersion = "1.0.0"

	// referenceProfileHeader names the reference crop profile a fertilizer or
	// yield result was computed against.
	referenceProfileHeader = "X-Reference-Profile"
	defaultProfileName     = "default"
)

// AuthUseCase registers and authenticates users
type AuthUseCase interface {
	Register(ctx context.Context, email, password string) (*domain.Session, error)
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Authenticate(ctx context.Context, token string) (string, error)
}

// MeasurementUseCase manages stored soil measurements
type MeasurementUseCase interface {
	Create(ctx context.Context, userID string, request *domain.CreateMeasurementRequest) (*domain.MeasurementRecord, error)
	Get(ctx context.Context, userID, id string) (*domain.MeasurementRecord, error)
	List(ctx context.Context, userID string) ([]domain.MeasurementRecord, error)
	Delete(ctx context.Context, userID, id string) error
}

// AdvisoryUseCase runs recommendations against stored measurements
type AdvisoryUseCase interface {
	RecommendCrop(ctx context.Context, userID, measurementID string) (*domain.CropRecommendation, error)
	RecommendFertilizer(ctx context.Context, userID, measurementID, crop string) (*domain.FertilizerPlan, error)
	EstimateYield(ctx context.Context, userID, measurementID, crop string) (*domain.YieldEstimate, error)
	History(ctx context.Context, userID string) ([]domain.HistoryEntry, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	auth         AuthUseCase
	measurements MeasurementUseCase
	advisory     AdvisoryUseCase
}

// NewHandler creates a new HTTP handler
func NewHandler(auth AuthUseCase, measurements MeasurementUseCase, advisory AdvisoryUseCase) *Handler {
	return &Handler{
		auth:         auth,
		measurements: measurements,
		advisory:     advisory,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// ListCrops returns the built-in crop profiles
func (h *Handler) ListCrops(c *gin.Context) {
	c.JSON(http.StatusOK, domain.CropProfiles())
}

// Register handles POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var request domain.CredentialsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.auth.Register(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// Login handles POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var request domain.CredentialsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// CreateMeasurement handles POST /measurements
func (h *Handler) CreateMeasurement(c *gin.Context) {
	var request domain.CreateMeasurementRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindError(c, err)
		return
	}

	record, err := h.measurements.Create(c.Request.Context(), currentUser(c), &request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// ListMeasurements handles GET /measurements
func (h *Handler) ListMeasurements(c *gin.Context) {
	records, err := h.measurements.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetMeasurement handles GET /measurements/:id
func (h *Handler) GetMeasurement(c *gin.Context) {
	record, err := h.measurements.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteMeasurement handles DELETE /measurements/:id
func (h *Handler) DeleteMeasurement(c *gin.Context) {
	if err := h.measurements.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PredictCrop handles POST /predict/crop
func (h *Handler) PredictCrop(c *gin.Context) {
	var request domain.PredictCropRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindError(c, err)
		return
	}

	rec, err := h.advisory.RecommendCrop(c.Request.Context(), currentUser(c), request.SoilDataID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// PredictFertilizer handles POST /predict/fertilizer
func (h *Handler) PredictFertilizer(c *gin.Context) {
	var request domain.PredictForCropRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindError(c, err)
		return
	}

	plan, err := h.advisory.RecommendFertilizer(c.Request.Context(), currentUser(c), request.SoilDataID, request.Crop)
	if err != nil {
		respondError(c, err)
		return
	}

	profile := defaultProfileName
	if target, ok := domain.LookupNutrientTarget(strings.TrimSpace(request.Crop)); ok {
		profile = target.Crop
	}
	c.Header(referenceProfileHeader, profile)
	c.JSON(http.StatusOK, plan)
}

// PredictYield handles POST /predict/yield
func (h *Handler) PredictYield(c *gin.Context) {
	var request domain.PredictForCropRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindError(c, err)
		return
	}

	estimate, err := h.advisory.EstimateYield(c.Request.Context(), currentUser(c), request.SoilDataID, request.Crop)
	if err != nil {
		respondError(c, err)
		return
	}

	profile, _ := domain.LookupYieldProfile(strings.TrimSpace(request.Crop))
	c.Header(referenceProfileHeader, profile.Crop)
	c.JSON(http.StatusOK, estimate)
}

// History handles GET /history
func (h *Handler) History(c *gin.Context) {
	entries, err := h.advisory.History(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
