package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cropadvisor/backend/config"
	"github.com/cropadvisor/backend/internal/domain"
	"github.com/cropadvisor/backend/internal/infrastructure/auth"
	"github.com/cropadvisor/backend/internal/infrastructure/metrics"
	"github.com/cropadvisor/backend/internal/infrastructure/persistence/memory"
	"github.com/cropadvisor/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

// mockCacheRepository is a mock implementation of domain.CacheRepository
type mockCacheRepository struct {
	data map[string]interface{}
}

func newMockCacheRepository() *mockCacheRepository {
	return &mockCacheRepository{data: make(map[string]interface{})}
}

func (m *mockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *mockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Auth:  config.AuthConfig{JWTSecret: "test-secret", Issuer: "cropadvisor", TokenTTL: time.Hour},
		Store: config.StoreConfig{Driver: "memory"},
	}
}

// setupTestRouter wires the real services over the in-memory store
func setupTestRouter(t *testing.T) (*gin.Engine, *metrics.Metrics) {
	t.Helper()
	cfg := testConfig()

	store := memory.NewStore()
	tokens, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	require.NoError(t, err)
	m := metrics.New()

	measurements := usecase.NewMeasurementService(store, newMockCacheRepository(), nil, usecase.MeasurementServiceConfig{})
	handler := NewHandler(
		usecase.NewAuthService(store, tokens, auth.BcryptHasher{Cost: bcrypt.MinCost}, nil),
		measurements,
		usecase.NewAdvisoryService(measurements, store, m, nil),
	)

	router := SetupRouter(cfg, handler, nil, m)
	require.NotNil(t, router)
	return router, m
}

// doJSON performs a request with an optional JSON body and bearer token
func doJSON(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
}

// register creates a user and returns its token
func register(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(router, "POST", "/api/v1/auth/register", "", `{"email":"`+email+`","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session domain.Session
	decode(t, w, &session)
	require.NotEmpty(t, session.Token)
	return session.Token
}

const riceSoil = `{"nitrogen":100,"phosphorus":50,"potassium":50,"ph_level":6.5,"temperature":27,"humidity":85,"rainfall":200,"location":"Delta plot"}`

// createMeasurement stores a measurement and returns its id
func createMeasurement(t *testing.T, router *gin.Engine, token, body string) string {
	t.Helper()
	w := doJSON(router, "POST", "/api/v1/measurements", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var record domain.MeasurementRecord
	decode(t, w, &record)
	return record.ID
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := doJSON(router, "GET", "/health", "", "")
		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		decode(t, w, &response)
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "cropadvisor-backend" {
			t.Errorf("service = %v, want cropadvisor-backend", response["service"])
		}
		version, ok := response["version"].(string)
		if !ok || strings.TrimSpace(version) == "" {
			t.Errorf("version = %v, want non-empty string", response["version"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := doJSON(router, method, "/health", "", "")
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestAuthEndpoints(t *testing.T) {
	router, _ := setupTestRouter(t)

	token := register(t, router, "grower@example.com")

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/auth/register", "", `{"email":"GROWER@example.com","password":"secret1"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/auth/register", "", `{"email":"new@example.com","password":"123"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/auth/register", "", `{"email":"new@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("login returns a usable token", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/auth/login", "", `{"email":"grower@example.com","password":"secret1"}`)
		require.Equal(t, http.StatusOK, w.Code)
		var session domain.Session
		decode(t, w, &session)

		list := doJSON(router, "GET", "/api/v1/measurements", session.Token, "")
		assert.Equal(t, http.StatusOK, list.Code)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/auth/login", "", `{"email":"grower@example.com","password":"nope-nope"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("registration token works", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/history", token, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	router, _ := setupTestRouter(t)

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/measurements"},
		{"GET", "/api/v1/measurements"},
		{"GET", "/api/v1/measurements/abc"},
		{"DELETE", "/api/v1/measurements/abc"},
		{"POST", "/api/v1/predict/crop"},
		{"POST", "/api/v1/predict/fertilizer"},
		{"POST", "/api/v1/predict/yield"},
		{"GET", "/api/v1/history"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			for _, token := range []string{"", "not-a-jwt"} {
				w := doJSON(router, endpoint.method, endpoint.path, token, `{"soil_data_id":"abc"}`)
				assert.Equal(t, http.StatusUnauthorized, w.Code)
				assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
			}
		})
	}
}

func TestMeasurementEndpoints(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := register(t, router, "a@example.com")
	other := register(t, router, "b@example.com")

	id := createMeasurement(t, router, token, riceSoil)

	t.Run("get returns the stored reading", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/measurements/"+id, token, "")
		require.Equal(t, http.StatusOK, w.Code)
		var record domain.MeasurementRecord
		decode(t, w, &record)
		assert.Equal(t, 100.0, record.Nitrogen)
		assert.Equal(t, 6.5, record.PH)
		assert.Equal(t, "Delta plot", record.Location)
	})

	t.Run("other users cannot see it", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/measurements/"+id, other, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Soil data not found"}`, w.Body.String())

		w = doJSON(router, "GET", "/api/v1/measurements", other, "")
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("validation errors are bad requests", func(t *testing.T) {
		bad := strings.Replace(riceSoil, `"ph_level":6.5`, `"ph_level":15`, 1)
		w := doJSON(router, "POST", "/api/v1/measurements", token, bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		missing := strings.Replace(riceSoil, `"rainfall":200,`, ``, 1)
		w = doJSON(router, "POST", "/api/v1/measurements", token, missing)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(router, "POST", "/api/v1/measurements", token, `{not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zero readings are accepted", func(t *testing.T) {
		zero := `{"nitrogen":0,"phosphorus":0,"potassium":0,"ph_level":0,"temperature":0,"humidity":0,"rainfall":0}`
		w := doJSON(router, "POST", "/api/v1/measurements", token, zero)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("delete removes it", func(t *testing.T) {
		w := doJSON(router, "DELETE", "/api/v1/measurements/"+id, other, "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(router, "DELETE", "/api/v1/measurements/"+id, token, "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(router, "GET", "/api/v1/measurements/"+id, token, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPredictCropEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := register(t, router, "a@example.com")
	id := createMeasurement(t, router, token, riceSoil)

	t.Run("perfect rice soil", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/predict/crop", token, `{"soil_data_id":"`+id+`"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var rec domain.CropRecommendation
		decode(t, w, &rec)
		assert.Equal(t, domain.CropRice, rec.Crop)
		assert.Equal(t, 1.0, rec.Confidence)
		assert.Len(t, rec.Alternates, 3)
		assert.NotContains(t, rec.Alternates, domain.CropRice)
		assert.Contains(t, rec.Reasoning, "well-suited")
	})

	t.Run("missing or foreign measurement is not found", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/predict/crop", token, `{"soil_data_id":"missing"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(router, "POST", "/api/v1/predict/crop", token, `{}`)
		assert.Equal(t, http.StatusNotFound, w.Code)

		other := register(t, router, "b@example.com")
		w = doJSON(router, "POST", "/api/v1/predict/crop", other, `{"soil_data_id":"`+id+`"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("metrics count recommendations", func(t *testing.T) {
		w := doJSON(router, "GET", "/metrics", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `cropadvisor_crop_recommendations_total{crop="Rice"} 1`)
	})
}

func TestPredictFertilizerEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := register(t, router, "a@example.com")
	poor := `{"nitrogen":10,"phosphorus":10,"potassium":10,"ph_level":5.5,"temperature":25,"humidity":60,"rainfall":80}`
	id := createMeasurement(t, router, token, poor)

	t.Run("unknown crop falls back to the default target", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/predict/fertilizer", token, `{"soil_data_id":"`+id+`","crop":"Unknown"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var plan domain.FertilizerPlan
		decode(t, w, &plan)
		assert.Equal(t, usecase.FertilizerNPKComplex, plan.Type)
		assert.Equal(t, "100 kg/hectare", plan.Dosage)
		assert.Contains(t, plan.Timing, "lime")
		assert.Equal(t, "default", w.Header().Get("X-Reference-Profile"))
	})

	t.Run("known crop names its profile", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/predict/fertilizer", token, `{"soil_data_id":"`+id+`","crop":"Rice"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Rice", w.Header().Get("X-Reference-Profile"))
	})

	t.Run("crop is required", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/predict/fertilizer", token, `{"soil_data_id":"`+id+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPredictYieldEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := register(t, router, "a@example.com")
	wheatOptimal := `{"nitrogen":60,"phosphorus":40,"potassium":40,"ph_level":6.5,"temperature":20,"humidity":60,"rainfall":75}`
	id := createMeasurement(t, router, token, wheatOptimal)

	w := doJSON(router, "POST", "/api/v1/predict/yield", token, `{"soil_data_id":"`+id+`","crop":"Barley"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Wheat", w.Header().Get("X-Reference-Profile"))

	var response map[string]interface{}
	decode(t, w, &response)
	assert.Equal(t, 3.5, response["yield"])
	assert.Equal(t, map[string]interface{}{"lower": 2.98, "upper": 4.03}, response["confidenceInterval"])
	factors, ok := response["factors"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, factors, 7)
	assert.Equal(t, "Excellent", factors["Nitrogen"])
	assert.Equal(t, "Ideal", factors["Rainfall"])
}

func TestHistoryEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := register(t, router, "a@example.com")
	id := createMeasurement(t, router, token, riceSoil)

	require.Equal(t, http.StatusOK, doJSON(router, "POST", "/api/v1/predict/crop", token, `{"soil_data_id":"`+id+`"}`).Code)
	require.Equal(t, http.StatusOK, doJSON(router, "POST", "/api/v1/predict/fertilizer", token, `{"soil_data_id":"`+id+`","crop":"Rice"}`).Code)
	require.Equal(t, http.StatusOK, doJSON(router, "POST", "/api/v1/predict/yield", token, `{"soil_data_id":"`+id+`","crop":"Rice"}`).Code)

	w := doJSON(router, "GET", "/api/v1/history", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	var entries []domain.HistoryEntry
	decode(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CropRice, entries[0].Crop)
	assert.Equal(t, usecase.FertilizerMaintenance, entries[0].Fertilizer)
	assert.Equal(t, 4.5, entries[0].Yield)
	require.NotNil(t, entries[0].SoilData)
	assert.Equal(t, id, entries[0].SoilData.ID)

	// Deleting the measurement removes its history.
	require.Equal(t, http.StatusNoContent, doJSON(router, "DELETE", "/api/v1/measurements/"+id, token, "").Code)
	w = doJSON(router, "GET", "/api/v1/history", token, "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCropsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(router, "GET", "/api/v1/crops", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var profiles []domain.CropProfile
	decode(t, w, &profiles)
	require.Len(t, profiles, 6)
	assert.Equal(t, domain.CropRice, profiles[0].Name)
	assert.Equal(t, "Kharif (Monsoon)", profiles[0].Season)
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	router, _ := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want %q", got, "true")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	router, _ := setupTestRouter(t)

	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := doJSON(router, "GET", "/panic", "", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, path := range []string{"/api/predict/crop", "/predict/crop", "/api/v2/predict/crop"} {
		w := doJSON(router, "POST", path, "", "")
		if w.Code != http.StatusNotFound {
			t.Errorf("Path %s: Status = %d, want %d", path, w.Code, http.StatusNotFound)
		}
	}
}
