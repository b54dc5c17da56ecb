package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/oilfield/internal/config"
	"github.com/smallbiznis/oilfield/internal/tank/domain"
	"github.com/smallbiznis/oilfield/internal/tank/repository"
	"github.com/smallbiznis/oilfield/internal/tank/service"
	"github.com/smallbiznis/oilfield/internal/tanklock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(domain.Models()...))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{AppName: "oilfield", Environment: "test"}
	tankSvc := service.New(service.Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Store:  repository.Provide(node),
		Locker: tanklock.NewLocal(),
		Config: config.NewStaticReconcileConfigHolder(config.DefaultReconcileConfig()),
	})

	return NewServer(ServerParams{
		Gin:     NewEngine(cfg, zap.NewNop(), nil),
		Cfg:     cfg,
		TankSvc: tankSvc,
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorPayload   `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func TestReadingLifecycleOverHTTP(t *testing.T) {
	s := setupServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/tanks", gin.H{"name": "North 1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tank domain.TankResponse
	decode(t, w, &tank)
	assert.Equal(t, "North 1", tank.Name)
	assert.Equal(t, "1.67", tank.ConversionFactor.String())

	w = doJSON(t, s, http.MethodPut, "/api/tanks/"+tank.ID+"/readings", gin.H{"date": "2000-01-01", "gauge_inch": "6"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPut, "/api/tanks/"+tank.ID+"/readings", gin.H{"date": "2000-01-03", "gauge_inch": 8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reading domain.Reading
	decode(t, w, &reading)
	require.NotNil(t, reading.OilProduction)
	assert.Equal(t, "1.67", reading.OilProduction.String())

	w = doJSON(t, s, http.MethodGet, "/api/tanks/"+tank.ID+"/readings/relevant?from=2000-01-01&to=2000-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var relevant []domain.Reading
	decode(t, w, &relevant)
	assert.Len(t, relevant, 3)

	w = doJSON(t, s, http.MethodGet, "/api/tanks/"+tank.ID+"/cumulative?date=2000-01-03", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var total cumulativeResponse
	decode(t, w, &total)
	assert.Equal(t, "3.34", total.Total.String())

	w = doJSON(t, s, http.MethodGet, "/api/readings/"+reading.ID.String()+"/cumulative", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &total)
	assert.Equal(t, "3.34", total.Total.String())

	w = doJSON(t, s, http.MethodPut, "/api/tanks/"+tank.ID+"/run-tickets", gin.H{
		"date":             "2000-01-03",
		"top_gauge_inch":   "10",
		"final_gauge_inch": "6",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodDelete, "/api/readings/"+reading.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestValidationErrorsOverHTTP(t *testing.T) {
	s := setupServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/tanks", gin.H{"name": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Type)
	assert.Equal(t, "name", env.Error.Errors[0].Field)

	w = doJSON(t, s, http.MethodGet, "/api/tanks/not-a-number", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env = decode(t, w, nil)
	assert.Equal(t, "invalid_id", env.Error.Errors[0].Code)
	assert.Equal(t, "id", env.Error.Errors[0].Field)

	w = doJSON(t, s, http.MethodGet, "/api/tanks/123/cumulative", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env = decode(t, w, nil)
	assert.Equal(t, "date", env.Error.Errors[0].Field)

	w = doJSON(t, s, http.MethodGet, "/api/tanks/123/readings/relevant?from=yesterday", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/wells", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFoundOverHTTP(t *testing.T) {
	s := setupServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/tanks/1234", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, "not_found", env.Error.Type)

	w = doJSON(t, s, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWellsAndConnectedTanksOverHTTP(t *testing.T) {
	s := setupServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/wells", gin.H{"name": "w1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var well domain.Well
	decode(t, w, &well)

	var a, b domain.TankResponse
	w = doJSON(t, s, http.MethodPost, "/api/tanks", gin.H{"name": "A", "well_ids": []string{well.ID.String()}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &a)
	w = doJSON(t, s, http.MethodPost, "/api/tanks", gin.H{"name": "B"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &b)

	w = doJSON(t, s, http.MethodPut, "/api/tanks/"+b.ID+"/wells", gin.H{"well_ids": []string{well.ID.String()}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPatch, "/api/tanks/"+b.ID, gin.H{"lease": "Lease B"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &b)
	assert.Equal(t, "Lease B", b.Lease)

	w = doJSON(t, s, http.MethodGet, "/api/tanks/"+a.ID+"/connected", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var connected []domain.TankResponse
	decode(t, w, &connected)
	ids := []string{}
	for _, tank := range connected {
		ids = append(ids, tank.ID)
	}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}
