package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/alert"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/api"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/realtime"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/repository"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/service"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/store"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/validator"
	"github.com/thermalgrid/heatindex-analytics-worker/tools/period"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()

	docs := store.NewMemoryStore()
	repo := repository.New(docs)
	require.NoError(t, repo.RegisterSensor(context.Background(), &model.Sensor{SensorID: "sensor-1"}))

	logger := zap.NewNop()
	now := func() time.Time { return time.Date(2026, 4, 8, 12, 0, 0, 0, period.Location) }

	aggregator := service.NewAggregator(service.AggregatorConfig{
		Repo:                  repo,
		Realtime:              realtime.NewStore(realtime.NewMemoryKV()),
		Classifier:            alert.NewClassifier(32, 41, 52),
		Validator:             validator.New(),
		ExpectedDailyReadings: 48,
		Logger:                logger,
		Now:                   now,
	})
	recomputer := service.NewRecomputer(service.RecomputerConfig{
		Repo:   repo,
		Logger: logger,
		Now:    now,
	})

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(aggregator, recomputer, logger), logger))
	t.Cleanup(srv.Close)
	return srv, docs
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIngestEndpoint(t *testing.T) {
	srv, docs := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid reading", `{"sensorId":"sensor-1","temperature":30,"humidity":60,"heatIndex":31}`, http.StatusNoContent},
		{"malformed JSON", `{"sensorId":`, http.StatusBadRequest},
		{"missing heatIndex", `{"sensorId":"sensor-1","temperature":30,"humidity":60}`, http.StatusBadRequest},
		{"unknown sensor", `{"sensorId":"ghost","temperature":30,"humidity":60,"heatIndex":31}`, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/v1/readings", tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}

	// Only the accepted reading reached the store.
	assert.Equal(t, []string{"sensor-1_2026-04-08"}, docs.Keys(repository.CollectionDailySummary))
}

func TestIngestEndpointErrorBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/readings", `{"sensorId":"ghost","temperature":30,"humidity":60,"heatIndex":31}`)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Error, "ghost")
}

func TestRecomputeEndpoint(t *testing.T) {
	srv, docs := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing sensorId", `{}`, http.StatusBadRequest},
		{"bad mockDate", `{"sensorId":"sensor-1","mockDate":"April 8"}`, http.StatusBadRequest},
		{"ok with mockDate", `{"sensorId":"sensor-1","mockDate":"2026-04-08"}`, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/v1/rollup", tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}

	// The successful run left the week placeholder behind.
	assert.Equal(t, []string{"sensor-1_2026-04-06_to_2026-04-12"}, docs.Keys(repository.CollectionWeeklySummary))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
