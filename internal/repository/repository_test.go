package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/repository"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/store"
	"github.com/thermalgrid/heatindex-analytics-worker/tools/period"
)

func localDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, period.Location)
}

func TestDocKey(t *testing.T) {
	assert.Equal(t, "sensor-1_2026-04-08", repository.DocKey("sensor-1", "2026-04-08"))
}

func TestSummaryKeyFormats(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	repo := repository.New(docs)

	day := localDay(2026, 4, 8) // Wednesday
	summary := &model.PeriodSummary{SensorID: "sensor-1", PeriodStart: day, DataPointCount: 1}

	require.NoError(t, repo.UpsertDailySummary(ctx, summary))
	require.NoError(t, repo.UpsertWeeklySummary(ctx, summary))
	require.NoError(t, repo.UpsertMonthlySummary(ctx, summary))
	require.NoError(t, repo.UpsertYearlySummary(ctx, summary))

	assert.Equal(t, []string{"sensor-1_2026-04-08"}, docs.Keys(repository.CollectionDailySummary))
	assert.Equal(t, []string{"sensor-1_2026-04-06_to_2026-04-12"}, docs.Keys(repository.CollectionWeeklySummary))
	assert.Equal(t, []string{"sensor-1_2026-04"}, docs.Keys(repository.CollectionMonthlySummary))
	assert.Equal(t, []string{"sensor-1_2026"}, docs.Keys(repository.CollectionYearlySummary))
}

func TestGetDailySummaryAbsentIsNil(t *testing.T) {
	repo := repository.New(store.NewMemoryStore())

	got, err := repo.GetDailySummary(context.Background(), "sensor-1", localDay(2026, 4, 8))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetDailySummariesBatch(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	repo := repository.New(docs)

	days := []time.Time{localDay(2026, 4, 6), localDay(2026, 4, 7), localDay(2026, 4, 8)}
	for _, day := range []time.Time{days[0], days[2]} {
		require.NoError(t, repo.UpsertDailySummary(ctx, &model.PeriodSummary{
			SensorID:       "sensor-1",
			PeriodStart:    day,
			DataPointCount: 5,
		}))
	}

	got, err := repo.GetDailySummaries(ctx, "sensor-1", days)
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Contains(t, got, "2026-04-06")
	assert.NotContains(t, got, "2026-04-07")
	assert.Contains(t, got, "2026-04-08")
}

func TestGetSensorUnregistered(t *testing.T) {
	repo := repository.New(store.NewMemoryStore())

	_, err := repo.GetSensor(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegisterAndGetSensor(t *testing.T) {
	ctx := context.Background()
	repo := repository.New(store.NewMemoryStore())

	require.NoError(t, repo.RegisterSensor(ctx, &model.Sensor{SensorID: "sensor-1", Name: "rooftop"}))

	got, err := repo.GetSensor(ctx, "sensor-1")
	require.NoError(t, err)
	assert.Equal(t, "rooftop", got.Name)
}
