package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/store"
	"github.com/thermalgrid/heatindex-analytics-worker/tools/period"
)

// Logical collection names, preserved for compatibility with the dashboard
// consumers that read them.
const (
	CollectionSensors        = "sensors"
	CollectionDailySummary   = "analytics_min_max_summary"
	CollectionDailyMirror    = "analytics_daily_summary"
	CollectionWeeklySummary  = "analytics_weekly_summary"
	CollectionMonthlySummary = "analytics_monthly_summary"
	CollectionYearlySummary  = "analytics_yearly_summary"
	CollectionDailyHighs     = "analytics_daily_highs"
	CollectionAlerts         = "alerts"
)

// DocKey builds the composite document key {sensorId}_{periodToken}.
func DocKey(sensorID, token string) string {
	return sensorID + "_" + token
}

// Repository provides typed access to the analytics collections over the
// document store.
type Repository struct {
	docs store.DocStore
}

// New creates a repository over the given document store.
func New(docs store.DocStore) *Repository {
	return &Repository{docs: docs}
}

// GetSensor looks a sensor up in the registry. store.ErrNotFound means the
// sensor id is not registered.
func (r *Repository) GetSensor(ctx context.Context, sensorID string) (*model.Sensor, error) {
	raw, err := r.docs.Get(ctx, CollectionSensors, sensorID)
	if err != nil {
		return nil, err
	}

	var sensor model.Sensor
	if err := json.Unmarshal(raw, &sensor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sensor %s: %w", sensorID, err)
	}
	return &sensor, nil
}

// RegisterSensor upserts a sensor registry entry (used by seeding and tests;
// device registration itself lives outside this worker).
func (r *Repository) RegisterSensor(ctx context.Context, sensor *model.Sensor) error {
	return r.docs.Set(ctx, CollectionSensors, sensor.SensorID, sensor)
}

func (r *Repository) getSummary(ctx context.Context, collection, key string) (*model.PeriodSummary, error) {
	raw, err := r.docs.Get(ctx, collection, key)
	if err == store.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var summary model.PeriodSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary %s/%s: %w", collection, key, err)
	}
	return &summary, nil
}

// GetDailySummary fetches the daily running summary for the day containing t,
// (nil, nil) when absent.
func (r *Repository) GetDailySummary(ctx context.Context, sensorID string, t time.Time) (*model.PeriodSummary, error) {
	return r.getSummary(ctx, CollectionDailySummary, DocKey(sensorID, period.DayToken(t)))
}

// GetWeeklySummary fetches the weekly summary for the ISO week containing t.
func (r *Repository) GetWeeklySummary(ctx context.Context, sensorID string, t time.Time) (*model.PeriodSummary, error) {
	return r.getSummary(ctx, CollectionWeeklySummary, DocKey(sensorID, period.WeekToken(t)))
}

// GetMonthlySummary fetches the monthly summary for the month containing t.
func (r *Repository) GetMonthlySummary(ctx context.Context, sensorID string, t time.Time) (*model.PeriodSummary, error) {
	return r.getSummary(ctx, CollectionMonthlySummary, DocKey(sensorID, period.MonthToken(t)))
}

// GetYearlySummary fetches the yearly summary for the year containing t.
func (r *Repository) GetYearlySummary(ctx context.Context, sensorID string, t time.Time) (*model.PeriodSummary, error) {
	return r.getSummary(ctx, CollectionYearlySummary, DocKey(sensorID, period.YearToken(t)))
}

// UpsertDailySummary writes the daily running summary keyed by its period start.
func (r *Repository) UpsertDailySummary(ctx context.Context, s *model.PeriodSummary) error {
	return r.docs.Set(ctx, CollectionDailySummary, DocKey(s.SensorID, period.DayToken(s.PeriodStart)), s)
}

// UpsertWeeklySummary writes the weekly summary under the date-range key.
func (r *Repository) UpsertWeeklySummary(ctx context.Context, s *model.PeriodSummary) error {
	return r.docs.Set(ctx, CollectionWeeklySummary, DocKey(s.SensorID, period.WeekToken(s.PeriodStart)), s)
}

// UpsertMonthlySummary writes the monthly summary.
func (r *Repository) UpsertMonthlySummary(ctx context.Context, s *model.PeriodSummary) error {
	return r.docs.Set(ctx, CollectionMonthlySummary, DocKey(s.SensorID, period.MonthToken(s.PeriodStart)), s)
}

// UpsertYearlySummary writes the yearly summary.
func (r *Repository) UpsertYearlySummary(ctx context.Context, s *model.PeriodSummary) error {
	return r.docs.Set(ctx, CollectionYearlySummary, DocKey(s.SensorID, period.YearToken(s.PeriodStart)), s)
}

// UpsertDailyMirror backfills the daily mirror collection, same key scheme
// as the daily running summary.
func (r *Repository) UpsertDailyMirror(ctx context.Context, s *model.PeriodSummary) error {
	return r.docs.Set(ctx, CollectionDailyMirror, DocKey(s.SensorID, period.DayToken(s.PeriodStart)), s)
}

// UpsertDailyHigh writes the daily-highs secondary record for the day
// containing the record's timestamp.
func (r *Repository) UpsertDailyHigh(ctx context.Context, h *model.DailyHigh) error {
	return r.docs.Set(ctx, CollectionDailyHighs, DocKey(h.SensorID, period.DayToken(h.Timestamp)), h)
}

// InsertAlert appends an alert record under its own id.
func (r *Repository) InsertAlert(ctx context.Context, a *model.AlertRecord) error {
	return r.docs.Set(ctx, CollectionAlerts, a.ID, a)
}

func (r *Repository) getSummaryBatch(ctx context.Context, collection, sensorID string, tokens []string) (map[string]*model.PeriodSummary, error) {
	keys := make([]string, len(tokens))
	for i, token := range tokens {
		keys[i] = DocKey(sensorID, token)
	}

	raw, err := r.docs.GetBatch(ctx, collection, keys)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*model.PeriodSummary, len(raw))
	for i, token := range tokens {
		data, ok := raw[keys[i]]
		if !ok {
			continue
		}
		var summary model.PeriodSummary
		if err := json.Unmarshal(data, &summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary %s/%s: %w", collection, keys[i], err)
		}
		result[token] = &summary
	}
	return result, nil
}

// GetDailySummaries fetches the daily summaries for the given days in one
// batched read, keyed by day token. Absent days are simply missing from the
// result, not an error.
func (r *Repository) GetDailySummaries(ctx context.Context, sensorID string, days []time.Time) (map[string]*model.PeriodSummary, error) {
	tokens := make([]string, len(days))
	for i, day := range days {
		tokens[i] = period.DayToken(day)
	}
	return r.getSummaryBatch(ctx, CollectionDailySummary, sensorID, tokens)
}

// GetMonthlySummaries fetches the monthly summaries for the given month
// starts in one batched read, keyed by month token.
func (r *Repository) GetMonthlySummaries(ctx context.Context, sensorID string, months []time.Time) (map[string]*model.PeriodSummary, error) {
	tokens := make([]string, len(months))
	for i, month := range months {
		tokens[i] = period.MonthToken(month)
	}
	return r.getSummaryBatch(ctx, CollectionMonthlySummary, sensorID, tokens)
}
