package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/alert"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/logging"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/metrics"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/realtime"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/repository"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/store"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/validator"
	"github.com/thermalgrid/heatindex-analytics-worker/tools/period"
)

// AlertPublisher fans a freshly appended alert out to notification consumers.
// Publishing is best-effort; failures never fail the ingest.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, a *model.AlertRecord) error
}

// AggregatorConfig holds the aggregator's dependencies.
type AggregatorConfig struct {
	Repo                  *repository.Repository
	Realtime              *realtime.Store
	Classifier            *alert.Classifier
	Validator             *validator.Validator
	Publisher             AlertPublisher // nil disables fan-out
	ExpectedDailyReadings int            // readings/day for a full day, e.g. 48
	Logger                *zap.Logger
	Now                   func() time.Time // nil means time.Now
}

// Aggregator is the ingest path: one raw reading in, the four granularity
// summaries, daily-highs record, latest-value cache and (conditionally) an
// alert record out. Stateless; all state lives in the injected stores.
type Aggregator struct {
	repo       *repository.Repository
	realtime   *realtime.Store
	classifier *alert.Classifier
	validator  *validator.Validator
	publisher  AlertPublisher
	expected   int
	logger     *zap.Logger
	now        func() time.Time
}

// NewAggregator creates an ingest aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		repo:       cfg.Repo,
		realtime:   cfg.Realtime,
		classifier: cfg.Classifier,
		validator:  cfg.Validator,
		publisher:  cfg.Publisher,
		expected:   cfg.ExpectedDailyReadings,
		logger:     cfg.Logger,
		now:        now,
	}
}

// Ingest processes one raw reading. Validation and registry failures abort
// before any write; after the first write has been issued nothing is rolled
// back, so a downstream failure surfaces as PartialWriteError while the
// applied writes stand. At-least-once delivery is assumed and a redelivered
// reading double-counts.
func (a *Aggregator) Ingest(ctx context.Context, req model.IngestRequest) error {
	reading, err := a.validator.ValidateReading(req, a.now())
	if err != nil {
		return err
	}

	if _, err := a.repo.GetSensor(ctx, reading.SensorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownSensor, reading.SensorID)
		}
		return fmt.Errorf("failed to resolve sensor %s: %w", reading.SensorID, err)
	}

	logger := logging.WithSensorID(a.logger, reading.SensorID)

	var (
		mu    sync.Mutex
		werr  error
		daily *model.PeriodSummary
		wg    sync.WaitGroup
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		werr = multierr.Append(werr, err)
		mu.Unlock()
		logger.Error("summary write failed", zap.Error(err))
		metrics.WriteFailures.Inc()
	}

	// The four granularity keys are independent; one slow write must not
	// chain behind another.
	wg.Add(4)
	go func() {
		defer wg.Done()
		folded, err := a.updateDaily(ctx, reading)
		if err != nil {
			record(err)
			return
		}
		mu.Lock()
		daily = folded
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		record(a.updateWeekly(ctx, reading))
	}()
	go func() {
		defer wg.Done()
		record(a.updateMonthly(ctx, reading))
	}()
	go func() {
		defer wg.Done()
		record(a.updateYearly(ctx, reading))
	}()
	wg.Wait()

	if daily != nil {
		record(a.repo.UpsertDailyHigh(ctx, &model.DailyHigh{
			SensorID:         reading.SensorID,
			Timestamp:        reading.Timestamp,
			HighestTemp:      daily.MaxTemp,
			HighestHumidity:  daily.MaxHumidity,
			HighestHeatIndex: daily.MaxHeatIndex,
		}))
	}

	record(a.updateLatest(ctx, reading))

	if a.classifier.ShouldAlert(reading.HeatIndex) {
		record(a.raiseAlert(ctx, reading))
	}

	if werr != nil {
		return &PartialWriteError{Err: werr}
	}

	metrics.ReadingsIngested.Inc()
	return nil
}

// foldReading applies one reading to a running summary; a nil or empty prev
// starts a fresh baseline at the reading's own values. The incremental mean
// avg' = (avg*(n-1) + x) / n is used for every metric at every granularity.
func foldReading(prev *model.PeriodSummary, r model.RawReading) model.PeriodSummary {
	if prev == nil || prev.DataPointCount == 0 {
		base := model.PeriodSummary{
			SensorID:       r.SensorID,
			DataPointCount: 1,
			AvgTemp:        r.Temperature,
			AvgHumidity:    r.Humidity,
			AvgHeatIndex:   r.HeatIndex,
			MinTemp:        r.Temperature,
			MaxTemp:        r.Temperature,
			MinHumidity:    r.Humidity,
			MaxHumidity:    r.Humidity,
			MinHeatIndex:   r.HeatIndex,
			MaxHeatIndex:   r.HeatIndex,
		}
		if prev != nil {
			base.AlertCount = prev.AlertCount
			base.IsPartial = prev.IsPartial
		}
		return base
	}

	s := *prev
	n := float64(s.DataPointCount + 1)
	s.AvgTemp = (s.AvgTemp*float64(s.DataPointCount) + r.Temperature) / n
	s.AvgHumidity = (s.AvgHumidity*float64(s.DataPointCount) + r.Humidity) / n
	s.AvgHeatIndex = (s.AvgHeatIndex*float64(s.DataPointCount) + r.HeatIndex) / n
	s.DataPointCount++

	s.MinTemp = min(s.MinTemp, r.Temperature)
	s.MaxTemp = max(s.MaxTemp, r.Temperature)
	s.MinHumidity = min(s.MinHumidity, r.Humidity)
	s.MaxHumidity = max(s.MaxHumidity, r.Humidity)
	s.MinHeatIndex = min(s.MinHeatIndex, r.HeatIndex)
	s.MaxHeatIndex = max(s.MaxHeatIndex, r.HeatIndex)
	return s
}

func (a *Aggregator) updateDaily(ctx context.Context, r model.RawReading) (*model.PeriodSummary, error) {
	prev, err := a.repo.GetDailySummary(ctx, r.SensorID, r.Timestamp)
	if err != nil {
		return nil, err
	}

	s := foldReading(prev, r)
	s.PeriodStart = period.DayStart(r.Timestamp)
	s.IsPartial = s.DataPointCount < a.expected
	s.UpdatedAt = a.now()

	if err := a.repo.UpsertDailySummary(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *Aggregator) updateWeekly(ctx context.Context, r model.RawReading) error {
	prev, err := a.repo.GetWeeklySummary(ctx, r.SensorID, r.Timestamp)
	if err != nil {
		return err
	}

	s := foldReading(prev, r)
	s.PeriodStart = period.WeekStart(r.Timestamp)
	end := period.WeekEnd(r.Timestamp)
	s.PeriodEnd = &end
	if a.classifier.ShouldAlert(r.HeatIndex) {
		s.AlertCount++
	}
	// isPartial for weeks is owned by the recomputer, which knows how many
	// days actually contributed; the incremental path leaves it untouched.
	s.UpdatedAt = a.now()

	return a.repo.UpsertWeeklySummary(ctx, &s)
}

func (a *Aggregator) updateMonthly(ctx context.Context, r model.RawReading) error {
	prev, err := a.repo.GetMonthlySummary(ctx, r.SensorID, r.Timestamp)
	if err != nil {
		return err
	}

	s := foldReading(prev, r)
	s.PeriodStart = period.MonthStart(r.Timestamp)
	if a.classifier.ShouldAlert(r.HeatIndex) {
		s.AlertCount++
	}
	s.IsPartial = period.SameMonth(s.PeriodStart, a.now())
	s.UpdatedAt = a.now()

	return a.repo.UpsertMonthlySummary(ctx, &s)
}

func (a *Aggregator) updateYearly(ctx context.Context, r model.RawReading) error {
	prev, err := a.repo.GetYearlySummary(ctx, r.SensorID, r.Timestamp)
	if err != nil {
		return err
	}

	s := foldReading(prev, r)
	s.PeriodStart = period.YearStart(r.Timestamp)
	if a.classifier.ShouldAlert(r.HeatIndex) {
		s.AlertCount++
	}
	s.IsPartial = period.SameYear(s.PeriodStart, a.now())
	s.UpdatedAt = a.now()

	return a.repo.UpsertYearlySummary(ctx, &s)
}

func (a *Aggregator) updateLatest(ctx context.Context, r model.RawReading) error {
	prev, err := a.realtime.Latest(ctx, r.SensorID)
	if err != nil && !errors.Is(err, realtime.ErrCacheMiss) {
		return err
	}

	peak := r.HeatIndex
	if prev != nil && prev.PeakHeatIndex > peak {
		peak = prev.PeakHeatIndex
	}

	return a.realtime.SetLatest(ctx, r.SensorID, &model.LatestReading{
		LastTemperature:      r.Temperature,
		LastHumidity:         r.Humidity,
		LastHeatIndex:        r.HeatIndex,
		LastReadingTimestamp: r.Timestamp,
		LastAlertLevel:       a.classifier.Classify(r.HeatIndex),
		PeakHeatIndex:        peak,
	})
}

func (a *Aggregator) raiseAlert(ctx context.Context, r model.RawReading) error {
	level := a.classifier.Classify(r.HeatIndex)
	record := &model.AlertRecord{
		ID:          uuid.NewString(),
		SensorID:    r.SensorID,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		HeatIndex:   r.HeatIndex,
		AlertType:   level,
		Timestamp:   r.Timestamp,
		Message:     a.classifier.Message(r.SensorID, r.HeatIndex),
		ReceiverID:  r.ReceiverID,
	}

	var werr error
	if err := a.repo.InsertAlert(ctx, record); err != nil {
		werr = multierr.Append(werr, err)
	}

	if err := a.realtime.SetCurrent(ctx, r.SensorID, &model.CurrentReading{
		SensorID:    r.SensorID,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		HeatIndex:   r.HeatIndex,
		AlertLevel:  level,
		Timestamp:   r.Timestamp,
	}); err != nil {
		werr = multierr.Append(werr, err)
	}

	if a.publisher != nil {
		if err := a.publisher.PublishAlert(ctx, record); err != nil {
			// Fan-out is best-effort; notification consumers re-read the
			// alerts collection anyway.
			a.logger.Error("failed to publish alert event",
				zap.Error(err),
				zap.String("sensor_id", r.SensorID),
			)
		}
	}

	if werr == nil {
		metrics.AlertsEmitted.WithLabelValues(string(level)).Inc()
	}
	return werr
}
