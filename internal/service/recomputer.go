package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/logging"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/metrics"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/repository"
	"github.com/thermalgrid/heatindex-analytics-worker/tools/period"
)

// RecomputerConfig holds the recomputer's dependencies.
type RecomputerConfig struct {
	Repo   *repository.Repository
	Logger *zap.Logger
	Now    func() time.Time // nil means time.Now
}

// Recomputer is the reconciliation path: it rebuilds the weekly, monthly and
// yearly summaries purely from the persisted daily summaries, overwriting
// whatever the incremental path has accumulated. Fully idempotent and safe
// to retry or to run concurrently with ingest (last write wins).
type Recomputer struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewRecomputer creates a rollup recomputer.
func NewRecomputer(cfg RecomputerConfig) *Recomputer {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Recomputer{repo: cfg.Repo, logger: cfg.Logger, now: now}
}

// Recompute rebuilds the week, month and year containing refDate for one
// sensor. A zero refDate means now. The three period writes run concurrently
// (independent keys); a failure in one section does not stop the others, and
// the combined error is reported with no partial-commit guarantee.
func (r *Recomputer) Recompute(ctx context.Context, sensorID string, refDate time.Time) error {
	if refDate.IsZero() {
		refDate = r.now()
	}
	refDate = refDate.In(period.Location)

	logger := logging.WithSensorID(r.logger, sensorID)
	logger.Info("recomputing rollups",
		zap.String("week", period.WeekToken(refDate)),
		zap.String("month", period.MonthToken(refDate)),
		zap.String("year", period.YearToken(refDate)),
	)

	var (
		mu       sync.Mutex
		werr     error
		weekDays map[string]*model.PeriodSummary
		wg       sync.WaitGroup
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		werr = multierr.Append(werr, err)
		mu.Unlock()
		logger.Error("rollup section failed", zap.Error(err))
		metrics.WriteFailures.Inc()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		days, err := r.recomputeWeek(ctx, sensorID, refDate)
		if err != nil {
			record(err)
			return
		}
		mu.Lock()
		weekDays = days
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		record(r.recomputeMonth(ctx, sensorID, refDate))
	}()
	go func() {
		defer wg.Done()
		record(r.recomputeYear(ctx, sensorID, refDate))
	}()
	wg.Wait()

	// Independent side-effect pass: mirror the fetched daily summaries into
	// the daily backfill collection, skipping empty days.
	for _, day := range weekDays {
		if day.DataPointCount == 0 {
			continue
		}
		record(r.repo.UpsertDailyMirror(ctx, day))
	}

	if werr != nil {
		return fmt.Errorf("recompute for sensor %s: %w", sensorID, werr)
	}

	metrics.RecomputeRuns.Inc()
	return nil
}

// reduceSummaries folds valid sub-period summaries into one coarser summary
// as the unweighted arithmetic mean of the sub-period averages: each day (or
// month) contributes equally regardless of how many readings it held.
func reduceSummaries(valid []*model.PeriodSummary) model.PeriodSummary {
	var agg model.PeriodSummary
	for i, s := range valid {
		if i == 0 {
			agg.AvgTemp = s.AvgTemp
			agg.AvgHumidity = s.AvgHumidity
			agg.AvgHeatIndex = s.AvgHeatIndex
			agg.MinTemp = s.MinTemp
			agg.MaxTemp = s.MaxTemp
			agg.MinHumidity = s.MinHumidity
			agg.MaxHumidity = s.MaxHumidity
			agg.MinHeatIndex = s.MinHeatIndex
			agg.MaxHeatIndex = s.MaxHeatIndex
		} else {
			agg.AvgTemp += s.AvgTemp
			agg.AvgHumidity += s.AvgHumidity
			agg.AvgHeatIndex += s.AvgHeatIndex
			agg.MinTemp = min(agg.MinTemp, s.MinTemp)
			agg.MaxTemp = max(agg.MaxTemp, s.MaxTemp)
			agg.MinHumidity = min(agg.MinHumidity, s.MinHumidity)
			agg.MaxHumidity = max(agg.MaxHumidity, s.MaxHumidity)
			agg.MinHeatIndex = min(agg.MinHeatIndex, s.MinHeatIndex)
			agg.MaxHeatIndex = max(agg.MaxHeatIndex, s.MaxHeatIndex)
		}
		agg.DataPointCount += s.DataPointCount
		agg.AlertCount += s.AlertCount
	}

	if n := float64(len(valid)); n > 0 {
		agg.AvgTemp /= n
		agg.AvgHumidity /= n
		agg.AvgHeatIndex /= n
	}
	agg.ValidSubPeriods = len(valid)
	return agg
}

// validOf filters fetched summaries down to the ones that exist and carry
// data, in token order. Missing or empty sub-periods are sensor downtime and
// must not drag the average down.
func validOf(fetched map[string]*model.PeriodSummary, tokens []string) []*model.PeriodSummary {
	valid := make([]*model.PeriodSummary, 0, len(tokens))
	for _, token := range tokens {
		if s, ok := fetched[token]; ok && s.DataPointCount > 0 {
			valid = append(valid, s)
		}
	}
	return valid
}

func (r *Recomputer) recomputeWeek(ctx context.Context, sensorID string, refDate time.Time) (map[string]*model.PeriodSummary, error) {
	days := period.DaysOfWeek(refDate)
	tokens := make([]string, len(days))
	for i, day := range days {
		tokens[i] = period.DayToken(day)
	}

	fetched, err := r.repo.GetDailySummaries(ctx, sensorID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily summaries: %w", err)
	}

	valid := validOf(fetched, tokens)
	summary := reduceSummaries(valid)
	summary.SensorID = sensorID
	summary.PeriodStart = period.WeekStart(refDate)
	end := period.WeekEnd(refDate)
	summary.PeriodEnd = &end
	summary.IsPartial = len(valid) < 7
	summary.UpdatedAt = r.now()
	// Daily summaries carry no alert count, so a recomputed week has none.
	summary.AlertCount = 0

	// Written even with zero valid days: the key's existence tells the
	// downstream consumers the week was processed.
	if err := r.repo.UpsertWeeklySummary(ctx, &summary); err != nil {
		return nil, fmt.Errorf("failed to write weekly summary: %w", err)
	}
	return fetched, nil
}

func (r *Recomputer) recomputeMonth(ctx context.Context, sensorID string, refDate time.Time) error {
	days := period.DaysOfMonth(refDate)
	tokens := make([]string, len(days))
	for i, day := range days {
		tokens[i] = period.DayToken(day)
	}

	fetched, err := r.repo.GetDailySummaries(ctx, sensorID, days)
	if err != nil {
		return fmt.Errorf("failed to fetch daily summaries for month: %w", err)
	}

	valid := validOf(fetched, tokens)
	summary := reduceSummaries(valid)
	summary.SensorID = sensorID
	summary.PeriodStart = period.MonthStart(refDate)
	summary.IsPartial = len(valid) < period.DaysInMonth(refDate)
	summary.UpdatedAt = r.now()
	summary.AlertCount = 0

	if err := r.repo.UpsertMonthlySummary(ctx, &summary); err != nil {
		return fmt.Errorf("failed to write monthly summary: %w", err)
	}
	return nil
}

func (r *Recomputer) recomputeYear(ctx context.Context, sensorID string, refDate time.Time) error {
	months := period.MonthsOfYear(refDate)
	tokens := make([]string, len(months))
	for i, month := range months {
		tokens[i] = period.MonthToken(month)
	}

	// The yearly level reduces over monthly summaries, not daily ones.
	fetched, err := r.repo.GetMonthlySummaries(ctx, sensorID, months)
	if err != nil {
		return fmt.Errorf("failed to fetch monthly summaries: %w", err)
	}

	valid := validOf(fetched, tokens)
	summary := reduceSummaries(valid)
	summary.SensorID = sensorID
	summary.PeriodStart = period.YearStart(refDate)
	summary.IsPartial = len(valid) < 12
	summary.UpdatedAt = r.now()

	if err := r.repo.UpsertYearlySummary(ctx, &summary); err != nil {
		return fmt.Errorf("failed to write yearly summary: %w", err)
	}
	return nil
}
