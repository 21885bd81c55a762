package metrics

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"proptrack/server/config"
	"proptrack/server/internal/models"
	"proptrack/server/internal/timeadjust"
)

// Store supplies sale data to the engine. Filters are typed values
// evaluated by the store; the engine never builds query strings.
type Store interface {
	PeriodPrices(filter models.SegmentFilter, start, end time.Time) ([]int, error)
	VerifiedComparables(filter models.SegmentFilter) ([]models.Sale, error)
}

// Thresholds are the minimum sample sizes for each fallback period.
type Thresholds struct {
	Monthly   int
	Quarterly int
	SixMonth  int
}

func DefaultThresholds() Thresholds {
	return Thresholds{Monthly: 3, Quarterly: 5, SixMonth: 8}
}

// GrowthRates carries the annual growth assumption and the offsets
// that form the conservative/optimistic confidence band.
type GrowthRates struct {
	Default            float64
	ConservativeOffset float64
	OptimisticOffset   float64
}

func DefaultGrowthRates() GrowthRates {
	return GrowthRates{Default: 0.07, ConservativeOffset: 0.02, OptimisticOffset: 0.03}
}

// Engine computes segment metrics from the sale store. Each segment's
// computation is independent; the engine holds no mutable state.
type Engine struct {
	store      Store
	registry   *config.SegmentRegistry
	thresholds Thresholds
	rates      GrowthRates
	logger     *logrus.Logger
}

func NewEngine(store Store, registry *config.SegmentRegistry, thresholds Thresholds, rates GrowthRates, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Engine{
		store:      store,
		registry:   registry,
		thresholds: thresholds,
		rates:      rates,
		logger:     logger,
	}
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// medianPrice returns the interpolated integer median, or nil for an
// empty window.
func medianPrice(prices []int) *int {
	if len(prices) == 0 {
		return nil
	}

	sorted := make([]int, len(prices))
	copy(sorted, prices)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	var median int
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}
	return &median
}

// yoyChange returns the year-over-year percentage change rounded to one
// decimal, or nil when the prior median is missing or zero.
func yoyChange(current, prior *int) *float64 {
	if current == nil || prior == nil || *prior == 0 {
		return nil
	}
	pct := math.Round(float64(*current-*prior)/float64(*prior)*1000) / 10
	return &pct
}

// ComputeSegmentMetric computes the metric snapshot for one segment at
// a reference date, widening the window from monthly to quarterly to
// six months only when the sample is too thin. Insufficient data is a
// suppressed result, never an error; errors are reserved for store
// failures.
func (e *Engine) ComputeSegmentMetric(code string, referenceDate time.Time) (models.SegmentMetric, error) {
	if referenceDate.IsZero() {
		referenceDate = time.Now()
	}
	monthlyStart := firstOfMonth(referenceDate)

	segment, ok := e.registry.Get(code)
	if !ok {
		// Configuration problem, not a query failure: report it as a
		// suppressed metric without touching the store.
		return models.SegmentMetric{
			Segment:           code,
			DisplayName:       code,
			PeriodStart:       monthlyStart,
			PeriodEnd:         referenceDate,
			PeriodType:        models.PeriodMonthly,
			IsSuppressed:      true,
			SuppressionReason: fmt.Sprintf("segment %q is not configured", code),
		}, nil
	}

	if segment.MetadataBasket {
		return models.SegmentMetric{
			Segment:           code,
			DisplayName:       segment.Name,
			PeriodStart:       monthlyStart,
			PeriodEnd:         referenceDate,
			PeriodType:        models.PeriodMonthly,
			IsSuppressed:      true,
			SuppressionReason: "comp basket requires enrichment metadata",
		}, nil
	}

	filter := segment.Filter()

	// Narrowest window first: recency beats sample size, widening is a
	// fallback of last resort.
	windows := []struct {
		start      time.Time
		periodType string
		minSample  int
	}{
		{monthlyStart, models.PeriodMonthly, e.thresholds.Monthly},
		{firstOfMonth(referenceDate.AddDate(0, 0, -90)), models.PeriodQuarterly, e.thresholds.Quarterly},
		{firstOfMonth(referenceDate.AddDate(0, 0, -180)), models.PeriodSixMonth, e.thresholds.SixMonth},
	}

	var prices []int
	for _, w := range windows {
		var err error
		prices, err = e.store.PeriodPrices(filter, w.start, referenceDate)
		if err != nil {
			return models.SegmentMetric{}, fmt.Errorf("failed to query %s window for %s: %w", w.periodType, code, err)
		}

		if len(prices) >= w.minSample {
			return e.computeWithPeriod(segment, filter, w.start, referenceDate, prices, w.periodType)
		}
	}

	return models.SegmentMetric{
		Segment:           code,
		DisplayName:       segment.Name,
		PeriodStart:       monthlyStart,
		PeriodEnd:         referenceDate,
		PeriodType:        models.PeriodMonthly,
		SampleSize:        len(prices),
		IsSuppressed:      true,
		SuppressionReason: fmt.Sprintf("insufficient sample size: %d < %d", len(prices), e.thresholds.SixMonth),
	}, nil
}

// computeWithPeriod fills in the metric once a window has passed its
// sample threshold.
func (e *Engine) computeWithPeriod(
	segment config.Segment,
	filter models.SegmentFilter,
	periodStart, referenceDate time.Time,
	prices []int,
	periodType string,
) (models.SegmentMetric, error) {
	median := medianPrice(prices)

	// Same window shifted back one calendar year for YoY.
	priorPrices, err := e.store.PeriodPrices(filter, periodStart.AddDate(-1, 0, 0), referenceDate.AddDate(-1, 0, 0))
	if err != nil {
		return models.SegmentMetric{}, fmt.Errorf("failed to query prior-year window for %s: %w", segment.Code, err)
	}
	yoy := yoyChange(median, medianPrice(priorPrices))

	// The rolling median is always a quarter-wide snapshot, regardless
	// of which fallback period was chosen above.
	rollingStart := firstOfMonth(referenceDate.AddDate(0, 0, -90))
	rollingPrices, err := e.store.PeriodPrices(filter, rollingStart, referenceDate)
	if err != nil {
		return models.SegmentMetric{}, fmt.Errorf("failed to query rolling window for %s: %w", segment.Code, err)
	}

	metric := models.SegmentMetric{
		Segment:         segment.Code,
		DisplayName:     segment.Name,
		PeriodStart:     periodStart,
		PeriodEnd:       referenceDate,
		PeriodType:      periodType,
		MedianPrice:     median,
		SampleSize:      len(prices),
		YoYPct:          yoy,
		RollingMedian3M: medianPrice(rollingPrices),
		RollingSample3M: len(rollingPrices),
		Dispersion:      dispersion(prices),
	}

	e.applyTimeAdjustment(segment, filter, firstOfMonth(referenceDate), &metric)

	return metric, nil
}

// applyTimeAdjustment overlays the time-adjusted estimate when the
// segment has verified comparables. Verified, manually-reviewed sales
// are trusted over the raw windowed sample, so the weighted median
// becomes the headline value. The estimate spans the full verified
// history, not the fallback window.
func (e *Engine) applyTimeAdjustment(segment config.Segment, filter models.SegmentFilter, referenceDate time.Time, metric *models.SegmentMetric) {
	comparables, err := e.store.VerifiedComparables(filter)
	if err != nil {
		e.logger.WithError(err).WithField("segment", segment.Code).Error("Failed to load verified comparables")
		return
	}
	if len(comparables) == 0 {
		return
	}

	baseRate := e.rates.Default
	if segment.GrowthRate != nil {
		baseRate = *segment.GrowthRate
	}

	estimate := timeadjust.Estimate(
		comparables,
		referenceDate,
		baseRate,
		baseRate-e.rates.ConservativeOffset,
		baseRate+e.rates.OptimisticOffset,
	)

	weighted := estimate.WeightedMedian
	low := estimate.ConservativeMedian
	high := estimate.OptimisticMedian

	metric.MedianPrice = &weighted
	metric.TimeAdjustedMedian = &weighted
	metric.TimeAdjustedLow = &low
	metric.TimeAdjustedHigh = &high
	metric.VerifiedSampleSize = estimate.SampleSize
}

// ComputeAll computes metrics for every configured segment, skipping
// comp baskets. Store failures for one segment are logged and do not
// stop the run.
func (e *Engine) ComputeAll(referenceDate time.Time) map[string]models.SegmentMetric {
	results := make(map[string]models.SegmentMetric)

	for _, code := range e.registry.Codes() {
		if segment, ok := e.registry.Get(code); ok && segment.MetadataBasket {
			continue
		}

		metric, err := e.ComputeSegmentMetric(code, referenceDate)
		if err != nil {
			e.logger.WithError(err).WithField("segment", code).Error("Failed to compute segment metric")
			continue
		}
		results[code] = metric
	}

	return results
}
