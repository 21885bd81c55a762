package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"proptrack/server/config"
	"proptrack/server/internal/gap"
	"proptrack/server/internal/models"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func reportRegistry() *config.SegmentRegistry {
	return config.NewSegmentRegistry([]config.Segment{
		{
			Code:         "revesby_houses",
			Name:         "Revesby Houses",
			Suburbs:      []string{"Revesby"},
			PropertyType: "house",
			IsProxy:      true,
			Description:  "houses on 400-800sqm",
		},
		{
			Code:         "wollstonecraft_units",
			Name:         "Wollstonecraft Units",
			Suburbs:      []string{"Wollstonecraft"},
			PropertyType: "unit",
			IsProxy:      true,
		},
		{
			Code:         "lane_cove_houses",
			Name:         "Lane Cove Houses",
			Suburbs:      []string{"Lane Cove"},
			PropertyType: "house",
			IsTarget:     true,
		},
	})
}

func reportData() ReportData {
	revesby := models.SegmentMetric{
		Segment:     "revesby_houses",
		DisplayName: "Revesby Houses",
		PeriodType:  models.PeriodMonthly,
		MedianPrice: intPtr(950_000),
		YoYPct:      floatPtr(5.6),
		SampleSize:  12,
	}
	wollstonecraft := models.SegmentMetric{
		Segment:           "wollstonecraft_units",
		DisplayName:       "Wollstonecraft Units",
		IsSuppressed:      true,
		SuppressionReason: "insufficient sample size: 4 < 8",
	}
	laneCove := models.SegmentMetric{
		Segment:     "lane_cove_houses",
		DisplayName: "Lane Cove Houses",
		PeriodType:  models.PeriodQuarterly,
		MedianPrice: intPtr(1_860_000),
		YoYPct:      floatPtr(4.0),
		SampleSize:  9,
	}

	tracker := gap.ComputeTracker(
		[]models.SegmentMetric{revesby, wollstonecraft},
		laneCove,
	)

	cfg := &config.Config{}
	cfg.Finance.SavingsBalance = 150_000
	cfg.Finance.MonthlySavings = 5_000
	cfg.Finance.PPORDebt = 400_000
	cfg.Finance.PPORSellingCostRate = 0.02
	cfg.Finance.IPDebt = 600_000
	cfg.Finance.RefinanceLVRCap = 0.80
	cfg.Finance.HaircutBear = 0.90
	cfg.Finance.HaircutBase = 0.95
	cfg.Finance.HaircutBull = 1.00
	cfg.Finance.PurchaseCostRate = 0.01

	affordability := gap.ComputeAffordability(cfg, 950_000, 640_000, 1_860_000)

	return ReportData{
		Metrics: map[string]models.SegmentMetric{
			"revesby_houses":       revesby,
			"wollstonecraft_units": wollstonecraft,
			"lane_cove_houses":     laneCove,
		},
		Tracker:          tracker,
		Affordability:    affordability,
		HasAffordability: true,
		Now:              time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestFormatReport_Sections(t *testing.T) {
	report := FormatReport(reportRegistry(), reportData())

	assert.Contains(t, report, "<b>Property Report - February 2026 (Fortnight 1)</b>")
	assert.Contains(t, report, "<b>Your Properties</b>")
	assert.Contains(t, report, "<b>Target Markets</b>")
	assert.Contains(t, report, "<b>Gap Tracker</b>")
	assert.Contains(t, report, "<b>Affordability Gap</b>")
	assert.Contains(t, report, "<b>Verdict:</b>")
}

func TestFormatReport_MetricLines(t *testing.T) {
	report := FormatReport(reportRegistry(), reportData())

	assert.Contains(t, report, "• Revesby Houses: $950,000 (+5.6%, n=12)")
	assert.Contains(t, report, "  Filtered: houses on 400-800sqm")

	// Suppressed segments show the reason instead of numbers
	assert.Contains(t, report, "• Wollstonecraft Units: Insufficient data (insufficient sample size: 4 < 8)")

	// Fallback periods are annotated
	assert.Contains(t, report, "• Lane Cove Houses: $1,860,000 (+4.0%, n=9) (quarterly)")
}

func TestFormatReport_TrackerSection(t *testing.T) {
	report := FormatReport(reportRegistry(), reportData())

	// 950,000 * 5.6% = 53,200 vs 1,860,000 * 4.0% = 74,400
	assert.Contains(t, report, "Your assets this year: +$53,200")
	assert.Contains(t, report, "Target (Lane Cove Houses): +$74,400")
	assert.Contains(t, report, "Falling behind by $21,200/year")
}

func TestFormatReport_AffordabilitySection(t *testing.T) {
	report := FormatReport(reportRegistry(), reportData())

	assert.Contains(t, report, "Target: Lane Cove Houses @ $1,860,000")
	assert.Contains(t, report, "+ Stamp duty:")
	assert.Contains(t, report, "= Total needed:")
	assert.Contains(t, report, "Your cash (base case):")
	assert.Contains(t, report, "= Total available:")
}

func TestFormatReport_SecondFortnight(t *testing.T) {
	data := reportData()
	data.Now = time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)

	report := FormatReport(reportRegistry(), data)
	assert.Contains(t, report, "(Fortnight 2)")
}

func TestBuildReportData(t *testing.T) {
	data := reportData()

	cfg := &config.Config{}
	cfg.Finance.SavingsBalance = 150_000
	cfg.Finance.MonthlySavings = 5_000
	cfg.Finance.HaircutBear = 0.90
	cfg.Finance.HaircutBase = 0.95
	cfg.Finance.HaircutBull = 1.00
	cfg.Finance.RefinanceLVRCap = 0.80

	built := BuildReportData(cfg, reportRegistry(), data.Metrics, data.Now)

	assert.True(t, built.Tracker.CanCompute)
	assert.Equal(t, "lane_cove_houses", built.Tracker.TargetSegment)
	assert.True(t, built.HasAffordability)
	assert.Equal(t, 1_860_000, built.Affordability.Base.TargetPrice)
	// Revesby houses median feeds the investment property value
	assert.Equal(t, 950_000, built.Affordability.Base.IPProxyValue)
}

func TestBuildReportData_NoTargetMedian(t *testing.T) {
	data := reportData()
	metrics := map[string]models.SegmentMetric{
		"revesby_houses": data.Metrics["revesby_houses"],
		"lane_cove_houses": {
			Segment:      "lane_cove_houses",
			DisplayName:  "Lane Cove Houses",
			IsSuppressed: true,
		},
	}

	built := BuildReportData(&config.Config{}, reportRegistry(), metrics, data.Now)

	assert.False(t, built.HasAffordability)
	assert.False(t, built.Tracker.CanCompute)

	report := FormatReport(reportRegistry(), built)
	assert.NotContains(t, report, "<b>Affordability Gap</b>")
}

func TestFormatMetricLine_AdjustedOverlay(t *testing.T) {
	metric := models.SegmentMetric{
		Segment:            "wollstonecraft_units",
		DisplayName:        "Wollstonecraft Units",
		PeriodType:         models.PeriodMonthly,
		MedianPrice:        intPtr(1_072_290),
		YoYPct:             floatPtr(3.2),
		SampleSize:         6,
		TimeAdjustedMedian: intPtr(1_072_290),
		VerifiedSampleSize: 9,
	}

	line := formatMetricLine(metric, "")
	assert.Contains(t, line, "Adjusted: $1,072,290 (9 verified comps)")
}
