package telegram

import (
	"fmt"
	"strings"
	"time"

	"proptrack/server/config"
	"proptrack/server/internal/gap"
	"proptrack/server/internal/models"
)

// ReportData bundles everything the fortnightly report needs.
type ReportData struct {
	Metrics       map[string]models.SegmentMetric
	Tracker       gap.TrackerResult
	Affordability gap.AffordabilityResult

	// False when the target median was unavailable, which leaves
	// nothing to price the move against.
	HasAffordability bool

	Now time.Time
}

// BuildReportData assembles tracker and affordability results from a
// metrics run. The first configured target segment anchors both the
// gap comparison and the affordability analysis; the owned house and
// unit medians stand in for the investment property and home values.
func BuildReportData(cfg *config.Config, registry *config.SegmentRegistry, metricsByCode map[string]models.SegmentMetric, now time.Time) ReportData {
	var proxies []models.SegmentMetric
	ipValue, pporValue := 0, 0

	for _, segment := range registry.Proxies() {
		metric, ok := metricsByCode[segment.Code]
		if !ok {
			continue
		}
		proxies = append(proxies, metric)

		if metric.MedianPrice == nil {
			continue
		}
		switch segment.PropertyType {
		case "house":
			if ipValue == 0 {
				ipValue = *metric.MedianPrice
			}
		case "unit":
			if pporValue == 0 {
				pporValue = *metric.MedianPrice
			}
		}
	}

	var target models.SegmentMetric
	if targets := registry.Targets(); len(targets) > 0 {
		var ok bool
		target, ok = metricsByCode[targets[0].Code]
		if !ok {
			target = models.SegmentMetric{
				Segment:           targets[0].Code,
				DisplayName:       targets[0].Name,
				IsSuppressed:      true,
				SuppressionReason: "no metrics computed",
			}
		}
	}

	data := ReportData{
		Metrics: metricsByCode,
		Tracker: gap.ComputeTracker(proxies, target),
		Now:     now,
	}

	if target.MedianPrice != nil && *target.MedianPrice > 0 {
		data.Affordability = gap.ComputeAffordability(cfg, ipValue, pporValue, *target.MedianPrice)
		data.HasAffordability = true
	}

	return data
}

// FormatReport renders the full fortnightly report as Telegram HTML.
// Sections: owned properties, target markets, gap tracker,
// affordability gap, and a one-line verdict.
func FormatReport(registry *config.SegmentRegistry, data ReportData) string {
	now := data.Now
	if now.IsZero() {
		now = time.Now()
	}

	fortnight := "1"
	if now.Day() > 15 {
		fortnight = "2"
	}

	lines := []string{
		fmt.Sprintf("<b>Property Report - %s (Fortnight %s)</b>", now.Format("January 2006"), fortnight),
		"",
		"<b>Your Properties</b>",
	}

	for _, segment := range registry.Proxies() {
		if metric, ok := data.Metrics[segment.Code]; ok {
			lines = append(lines, formatMetricLine(metric, segment.Description))
		}
	}

	lines = append(lines, "", "<b>Target Markets</b>")
	for _, segment := range registry.Targets() {
		if metric, ok := data.Metrics[segment.Code]; ok {
			lines = append(lines, formatMetricLine(metric, ""))
		}
	}

	lines = append(lines, "", "<b>Gap Tracker</b>")
	lines = append(lines, formatTrackerSection(data.Tracker)...)

	if data.HasAffordability {
		lines = append(lines, "", "<b>Affordability Gap</b>")
		lines = append(lines, formatAffordabilitySection(data.Affordability, data.Tracker.TargetDisplayName)...)
	}

	lines = append(lines, "", fmt.Sprintf("<b>Verdict:</b> %s", verdict(data)))

	return strings.Join(lines, "\n")
}

func formatMetricLine(metric models.SegmentMetric, description string) string {
	label := metric.DisplayName
	if label == "" {
		label = metric.Segment
	}

	if metric.IsSuppressed {
		return fmt.Sprintf("• %s: Insufficient data (%s)", label, metric.SuppressionReason)
	}

	median := "N/A"
	if metric.MedianPrice != nil {
		median = gap.FormatCurrency(*metric.MedianPrice)
	}

	yoy := "N/A"
	if metric.YoYPct != nil {
		yoy = fmt.Sprintf("%+.1f%%", *metric.YoYPct)
	}

	periodNote := ""
	if metric.PeriodType != models.PeriodMonthly {
		periodNote = fmt.Sprintf(" (%s)", metric.PeriodType)
	}

	line := fmt.Sprintf("• %s: %s (%s, n=%d)%s", label, median, yoy, metric.SampleSize, periodNote)

	if metric.TimeAdjustedMedian != nil {
		line += fmt.Sprintf("\n  Adjusted: %s (%d verified comps)",
			gap.FormatCurrency(*metric.TimeAdjustedMedian), metric.VerifiedSampleSize)
	}

	if description != "" {
		line += fmt.Sprintf("\n  Filtered: %s", description)
	}

	return line
}

func formatTrackerSection(tracker gap.TrackerResult) []string {
	if !tracker.CanCompute {
		lines := []string{"Cannot compute (insufficient data)"}
		for _, note := range tracker.ComputationNotes {
			lines = append(lines, fmt.Sprintf("  • %s", note))
		}
		return lines
	}

	var lines []string

	if tracker.ProxyTotalChange != nil {
		lines = append(lines, fmt.Sprintf("Your assets this year: %s", gap.FormatSignedCurrency(*tracker.ProxyTotalChange)))

		var parts []string
		for _, entry := range tracker.ProxyBreakdown {
			if entry.Change != nil {
				// Drop parenthetical qualifiers for the short form
				name := strings.SplitN(entry.DisplayName, " (", 2)[0]
				parts = append(parts, fmt.Sprintf("%s %s", name, gap.FormatSignedCurrency(*entry.Change)))
			}
		}
		if len(parts) > 0 {
			lines = append(lines, fmt.Sprintf("  (%s)", strings.Join(parts, ", ")))
		}
	}

	if tracker.TargetChange != nil {
		lines = append(lines, fmt.Sprintf("Target (%s): %s", tracker.TargetDisplayName, gap.FormatSignedCurrency(*tracker.TargetChange)))
	}

	lines = append(lines, strings.Repeat("━", 32))

	if *tracker.IsCatchingUp {
		lines = append(lines, fmt.Sprintf("Catching up by %s/year", gap.FormatCurrency(*tracker.NetPosition)))
	} else {
		lines = append(lines, fmt.Sprintf("Falling behind by %s/year", gap.FormatCurrency(-*tracker.NetPosition)))
	}

	return lines
}

func formatAffordabilitySection(affordability gap.AffordabilityResult, targetName string) []string {
	base := affordability.Base

	lines := []string{
		fmt.Sprintf("Target: %s @ %s", targetName, gap.FormatCurrency(base.TargetPrice)),
		fmt.Sprintf("+ Stamp duty: %s", gap.FormatCurrency(base.StampDuty)),
		fmt.Sprintf("+ Purchase costs: %s", gap.FormatCurrency(base.PurchaseCosts)),
		fmt.Sprintf("= Total needed: %s", gap.FormatCurrency(base.TotalPurchaseCost)),
		"",
		"Your cash (base case):",
		fmt.Sprintf("- Savings: %s", gap.FormatCurrency(base.SavingsBalance)),
		fmt.Sprintf("- Home sale: %s", gap.FormatCurrency(base.PPORNetProceeds)),
		fmt.Sprintf("- Investment equity: %s", gap.FormatCurrency(base.IPUsableEquity)),
		fmt.Sprintf("= Total available: %s", gap.FormatCurrency(base.TotalCash)),
		"",
	}

	if base.AffordabilityGap <= 0 {
		lines = append(lines, fmt.Sprintf("Gap: %s (AFFORDABLE!)", gap.FormatCurrency(base.AffordabilityGap)))
		return lines
	}

	lines = append(lines, fmt.Sprintf("Gap: %s", gap.FormatCurrency(base.AffordabilityGap)))

	if affordability.MonthsToCloseGap != nil {
		total := *affordability.MonthsToCloseGap
		years, months := total/12, total%12
		if years > 0 {
			lines = append(lines, fmt.Sprintf("~%dy %dm at %s/month savings", years, months, gap.FormatCurrency(base.MonthlySavings)))
		} else {
			lines = append(lines, fmt.Sprintf("~%d months at %s/month savings", total, gap.FormatCurrency(base.MonthlySavings)))
		}
	}

	return lines
}

func verdict(data ReportData) string {
	var parts []string

	tracker := data.Tracker
	if tracker.CanCompute {
		switch {
		case *tracker.IsCatchingUp && *tracker.NetPosition > 50_000:
			parts = append(parts, "Strong progress")
		case *tracker.IsCatchingUp:
			parts = append(parts, "Gaining ground")
		case -*tracker.NetPosition > 50_000:
			parts = append(parts, "Gap widening")
		default:
			parts = append(parts, "Slight headwind")
		}
	}

	if data.HasAffordability {
		affordability := data.Affordability
		if affordability.IsAffordable {
			parts = append(parts, "target is affordable now")
		} else if affordability.MonthsToCloseGap != nil {
			years := *affordability.MonthsToCloseGap / 12
			if years > 10 {
				parts = append(parts, "long road ahead")
			} else {
				parts = append(parts, fmt.Sprintf("~%d years to target", years))
			}
		}
	}

	if len(parts) == 0 {
		return "Insufficient data for verdict."
	}
	return strings.Join(parts, ". ") + "."
}
