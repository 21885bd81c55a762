package gap

import (
	"fmt"
	"strings"

	"proptrack/server/internal/metrics"
	"proptrack/server/internal/models"
)

// ProxyEntry is the per-segment breakdown behind a tracker result.
type ProxyEntry struct {
	Segment      string   `json:"segment"`
	DisplayName  string   `json:"display_name"`
	Median       *int     `json:"median"`
	YoYPct       *float64 `json:"yoy_pct"`
	Change       *int     `json:"change"`
	SampleSize   int      `json:"sample_size"`
	IsSuppressed bool     `json:"is_suppressed"`
}

// TrackerResult says whether the combined owned segments are catching
// up to the target market. Nil fields mean "not computable".
type TrackerResult struct {
	ProxyTotalChange *int         `json:"proxy_total_change"`
	ProxyBreakdown   []ProxyEntry `json:"proxy_breakdown"`

	TargetSegment     string   `json:"target_segment"`
	TargetDisplayName string   `json:"target_display_name"`
	TargetMedian      *int     `json:"target_median"`
	TargetYoY         *float64 `json:"target_yoy"`
	TargetChange      *int     `json:"target_change"`

	// Positive net position means the owned assets gained more dollars
	// over the year than the target market did.
	NetPosition  *int  `json:"net_position"`
	IsCatchingUp *bool `json:"is_catching_up"`

	CanCompute       bool     `json:"can_compute"`
	ComputationNotes []string `json:"computation_notes"`
}

// ComputeTracker sums the year-on-year dollar changes of the proxy
// segments and compares the total against the target segment's change.
// Suppressed or incomplete segments contribute a note instead of a
// number; the comparison runs on whatever remains.
func ComputeTracker(proxies []models.SegmentMetric, target models.SegmentMetric) TrackerResult {
	var notes []string

	breakdown := make([]ProxyEntry, 0, len(proxies))
	proxyTotal := 0
	hasValidProxy := false

	for _, metric := range proxies {
		entry := ProxyEntry{
			Segment:      metric.Segment,
			DisplayName:  displayName(metric),
			Median:       metric.MedianPrice,
			YoYPct:       metric.YoYPct,
			SampleSize:   metric.SampleSize,
			IsSuppressed: metric.IsSuppressed,
		}

		switch {
		case metric.IsSuppressed:
			notes = append(notes, fmt.Sprintf("%s: suppressed (%s)", entry.DisplayName, metric.SuppressionReason))
		case metric.MedianPrice != nil && metric.YoYPct != nil:
			change := metrics.YoYDollarDelta(metric)
			entry.Change = change
			proxyTotal += *change
			hasValidProxy = true
		default:
			notes = append(notes, fmt.Sprintf("%s: missing YoY data", entry.DisplayName))
		}

		breakdown = append(breakdown, entry)
	}

	var targetChange *int
	switch {
	case target.IsSuppressed:
		notes = append(notes, fmt.Sprintf("Target %s: suppressed", displayName(target)))
	case target.MedianPrice != nil && target.YoYPct != nil:
		targetChange = metrics.YoYDollarDelta(target)
	default:
		notes = append(notes, fmt.Sprintf("Target %s: missing YoY data", displayName(target)))
	}

	result := TrackerResult{
		ProxyBreakdown:    breakdown,
		TargetSegment:     target.Segment,
		TargetDisplayName: displayName(target),
		TargetMedian:      target.MedianPrice,
		TargetYoY:         target.YoYPct,
		TargetChange:      targetChange,
		CanCompute:        hasValidProxy && targetChange != nil,
		ComputationNotes:  notes,
	}

	if hasValidProxy {
		total := proxyTotal
		result.ProxyTotalChange = &total
	}

	if result.CanCompute {
		net := proxyTotal - *targetChange
		catchingUp := net > 0
		result.NetPosition = &net
		result.IsCatchingUp = &catchingUp
	}

	return result
}

// Verdict turns a tracker result into a one-line reading for reports.
func (r TrackerResult) Verdict() string {
	if !r.CanCompute {
		return "Insufficient data to calculate gap trend."
	}

	if *r.IsCatchingUp {
		if *r.NetPosition > 50_000 {
			return "Strong progress! Your assets are significantly outpacing the target market."
		}
		return "Positive trend. Your assets are growing faster than the target."
	}

	if -*r.NetPosition > 50_000 {
		return "Gap widening. Target market growing significantly faster than your assets."
	}
	return "Slight negative trend. Target market growing faster than your assets."
}

// Summary formats the tracker result as a short multi-line block.
func (r TrackerResult) Summary() string {
	if !r.CanCompute {
		return "Gap tracker: Cannot compute (insufficient data)"
	}

	var lines []string

	var proxyParts []string
	for _, entry := range r.ProxyBreakdown {
		if entry.Change != nil {
			proxyParts = append(proxyParts, fmt.Sprintf("%s %s", entry.DisplayName, FormatSignedCurrency(*entry.Change)))
		}
	}

	lines = append(lines, fmt.Sprintf("Your assets this year: %s", FormatSignedCurrency(*r.ProxyTotalChange)))
	if len(proxyParts) > 0 {
		lines = append(lines, fmt.Sprintf("  (%s)", strings.Join(proxyParts, ", ")))
	}

	if r.TargetChange != nil {
		lines = append(lines, fmt.Sprintf("Target (%s): %s", r.TargetDisplayName, FormatSignedCurrency(*r.TargetChange)))
	}

	if *r.IsCatchingUp {
		lines = append(lines, fmt.Sprintf("Catching up by %s/year", FormatCurrency(*r.NetPosition)))
	} else {
		lines = append(lines, fmt.Sprintf("Falling behind by %s/year", FormatCurrency(-*r.NetPosition)))
	}

	return strings.Join(lines, "\n")
}

func displayName(m models.SegmentMetric) string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Segment
}
