package metrics

import (
	"math"

	"proptrack/server/internal/models"
)

// YoYDollarDelta approximates the dollar change in a segment's median
// over the last year, or nil when the median or YoY is unknown.
func YoYDollarDelta(m models.SegmentMetric) *int {
	if m.MedianPrice == nil || m.YoYPct == nil {
		return nil
	}
	delta := int(math.Round(float64(*m.MedianPrice) * (*m.YoYPct / 100)))
	return &delta
}

// CompareOutpacing compares a proxy segment against a target segment.
// Every output field is nil when its inputs are unknown; in particular
// IsOutpacing stays nil rather than defaulting to false.
func CompareOutpacing(proxy, target models.SegmentMetric) models.OutpacingResult {
	result := models.OutpacingResult{
		ProxySegment:  proxy.Segment,
		TargetSegment: target.Segment,
		ProxyYoY:      proxy.YoYPct,
		TargetYoY:     target.YoYPct,
	}

	if proxy.YoYPct != nil && target.YoYPct != nil {
		spread := math.Round((*proxy.YoYPct-*target.YoYPct)*10) / 10
		outpacing := spread > 0
		result.PctSpread = &spread
		result.IsOutpacing = &outpacing
	}

	proxyDelta := YoYDollarDelta(proxy)
	targetDelta := YoYDollarDelta(target)
	if proxyDelta != nil && targetDelta != nil {
		spread := *proxyDelta - *targetDelta
		result.DollarSpread = &spread
	}

	return result
}
