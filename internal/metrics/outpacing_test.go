package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptrack/server/internal/models"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func metricWith(segment string, median *int, yoy *float64) models.SegmentMetric {
	return models.SegmentMetric{
		Segment:     segment,
		MedianPrice: median,
		YoYPct:      yoy,
	}
}

func TestCompareOutpacing(t *testing.T) {
	proxy := metricWith("revesby_houses", intPtr(950_000), floatPtr(5.6))
	target := metricWith("lane_cove_houses", intPtr(2_400_000), floatPtr(3.1))

	result := CompareOutpacing(proxy, target)

	require.NotNil(t, result.PctSpread)
	assert.Equal(t, 2.5, *result.PctSpread)
	require.NotNil(t, result.IsOutpacing)
	assert.True(t, *result.IsOutpacing)

	// proxy delta: 950000 * 0.056 = 53200; target: 2400000 * 0.031 = 74400
	require.NotNil(t, result.DollarSpread)
	assert.Equal(t, 53_200-74_400, *result.DollarSpread)
}

func TestCompareOutpacing_TargetGrowingFaster(t *testing.T) {
	proxy := metricWith("revesby_houses", intPtr(950_000), floatPtr(2.0))
	target := metricWith("lane_cove_houses", intPtr(2_400_000), floatPtr(6.5))

	result := CompareOutpacing(proxy, target)

	require.NotNil(t, result.PctSpread)
	assert.Equal(t, -4.5, *result.PctSpread)
	require.NotNil(t, result.IsOutpacing)
	assert.False(t, *result.IsOutpacing)
}

func TestCompareOutpacing_ThreeValuedLogic(t *testing.T) {
	tests := []struct {
		name   string
		proxy  models.SegmentMetric
		target models.SegmentMetric
	}{
		{
			"proxy yoy missing",
			metricWith("p", intPtr(950_000), nil),
			metricWith("t", intPtr(2_400_000), floatPtr(3.1)),
		},
		{
			"target yoy missing",
			metricWith("p", intPtr(950_000), floatPtr(5.6)),
			metricWith("t", intPtr(2_400_000), nil),
		},
		{
			"both missing",
			metricWith("p", nil, nil),
			metricWith("t", nil, nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CompareOutpacing(tt.proxy, tt.target)

			// Unknown is nil, never false.
			assert.Nil(t, result.IsOutpacing)
			assert.Nil(t, result.PctSpread)
			assert.Nil(t, result.DollarSpread)
		})
	}
}

func TestCompareOutpacing_DollarSpreadNeedsMedians(t *testing.T) {
	// YoY known on both sides, but one median suppressed: percentage
	// spread computes, dollar spread does not.
	proxy := metricWith("p", nil, floatPtr(5.6))
	target := metricWith("t", intPtr(2_400_000), floatPtr(3.1))

	result := CompareOutpacing(proxy, target)

	assert.NotNil(t, result.PctSpread)
	assert.NotNil(t, result.IsOutpacing)
	assert.Nil(t, result.DollarSpread)
}

func TestYoYDollarDelta(t *testing.T) {
	assert.Nil(t, YoYDollarDelta(metricWith("p", nil, floatPtr(5.0))))
	assert.Nil(t, YoYDollarDelta(metricWith("p", intPtr(100), nil)))

	delta := YoYDollarDelta(metricWith("p", intPtr(1_000_000), floatPtr(-2.5)))
	require.NotNil(t, delta)
	assert.Equal(t, -25_000, *delta)
}
