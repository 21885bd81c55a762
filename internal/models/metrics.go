package models

import "time"

// Period types chosen by the sample-size fallback.
const (
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
	PeriodSixMonth  = "6month"
)

// TimeAdjustedEstimate is the output of the time-adjusted median
// estimator. When SampleSize is zero all medians are zero and the date
// fields are nil; callers must check SampleSize before trusting values.
type TimeAdjustedEstimate struct {
	NaiveMedian        int `json:"naive_median"`
	AdjustedMedian     int `json:"adjusted_median"`
	WeightedMedian     int `json:"weighted_median"`
	ConservativeMedian int `json:"conservative_median"`
	OptimisticMedian   int `json:"optimistic_median"`

	SampleSize       int        `json:"sample_size"`
	ReferenceDate    time.Time  `json:"reference_date"`
	GrowthRateAnnual float64    `json:"growth_rate_annual"`
	OldestSaleDate   *time.Time `json:"oldest_sale_date"`
	NewestSaleDate   *time.Time `json:"newest_sale_date"`

	SalesByMonth map[string]int `json:"sales_by_month"`
}

// AdjustedSale is the per-sale breakdown behind an estimate.
type AdjustedSale struct {
	SaleID        string    `json:"sale_id"`
	Address       string    `json:"address"`
	OriginalPrice int       `json:"original_price"`
	AdjustedPrice int       `json:"adjusted_price"`
	SaleDate      time.Time `json:"sale_date"`
	MonthsAgo     int       `json:"months_ago"`
	AdjustmentPct float64   `json:"adjustment_pct"`
	RecencyWeight float64   `json:"recency_weight"`
}

// PriceDispersion summarises the spread of prices in a window.
type PriceDispersion struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// SegmentMetric is one computed snapshot for a market segment. It is
// derived fresh from raw sales on every run and never a source of truth.
type SegmentMetric struct {
	Segment     string `json:"segment"`
	DisplayName string `json:"display_name"`

	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	PeriodType  string    `json:"period_type"`

	MedianPrice *int     `json:"median_price"`
	SampleSize  int      `json:"sample_size"`
	YoYPct      *float64 `json:"yoy_pct"`

	RollingMedian3M *int `json:"rolling_median_3m"`
	RollingSample3M int  `json:"rolling_sample_3m"`

	IsSuppressed      bool   `json:"is_suppressed"`
	SuppressionReason string `json:"suppression_reason,omitempty"`

	// Populated only when the segment has verified comparables.
	TimeAdjustedMedian *int `json:"time_adjusted_median,omitempty"`
	TimeAdjustedLow    *int `json:"time_adjusted_low,omitempty"`
	TimeAdjustedHigh   *int `json:"time_adjusted_high,omitempty"`
	VerifiedSampleSize int  `json:"verified_sample_size,omitempty"`

	Dispersion *PriceDispersion `json:"dispersion,omitempty"`
}

// OutpacingResult compares a proxy segment against a target segment.
// Nil fields mean "not computable", never a silent default.
type OutpacingResult struct {
	ProxySegment  string   `json:"proxy_segment"`
	TargetSegment string   `json:"target_segment"`
	ProxyYoY      *float64 `json:"proxy_yoy"`
	TargetYoY     *float64 `json:"target_yoy"`
	PctSpread     *float64 `json:"pct_spread"`
	DollarSpread  *int     `json:"dollar_spread"`
	IsOutpacing   *bool    `json:"is_outpacing"`
}
