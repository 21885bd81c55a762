package timeadjust

import (
	"math"
	"sort"
	"time"

	"proptrack/server/internal/models"
)

// DefaultDecayFactor controls how quickly recency weights fall off.
const DefaultDecayFactor = 0.1

// Default annual growth assumptions.
const (
	DefaultGrowthRate       = 0.07
	DefaultConservativeRate = 0.05
	DefaultOptimisticRate   = 0.10
)

// MonthsBetween returns whole calendar months between a sale date and a
// reference date. Day-of-month is ignored, and the result is negative
// when the sale postdates the reference.
func MonthsBetween(saleDate, referenceDate time.Time) int {
	return (referenceDate.Year()-saleDate.Year())*12 + int(referenceDate.Month()) - int(saleDate.Month())
}

// AdjustPrice compounds a historical price forward to the reference
// date using a monthly rate derived from the annual rate. It returns
// the adjusted price and the adjustment percentage. A negative month
// count discounts instead of compounding.
func AdjustPrice(price, monthsAgo int, annualRate float64) (int, float64) {
	factor := math.Pow(1+annualRate/12, float64(monthsAgo))
	adjusted := int(math.Round(float64(price) * factor))
	return adjusted, (factor - 1) * 100
}

// RecencyWeight returns a weight in (0, 1] that decays with age so
// recent sales dominate the weighted median.
func RecencyWeight(monthsAgo int, decayFactor float64) float64 {
	return 1 / (1 + float64(monthsAgo)*decayFactor)
}

// ValueWeight pairs an adjusted price with its recency weight.
type ValueWeight struct {
	Value  int
	Weight float64
}

// WeightedMedian returns the first value, in ascending value order,
// whose cumulative weight reaches half the total weight. It always
// selects an actual input value and never interpolates; this is
// intentionally different from the plain median's even-count rule.
func WeightedMedian(pairs []ValueWeight) int {
	if len(pairs) == 0 {
		return 0
	}

	sorted := make([]ValueWeight, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Value < sorted[j].Value
	})

	var total float64
	for _, vw := range sorted {
		total += vw.Weight
	}

	var cumulative float64
	for _, vw := range sorted {
		cumulative += vw.Weight
		if cumulative >= total/2 {
			return vw.Value
		}
	}

	return sorted[len(sorted)-1].Value
}

// simpleMedian computes the interpolated integer median: the middle
// value for odd counts, the truncated average of the two middle values
// for even counts. The input is sorted in place.
func simpleMedian(prices []int) int {
	sort.Ints(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 0 {
		return (prices[mid-1] + prices[mid]) / 2
	}
	return prices[mid]
}

type adjustedEntry struct {
	sale      *models.Sale
	monthsAgo int
	adjusted  int
	weight    float64
}

// Estimate computes growth-adjusted, recency-weighted median estimates
// over a set of sales. A zero referenceDate defaults to the first day
// of the current month, normalising estimates to month boundaries.
// An empty input yields the zero-state result, not an error.
//
// The conservative and optimistic scenarios reuse the month counts and
// recency weights computed under the base rate; only the price
// adjustment factor changes.
func Estimate(
	sales []models.Sale,
	referenceDate time.Time,
	baseRate, conservativeRate, optimisticRate float64,
) models.TimeAdjustedEstimate {
	if referenceDate.IsZero() {
		now := time.Now()
		referenceDate = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}

	if len(sales) == 0 {
		return models.TimeAdjustedEstimate{
			ReferenceDate:    referenceDate,
			GrowthRateAnnual: baseRate,
			SalesByMonth:     map[string]int{},
		}
	}

	entries := make([]adjustedEntry, 0, len(sales))
	salesByMonth := make(map[string]int)

	for i := range sales {
		sale := &sales[i]
		monthsAgo := MonthsBetween(sale.ContractDate, referenceDate)
		salesByMonth[sale.ContractDate.Format("2006-01")]++

		adjusted, _ := AdjustPrice(sale.PurchasePrice, monthsAgo, baseRate)
		entries = append(entries, adjustedEntry{
			sale:      sale,
			monthsAgo: monthsAgo,
			adjusted:  adjusted,
			weight:    RecencyWeight(monthsAgo, DefaultDecayFactor),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].sale.ContractDate.Before(entries[j].sale.ContractDate)
	})
	oldest := entries[0].sale.ContractDate
	newest := entries[len(entries)-1].sale.ContractDate

	naivePrices := make([]int, len(entries))
	basePrices := make([]int, len(entries))
	baseWeighted := make([]ValueWeight, len(entries))
	conservative := make([]ValueWeight, len(entries))
	optimistic := make([]ValueWeight, len(entries))

	for i, e := range entries {
		naivePrices[i] = e.sale.PurchasePrice
		basePrices[i] = e.adjusted
		baseWeighted[i] = ValueWeight{Value: e.adjusted, Weight: e.weight}

		consPrice, _ := AdjustPrice(e.sale.PurchasePrice, e.monthsAgo, conservativeRate)
		conservative[i] = ValueWeight{Value: consPrice, Weight: e.weight}

		optPrice, _ := AdjustPrice(e.sale.PurchasePrice, e.monthsAgo, optimisticRate)
		optimistic[i] = ValueWeight{Value: optPrice, Weight: e.weight}
	}

	return models.TimeAdjustedEstimate{
		NaiveMedian:        simpleMedian(naivePrices),
		AdjustedMedian:     simpleMedian(basePrices),
		WeightedMedian:     WeightedMedian(baseWeighted),
		ConservativeMedian: WeightedMedian(conservative),
		OptimisticMedian:   WeightedMedian(optimistic),
		SampleSize:         len(sales),
		ReferenceDate:      referenceDate,
		GrowthRateAnnual:   baseRate,
		OldestSaleDate:     &oldest,
		NewestSaleDate:     &newest,
		SalesByMonth:       salesByMonth,
	}
}

// AdjustedDetail returns the per-sale adjustment breakdown used for
// transparency displays.
func AdjustedDetail(sales []models.Sale, referenceDate time.Time, annualRate float64) []models.AdjustedSale {
	if referenceDate.IsZero() {
		now := time.Now()
		referenceDate = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}

	detail := make([]models.AdjustedSale, 0, len(sales))
	for i := range sales {
		sale := &sales[i]
		monthsAgo := MonthsBetween(sale.ContractDate, referenceDate)
		adjusted, pct := AdjustPrice(sale.PurchasePrice, monthsAgo, annualRate)

		detail = append(detail, models.AdjustedSale{
			SaleID:        sale.DealingNumber,
			Address:       sale.Address(),
			OriginalPrice: sale.PurchasePrice,
			AdjustedPrice: adjusted,
			SaleDate:      sale.ContractDate,
			MonthsAgo:     monthsAgo,
			AdjustmentPct: pct,
			RecencyWeight: RecencyWeight(monthsAgo, DefaultDecayFactor),
		})
	}

	return detail
}
