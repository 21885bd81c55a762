package metrics

import (
	"gonum.org/v1/gonum/stat"

	"proptrack/server/internal/models"
)

// dispersion summarises the spread of a price window for report
// transparency. Needs at least two samples for a meaningful spread.
func dispersion(prices []int) *models.PriceDispersion {
	if len(prices) < 2 {
		return nil
	}

	xs := make([]float64, len(prices))
	for i, p := range prices {
		xs[i] = float64(p)
	}

	return &models.PriceDispersion{
		Mean:   stat.Mean(xs, nil),
		StdDev: stat.StdDev(xs, nil),
	}
}
