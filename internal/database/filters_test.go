package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"proptrack/server/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestBuildFilterClause(t *testing.T) {
	tests := []struct {
		name         string
		filter       models.SegmentFilter
		expectClause string
		expectArgs   []interface{}
	}{
		{
			name:         "empty filter",
			filter:       models.SegmentFilter{},
			expectClause: "",
			expectArgs:   nil,
		},
		{
			name: "suburb membership is lowercased",
			filter: models.SegmentFilter{
				Suburbs: models.OneOf("Revesby", "Revesby Heights"),
			},
			expectClause: " AND LOWER(s.suburb) IN (?,?)",
			expectArgs:   []interface{}{"revesby", "revesby heights"},
		},
		{
			name: "single membership value uses equality",
			filter: models.SegmentFilter{
				PropertyType: models.OneOf("house"),
			},
			expectClause: " AND s.property_type = ?",
			expectArgs:   []interface{}{"house"},
		},
		{
			name: "bounded range",
			filter: models.SegmentFilter{
				AreaSqm: models.Between(floatPtr(400), floatPtr(800)),
			},
			expectClause: " AND s.area_sqm BETWEEN ? AND ?",
			expectArgs:   []interface{}{400.0, 800.0},
		},
		{
			name: "half-open range",
			filter: models.SegmentFilter{
				Price: models.Between(floatPtr(1), nil),
			},
			expectClause: " AND s.purchase_price >= ?",
			expectArgs:   []interface{}{1.0},
		},
		{
			name: "combined segment filter",
			filter: models.SegmentFilter{
				Suburbs:      models.OneOf("lane cove", "lane cove north"),
				PropertyType: models.OneOf("unit"),
				Price:        models.Between(floatPtr(1), nil),
			},
			expectClause: " AND LOWER(s.suburb) IN (?,?) AND s.property_type = ? AND s.purchase_price >= ?",
			expectArgs:   []interface{}{"lane cove", "lane cove north", "unit", 1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := buildFilterClause(tt.filter)
			assert.Equal(t, tt.expectClause, clause)
			assert.Equal(t, tt.expectArgs, args)
		})
	}
}

func TestRangeClause_EmptyRange(t *testing.T) {
	clause, args := rangeClause("s.area_sqm", models.Between(nil, nil))
	assert.Empty(t, clause)
	assert.Nil(t, args)
}
