package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"proptrack/server/internal/models"
)

// Segment defines one tracked market segment.
type Segment struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Suburbs      []string `json:"suburbs"`
	PropertyType string   `json:"property_type"`
	MinAreaSqm   *float64 `json:"min_area_sqm,omitempty"`
	MaxAreaSqm   *float64 `json:"max_area_sqm,omitempty"`
	IsTarget     bool     `json:"is_target"`
	IsProxy      bool     `json:"is_proxy"`

	// Per-segment annual growth override for time adjustment
	GrowthRate *float64 `json:"growth_rate,omitempty"`

	// Comp-basket segments need enrichment metadata (bedrooms etc.)
	// that raw sale records don't carry; they are skipped by the
	// metrics engine until enrichment lands.
	MetadataBasket bool `json:"metadata_basket"`

	Description string `json:"description,omitempty"`
}

// Filter builds the typed store filter for this segment. Sales with a
// non-positive price are always excluded.
func (s *Segment) Filter() models.SegmentFilter {
	minPrice := 1.0
	f := models.SegmentFilter{
		Suburbs:      models.OneOf(s.Suburbs...),
		PropertyType: models.OneOf(s.PropertyType),
		AreaSqm:      models.AnyValue(),
		Price:        models.Between(&minPrice, nil),
	}
	if s.MinAreaSqm != nil || s.MaxAreaSqm != nil {
		f.AreaSqm = models.Between(s.MinAreaSqm, s.MaxAreaSqm)
	}
	return f
}

// SegmentRegistry holds the configured segments. It is an explicit
// value handed to the metrics engine, not package state, so tests and
// parallel computations can carry their own registries.
type SegmentRegistry struct {
	segments map[string]Segment
	order    []string
}

type segmentsFile struct {
	Segments []Segment `json:"segments"`
}

// NewSegmentRegistry builds a registry from segment definitions,
// preserving their order.
func NewSegmentRegistry(segments []Segment) *SegmentRegistry {
	reg := &SegmentRegistry{segments: make(map[string]Segment, len(segments))}
	for _, s := range segments {
		if _, exists := reg.segments[s.Code]; exists {
			continue
		}
		reg.segments[s.Code] = s
		reg.order = append(reg.order, s.Code)
	}
	return reg
}

// LoadSegments reads segment definitions from a JSON file.
func LoadSegments(path string) (*SegmentRegistry, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read segments file: %v", err)
	}

	var file segmentsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse segments file: %v", err)
	}

	for _, s := range file.Segments {
		if s.Code == "" {
			return nil, fmt.Errorf("segment with empty code in %s", path)
		}
		if len(s.Suburbs) == 0 {
			return nil, fmt.Errorf("segment %s has no suburbs", s.Code)
		}
	}

	return NewSegmentRegistry(file.Segments), nil
}

// Get returns the segment for a code.
func (r *SegmentRegistry) Get(code string) (Segment, bool) {
	s, ok := r.segments[code]
	return s, ok
}

// Codes returns all segment codes in configuration order.
func (r *SegmentRegistry) Codes() []string {
	codes := make([]string, len(r.order))
	copy(codes, r.order)
	return codes
}

// Proxies returns segments standing in for the user's own assets.
func (r *SegmentRegistry) Proxies() []Segment {
	var out []Segment
	for _, code := range r.order {
		if s := r.segments[code]; s.IsProxy {
			out = append(out, s)
		}
	}
	return out
}

// Targets returns the benchmark market segments.
func (r *SegmentRegistry) Targets() []Segment {
	var out []Segment
	for _, code := range r.order {
		if s := r.segments[code]; s.IsTarget {
			out = append(out, s)
		}
	}
	return out
}

// OutpacingPair names a proxy/target comparison.
type OutpacingPair struct {
	Proxy  string `json:"proxy"`
	Target string `json:"target"`
}

// OutpacingPairs pairs each proxy segment with every target segment of
// the same property type. Comp-basket proxies are excluded.
func (r *SegmentRegistry) OutpacingPairs() []OutpacingPair {
	var pairs []OutpacingPair
	for _, proxy := range r.Proxies() {
		if proxy.MetadataBasket {
			continue
		}
		for _, target := range r.Targets() {
			if target.PropertyType == proxy.PropertyType {
				pairs = append(pairs, OutpacingPair{Proxy: proxy.Code, Target: target.Code})
			}
		}
	}
	return pairs
}
