package models

// PredicateKind discriminates the filter variants a segment can express.
type PredicateKind int

const (
	PredicateNone PredicateKind = iota
	PredicateRange
	PredicateMembership
)

// Predicate is a typed filter condition. The compute layer only states
// what it needs; the store decides how to evaluate it. This replaces
// ad-hoc SQL string construction in callers.
type Predicate struct {
	Kind   PredicateKind
	Min    *float64
	Max    *float64
	Values []string
}

// AnyValue matches everything.
func AnyValue() Predicate {
	return Predicate{Kind: PredicateNone}
}

// Between matches values in [min, max]. Either bound may be nil for
// a half-open range.
func Between(min, max *float64) Predicate {
	return Predicate{Kind: PredicateRange, Min: min, Max: max}
}

// OneOf matches any of the given values (case-insensitive at the store).
func OneOf(values ...string) Predicate {
	return Predicate{Kind: PredicateMembership, Values: values}
}

// IsEmpty reports whether the predicate places no constraint.
func (p Predicate) IsEmpty() bool {
	switch p.Kind {
	case PredicateRange:
		return p.Min == nil && p.Max == nil
	case PredicateMembership:
		return len(p.Values) == 0
	default:
		return true
	}
}

// SegmentFilter describes which sales belong to a market segment.
type SegmentFilter struct {
	Suburbs      Predicate
	PropertyType Predicate
	AreaSqm      Predicate
	Price        Predicate
}
