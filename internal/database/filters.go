package database

import (
	"strings"

	"proptrack/server/internal/models"
)

// buildFilterClause evaluates a typed segment filter into SQL
// conditions over the raw_sales table (aliased "s"). Callers express
// what they need through predicates; only this package turns them into
// query text.
func buildFilterClause(filter models.SegmentFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if clause, a := membershipClause("LOWER(s.suburb)", filter.Suburbs, true); clause != "" {
		clauses = append(clauses, clause)
		args = append(args, a...)
	}
	if clause, a := membershipClause("s.property_type", filter.PropertyType, false); clause != "" {
		clauses = append(clauses, clause)
		args = append(args, a...)
	}
	if clause, a := rangeClause("s.area_sqm", filter.AreaSqm); clause != "" {
		clauses = append(clauses, clause)
		args = append(args, a...)
	}
	if clause, a := rangeClause("s.purchase_price", filter.Price); clause != "" {
		clauses = append(clauses, clause)
		args = append(args, a...)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

func membershipClause(column string, p models.Predicate, lowercase bool) (string, []interface{}) {
	if p.Kind != models.PredicateMembership || len(p.Values) == 0 {
		return "", nil
	}

	placeholders := make([]string, len(p.Values))
	args := make([]interface{}, len(p.Values))
	for i, v := range p.Values {
		placeholders[i] = "?"
		if lowercase {
			v = strings.ToLower(v)
		}
		args[i] = v
	}

	if len(p.Values) == 1 {
		return column + " = ?", args
	}
	return column + " IN (" + strings.Join(placeholders, ",") + ")", args
}

func rangeClause(column string, p models.Predicate) (string, []interface{}) {
	if p.Kind != models.PredicateRange {
		return "", nil
	}

	switch {
	case p.Min != nil && p.Max != nil:
		return column + " BETWEEN ? AND ?", []interface{}{*p.Min, *p.Max}
	case p.Min != nil:
		return column + " >= ?", []interface{}{*p.Min}
	case p.Max != nil:
		return column + " <= ?", []interface{}{*p.Max}
	default:
		return "", nil
	}
}
