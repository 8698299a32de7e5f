// Package filtersql compiles filter trees into parameterised SQL over the
// observation table of the store.
//
// Every literal taken from a filter is passed as a bound parameter; the
// generated SQL text only contains column names, operators and
// placeholders. Queries built with Select always carry an ORDER BY with a
// stable tiebreaker so results are deterministic.
package filtersql

import (
	"fmt"
	"strings"
	"time"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/filter"
	"github.com/52North/SOS-sub005/internal/ir"
)

// Dialect selects the placeholder and collation syntax.
type Dialect int

const (
	// SQLite uses ? placeholders.
	SQLite Dialect = iota
	// Postgres uses $n placeholders.
	Postgres
)

// String returns the database/sql driver name of the dialect.
func (d Dialect) String() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite3"
}

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	}
	return SQLite, fmt.Errorf("unsupported database driver %q", driver)
}

// TimeLayout is the fixed-width UTC layout times are stored in, so that
// text comparison orders them chronologically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Observation table columns.
const (
	ColumnID                = "id"
	ColumnProcedure         = "procedure"
	ColumnObservedProperty  = "observed_property"
	ColumnFeatureOfInterest = "feature_of_interest"
	ColumnOffering          = "offering"
	ColumnResult            = "result_text"
	ColumnPhenomenonStart   = "phenomenon_time_start"
	ColumnPhenomenonEnd     = "phenomenon_time_end"
	ColumnResultTime        = "result_time"
	ColumnShapeSRID         = "shape_srid"
	ColumnShapeMinX         = "shape_min_x"
	ColumnShapeMinY         = "shape_min_y"
	ColumnShapeMaxX         = "shape_max_x"
	ColumnShapeMaxY         = "shape_max_y"
)

// textColumns maps comparison value references to columns.
var textColumns = map[string]string{
	"om:procedure":         ColumnProcedure,
	"om:observedProperty":  ColumnObservedProperty,
	"om:featureOfInterest": ColumnFeatureOfInterest,
	"sos:offering":         ColumnOffering,
	"om:result":            ColumnResult,
}

// timeRange is the [start, end] column pair a temporal reference maps to.
type timeRange struct{ start, end string }

var timeColumns = map[string]timeRange{
	"":                  {ColumnPhenomenonStart, ColumnPhenomenonEnd},
	"phenomenonTime":    {ColumnPhenomenonStart, ColumnPhenomenonEnd},
	"om:phenomenonTime": {ColumnPhenomenonStart, ColumnPhenomenonEnd},
	"resultTime":        {ColumnResultTime, ColumnResultTime},
	"om:resultTime":     {ColumnResultTime, ColumnResultTime},
}

// likeEscape is the escape character of generated LIKE patterns.
const likeEscape = '\\'

// Compiler compiles filters for one dialect.
type Compiler struct {
	Dialect Dialect

	// Now resolves the "now" indeterminate position. Defaults to time.Now.
	Now func() time.Time
}

// NewCompiler creates a compiler for the dialect.
func NewCompiler(d Dialect) *Compiler {
	return &Compiler{Dialect: d, Now: time.Now}
}

// query accumulates parameters while the tree is walked so placeholders
// are numbered in order.
type query struct {
	c      *Compiler
	params []any
}

func (q *query) bind(v any) string {
	q.params = append(q.params, v)
	if q.c.Dialect == Postgres {
		return fmt.Sprintf("$%d", len(q.params))
	}
	return "?"
}

// Compile converts f to a WHERE fragment and its parameters. A nil filter
// compiles to a tautology.
func (c *Compiler) Compile(f filter.Filter) (string, []any, error) {
	q := &query{c: c}
	sql, err := q.compile(f)
	if err != nil {
		return "", nil, err
	}
	return sql, q.params, nil
}

// Select builds a complete query over table returning columns.
func (c *Compiler) Select(table string, columns []string, f filter.Filter) (string, []any, error) {
	where, params, err := c.Compile(f)
	if err != nil {
		return "", nil, err
	}
	cols := "*"
	if len(columns) > 0 {
		cols = strings.Join(columns, ", ")
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s", cols, table, where, c.stableOrderKey())
	return sql, params, nil
}

// stableOrderKey orders by phenomenon time with the id as tiebreaker, using
// byte-wise collation so ordering does not depend on the database locale.
func (c *Compiler) stableOrderKey() string {
	collate := "COLLATE BINARY"
	if c.Dialect == Postgres {
		collate = `COLLATE "C"`
	}
	return fmt.Sprintf("%s ASC, %s %s ASC", ColumnPhenomenonStart, ColumnID, collate)
}

func (q *query) compile(f filter.Filter) (string, error) {
	switch f := f.(type) {
	case nil:
		return "1 = 1", nil
	case filter.Comparison:
		return q.comparison(f)
	case filter.Temporal:
		return q.temporal(f)
	case filter.Spatial:
		return q.spatial(f)
	case filter.Unary:
		inner, err := q.compile(f.Child)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case filter.Binary:
		return q.binary(f)
	default:
		return "", decode.UnsupportedOperation("filter", fmt.Sprintf("cannot compile %T", f))
	}
}

func (q *query) binary(b filter.Binary) (string, error) {
	var joiner string
	switch b.Op {
	case filter.LogicalAnd:
		joiner = " AND "
	case filter.LogicalOr:
		joiner = " OR "
	default:
		return "", decode.InvalidParameterValuef("logicalOperator", "unknown binary operator %q", b.Op)
	}
	if len(b.Children) < 2 {
		return "", decode.NoApplicableCode("binary logic filter requires at least two predicates", nil)
	}
	parts := make([]string, 0, len(b.Children))
	for _, child := range b.Children {
		sql, err := q.compile(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return "(" + strings.Join(parts, joiner) + ")", nil
}

var comparisonOperators = map[filter.ComparisonOp]string{
	filter.ComparisonEqual:          "=",
	filter.ComparisonNotEqual:       "<>",
	filter.ComparisonLess:           "<",
	filter.ComparisonGreater:        ">",
	filter.ComparisonLessOrEqual:    "<=",
	filter.ComparisonGreaterOrEqual: ">=",
}

func (q *query) comparison(c filter.Comparison) (string, error) {
	col, ok := textColumns[c.ValueReference]
	if !ok {
		return "", decode.InvalidParameterValuef("valueReference", "unknown value reference %q", c.ValueReference)
	}
	lhs, wrap := col, func(s string) string { return s }
	if !c.MatchCase {
		lhs = "LOWER(" + col + ")"
		wrap = func(s string) string { return "LOWER(" + s + ")" }
	}

	if c.Op == filter.ComparisonLike {
		if c.WildCard == 0 || c.SingleChar == 0 {
			return "", decode.MissingParameter("wildCard")
		}
		pattern := likePattern(c.Literal, c.WildCard, c.SingleChar, c.Escape)
		return fmt.Sprintf("%s LIKE %s ESCAPE '%c'", lhs, wrap(q.bind(pattern)), likeEscape), nil
	}

	op, ok := comparisonOperators[c.Op]
	if !ok {
		return "", decode.UnsupportedValue("comparisonOperator", fmt.Sprintf("%s is not supported", c.Op))
	}
	return fmt.Sprintf("%s %s %s", lhs, op, wrap(q.bind(c.Literal))), nil
}

// likePattern rewrites a filter pattern into a LIKE pattern: the filter's
// wildcard and single-character metacharacters become % and _, escaped
// filter metacharacters become literals, and literal % _ and backslash are
// escaped.
func likePattern(lit string, wild, single, escape rune) string {
	var b strings.Builder
	escaped := false
	for _, r := range lit {
		switch {
		case escaped:
			escaped = false
			writeLiteral(&b, r)
		case escape != 0 && r == escape:
			escaped = true
		case r == wild:
			b.WriteByte('%')
		case r == single:
			b.WriteByte('_')
		default:
			writeLiteral(&b, r)
		}
	}
	if escaped {
		writeLiteral(&b, escape)
	}
	return b.String()
}

func writeLiteral(b *strings.Builder, r rune) {
	if r == '%' || r == '_' || r == likeEscape {
		b.WriteRune(likeEscape)
	}
	b.WriteRune(r)
}

func (q *query) temporal(t filter.Temporal) (string, error) {
	cols, ok := timeColumns[t.ValueReference]
	if !ok {
		return "", decode.InvalidParameterValuef("valueReference", "unknown temporal value reference %q", t.ValueReference)
	}
	begin, end, err := q.c.bounds(t.Time)
	if err != nil {
		return "", err
	}
	s, e := cols.start, cols.end

	// Placeholders are bound in the order they appear in the SQL text.
	cond := func(parts ...string) string { return "(" + strings.Join(parts, " AND ") + ")" }
	switch t.Op {
	case filter.TemporalAfter:
		return s + " > " + q.bind(end), nil
	case filter.TemporalBefore:
		return e + " < " + q.bind(begin), nil
	case filter.TemporalBegins:
		return cond(s+" = "+q.bind(begin), e+" < "+q.bind(end)), nil
	case filter.TemporalBegunBy:
		return cond(s+" = "+q.bind(begin), e+" > "+q.bind(end)), nil
	case filter.TemporalContains:
		return cond(s+" < "+q.bind(begin), e+" > "+q.bind(end)), nil
	case filter.TemporalDuring:
		return cond(s+" > "+q.bind(begin), e+" < "+q.bind(end)), nil
	case filter.TemporalEndedBy:
		return cond(e+" = "+q.bind(end), s+" < "+q.bind(begin)), nil
	case filter.TemporalEnds:
		return cond(e+" = "+q.bind(end), s+" > "+q.bind(begin)), nil
	case filter.TemporalEquals:
		return cond(s+" = "+q.bind(begin), e+" = "+q.bind(end)), nil
	case filter.TemporalMeets:
		return e + " = " + q.bind(begin), nil
	case filter.TemporalMetBy:
		return s + " = " + q.bind(end), nil
	case filter.TemporalOverlaps:
		return cond(s+" < "+q.bind(begin), e+" > "+q.bind(begin), e+" < "+q.bind(end)), nil
	case filter.TemporalOverlappedBy:
		return cond(s+" > "+q.bind(begin), s+" < "+q.bind(end), e+" > "+q.bind(end)), nil
	case filter.TemporalAnyInteracts:
		return cond(s+" <= "+q.bind(end), e+" >= "+q.bind(begin)), nil
	}
	return "", decode.InvalidParameterValuef("temporalOperator", "unknown temporal operator %q", t.Op)
}

// bounds returns the begin and end of a time literal in TimeLayout.
func (c *Compiler) bounds(t ir.Time) (string, string, error) {
	switch t := t.(type) {
	case ir.Instant:
		p, err := c.position(t)
		if err != nil {
			return "", "", err
		}
		return p, p, nil
	case ir.Period:
		b, err := c.position(t.Begin)
		if err != nil {
			return "", "", err
		}
		e, err := c.position(t.End)
		if err != nil {
			return "", "", err
		}
		return b, e, nil
	case nil:
		return "", "", decode.MissingParameter("temporalFilter")
	}
	return "", "", decode.InvalidParameterValuef("temporalFilter", "unsupported time %T", t)
}

func (c *Compiler) position(i ir.Instant) (string, error) {
	switch i.Indeterminate {
	case "":
		return FormatTime(i.Position), nil
	case ir.IndeterminateNow:
		now := time.Now
		if c.Now != nil {
			now = c.Now
		}
		return FormatTime(now()), nil
	}
	return "", decode.UnsupportedOperation("temporalFilter",
		fmt.Sprintf("indeterminate position %q cannot be queried", i.Indeterminate))
}

// isShapeReference accepts an empty reference or any path ending in a
// shape property, such as om:featureOfInterest/sams:SF_SpatialSamplingFeature/sams:shape.
func isShapeReference(ref string) bool {
	if ref == "" {
		return true
	}
	last := ref[strings.LastIndex(ref, "/")+1:]
	if _, local, ok := strings.Cut(last, ":"); ok {
		last = local
	}
	return last == "shape"
}

func (q *query) spatial(s filter.Spatial) (string, error) {
	if s.Op != filter.SpatialBBOX {
		return "", decode.UnsupportedValue("spatialOperator", fmt.Sprintf("spatial operator %s is not supported", s.Op))
	}
	if !isShapeReference(s.ValueReference) {
		return "", decode.InvalidParameterValuef("valueReference", "unknown spatial value reference %q", s.ValueReference)
	}
	box, ok := s.Geometry.Bounds()
	if !ok {
		return "", decode.InvalidParameterValue("spatialFilter", "empty geometry")
	}
	// Stored shapes intersect the box; for point features this is
	// point-in-box.
	parts := []string{
		ColumnShapeSRID + " = " + q.bind(int64(s.Geometry.SRID)),
		ColumnShapeMinX + " <= " + q.bind(box.MaxX),
		ColumnShapeMaxX + " >= " + q.bind(box.MinX),
		ColumnShapeMinY + " <= " + q.bind(box.MaxY),
		ColumnShapeMaxY + " >= " + q.bind(box.MinY),
	}
	return "(" + strings.Join(parts, " AND ") + ")", nil
}
