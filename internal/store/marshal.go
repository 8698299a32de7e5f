package store

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/filtersql"
	"github.com/52North/SOS-sub005/internal/format/om"
	"github.com/52North/SOS-sub005/internal/ir"
)

// observationRow holds the column values derived from one observation.
type observationRow struct {
	start, end string
	resultTime sql.NullString
	resultText sql.NullString
	srid       sql.NullInt64
	box        [4]sql.NullFloat64
	document   string
	hash       string
}

func newObservationRow(o *om.Observation) (observationRow, error) {
	var row observationRow
	var err error
	if row.start, row.end, err = timeBounds(o.PhenomenonTime); err != nil {
		return row, err
	}
	if o.ResultTime != nil {
		rt, _, err := timeBounds(*o.ResultTime)
		if err != nil {
			return row, err
		}
		row.resultTime = sql.NullString{String: rt, Valid: true}
	}
	if text, ok := resultText(o.Result); ok {
		row.resultText = sql.NullString{String: text, Valid: true}
	}
	if shape := o.FeatureOfInterest.Shape; shape != nil {
		if box, ok := shape.Bounds(); ok {
			row.srid = sql.NullInt64{Int64: int64(shape.SRID), Valid: true}
			for i, v := range []float64{box.MinX, box.MinY, box.MaxX, box.MaxY} {
				row.box[i] = sql.NullFloat64{Float64: v, Valid: true}
			}
		}
	}

	doc, err := ir.MarshalCanonical(o)
	if err != nil {
		return row, fmt.Errorf("marshal observation: %w", err)
	}
	row.document = string(doc)
	if row.hash, err = ir.ContentHash(o); err != nil {
		return row, err
	}
	return row, nil
}

// timeBounds renders a time as a stored [start, end] pair. Indeterminate
// positions cannot be stored.
func timeBounds(t ir.Time) (string, string, error) {
	switch t := t.(type) {
	case ir.Instant:
		if t.IsIndeterminate() {
			return "", "", decode.InvalidParameterValuef("phenomenonTime", "indeterminate position %q cannot be stored", t.Indeterminate)
		}
		p := filtersql.FormatTime(t.Position)
		return p, p, nil
	case ir.Period:
		b, _, err := timeBounds(t.Begin)
		if err != nil {
			return "", "", err
		}
		e, _, err := timeBounds(t.End)
		if err != nil {
			return "", "", err
		}
		return b, e, nil
	case nil:
		return "", "", decode.MissingParameter("phenomenonTime")
	}
	return "", "", decode.InvalidParameterValuef("phenomenonTime", "unsupported time %T", t)
}

// resultText renders scalar results for comparison filters.
func resultText(v any) (string, bool) {
	switch v := v.(type) {
	case ir.Quantity:
		return ir.FormatNumber(v.Value), true
	case ir.Count:
		return strconv.FormatInt(int64(v), 10), true
	case ir.Boolean:
		return strconv.FormatBool(bool(v)), true
	case ir.Text:
		return string(v), true
	case ir.Category:
		return v.Value, true
	case ir.Reference:
		return v.Href, true
	}
	return "", false
}
