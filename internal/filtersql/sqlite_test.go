package filtersql

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/52North/SOS-sub005/internal/filter"
	"github.com/52North/SOS-sub005/internal/ir"
)

// openObservations creates an in-memory observation table with three rows:
// obs-a and obs-c share a phenomenon time so the id tiebreaker decides
// their order.
func openObservations(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE observations (
		id TEXT PRIMARY KEY,
		procedure TEXT NOT NULL,
		observed_property TEXT NOT NULL,
		feature_of_interest TEXT NOT NULL,
		offering TEXT NOT NULL,
		phenomenon_time_start TEXT NOT NULL,
		phenomenon_time_end TEXT NOT NULL,
		result_time TEXT,
		result_text TEXT,
		shape_srid INTEGER,
		shape_min_x DOUBLE PRECISION,
		shape_min_y DOUBLE PRECISION,
		shape_max_x DOUBLE PRECISION,
		shape_max_y DOUBLE PRECISION
	)`)
	require.NoError(t, err)

	rows := []struct {
		id, procedure, property string
		at                      time.Time
		x, y                    float64
	}{
		{"obs-c", "p1", "air_temperature", t0.Add(5 * time.Minute), 51, 8},
		{"obs-b", "p2", "wind_speed", t0.Add(20 * time.Minute), 60, 20},
		{"obs-a", "p1", "air_temperature", t0.Add(5 * time.Minute), 52, 9},
	}
	for _, r := range rows {
		ts := FormatTime(r.at)
		_, err := db.Exec(`INSERT INTO observations VALUES (?, ?, ?, 'foi', 'o1', ?, ?, ?, '1.5', 4326, ?, ?, ?, ?)`,
			r.id, r.procedure, r.property, ts, ts, ts, r.x, r.y, r.x, r.y)
		require.NoError(t, err)
	}
	return db
}

func selectIDs(t *testing.T, db *sql.DB, f filter.Filter) []string {
	t.Helper()
	query, params, err := NewCompiler(SQLite).Select("observations", []string{ColumnID}, f)
	require.NoError(t, err)

	rows, err := db.Query(query, params...)
	require.NoError(t, err, query)
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestSelect_ExecutesOnSQLite(t *testing.T) {
	db := openObservations(t)

	tests := []struct {
		name   string
		filter filter.Filter
		want   []string
	}{
		{"no filter", nil, []string{"obs-a", "obs-c", "obs-b"}},
		{
			"equality",
			filter.Comparison{Op: filter.ComparisonEqual, ValueReference: "om:procedure", Literal: "p1", MatchCase: true},
			[]string{"obs-a", "obs-c"},
		},
		{
			"like",
			filter.Comparison{Op: filter.ComparisonLike, ValueReference: "om:observedProperty", Literal: "wind*",
				WildCard: '*', SingleChar: '?', Escape: '!', MatchCase: true},
			[]string{"obs-b"},
		},
		{
			"during",
			filter.Temporal{Op: filter.TemporalDuring, ValueReference: "phenomenonTime", Time: period()},
			[]string{"obs-a", "obs-c"},
		},
		{
			"bbox",
			filter.Spatial{Op: filter.SpatialBBOX, Geometry: ir.NewEnvelope(4326, ir.Coord{50, 7}, ir.Coord{51.5, 10})},
			[]string{"obs-c"},
		},
		{
			"not and",
			filter.Unary{Child: filter.Binary{Op: filter.LogicalAnd, Children: []filter.Filter{
				filter.Comparison{Op: filter.ComparisonEqual, ValueReference: "om:procedure", Literal: "p1", MatchCase: true},
				filter.Comparison{Op: filter.ComparisonEqual, ValueReference: "sos:offering", Literal: "O1", MatchCase: false},
			}}},
			[]string{"obs-b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectIDs(t, db, tt.filter))
		})
	}
}
