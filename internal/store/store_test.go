package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/filter"
	"github.com/52North/SOS-sub005/internal/filtersql"
	"github.com/52North/SOS-sub005/internal/format/gml"
	"github.com/52North/SOS-sub005/internal/format/om"
	"github.com/52North/SOS-sub005/internal/format/sml"
	"github.com/52North/SOS-sub005/internal/format/swecommon"
	"github.com/52North/SOS-sub005/internal/ir"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// createTestStore opens a fresh SQLite store with deterministic ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	n := 0
	s, err := Open("sqlite3", path,
		WithIDGenerator(func() string { n++; return fmt.Sprintf("obs-%d", n) }),
		WithClock(func() time.Time { return fixedNow }),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open("sqlite3", path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open("sqlite3", path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"procedures", "observations"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
	} {
		if err := s.verifyPragma(ctx, name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	if err == nil {
		t.Fatal("Open() with unknown driver succeeded")
	}
}

func TestRebind(t *testing.T) {
	s := &Store{}
	assert.Equal(t, "a = ? AND b = ?", s.rebind("a = ? AND b = ?"))
	s.dialect = filtersql.Postgres
	assert.Equal(t, "a = $1 AND b = $2", s.rebind("a = ? AND b = ?"))
}

const procedureDoc = `<sml:PhysicalComponent xmlns:sml="http://www.opengis.net/sensorml/2.0" xmlns:gml="http://www.opengis.net/gml/3.2" gml:id="thermometer">
  <gml:identifier codeSpace="uniqueID">http://www.52north.org/test/procedure/1</gml:identifier>
  <sml:position>
    <gml:Point gml:id="p" srsName="http://www.opengis.net/def/crs/EPSG/0/4326"><gml:pos>51.93 7.65</gml:pos></gml:Point>
  </sml:position>
</sml:PhysicalComponent>`

func newFacade() *decode.Facade {
	b := decode.NewBuilder()
	b.Register(sml.NewDecoder)
	b.Register(decode.PropertyFactory(sml.Namespace))
	b.Register(gml.Factory(gml.Namespace))
	b.Register(decode.PropertyFactory(gml.Namespace))
	b.Register(swecommon.NewDecoder)
	b.Register(decode.PropertyFactory(swecommon.Namespace))
	return b.Build()
}

func TestProcedureRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := "http://www.52north.org/test/procedure/1"

	require.NoError(t, s.PutProcedure(ctx, id, sml.ContentType, procedureDoc))

	rec, err := s.ProcedureRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sml.ContentType, rec.Format)
	assert.Equal(t, ir.DocumentHash(procedureDoc), rec.ContentHash)

	v, err := s.Procedure(ctx, id, newFacade())
	require.NoError(t, err)
	p, ok := v.(*sml.Process)
	require.True(t, ok, "got %T", v)
	assert.Equal(t, id, p.Identifier)
	assert.Equal(t, sml.KindPhysicalComponent, p.Kind)
	assert.Equal(t, ir.NewPoint(4326, ir.Coord{51.93, 7.65}), p.Position)
}

func TestPutProcedure_Replaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutProcedure(ctx, "p", "text/plain", "first"))
	require.NoError(t, s.PutProcedure(ctx, "p", "text/plain", "second"))

	rec, err := s.ProcedureRecord(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "second", rec.Description)

	assert.Error(t, s.PutProcedure(ctx, "", "text/plain", "x"))
}

func TestProcedure_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Procedure(context.Background(), "missing", newFacade())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestProcedure_StoredGarbage(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutProcedure(ctx, "p", sml.ContentType, "<unclosed>"))
	_, err := s.Procedure(ctx, "p", newFacade())
	assert.True(t, decode.IsNoApplicableCode(err))
}

func at(minute int) time.Time {
	return time.Date(2012, 11, 19, 13, minute, 0, 0, time.UTC)
}

func measurement(procedure string, minute int, value float64, shape *ir.Geometry) *om.Observation {
	rt := ir.Instant{Position: at(minute)}
	return &om.Observation{
		Type:              om.TypePrefix + om.TypeMeasurement,
		PhenomenonTime:    ir.Instant{Position: at(minute)},
		ResultTime:        &rt,
		Procedure:         procedure,
		ObservedProperty:  "http://www.52north.org/test/observableProperty/Temperature",
		FeatureOfInterest: om.Feature{Identifier: "foi-1", Shape: shape},
		Result:            ir.Quantity{Value: value, UOM: "Cel"},
	}
}

func ids(recs []ObservationRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestInsertObservation_Deduplicates(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id1, err := s.InsertObservation(ctx, measurement("p1", 0, 1.5, nil), "off")
	require.NoError(t, err)
	id2, err := s.InsertObservation(ctx, measurement("p1", 0, 1.5, nil), "off")
	require.NoError(t, err)
	assert.Equal(t, "obs-1", id1)
	assert.Equal(t, id1, id2)

	id3, err := s.InsertObservation(ctx, measurement("p1", 0, 2.5, nil), "off")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	all, err := s.QueryObservations(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInsertObservation_Rejected(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	o := measurement("p1", 0, 1, nil)
	o.PhenomenonTime = ir.Instant{Indeterminate: ir.IndeterminateUnknown}
	_, err := s.InsertObservation(ctx, o, "")
	assert.True(t, decode.IsInvalidParameterValue(err))

	o.PhenomenonTime = nil
	_, err = s.InsertObservation(ctx, o, "")
	assert.True(t, decode.IsMissingParameter(err))
}

func TestQueryObservations(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inside := ir.NewPoint(4326, ir.Coord{51, 7.5})
	outside := ir.NewPoint(4326, ir.Coord{10, 10})
	for _, o := range []*om.Observation{
		measurement("http://example.org/procedure/A", 0, 1, &inside),
		measurement("http://example.org/procedure/A", 5, 2, &outside),
		measurement("http://example.org/procedure/B", 10, 3, nil),
	} {
		_, err := s.InsertObservation(ctx, o, "offering-1")
		require.NoError(t, err)
	}

	eq := func(ref, lit string) filter.Comparison {
		return filter.Comparison{Op: filter.ComparisonEqual, ValueReference: ref, Literal: lit, MatchCase: true}
	}
	period := ir.Period{Begin: ir.Instant{Position: at(1)}, End: ir.Instant{Position: at(20)}}

	tests := []struct {
		name string
		f    filter.Filter
		want []string
	}{
		{"all", nil, []string{"obs-1", "obs-2", "obs-3"}},
		{"procedure", eq("om:procedure", "http://example.org/procedure/A"), []string{"obs-1", "obs-2"}},
		{"offering", eq("sos:offering", "offering-1"), []string{"obs-1", "obs-2", "obs-3"}},
		{"result", eq("om:result", "3"), []string{"obs-3"}},
		{"during", filter.Temporal{Op: filter.TemporalDuring, Time: period}, []string{"obs-2", "obs-3"}},
		{"before", filter.Temporal{Op: filter.TemporalBefore, ValueReference: "resultTime", Time: ir.Instant{Position: at(5)}}, []string{"obs-1"}},
		{
			"bbox",
			filter.Spatial{Op: filter.SpatialBBOX, ValueReference: "sams:shape", Geometry: ir.NewEnvelope(4326, ir.Coord{50, 7}, ir.Coord{53, 10})},
			[]string{"obs-1"},
		},
		{"not", filter.Unary{Child: eq("om:procedure", "http://example.org/procedure/A")}, []string{"obs-3"}},
		{
			"like is case sensitive",
			filter.Comparison{Op: filter.ComparisonLike, ValueReference: "om:procedure", Literal: "*procedure/a", MatchCase: true, WildCard: '*', SingleChar: '.'},
			[]string{},
		},
		{
			"like ignoring case",
			filter.Comparison{Op: filter.ComparisonLike, ValueReference: "om:procedure", Literal: "*procedure/a", MatchCase: false, WildCard: '*', SingleChar: '.'},
			[]string{"obs-1", "obs-2"},
		},
		{
			"or",
			filter.Binary{Op: filter.LogicalOr, Children: []filter.Filter{
				eq("om:procedure", "http://example.org/procedure/B"),
				filter.Temporal{Op: filter.TemporalEquals, Time: ir.Instant{Position: at(0)}},
			}},
			[]string{"obs-1", "obs-3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := s.QueryObservations(ctx, tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(recs))
		})
	}

	_, err := s.QueryObservations(ctx, eq("gml:name", "x"))
	assert.True(t, decode.IsInvalidParameterValue(err))
}

func TestQueryObservations_Document(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	o := measurement("p1", 0, 0.28, nil)
	_, err := s.InsertObservation(ctx, o, "")
	require.NoError(t, err)

	recs, err := s.QueryObservations(ctx, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	want, err := ir.MarshalCanonical(o)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(recs[0].Document))
	assert.Equal(t, "2012-11-19T13:00:00.000000000Z", recs[0].PhenomenonStart)
}
