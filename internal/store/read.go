package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/filter"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Procedure is a stored procedure description.
type Procedure struct {
	ID          string
	Format      string
	Description string
	ContentHash string
}

// ProcedureRecord returns the stored description of a procedure without
// decoding it.
func (s *Store) ProcedureRecord(ctx context.Context, id string) (Procedure, error) {
	p := Procedure{ID: id}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT format, description, content_hash FROM procedures WHERE id = ?
	`), id).Scan(&p.Format, &p.Description, &p.ContentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Procedure{}, fmt.Errorf("procedure %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Procedure{}, fmt.Errorf("read procedure: %w", err)
	}
	return p, nil
}

// Procedure reads the stored description of a procedure and decodes it
// through d.
func (s *Store) Procedure(ctx context.Context, id string, d decode.Dispatcher) (any, error) {
	p, err := s.ProcedureRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	root, err := xmltree.ParseString(p.Description)
	if err != nil {
		return nil, decode.NoApplicableCode("stored procedure description is not well-formed", err)
	}
	return d.Decode(root)
}

// ObservationRecord is one stored observation. Document holds the decoded
// observation as canonical JSON.
type ObservationRecord struct {
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	Procedure         string          `json:"procedure"`
	ObservedProperty  string          `json:"observed_property"`
	FeatureOfInterest string          `json:"feature_of_interest"`
	Offering          string          `json:"offering,omitempty"`
	PhenomenonStart   string          `json:"phenomenon_time_start"`
	PhenomenonEnd     string          `json:"phenomenon_time_end"`
	Document          json.RawMessage `json:"document"`
}

var observationColumns = []string{
	"id", "type", "procedure", "observed_property", "feature_of_interest", "offering",
	"phenomenon_time_start", "phenomenon_time_end", "document",
}

// QueryObservations returns the observations matching f, ordered by
// phenomenon time then id. A nil filter matches everything.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) QueryObservations(ctx context.Context, f filter.Filter) ([]ObservationRecord, error) {
	query, params, err := s.compiler.Select("observations", observationColumns, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	out := []ObservationRecord{}
	for rows.Next() {
		var r ObservationRecord
		var doc string
		if err := rows.Scan(&r.ID, &r.Type, &r.Procedure, &r.ObservedProperty, &r.FeatureOfInterest,
			&r.Offering, &r.PhenomenonStart, &r.PhenomenonEnd, &doc); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		r.Document = json.RawMessage(doc)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return out, nil
}
