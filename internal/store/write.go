package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/52North/SOS-sub005/internal/filtersql"
	"github.com/52North/SOS-sub005/internal/format/om"
	"github.com/52North/SOS-sub005/internal/ir"
)

// PutProcedure stores or replaces the description document of a procedure.
func (s *Store) PutProcedure(ctx context.Context, id, format, description string) error {
	if id == "" {
		return fmt.Errorf("put procedure: empty id")
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO procedures (id, format, description, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			format = excluded.format,
			description = excluded.description,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`),
		id,
		format,
		description,
		ir.DocumentHash(description),
		filtersql.FormatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("put procedure: %w", err)
	}
	return nil
}

// InsertObservation stores a decoded observation under offering and
// returns its id. Observations are deduplicated by content hash: storing
// an equal observation again returns the id of the existing row.
func (s *Store) InsertObservation(ctx context.Context, o *om.Observation, offering string) (string, error) {
	row, err := newObservationRow(o)
	if err != nil {
		return "", fmt.Errorf("insert observation: %w", err)
	}

	id := s.newID()
	res, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO observations
		(id, content_hash, type, procedure, observed_property, feature_of_interest, offering,
		 phenomenon_time_start, phenomenon_time_end, result_time, result_text,
		 shape_srid, shape_min_x, shape_min_y, shape_max_x, shape_max_y, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING
	`),
		id,
		row.hash,
		o.Type,
		o.Procedure,
		o.ObservedProperty,
		o.FeatureOfInterest.Identifier,
		offering,
		row.start,
		row.end,
		row.resultTime,
		row.resultText,
		row.srid,
		row.box[0],
		row.box[1],
		row.box[2],
		row.box[3],
		row.document,
	)
	if err != nil {
		return "", fmt.Errorf("insert observation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return id, nil
	}

	var existing string
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT id FROM observations WHERE content_hash = ?`), row.hash).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("insert observation: row for %s vanished", row.hash)
	}
	if err != nil {
		return "", fmt.Errorf("insert observation: %w", err)
	}
	return existing, nil
}
