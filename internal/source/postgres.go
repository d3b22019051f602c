package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"vtable"
)

// Querier is the slice of pgxpool.Pool the postgres source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGSource runs one query and turns every result row into a record keyed by
// column name. The query must return an integer "id" column.
type PGSource struct {
	db    Querier
	query string
	args  []any
}

// NewPGSource returns a source running query against db.
func NewPGSource(db Querier, query string, args ...any) *PGSource {
	return &PGSource{db: db, query: query, args: args}
}

func (s *PGSource) Name() string { return "postgres" }

func (s *PGSource) Load(ctx context.Context) ([]vtable.Row, error) {
	rows, err := s.db.Query(ctx, s.query, s.args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []vtable.Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(out), err)
		}
		rec := make(map[string]any, len(fields))
		for i, f := range fields {
			if i < len(vals) {
				rec[f.Name] = vals[i]
			}
		}
		r, err := ToRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(out), err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
