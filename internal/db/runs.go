package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is the recorded outcome of one division regeneration.
type Run struct {
	ID             string
	DivisionID     string
	Created        int
	Updated        int
	Deleted        int
	Unchanged      int
	Conflicts      int
	LockedWarnings int
	RanAt          time.Time
}

func (q *Queries) CreateRun(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RanAt.IsZero() {
		r.RanAt = time.Now()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO regeneration_runs (id, division_id, created, updated, deleted, unchanged, conflicts, locked_warnings, ran_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DivisionID, r.Created, r.Updated, r.Deleted, r.Unchanged, r.Conflicts, r.LockedWarnings, r.RanAt.Unix())
	if err != nil {
		return Run{}, fmt.Errorf("record run for division %s: %w", r.DivisionID, err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. An empty divisionID lists every division.
func (q *Queries) ListRuns(ctx context.Context, divisionID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, division_id, created, updated, deleted, unchanged, conflicts, locked_warnings, ran_at
		FROM regeneration_runs
		WHERE ? = '' OR division_id = ?
		ORDER BY ran_at DESC, id
		LIMIT ?`,
		divisionID, divisionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var ranAt int64
		if err := rows.Scan(&r.ID, &r.DivisionID, &r.Created, &r.Updated, &r.Deleted,
			&r.Unchanged, &r.Conflicts, &r.LockedWarnings, &ranAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.RanAt = time.Unix(ranAt, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}
