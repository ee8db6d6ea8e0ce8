package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/derekprior/leaguesched/internal/games"
)

var (
	// ErrGameNotFound is returned when a game ID has no row.
	ErrGameNotFound = errors.New("game not found")
	// ErrStaleBatch is returned when a batch update or delete no longer
	// matches an unlocked row of its division; the whole batch is rolled back.
	ErrStaleBatch = errors.New("batch targets a locked or missing game or an occupied week")
)

// Queries holds the hand-written statements against the games schema.
type Queries struct {
	db DBTX
}

const gameColumns = `id, division_id, week, starts_at, ends_at, time_zone, location_id, status, locked`

type gameRow struct {
	ID         string
	DivisionID string
	Week       int
	StartsAt   int64
	EndsAt     int64
	TimeZone   string
	LocationID string
	Status     string
	Locked     bool
}

func scanGame(scanner interface{ Scan(...any) error }) (games.Game, error) {
	var r gameRow
	if err := scanner.Scan(&r.ID, &r.DivisionID, &r.Week, &r.StartsAt, &r.EndsAt,
		&r.TimeZone, &r.LocationID, &r.Status, &r.Locked); err != nil {
		return games.Game{}, err
	}
	loc, err := time.LoadLocation(r.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	status, err := games.ParseStatus(r.Status)
	if err != nil {
		return games.Game{}, fmt.Errorf("game %s: %w", r.ID, err)
	}
	return games.Game{
		ID:         r.ID,
		DivisionID: r.DivisionID,
		Week:       r.Week,
		Start:      time.Unix(r.StartsAt, 0).In(loc),
		End:        time.Unix(r.EndsAt, 0).In(loc),
		LocationID: r.LocationID,
		Status:     status,
		Locked:     r.Locked,
	}, nil
}

func (q *Queries) listGames(ctx context.Context, query string, args ...any) ([]games.Game, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []games.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (q *Queries) ListGamesForDivision(ctx context.Context, divisionID string) ([]games.Game, error) {
	return q.listGames(ctx,
		`SELECT `+gameColumns+` FROM games WHERE division_id = ? ORDER BY week, id`,
		divisionID)
}

// ListGamesBetween returns games of every division overlapping [from, to).
func (q *Queries) ListGamesBetween(ctx context.Context, from, to time.Time) ([]games.Game, error) {
	return q.listGames(ctx,
		`SELECT `+gameColumns+` FROM games WHERE starts_at < ? AND ends_at > ? ORDER BY division_id, week, id`,
		to.Unix(), from.Unix())
}

func (q *Queries) GetGame(ctx context.Context, id string) (games.Game, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return games.Game{}, fmt.Errorf("game %s: %w", id, ErrGameNotFound)
	}
	return g, err
}

func (q *Queries) CreateGame(ctx context.Context, g games.Game) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO games (`+gameColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.DivisionID, g.Week, g.Start.Unix(), g.End.Unix(), zoneName(g.Start),
		g.LocationID, string(g.Status), g.Locked)
	return err
}

// UpdateUnlockedGame moves an unlocked game to a new slot and reports how many
// rows matched. Status belongs to the admin and scoring paths and is never
// written here.
func (q *Queries) UpdateUnlockedGame(ctx context.Context, g games.Game) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE games
		SET starts_at = ?, ends_at = ?, time_zone = ?, location_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND division_id = ? AND locked = 0`,
		g.Start.Unix(), g.End.Unix(), zoneName(g.Start), g.LocationID,
		g.ID, g.DivisionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteUnlockedGame(ctx context.Context, id, divisionID string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM games WHERE id = ? AND division_id = ? AND locked = 0`, id, divisionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetStatus records a game outcome. Played games are locked so regeneration
// leaves them alone.
func (q *Queries) SetStatus(ctx context.Context, id string, status games.Status) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE games
		SET status = ?, locked = CASE WHEN ? = 'played' THEN 1 ELSE locked END, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		string(status), string(status), id)
	if err != nil {
		return err
	}
	return expectOne(res, id)
}

func (q *Queries) SetLocked(ctx context.Context, id string, locked bool) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE games SET locked = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, locked, id)
	if err != nil {
		return err
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("game %s: %w", id, ErrGameNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func zoneName(t time.Time) string {
	if name := t.Location().String(); name != "Local" {
		return name
	}
	return "UTC"
}

// ListGamesForDivision implements games.Store.
func (db *DB) ListGamesForDivision(ctx context.Context, divisionID string) ([]games.Game, error) {
	gs, err := db.Queries.ListGamesForDivision(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("list games for division %s: %w", divisionID, err)
	}
	return gs, nil
}

// ListGamesBetween implements games.Store.
func (db *DB) ListGamesBetween(ctx context.Context, from, to time.Time) ([]games.Game, error) {
	gs, err := db.Queries.ListGamesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list games between %s and %s: %w", from.Format(time.RFC3339), to.Format(time.RFC3339), err)
	}
	return gs, nil
}

// ApplyBatch implements games.Store. Deletes and updates are guarded on the
// row still being unlocked and in the division, so a game locked after the
// batch was planned fails the whole batch instead of being overwritten.
// Creates are guarded by the unique (division_id, week) index, so a pass
// planned against games another process has since filled in fails too.
func (db *DB) ApplyBatch(ctx context.Context, divisionID string, b games.Batch) error {
	return db.RunInTx(ctx, func(tx *DB) error {
		for _, g := range b.Delete {
			n, err := tx.Queries.DeleteUnlockedGame(ctx, g.ID, divisionID)
			if err != nil {
				return fmt.Errorf("delete game %s: %w", g.ID, err)
			}
			if n != 1 {
				return fmt.Errorf("delete game %s: %w", g.ID, ErrStaleBatch)
			}
		}
		for _, g := range b.Update {
			g.DivisionID = divisionID
			n, err := tx.Queries.UpdateUnlockedGame(ctx, g)
			if err != nil {
				return fmt.Errorf("update game %s: %w", g.ID, err)
			}
			if n != 1 {
				return fmt.Errorf("update game %s: %w", g.ID, ErrStaleBatch)
			}
		}
		for _, g := range b.Create {
			g.DivisionID = divisionID
			if err := tx.Queries.CreateGame(ctx, g); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("create game %s for week %d: %w", g.ID, g.Week, ErrStaleBatch)
				}
				return fmt.Errorf("create game %s: %w", g.ID, err)
			}
		}
		return nil
	})
}

var _ games.Store = (*DB)(nil)
