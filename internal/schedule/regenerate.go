package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/derekprior/leaguesched/internal/config"
	"github.com/derekprior/leaguesched/internal/games"
	"github.com/derekprior/leaguesched/internal/validator"
)

// ErrPersistence matches every *PersistenceError.
var ErrPersistence = errors.New("schedule persistence failed")

// PersistenceError means nothing from the regeneration was applied; the caller
// should retry the whole regeneration.
type PersistenceError struct {
	DivisionID string
	Op         string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("division %s: %s: %v", e.DivisionID, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Summary reports one division regeneration.
type Summary struct {
	DivisionID     string
	Created        int
	Updated        int
	Deleted        int
	Unchanged      int
	Conflicts      []Conflict
	LockedWarnings []LockedWeekConflict
	// Err is set by RegenerateAll when this division failed.
	Err error
}

// Service regenerates division schedules against a game store.
type Service struct {
	store     games.Store
	locations games.LocationDirectory
	newID     func() string
	logger    zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Option func(*Service)

// WithLocations sets the directory used to resolve game locations for conflict detection.
func WithLocations(l games.LocationDirectory) Option {
	return func(s *Service) { s.locations = l }
}

// WithIDs sets the generator for new game IDs.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(store games.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		locations: games.GameLocation,
		logger:    log.With().Str("component", "schedule_regenerate").Logger(),
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// divisionLock serializes regenerations of one division within this process;
// two concurrent passes over the same existing games would both create the
// same new weeks. Across processes the store rejects the losing batch.
func (s *Service) divisionLock(divisionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[divisionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[divisionID] = l
	}
	return l
}

// Regenerate validates the season, generates its slots, reconciles them with
// the division's persisted games and applies the result as one atomic batch.
// Locked-week and location conflicts are reported in the Summary; they do not
// stop the batch.
func (s *Service) Regenerate(ctx context.Context, divisionID string, season config.Season) (Summary, error) {
	logger := s.logger.With().Str("division_id", divisionID).Logger()

	if err := validator.Validate(season).Err(); err != nil {
		logger.Warn().Err(err).Msg("Season configuration rejected")
		return Summary{DivisionID: divisionID}, err
	}

	lock := s.divisionLock(divisionID)
	lock.Lock()
	defer lock.Unlock()

	slots := Generate(season)

	existing, err := s.store.ListGamesForDivision(ctx, divisionID)
	if err != nil {
		return Summary{DivisionID: divisionID}, &PersistenceError{DivisionID: divisionID, Op: "listing games", Err: err}
	}

	plan := Reconciler{DivisionID: divisionID, NewID: s.newID}.Reconcile(existing, slots)
	projected := plan.Apply(existing)

	conflicts, err := s.conflictsFor(ctx, divisionID, projected)
	if err != nil {
		return Summary{DivisionID: divisionID}, &PersistenceError{DivisionID: divisionID, Op: "listing games for conflict check", Err: err}
	}

	if batch := plan.Batch(); !batch.Empty() {
		if err := s.store.ApplyBatch(ctx, divisionID, batch); err != nil {
			logger.Error().Err(err).Msg("Applying schedule batch failed")
			return Summary{DivisionID: divisionID}, &PersistenceError{DivisionID: divisionID, Op: "applying batch", Err: err}
		}
	}

	summary := Summary{
		DivisionID:     divisionID,
		Created:        len(plan.Create),
		Updated:        len(plan.Update),
		Deleted:        len(plan.Delete),
		Unchanged:      plan.Unchanged,
		Conflicts:      conflicts,
		LockedWarnings: plan.Warnings,
	}

	for _, w := range plan.Warnings {
		logger.Warn().Int("week", w.Week).Str("kind", w.Kind.String()).Str("game_id", w.Game.ID).Msg("Locked game left untouched")
	}
	logger.Info().
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("deleted", summary.Deleted).
		Int("unchanged", summary.Unchanged).
		Int("conflicts", len(summary.Conflicts)).
		Msg("Schedule regenerated")

	return summary, nil
}

// conflictsFor checks the division's projected games against every other
// division's games in the same window.
func (s *Service) conflictsFor(ctx context.Context, divisionID string, projected []games.Game) ([]Conflict, error) {
	if len(projected) == 0 {
		return nil, nil
	}
	from, to := projected[0].Start, projected[0].End
	for _, g := range projected[1:] {
		if g.Start.Before(from) {
			from = g.Start
		}
		if g.End.After(to) {
			to = g.End
		}
	}

	others, err := s.store.ListGamesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	all := make([]games.Game, 0, len(projected)+len(others))
	all = append(all, projected...)
	for _, g := range others {
		if g.DivisionID != divisionID {
			all = append(all, g)
		}
	}

	var mine []Conflict
	for _, c := range DetectConflicts(all, s.locations) {
		if c.InvolvesDivision(divisionID) {
			mine = append(mine, c)
		}
	}
	return mine, nil
}

// Job is one division to regenerate.
type Job struct {
	DivisionID string
	Season     config.Season
}

// RegenerateAll runs independent divisions concurrently. Summaries line up
// with jobs; the first error is returned after every job has finished.
func (s *Service) RegenerateAll(ctx context.Context, jobs []Job) ([]Summary, error) {
	summaries := make([]Summary, len(jobs))
	var g errgroup.Group
	g.SetLimit(4)
	for i, job := range jobs {
		g.Go(func() error {
			sum, err := s.Regenerate(ctx, job.DivisionID, job.Season)
			sum.Err = err
			summaries[i] = sum
			if err != nil {
				return fmt.Errorf("regenerating %s: %w", job.DivisionID, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return summaries, err
}
