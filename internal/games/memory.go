package games

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	ErrLockedGame = errors.New("game is locked")
	// ErrWeekTaken is returned when a created game would give a division a
	// second game in one week.
	ErrWeekTaken = errors.New("week already has a game")
)

// MemoryStore is an in-process Store used by tests and dry runs.
type MemoryStore struct {
	mu    sync.Mutex
	games map[string]Game
	// FailApply, when set, makes ApplyBatch fail without writing anything.
	FailApply error
}

func NewMemoryStore(seed ...Game) *MemoryStore {
	s := &MemoryStore{games: make(map[string]Game)}
	for _, g := range seed {
		s.games[g.ID] = g
	}
	return s
}

func (s *MemoryStore) ListGamesForDivision(_ context.Context, divisionID string) ([]Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Game
	for _, g := range s.games {
		if g.DivisionID == divisionID {
			out = append(out, g)
		}
	}
	sortGames(out)
	return out, nil
}

func (s *MemoryStore) ListGamesBetween(_ context.Context, from, to time.Time) ([]Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Game
	for _, g := range s.games {
		if g.Start.Before(to) && g.End.After(from) {
			out = append(out, g)
		}
	}
	sortGames(out)
	return out, nil
}

// ApplyBatch refuses the whole batch when it would touch a locked game or a
// game that no longer exists.
func (s *MemoryStore) ApplyBatch(_ context.Context, divisionID string, b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailApply != nil {
		return s.FailApply
	}

	for _, g := range append(append([]Game{}, b.Update...), b.Delete...) {
		cur, ok := s.games[g.ID]
		if !ok {
			return fmt.Errorf("game %s not found", g.ID)
		}
		if cur.Locked {
			return fmt.Errorf("game %s: %w", g.ID, ErrLockedGame)
		}
		if cur.DivisionID != divisionID {
			return fmt.Errorf("game %s belongs to division %s", g.ID, cur.DivisionID)
		}
	}
	deleted := make(map[string]bool, len(b.Delete))
	for _, g := range b.Delete {
		deleted[g.ID] = true
	}
	weeks := make(map[int]string)
	for id, g := range s.games {
		if g.DivisionID == divisionID && !deleted[id] {
			weeks[g.Week] = id
		}
	}
	for _, g := range b.Create {
		if _, ok := s.games[g.ID]; ok {
			return fmt.Errorf("game %s already exists", g.ID)
		}
		if other, ok := weeks[g.Week]; ok {
			return fmt.Errorf("game %s: week %d already held by %s: %w", g.ID, g.Week, other, ErrWeekTaken)
		}
		weeks[g.Week] = g.ID
	}

	for _, g := range b.Delete {
		delete(s.games, g.ID)
	}
	// Regeneration only moves games; status, lock and week stay as stored.
	for _, g := range b.Update {
		cur := s.games[g.ID]
		cur.Start, cur.End, cur.LocationID = g.Start, g.End, g.LocationID
		s.games[g.ID] = cur
	}
	for _, g := range b.Create {
		g.DivisionID = divisionID
		s.games[g.ID] = g
	}
	return nil
}

// Put stores g as-is, bypassing lock checks. It stands in for the scoring and
// admin-edit paths that mutate games outside regeneration.
func (s *MemoryStore) Put(g Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
}

func (s *MemoryStore) Get(id string) (Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	return g, ok
}

func sortGames(gs []Game) {
	sort.Slice(gs, func(i, j int) bool {
		if gs[i].DivisionID != gs[j].DivisionID {
			return gs[i].DivisionID < gs[j].DivisionID
		}
		if gs[i].Week != gs[j].Week {
			return gs[i].Week < gs[j].Week
		}
		return gs[i].ID < gs[j].ID
	})
}
