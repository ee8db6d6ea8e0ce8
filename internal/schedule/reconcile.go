package schedule

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/derekprior/leaguesched/internal/games"
)

// LockKind says why a locked game blocked regeneration.
type LockKind int

const (
	// LockDrift: the regenerated week no longer matches the locked game's date, time or location.
	LockDrift LockKind = iota
	// LockOrphan: the week no longer exists in the regenerated schedule.
	LockOrphan
)

func (k LockKind) String() string {
	switch k {
	case LockDrift:
		return "drift"
	case LockOrphan:
		return "orphan"
	default:
		return "unknown"
	}
}

// LockedWeekConflict is a non-fatal warning: regeneration wanted to move or
// remove a locked game and left it alone instead.
type LockedWeekConflict struct {
	Week int
	Kind LockKind
	Game games.Game
	// Slot is the regenerated slot for the week; nil for orphans.
	Slot *GameSlot
}

func (c LockedWeekConflict) String() string {
	switch c.Kind {
	case LockOrphan:
		return fmt.Sprintf("week %d: locked game %s on %s is no longer part of the season; resolve manually",
			c.Week, c.Game.ID, c.Game.Start.Format("2006-01-02"))
	default:
		return fmt.Sprintf("week %d: locked game %s stays at %s %s-%s @ %s; regenerated slot is %s %s-%s @ %s",
			c.Week, c.Game.ID,
			c.Game.Start.Format("2006-01-02"), c.Game.Start.Format("15:04"), c.Game.End.Format("15:04"), c.Game.LocationID,
			c.Slot.Date.Format("2006-01-02"), c.Slot.Start.Format("15:04"), c.Slot.End.Format("15:04"), c.Slot.Location)
	}
}

// Plan is the diff between a division's persisted games and a regenerated slot sequence.
type Plan struct {
	Create    []games.Game
	Update    []games.Game
	Delete    []games.Game
	Warnings  []LockedWeekConflict
	Unchanged int
}

// Batch returns the writes of the plan.
func (p Plan) Batch() games.Batch {
	return games.Batch{Create: p.Create, Update: p.Update, Delete: p.Delete}
}

// Apply returns the game set that results from applying the plan to existing.
func (p Plan) Apply(existing []games.Game) []games.Game {
	deleted := make(map[string]bool, len(p.Delete))
	for _, g := range p.Delete {
		deleted[g.ID] = true
	}
	updated := make(map[string]games.Game, len(p.Update))
	for _, g := range p.Update {
		updated[g.ID] = g
	}

	out := make([]games.Game, 0, len(existing)+len(p.Create))
	for _, g := range existing {
		if deleted[g.ID] {
			continue
		}
		if u, ok := updated[g.ID]; ok {
			g = u
		}
		out = append(out, g)
	}
	out = append(out, p.Create...)
	sortByWeek(out)
	return out
}

// Reconciler diffs regenerated slots against a division's persisted games.
type Reconciler struct {
	DivisionID string
	// NewID names created games; uuid.NewString when nil.
	NewID func() string
}

// Reconcile diffs with a default Reconciler.
func Reconcile(existing []games.Game, slots []GameSlot) Plan {
	return Reconciler{}.Reconcile(existing, slots)
}

// Reconcile matches games to slots by week number. Locked games are fixed
// points: they never appear in Update or Delete. Unlocked games follow their
// slot, and unlocked games whose week disappeared are deleted. Nothing is
// renumbered.
func (r Reconciler) Reconcile(existing []games.Game, slots []GameSlot) Plan {
	newID := r.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	byWeek, extras := indexByWeek(existing)

	var plan Plan
	seen := make(map[int]bool)
	for i := range slots {
		slot := slots[i]
		if slot.Bye || seen[slot.Week] {
			continue
		}
		seen[slot.Week] = true

		g, ok := byWeek[slot.Week]
		if !ok {
			plan.Create = append(plan.Create, games.Game{
				ID:         newID(),
				DivisionID: r.DivisionID,
				Week:       slot.Week,
				Start:      slot.Start,
				End:        slot.End,
				LocationID: slot.Location,
				Status:     games.StatusScheduled,
			})
			continue
		}

		if matchesSlot(g, slot) {
			plan.Unchanged++
			continue
		}
		if g.Locked {
			plan.Warnings = append(plan.Warnings, LockedWeekConflict{
				Week: slot.Week,
				Kind: LockDrift,
				Game: g,
				Slot: &slot,
			})
			continue
		}

		g.Start = slot.Start
		g.End = slot.End
		g.LocationID = slot.Location
		plan.Update = append(plan.Update, g)
	}

	var orphans []games.Game
	for week, g := range byWeek {
		if !seen[week] {
			orphans = append(orphans, g)
		}
	}
	orphans = append(orphans, extras...)
	sortByWeek(orphans)

	for _, g := range orphans {
		if g.Locked {
			plan.Warnings = append(plan.Warnings, LockedWeekConflict{Week: g.Week, Kind: LockOrphan, Game: g})
			continue
		}
		plan.Delete = append(plan.Delete, g)
	}

	return plan
}

// indexByWeek picks one game per week: the locked one if any, otherwise the
// lowest ID. Every other game claiming the same week is returned as an extra.
func indexByWeek(existing []games.Game) (map[int]games.Game, []games.Game) {
	sorted := make([]games.Game, len(existing))
	copy(sorted, existing)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Week != sorted[j].Week {
			return sorted[i].Week < sorted[j].Week
		}
		if sorted[i].Locked != sorted[j].Locked {
			return sorted[i].Locked
		}
		return sorted[i].ID < sorted[j].ID
	})

	byWeek := make(map[int]games.Game, len(sorted))
	var extras []games.Game
	for _, g := range sorted {
		if _, dup := byWeek[g.Week]; dup {
			extras = append(extras, g)
			continue
		}
		byWeek[g.Week] = g
	}
	return byWeek, extras
}

func matchesSlot(g games.Game, s GameSlot) bool {
	return g.Start.Equal(s.Start) && g.End.Equal(s.End) && g.LocationID == s.Location
}

func sortByWeek(gs []games.Game) {
	sort.SliceStable(gs, func(i, j int) bool {
		if gs[i].Week != gs[j].Week {
			return gs[i].Week < gs[j].Week
		}
		return gs[i].ID < gs[j].ID
	})
}
