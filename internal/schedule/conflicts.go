package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/derekprior/leaguesched/internal/calendar"
	"github.com/derekprior/leaguesched/internal/games"
)

// Conflict is a double booking: two games at one location whose time ranges
// overlap on the same calendar date. A is always the game with the lower ID.
type Conflict struct {
	Location string
	A        games.Game
	B        games.Game
}

// InvolvesDivision reports whether either game belongs to divisionID.
func (c Conflict) InvolvesDivision(divisionID string) bool {
	return c.A.DivisionID == divisionID || c.B.DivisionID == divisionID
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s on %s: %s week %d (%s-%s) overlaps %s week %d (%s-%s)",
		c.Location, c.A.Start.Format("2006-01-02"),
		c.A.DivisionID, c.A.Week, c.A.Start.Format("15:04"), c.A.End.Format("15:04"),
		c.B.DivisionID, c.B.Week, c.B.Start.Format("15:04"), c.B.End.Format("15:04"))
}

// DetectConflicts reports every pair of games that share a location and
// overlap in time on the same date. Touching ranges do not overlap. Canceled
// games and games with no location never conflict. Each pair is reported once
// and the result does not depend on input order.
func DetectConflicts(gs []games.Game, locationOf games.LocationDirectory) []Conflict {
	if locationOf == nil {
		locationOf = games.GameLocation
	}

	type bucketKey struct {
		location string
		date     time.Time
	}
	buckets := make(map[bucketKey][]games.Game)
	seenID := make(map[string]bool)
	for _, g := range gs {
		if g.Status == games.StatusCanceled || seenID[g.ID] {
			continue
		}
		loc := locationOf.LocationOf(g)
		if loc == "" {
			continue
		}
		seenID[g.ID] = true
		key := bucketKey{loc, calendar.DateIn(g.Start, time.UTC)}
		buckets[key] = append(buckets[key], g)
	}

	var conflicts []Conflict
	for key, bucket := range buckets {
		sort.Slice(bucket, func(i, j int) bool {
			if !bucket[i].Start.Equal(bucket[j].Start) {
				return bucket[i].Start.Before(bucket[j].Start)
			}
			return bucket[i].ID < bucket[j].ID
		})
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				a, b := bucket[i], bucket[j]
				if !b.Start.Before(a.End) {
					break
				}
				if !overlaps(a, b) {
					continue
				}
				if b.ID < a.ID {
					a, b = b, a
				}
				conflicts = append(conflicts, Conflict{Location: key.location, A: a, B: b})
			}
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		ci, cj := conflicts[i], conflicts[j]
		if ci.Location != cj.Location {
			return ci.Location < cj.Location
		}
		si, sj := earlier(ci.A.Start, ci.B.Start), earlier(cj.A.Start, cj.B.Start)
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		if ci.A.ID != cj.A.ID {
			return ci.A.ID < cj.A.ID
		}
		return ci.B.ID < cj.B.ID
	})
	return conflicts
}

func overlaps(a, b games.Game) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
