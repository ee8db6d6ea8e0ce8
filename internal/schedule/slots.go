package schedule

import (
	"time"

	"github.com/derekprior/leaguesched/internal/calendar"
	"github.com/derekprior/leaguesched/internal/config"
)

// GameSlot is a computed, not yet persisted, weekly game occurrence.
type GameSlot struct {
	// Week is the 1-based playable week. Byes carry 0: they never consume a number.
	Week     int
	Date     time.Time
	Start    time.Time
	End      time.Time
	Location string
	Bye      bool
	Playoff  bool
	// Reason is the blackout reason for byes.
	Reason string
}

// Generate expands a season into its playable game slots, in date order.
// The result depends only on the season, so identical configurations always
// produce identical slots. No returned slot falls inside a blackout range.
func Generate(season config.Season) []GameSlot {
	var playable []GameSlot
	for _, s := range GenerateCalendar(season) {
		if !s.Bye {
			playable = append(playable, s)
		}
	}
	return playable
}

// GenerateCalendar walks the season week by week and returns every candidate
// date, with blacked-out dates included as byes.
func GenerateCalendar(season config.Season) []GameSlot {
	if season.EndDate == nil && season.Weeks <= 0 {
		return nil
	}
	if season.StartDate.Time.IsZero() || !season.Weekday.Set {
		return nil
	}

	loc := season.Loc()
	ranges := season.BlackoutRanges()
	reasons := blackoutReasons(season)

	var end time.Time
	if season.EndDate != nil {
		end = calendar.DateIn(season.EndDate.Time, loc)
	}

	var slots []GameSlot
	week := 0
	d := calendar.NextOccurrence(season.Weekday.Day, calendar.DateIn(season.StartDate.Time, loc))
	for {
		if season.EndDate != nil && d.After(end) {
			break
		}
		if season.Weeks > 0 && week >= season.Weeks {
			break
		}

		slot := GameSlot{
			Date:     d,
			Start:    season.StartTime.Value.On(d),
			End:      season.EndTime.Value.On(d),
			Location: season.Location,
		}
		if i := calendar.RangeIndex(d, ranges); i >= 0 {
			slot.Bye = true
			slot.Reason = reasons[i]
		} else {
			week++
			slot.Week = week
		}
		slots = append(slots, slot)

		d = d.AddDate(0, 0, 7)
	}

	markPlayoffs(slots, season.PlayoffWeeks)
	return slots
}

// blackoutReasons lines up with season.BlackoutRanges.
func blackoutReasons(season config.Season) []string {
	var reasons []string
	for _, b := range season.Blackouts {
		if _, ok := b.Range(); ok {
			reasons = append(reasons, b.Reason)
		}
	}
	return reasons
}

// markPlayoffs flags the last n playable weeks.
func markPlayoffs(slots []GameSlot, n int) {
	for i := len(slots) - 1; i >= 0 && n > 0; i-- {
		if slots[i].Bye {
			continue
		}
		slots[i].Playoff = true
		n--
	}
}
