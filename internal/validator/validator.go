// Package validator checks a season configuration for internal consistency
// before any schedule is generated from it.
package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/derekprior/leaguesched/internal/calendar"
	"github.com/derekprior/leaguesched/internal/config"
)

// ErrInvalidConfig matches every *InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid season configuration")

// Violation is one broken season invariant.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// Result holds every violation found, in check order.
type Result struct {
	Violations []Violation
}

func (r Result) OK() bool { return len(r.Violations) == 0 }

// Err returns nil when the configuration is valid.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &InvalidConfigError{Violations: r.Violations}
}

// InvalidConfigError carries the full list of violations so callers can show
// every form error at once.
type InvalidConfigError struct {
	Violations []Violation
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func (e *InvalidConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

type checker struct {
	violations []Violation
}

func (c *checker) addf(field, format string, args ...any) {
	c.violations = append(c.violations, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks s and reports every violated invariant.
func Validate(s config.Season) Result {
	c := &checker{}

	checkSlot(c, s)
	checkBounds(c, s)
	checkBlackouts(c, s)
	checkExtras(c, s)

	if _, err := time.LoadLocation(s.TimeZone); err != nil {
		c.addf("timezone", "unknown time zone %q", s.TimeZone)
	}

	return Result{Violations: c.violations}
}

func checkSlot(c *checker, s config.Season) {
	if !s.Weekday.Set {
		c.addf("weekday", "weekday is required")
	}
	if s.StartTime.Value >= s.EndTime.Value {
		c.addf("start_time", "start time %s must be before end time %s", s.StartTime.Value, s.EndTime.Value)
	}
}

func checkBounds(c *checker, s config.Season) {
	if s.StartDate.Time.IsZero() {
		c.addf("start_date", "start date is required")
	}
	if s.Weeks < 0 {
		c.addf("weeks", "week count %d must not be negative", s.Weeks)
	}
	if s.EndDate == nil && s.Weeks <= 0 {
		c.addf("end_date", "either an end date or a week count is required")
	}
	if s.EndDate != nil && !s.StartDate.Time.IsZero() && s.EndDate.Time.Before(s.StartDate.Time) {
		c.addf("end_date", "end date %s must be on or after start date %s",
			s.EndDate.Time.Format(calendar.DateLayout),
			s.StartDate.Time.Format(calendar.DateLayout))
	}
}

func checkBlackouts(c *checker, s config.Season) {
	type indexed struct {
		i int
		r calendar.Range
	}
	var ranges []indexed

	for i, b := range s.Blackouts {
		field := fmt.Sprintf("blackouts[%d]", i)
		hasDate := b.Date != nil
		hasRange := b.StartDate != nil || b.EndDate != nil
		switch {
		case !hasDate && !hasRange:
			c.addf(field, "blackout must have either 'date' or 'start_date'/'end_date'")
			continue
		case hasDate && hasRange:
			c.addf(field, "blackout cannot have both 'date' and 'start_date'/'end_date'")
			continue
		case hasRange && (b.StartDate == nil || b.EndDate == nil):
			c.addf(field, "blackout with a date range must have both 'start_date' and 'end_date'")
			continue
		}

		r, _ := b.Range()
		if r.End.Before(r.Start) {
			c.addf(field, "blackout end date %s must be on or after start date %s",
				r.End.Format(calendar.DateLayout), r.Start.Format(calendar.DateLayout))
			continue
		}
		if !s.StartDate.Time.IsZero() && r.Start.Before(s.StartDate.Time) {
			c.addf(field, "blackout %s starts before the season start %s", r, s.StartDate.Time.Format(calendar.DateLayout))
		}
		if s.EndDate != nil && r.End.After(s.EndDate.Time) {
			c.addf(field, "blackout %s ends after the season end %s", r, s.EndDate.Time.Format(calendar.DateLayout))
		}
		ranges = append(ranges, indexed{i, r})
	}

	sort.SliceStable(ranges, func(a, b int) bool {
		return ranges[a].r.Start.Before(ranges[b].r.Start)
	})
	for a := 0; a < len(ranges); a++ {
		for b := a + 1; b < len(ranges); b++ {
			if ranges[b].r.Start.After(ranges[a].r.End) {
				break
			}
			lo, hi := ranges[a].i, ranges[b].i
			if lo > hi {
				lo, hi = hi, lo
			}
			c.addf(fmt.Sprintf("blackouts[%d]", hi), "blackout %s overlaps blackouts[%d] (%s)",
				ranges[b].r, lo, ranges[a].r)
		}
	}
}

func checkExtras(c *checker, s config.Season) {
	if s.EarlyRegistrationCutoff != nil && !s.StartDate.Time.IsZero() &&
		s.EarlyRegistrationCutoff.Time.After(s.StartDate.Time) {
		c.addf("early_registration_cutoff", "early registration cutoff %s is after the season start %s",
			s.EarlyRegistrationCutoff.Time.Format(calendar.DateLayout),
			s.StartDate.Time.Format(calendar.DateLayout))
	}
	if s.PlayoffWeeks < 0 {
		c.addf("playoff_weeks", "playoff week count %d must not be negative", s.PlayoffWeeks)
	}
	if s.Weeks > 0 && s.PlayoffWeeks > s.Weeks {
		c.addf("playoff_weeks", "playoff week count %d exceeds season length of %d weeks", s.PlayoffWeeks, s.Weeks)
	}
}
