package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/leaguesched/internal/calendar"
)

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse(calendar.DateLayout, value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

// Clock is a wrapper around calendar.Clock for YAML time-of-day parsing.
type Clock struct {
	Value calendar.Clock
}

func (c *Clock) UnmarshalYAML(value *yaml.Node) error {
	v, err := calendar.ParseClock(value.Value)
	if err != nil {
		return fmt.Errorf("invalid time: %w", err)
	}
	c.Value = v
	return nil
}

// Weekday is a wrapper around time.Weekday that remembers whether it was set,
// since Sunday is the zero value.
type Weekday struct {
	Day time.Weekday
	Set bool
}

// ParseWeekday accepts full or three-letter English day names in any case.
func ParseWeekday(raw string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", raw)
}

func (w *Weekday) UnmarshalYAML(value *yaml.Node) error {
	d, err := ParseWeekday(value.Value)
	if err != nil {
		return err
	}
	w.Day = d
	w.Set = true
	return nil
}

// On returns a set Weekday for d.
func On(d time.Weekday) Weekday {
	return Weekday{Day: d, Set: true}
}

// Blackout suppresses games for a single date (date:) or an inclusive range
// (start_date:/end_date:).
type Blackout struct {
	Date      *Date  `yaml:"date"`
	StartDate *Date  `yaml:"start_date"`
	EndDate   *Date  `yaml:"end_date"`
	Reason    string `yaml:"reason"`
}

// Range returns the dates covered by this blackout. ok is false when the
// blackout has neither a date nor a complete range.
func (b Blackout) Range() (r calendar.Range, ok bool) {
	if b.StartDate != nil && b.EndDate != nil {
		return calendar.Range{Start: b.StartDate.Time, End: b.EndDate.Time}, true
	}
	if b.Date != nil {
		return calendar.Range{Start: b.Date.Time, End: b.Date.Time}, true
	}
	return calendar.Range{}, false
}

// Season is a division's recurring-schedule template.
type Season struct {
	Weekday   Weekday `yaml:"weekday"`
	StartTime Clock   `yaml:"start_time"`
	EndTime   Clock   `yaml:"end_time"`
	StartDate Date    `yaml:"start_date"`
	// EndDate and Weeks bound the season; when both are set, whichever is reached first wins.
	EndDate   *Date      `yaml:"end_date"`
	Weeks     int        `yaml:"weeks"`
	Blackouts []Blackout `yaml:"blackouts"`
	// EarlyRegistrationCutoff is informational; it never affects generation.
	EarlyRegistrationCutoff *Date  `yaml:"early_registration_cutoff"`
	PlayoffWeeks            int    `yaml:"playoff_weeks"`
	Location                string `yaml:"location"`

	// TimeZone is resolved from the division's city when the league file is loaded.
	TimeZone string `yaml:"-"`
}

// Loc returns the season's time zone, falling back to UTC when it cannot be loaded.
func (s Season) Loc() *time.Location {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BlackoutRanges returns the well-formed blackout ranges in declaration order.
func (s Season) BlackoutRanges() []calendar.Range {
	var ranges []calendar.Range
	for _, b := range s.Blackouts {
		if r, ok := b.Range(); ok {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

type Division struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	City   string `yaml:"city"`
	Season Season `yaml:"season"`
}

type City struct {
	Name     string `yaml:"name"`
	TimeZone string `yaml:"timezone"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	TimeZone  string     `yaml:"timezone"`
	Cities    []City     `yaml:"cities"`
	Database  Database   `yaml:"database"`
	Logging   Logging    `yaml:"logging"`
	Divisions []Division `yaml:"divisions"`
}

// TimezoneProvider supplies the time zone used to interpret a city's season dates.
type TimezoneProvider interface {
	Location(city string) (*time.Location, error)
}

// Location returns the zone configured for city, or the league default.
func (c *Config) Location(city string) (*time.Location, error) {
	name := c.zoneName(city)
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}

func (c *Config) zoneName(city string) string {
	for _, ct := range c.Cities {
		if ct.Name == city && ct.TimeZone != "" {
			return ct.TimeZone
		}
	}
	if c.TimeZone != "" {
		return c.TimeZone
	}
	return "UTC"
}

// Division returns the division with the given ID.
func (c *Config) Division(id string) (Division, bool) {
	for _, d := range c.Divisions {
		if d.ID == id {
			return d, true
		}
	}
	return Division{}, false
}

// ResolveTimeZones stamps every division's season with its city's time zone.
func (c *Config) ResolveTimeZones(p TimezoneProvider) error {
	for i := range c.Divisions {
		d := &c.Divisions[i]
		loc, err := p.Location(d.City)
		if err != nil {
			return fmt.Errorf("division %q: %w", d.ID, err)
		}
		d.Season.TimeZone = loc.String()
	}
	return nil
}

// LoadFromBytes parses YAML bytes into a Config and validates its structure.
// Season semantics are checked separately by the validator package so every
// problem can be reported at once.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.ResolveTimeZones(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML league file. A .env file next to it,
// when present, is loaded first and environment overrides are applied.
func LoadFromFile(path string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := LoadFromBytes(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("LEAGUE_DATABASE_PATH"); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok && v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) validate() error {
	if len(c.Divisions) == 0 {
		return fmt.Errorf("at least one division is required")
	}

	seen := make(map[string]bool)
	for _, d := range c.Divisions {
		if d.ID == "" {
			return fmt.Errorf("division %q has no id", d.Name)
		}
		if seen[d.ID] {
			return fmt.Errorf("division id %q is used more than once", d.ID)
		}
		seen[d.ID] = true
	}

	cities := make(map[string]bool)
	for _, ct := range c.Cities {
		if cities[ct.Name] {
			return fmt.Errorf("city %q is listed more than once", ct.Name)
		}
		cities[ct.Name] = true
	}
	for _, d := range c.Divisions {
		if d.City != "" && !cities[d.City] {
			return fmt.Errorf("division %q: unknown city %q", d.ID, d.City)
		}
	}

	return nil
}
