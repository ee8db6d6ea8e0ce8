package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/derekprior/leaguesched/internal/calendar"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

const testConfigYAML = `
timezone: America/New_York

cities:
  - name: Reading
    timezone: America/New_York
  - name: Denver
    timezone: America/Denver

database:
  path: data/league.db

divisions:
  - id: u12-coed
    name: U12 Coed
    city: Reading
    season:
      weekday: Tuesday
      start_time: "18:30"
      end_time: "7:45 PM"
      start_date: "2024-01-02"
      weeks: 10
      location: Symonds Field
      playoff_weeks: 2
      early_registration_cutoff: "2023-12-15"
      blackouts:
        - date: "2024-02-13"
          reason: "Winter break"
        - start_date: "2024-03-25"
          end_date: "2024-03-29"
          reason: "Spring recess"
  - id: adult-rec
    name: Adult Rec
    city: Denver
    season:
      weekday: thu
      start_time: "20:00"
      end_time: "21:00"
      start_date: "2024-01-04"
      end_date: "2024-03-28"
      location: Washington Park
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("divisions", func(t *testing.T) {
		if len(cfg.Divisions) != 2 {
			t.Fatalf("divisions = %d, want 2", len(cfg.Divisions))
		}
		if cfg.Divisions[0].ID != "u12-coed" {
			t.Errorf("division id = %q, want u12-coed", cfg.Divisions[0].ID)
		}
	})

	t.Run("season fields", func(t *testing.T) {
		s := cfg.Divisions[0].Season
		if s.Weekday.Day != time.Tuesday || !s.Weekday.Set {
			t.Errorf("weekday = %+v, want set Tuesday", s.Weekday)
		}
		if s.StartTime.Value != calendar.At(18, 30) {
			t.Errorf("start time = %s, want 18:30", s.StartTime.Value)
		}
		if s.EndTime.Value != calendar.At(19, 45) {
			t.Errorf("end time = %s, want 19:45", s.EndTime.Value)
		}
		if s.StartDate.Time != mustDate("2024-01-02") {
			t.Errorf("start date = %v, want 2024-01-02", s.StartDate.Time)
		}
		if s.EndDate != nil {
			t.Errorf("end date = %v, want nil", s.EndDate.Time)
		}
		if s.Weeks != 10 || s.PlayoffWeeks != 2 {
			t.Errorf("weeks = %d playoff = %d, want 10 and 2", s.Weeks, s.PlayoffWeeks)
		}
		if s.EarlyRegistrationCutoff == nil || s.EarlyRegistrationCutoff.Time != mustDate("2023-12-15") {
			t.Errorf("early registration cutoff = %v, want 2023-12-15", s.EarlyRegistrationCutoff)
		}
		if s.Location != "Symonds Field" {
			t.Errorf("location = %q, want Symonds Field", s.Location)
		}
	})

	t.Run("short weekday names", func(t *testing.T) {
		if d := cfg.Divisions[1].Season.Weekday.Day; d != time.Thursday {
			t.Errorf("weekday = %v, want Thursday", d)
		}
	})

	t.Run("blackout ranges", func(t *testing.T) {
		ranges := cfg.Divisions[0].Season.BlackoutRanges()
		if len(ranges) != 2 {
			t.Fatalf("blackout ranges = %d, want 2", len(ranges))
		}
		if !ranges[0].Start.Equal(ranges[0].End) {
			t.Errorf("single-date blackout should start and end on the same day: %s", ranges[0])
		}
		if ranges[1].End != mustDate("2024-03-29") {
			t.Errorf("range end = %v, want 2024-03-29", ranges[1].End)
		}
		if cfg.Divisions[0].Season.Blackouts[1].Reason != "Spring recess" {
			t.Errorf("reason = %q, want Spring recess", cfg.Divisions[0].Season.Blackouts[1].Reason)
		}
	})

	t.Run("time zones resolved from city", func(t *testing.T) {
		if tz := cfg.Divisions[0].Season.TimeZone; tz != "America/New_York" {
			t.Errorf("time zone = %q, want America/New_York", tz)
		}
		if tz := cfg.Divisions[1].Season.TimeZone; tz != "America/Denver" {
			t.Errorf("time zone = %q, want America/Denver", tz)
		}
	})

	t.Run("division lookup", func(t *testing.T) {
		d, ok := cfg.Division("adult-rec")
		if !ok || d.Name != "Adult Rec" {
			t.Errorf("Division(adult-rec) = %+v, %v", d, ok)
		}
		if _, ok := cfg.Division("missing"); ok {
			t.Error("Division(missing) found, want not found")
		}
	})
}

func TestLocationFallback(t *testing.T) {
	cfg := &Config{Cities: []City{{Name: "Reading", TimeZone: "America/New_York"}}}
	tests := []struct {
		name     string
		fallback string
		city     string
		want     string
	}{
		{"city zone", "", "Reading", "America/New_York"},
		{"no league default", "", "Elsewhere", "UTC"},
		{"league default", "America/Chicago", "Elsewhere", "America/Chicago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.TimeZone = tt.fallback
			loc, err := cfg.Location(tt.city)
			if err != nil {
				t.Fatalf("Location(%q) error: %v", tt.city, err)
			}
			if loc.String() != tt.want {
				t.Errorf("Location(%q) = %s, want %s", tt.city, loc, tt.want)
			}
		})
	}
}

func TestLocationUnknownZone(t *testing.T) {
	cfg := &Config{Cities: []City{{Name: "Reading", TimeZone: "Mars/Olympus_Mons"}}}
	if _, err := cfg.Location("Reading"); err == nil {
		t.Error("expected error for unknown time zone")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no divisions",
			yaml:    "timezone: UTC\n",
			wantErr: "at least one division",
		},
		{
			name: "duplicate division id",
			yaml: `
divisions:
  - id: a
    season: {weekday: Monday}
  - id: a
    season: {weekday: Tuesday}
`,
			wantErr: "used more than once",
		},
		{
			name: "unknown city",
			yaml: `
divisions:
  - id: a
    city: Nowhere
`,
			wantErr: "unknown city",
		},
		{
			name: "bad weekday",
			yaml: `
divisions:
  - id: a
    season: {weekday: Funday}
`,
			wantErr: "invalid weekday",
		},
		{
			name: "bad time",
			yaml: `
divisions:
  - id: a
    season: {start_time: "late"}
`,
			wantErr: "invalid time",
		},
		{
			name: "bad date",
			yaml: `
divisions:
  - id: a
    season: {start_date: "01/02/2024"}
`,
			wantErr: "invalid date",
		},
		{
			name: "unknown time zone",
			yaml: `
cities:
  - name: Reading
    timezone: Mars/Olympus_Mons
divisions:
  - id: a
    city: Reading
`,
			wantErr: "unknown time zone",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFileAppliesEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "league.yaml")
	if err := os.WriteFile(path, []byte(testConfigYAML), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LEAGUE_DATABASE_PATH=/tmp/from-env.db\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_LEVEL", "debug")
	// godotenv never overrides variables that are already set, so make sure
	// the test starts from a clean slate and restores it afterwards.
	t.Setenv("LEAGUE_DATABASE_PATH", "")
	os.Unsetenv("LEAGUE_DATABASE_PATH")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Database.Path != "/tmp/from-env.db" {
		t.Errorf("database path = %q, want /tmp/from-env.db", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
