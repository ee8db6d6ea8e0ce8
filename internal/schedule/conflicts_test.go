package schedule

import (
	"testing"
	"time"

	"github.com/derekprior/leaguesched/internal/games"
)

func game(id, division, location string, start, end string) games.Game {
	return games.Game{
		ID:         id,
		DivisionID: division,
		Week:       1,
		Start:      mustTime(start),
		End:        mustTime(end),
		LocationID: location,
		Status:     games.StatusScheduled,
	}
}

func mustTime(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDetectConflicts(t *testing.T) {
	tests := []struct {
		name  string
		games []games.Game
		want  [][2]string
	}{
		{
			name: "no overlap",
			games: []games.Game{
				game("a", "u12", "field-1", "2024-01-02 17:00", "2024-01-02 18:00"),
				game("b", "u14", "field-1", "2024-01-02 19:00", "2024-01-02 20:00"),
			},
		},
		{
			name: "touching ranges do not overlap",
			games: []games.Game{
				game("a", "u12", "field-1", "2024-01-02 17:00", "2024-01-02 18:30"),
				game("b", "u14", "field-1", "2024-01-02 18:30", "2024-01-02 19:45"),
			},
		},
		{
			name: "partial overlap",
			games: []games.Game{
				game("a", "u12", "field-1", "2024-01-02 18:00", "2024-01-02 19:15"),
				game("b", "u14", "field-1", "2024-01-02 18:30", "2024-01-02 19:45"),
			},
			want: [][2]string{{"a", "b"}},
		},
		{
			name: "contained",
			games: []games.Game{
				game("a", "u12", "field-1", "2024-01-02 17:00", "2024-01-02 21:00"),
				game("b", "u14", "field-1", "2024-01-02 18:30", "2024-01-02 19:45"),
			},
			want: [][2]string{{"a", "b"}},
		},
		{
			name: "same time different location",
			games: []games.Game{
				game("a", "u12", "field-1", "2024-01-02 18:30", "2024-01-02 19:45"),
				game("b", "u14", "field-2", "2024-01-02 18:30", "2024-01-02 19:45"),
			},
		},
		{
			name: "same time different date",
			games: []games.Game{
				game("a", "u12", "field-1", "2024-01-02 18:30", "2024-01-02 19:45"),
				game("b", "u14", "field-1", "2024-01-09 18:30", "2024-01-09 19:45"),
			},
		},
		{
			name: "three-way overlap reports every pair",
			games: []games.Game{
				game("c", "u16", "field-1", "2024-01-02 19:00", "2024-01-02 20:00"),
				game("a", "u12", "field-1", "2024-01-02 18:00", "2024-01-02 19:30"),
				game("b", "u14", "field-1", "2024-01-02 18:30", "2024-01-02 19:45"),
			},
			want: [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}},
		},
		{
			name: "chain only overlaps neighbours",
			games: []games.Game{
				game("a", "u12", "field-1", "2024-01-02 17:00", "2024-01-02 18:10"),
				game("b", "u14", "field-1", "2024-01-02 18:00", "2024-01-02 19:10"),
				game("c", "u16", "field-1", "2024-01-02 19:00", "2024-01-02 20:00"),
			},
			want: [][2]string{{"a", "b"}, {"b", "c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectConflicts(tt.games, games.GameLocation)
			if len(got) != len(tt.want) {
				t.Fatalf("conflicts = %v, want %v", got, tt.want)
			}
			for i, w := range tt.want {
				if got[i].A.ID != w[0] || got[i].B.ID != w[1] {
					t.Errorf("conflict %d = (%s, %s), want (%s, %s)", i, got[i].A.ID, got[i].B.ID, w[0], w[1])
				}
			}
		})
	}
}

func TestDetectConflictsIsSymmetric(t *testing.T) {
	a := game("a", "u12", "field-1", "2024-01-02 18:00", "2024-01-02 19:15")
	b := game("b", "u14", "field-1", "2024-01-02 18:30", "2024-01-02 19:45")

	ab := DetectConflicts([]games.Game{a, b}, nil)
	ba := DetectConflicts([]games.Game{b, a}, nil)
	if len(ab) != 1 || len(ba) != 1 {
		t.Fatalf("conflicts = %v and %v, want one each", ab, ba)
	}
	if ab[0].A.ID != ba[0].A.ID || ab[0].B.ID != ba[0].B.ID {
		t.Errorf("order dependent: %v vs %v", ab[0], ba[0])
	}
	if ab[0].A.ID != "a" || ab[0].B.ID != "b" {
		t.Errorf("pair = %s, %s; want a, b", ab[0].A.ID, ab[0].B.ID)
	}
}

func TestDetectConflictsNoSelfConflict(t *testing.T) {
	a := game("a", "u12", "field-1", "2024-01-02 18:00", "2024-01-02 19:15")
	got := DetectConflicts([]games.Game{a, a}, nil)
	if len(got) != 0 {
		t.Errorf("conflicts = %v, want none", got)
	}
}

func TestDetectConflictsIgnoresCanceledAndUnlocated(t *testing.T) {
	a := game("a", "u12", "field-1", "2024-01-02 18:00", "2024-01-02 19:15")
	b := game("b", "u14", "field-1", "2024-01-02 18:30", "2024-01-02 19:45")
	b.Status = games.StatusCanceled
	c := game("c", "u16", "", "2024-01-02 18:30", "2024-01-02 19:45")
	d := game("d", "u18", "", "2024-01-02 18:30", "2024-01-02 19:45")

	if got := DetectConflicts([]games.Game{a, b, c, d}, nil); len(got) != 0 {
		t.Errorf("conflicts = %v, want none", got)
	}
}

func TestDetectConflictsUsesLocationDirectory(t *testing.T) {
	// Two fields that share one physical complex conflict through the directory.
	a := game("a", "u12", "complex-north", "2024-01-02 18:00", "2024-01-02 19:15")
	b := game("b", "u14", "complex-south", "2024-01-02 18:30", "2024-01-02 19:45")
	sameComplex := games.LocationFunc(func(g games.Game) string { return "complex" })

	got := DetectConflicts([]games.Game{a, b}, sameComplex)
	if len(got) != 1 || got[0].Location != "complex" {
		t.Errorf("conflicts = %v, want one at complex", got)
	}
	if len(DetectConflicts([]games.Game{a, b}, games.GameLocation)) != 0 {
		t.Error("different fields should not conflict with the default directory")
	}
}

func TestDetectConflictsAcrossGeneratedSeasons(t *testing.T) {
	u12 := tuesdaySeason()
	u14 := tuesdaySeason()
	u14.Blackouts = nil
	u14.StartTime.Value += 60
	u14.EndTime.Value += 60

	var all []games.Game
	all = append(all, reconcilerFor("u12").Reconcile(nil, Generate(u12)).Create...)
	all = append(all, reconcilerFor("u14").Reconcile(nil, Generate(u14)).Create...)

	got := DetectConflicts(all, nil)
	// u14 plays every Tuesday from 2024-01-02 to 2024-03-05; u12 shares nine of those dates.
	if len(got) != 9 {
		t.Fatalf("conflicts = %d, want 9", len(got))
	}
	for _, c := range got {
		if c.A.DivisionID == c.B.DivisionID {
			t.Errorf("same-division conflict %v", c)
		}
		if c.String() == "" {
			t.Error("conflict should describe itself")
		}
	}
}
