package excel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/leaguesched/internal/calendar"
	"github.com/derekprior/leaguesched/internal/games"
	"github.com/derekprior/leaguesched/internal/schedule"
)

const (
	MasterSheet    = "Master Schedule"
	ConflictsSheet = "Conflicts"
)

var masterHeaders = []string{"Game ID", "Division", "Week", "Date", "Day", "Start", "End", "Time Zone", "Location", "Status", "Locked"}

// Division is one division's part of the workbook.
type Division struct {
	ID       string
	Name     string
	Calendar []schedule.GameSlot
	Games    []games.Game
}

// Generate creates a workbook with every game on the master sheet, one
// calendar sheet per division and a sheet of location conflicts.
func Generate(divisions []Division, conflicts []schedule.Conflict) (*excelize.File, error) {
	f := excelize.NewFile()

	f.SetDefaultFont("Arial")

	if err := writeMasterSheet(f, divisions); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}

	if err := writeDivisionSheets(f, divisions); err != nil {
		return nil, fmt.Errorf("writing division sheets: %w", err)
	}

	if err := writeConflictsSheet(f, conflicts); err != nil {
		return nil, fmt.Errorf("writing conflicts sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type styles struct {
	header   int
	cell     int
	centered int
	bye      int
}

func newStyles(f *excelize.File) styles {
	var s styles
	s.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	s.cell, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	s.centered, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	s.bye, _ = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	return s
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if style != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), style)
	}
}

func writeMasterSheet(f *excelize.File, divisions []Division) error {
	sheet := MasterSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	st := newStyles(f)
	writeHeaders(f, sheet, masterHeaders, st.header)

	names := make(map[string]string, len(divisions))
	var all []games.Game
	for _, d := range divisions {
		names[d.ID] = d.Name
		all = append(all, d.Games...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Start.Equal(all[j].Start) {
			return all[i].Start.Before(all[j].Start)
		}
		if all[i].DivisionID != all[j].DivisionID {
			return all[i].DivisionID < all[j].DivisionID
		}
		return all[i].Week < all[j].Week
	})

	for i, g := range all {
		row := i + 2
		values := []any{
			g.ID,
			g.DivisionID,
			g.Week,
			g.Start.Format(calendar.DateLayout),
			g.Start.Format("Mon"),
			g.Start.Format("15:04"),
			g.End.Format("15:04"),
			g.Start.Location().String(),
			g.LocationID,
			string(g.Status),
			yesNo(g.Locked),
		}
		for col, v := range values {
			f.SetCellValue(sheet, cellRef(col+1, row), v)
		}
		if st.cell != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(masterHeaders), row), st.cell)
		}
	}

	widths := []float64{40, 12, 8, 16, 8, 10, 10, 22, 28, 14, 10}
	for i, w := range widths {
		col := colLetter(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	// Canceled games are shaded like byes.
	if len(all) > 0 && st.bye != 0 {
		lastRow := len(all) + 1
		f.SetConditionalFormat(sheet, fmt.Sprintf("A2:K%d", lastRow), []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: `$J2="canceled"`,
				Format:   &st.bye,
			},
		})
	}
	return nil
}

func writeDivisionSheets(f *excelize.File, divisions []Division) error {
	st := newStyles(f)
	used := map[string]bool{
		strings.ToLower(MasterSheet):    true,
		strings.ToLower(ConflictsSheet): true,
		"sheet1":                        true,
	}
	for _, d := range divisions {
		sheet := sheetName(d, used)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("division %s: %w", d.ID, err)
		}

		headers := []string{"Week", "Date", "Day", "Time", "Location", "Notes"}
		writeHeaders(f, sheet, headers, st.header)

		for i, s := range d.Calendar {
			row := i + 2
			week := strconv.Itoa(s.Week)
			notes := ""
			switch {
			case s.Bye:
				week = "Bye"
				notes = s.Reason
			case s.Playoff:
				notes = "Playoffs"
			}
			f.SetCellValue(sheet, cellRef(1, row), week)
			f.SetCellValue(sheet, cellRef(2, row), s.Date.Format("01/02/2006"))
			f.SetCellValue(sheet, cellRef(3, row), s.Date.Format("Mon"))
			if !s.Bye {
				f.SetCellValue(sheet, cellRef(4, row), s.Start.Format("3:04 PM")+" - "+s.End.Format("3:04 PM"))
				f.SetCellValue(sheet, cellRef(5, row), s.Location)
			}
			f.SetCellValue(sheet, cellRef(6, row), notes)

			style := st.centered
			if s.Bye {
				style = st.bye
			}
			if style != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), style)
			}
		}

		widths := map[string]float64{"A": 8, "B": 16, "C": 8, "D": 24, "E": 28, "F": 28}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}
	return nil
}

func writeConflictsSheet(f *excelize.File, conflicts []schedule.Conflict) error {
	sheet := ConflictsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	st := newStyles(f)
	headers := []string{"Location", "Date", "Division", "Week", "Time", "Division", "Week", "Time"}
	writeHeaders(f, sheet, headers, st.header)

	if len(conflicts) == 0 {
		f.SetCellValue(sheet, "A2", "No conflicts")
		return nil
	}
	for i, c := range conflicts {
		row := i + 2
		values := []any{
			c.Location,
			c.A.Start.Format(calendar.DateLayout),
			c.A.DivisionID, c.A.Week, c.A.Start.Format("15:04") + "-" + c.A.End.Format("15:04"),
			c.B.DivisionID, c.B.Week, c.B.Start.Format("15:04") + "-" + c.B.End.Format("15:04"),
		}
		for col, v := range values {
			f.SetCellValue(sheet, cellRef(col+1, row), v)
		}
		if st.bye != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), st.bye)
		}
	}
	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "B", 16)
	f.SetColWidth(sheet, "C", "H", 14)
	return nil
}

const maxSheetName = 31

// sheetName is the division's name (or its ID when the name is empty) cut to
// Excel's 31 characters. A name already in use gets a " (2)", " (3)" suffix.
// Excel compares sheet names case-insensitively, so used is keyed by lower case.
func sheetName(d Division, used map[string]bool) string {
	base := strings.TrimSpace(d.Name)
	if base == "" {
		base = d.ID
	}
	for _, bad := range []string{":", "\\", "/", "?", "*", "[", "]"} {
		base = strings.ReplaceAll(base, bad, " ")
	}
	if strings.TrimSpace(base) == "" {
		base = "Division"
	}

	name := truncateRunes(base, maxSheetName)
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ReadGames reads the master sheet of a workbook at path.
func ReadGames(path string) ([]games.Game, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	return GamesFromWorkbook(f)
}

// GamesFromWorkbook parses the master sheet back into games. Rows with an
// empty Game ID are skipped so hand-added notes do not break a check.
func GamesFromWorkbook(f *excelize.File) ([]games.Game, error) {
	rows, err := f.GetRows(MasterSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MasterSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", MasterSheet)
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	for _, h := range masterHeaders {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", MasterSheet, h)
		}
	}

	var out []games.Game
	for i, row := range rows[1:] {
		get := func(h string) string {
			if idx := col[h]; idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		if get("Game ID") == "" {
			continue
		}
		g, err := parseRow(get)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", MasterSheet, i+2, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func parseRow(get func(string) string) (games.Game, error) {
	loc := time.UTC
	if tz := get("Time Zone"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return games.Game{}, fmt.Errorf("time zone %q: %w", tz, err)
		}
		loc = l
	}
	day, err := time.ParseInLocation(calendar.DateLayout, get("Date"), loc)
	if err != nil {
		return games.Game{}, fmt.Errorf("date %q: %w", get("Date"), err)
	}
	start, err := calendar.ParseClock(get("Start"))
	if err != nil {
		return games.Game{}, fmt.Errorf("start: %w", err)
	}
	end, err := calendar.ParseClock(get("End"))
	if err != nil {
		return games.Game{}, fmt.Errorf("end: %w", err)
	}
	week, err := strconv.Atoi(get("Week"))
	if err != nil {
		return games.Game{}, fmt.Errorf("week %q: %w", get("Week"), err)
	}
	status := games.StatusScheduled
	if s := get("Status"); s != "" {
		if status, err = games.ParseStatus(strings.ToLower(s)); err != nil {
			return games.Game{}, err
		}
	}

	return games.Game{
		ID:         get("Game ID"),
		DivisionID: get("Division"),
		Week:       week,
		Start:      start.On(day),
		End:        end.On(day),
		LocationID: get("Location"),
		Status:     status,
		Locked:     strings.EqualFold(get("Locked"), "yes"),
	}, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
