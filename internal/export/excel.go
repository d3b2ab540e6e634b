package export

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

// maxSheetName is Excel's limit on worksheet name length.
const maxSheetName = 31

// WriteExcel writes "{location}.xlsx" with one worksheet per calendar year
// and, when includeAverages is set, a "{location} Averages" worksheet.
func (e *Exporter) WriteExcel(location string, records []domain.WeatherRecord, includeAverages bool) (_ string, err error) {
	dir, err := e.locationDir(location)
	if err != nil {
		return "", err
	}
	name := sanitizeFileName(location)

	f := excelize.NewFile()
	defer f.Close()

	sheets := newSheetNamer()
	for _, g := range groupByYear(records) {
		rows := make([][]any, 0, len(g.Records))
		for _, r := range g.Records {
			rows = append(rows, []any{r.Date.Format(domain.DateLayout), r.TemperatureMin, r.TemperatureMax, r.Precipitation})
		}
		if err := writeSheet(f, sheets.next(name, fmt.Sprintf(" %d", g.Year)), yearHeader, rows); err != nil {
			return "", err
		}
	}

	if includeAverages {
		avgs := DailyAverages(records)
		rows := make([][]any, 0, len(avgs))
		for _, a := range avgs {
			rows = append(rows, []any{
				a.Day,
				a.TemperatureMin.InexactFloat64(),
				a.TemperatureMax.InexactFloat64(),
				a.Precipitation.InexactFloat64(),
			})
		}
		if err := writeSheet(f, sheets.next(name, " Averages"), averageHeader, rows); err != nil {
			return "", err
		}
	}

	// The default sheet stays only when there was nothing else to write.
	if len(sheets.used) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return "", fmt.Errorf("remove default sheet: %w", err)
		}
		f.SetActiveSheet(0)
	}

	path := filepath.Join(dir, name+".xlsx")
	out, err := e.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer closeWritten(out, path, &err)
	if _, err := f.WriteTo(out); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write sheet %q header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write sheet %q row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// sheetNamer produces valid, unique worksheet names. Long prefixes are cut so
// the suffix (the year) survives the length limit.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]bool)}
}

func (n *sheetNamer) next(prefix, suffix string) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch r {
			case '[', ']', ':', '*', '?', '/', '\\':
				return '_'
			}
			return r
		}, s)
	}
	base := truncateRunes(clean(prefix), maxSheetName-len(suffix)) + clean(suffix)

	name := base
	for i := 2; n.used[strings.ToLower(name)]; i++ {
		dup := " (" + strconv.Itoa(i) + ")"
		name = truncateRunes(base, maxSheetName-len(dup)) + dup
	}
	n.used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
