package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

var (
	yearHeader    = []string{"Date", "TemperatureMin", "TemperatureMax", "Precipitation"}
	averageHeader = []string{"Date", "AvgMinTemp", "AvgMaxTemp", "AvgPrecipitation"}
	recordHeader  = []string{"Date", "TemperatureMin", "TemperatureMax", "Precipitation", "Provider", "Location"}
)

// WriteCSV writes "{location} {year}.csv" for every calendar year in records
// and, when includeAverages is set, "{location} averages.csv". It returns the
// paths written.
func (e *Exporter) WriteCSV(location string, records []domain.WeatherRecord, includeAverages bool) ([]string, error) {
	dir, err := e.locationDir(location)
	if err != nil {
		return nil, err
	}
	name := sanitizeFileName(location)

	var paths []string
	for _, g := range groupByYear(records) {
		path := filepath.Join(dir, fmt.Sprintf("%s %d.csv", name, g.Year))
		rows := make([][]string, 0, len(g.Records))
		for _, r := range g.Records {
			rows = append(rows, []string{
				r.Date.Format(domain.DateLayout),
				formatFloat(r.TemperatureMin),
				formatFloat(r.TemperatureMax),
				formatFloat(r.Precipitation),
			})
		}
		if err := e.writeCSVFile(path, yearHeader, rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	if includeAverages {
		path := filepath.Join(dir, name+" averages.csv")
		avgs := DailyAverages(records)
		rows := make([][]string, 0, len(avgs))
		for _, a := range avgs {
			rows = append(rows, []string{
				a.Day,
				a.TemperatureMin.StringFixed(2),
				a.TemperatureMax.StringFixed(2),
				a.Precipitation.StringFixed(2),
			})
		}
		if err := e.writeCSVFile(path, averageHeader, rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (e *Exporter) writeCSVFile(path string, header []string, rows [][]string) (err error) {
	f, err := e.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer closeWritten(f, path, &err)

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// EncodeCSV streams records as a single CSV table including provider and
// location columns, in the order given.
func EncodeCSV(w io.Writer, records []domain.WeatherRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return err
	}
	for _, r := range records {
		location := ""
		if r.Location != nil {
			location = r.Location.DisplayName()
		}
		if err := cw.Write([]string{
			r.Date.Format(domain.DateLayout),
			formatFloat(r.TemperatureMin),
			formatFloat(r.TemperatureMax),
			formatFloat(r.Precipitation),
			r.Provider,
			location,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
