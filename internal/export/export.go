// Package export writes weather records to files: one CSV per calendar year
// plus an optional day-of-year averages file, an Excel workbook with the same
// sheets, or a single JSON document.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

// Exporter writes files under a base directory. Every export for a location
// goes into its own "{dir}/{location}" subdirectory.
type Exporter struct {
	fs  afero.Fs
	dir string
}

// NewExporter creates an exporter rooted at dir on fs.
func NewExporter(fs afero.Fs, dir string) *Exporter {
	return &Exporter{fs: fs, dir: dir}
}

// NewOSExporter creates an exporter on the real filesystem.
func NewOSExporter(dir string) *Exporter {
	return NewExporter(afero.NewOsFs(), dir)
}

// locationDir creates and returns the directory for location.
func (e *Exporter) locationDir(location string) (string, error) {
	dir := filepath.Join(e.dir, sanitizeFileName(location))
	if err := e.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	return dir, nil
}

// closeWritten closes f and reports the failure through err unless an
// earlier error is already set.
func closeWritten(f io.Closer, path string, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close %s: %w", path, cerr)
	}
}

// yearGroup is the records of one calendar year, sorted by date.
type yearGroup struct {
	Year    int
	Records []domain.WeatherRecord
}

// groupByYear splits records by calendar year in ascending order.
func groupByYear(records []domain.WeatherRecord) []yearGroup {
	byYear := make(map[int][]domain.WeatherRecord)
	for _, r := range records {
		byYear[r.Date.Year()] = append(byYear[r.Date.Year()], r)
	}

	groups := make([]yearGroup, 0, len(byYear))
	for year, recs := range byYear {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
		groups = append(groups, yearGroup{Year: year, Records: recs})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Year < groups[j].Year })
	return groups
}

// sanitizeFileName replaces path separators and characters most filesystems reject.
func sanitizeFileName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Unknown
	}
	return s
}
