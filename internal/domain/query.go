package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the calendar date format used by provider URLs and unit IDs.
const DateLayout = "2006-01-02"

// ErrInvalidQuery is returned when query parameters violate their invariants.
var ErrInvalidQuery = errors.New("invalid query")

var validate = validator.New()

// QueryParameters describe one historical weather query.
type QueryParameters struct {
	Location     Location   `json:"location"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"` // nil means "up to now"
	YearsBack    int        `json:"years_back" validate:"gte=1"`
	ProviderName string     `json:"provider_name" validate:"required"`
}

// Validate checks coordinate ranges, the years-back count, the provider name
// and that the start date does not come after the effective end date.
func (q QueryParameters) Validate(now time.Time) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if q.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidQuery)
	}
	if TruncateDay(q.StartDate).After(q.EffectiveEnd(now)) {
		return fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidQuery, q.StartDate.Format(DateLayout), q.EffectiveEnd(now).Format(DateLayout))
	}
	return nil
}

// EffectiveEnd is the end date as a calendar day, or today when unset.
func (q QueryParameters) EffectiveEnd(now time.Time) time.Time {
	if q.EndDate != nil {
		return TruncateDay(*q.EndDate)
	}
	return TruncateDay(now)
}

// Days lists each calendar day from the start through the effective end, inclusive.
func (q QueryParameters) Days(now time.Time) []time.Time {
	end := q.EffectiveEnd(now)
	var days []time.Time
	for d := TruncateDay(q.StartDate); !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Years lists the current year and the YearsBack years before it, ascending.
func (q QueryParameters) Years(now time.Time) []int {
	current := now.Year()
	years := make([]int, 0, q.YearsBack+1)
	for y := current - q.YearsBack; y <= current; y++ {
		years = append(years, y)
	}
	return years
}

// YearRange maps the query's month/day window onto year. The end month/day
// comes from EndDate, or StartDate plus one day when EndDate is unset.
// ok is false when the window starts after today.
func (q QueryParameters) YearRange(year int, now time.Time) (start, end time.Time, ok bool) {
	from := TruncateDay(q.StartDate)
	to := from.AddDate(0, 0, 1)
	if q.EndDate != nil {
		to = TruncateDay(*q.EndDate)
	}

	start = onYear(year, from)
	end = onYear(year, to)
	if monthDayBefore(to, from) {
		end = onYear(year+1, to)
	}

	today := TruncateDay(now)
	if start.After(today) {
		return start, end, false
	}
	if end.After(today) {
		end = today
	}
	return start, end, true
}

// onYear returns t's month and day in year, mapping Feb 29 to Feb 28 when
// year is not a leap year.
func onYear(year int, t time.Time) time.Time {
	m, d := t.Month(), t.Day()
	if m == time.February && d == 29 && !isLeap(year) {
		d = 28
	}
	return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
}

func monthDayBefore(a, b time.Time) bool {
	if a.Month() != b.Month() {
		return a.Month() < b.Month()
	}
	return a.Day() < b.Day()
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
