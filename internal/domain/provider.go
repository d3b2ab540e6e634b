package domain

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// UnitKind selects how a query is split into provider requests.
type UnitKind int

const (
	UnitDay UnitKind = iota
	UnitYear
)

// Plural names the unit kind in log summaries.
func (k UnitKind) Plural() string {
	if k == UnitYear {
		return "years"
	}
	return "days"
}

// Unit is one iteration step of a query: a calendar day or a year.
type Unit struct {
	Kind UnitKind
	Date time.Time // set for UnitDay
	Year int       // set for UnitYear
}

// DayUnit returns the unit for calendar day d.
func DayUnit(d time.Time) Unit { return Unit{Kind: UnitDay, Date: TruncateDay(d)} }

// YearUnit returns the unit for year y.
func YearUnit(y int) Unit { return Unit{Kind: UnitYear, Year: y} }

// String identifies the unit in logs: "2006-01-02" for days, "2006" for years.
func (u Unit) String() string {
	if u.Kind == UnitYear {
		return strconv.Itoa(u.Year)
	}
	return u.Date.Format(DateLayout)
}

// Outcome classifies the result of fetching one unit.
type Outcome int

const (
	// OutcomeRecords means the unit produced at least one record.
	OutcomeRecords Outcome = iota
	// OutcomeNoData means the provider answered but the unit has nothing usable.
	OutcomeNoData
	// OutcomeAuthFailure aborts the whole query.
	OutcomeAuthFailure
	// OutcomeFailure skips the unit after a transport, status or decode error.
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecords:
		return "records"
	case OutcomeNoData:
		return "no_data"
	case OutcomeAuthFailure:
		return "auth_failure"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// UnitResult is what a provider returns for one unit.
type UnitResult struct {
	Outcome Outcome
	Records []WeatherRecord
	Reason  string
	Err     error
}

// Records wraps a successful unit.
func Records(records []WeatherRecord) UnitResult {
	return UnitResult{Outcome: OutcomeRecords, Records: records}
}

// NoData marks a unit with no usable data.
func NoData(reason string) UnitResult {
	return UnitResult{Outcome: OutcomeNoData, Reason: reason}
}

// AuthFailure marks a unit rejected for authentication reasons.
func AuthFailure(err error) UnitResult {
	return UnitResult{Outcome: OutcomeAuthFailure, Err: err, Reason: err.Error()}
}

// Failure marks a unit that errored.
func Failure(err error) UnitResult {
	return UnitResult{Outcome: OutcomeFailure, Err: err, Reason: err.Error()}
}

// AuthError is returned for HTTP 401 and 403 responses.
type AuthError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s rejected credentials: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Provider adapts one third-party weather API.
type Provider interface {
	Name() string
	RequiresAPIKey() bool
	Iteration() UnitKind

	// FetchUnit performs the request(s) for one unit. It never panics and
	// reports every outcome through the returned UnitResult. diag collects
	// status codes and errors for the unit.
	FetchUnit(ctx context.Context, q QueryParameters, unit Unit, apiKey string, diag *Diagnostics) UnitResult
}

// LocationResolver is implemented by providers whose records carry a resolved
// place instead of the raw query point. The driver calls it once per query and
// attaches the result to every record.
type LocationResolver interface {
	ResolveLocation(ctx context.Context, q QueryParameters) Location
}
