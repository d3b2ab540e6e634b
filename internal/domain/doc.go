// Package domain models historic daily weather observations gathered from
// third-party weather APIs.
//
// # Providers
//
// Each provider is reached through a [Provider] adapter. Adapters differ in
// how a query is split into requests:
//
//	Per day:  OpenWeatherMap, WeatherAPI   one request per calendar date
//	Per year: OpenMeteo, Visual Crossing   one request per year, covering the
//	                                       same month/day window in each year
//
// A query is driven one [Unit] at a time. Each call to [Provider.FetchUnit]
// returns a [UnitResult] whose outcome tells the driver whether to keep the
// records, skip the unit, or abort the whole query (authentication failure).
//
// # Year windows
//
// For per-year providers the window for year Y is (Y, start month/day) through
// (Y, end month/day), where the end defaults to the start plus one day.
// Feb 29 maps to Feb 28 in non-leap years. A window whose end month/day falls
// before its start month/day crosses New Year and ends in Y+1. Windows that
// begin in the future are skipped; windows that end in the future are clamped
// to today. See [QueryParameters.YearRange].
//
// # Records
//
// A [WeatherRecord] carries one calendar day in metric units: temperatures in
// degrees Celsius, precipitation in millimetres. Dates are UTC midnights.
// Minimum and maximum temperatures are passed through exactly as reported.
//
// # Diagnostics
//
// [Diagnostics] accumulates request and error counts for one operation and
// renders a one-line summary:
//
//	"{service}.{operation}: {SUCCESS|FAILED|UNKNOWN} ({seconds}s) - {n} requests, {m} errors"
package domain
