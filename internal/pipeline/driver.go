package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
	"github.com/couchcryptid/historic-weather-service/internal/observability"
)

const operation = "HistoricalWeather"

// Driver runs one historical query against one provider, unit by unit.
type Driver struct {
	settings domain.SettingsStore
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewDriver creates a Driver reading API keys from settings.
func NewDriver(settings domain.SettingsStore, logger *slog.Logger, metrics *observability.Metrics) *Driver {
	return &Driver{settings: settings, logger: logger, metrics: metrics}
}

// Run executes q against p. Units are processed strictly in order; a failed
// unit is logged and skipped, an authentication failure aborts the query
// without partial data. Success stays true when every unit fails.
// Cancellation is honoured between units.
func (d *Driver) Run(ctx context.Context, p domain.Provider, q domain.QueryParameters) (resp domain.Response) {
	name := p.Name()

	var apiKey string
	if p.RequiresAPIKey() {
		key, err := d.settings.GetAPIKey(name)
		if err != nil {
			d.logger.Error("read api key failed", "provider", name, "error", err)
		}
		if key == "" {
			d.countQuery(name, "missing_key")
			return domain.FailedResponse(fmt.Sprintf("API key for %s is not set.", name))
		}
		apiKey = key
	}

	logger := d.logger.With("provider", name, "query_id", uuid.NewString())
	diag := domain.NewDiagnostics(name, operation)
	diag.AddRequest()

	start := time.Now()
	defer func() {
		d.metrics.QueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("provider panicked", "panic", r)
			resp = d.fail(logger, diag, fmt.Sprintf("unexpected error: %v", r))
		}
	}()

	now := domain.Now()
	if err := q.Validate(now); err != nil {
		logger.Error("invalid query", "error", err)
		return d.fail(logger, diag, err.Error())
	}

	kind := p.Iteration()
	units := unitsFor(kind, q, now)
	logger.Info("historical query started",
		"lat", q.Location.Latitude,
		"lon", q.Location.Longitude,
		"units", len(units),
		"unit_kind", kind.Plural(),
	)

	location := q.Location
	if r, ok := p.(domain.LocationResolver); ok {
		location = r.ResolveLocation(ctx, q)
	}
	records := make([]domain.WeatherRecord, 0, len(units))
	var failed []string
	succeeded := 0

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			logger.Warn("query cancelled", "unit", unit.String(), "error", err)
			return d.fail(logger, diag, "query cancelled: "+err.Error())
		}

		unitDiag := domain.NewDiagnostics(name, "FetchUnit "+unit.String())
		res := p.FetchUnit(ctx, q, unit, apiKey, unitDiag)
		if res.Outcome == domain.OutcomeRecords && len(res.Records) == 0 {
			res = domain.NoData("no records")
		}
		unitDiag.Complete(res.Outcome == domain.OutcomeRecords)
		diag.Absorb(unitDiag)
		d.metrics.Units.WithLabelValues(name, res.Outcome.String()).Inc()
		logger.Debug("unit finished",
			"unit", unit.String(),
			"outcome", res.Outcome.String(),
			"diagnostics", unitDiag.Summary(),
		)

		switch res.Outcome {
		case domain.OutcomeRecords:
			for _, rec := range res.Records {
				if rec.Location == nil {
					rec.Location = &location
				}
				if rec.TemperatureMin > rec.TemperatureMax {
					logger.Warn("provider reported min temperature above max",
						"date", rec.Date.Format(domain.DateLayout),
						"min", rec.TemperatureMin,
						"max", rec.TemperatureMax,
					)
				}
				records = append(records, rec)
			}
			succeeded++

		case domain.OutcomeNoData:
			logger.Warn("no data for unit, skipping", "unit", unit.String(), "reason", res.Reason)
			failed = append(failed, unit.String())

		case domain.OutcomeAuthFailure:
			logger.Error(fmt.Sprintf("Authentication failed for %s", name), "unit", unit.String(), "error", res.Err)
			diag.Complete(false)
			logger.Error("query aborted", "diagnostics", diag.Summary())
			d.countQuery(name, "auth_failure")
			return domain.FailedResponse(fmt.Sprintf("Authentication failed for %s: %s", name, res.Reason))

		default:
			logger.Warn("unit failed, skipping", "unit", unit.String(), "error", res.Err)
			failed = append(failed, unit.String())
		}
	}

	diag.Complete(true)
	summary := fmt.Sprintf("Completed %s request: %d total records from %d %s",
		name, len(records), succeeded, kind.Plural())
	if len(failed) > 0 {
		summary += fmt.Sprintf(", %d failed %s: %s", len(failed), kind.Plural(), strings.Join(failed, ", "))
	}
	logger.Info(summary, "diagnostics", diag.Summary())

	d.countQuery(name, "success")
	d.metrics.QueryRecords.Observe(float64(len(records)))
	return domain.Response{Success: true, Data: records}
}

// fail completes diag as failed and builds the generic top-level failure.
func (d *Driver) fail(logger *slog.Logger, diag *domain.Diagnostics, msg string) domain.Response {
	diag.Complete(false)
	logger.Error("query failed", "diagnostics", diag.Summary(), "errors", diag.Errors())
	d.countQuery(diag.Service(), "error")
	return domain.FailedResponse(fmt.Sprintf("%s API error: %s. See logs for details.", diag.Service(), msg))
}

func (d *Driver) countQuery(provider, outcome string) {
	d.metrics.Queries.WithLabelValues(provider, outcome).Inc()
}

func unitsFor(kind domain.UnitKind, q domain.QueryParameters, now time.Time) []domain.Unit {
	var units []domain.Unit
	if kind == domain.UnitYear {
		for _, y := range q.Years(now) {
			units = append(units, domain.YearUnit(y))
		}
		return units
	}
	for _, day := range q.Days(now) {
		units = append(units, domain.DayUnit(day))
	}
	return units
}
