package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

// FetchJSON performs one provider request for a unit and decodes a 2xx body
// into out. When ok is false the returned UnitResult is the unit's outcome:
// AuthFailure for 401/403, Failure for transport errors, other non-2xx
// statuses and undecodable bodies. diag receives the request, status code
// and any error text.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, params url.Values, diag *domain.Diagnostics, logger *slog.Logger, out any) (domain.UnitResult, bool) {
	diag.AddRequest()

	resp, err := c.Get(ctx, rawURL, params)
	if err != nil {
		diag.AddError(err.Error())
		return domain.Failure(err), false
	}
	diag.SetStatusCode(resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		authErr := &domain.AuthError{Provider: c.service, StatusCode: resp.StatusCode, Body: string(resp.Body)}
		diag.AddError(authErr.Error())
		return domain.AuthFailure(authErr), false
	}

	if !resp.OK() {
		err := fmt.Errorf("%s returned %s: %s", c.service, resp.Status, resp.Body)
		diag.AddError(err.Error())
		logger.Error("provider returned error status",
			"provider", c.service,
			"status", resp.StatusCode,
			"body", string(resp.Body),
		)
		return domain.Failure(err), false
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		err = fmt.Errorf("decode %s response: %w", c.service, err)
		diag.AddError(err.Error())
		return domain.Failure(err), false
	}
	return domain.UnitResult{}, true
}

// FormatCoord renders a coordinate with six decimals and a '.' separator.
func FormatCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
