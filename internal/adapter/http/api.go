package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
	"github.com/couchcryptid/historic-weather-service/internal/export"
	"github.com/couchcryptid/historic-weather-service/internal/pipeline"
	"github.com/couchcryptid/historic-weather-service/internal/provider"
)

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": s.svc.Providers()})
}

// handleHistory runs a query. Parameters: provider, lat, lon, start, end
// (optional), years (optional) and format (json or csv).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	format := values.Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	q, err := s.parseQuery(values)
	if err == nil {
		err = q.Validate(domain.Now())
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.QueryTimeout)
	defer cancel()

	resp, err := s.svc.Query(ctx, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !resp.Success {
		writeError(w, http.StatusBadGateway, resp.ErrorMessage)
		return
	}

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="history.csv"`)
		if err := export.EncodeCSV(w, resp.Data); err != nil {
			s.logger.Error("write csv response", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseQuery(values url.Values) (domain.QueryParameters, error) {
	q := domain.QueryParameters{
		ProviderName: values.Get("provider"),
		YearsBack:    s.opts.DefaultYears,
	}

	lat, err := strconv.ParseFloat(values.Get("lat"), 64)
	if err != nil {
		return q, fmt.Errorf("%w: lat: %q", domain.ErrInvalidQuery, values.Get("lat"))
	}
	lon, err := strconv.ParseFloat(values.Get("lon"), 64)
	if err != nil {
		return q, fmt.Errorf("%w: lon: %q", domain.ErrInvalidQuery, values.Get("lon"))
	}
	q.Location = domain.Location{Latitude: lat, Longitude: lon}

	start, err := time.Parse(domain.DateLayout, values.Get("start"))
	if err != nil {
		return q, fmt.Errorf("%w: start: %q", domain.ErrInvalidQuery, values.Get("start"))
	}
	q.StartDate = start

	if raw := values.Get("end"); raw != "" {
		end, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			return q, fmt.Errorf("%w: end: %q", domain.ErrInvalidQuery, raw)
		}
		q.EndDate = &end
	}

	if raw := values.Get("years"); raw != "" {
		years, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("%w: years: %q", domain.ErrInvalidQuery, raw)
		}
		q.YearsBack = years
	}
	return q, nil
}

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) handleSaveAPIKey(w http.ResponseWriter, r *http.Request) {
	var body apiKeyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := r.PathValue("provider")
	if err := s.svc.SaveAPIKey(name, body.APIKey); err != nil {
		switch {
		case errors.Is(err, provider.ErrNotSupported):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, pipeline.ErrEmptyAPIKey):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("save api key", "provider", name, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save api key")
		}
		return
	}
	s.logger.Info("api key saved", "provider", name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearSettings(w http.ResponseWriter, _ *http.Request) {
	if err := s.svc.ClearSettings(); err != nil {
		s.logger.Error("clear settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear settings")
		return
	}
	s.logger.Info("settings cleared")
	w.WriteHeader(http.StatusNoContent)
}
