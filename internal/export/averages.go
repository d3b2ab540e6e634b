package export

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

// dayOfYearLayout keys averages by month and day so the same calendar day
// from different years falls together.
const dayOfYearLayout = "01-02"

// Average is the mean of all records sharing a month and day, rounded half
// away from zero to two decimal places.
type Average struct {
	Day            string          `json:"day"`
	TemperatureMin decimal.Decimal `json:"avg_temperature_min"`
	TemperatureMax decimal.Decimal `json:"avg_temperature_max"`
	Precipitation  decimal.Decimal `json:"avg_precipitation"`
	Samples        int             `json:"samples"`
}

type averageSum struct {
	min, max, precip decimal.Decimal
	n                int64
}

// DailyAverages computes per-calendar-day means ordered by "MM-dd".
func DailyAverages(records []domain.WeatherRecord) []Average {
	sums := make(map[string]*averageSum)
	for _, r := range records {
		key := r.Date.Format(dayOfYearLayout)
		s, ok := sums[key]
		if !ok {
			s = &averageSum{}
			sums[key] = s
		}
		s.min = s.min.Add(decimal.NewFromFloat(r.TemperatureMin))
		s.max = s.max.Add(decimal.NewFromFloat(r.TemperatureMax))
		s.precip = s.precip.Add(decimal.NewFromFloat(r.Precipitation))
		s.n++
	}

	out := make([]Average, 0, len(sums))
	for day, s := range sums {
		n := decimal.NewFromInt(s.n)
		out = append(out, Average{
			Day:            day,
			TemperatureMin: s.min.Div(n).Round(2),
			TemperatureMax: s.max.Div(n).Round(2),
			Precipitation:  s.precip.Div(n).Round(2),
			Samples:        int(s.n),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}
