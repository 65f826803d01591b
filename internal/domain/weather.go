package domain

import "time"

type CurrentWeather struct {
	TemperatureC float64   `json:"temperature_c"`
	WindSpeedKmh float64   `json:"wind_speed_kmh"`
	Description  string    `json:"description"`
	ObservedAt   time.Time `json:"observed_at"`
}

// DayForecast is one date of the trip. Known=false means "unknown": the
// provider had no data for the date, which never blocks the plan.
type DayForecast struct {
	Date              time.Time `json:"date"`
	Known             bool      `json:"known"`
	MinTempC          float64   `json:"min_temp_c,omitempty"`
	MaxTempC          float64   `json:"max_temp_c,omitempty"`
	PrecipitationProb float64   `json:"precipitation_probability,omitempty"`
	Description       string    `json:"description,omitempty"`
}

func UnknownForecast(date time.Time) DayForecast {
	return DayForecast{Date: DateOnly(date)}
}

type WeatherInfo struct {
	Current  CurrentWeather `json:"current"`
	Forecast []DayForecast  `json:"forecast"`
}

// ForDate returns the forecast for date, or an unknown entry.
func (w *WeatherInfo) ForDate(date time.Time) DayForecast {
	if w != nil {
		d := DateOnly(date)
		for _, f := range w.Forecast {
			if f.Date.Equal(d) {
				return f
			}
		}
	}
	return UnknownForecast(date)
}

func (w *WeatherInfo) UnknownDays() int {
	if w == nil {
		return 0
	}
	n := 0
	for _, f := range w.Forecast {
		if !f.Known {
			n++
		}
	}
	return n
}
