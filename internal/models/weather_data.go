package models

import (
	"slices"
	"time"
)

// CurrentSnapshot is the current-conditions record of one station.
// Optional values are nil when the provider did not report them.
type CurrentSnapshot struct {
	StationID   string `json:"station_id"`
	StationName string `json:"station_name"`

	Condition    Condition `json:"condition"`
	RawCondition string    `json:"raw_condition"`

	Temperature         float64  `json:"temperature"`
	ApparentTemperature *float64 `json:"apparent_temperature,omitempty"`
	DewPoint            *float64 `json:"dew_point,omitempty"`
	Humidity            *float64 `json:"humidity,omitempty"`
	Pressure            *float64 `json:"pressure,omitempty"`
	Precipitation       *float64 `json:"precipitation,omitempty"`

	WindSpeed     *float64 `json:"wind_speed,omitempty"`
	WindBearing   *float64 `json:"wind_bearing,omitempty"`
	WindDirection string   `json:"wind_direction,omitempty"`
	WindPower     string   `json:"wind_power,omitempty"`

	AQI            *float64 `json:"aqi,omitempty"`
	AQIDescription string   `json:"aqi_description,omitempty"`
	Alert          string   `json:"alert,omitempty"`

	PublishedAt time.Time `json:"published_at"`
}

// ForecastEntry is a single calendar day of the forecast.
type ForecastEntry struct {
	Date time.Time `json:"date"`

	Condition      Condition `json:"condition"`
	RawCondition   string    `json:"raw_condition"`
	NightCondition Condition `json:"night_condition,omitempty"`
	RawNight       string    `json:"raw_night_condition,omitempty"`

	TempHigh *float64 `json:"temperature,omitempty"`
	TempLow  *float64 `json:"templow,omitempty"`

	WindBearing   *float64 `json:"wind_bearing,omitempty"`
	WindSpeed     *float64 `json:"wind_speed,omitempty"`
	WindDirection string   `json:"wind_direction,omitempty"`
	WindPower     string   `json:"wind_power,omitempty"`
}

// State is the published (snapshot, forecast) pair.
type State struct {
	Snapshot  CurrentSnapshot `json:"snapshot"`
	Forecast  []ForecastEntry `json:"forecast"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	s.Forecast = slices.Clone(s.Forecast)
	return s
}
