package messaging

import "time"

// Forecast is one day of the forecast carried by StationUpdatedEvent.
type Forecast struct {
	Date      string   `json:"date"`
	Condition string   `json:"condition"`
	TempHigh  *float64 `json:"temp_high,omitempty"`
	TempLow   *float64 `json:"temp_low,omitempty"`
}

// StationUpdatedEvent is emitted after every successful update of a station.
type StationUpdatedEvent struct {
	StationID   string     `json:"station_id"`
	StationName string     `json:"station_name"`
	Condition   string     `json:"condition"`
	Temperature float64    `json:"temperature"`
	Humidity    *float64   `json:"humidity,omitempty"`
	AQI         *float64   `json:"aqi,omitempty"`
	Alert       string     `json:"alert,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Forecast    []Forecast `json:"forecast"`
}
