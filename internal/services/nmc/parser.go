package nmc

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
)

var publishLayouts = []string{"2006-01-02 15:04", "2006-01-02 15:04:05"}

// Parser decodes /rest/weather bodies. Times without zone are read in loc.
type Parser struct {
	loc *time.Location
}

// NewParser returns a Parser reading local times in loc (UTC when nil).
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{loc: loc}
}

// Parse returns the current conditions and the raw forecast arrays.
// The snapshot's Condition is left as ConditionUnknown; only RawCondition is filled.
func (p *Parser) Parse(body []byte) (models.CurrentSnapshot, ForecastSection, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.CurrentSnapshot{}, ForecastSection{}, malformed("", err)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return models.CurrentSnapshot{}, ForecastSection{}, malformed("data", errMissing)
	}
	if data[0] != '{' {
		return models.CurrentSnapshot{}, ForecastSection{}, malformed("data", errWrongType)
	}

	var raw payload
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return models.CurrentSnapshot{}, ForecastSection{}, malformed(typeErr.Field, errWrongType)
		}
		return models.CurrentSnapshot{}, ForecastSection{}, malformed("data", err)
	}

	snapshot, err := p.snapshot(raw)
	if err != nil {
		return models.CurrentSnapshot{}, ForecastSection{}, err
	}

	if raw.Predict == nil || raw.Predict.Detail == nil {
		return models.CurrentSnapshot{}, ForecastSection{}, malformed("predict.detail", errMissing)
	}

	return snapshot, ForecastSection{Days: *raw.Predict.Detail, TempChart: raw.TempChart}, nil
}

func (p *Parser) snapshot(raw payload) (models.CurrentSnapshot, error) {
	if raw.Real == nil {
		return models.CurrentSnapshot{}, malformed("real", errMissing)
	}
	if raw.Real.Weather == nil {
		return models.CurrentSnapshot{}, malformed("real.weather", errMissing)
	}
	w := raw.Real.Weather

	temperature, err := w.Temperature.required("real.weather.temperature")
	if err != nil {
		return models.CurrentSnapshot{}, err
	}
	info, err := w.Info.required("real.weather.info")
	if err != nil {
		return models.CurrentSnapshot{}, err
	}
	published, err := p.publishTime(raw.Real.PublishTime)
	if err != nil {
		return models.CurrentSnapshot{}, err
	}

	s := models.CurrentSnapshot{
		Condition:           models.ConditionUnknown,
		RawCondition:        info,
		Temperature:         temperature,
		ApparentTemperature: w.FeelsT.optional(),
		DewPoint:            w.DewPoint.optional(),
		Humidity:            w.Humidity.optional(),
		Precipitation:       w.Rain.optional(),
		PublishedAt:         published,
	}

	var latest passedPoint
	if raw.PassedChart.ok && len(raw.PassedChart.v) > 0 {
		latest = raw.PassedChart.v[0]
	}
	s.Pressure = latest.Pressure.optional()
	if rain := latest.Rain1h.optional(); rain != nil {
		s.Precipitation = rain
	}
	if s.Humidity == nil {
		s.Humidity = latest.Humidity.optional()
	}

	wind := raw.Real.Wind.v
	s.WindDirection = wind.Direct.optional()
	s.WindPower = wind.Power.optional()
	s.WindBearing = wind.Degree.optional()
	if s.WindBearing == nil {
		s.WindBearing = directionToBearing(s.WindDirection)
	}
	s.WindSpeed = msToKmh(wind.Speed.optional())
	if s.WindSpeed == nil {
		s.WindSpeed = msToKmh(latest.WindSpeed.optional())
	}
	if s.WindSpeed == nil {
		s.WindSpeed = powerToKmh(s.WindPower)
	}

	if raw.Air.ok {
		s.AQI = raw.Air.v.AQI.optional()
		s.AQIDescription = raw.Air.v.Text.optional()
	}
	if raw.Real.Warn.ok {
		s.Alert = raw.Real.Warn.v.Alert.optional()
	}

	return s, nil
}

func (p *Parser) publishTime(field flexString) (time.Time, error) {
	const name = "real.publish_time"
	text, err := field.required(name)
	if err != nil {
		return time.Time{}, err
	}
	var lastErr error
	for _, layout := range publishLayouts {
		t, perr := time.ParseInLocation(layout, text, p.loc)
		if perr == nil {
			return t, nil
		}
		lastErr = perr
	}
	return time.Time{}, malformed(name, lastErr)
}
