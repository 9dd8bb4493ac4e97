package nmc

import "encoding/json"

// envelope is the outer shape of /rest/weather responses.
type envelope struct {
	Msg  flexString      `json:"msg"`
	Code flexNumber      `json:"code"`
	Data json.RawMessage `json:"data"`
}

type payload struct {
	Real        *realSection           `json:"real"`
	PassedChart lenient[[]passedPoint] `json:"passedchart"`
	Air         lenient[airSection]    `json:"air"`
	Predict     *predictSection        `json:"predict"`
	TempChart   []TempPoint            `json:"tempchart"`
}

type realSection struct {
	PublishTime flexString        `json:"publish_time"`
	Weather     *realWeather      `json:"weather"`
	Wind        lenient[realWind] `json:"wind"`
	Warn        lenient[realWarn] `json:"warn"`
}

type realWeather struct {
	Temperature flexNumber `json:"temperature"`
	Humidity    flexNumber `json:"humidity"`
	Rain        flexNumber `json:"rain"`
	Info        flexString `json:"info"`
	FeelsT      flexNumber `json:"feelst"`
	DewPoint    flexNumber `json:"dewpoint"`
}

type realWind struct {
	Direct flexString `json:"direct"`
	Degree flexNumber `json:"degree"`
	Power  flexString `json:"power"`
	Speed  flexNumber `json:"speed"`
}

type realWarn struct {
	Alert flexString `json:"alert"`
}

type passedPoint struct {
	Pressure  flexNumber `json:"pressure"`
	Rain1h    flexNumber `json:"rain1h"`
	WindSpeed flexNumber `json:"windSpeed"`
	Humidity  flexNumber `json:"humidity"`
}

type airSection struct {
	AQI  flexNumber `json:"aqi"`
	Text flexString `json:"text"`
}

type predictSection struct {
	Detail *[]PredictDay `json:"detail"`
}

// PredictDay is one element of predict.detail.
type PredictDay struct {
	Date  flexString       `json:"date"`
	Day   lenient[halfDay] `json:"day"`
	Night lenient[halfDay] `json:"night"`
}

type halfDay struct {
	Weather struct {
		Info flexString `json:"info"`
	} `json:"weather"`
	Wind struct {
		Direct flexString `json:"direct"`
		Power  flexString `json:"power"`
	} `json:"wind"`
}

// TempPoint is one element of tempchart.
type TempPoint struct {
	Time    flexString `json:"time"`
	MaxTemp flexNumber `json:"max_temp"`
	MinTemp flexNumber `json:"min_temp"`
}

// ForecastSection is the part of a payload the ForecastBuilder consumes.
// It lives for a single update cycle.
type ForecastSection struct {
	Days      []PredictDay
	TempChart []TempPoint
}
