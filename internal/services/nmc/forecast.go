package nmc

import (
	"fmt"
	"time"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
)

const (
	// ForecastOffset is the distance between predict.detail[i] and its tempchart entry;
	// tempchart starts with a week of observed days.
	ForecastOffset = 7

	// MaxForecastDays caps the published forecast.
	MaxForecastDays = 7

	dateLayout = "2006-01-02"
)

// ForecastBuilder aligns predict.detail with tempchart and keeps days on or after a reference date.
type ForecastBuilder struct {
	offset  int
	maxDays int
	loc     *time.Location
}

// NewForecastBuilder returns a builder producing at most maxDays entries.
// Out-of-range maxDays falls back to MaxForecastDays.
func NewForecastBuilder(maxDays int, loc *time.Location) *ForecastBuilder {
	if maxDays <= 0 || maxDays > MaxForecastDays {
		maxDays = MaxForecastDays
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ForecastBuilder{offset: ForecastOffset, maxDays: maxDays, loc: loc}
}

// Build returns the forecast in source order. Conditions are left untranslated.
func (b *ForecastBuilder) Build(section ForecastSection, reference time.Time) ([]models.ForecastEntry, error) {
	ref := reference.In(b.loc)
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, b.loc)

	entries := make([]models.ForecastEntry, 0, b.maxDays)
	for i, day := range section.Days {
		if len(entries) == b.maxDays {
			break
		}

		dateField := fmt.Sprintf("predict.detail[%d].date", i)
		text, err := day.Date.required(dateField)
		if err != nil {
			return nil, err
		}
		date, err := time.ParseInLocation(dateLayout, text, b.loc)
		if err != nil {
			return nil, malformed(dateField, err)
		}
		if date.Before(refDay) {
			continue
		}

		j := i + b.offset
		if j >= len(section.TempChart) {
			return nil, malformed(fmt.Sprintf("tempchart[%d]", j), errMisaligned)
		}
		temps := section.TempChart[j]

		entry := models.ForecastEntry{
			Date:     date,
			TempHigh: temps.MaxTemp.optional(),
			TempLow:  temps.MinTemp.optional(),
		}
		if day.Day.ok {
			d := day.Day.v
			entry.RawCondition = d.Weather.Info.value
			entry.WindDirection = d.Wind.Direct.optional()
			entry.WindPower = d.Wind.Power.optional()
			entry.WindBearing = directionToBearing(entry.WindDirection)
			entry.WindSpeed = powerToKmh(entry.WindPower)
		}
		if day.Night.ok {
			entry.RawNight = day.Night.v.Weather.Info.optional()
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
