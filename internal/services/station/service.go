// Package station runs one acquisition cycle: fetch, decode, build the forecast, translate conditions.
package station

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/services/condition"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/services/nmc"
)

type fetcher interface {
	Fetch(ctx context.Context, stationID string) ([]byte, error)
}

type snapshotParser interface {
	Parse(body []byte) (models.CurrentSnapshot, nmc.ForecastSection, error)
}

type forecastBuilder interface {
	Build(section nmc.ForecastSection, reference time.Time) ([]models.ForecastEntry, error)
}

// Station identifies the observation point the service is bound to.
type Station struct {
	ID   string
	Name string
}

type Option func(*Service)

// WithClock replaces time.Now, which decides the forecast reference date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithUnmappedHook is called with every raw condition missing from the table.
func WithUnmappedHook(hook func(raw string)) Option {
	return func(s *Service) { s.onUnmapped = hook }
}

type Service struct {
	station    Station
	fetcher    fetcher
	parser     snapshotParser
	builder    forecastBuilder
	now        func() time.Time
	onUnmapped func(raw string)
	logger     zerolog.Logger
}

func NewService(
	st Station,
	f fetcher,
	p snapshotParser,
	b forecastBuilder,
	logger zerolog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		station:    st,
		fetcher:    f,
		parser:     p,
		builder:    b,
		now:        time.Now,
		onUnmapped: func(string) {},
		logger:     logger.With().Str("component", "station").Str("station", st.ID).Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update performs one network round trip and returns a complete State.
// Nothing is returned on error, so callers can keep what they had.
func (s *Service) Update(ctx context.Context) (models.State, error) {
	start := time.Now()

	body, err := s.fetcher.Fetch(ctx, s.station.ID)
	if err != nil {
		return models.State{}, fmt.Errorf("fetch station %s: %w", s.station.ID, err)
	}

	snapshot, section, err := s.parser.Parse(body)
	if err != nil {
		return models.State{}, fmt.Errorf("parse station %s: %w", s.station.ID, err)
	}

	now := s.now()
	forecast, err := s.builder.Build(section, now)
	if err != nil {
		return models.State{}, fmt.Errorf("build forecast for station %s: %w", s.station.ID, err)
	}

	snapshot.StationID = s.station.ID
	snapshot.StationName = s.station.Name
	snapshot.Condition = s.translate(snapshot.RawCondition)
	for i := range forecast {
		forecast[i].Condition = s.translate(forecast[i].RawCondition)
		if forecast[i].RawNight != "" {
			forecast[i].NightCondition = s.translate(forecast[i].RawNight)
		}
	}

	s.logger.Debug().
		Ctx(ctx).
		Str("condition", string(snapshot.Condition)).
		Int("forecast_days", len(forecast)).
		Dur("duration_ms", time.Since(start)).
		Msg("update cycle produced state")

	return models.State{Snapshot: snapshot, Forecast: forecast, UpdatedAt: now}, nil
}

func (s *Service) translate(raw string) models.Condition {
	c, ok := condition.Lookup(raw)
	if !ok {
		s.logger.Warn().Str("raw_condition", raw).Msg("unmapped condition")
		s.onUnmapped(raw)
	}
	return c
}
