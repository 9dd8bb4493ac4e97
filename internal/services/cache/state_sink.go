package cache

import (
	"context"
	"fmt"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
)

const keyPrefix = "nmc:station:"

// StateSink mirrors every published state into a cache for out-of-process readers.
// It is never read back by the pipeline.
type StateSink struct {
	cache     cache[models.State]
	stationID string
}

func NewStateSink(c cache[models.State], stationID string) *StateSink {
	return &StateSink{cache: c, stationID: stationID}
}

// StateKey is the key the state of stationID is stored under.
func StateKey(stationID string) string {
	return keyPrefix + stationID + ":state"
}

func (s *StateSink) Name() string { return "redis" }

func (s *StateSink) Publish(ctx context.Context, state models.State) error {
	if err := s.cache.Set(ctx, StateKey(s.stationID), state); err != nil {
		return fmt.Errorf("mirror state of station %s: %w", s.stationID, err)
	}
	return nil
}
