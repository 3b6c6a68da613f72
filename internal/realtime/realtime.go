package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
)

const (
	latestKeyPrefix  = "sensor_latest:"
	currentKeyPrefix = "sensor_current:"
)

// Store exposes the typed latest-value and current-reading operations over
// the underlying KV store.
type Store struct {
	kv KVStore
}

func NewStore(kv KVStore) *Store {
	return &Store{kv: kv}
}

// Latest fetches the latest-value cache entry for a sensor, ErrCacheMiss
// when the sensor has never reported.
func (s *Store) Latest(ctx context.Context, sensorID string) (*model.LatestReading, error) {
	val, err := s.kv.Get(ctx, latestKeyPrefix+sensorID)
	if err != nil {
		return nil, err
	}

	var latest model.LatestReading
	if err := json.Unmarshal([]byte(val), &latest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal latest reading for %s: %w", sensorID, err)
	}
	return &latest, nil
}

// SetLatest overwrites the latest-value cache entry for a sensor.
func (s *Store) SetLatest(ctx context.Context, sensorID string, latest *model.LatestReading) error {
	data, err := json.Marshal(latest)
	if err != nil {
		return fmt.Errorf("failed to marshal latest reading for %s: %w", sensorID, err)
	}
	return s.kv.Set(ctx, latestKeyPrefix+sensorID, string(data))
}

// SetCurrent overwrites the live-display entry for a sensor.
func (s *Store) SetCurrent(ctx context.Context, sensorID string, current *model.CurrentReading) error {
	data, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to marshal current reading for %s: %w", sensorID, err)
	}
	return s.kv.Set(ctx, currentKeyPrefix+sensorID, string(data))
}
