package validator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
	"github.com/thermalgrid/heatindex-analytics-worker/tools/period"
)

// ErrInvalidReading marks a reading rejected before any write. Wrapped errors
// carry the specific reason.
var ErrInvalidReading = errors.New("invalid reading")

// Validator checks raw-reading payloads before aggregation.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateReading turns an ingest payload into a RawReading bucketed in the
// local time zone, or rejects it. Missing or non-finite numeric fields fail
// the whole reading; zeros are never written in their place. The mock
// timestamp override, when present, replaces receivedAt.
func (v *Validator) ValidateReading(req model.IngestRequest, receivedAt time.Time) (model.RawReading, error) {
	if req.SensorID == "" {
		return model.RawReading{}, fmt.Errorf("%w: missing sensorId", ErrInvalidReading)
	}

	fields := map[string]*float64{
		"temperature": req.Temperature,
		"humidity":    req.Humidity,
		"heatIndex":   req.HeatIndex,
	}
	for name, val := range fields {
		if val == nil {
			return model.RawReading{}, fmt.Errorf("%w: missing %s", ErrInvalidReading, name)
		}
		if math.IsNaN(*val) || math.IsInf(*val, 0) {
			return model.RawReading{}, fmt.Errorf("%w: non-finite %s", ErrInvalidReading, name)
		}
	}

	timestamp := receivedAt
	if req.MockTimestamp != nil {
		timestamp = time.UnixMilli(*req.MockTimestamp)
	}

	return model.RawReading{
		SensorID:    req.SensorID,
		Temperature: *req.Temperature,
		Humidity:    *req.Humidity,
		HeatIndex:   *req.HeatIndex,
		Timestamp:   timestamp.In(period.Location),
		ReceiverID:  req.ReceiverID,
	}, nil
}
