package model

import "time"

// AlertLevel classifies a heat-index reading against the hazard thresholds.
type AlertLevel string

const (
	LevelSafe           AlertLevel = "Safe"
	LevelExtremeCaution AlertLevel = "ExtremeCaution"
	LevelDanger         AlertLevel = "Danger"
	LevelExtremeDanger  AlertLevel = "ExtremeDanger"
)

// IngestRequest is the raw-reading payload accepted by both the HTTP
// endpoint and the MQ consumer. Numeric fields are pointers so a missing
// field can be told apart from an explicit zero and rejected.
type IngestRequest struct {
	SensorID      string   `json:"sensorId"`
	Temperature   *float64 `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	HeatIndex     *float64 `json:"heatIndex"`
	ReceiverID    string   `json:"receiverId,omitempty"`
	MockTimestamp *int64   `json:"__mockTimestamp,omitempty"` // epoch millis, deterministic backfill/testing
}

// RawReading is a validated sensor reading ready for aggregation.
type RawReading struct {
	SensorID    string
	Temperature float64
	Humidity    float64
	HeatIndex   float64
	Timestamp   time.Time
	ReceiverID  string
}

// Sensor is a registered device in the sensors collection. Readings from
// sensor ids not present there are rejected before any write.
type Sensor struct {
	SensorID     string    `json:"sensorId"`
	Name         string    `json:"name,omitempty"`
	Location     string    `json:"location,omitempty"`
	ReceiverID   string    `json:"receiverId,omitempty"`
	RegisteredAt time.Time `json:"registeredAt,omitempty"`
}

// PeriodSummary is the one document shape shared by the daily, weekly,
// monthly and yearly summary collections.
type PeriodSummary struct {
	SensorID    string     `json:"sensorId"`
	PeriodStart time.Time  `json:"periodStart"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"` // weekly only

	DataPointCount int `json:"dataPointCount"`

	AvgTemp      float64 `json:"avgTemp"`
	AvgHumidity  float64 `json:"avgHumidity"`
	AvgHeatIndex float64 `json:"avgHeatIndex"`

	MinTemp      float64 `json:"minTemp"`
	MaxTemp      float64 `json:"maxTemp"`
	MinHumidity  float64 `json:"minHumidity"`
	MaxHumidity  float64 `json:"maxHumidity"`
	MinHeatIndex float64 `json:"minHeatIndex"`
	MaxHeatIndex float64 `json:"maxHeatIndex"`

	// AlertCount is maintained on the weekly/monthly/yearly summaries only.
	AlertCount int `json:"alertCount,omitempty"`

	// ValidSubPeriods is set by the recomputer: the number of constituent
	// sub-periods (days for week/month, months for year) that contributed.
	ValidSubPeriods int `json:"validSubPeriods,omitempty"`

	IsPartial bool      `json:"isPartial"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DailyHigh mirrors the post-update daily maxima for the weekly bar-chart
// consumers. Derived data, rebuilt on every ingest for the day.
type DailyHigh struct {
	SensorID         string    `json:"sensorId"`
	Timestamp        time.Time `json:"timestamp"`
	HighestTemp      float64   `json:"highestTemp"`
	HighestHumidity  float64   `json:"highestHumidity"`
	HighestHeatIndex float64   `json:"highestHeatIndex"`
}

// AlertRecord is appended when a reading crosses the Extreme Caution floor.
// Never mutated afterwards; notification consumers own it from there.
type AlertRecord struct {
	ID          string     `json:"id"`
	SensorID    string     `json:"sensorId"`
	Temperature float64    `json:"temperature"`
	Humidity    float64    `json:"humidity"`
	HeatIndex   float64    `json:"heatIndex"`
	AlertType   AlertLevel `json:"alertType"`
	Timestamp   time.Time  `json:"timestamp"`
	Message     string     `json:"message"`
	ReceiverID  string     `json:"receiverId,omitempty"`
}

// LatestReading is the per-sensor latest-value cache, overwritten on every
// ingest. PeakHeatIndex only ever grows.
type LatestReading struct {
	LastTemperature      float64    `json:"lastTemperature"`
	LastHumidity         float64    `json:"lastHumidity"`
	LastHeatIndex        float64    `json:"lastHeatIndex"`
	LastReadingTimestamp time.Time  `json:"lastReadingTimestamp"`
	LastAlertLevel       AlertLevel `json:"lastAlertLevel"`
	PeakHeatIndex        float64    `json:"peakHeatIndex"`
}

// CurrentReading is the low-latency live-display entry written alongside an
// alert. Plain overwrite keyed by sensor, no accumulation.
type CurrentReading struct {
	SensorID    string     `json:"sensorId"`
	Temperature float64    `json:"temperature"`
	Humidity    float64    `json:"humidity"`
	HeatIndex   float64    `json:"heatIndex"`
	AlertLevel  AlertLevel `json:"alertLevel"`
	Timestamp   time.Time  `json:"timestamp"`
}
