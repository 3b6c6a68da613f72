package alert

import (
	"fmt"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
)

// Default hazard thresholds in °C heat index.
const (
	DefaultExtremeCautionThreshold = 32.0
	DefaultDangerThreshold         = 41.0
	DefaultExtremeDangerThreshold  = 52.0
)

// Classifier maps a heat-index value to a hazard level with configurable
// thresholds.
type Classifier struct {
	extremeCaution float64
	danger         float64
	extremeDanger  float64
}

// NewClassifier creates a classifier with the specified thresholds.
func NewClassifier(extremeCaution, danger, extremeDanger float64) *Classifier {
	return &Classifier{
		extremeCaution: extremeCaution,
		danger:         danger,
		extremeDanger:  extremeDanger,
	}
}

// Classify returns the hazard level for a heat-index value. Values below the
// Extreme Caution floor are Safe and raise no alert.
func (c *Classifier) Classify(heatIndex float64) model.AlertLevel {
	switch {
	case heatIndex >= c.extremeDanger:
		return model.LevelExtremeDanger
	case heatIndex >= c.danger:
		return model.LevelDanger
	case heatIndex >= c.extremeCaution:
		return model.LevelExtremeCaution
	default:
		return model.LevelSafe
	}
}

// ShouldAlert reports whether a heat-index value crosses the lowest alert
// threshold.
func (c *Classifier) ShouldAlert(heatIndex float64) bool {
	return heatIndex >= c.extremeCaution
}

// Message builds the human-readable alert message stored on the record.
func (c *Classifier) Message(sensorID string, heatIndex float64) string {
	return fmt.Sprintf("heat index reached %.1f°C (%s) at sensor %s",
		heatIndex, c.Classify(heatIndex), sensorID)
}
