package alert_test

import (
	"strings"
	"testing"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/alert"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
)

func newClassifier() *alert.Classifier {
	return alert.NewClassifier(
		alert.DefaultExtremeCautionThreshold,
		alert.DefaultDangerThreshold,
		alert.DefaultExtremeDangerThreshold,
	)
}

func TestClassifyBelowFloor(t *testing.T) {
	c := newClassifier()

	if level := c.Classify(31.99); level != model.LevelSafe {
		t.Errorf("Expected Safe for 31.99, got %s", level)
	}
	if c.ShouldAlert(31.99) {
		t.Error("Expected no alert for 31.99")
	}
}

func TestClassifyExtremeCautionBoundary(t *testing.T) {
	c := newClassifier()

	if level := c.Classify(32.0); level != model.LevelExtremeCaution {
		t.Errorf("Expected ExtremeCaution for 32.0, got %s", level)
	}
	if !c.ShouldAlert(32.0) {
		t.Error("Expected alert at exactly 32.0")
	}
}

func TestClassifyDangerBoundary(t *testing.T) {
	c := newClassifier()

	if level := c.Classify(41.0); level != model.LevelDanger {
		t.Errorf("Expected Danger for 41.0, got %s", level)
	}
	if level := c.Classify(40.99); level != model.LevelExtremeCaution {
		t.Errorf("Expected ExtremeCaution for 40.99, got %s", level)
	}
}

func TestClassifyExtremeDangerBoundary(t *testing.T) {
	c := newClassifier()

	if level := c.Classify(52.0); level != model.LevelExtremeDanger {
		t.Errorf("Expected ExtremeDanger for 52.0, got %s", level)
	}
	if level := c.Classify(60.0); level != model.LevelExtremeDanger {
		t.Errorf("Expected ExtremeDanger for 60.0, got %s", level)
	}
}

func TestMessageNamesLevelAndSensor(t *testing.T) {
	c := newClassifier()

	msg := c.Message("sensor-7", 45.3)
	if !strings.Contains(msg, "Danger") {
		t.Errorf("Expected message to contain level, got %q", msg)
	}
	if !strings.Contains(msg, "sensor-7") {
		t.Errorf("Expected message to contain sensor id, got %q", msg)
	}
}
