package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Weights holds the discovery ranking weight configuration.
type Weights struct {
	Fame        float64 `json:"fame"`         // Weight for normalized fame rating (default: 0.6)
	TagAffinity float64 `json:"tag_affinity"` // Weight for shared-tag affinity (default: 0.4)
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// DefaultWeights returns the default ranking weight configuration.
//
// Formula: composite_score = (fame * 0.6) + (tag_affinity * 0.4)
//   - Fame carries the majority weight so broadly popular, active profiles
//     surface first in default discovery.
//   - Tag affinity rewards shared interests without letting a single common
//     tag outrank an order-of-magnitude fame difference.
func DefaultWeights() *Weights {
	return &Weights{
		Fame:        0.6,
		TagAffinity: 0.4,
	}
}

// LoadCalibration loads ranking weights from a JSON calibration file.
// If the file doesn't exist or can't be read, returns default weights with an
// error. Partial configurations are merged with defaults for graceful
// degradation.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with default weights.
// Only non-zero values from the override are applied, which allows partial
// overrides in the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultWeights()
	}

	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.Fame != 0 {
		result.Fame = override.Fame
	}
	if override.TagAffinity != 0 {
		result.TagAffinity = override.TagAffinity
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Fame != defaults.Fame {
		overrides = append(overrides, fmt.Sprintf("fame: %.2f -> %.2f",
			defaults.Fame, loaded.Fame))
	}
	if loaded.TagAffinity != defaults.TagAffinity {
		overrides = append(overrides, fmt.Sprintf("tag_affinity: %.2f -> %.2f",
			defaults.TagAffinity, loaded.TagAffinity))
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
