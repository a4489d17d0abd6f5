package mediatypes

import "fmt"

// Preset is a named quality/compression tier selected at import time.
// Compression aggressiveness increases monotonically from standard to max.
type Preset string

const (
	// PresetStandard is the least aggressive compression tier.
	PresetStandard Preset = "standard"
	// PresetHigh is the intermediate compression tier.
	PresetHigh Preset = "high"
	// PresetMax is the most aggressive compression tier.
	PresetMax Preset = "max"
)

// ParsePreset validates a caller-supplied preset name.
// An empty string resolves to PresetStandard.
func ParsePreset(s string) (Preset, error) {
	switch Preset(s) {
	case "":
		return PresetStandard, nil
	case PresetStandard, PresetHigh, PresetMax:
		return Preset(s), nil
	default:
		return "", fmt.Errorf("unknown quality preset %q", s)
	}
}
