package layout

import (
	"fmt"
	"strings"
)

// Zoom range and the zoom thresholds at which Auto switches strategy.
const (
	MinZoom = 1.0
	MaxZoom = 4.0

	TreemapZoom  = 2.0
	DetailedZoom = 3.0
)

// Mode selects a layout strategy.
type Mode int

// Layout modes.
const (
	Auto Mode = iota
	Grid
	Treemap
	ForceDirected
	Detailed
)

var modeNames = [...]string{
	Auto:          "auto",
	Grid:          "grid",
	Treemap:       "treemap",
	ForceDirected: "force",
	Detailed:      "detailed",
}

// Modes lists every mode in cycle order.
var Modes = []Mode{Auto, Grid, Treemap, ForceDirected, Detailed}

// String returns the mode's flag name.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Next returns the mode after m in cycle order.
func (m Mode) Next() Mode {
	return Modes[(int(m)+1)%len(Modes)]
}

// ParseMode parses a mode name. It accepts "force-directed" as an alias.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "force-directed" || s == "forcedirected" {
		return ForceDirected, nil
	}
	for m, name := range modeNames {
		if s == name {
			return Mode(m), nil
		}
	}
	return Auto, fmt.Errorf("unknown layout mode %q", s)
}

// Resolve maps Auto to a concrete strategy for zoom. Explicit modes are
// returned unchanged.
func Resolve(m Mode, zoom float64) Mode {
	if m != Auto {
		return m
	}
	switch {
	case zoom < TreemapZoom:
		return Grid
	case zoom < DetailedZoom:
		return Treemap
	default:
		return Detailed
	}
}

// ClampZoom restricts zoom to [MinZoom, MaxZoom].
func ClampZoom(zoom float64) float64 {
	return clamp(zoom, MinZoom, MaxZoom)
}
