package core

import (
	"image/color"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Tier is a discrete severity band of the temperature color scale
type Tier int

const (
	TierNominal Tier = iota
	TierElevated
	TierSevere
)

func (t Tier) String() string {
	switch t {
	case TierElevated:
		return "elevated"
	case TierSevere:
		return "severe"
	default:
		return "nominal"
	}
}

// Tier thresholds in °C of warming. Upper bounds are inclusive.
const (
	NominalMax  = 1.0
	ElevatedMax = 2.0
)

// Scale is the color encoding for one temperature value
type Scale struct {
	Tier Tier
	Fill color.NRGBA // region fill, signals severity
	Glow color.NRGBA // halo center color, independent of temperature
}

var tierFills = [...]color.NRGBA{
	TierNominal:  {R: 34, G: 197, B: 94, A: 153},  // green, 0.6
	TierElevated: {R: 249, G: 115, B: 22, A: 153}, // orange, 0.6
	TierSevere:   {R: 239, G: 68, B: 68, A: 153},  // red, 0.6
}

// GlowColor is the translucent white at the center of every halo
var GlowColor = color.NRGBA{R: 255, G: 255, B: 255, A: 51}

// TierFor classifies a temperature delta. NaN falls through to nominal.
func TierFor(temperature float64) Tier {
	switch {
	case temperature > ElevatedMax:
		return TierSevere
	case temperature > NominalMax:
		return TierElevated
	default:
		return TierNominal
	}
}

// ColorFor maps a temperature delta to its fill and glow colors
func ColorFor(temperature float64) Scale {
	tier := TierFor(temperature)
	return Scale{Tier: tier, Fill: tierFills[tier], Glow: GlowColor}
}

// ColorForText parses display text and maps it to a color.
// Anything that does not parse lands in the nominal tier.
func ColorForText(temperature string) Scale {
	t, ok := ParseTemperature(temperature)
	if !ok {
		return ColorFor(0)
	}
	return ColorFor(t)
}

var leadingFloat = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// ParseTemperature reads the numeric prefix of a display value such as
// "2.6", "+1.5°C" or " 0.4 degrees". Empty or non-numeric text reports false.
func ParseTemperature(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	m = strings.Replace(m, "Infinity", "Inf", 1)
	v, err := strconv.ParseFloat(m, 64)
	if err != nil && !math.IsInf(v, 0) {
		return 0, false
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
