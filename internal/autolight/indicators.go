package autolight

import (
	"autolight-service/internal/settings"
	"autolight-service/internal/types"
)

// IndicatorCount is one LED next to each mode button.
const IndicatorCount = 3

var indicatorForMode = map[types.AutoLightMode]int{
	types.ModeFogOnly:      0,
	types.ModeLowBeamOnly:  1,
	types.ModeSensorDriven: 2,
}

// Indicators returns the LED colors for the current state. The active
// mode's LED shows color 2 while the low beam is on, color 1 while only the
// fog lights are on, and a dimmed color 1 while the mode is armed with both
// relays off. Everything is dark unless the unit is awake.
func Indicators(mode types.AutoLightMode, relays types.RelayState, s settings.Settings, awake bool) [IndicatorCount]settings.Color {
	var leds [IndicatorCount]settings.Color
	if !awake {
		return leds
	}
	idx, ok := indicatorForMode[mode]
	if !ok {
		return leds
	}

	switch {
	case relays.LowBeam:
		leds[idx] = settings.PaletteColor(s.Color2)
	case relays.Fog:
		leds[idx] = settings.PaletteColor(s.Color1)
	default:
		leds[idx] = settings.PaletteColor(s.Color1).Dim()
	}
	return leds
}
