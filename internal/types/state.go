package types

type PowerState string

const (
	PowerAwake           PowerState = "awake"
	PowerShutdownPending PowerState = "shutdown-pending"
	PowerAsleep          PowerState = "asleep"
)

type AutoLightMode string

const (
	ModeOff          AutoLightMode = "off"
	ModeFogOnly      AutoLightMode = "fog-only"
	ModeLowBeamOnly  AutoLightMode = "low-beam-only"
	ModeSensorDriven AutoLightMode = "sensor-driven"
)

// ParseAutoLightMode returns ModeOff for anything it does not recognise.
func ParseAutoLightMode(s string) AutoLightMode {
	switch m := AutoLightMode(s); m {
	case ModeFogOnly, ModeLowBeamOnly, ModeSensorDriven:
		return m
	default:
		return ModeOff
	}
}

// RelayState is the pair of relay outputs. Only the auto-light engine
// produces it.
type RelayState struct {
	Fog     bool
	LowBeam bool
}

type DisplayMode string

const (
	DisplayShowTime          DisplayMode = "show-time"
	DisplayShowTemp          DisplayMode = "show-temp"
	DisplaySetHour           DisplayMode = "set-hour"
	DisplaySetMinute         DisplayMode = "set-minute"
	DisplaySetTimeout        DisplayMode = "set-timeout"
	DisplaySetTurnOnDelay    DisplayMode = "set-turn-on-delay"
	DisplaySetLightThreshold DisplayMode = "set-light-threshold"
	DisplaySetColor1         DisplayMode = "set-color-1"
	DisplaySetColor2         DisplayMode = "set-color-2"
)

// SettingsSequence is the order the set button walks through.
var SettingsSequence = []DisplayMode{
	DisplaySetHour,
	DisplaySetMinute,
	DisplaySetTimeout,
	DisplaySetTurnOnDelay,
	DisplaySetLightThreshold,
	DisplaySetColor1,
	DisplaySetColor2,
}

// IsSetting reports whether m is one of the parameter-editing screens.
func (m DisplayMode) IsSetting() bool {
	for _, s := range SettingsSequence {
		if s == m {
			return true
		}
	}
	return false
}
