// Package autolight decides which relays are energized from the selected
// mode, the engine state and the ambient-light sensor. Time is always
// passed in; the package never reads the clock or touches hardware.
package autolight

import (
	"time"

	"autolight-service/internal/input"
	"autolight-service/internal/types"
)

const (
	DefaultGrace = 30 * time.Second
	DefaultBand  = 20
)

// Config holds the sensor-driven tuning. Threshold and TurnOnDelay come
// from the settings block and can be replaced with ApplySettings.
type Config struct {
	Threshold   int
	Band        int
	TurnOnDelay time.Duration
	Grace       time.Duration
}

// Sample is one light-sensor reading with the hysteresis result.
type Sample struct {
	Raw  int
	Dark bool
	Time time.Time
}

// ModeForButton maps the three mode buttons to the mode each one selects.
var ModeForButton = map[input.Line]types.AutoLightMode{
	input.LineMode1: types.ModeFogOnly,
	input.LineMode2: types.ModeLowBeamOnly,
	input.LineMode3: types.ModeSensorDriven,
}

// Engine owns the auto-light mode and the sensor-driven timers.
type Engine struct {
	cfg  Config
	mode types.AutoLightMode

	dark        bool
	sampleValid bool

	lowBeamOn     bool
	onDeadline    time.Time
	graceDeadline time.Time
}

func NewEngine(cfg Config) *Engine {
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	if cfg.Band < 0 {
		cfg.Band = 0
	}
	return &Engine{
		cfg:  cfg,
		mode: types.ModeOff,
	}
}

func (e *Engine) Mode() types.AutoLightMode {
	return e.mode
}

// ApplySettings replaces the threshold and turn-on delay. The current
// hysteresis state is kept; the next sample is judged against the new
// threshold.
func (e *Engine) ApplySettings(threshold int, turnOnDelay time.Duration) {
	e.cfg.Threshold = threshold
	e.cfg.TurnOnDelay = turnOnDelay
}

// SelectMode handles a mode button press. Pressing the button of the
// active mode returns to ModeOff. Lines that are not mode buttons leave the
// mode untouched.
func (e *Engine) SelectMode(button input.Line) types.AutoLightMode {
	m, ok := ModeForButton[button]
	if !ok {
		return e.mode
	}
	if m == e.mode {
		m = types.ModeOff
	}
	e.SetMode(m)
	return e.mode
}

// SetMode switches mode directly, e.g. when restoring at boot. Any pending
// grace or turn-on timer is dropped. Entering sensor-driven requires a new
// sample before the low beam can come on, judged against the threshold
// alone.
func (e *Engine) SetMode(m types.AutoLightMode) {
	if m == e.mode {
		return
	}
	e.mode = m
	e.cancelTimers()
	e.lowBeamOn = false
	if m == types.ModeSensorDriven {
		e.sampleValid = false
		e.dark = false
	}
}

// UpdateSample records a light-sensor reading. The reading becomes dark as
// soon as it drops below the threshold and only becomes light again once it
// rises above threshold+band.
func (e *Engine) UpdateSample(raw int, now time.Time) Sample {
	switch {
	case !e.dark && raw < e.cfg.Threshold:
		e.dark = true
	case e.dark && raw > e.cfg.Threshold+e.cfg.Band:
		e.dark = false
	}
	e.sampleValid = true
	return Sample{Raw: raw, Dark: e.dark, Time: now}
}

// Evaluate computes the relay state. A stopped engine forces both relays
// off and cancels timers whatever the mode.
func (e *Engine) Evaluate(engineRunning bool, now time.Time) types.RelayState {
	if !engineRunning {
		e.cancelTimers()
		e.lowBeamOn = false
		return types.RelayState{}
	}

	switch e.mode {
	case types.ModeFogOnly:
		return types.RelayState{Fog: true}
	case types.ModeLowBeamOnly:
		return types.RelayState{LowBeam: true}
	case types.ModeSensorDriven:
		e.updateLowBeam(now)
		return types.RelayState{Fog: true, LowBeam: e.lowBeamOn}
	}
	return types.RelayState{}
}

func (e *Engine) updateLowBeam(now time.Time) {
	if !e.sampleValid {
		return
	}

	if e.dark {
		e.graceDeadline = time.Time{}
		if e.lowBeamOn {
			return
		}
		if e.onDeadline.IsZero() {
			e.onDeadline = now.Add(e.cfg.TurnOnDelay)
		}
		if !now.Before(e.onDeadline) {
			e.lowBeamOn = true
			e.onDeadline = time.Time{}
		}
		return
	}

	e.onDeadline = time.Time{}
	if !e.lowBeamOn {
		return
	}
	if e.graceDeadline.IsZero() {
		e.graceDeadline = now.Add(e.cfg.Grace)
	}
	if !now.Before(e.graceDeadline) {
		e.lowBeamOn = false
		e.graceDeadline = time.Time{}
	}
}

func (e *Engine) cancelTimers() {
	e.onDeadline = time.Time{}
	e.graceDeadline = time.Time{}
}

// Pending reports whether a turn-on delay or grace timer is running.
func (e *Engine) Pending() (turnOn bool, grace bool) {
	return !e.onDeadline.IsZero(), !e.graceDeadline.IsZero()
}
