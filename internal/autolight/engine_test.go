package autolight

import (
	"testing"
	"time"

	"autolight-service/internal/input"
	"autolight-service/internal/settings"
	"autolight-service/internal/types"
)

var t0 = time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC)

func newTestEngine(delay time.Duration) *Engine {
	return NewEngine(Config{
		Threshold:   150,
		Band:        20,
		TurnOnDelay: delay,
	})
}

func TestSelectModeBindsButtons(t *testing.T) {
	tests := []struct {
		button input.Line
		want   types.AutoLightMode
	}{
		{input.LineMode1, types.ModeFogOnly},
		{input.LineMode2, types.ModeLowBeamOnly},
		{input.LineMode3, types.ModeSensorDriven},
	}
	for _, tt := range tests {
		e := newTestEngine(0)
		if got := e.SelectMode(tt.button); got != tt.want {
			t.Errorf("SelectMode(%s) = %s, want %s", tt.button, got, tt.want)
		}
	}
}

func TestSelectModeSameButtonTogglesOff(t *testing.T) {
	for _, b := range []input.Line{input.LineMode1, input.LineMode2, input.LineMode3} {
		e := newTestEngine(0)
		e.SelectMode(b)
		if got := e.SelectMode(b); got != types.ModeOff {
			t.Errorf("second press of %s gave %s, want off", b, got)
		}
		// And again selects it back
		if got := e.SelectMode(b); got != ModeForButton[b] {
			t.Errorf("third press of %s gave %s", b, got)
		}
	}
}

func TestSelectModeIgnoresOtherButtons(t *testing.T) {
	e := newTestEngine(0)
	e.SelectMode(input.LineMode1)
	if got := e.SelectMode(input.LineUp); got != types.ModeFogOnly {
		t.Errorf("up button changed mode to %s", got)
	}
}

func TestEngineStoppedNeverAssertsRelays(t *testing.T) {
	modes := []types.AutoLightMode{types.ModeOff, types.ModeFogOnly, types.ModeLowBeamOnly, types.ModeSensorDriven}
	for _, m := range modes {
		for _, raw := range []int{0, 149, 150, 500, 1023} {
			e := newTestEngine(0)
			e.SetMode(m)
			e.UpdateSample(raw, t0)
			// Get the low beam on first where possible
			e.Evaluate(true, t0)
			if got := e.Evaluate(false, t0.Add(time.Second)); got.Fog || got.LowBeam {
				t.Errorf("mode=%s raw=%d: relays %+v with engine stopped", m, raw, got)
			}
		}
	}
}

func TestFixedModes(t *testing.T) {
	e := newTestEngine(0)
	e.SetMode(types.ModeFogOnly)
	if got := e.Evaluate(true, t0); got != (types.RelayState{Fog: true}) {
		t.Errorf("fog-only: %+v", got)
	}
	e.SetMode(types.ModeLowBeamOnly)
	if got := e.Evaluate(true, t0); got != (types.RelayState{LowBeam: true}) {
		t.Errorf("low-beam-only: %+v", got)
	}
	e.SetMode(types.ModeOff)
	if got := e.Evaluate(true, t0); got != (types.RelayState{}) {
		t.Errorf("off: %+v", got)
	}
}

func TestSensorDrivenTurnOnDelay(t *testing.T) {
	e := newTestEngine(5 * time.Second)
	e.SetMode(types.ModeSensorDriven)
	e.UpdateSample(40, t0)

	for _, d := range []time.Duration{0, time.Second, 4 * time.Second, 4999 * time.Millisecond} {
		got := e.Evaluate(true, t0.Add(d))
		if !got.Fog {
			t.Fatalf("fog should be on at %v", d)
		}
		if got.LowBeam {
			t.Fatalf("low beam on too early at %v", d)
		}
	}
	if got := e.Evaluate(true, t0.Add(5*time.Second)); !got.LowBeam {
		t.Fatal("low beam should be on at 5s")
	}
}

func TestSensorDrivenHysteresisAndGrace(t *testing.T) {
	e := newTestEngine(0)
	e.SetMode(types.ModeSensorDriven)
	e.UpdateSample(100, t0)
	if !e.Evaluate(true, t0).LowBeam {
		t.Fatal("low beam should be on immediately with zero delay")
	}

	// Exactly at threshold and inside the band: still dark
	for i, raw := range []int{150, 165, 170} {
		now := t0.Add(time.Duration(i+1) * time.Minute)
		s := e.UpdateSample(raw, now)
		if !s.Dark {
			t.Errorf("raw=%d should still be dark", raw)
		}
		if !e.Evaluate(true, now).LowBeam {
			t.Errorf("low beam dropped at raw=%d", raw)
		}
	}

	// Above the band: grace starts
	light := t0.Add(10 * time.Minute)
	e.UpdateSample(171, light)
	if !e.Evaluate(true, light).LowBeam {
		t.Fatal("low beam should survive the start of grace")
	}
	if _, grace := e.Pending(); !grace {
		t.Fatal("grace timer should be running")
	}
	if !e.Evaluate(true, light.Add(29*time.Second)).LowBeam {
		t.Fatal("low beam should still be on before grace expires")
	}
	if e.Evaluate(true, light.Add(30*time.Second)).LowBeam {
		t.Fatal("low beam should be off after the full grace")
	}
}

func TestGraceRestartsWhenDarkAgain(t *testing.T) {
	e := newTestEngine(0)
	e.SetMode(types.ModeSensorDriven)
	e.UpdateSample(50, t0)
	e.Evaluate(true, t0)

	// Bridge: light for 20s, dark again, light again
	e.UpdateSample(400, t0.Add(time.Second))
	e.Evaluate(true, t0.Add(time.Second))
	e.UpdateSample(50, t0.Add(21*time.Second))
	e.Evaluate(true, t0.Add(21*time.Second))
	e.UpdateSample(400, t0.Add(22*time.Second))
	e.Evaluate(true, t0.Add(22*time.Second))

	if !e.Evaluate(true, t0.Add(40*time.Second)).LowBeam {
		t.Fatal("grace should have restarted at 22s")
	}
	if e.Evaluate(true, t0.Add(52*time.Second)).LowBeam {
		t.Fatal("low beam should be off 30s after the last light crossing")
	}
}

func TestEngineStopCancelsTimers(t *testing.T) {
	e := newTestEngine(5 * time.Second)
	e.SetMode(types.ModeSensorDriven)
	e.UpdateSample(50, t0)
	e.Evaluate(true, t0)
	if on, _ := e.Pending(); !on {
		t.Fatal("turn-on delay should be pending")
	}

	e.Evaluate(false, t0.Add(time.Second))
	if on, grace := e.Pending(); on || grace {
		t.Fatal("engine stop should cancel timers")
	}

	// Restart: the delay begins again
	restart := t0.Add(10 * time.Second)
	if e.Evaluate(true, restart).LowBeam {
		t.Fatal("low beam should wait for a fresh delay after restart")
	}
	if !e.Evaluate(true, restart.Add(5*time.Second)).LowBeam {
		t.Fatal("low beam should come on after the fresh delay")
	}
}

func TestModeSwitchCancelsGraceAndNeedsFreshSample(t *testing.T) {
	e := newTestEngine(0)
	e.SetMode(types.ModeSensorDriven)
	e.UpdateSample(50, t0)
	e.Evaluate(true, t0)
	e.UpdateSample(400, t0.Add(time.Second))
	e.Evaluate(true, t0.Add(time.Second))
	if _, grace := e.Pending(); !grace {
		t.Fatal("grace should be pending")
	}

	e.SelectMode(input.LineMode1)
	if _, grace := e.Pending(); grace {
		t.Fatal("mode switch should cancel grace")
	}
	if got := e.Evaluate(true, t0.Add(2*time.Second)); got.LowBeam {
		t.Fatal("fog-only must not keep low beam")
	}

	// Back to sensor-driven: the old dark sample must not apply
	e.UpdateSample(50, t0.Add(3*time.Second))
	e.SelectMode(input.LineMode3)
	if e.Evaluate(true, t0.Add(4*time.Second)).LowBeam {
		t.Fatal("stale sample activated low beam")
	}
	e.UpdateSample(50, t0.Add(5*time.Second))
	if !e.Evaluate(true, t0.Add(5*time.Second)).LowBeam {
		t.Fatal("fresh dark sample should activate low beam")
	}

	// Inside the band: dark only if carried over from before the switch
	e.SelectMode(input.LineMode1)
	e.SelectMode(input.LineMode3)
	if s := e.UpdateSample(160, t0.Add(6*time.Second)); s.Dark {
		t.Error("first sample after re-entering sensor-driven kept the old dark state")
	}
	if e.Evaluate(true, t0.Add(6*time.Second)).LowBeam {
		t.Error("low beam on from a sample above the threshold")
	}
}

func TestIndicators(t *testing.T) {
	s := settings.Settings{Color1: 1, Color2: 3}

	leds := Indicators(types.ModeSensorDriven, types.RelayState{Fog: true, LowBeam: true}, s, true)
	if leds[2] != settings.Palette[3] {
		t.Errorf("low beam should show color 2, got %+v", leds[2])
	}
	if leds[0] != settings.Off || leds[1] != settings.Off {
		t.Errorf("inactive mode LEDs should be off: %+v", leds)
	}

	leds = Indicators(types.ModeFogOnly, types.RelayState{Fog: true}, s, true)
	if leds[0] != settings.Palette[1] {
		t.Errorf("fog should show color 1, got %+v", leds[0])
	}

	leds = Indicators(types.ModeFogOnly, types.RelayState{}, s, true)
	if leds[0] != settings.Palette[1].Dim() {
		t.Errorf("armed mode should be dimmed, got %+v", leds[0])
	}

	leds = Indicators(types.ModeFogOnly, types.RelayState{Fog: true}, s, false)
	for i, c := range leds {
		if c != settings.Off {
			t.Errorf("LED %d lit while not awake", i)
		}
	}

	leds = Indicators(types.ModeOff, types.RelayState{}, s, true)
	for i, c := range leds {
		if c != settings.Off {
			t.Errorf("LED %d lit in off mode", i)
		}
	}
}
