package core

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"autolight-service/internal/autolight"
	"autolight-service/internal/display"
	"autolight-service/internal/hardware"
	"autolight-service/internal/logger"
	"autolight-service/internal/settings"
	"autolight-service/internal/types"
)

// writeRelays only touches the lines when the state changed. A failed
// write is retried on the next tick.
func (s *System) writeRelays(r types.RelayState) {
	if s.relaysValid && r == s.relays {
		return
	}
	ok := true
	if err := s.deps.IO.WriteDigitalOutput(hardware.LineFogRelay, r.Fog); err != nil {
		s.logger.Errorf("%v", err)
		ok = false
	}
	if err := s.deps.IO.WriteDigitalOutput(hardware.LineLowRelay, r.LowBeam); err != nil {
		s.logger.Errorf("%v", err)
		ok = false
	}
	if !ok {
		s.relaysValid = false
		return
	}
	s.logger.Infof("Relays: fog=%t low-beam=%t", r.Fog, r.LowBeam)
	s.publishRelays(r)
	s.relays = r
	s.relaysValid = true
}

func (s *System) writeLeds(c [autolight.IndicatorCount]settings.Color) {
	if s.ledsValid && c == s.leds {
		return
	}
	if err := s.deps.Leds.SetColors(c[:]); err != nil {
		s.logger.Errorf("%v", err)
		s.ledsValid = false
		return
	}
	s.leds = c
	s.ledsValid = true
}

func (s *System) writeFrame(f display.Frame) {
	if s.frameValid && f == s.frame {
		return
	}
	if err := s.deps.Display.Show(f); err != nil {
		s.logger.Errorf("%v", err)
		s.frameValid = false
		return
	}
	s.frame = f
	s.frameValid = true
}

// outputsOff de-energizes both relays and blanks LEDs and display. It runs
// before the board is suspended and on shutdown.
func (s *System) outputsOff() {
	s.logger.Infof("Switching outputs off")
	s.writeRelays(types.RelayState{})
	s.writeLeds([autolight.IndicatorCount]settings.Color{})
	s.writeFrame(display.Blank)
}

func (s *System) publishPower(p types.PowerState) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.PublishPowerState(s.ctx, p); err != nil {
		s.logger.Warnf("%v", err)
	}
}

func (s *System) publishMode(m types.AutoLightMode) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.PublishMode(s.ctx, m); err != nil {
		s.logger.Warnf("%v", err)
	}
}

func (s *System) publishRelays(r types.RelayState) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.PublishRelays(s.ctx, r); err != nil {
		s.logger.Warnf("%v", err)
	}
}

// watchdog pings systemd at half the configured WatchdogSec. Without a
// watchdog its channel never fires.
type watchdog struct {
	logger *logger.Logger
	ticker *time.Ticker
}

func newWatchdog(l *logger.Logger) *watchdog {
	w := &watchdog{logger: l}
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		l.Warnf("Failed to query systemd watchdog: %v", err)
	}
	if interval > 0 {
		w.ticker = time.NewTicker(interval / 2)
		l.Infof("systemd watchdog every %s", interval/2)
	}
	return w
}

func (w *watchdog) C() <-chan time.Time {
	if w.ticker == nil {
		return nil
	}
	return w.ticker.C
}

func (w *watchdog) ping() {
	if w.ticker == nil {
		return
	}
	if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
		w.logger.Debugf("Watchdog notify failed: %v", err)
	}
}

func (w *watchdog) stop() {
	if w.ticker != nil {
		w.ticker.Stop()
	}
}
