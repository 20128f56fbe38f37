package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"autolight-service/internal/autolight"
	"autolight-service/internal/clock"
	"autolight-service/internal/config"
	"autolight-service/internal/display"
	"autolight-service/internal/hardware"
	"autolight-service/internal/input"
	"autolight-service/internal/logger"
	"autolight-service/internal/power"
	"autolight-service/internal/settings"
	"autolight-service/internal/types"
)

// The RTC is read at most this often; the display only needs seconds.
const clockRefresh = 250 * time.Millisecond

var lineNames = map[input.Line]string{
	input.LineMode1:     hardware.LineMode1,
	input.LineMode2:     hardware.LineMode2,
	input.LineMode3:     hardware.LineMode3,
	input.LineSet:       hardware.LineSet,
	input.LineUp:        hardware.LineUp,
	input.LineEngineRun: hardware.LineEngineRun,
}

// Deps are the collaborators System drives. Publisher and Sleeper may be
// nil.
type Deps struct {
	IO        HardwareIO
	Light     LightSensor
	Leds      Indicators
	Display   Display
	Clock     Clock
	Store     settings.Store
	Publisher Publisher
	Sleeper   Sleeper
}

// System owns all controller state. Everything except the ignition edge
// handler runs on the goroutine calling Tick or Run.
type System struct {
	logger *logger.Logger
	cfg    config.Config
	deps   Deps
	ctx    context.Context

	power   *power.Controller
	engine  *autolight.Engine
	nav     *display.Navigator
	buttons *input.Debouncer
	engLine *input.Debouncer

	reading     clock.Reading
	nextClock   time.Time
	nextSensor  time.Time
	sensorFails int

	// Last values written to hardware
	relays      types.RelayState
	relaysValid bool
	leds        [autolight.IndicatorCount]settings.Color
	ledsValid   bool
	frame       display.Frame
	frameValid  bool
}

func NewSystem(l *logger.Logger, cfg config.Config, deps Deps) *System {
	return &System{
		logger:  l,
		cfg:     cfg,
		deps:    deps,
		buttons: input.NewDebouncer(cfg.Timing.ButtonDebounce, input.Buttons...),
		engLine: input.NewDebouncer(cfg.Timing.EngineDebounce, input.LineEngineRun),
	}
}

// Start loads the persisted settings and mode, reads the initial input
// levels and starts the power FSM.
func (s *System) Start(ctx context.Context, now time.Time) error {
	s.ctx = ctx
	s.logger.Infof("Starting autolight system")

	st := s.loadSettings(ctx)

	s.engine = autolight.NewEngine(autolight.Config{
		Threshold:   st.LightThreshold,
		Band:        s.cfg.LightSensor.Band,
		TurnOnDelay: time.Duration(st.TurnOnDelaySeconds) * time.Second,
		Grace:       s.cfg.Timing.LowBeamGrace,
	})
	s.engine.SetMode(s.loadMode(ctx))

	s.nav = display.NewNavigator(display.Config{
		Inactivity:     s.cfg.Timing.Inactivity,
		TempTimeout:    s.cfg.Timing.TempTimeout,
		BlinkPeriod:    s.cfg.Timing.Blink,
		RepeatDelay:    s.cfg.Timing.RepeatDelay,
		RepeatInterval: s.cfg.Timing.RepeatInterval,
		StuckWindow:    s.cfg.Timing.StuckWindow,
		Wrap:           s.cfg.WrapSettings,
	}, st)

	s.seedInputs()

	s.power = power.NewController(s.logger.WithTag("power"),
		time.Duration(st.SleepTimeoutMinutes)*time.Minute,
		power.Hooks{
			OnSleep:       s.outputsOff,
			OnStateChange: s.publishPower,
		})

	// Edges before now are covered by the level read here.
	s.deps.IO.TakeWoke()
	ignition := s.deps.IO.Ignition()
	if err := s.power.Start(ctx, now, ignition, s.engLine.Stable(input.LineEngineRun)); err != nil {
		return fmt.Errorf("failed to start power controller: %w", err)
	}

	s.publishPower(s.power.State())
	s.publishMode(s.engine.Mode())
	s.Tick(now)

	s.logger.Infof("System started (mode=%s, power=%s)", s.engine.Mode(), s.power.State())
	return nil
}

func (s *System) loadSettings(ctx context.Context) settings.Settings {
	st, err := s.deps.Store.Load(ctx)
	switch {
	case errors.Is(err, settings.ErrNotFound):
		s.logger.Infof("No stored settings, using defaults")
		return settings.Defaults()
	case err != nil:
		s.logger.Warnf("Failed to load settings, using defaults: %v", err)
		return settings.Defaults()
	}

	clamped, changed := st.Clamp()
	if changed {
		s.logger.Warnf("Stored settings out of range (%s), clamped to %s", st, clamped)
	}
	s.logger.Infof("Loaded settings: %s", clamped)
	return clamped
}

func (s *System) loadMode(ctx context.Context) types.AutoLightMode {
	m, err := s.deps.Store.LoadMode(ctx)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			s.logger.Warnf("Failed to load mode: %v", err)
		}
		return types.ModeOff
	}
	s.logger.Infof("Restored mode: %s", m)
	return m
}

// seedInputs takes the current levels as stable so a button held at boot
// or across a suspend does not produce an edge and the engine line is not
// reported late.
func (s *System) seedInputs() {
	for _, l := range input.Buttons {
		s.buttons.Force(l, s.readLine(l, false))
	}
	s.engLine.Force(input.LineEngineRun, s.readLine(input.LineEngineRun, false))
}

func (s *System) readLine(l input.Line, fallback bool) bool {
	v, err := s.deps.IO.ReadDigitalInput(lineNames[l])
	if err != nil {
		s.logger.Debugf("Failed to read %s: %v", l, err)
		return fallback
	}
	return v
}

// Power returns the current power state.
func (s *System) Power() types.PowerState {
	return s.power.State()
}

// Mode returns the active auto-light mode.
func (s *System) Mode() types.AutoLightMode {
	return s.engine.Mode()
}

// Tick runs one loop iteration at now.
func (s *System) Tick(now time.Time) {
	if !now.Before(s.nextClock) {
		s.reading = s.deps.Clock.Now()
		s.nextClock = now.Add(clockRefresh)
	}

	events := s.buttons.Poll(now, func(l input.Line) bool {
		return s.readLine(l, s.buttons.Stable(l))
	})
	s.engLine.Poll(now, func(l input.Line) bool {
		return s.readLine(l, s.engLine.Stable(l))
	})

	edge := s.deps.IO.TakeWoke()
	if !s.power.Update(now, s.deps.IO.Ignition(), s.engLine.Stable(input.LineEngineRun)) && edge {
		s.power.Pulse(now)
	}
	state := s.power.State()
	if state == types.PowerAsleep {
		return
	}

	for _, ev := range events {
		s.logger.Debugf("Button %s %s", ev.Line, ev.Edge)
		if ev.Edge == input.EdgePress {
			if _, ok := autolight.ModeForButton[ev.Line]; ok {
				s.selectMode(ev.Line)
			}
		}
		if c := s.nav.HandleEvent(ev, s.reading); c != nil {
			s.applyCommit(c)
		}
	}
	if c := s.nav.Tick(now); c != nil {
		s.applyCommit(c)
	}

	if !now.Before(s.nextSensor) {
		s.pollSensor(now)
		s.nextSensor = now.Add(s.cfg.Timing.SensorPoll)
	}

	relays := s.engine.Evaluate(s.power.EngineRunning(), now)
	s.writeRelays(relays)

	awake := state == types.PowerAwake
	s.writeLeds(autolight.Indicators(s.engine.Mode(), relays, s.nav.Settings(), awake))
	s.writeFrame(s.nav.Render(now, s.reading))
}

func (s *System) selectMode(l input.Line) {
	prev := s.engine.Mode()
	m := s.engine.SelectMode(l)
	if m == prev {
		return
	}
	s.logger.Infof("Mode: %s -> %s", prev, m)
	if err := s.deps.Store.SaveMode(s.ctx, m); err != nil {
		s.logger.Warnf("Failed to persist mode: %v", err)
	}
	s.publishMode(m)
}

func (s *System) pollSensor(now time.Time) {
	raw, err := s.deps.Light.ReadLight()
	if err != nil {
		s.sensorFails++
		if s.sensorFails == 1 {
			s.logger.Warnf("Light sensor read failed: %v", err)
		}
		return
	}
	if s.sensorFails > 0 {
		s.logger.Infof("Light sensor recovered after %d failures", s.sensorFails)
		s.sensorFails = 0
	}
	sample := s.engine.UpdateSample(raw, now)
	s.logger.Debugf("Light %d dark=%t", sample.Raw, sample.Dark)
}

// applyCommit writes what the navigator handed back at a commit point.
func (s *System) applyCommit(c *display.Commit) {
	if c.Inactivity {
		s.logger.Infof("Settings screen timed out, committing")
	}

	if c.SetTime {
		if err := s.deps.Clock.Save(c.Hour, c.Minute); err != nil {
			s.logger.Warnf("Failed to set RTC to %02d:%02d: %v", c.Hour, c.Minute, err)
			s.nav.TimeSaveFailed(c.Hour, c.Minute)
		} else {
			s.logger.Infof("Clock set to %02d:%02d", c.Hour, c.Minute)
			s.reading = s.deps.Clock.Now()
		}
	}

	if !c.SettingsChanged {
		return
	}
	s.logger.Infof("Settings changed: %s", c.Settings)
	if err := s.deps.Store.Save(s.ctx, c.Settings); err != nil {
		s.logger.Errorf("Failed to persist settings: %v", err)
	}
	s.engine.ApplySettings(c.Settings.LightThreshold, time.Duration(c.Settings.TurnOnDelaySeconds)*time.Second)
	s.power.SetSleepTimeout(time.Duration(c.Settings.SleepTimeoutMinutes) * time.Minute)
}

// Run ticks until ctx is done, suspending whenever the power controller
// reaches asleep.
func (s *System) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Timing.Loop)
	defer ticker.Stop()

	wd := newWatchdog(s.logger)
	defer wd.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wd.C():
			wd.ping()
		case now := <-ticker.C:
			s.Tick(now)
			if s.power.State() == types.PowerAsleep {
				if err := s.sleep(ctx, wd); err != nil {
					return err
				}
			}
		}
	}
}

// sleep suspends until an ignition edge is seen. Every edge wakes the
// unit; the ignition level is re-read since the edge may already be gone.
// Resumes without an edge suspend again.
func (s *System) sleep(ctx context.Context, wd *watchdog) error {
	for s.power.State() == types.PowerAsleep {
		wd.ping()
		s.drainWake()

		edge := s.deps.IO.TakeWoke()
		if !edge {
			if err := s.suspend(ctx, wd); err != nil {
				return err
			}
			edge = s.deps.IO.TakeWoke()
		}

		ignition, err := s.deps.IO.RefreshIgnition()
		if err != nil {
			s.logger.Warnf("Failed to re-read ignition: %v", err)
		}
		if !edge && !ignition {
			s.logger.Debugf("Resumed without an ignition edge, suspending again")
			continue
		}

		now := time.Now()
		s.logger.Debugf("Wake check: ignition=%t edge=%t", ignition, edge)
		if s.power.Woke(now, ignition) != types.PowerAsleep {
			s.resume(now)
		}
	}
	return nil
}

func (s *System) suspend(ctx context.Context, wd *watchdog) error {
	if s.deps.Sleeper == nil {
		return s.idle(ctx, wd)
	}
	if err := s.deps.Sleeper.Suspend(ctx, s.deps.IO.WakeChan()); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Errorf("Suspend failed: %v", err)
		return s.idle(ctx, wd)
	}
	return nil
}

// drainWake drops a wake notification left over from an edge that was
// already handled by the loop.
func (s *System) drainWake() {
	select {
	case <-s.deps.IO.WakeChan():
	default:
	}
}

// idle waits for an ignition edge when suspend is unavailable.
func (s *System) idle(ctx context.Context, wd *watchdog) error {
	timer := time.NewTimer(s.cfg.Timing.MaxSuspend)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.deps.IO.WakeChan():
			return nil
		case <-timer.C:
			return nil
		case <-wd.C():
			wd.ping()
		}
	}
}

func (s *System) resume(now time.Time) {
	s.logger.Infof("Resumed")
	s.seedInputs()
	s.relaysValid = false
	s.ledsValid = false
	s.frameValid = false
	s.nextClock = now
	s.nextSensor = now
}

// Shutdown switches every output off and closes the store.
func (s *System) Shutdown() {
	s.logger.Infof("Shutting down")
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		s.logger.Debugf("sd_notify stopping: %v", err)
	}
	s.outputsOff()
	if err := s.deps.Store.Close(); err != nil {
		s.logger.Warnf("Failed to close settings store: %v", err)
	}
}
