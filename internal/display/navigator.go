// Package display multiplexes the four-digit display between the clock,
// the temperature and the settings screens.
package display

import (
	"time"

	"autolight-service/internal/clock"
	"autolight-service/internal/input"
	"autolight-service/internal/settings"
	"autolight-service/internal/types"
)

// Config holds the navigator timings.
type Config struct {
	Inactivity     time.Duration // set-* screens fall back to the clock
	TempTimeout    time.Duration // show-temp falls back to the clock
	BlinkPeriod    time.Duration // edited time field toggles this often
	RepeatDelay    time.Duration // hold time before auto-repeat starts
	RepeatInterval time.Duration
	StuckWindow    time.Duration // holds longer than this stop repeating
	Wrap           bool          // wrap at max instead of clamping
}

func DefaultConfig() Config {
	return Config{
		Inactivity:     10 * time.Second,
		TempTimeout:    5 * time.Second,
		BlinkPeriod:    500 * time.Millisecond,
		RepeatDelay:    600 * time.Millisecond,
		RepeatInterval: 150 * time.Millisecond,
		StuckWindow:    30 * time.Second,
	}
}

// Commit carries the edits to write out when leaving the settings screens.
type Commit struct {
	Settings        settings.Settings
	SettingsChanged bool
	SetTime         bool
	Hour            int
	Minute          int
	Inactivity      bool
}

type Navigator struct {
	cfg  Config
	mode types.DisplayMode

	committed settings.Settings
	pending   settings.Settings

	hour, minute int
	timeDirty    bool

	lastInput  time.Time
	tempSince  time.Time
	blinkStart time.Time

	upHeld     bool
	upSince    time.Time
	lastRepeat time.Time
}

func NewNavigator(cfg Config, s settings.Settings) *Navigator {
	return &Navigator{
		cfg:       cfg,
		mode:      types.DisplayShowTime,
		committed: s,
		pending:   s,
	}
}

func (n *Navigator) Mode() types.DisplayMode {
	return n.mode
}

// Settings returns the committed settings.
func (n *Navigator) Settings() settings.Settings {
	return n.committed
}

// Pending returns the values being edited.
func (n *Navigator) Pending() (settings.Settings, int, int) {
	return n.pending, n.hour, n.minute
}

// HandleEvent consumes a debounced button edge. r is the latest clock
// reading and seeds the hour/minute editor. A non-nil Commit means the
// settings sequence was completed.
func (n *Navigator) HandleEvent(ev input.Event, r clock.Reading) *Commit {
	if ev.Line == input.LineUp && ev.Edge == input.EdgeRelease {
		n.upHeld = false
		return nil
	}
	if ev.Edge != input.EdgePress {
		return nil
	}

	n.lastInput = ev.Time

	switch ev.Line {
	case input.LineSet:
		return n.advance(ev.Time, r)
	case input.LineUp:
		n.pressUp(ev.Time)
	}
	return nil
}

func (n *Navigator) advance(now time.Time, r clock.Reading) *Commit {
	n.blinkStart = now
	switch n.mode {
	case types.DisplayShowTime, types.DisplayShowTemp:
		n.pending = n.committed
		if !n.timeDirty {
			n.hour, n.minute = 0, 0
			if r.Valid {
				n.hour, n.minute = r.Hour, r.Minute
			}
		}
		n.mode = types.DisplaySetHour
		return nil
	}

	seq := types.SettingsSequence
	for i, m := range seq {
		if m != n.mode {
			continue
		}
		if i == len(seq)-1 {
			return n.commit(false)
		}
		n.mode = seq[i+1]
		return nil
	}
	return nil
}

func (n *Navigator) pressUp(now time.Time) {
	switch n.mode {
	case types.DisplayShowTime:
		n.mode = types.DisplayShowTemp
		n.tempSince = now
	case types.DisplayShowTemp:
		n.mode = types.DisplayShowTime
	default:
		n.upHeld = true
		n.upSince = now
		n.lastRepeat = now
		n.increment(now)
	}
}

func (n *Navigator) increment(now time.Time) {
	n.blinkStart = now
	wrap := n.cfg.Wrap
	switch n.mode {
	case types.DisplaySetHour:
		n.hour = settings.HourBounds.Increment(n.hour, wrap)
		n.timeDirty = true
	case types.DisplaySetMinute:
		n.minute = settings.MinuteBounds.Increment(n.minute, wrap)
		n.timeDirty = true
	case types.DisplaySetTimeout:
		n.pending.SleepTimeoutMinutes = settings.SleepTimeoutBounds.Increment(n.pending.SleepTimeoutMinutes, wrap)
	case types.DisplaySetTurnOnDelay:
		n.pending.TurnOnDelaySeconds = settings.TurnOnDelayBounds.Increment(n.pending.TurnOnDelaySeconds, wrap)
	case types.DisplaySetLightThreshold:
		n.pending.LightThreshold = settings.LightThresholdBounds.Increment(n.pending.LightThreshold, wrap)
	case types.DisplaySetColor1:
		n.pending.Color1 = settings.ColorBounds.Increment(n.pending.Color1, wrap)
	case types.DisplaySetColor2:
		n.pending.Color2 = settings.ColorBounds.Increment(n.pending.Color2, wrap)
	}
}

// Tick runs the auto-repeat and the auto-return timers. It returns a
// Commit when an idle settings screen times out.
func (n *Navigator) Tick(now time.Time) *Commit {
	switch {
	case n.mode.IsSetting():
		if n.upHeld {
			held := now.Sub(n.upSince)
			if held >= n.cfg.RepeatDelay && held < n.cfg.StuckWindow &&
				now.Sub(n.lastRepeat) >= n.cfg.RepeatInterval {
				n.lastRepeat = now
				n.lastInput = now
				n.increment(now)
			}
		}
		if now.Sub(n.lastInput) >= n.cfg.Inactivity {
			return n.commit(true)
		}
	case n.mode == types.DisplayShowTemp:
		if now.Sub(n.tempSince) >= n.cfg.TempTimeout {
			n.mode = types.DisplayShowTime
		}
	}
	return nil
}

func (n *Navigator) commit(inactivity bool) *Commit {
	pending, _ := n.pending.Clamp()
	c := &Commit{
		Settings:        pending,
		SettingsChanged: pending != n.committed,
		SetTime:         n.timeDirty,
		Hour:            n.hour,
		Minute:          n.minute,
		Inactivity:      inactivity,
	}
	n.committed = pending
	n.pending = pending
	n.timeDirty = false
	n.upHeld = false
	n.mode = types.DisplayShowTime
	return c
}

// TimeSaveFailed keeps an edited time that the RTC refused so the next
// settings session starts from it and the next commit retries the write.
func (n *Navigator) TimeSaveFailed(hour, minute int) {
	n.hour, n.minute = hour, minute
	n.timeDirty = true
}

// blinkVisible reports whether the edited field is drawn at now. It is
// always visible right after a button press.
func (n *Navigator) blinkVisible(now time.Time) bool {
	if n.cfg.BlinkPeriod <= 0 {
		return true
	}
	phase := now.Sub(n.blinkStart) / n.cfg.BlinkPeriod
	return phase%2 == 0
}
