// Package power owns the unit's own power lifecycle: the shutdown
// countdown after ignition-off and the decision to suspend.
package power

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/librescoot/librefsm"

	"autolight-service/internal/fsm"
	"autolight-service/internal/logger"
	"autolight-service/internal/types"
)

const DefaultSleepTimeout = 10 * time.Minute

// Hooks are called from FSM actions. They must not call back into the
// Controller.
type Hooks struct {
	// OnSleep runs on entry to asleep, before the state is reported.
	// Relays, LEDs and the display are switched off here.
	OnSleep func()
	// OnStateChange is called from the entry action of every new state.
	OnStateChange func(types.PowerState)
}

type Controller struct {
	logger  *logger.Logger
	hooks   Hooks
	machine *librefsm.Machine

	mu       sync.Mutex
	state    types.PowerState
	timeout  time.Duration
	now      time.Time
	ignition bool
	engine   bool
	deadline time.Time
}

var _ fsm.Actions = (*Controller)(nil)

func NewController(l *logger.Logger, timeout time.Duration, hooks Hooks) *Controller {
	if timeout <= 0 {
		timeout = DefaultSleepTimeout
	}
	return &Controller{
		logger:  l,
		hooks:   hooks,
		state:   types.PowerAwake,
		timeout: timeout,
	}
}

// Start builds and starts the machine in awake. If the ignition is
// already off at boot the countdown starts immediately.
func (c *Controller) Start(ctx context.Context, now time.Time, ignition, engine bool) error {
	def := fsm.NewDefinition(c)
	machine, err := def.Build()
	if err != nil {
		return fmt.Errorf("build power fsm: %w", err)
	}
	c.machine = machine

	c.machine.OnStateChange(func(from, to librefsm.StateID) {
		c.logger.Infof("Power transition: %s -> %s", from, to)
	})

	if err := c.machine.Start(ctx); err != nil {
		return fmt.Errorf("start power fsm: %w", err)
	}

	c.mu.Lock()
	c.now = now
	c.ignition = ignition
	c.engine = engine
	c.mu.Unlock()

	c.logger.Infof("Power FSM started (ignition=%t, engine=%t, timeout=%s)", ignition, engine, c.timeout)

	if !ignition {
		c.send(fsm.EvIgnitionOff)
	}
	return nil
}

// State returns the current power state.
func (c *Controller) State() types.PowerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Deadline returns the countdown deadline. ok is false outside
// shutdown-pending.
func (c *Controller) Deadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline, c.state == types.PowerShutdownPending
}

// SetSleepTimeout applies to the next countdown. A countdown already
// running keeps its deadline.
func (c *Controller) SetSleepTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// EngineRunning is the engine level as the rest of the system should see
// it: a running engine with the ignition off is stale.
func (c *Controller) EngineRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine && c.ignition
}

// Update feeds the current input levels once per loop iteration. Ignition
// edges are derived from the previous level; the result reports whether
// one was.
func (c *Controller) Update(now time.Time, ignition, engine bool) bool {
	c.mu.Lock()
	c.now = now
	c.engine = engine
	changed := ignition != c.ignition
	c.ignition = ignition
	state := c.state
	deadline := c.deadline
	c.mu.Unlock()

	if changed {
		if ignition {
			c.logger.Infof("Ignition on")
			if state != types.PowerAwake {
				c.send(fsm.EvIgnitionOn)
			}
		} else {
			c.logger.Infof("Ignition off")
			if state == types.PowerAwake {
				c.send(fsm.EvIgnitionOff)
			}
		}
		return true
	}

	if state == types.PowerShutdownPending && !now.Before(deadline) {
		c.send(fsm.EvCountdownElapsed)
	}
	return false
}

// Pulse handles an ignition edge that came and went between two samples.
// During the countdown it counts as ignition-on, so the countdown restarts
// from now.
func (c *Controller) Pulse(now time.Time) {
	c.mu.Lock()
	c.now = now
	state, ignition := c.state, c.ignition
	c.mu.Unlock()

	if state != types.PowerShutdownPending {
		return
	}
	c.logger.Infof("Short ignition pulse during countdown")
	c.send(fsm.EvIgnitionOn)
	if !ignition {
		c.send(fsm.EvIgnitionOff)
	}
}

// Woke is called after an ignition edge ended a suspend. The unit always
// wakes; the ignition level is re-read by the caller since the edge may
// have been too short to see, and a low level restarts the countdown.
func (c *Controller) Woke(now time.Time, ignition bool) types.PowerState {
	c.mu.Lock()
	c.now = now
	c.ignition = ignition
	state := c.state
	c.mu.Unlock()

	if state == types.PowerAsleep {
		c.send(fsm.EvWake)
		if !ignition {
			c.send(fsm.EvIgnitionOff)
		}
	}
	return c.State()
}

func (c *Controller) send(ev librefsm.EventID) {
	if err := c.machine.SendSync(librefsm.Event{ID: ev}); err != nil {
		c.logger.Debugf("Event %s not handled: %v", ev, err)
	}
}

func (c *Controller) setState(s types.PowerState) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()

	if changed && c.hooks.OnStateChange != nil {
		c.hooks.OnStateChange(s)
	}
}

// === State Entry Actions ===

func (c *Controller) EnterAwake(ctx *librefsm.Context) error {
	c.logger.Debugf("FSM: EnterAwake from %s", ctx.FromState)
	c.setState(types.PowerAwake)
	return nil
}

func (c *Controller) EnterShutdownPending(ctx *librefsm.Context) error {
	c.mu.Lock()
	c.deadline = c.now.Add(c.timeout)
	now, deadline := c.now, c.deadline
	c.mu.Unlock()
	c.setState(types.PowerShutdownPending)

	c.logger.Infof("Shutdown countdown started, sleeping %s", humanize.RelTime(deadline, now, "ago", "from now"))
	return nil
}

func (c *Controller) ExitShutdownPending(ctx *librefsm.Context) error {
	c.mu.Lock()
	c.deadline = time.Time{}
	c.mu.Unlock()
	c.logger.Debugf("Shutdown countdown cleared")
	return nil
}

func (c *Controller) EnterAsleep(ctx *librefsm.Context) error {
	c.logger.Infof("Entering sleep")
	if c.hooks.OnSleep != nil {
		c.hooks.OnSleep()
	}
	c.setState(types.PowerAsleep)
	return nil
}

// === Guards ===

func (c *Controller) CanSleep(ctx *librefsm.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ignition {
		return false
	}
	if c.engine {
		c.logger.Debugf("Engine-running seen with ignition off, ignoring")
	}
	return true
}
