package fsm

import "github.com/librescoot/librefsm"

// Actions defines the interface for power state machine actions.
// power.Controller implements this interface to handle state entry/exit
// and provide guards for conditional transitions.
type Actions interface {
	// State entry actions
	EnterAwake(c *librefsm.Context) error
	EnterShutdownPending(c *librefsm.Context) error
	EnterAsleep(c *librefsm.Context) error

	// State exit actions
	ExitShutdownPending(c *librefsm.Context) error

	// Guards for conditional transitions
	CanSleep(c *librefsm.Context) bool // Ignition still off
}
