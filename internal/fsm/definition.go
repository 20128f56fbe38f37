package fsm

import (
	"github.com/librescoot/librefsm"
)

// NewDefinition creates the power FSM definition.
// The actions parameter provides the implementation for state entry/exit
// and guards. The countdown itself is tracked by the caller against its
// own clock and delivered as EvCountdownElapsed.
func NewDefinition(actions Actions) *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateAwake,
			librefsm.WithOnEnter(actions.EnterAwake),
		).
		State(StateShutdownPending,
			librefsm.WithOnEnter(actions.EnterShutdownPending),
			librefsm.WithOnExit(actions.ExitShutdownPending),
		).
		State(StateAsleep,
			librefsm.WithOnEnter(actions.EnterAsleep),
		).

		// === Transitions ===

		// From Awake
		Transition(StateAwake, EvIgnitionOff, StateShutdownPending).

		// From ShutdownPending
		Transition(StateShutdownPending, EvIgnitionOn, StateAwake).
		Transition(StateShutdownPending, EvCountdownElapsed, StateAsleep,
			librefsm.WithGuard(actions.CanSleep),
		).

		// From Asleep - any edge wakes, the caller re-evaluates the level
		Transition(StateAsleep, EvIgnitionOn, StateAwake).
		Transition(StateAsleep, EvWake, StateAwake).
		Initial(StateAwake)
}
