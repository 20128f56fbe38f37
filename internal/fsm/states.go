package fsm

import "github.com/librescoot/librefsm"

// Power states
const (
	StateAwake           librefsm.StateID = "awake"
	StateShutdownPending librefsm.StateID = "shutdown-pending"
	StateAsleep          librefsm.StateID = "asleep"
)

// Power events
const (
	// Ignition line edges, as seen by the main loop
	EvIgnitionOff librefsm.EventID = "ignition-off"
	EvIgnitionOn  librefsm.EventID = "ignition-on"

	// The shutdown countdown deadline passed
	EvCountdownElapsed librefsm.EventID = "countdown-elapsed"

	// The suspend call returned; the ignition level decides what happens
	EvWake librefsm.EventID = "wake"
)
