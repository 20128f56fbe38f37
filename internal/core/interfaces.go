package core

import (
	"context"

	"autolight-service/internal/clock"
	"autolight-service/internal/display"
	"autolight-service/internal/settings"
	"autolight-service/internal/types"
)

// HardwareIO defines the GPIO operations needed by System
type HardwareIO interface {
	ReadDigitalInput(name string) (bool, error)
	WriteDigitalOutput(name string, value bool) error

	// Ignition state recorded by the edge handler
	Ignition() bool
	TakeWoke() bool
	RefreshIgnition() (bool, error)
	WakeChan() <-chan struct{}
}

type LightSensor interface {
	ReadLight() (int, error)
}

type Indicators interface {
	SetColors(colors []settings.Color) error
}

type Display interface {
	Show(f display.Frame) error
}

// Clock is satisfied by *clock.Clock
type Clock interface {
	Now() clock.Reading
	Save(hour, minute int) error
}

// Publisher mirrors state to Redis. Optional.
type Publisher interface {
	PublishPowerState(ctx context.Context, s types.PowerState) error
	PublishMode(ctx context.Context, m types.AutoLightMode) error
	PublishRelays(ctx context.Context, r types.RelayState) error
}

// Sleeper puts the board into low-power suspend and returns after resume.
// wake fires on any ignition edge.
type Sleeper interface {
	Suspend(ctx context.Context, wake <-chan struct{}) error
}
