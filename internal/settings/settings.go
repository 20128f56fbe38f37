// Package settings holds the persisted scalar settings block and its
// bounds.
package settings

import (
	"context"
	"errors"
	"fmt"

	"autolight-service/internal/types"
)

// ErrNotFound is returned by a Store that has never been written.
var ErrNotFound = errors.New("settings not found")

// Settings is the persisted block. Colors are palette indices.
type Settings struct {
	SleepTimeoutMinutes int `json:"sleep_timeout"`
	TurnOnDelaySeconds  int `json:"turn_on_delay"`
	LightThreshold      int `json:"light_threshold"`
	Color1              int `json:"color_1"`
	Color2              int `json:"color_2"`
}

// Bounds is an inclusive range with the increment used by the up button.
type Bounds struct {
	Min  int
	Max  int
	Step int
}

var (
	SleepTimeoutBounds   = Bounds{Min: 1, Max: 60, Step: 1}
	TurnOnDelayBounds    = Bounds{Min: 0, Max: 60, Step: 1}
	LightThresholdBounds = Bounds{Min: 10, Max: 990, Step: 10}
	ColorBounds          = Bounds{Min: 0, Max: len(Palette) - 1, Step: 1}
	HourBounds           = Bounds{Min: 0, Max: 23, Step: 1}
	MinuteBounds         = Bounds{Min: 0, Max: 59, Step: 1}
)

// Clamp returns v limited to b and rounded to the nearest step above Min.
func (b Bounds) Clamp(v int) int {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	if b.Step > 1 {
		v = b.Min + (v-b.Min+b.Step/2)/b.Step*b.Step
		if v > b.Max {
			v -= b.Step
		}
	}
	return v
}

// Increment steps v once. With wrap false the value stops at Max.
func (b Bounds) Increment(v int, wrap bool) int {
	step := b.Step
	if step <= 0 {
		step = 1
	}
	next := v + step
	if next > b.Max {
		if wrap {
			return b.Min
		}
		return b.Max
	}
	return b.Clamp(next)
}

func Defaults() Settings {
	return Settings{
		SleepTimeoutMinutes: 10,
		TurnOnDelaySeconds:  5,
		LightThreshold:      150,
		Color1:              1,
		Color2:              3,
	}
}

// Clamp brings every field into range and reports whether anything had to
// change. Persisted values are never rejected.
func (s Settings) Clamp() (Settings, bool) {
	out := Settings{
		SleepTimeoutMinutes: SleepTimeoutBounds.Clamp(s.SleepTimeoutMinutes),
		TurnOnDelaySeconds:  TurnOnDelayBounds.Clamp(s.TurnOnDelaySeconds),
		LightThreshold:      LightThresholdBounds.Clamp(s.LightThreshold),
		Color1:              ColorBounds.Clamp(s.Color1),
		Color2:              ColorBounds.Clamp(s.Color2),
	}
	return out, out != s
}

func (s Settings) String() string {
	return fmt.Sprintf("timeout=%dm delay=%ds threshold=%d colors=%d/%d",
		s.SleepTimeoutMinutes, s.TurnOnDelaySeconds, s.LightThreshold, s.Color1, s.Color2)
}

// Store persists the settings block and the selected auto-light mode.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
	LoadMode(ctx context.Context) (types.AutoLightMode, error)
	SaveMode(ctx context.Context, m types.AutoLightMode) error
	Close() error
}
