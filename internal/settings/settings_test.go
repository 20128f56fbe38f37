package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"autolight-service/internal/types"
)

func TestClampOutOfRange(t *testing.T) {
	in := Settings{
		SleepTimeoutMinutes: 0,
		TurnOnDelaySeconds:  500,
		LightThreshold:      -4,
		Color1:              99,
		Color2:              2,
	}
	out, changed := in.Clamp()
	if !changed {
		t.Fatal("expected clamp to report a change")
	}
	want := Settings{
		SleepTimeoutMinutes: SleepTimeoutBounds.Min,
		TurnOnDelaySeconds:  TurnOnDelayBounds.Max,
		LightThreshold:      LightThresholdBounds.Min,
		Color1:              ColorBounds.Max,
		Color2:              2,
	}
	if out != want {
		t.Errorf("got %+v, want %+v", out, want)
	}
}

func TestClampSnapsThresholdToStep(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{150, 150},
		{155, 160},
		{154, 150},
		{989, 990},
		{11, 10},
	}
	for _, tt := range tests {
		out, changed := Settings{
			SleepTimeoutMinutes: 10,
			LightThreshold:      tt.in,
		}.Clamp()
		if out.LightThreshold != tt.want {
			t.Errorf("threshold %d: got %d, want %d", tt.in, out.LightThreshold, tt.want)
		}
		if changed != (tt.in != tt.want) {
			t.Errorf("threshold %d: changed=%v", tt.in, changed)
		}
	}

	// Once snapped, the up button stays on the grid
	out, _ := Settings{SleepTimeoutMinutes: 10, LightThreshold: 155}.Clamp()
	if got := LightThresholdBounds.Increment(out.LightThreshold, false); got != 170 {
		t.Errorf("expected 170 after one step, got %d", got)
	}
}

func TestDefaultsAreInRange(t *testing.T) {
	if _, changed := Defaults().Clamp(); changed {
		t.Error("defaults should already be in range")
	}
}

func TestIncrementClampAndWrap(t *testing.T) {
	tests := []struct {
		name string
		b    Bounds
		v    int
		wrap bool
		want int
	}{
		{"minute clamps at 59", MinuteBounds, 59, false, 59},
		{"minute wraps to 0", MinuteBounds, 59, true, 0},
		{"hour steps", HourBounds, 7, false, 8},
		{"threshold steps by ten", LightThresholdBounds, 150, false, 160},
		{"threshold clamps", LightThresholdBounds, 985, false, 990},
		{"color wraps", ColorBounds, ColorBounds.Max, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.Increment(tt.v, tt.wrap); got != tt.want {
				t.Errorf("Increment(%d, %v) = %d, want %d", tt.v, tt.wrap, got, tt.want)
			}
		})
	}
}

func TestPaletteColorClamps(t *testing.T) {
	if PaletteColor(-1) != Palette[0] {
		t.Error("negative index should map to first color")
	}
	if PaletteColor(1000) != Palette[len(Palette)-1] {
		t.Error("large index should map to last color")
	}
}

func TestBoltStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("OpenBoltStore: %v", err)
	}
	defer store.Close()

	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	if _, err := store.LoadMode(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for mode, got %v", err)
	}

	s := Settings{SleepTimeoutMinutes: 3, TurnOnDelaySeconds: 7, LightThreshold: 300, Color1: 4, Color2: 5}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.SaveMode(ctx, types.ModeSensorDriven); err != nil {
		t.Fatalf("SaveMode: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != s {
		t.Errorf("Load = %+v, want %+v", got, s)
	}
	mode, err := store.LoadMode(ctx)
	if err != nil {
		t.Fatalf("LoadMode: %v", err)
	}
	if mode != types.ModeSensorDriven {
		t.Errorf("LoadMode = %s", mode)
	}
}
