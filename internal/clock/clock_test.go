package clock

import (
	"errors"
	"testing"
	"time"
)

type mockRTC struct {
	now     time.Time
	readErr error
	setErr  error
	temp    float64
	tempErr error
	sets    []time.Time
}

func (m *mockRTC) ReadTime() (time.Time, error)  { return m.now, m.readErr }
func (m *mockRTC) Temperature() (float64, error) { return m.temp, m.tempErr }
func (m *mockRTC) SetTime(t time.Time) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets = append(m.sets, t)
	m.now = t
	return nil
}

func TestNowValid(t *testing.T) {
	rtc := &mockRTC{now: time.Date(2026, 3, 4, 21, 7, 42, 0, time.UTC), temp: 23.5}
	r := New(rtc).Now()
	if !r.Valid || r.Hour != 21 || r.Minute != 7 || r.Second != 42 {
		t.Errorf("unexpected reading %+v", r)
	}
	if !r.TempValid || r.Temperature != 23.5 {
		t.Errorf("unexpected temperature %+v", r)
	}
}

func TestNowSentinelOnUnsetClock(t *testing.T) {
	tests := []struct {
		name string
		rtc  *mockRTC
	}{
		{"read error", &mockRTC{readErr: ErrUnset}},
		{"power-on default date", &mockRTC{now: time.Date(2000, 1, 1, 0, 0, 5, 0, time.UTC)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.rtc).Now()
			if r.Valid {
				t.Errorf("expected invalid reading, got %+v", r)
			}
			if r.Hour != 0 || r.Minute != 0 {
				t.Errorf("invalid reading should not carry a time: %+v", r)
			}
		})
	}
}

func TestNowTemperatureFailure(t *testing.T) {
	rtc := &mockRTC{now: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), tempErr: errors.New("no hwmon")}
	r := New(rtc).Now()
	if !r.Valid || r.TempValid {
		t.Errorf("unexpected reading %+v", r)
	}
}

func TestSaveWritesOnce(t *testing.T) {
	rtc := &mockRTC{now: time.Date(2026, 3, 4, 10, 30, 12, 0, time.UTC)}
	if err := New(rtc).Save(22, 15); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(rtc.sets) != 1 {
		t.Fatalf("expected one RTC write, got %d", len(rtc.sets))
	}
	want := time.Date(2026, 3, 4, 22, 15, 0, 0, time.UTC)
	if !rtc.sets[0].Equal(want) {
		t.Errorf("wrote %v, want %v", rtc.sets[0], want)
	}
}

func TestSaveOnUnsetClockMakesItValid(t *testing.T) {
	rtc := &mockRTC{now: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(rtc)
	if err := c.Save(6, 45); err != nil {
		t.Fatalf("Save: %v", err)
	}
	r := c.Now()
	if !r.Valid || r.Hour != 6 || r.Minute != 45 {
		t.Errorf("clock should read as set, got %+v", r)
	}
}

func TestSaveRejectsOutOfRange(t *testing.T) {
	rtc := &mockRTC{now: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)}
	if err := New(rtc).Save(24, 0); err == nil {
		t.Error("expected error for hour 24")
	}
	if err := New(rtc).Save(1, 60); err == nil {
		t.Error("expected error for minute 60")
	}
	if len(rtc.sets) != 0 {
		t.Error("invalid time must not reach the RTC")
	}
}

func TestSavePropagatesWriteError(t *testing.T) {
	rtc := &mockRTC{now: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), setErr: errors.New("i2c nak")}
	if err := New(rtc).Save(1, 2); err == nil {
		t.Error("expected write error")
	}
}
