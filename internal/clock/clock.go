// Package clock is a thin façade over the battery-backed RTC.
package clock

import (
	"errors"
	"fmt"
	"time"

	"autolight-service/internal/settings"
)

// ErrUnset means the RTC has lost its time (e.g. the backup cell died).
var ErrUnset = errors.New("rtc time not set")

// RTC is the peripheral contract. SetTime must update every field in one
// write.
type RTC interface {
	ReadTime() (time.Time, error)
	SetTime(t time.Time) error
	Temperature() (float64, error)
}

// Reading is what the display shows. Valid is false when the RTC could not
// report a trustworthy time; the other time fields are then zero.
type Reading struct {
	Hour        int
	Minute      int
	Second      int
	Temperature float64
	Valid       bool
	TempValid   bool
}

// Earliest RTC time accepted as set. DS3231-class parts come back as
// 2000-01-01 after losing power.
var minValidTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type Clock struct {
	rtc RTC
}

func New(rtc RTC) *Clock {
	return &Clock{rtc: rtc}
}

// Now reads through to the RTC.
func (c *Clock) Now() Reading {
	var r Reading

	t, err := c.rtc.ReadTime()
	if err == nil && !t.Before(minValidTime) {
		r.Hour, r.Minute, r.Second = t.Hour(), t.Minute(), t.Second()
		r.Valid = true
	}

	if temp, err := c.rtc.Temperature(); err == nil {
		r.Temperature = temp
		r.TempValid = true
	}
	return r
}

// Save writes hour and minute in a single RTC update with seconds reset.
// The date is kept when the RTC still has one, otherwise a fixed valid
// date is used so the clock reads as set afterwards.
func (c *Clock) Save(hour, minute int) error {
	if settings.HourBounds.Clamp(hour) != hour || settings.MinuteBounds.Clamp(minute) != minute {
		return fmt.Errorf("invalid time %02d:%02d", hour, minute)
	}

	base, err := c.rtc.ReadTime()
	if err != nil || base.Before(minValidTime) {
		base = minValidTime
	}
	t := time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, base.Location())

	if err := c.rtc.SetTime(t); err != nil {
		return fmt.Errorf("set rtc time: %w", err)
	}
	return nil
}
