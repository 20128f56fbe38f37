package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// KernelRTC talks to the kernel RTC character device. Time is kept in UTC
// on the chip and presented in the configured zone.
type KernelRTC struct {
	device string
	hwmon  string
	loc    *time.Location
}

func NewKernelRTC(device, hwmonGlob string, loc *time.Location) *KernelRTC {
	if loc == nil {
		loc = time.Local
	}
	return &KernelRTC{device: device, hwmon: hwmonGlob, loc: loc}
}

func (r *KernelRTC) open(flag int) (int, error) {
	fd, err := unix.Open(r.device, flag|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("failed to open %s: %w", r.device, err)
	}
	return fd, nil
}

func (r *KernelRTC) ReadTime() (time.Time, error) {
	fd, err := r.open(unix.O_RDONLY)
	if err != nil {
		return time.Time{}, err
	}
	defer unix.Close(fd)

	rt, err := unix.IoctlGetRTCTime(fd)
	if err != nil {
		return time.Time{}, fmt.Errorf("RTC_RD_TIME failed: %w", err)
	}
	return fromRTCTime(rt).In(r.loc), nil
}

// SetTime writes every field in one RTC_SET_TIME.
func (r *KernelRTC) SetTime(t time.Time) error {
	fd, err := r.open(unix.O_RDWR)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	if err := unix.IoctlSetRTCTime(fd, toRTCTime(t)); err != nil {
		return fmt.Errorf("RTC_SET_TIME failed: %w", err)
	}
	return nil
}

// Temperature reads the RTC's hwmon sensor in degrees Celsius.
func (r *KernelRTC) Temperature() (float64, error) {
	matches, err := filepath.Glob(r.hwmon)
	if err != nil || len(matches) == 0 {
		return 0, fmt.Errorf("no RTC temperature sensor at %s", r.hwmon)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return 0, fmt.Errorf("failed reading %s: %w", matches[0], err)
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("failed parsing temperature: %w", err)
	}
	return float64(milli) / 1000, nil
}

func fromRTCTime(rt *unix.RTCTime) time.Time {
	return time.Date(int(rt.Year)+1900, time.Month(rt.Mon+1), int(rt.Mday),
		int(rt.Hour), int(rt.Min), int(rt.Sec), 0, time.UTC)
}

func toRTCTime(t time.Time) *unix.RTCTime {
	t = t.UTC()
	return &unix.RTCTime{
		Sec:  int32(t.Second()),
		Min:  int32(t.Minute()),
		Hour: int32(t.Hour()),
		Mday: int32(t.Day()),
		Mon:  int32(t.Month()) - 1,
		Year: int32(t.Year()) - 1900,
		Wday: int32(t.Weekday()),
		Yday: int32(t.YearDay()) - 1,
	}
}
