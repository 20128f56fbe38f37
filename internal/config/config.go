// Package config loads the service configuration: built-in defaults, then
// an optional YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"autolight-service/internal/hardware"
)

const (
	StoreRedis = "redis"
	StoreBolt  = "bolt"
)

type Timing struct {
	ButtonDebounce time.Duration `yaml:"button_debounce"`
	EngineDebounce time.Duration `yaml:"engine_debounce"`
	Loop           time.Duration `yaml:"loop"`
	SensorPoll     time.Duration `yaml:"sensor_poll"`
	Inactivity     time.Duration `yaml:"inactivity"`
	TempTimeout    time.Duration `yaml:"temp_timeout"`
	Blink          time.Duration `yaml:"blink"`
	RepeatDelay    time.Duration `yaml:"repeat_delay"`
	RepeatInterval time.Duration `yaml:"repeat_interval"`
	StuckWindow    time.Duration `yaml:"stuck_window"`
	LowBeamGrace   time.Duration `yaml:"low_beam_grace"`
	MaxSuspend     time.Duration `yaml:"max_suspend"`
}

type LightSensor struct {
	Device  string `yaml:"device"`
	Channel int    `yaml:"channel"`
	Max     int    `yaml:"max"`
	Band    int    `yaml:"hysteresis_band"`
}

type RTC struct {
	Device   string `yaml:"device"`
	Hwmon    string `yaml:"hwmon"`
	Timezone string `yaml:"timezone"`
}

type Leds struct {
	SPIPort string `yaml:"spi_port"`
	Count   int    `yaml:"count"`
}

type Display struct {
	ClkPin string `yaml:"clk_pin"`
	DioPin string `yaml:"dio_pin"`
}

type Config struct {
	Pins        map[string]hardware.Pin `yaml:"pins"`
	Timing      Timing                  `yaml:"timing"`
	LightSensor LightSensor             `yaml:"light_sensor"`
	RTC         RTC                     `yaml:"rtc"`
	Leds        Leds                    `yaml:"leds"`
	Display     Display                 `yaml:"display"`

	Store     string `yaml:"store"`
	RedisAddr string `yaml:"redis_addr"`
	BoltPath  string `yaml:"bolt_path"`

	// Wrap makes the up button wrap from max back to min while editing.
	WrapSettings bool `yaml:"wrap_settings"`
}

func Default() Config {
	pins := make(map[string]hardware.Pin, len(hardware.DefaultPins))
	for name, p := range hardware.DefaultPins {
		pins[name] = p
	}
	return Config{
		Pins: pins,
		Timing: Timing{
			ButtonDebounce: 30 * time.Millisecond,
			EngineDebounce: 50 * time.Millisecond,
			Loop:           10 * time.Millisecond,
			SensorPoll:     time.Second,
			Inactivity:     10 * time.Second,
			TempTimeout:    5 * time.Second,
			Blink:          500 * time.Millisecond,
			RepeatDelay:    600 * time.Millisecond,
			RepeatInterval: 150 * time.Millisecond,
			StuckWindow:    30 * time.Second,
			LowBeamGrace:   30 * time.Second,
			MaxSuspend:     time.Minute,
		},
		LightSensor: LightSensor{
			Device:  hardware.AdcDevice,
			Channel: hardware.AdcChannel,
			Max:     1023,
			Band:    20,
		},
		RTC: RTC{
			Device: hardware.RtcDevice,
			Hwmon:  hardware.RtcHwmon,
		},
		Leds: Leds{
			Count: hardware.IndicatorLedCount,
		},
		Display: Display{
			ClkPin: hardware.DisplayClkPin,
			DioPin: hardware.DisplayDioPin,
		},
		Store:     StoreRedis,
		RedisAddr: "localhost:6379",
		BoltPath:  "/var/lib/autolight/settings.db",
	}
}

// Load builds the configuration. path may be empty, in which case
// AUTOLIGHT_CONFIG is consulted; no file at all means defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("AUTOLIGHT_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.RedisAddr = getenvDefault("AUTOLIGHT_REDIS_ADDR", cfg.RedisAddr)
	cfg.Store = getenvDefault("AUTOLIGHT_STORE", cfg.Store)
	cfg.BoltPath = getenvDefault("AUTOLIGHT_BOLT_PATH", cfg.BoltPath)

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("config: redis_addr required for redis store")
		}
	case StoreBolt:
		if c.BoltPath == "" {
			return errors.New("config: bolt_path required for bolt store")
		}
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}

	required := append([]string{hardware.LineIgnition}, hardware.InputNames...)
	required = append(required, hardware.OutputNames...)
	for _, name := range required {
		if _, ok := c.Pins[name]; !ok {
			return fmt.Errorf("config: pin %s not mapped", name)
		}
	}

	if c.Timing.Loop <= 0 || c.Timing.SensorPoll <= 0 {
		return errors.New("config: loop and sensor_poll must be positive")
	}
	if c.LightSensor.Band < 0 {
		return errors.New("config: hysteresis_band must not be negative")
	}
	if c.Timing.StuckWindow <= c.Timing.RepeatDelay {
		return errors.New("config: stuck_window must exceed repeat_delay")
	}
	return nil
}

// Location resolves the configured display time zone.
func (c Config) Location() (*time.Location, error) {
	if c.RTC.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.RTC.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone: %w", err)
	}
	return loc, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
