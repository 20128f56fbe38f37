package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"autolight-service/internal/clock"
	"autolight-service/internal/config"
	"autolight-service/internal/core"
	"autolight-service/internal/hardware"
	"autolight-service/internal/logger"
	"autolight-service/internal/messaging"
	"autolight-service/internal/settings"
)

func main() {
	// Service log level
	var serviceLogLevel string
	flag.StringVar(&serviceLogLevel, "log", "info", "Service log level (none, error, warn, info, debug or 0-4)")

	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to YAML config (default $AUTOLIGHT_CONFIG)")

	flag.Parse()

	// Create standard logger with appropriate format
	var stdLogger *log.Logger
	if os.Getenv("INVOCATION_ID") != "" {
		// Running under systemd, use minimal format
		stdLogger = log.New(os.Stdout, "", 0)
	} else {
		// Running interactively, use timestamps
		stdLogger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds|log.Lmsgprefix)
	}

	// Create leveled logger
	l := logger.NewLogger(stdLogger, logger.ParseLevel(serviceLogLevel))

	l.Infof("Starting autolight service...")

	cfg, err := config.Load(configPath)
	if err != nil {
		l.Fatalf("Failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		l.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	io := hardware.NewLinuxHardwareIO(l.WithTag("gpio"), cfg.Pins)
	if err := io.Initialize(); err != nil {
		l.Fatalf("Failed to initialize GPIO: %v", err)
	}
	defer io.Cleanup()

	leds := hardware.NewStripLeds(l.WithTag("leds"), cfg.Leds.Count)
	if err := leds.Init(cfg.Leds.SPIPort); err != nil {
		l.Fatalf("Failed to initialize LEDs: %v", err)
	}
	defer leds.Cleanup()

	disp := hardware.NewSegmentDisplay(l.WithTag("display"))
	if err := disp.Init(cfg.Display.ClkPin, cfg.Display.DioPin); err != nil {
		l.Fatalf("Failed to initialize display: %v", err)
	}
	defer disp.Cleanup()

	deps := core.Deps{
		IO:      io,
		Light:   hardware.NewLightSensor(cfg.LightSensor.Device, cfg.LightSensor.Channel, cfg.LightSensor.Max),
		Leds:    leds,
		Display: disp,
		Clock:   clock.New(hardware.NewKernelRTC(cfg.RTC.Device, cfg.RTC.Hwmon, loc)),
	}

	switch cfg.Store {
	case config.StoreBolt:
		store, err := settings.OpenBoltStore(cfg.BoltPath)
		if err != nil {
			l.Fatalf("Failed to open settings store: %v", err)
		}
		deps.Store = store
	default:
		redis := messaging.NewRedisClient(cfg.RedisAddr, l.WithTag("redis"))
		if err := redis.Connect(ctx); err != nil {
			l.Fatalf("Failed to connect to Redis: %v", err)
		}
		deps.Store = redis
		deps.Publisher = redis
	}

	sleeper, err := hardware.NewLogindSleeper(l.WithTag("sleep"), cfg.Timing.MaxSuspend)
	if err != nil {
		l.Warnf("Suspend unavailable, idling instead: %v", err)
	} else {
		deps.Sleeper = sleeper
		defer sleeper.Close()
	}

	system := core.NewSystem(l.WithTag("core"), cfg, deps)
	if err := system.Start(ctx, time.Now()); err != nil {
		l.Fatalf("Failed to start system: %v", err)
	}

	l.Infof("System started successfully")
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		l.Warnf("sd_notify ready failed: %v", err)
	}

	if err := system.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Errorf("Main loop stopped: %v", err)
	}

	l.Infof("Received signal, shutting down...")
	system.Shutdown()
	l.Infof("Shutdown complete")
}
