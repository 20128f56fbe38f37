package hardware

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"autolight-service/internal/logger"
)

const (
	logindDest      = "org.freedesktop.login1"
	logindPath      = "/org/freedesktop/login1"
	logindManager   = "org.freedesktop.login1.Manager"
	prepareForSleep = logindManager + ".PrepareForSleep"
)

// LogindSleeper suspends the board through systemd-logind.
type LogindSleeper struct {
	logger  *logger.Logger
	conn    *dbus.Conn
	signals chan *dbus.Signal
	// Upper bound on one Suspend call when the system never goes down
	// (e.g. an inhibitor lock is held).
	maxWait time.Duration
}

func NewLogindSleeper(l *logger.Logger, maxWait time.Duration) (*LogindSleeper, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(logindPath),
		dbus.WithMatchInterface(logindManager),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return nil, fmt.Errorf("failed to watch PrepareForSleep: %w", err)
	}

	signals := make(chan *dbus.Signal, 4)
	conn.Signal(signals)

	return &LogindSleeper{
		logger:  l,
		conn:    conn,
		signals: signals,
		maxWait: maxWait,
	}, nil
}

// Suspend asks logind to suspend and returns once the system has resumed,
// an ignition edge arrives on wake, or maxWait passes.
func (s *LogindSleeper) Suspend(ctx context.Context, wake <-chan struct{}) error {
	s.drain()

	obj := s.conn.Object(logindDest, dbus.ObjectPath(logindPath))
	if call := obj.CallWithContext(ctx, logindManager+".Suspend", 0, false); call.Err != nil {
		return fmt.Errorf("logind suspend failed: %w", call.Err)
	}
	s.logger.Infof("Suspend requested")

	timer := time.NewTimer(s.maxWait)
	defer timer.Stop()

	for {
		select {
		case sig := <-s.signals:
			if sig.Name != prepareForSleep || len(sig.Body) == 0 {
				continue
			}
			if going, ok := sig.Body[0].(bool); ok && !going {
				s.logger.Infof("Resumed from suspend")
				return nil
			}
		case <-wake:
			s.logger.Infof("Ignition edge while suspending")
			return nil
		case <-timer.C:
			s.logger.Warnf("No resume seen after %s", s.maxWait)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *LogindSleeper) drain() {
	for {
		select {
		case <-s.signals:
		default:
			return
		}
	}
}

func (s *LogindSleeper) Close() error {
	s.conn.RemoveSignal(s.signals)
	return s.conn.Close()
}
