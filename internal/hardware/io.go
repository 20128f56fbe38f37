package hardware

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/atomic"

	"autolight-service/internal/logger"
)

type LinuxHardwareIO struct {
	logger *logger.Logger
	pins   map[string]Pin
	chips  map[int]*gpiocdev.Chip
	lines  map[string]*gpiocdev.Line
	mu     sync.RWMutex

	// Written by the ignition edge handler, read by the main loop.
	ignition *atomic.Bool
	woke     *atomic.Bool
	wake     chan struct{}
}

func NewLinuxHardwareIO(l *logger.Logger, pins map[string]Pin) *LinuxHardwareIO {
	return &LinuxHardwareIO{
		logger:   l,
		pins:     pins,
		chips:    make(map[int]*gpiocdev.Chip),
		lines:    make(map[string]*gpiocdev.Line),
		ignition: atomic.NewBool(false),
		woke:     atomic.NewBool(false),
		wake:     make(chan struct{}, 1),
	}
}

func (io *LinuxHardwareIO) chip(n int) (*gpiocdev.Chip, error) {
	if c, ok := io.chips[n]; ok {
		return c, nil
	}
	c, err := gpiocdev.NewChip(fmt.Sprintf("gpiochip%d", n))
	if err != nil {
		return nil, fmt.Errorf("failed to open GPIO chip %d: %w", n, err)
	}
	io.chips[n] = c
	return c, nil
}

func (io *LinuxHardwareIO) request(name string, opts ...gpiocdev.LineReqOption) error {
	pin, ok := io.pins[name]
	if !ok {
		return fmt.Errorf("no pin configured for %s", name)
	}
	chip, err := io.chip(pin.Chip)
	if err != nil {
		return err
	}
	opts = append(opts, gpiocdev.WithConsumer(Consumer))
	if pin.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	if pin.PullUp {
		opts = append(opts, gpiocdev.WithPullUp)
	}
	line, err := chip.RequestLine(pin.Line, opts...)
	if err != nil {
		return fmt.Errorf("failed to request GPIO line %s (%d:%d): %w", name, pin.Chip, pin.Line, err)
	}
	io.lines[name] = line
	io.logger.Debugf("Configured %s: chip=%d, line=%d", name, pin.Chip, pin.Line)
	return nil
}

// Initialize requests every line. Relays start de-energized.
func (io *LinuxHardwareIO) Initialize() error {
	io.mu.Lock()
	defer io.mu.Unlock()

	io.logger.Infof("Initializing GPIO")

	for _, name := range OutputNames {
		if err := io.request(name, gpiocdev.AsOutput(0)); err != nil {
			return err
		}
	}
	for _, name := range InputNames {
		if err := io.request(name, gpiocdev.AsInput); err != nil {
			return err
		}
	}

	err := io.request(LineIgnition,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(io.handleIgnition))
	if err != nil {
		return err
	}

	v, err := io.lines[LineIgnition].Value()
	if err != nil {
		return fmt.Errorf("failed to read ignition: %w", err)
	}
	io.ignition.Store(v == 1)
	io.logger.Infof("Initial ignition level: %t", v == 1)
	return nil
}

// handleIgnition runs on the gpiocdev event goroutine. It only records the
// level and never blocks.
func (io *LinuxHardwareIO) handleIgnition(evt gpiocdev.LineEvent) {
	io.ignition.Store(evt.Type == gpiocdev.LineEventRisingEdge)
	io.woke.Store(true)
	select {
	case io.wake <- struct{}{}:
	default:
	}
}

// Ignition returns the level recorded by the edge handler.
func (io *LinuxHardwareIO) Ignition() bool {
	return io.ignition.Load()
}

// TakeWoke reports and clears the edge-seen flag.
func (io *LinuxHardwareIO) TakeWoke() bool {
	return io.woke.Swap(false)
}

// WakeChan receives after any ignition edge.
func (io *LinuxHardwareIO) WakeChan() <-chan struct{} {
	return io.wake
}

// RefreshIgnition re-reads the ignition level directly. An edge shorter
// than the event latency may leave the recorded level stale.
func (io *LinuxHardwareIO) RefreshIgnition() (bool, error) {
	v, err := io.ReadDigitalInput(LineIgnition)
	if err != nil {
		return io.ignition.Load(), err
	}
	io.ignition.Store(v)
	return v, nil
}

func (io *LinuxHardwareIO) ReadDigitalInput(name string) (bool, error) {
	io.mu.RLock()
	line, ok := io.lines[name]
	io.mu.RUnlock()

	if !ok {
		return false, fmt.Errorf("unknown input channel: %s", name)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return v == 1, nil
}

func (io *LinuxHardwareIO) WriteDigitalOutput(name string, value bool) error {
	io.mu.RLock()
	line, ok := io.lines[name]
	io.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown digital output channel: %s", name)
	}

	val := 0
	if value {
		val = 1
	}
	if err := line.SetValue(val); err != nil {
		return fmt.Errorf("failed to set DO %s=%v: %w", name, value, err)
	}

	io.logger.Debugf("Set DO %s=%v", name, value)
	return nil
}

func (io *LinuxHardwareIO) Cleanup() {
	io.mu.Lock()
	defer io.mu.Unlock()

	io.logger.Infof("Cleaning up GPIO")

	for _, name := range OutputNames {
		if line, ok := io.lines[name]; ok {
			line.SetValue(0)
		}
	}
	for name, line := range io.lines {
		line.Close()
		io.logger.Debugf("Closed GPIO line for %s", name)
	}
	for id, chip := range io.chips {
		chip.Close()
		io.logger.Debugf("Closed GPIO chip %d", id)
	}
	io.lines = make(map[string]*gpiocdev.Line)
	io.chips = make(map[int]*gpiocdev.Chip)
}
