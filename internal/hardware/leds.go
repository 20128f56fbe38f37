package hardware

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"autolight-service/internal/logger"
	"autolight-service/internal/settings"
)

// WS2812 timing is produced by clocking SPI at 2.4 MHz and sending three
// SPI bits per LED bit: 110 for one, 100 for zero.
const (
	ws2812Freq        = 2400 * physic.KiloHertz
	ws2812BytesPerLed = 9
	ws2812ResetBytes  = 20 // > 50us low
)

// StripLeds drives a short chain of WS2812 LEDs on an SPI MOSI line.
type StripLeds struct {
	logger *logger.Logger
	port   spi.PortCloser
	conn   spi.Conn
	count  int
	lock   sync.Mutex
}

func NewStripLeds(l *logger.Logger, count int) *StripLeds {
	return &StripLeds{logger: l, count: count}
}

// Init opens the SPI port. An empty name picks the first port.
func (s *StripLeds) Init(portName string) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return fmt.Errorf("failed to open SPI port %q: %w", portName, err)
	}
	conn, err := port.Connect(ws2812Freq, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return fmt.Errorf("failed to configure SPI: %w", err)
	}
	s.port = port
	s.conn = conn
	s.logger.Infof("WS2812 strip on SPI %q, %d LEDs", portName, s.count)
	return nil
}

// SetColors writes the whole chain. Missing entries are off.
func (s *StripLeds) SetColors(colors []settings.Color) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.conn == nil {
		return fmt.Errorf("LED strip not initialized")
	}

	frame := make([]settings.Color, s.count)
	copy(frame, colors)
	if err := s.conn.Tx(EncodeWS2812(frame), nil); err != nil {
		return fmt.Errorf("failed to write LEDs: %w", err)
	}
	return nil
}

func (s *StripLeds) Off() error {
	return s.SetColors(nil)
}

func (s *StripLeds) Cleanup() {
	if s.conn != nil {
		if err := s.Off(); err != nil {
			s.logger.Warnf("Failed to blank LEDs: %v", err)
		}
	}
	if s.port != nil {
		s.port.Close()
	}
}

// EncodeWS2812 converts colors to the SPI bit stream in GRB order followed
// by the reset gap.
func EncodeWS2812(colors []settings.Color) []byte {
	out := make([]byte, 0, len(colors)*ws2812BytesPerLed+ws2812ResetBytes)
	var acc uint32
	var bits uint

	for _, c := range colors {
		for _, b := range [3]uint8{c.G, c.R, c.B} {
			for i := 7; i >= 0; i-- {
				pattern := uint32(0b100)
				if b&(1<<uint(i)) != 0 {
					pattern = 0b110
				}
				acc = acc<<3 | pattern
				bits += 3
				for bits >= 8 {
					bits -= 8
					out = append(out, byte(acc>>bits))
				}
			}
		}
	}
	return append(out, make([]byte, ws2812ResetBytes)...)
}
