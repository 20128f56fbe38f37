package hardware

import (
	"fmt"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/tm1637"
	"periph.io/x/host/v3"

	"autolight-service/internal/display"
	"autolight-service/internal/logger"
)

const segColon = 0x80

// Segment patterns, bit 0 = a through bit 6 = g.
var segments = map[rune]byte{
	' ':            0x00,
	'-':            0x40,
	'0':            0x3F,
	'1':            0x06,
	'2':            0x5B,
	'3':            0x4F,
	'4':            0x66,
	'5':            0x6D,
	'6':            0x7D,
	'7':            0x07,
	'8':            0x7F,
	'9':            0x6F,
	'C':            0x39,
	'H':            0x76,
	'I':            0x06,
	'L':            0x38,
	'P':            0x73,
	'd':            0x5E,
	display.Degree: 0x63,
}

// EncodeFrame maps a frame to TM1637 digit bytes. The colon is wired to
// the high bit of the second digit. Unknown characters are blank.
func EncodeFrame(f display.Frame) []byte {
	out := make([]byte, len(f.Chars))
	for i, r := range f.Chars {
		out[i] = segments[r]
	}
	if f.Colon {
		out[1] |= segColon
	}
	return out
}

// SegmentDisplay is a four-digit TM1637 module on two GPIOs.
type SegmentDisplay struct {
	logger *logger.Logger
	dev    *tm1637.Dev
	last   []byte
}

func NewSegmentDisplay(l *logger.Logger) *SegmentDisplay {
	return &SegmentDisplay{logger: l}
}

func (d *SegmentDisplay) Init(clkName, dioName string) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}
	clk := gpioreg.ByName(clkName)
	if clk == nil {
		return fmt.Errorf("display clock pin %s not found", clkName)
	}
	dio := gpioreg.ByName(dioName)
	if dio == nil {
		return fmt.Errorf("display data pin %s not found", dioName)
	}
	dev, err := tm1637.New(clk, dio)
	if err != nil {
		return fmt.Errorf("failed to open TM1637: %w", err)
	}
	d.dev = dev
	d.logger.Infof("TM1637 on %s/%s", clkName, dioName)
	return nil
}

// Show writes f. Identical frames are not re-sent.
func (d *SegmentDisplay) Show(f display.Frame) error {
	if d.dev == nil {
		return fmt.Errorf("display not initialized")
	}
	seg := EncodeFrame(f)
	if string(seg) == string(d.last) {
		return nil
	}
	if _, err := d.dev.Write(seg); err != nil {
		return fmt.Errorf("failed to write display: %w", err)
	}
	d.last = seg
	return nil
}

func (d *SegmentDisplay) Off() error {
	return d.Show(display.Blank)
}

func (d *SegmentDisplay) Cleanup() {
	if d.dev != nil {
		if err := d.Off(); err != nil {
			d.logger.Warnf("Failed to blank display: %v", err)
		}
	}
}
