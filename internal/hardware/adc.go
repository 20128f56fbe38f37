package hardware

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const iioRoot = "/sys/bus/iio/devices"

// ReadAdcValue reads one raw IIO channel below root.
func ReadAdcValue(root, device string, channel int) (int, error) {
	path := fmt.Sprintf("%s/%s/in_voltage%d_raw", root, device, channel)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return -1, fmt.Errorf("ADC sysfs not found: %s", path)
		}
		return -1, fmt.Errorf("failed reading %s: %w", path, err)
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return -1, fmt.Errorf("failed parsing ADC value: %w", err)
	}
	return value, nil
}

func InRange(v, min, max int) bool {
	return v >= min && v <= max
}

// LightSensor reads the ambient light divider through the IIO ADC. Lower
// readings are darker.
type LightSensor struct {
	root    string
	device  string
	channel int
	max     int
}

func NewLightSensor(device string, channel, max int) *LightSensor {
	return &LightSensor{
		root:    iioRoot,
		device:  device,
		channel: channel,
		max:     max,
	}
}

// ReadLight returns the raw ADC count. Values outside the converter range
// are reported as errors so a floating input is not taken as daylight.
func (s *LightSensor) ReadLight() (int, error) {
	v, err := ReadAdcValue(s.root, s.device, s.channel)
	if err != nil {
		return 0, err
	}
	if s.max > 0 && !InRange(v, 0, s.max) {
		return 0, fmt.Errorf("light reading %d outside 0..%d", v, s.max)
	}
	return v, nil
}
