package hardware

import (
	"os"
	"path/filepath"
	"testing"
)

const testDevice = "iio:device0"

// newTestSensor places content in channel 0 of a fake IIO tree.
func newTestSensor(t *testing.T, content string) *LightSensor {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, testDevice)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "in_voltage0_raw"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return &LightSensor{root: root, device: testDevice, channel: 0, max: 1023}
}

func TestLightSensorRead(t *testing.T) {
	s := newTestSensor(t, "512\n")
	v, err := s.ReadLight()
	if err != nil {
		t.Fatalf("ReadLight failed: %v", err)
	}
	if v != 512 {
		t.Errorf("Expected 512, got %d", v)
	}
}

func TestLightSensorOutOfRange(t *testing.T) {
	s := newTestSensor(t, "4095")
	if _, err := s.ReadLight(); err == nil {
		t.Error("Expected range error")
	}
}

func TestLightSensorGarbage(t *testing.T) {
	s := newTestSensor(t, "abc")
	if _, err := s.ReadLight(); err == nil {
		t.Error("Expected parse error")
	}
}

func TestLightSensorMissingChannel(t *testing.T) {
	s := newTestSensor(t, "512")
	s.channel = 3
	if _, err := s.ReadLight(); err == nil {
		t.Error("Expected error for missing sysfs file")
	}
}

func TestNewLightSensorUsesIIORoot(t *testing.T) {
	s := NewLightSensor(testDevice, 2, 4095)
	if s.root != iioRoot || s.device != testDevice || s.channel != 2 {
		t.Errorf("Unexpected sensor %+v", s)
	}
}
