package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"0", LogLevelNone},
		{"error", LogLevelError},
		{"WARN", LogLevelWarning},
		{"3", LogLevelInfo},
		{"debug", LogLevelDebug},
		{"bogus", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTaggedOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(log.New(&buf, "", 0), LogLevelWarning).WithTag("power")

	l.Infof("hidden")
	l.Debugf("hidden")
	l.Warnf("countdown %d", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info/debug leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "[power] WARN: countdown 3") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestNilLoggerDiscards(t *testing.T) {
	l := NewLogger(nil, LogLevelDebug)
	l.Errorf("nothing to see %s", "here")
}
