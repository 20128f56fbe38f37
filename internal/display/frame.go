package display

import (
	"fmt"
	"math"
	"time"

	"autolight-service/internal/clock"
	"autolight-service/internal/types"
)

// Degree is drawn as the upper segment box.
const Degree = '°'

// Frame is one four-character screen with the center colon.
type Frame struct {
	Chars [4]rune
	Colon bool
}

func (f Frame) String() string {
	s := string(f.Chars[:2])
	if f.Colon {
		s += ":"
	} else {
		s += " "
	}
	return s + string(f.Chars[2:])
}

func frameOf(s string, colon bool) Frame {
	var f Frame
	r := []rune(fmt.Sprintf("%4s", s))
	copy(f.Chars[:], r[len(r)-4:])
	f.Colon = colon
	return f
}

// Blank is the all-off frame.
var Blank = Frame{Chars: [4]rune{' ', ' ', ' ', ' '}}

// Render draws the current screen.
func (n *Navigator) Render(now time.Time, r clock.Reading) Frame {
	visible := n.blinkVisible(now)

	switch n.mode {
	case types.DisplayShowTime:
		if !r.Valid {
			return frameOf("----", true)
		}
		return frameOf(fmt.Sprintf("%02d%02d", r.Hour, r.Minute), r.Second%2 == 0)

	case types.DisplayShowTemp:
		if !r.TempValid {
			return frameOf(fmt.Sprintf("--%cC", Degree), false)
		}
		t := int(math.Round(r.Temperature))
		if t > 99 {
			return frameOf(fmt.Sprintf("HI%cC", Degree), false)
		}
		if t < -99 {
			t = -99
		}
		if t <= -10 {
			return frameOf(fmt.Sprintf("%d%c", t, Degree), false)
		}
		return frameOf(fmt.Sprintf("%2d%cC", t, Degree), false)

	case types.DisplaySetHour:
		h := fmt.Sprintf("%02d", n.hour)
		if !visible {
			h = "  "
		}
		return frameOf(fmt.Sprintf("%s%02d", h, n.minute), true)

	case types.DisplaySetMinute:
		m := fmt.Sprintf("%02d", n.minute)
		if !visible {
			m = "  "
		}
		return frameOf(fmt.Sprintf("%02d%s", n.hour, m), true)

	case types.DisplaySetTimeout:
		return frameOf(fmt.Sprintf("P%3d", n.pending.SleepTimeoutMinutes), false)
	case types.DisplaySetTurnOnDelay:
		return frameOf(fmt.Sprintf("d%3d", n.pending.TurnOnDelaySeconds), false)
	case types.DisplaySetLightThreshold:
		return frameOf(fmt.Sprintf("L%3d", n.pending.LightThreshold), false)
	case types.DisplaySetColor1:
		return frameOf(fmt.Sprintf("C1 %d", n.pending.Color1), true)
	case types.DisplaySetColor2:
		return frameOf(fmt.Sprintf("C2 %d", n.pending.Color2), true)
	}
	return Blank
}
