package hardware

const (
	Consumer = "autolight-service"

	// Line names used in the pin map and by the core
	LineIgnition  = "ignition"
	LineEngineRun = "engine_run"
	LineMode1     = "btn_mode1"
	LineMode2     = "btn_mode2"
	LineMode3     = "btn_mode3"
	LineSet       = "btn_set"
	LineUp        = "btn_up"
	LineFogRelay  = "relay_fog"
	LineLowRelay  = "relay_low_beam"

	IndicatorLedCount = 3

	AdcDevice  = "iio:device0"
	AdcChannel = 0

	RtcDevice = "/dev/rtc0"
	RtcHwmon  = "/sys/class/rtc/rtc0/device/hwmon/hwmon*/temp1_input"

	// periph.io pin names for the TM1637
	DisplayClkPin = "GPIO23"
	DisplayDioPin = "GPIO24"
)

// Pin locates a GPIO line on a chip. ActiveLow inputs read true when
// pulled to ground.
type Pin struct {
	Chip      int  `yaml:"chip"`
	Line      int  `yaml:"line"`
	ActiveLow bool `yaml:"active_low"`
	PullUp    bool `yaml:"pull_up"`
}

// InputNames lists the polled inputs. The ignition line is requested
// separately with an edge handler.
var InputNames = []string{LineEngineRun, LineMode1, LineMode2, LineMode3, LineSet, LineUp}

var OutputNames = []string{LineFogRelay, LineLowRelay}

// DefaultPins is the stock wiring of the controller board.
var DefaultPins = map[string]Pin{
	LineIgnition:  {Chip: 0, Line: 17},
	LineEngineRun: {Chip: 0, Line: 27},
	LineMode1:     {Chip: 0, Line: 5, ActiveLow: true, PullUp: true},
	LineMode2:     {Chip: 0, Line: 6, ActiveLow: true, PullUp: true},
	LineMode3:     {Chip: 0, Line: 13, ActiveLow: true, PullUp: true},
	LineSet:       {Chip: 0, Line: 19, ActiveLow: true, PullUp: true},
	LineUp:        {Chip: 0, Line: 26, ActiveLow: true, PullUp: true},
	LineFogRelay:  {Chip: 0, Line: 20},
	LineLowRelay:  {Chip: 0, Line: 21},
}
