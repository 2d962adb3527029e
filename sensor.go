package ipmisdr

import (
	"fmt"
)

// Threshold status of a threshold-base sensor
type ThresholdStatus string

const (
	ThresholdStatusOK  ThresholdStatus = "ok"  // Normal operating ranges
	ThresholdStatusLNR ThresholdStatus = "lnr" // Lower Non-Recoverable
	ThresholdStatusLCR ThresholdStatus = "lcr" // Lower Critical
	ThresholdStatusLNC ThresholdStatus = "lnc" // Lower Non-Critical
	ThresholdStatusUNR ThresholdStatus = "unr" // Upper Non-Recoverable
	ThresholdStatusUCR ThresholdStatus = "ucr" // Upper Critical
	ThresholdStatusUNC ThresholdStatus = "unc" // Upper Non-Critical
)

// Most severe first. The bits are those of the Set Sensor Thresholds mask.
var thresholdSeverity = []struct {
	mask   uint8
	status ThresholdStatus
}{
	{thresholdMaskLNR, ThresholdStatusLNR},
	{thresholdMaskUNR, ThresholdStatusUNR},
	{thresholdMaskLCR, ThresholdStatusLCR},
	{thresholdMaskUCR, ThresholdStatusUCR},
	{thresholdMaskLNC, ThresholdStatusLNC},
	{thresholdMaskUNC, ThresholdStatusUNC},
}

// Returns the most severe threshold crossed in the reading states.
func NewThresholdStatus(states uint8) ThresholdStatus {
	for _, t := range thresholdSeverity {
		if states&t.mask != 0 {
			return t.status
		}
	}
	return ThresholdStatusOK
}

// Sensor Type (Table 42-3)
type SensorType uint8

const (
	SensorTypeTemperature SensorType = 0x01
	SensorTypeVoltage     SensorType = 0x02
	SensorTypeCurrent     SensorType = 0x03
	SensorTypeFan         SensorType = 0x04
	SensorTypeProcessor   SensorType = 0x07
	SensorTypePowerSupply SensorType = 0x08
	SensorTypeMemory      SensorType = 0x0c
	SensorTypeOEMMin      SensorType = 0xc0
)

var sensorTypeDescriptions = []string{
	"reserved",
	"Temperature",
	"Voltage",
	"Current",
	"Fan",
	"Physical Security",
	"Platform Security",
	"Processor",
	"Power Supply",
	"Power Unit",
	"Cooling Device",
	"Other Units-based Sensor",
	"Memory",
	"Drive Slot",
	"POST Memory Resize",
	"System Firmware",
	"Event Logging Disabled",
	"Watchdog 1",
	"System Event",
	"Critical Interrupt",
	"Button / Switch",
	"Module / Board",
	"Microcontroller",
	"Add-in Card",
	"Chassis",
	"Chip Set",
	"Other FRU",
	"Cable / Interconnect",
	"Terminator",
	"System Boot Initiated",
	"Boot Error",
	"OS Boot",
	"OS Stop",
	"Slot / Connector",
	"System ACPI Power State",
	"Watchdog 2",
	"Platform Alert",
	"Entity Presence",
	"Monitor ASIC",
	"LAN",
	"Management Subsystem Health",
	"Battery",
	"Session Audit",
	"Version Change",
	"FRU State",
}

func (t SensorType) String() string {
	switch i := int(t); {
	case i < len(sensorTypeDescriptions):
		return sensorTypeDescriptions[i]
	case t >= SensorTypeOEMMin:
		return fmt.Sprintf("OEM(0x%02x)", i)
	default:
		return fmt.Sprintf("Reserved(0x%02x)", i)
	}
}

// Sensor Unit Type (Section 43.17)
type UnitType uint8

const (
	UnitUnspecified UnitType = 0
	UnitDegreesC    UnitType = 1
	UnitVolts       UnitType = 4
	UnitAmps        UnitType = 5
	UnitWatts       UnitType = 6
	UnitRPM         UnitType = 18
)

var unitDescriptions = []string{
	"unspecified",
	"degrees C",
	"degrees F",
	"degrees K",
	"Volts",
	"Amps",
	"Watts",
	"Joules",
	"Coulombs",
	"VA",
	"Nits",
	"lumen",
	"lux",
	"Candela",
	"kPa",
	"PSI",
	"Newton",
	"CFM",
	"RPM",
	"Hz",
	"microsecond",
	"millisecond",
	"second",
	"minute",
	"hour",
	"day",
	"week",
	"mil",
	"inches",
	"feet",
	"cu in",
	"cu feet",
	"mm",
	"cm",
	"m",
	"cu cm",
	"cu m",
	"liters",
	"fluid ounce",
	"radians",
	"steradians",
	"revolutions",
	"cycles",
	"gravities",
	"ounce",
	"pound",
	"ft-lb",
	"oz-in",
	"gauss",
	"gilberts",
	"henry",
	"millihenry",
	"farad",
	"microfarad",
	"ohms",
	"siemens",
	"mole",
	"becquerel",
	"PPM",
	"reserved",
	"Decibels",
	"DbA",
	"DbC",
	"gray",
	"sievert",
	"color temp deg K",
	"bit",
	"kilobit",
	"megabit",
	"gigabit",
	"byte",
	"kilobyte",
	"megabyte",
	"gigabyte",
	"word",
	"dword",
	"qword",
	"line",
	"hit",
	"miss",
	"retry",
	"reset",
	"overflow",
	"underrun",
	"collision",
	"packets",
	"messages",
	"characters",
	"error",
	"correctable error",
	"uncorrectable error",
}

func (u UnitType) String() string {
	if i := int(u); i < len(unitDescriptions) {
		return unitDescriptions[i]
	}
	return fmt.Sprintf("unknown(%d)", uint8(u))
}
