package ipmisdr

import (
	"fmt"
	"strings"
)

// Sensor Initialization flags (byte 11 of Table 43-1)
type SensorInit uint8

const (
	InitDefaultScanning        SensorInit = 0x01
	InitDefaultEventGeneration SensorInit = 0x02
	InitType                   SensorInit = 0x04
	InitHysteresis             SensorInit = 0x08
	InitThresholds             SensorInit = 0x10
	InitEvents                 SensorInit = 0x20
	InitScanning               SensorInit = 0x40
)

var sensorInitNames = []struct {
	flag SensorInit
	name string
}{
	{InitScanning, "scanning"},
	{InitEvents, "events"},
	{InitThresholds, "thresholds"},
	{InitHysteresis, "hysteresis"},
	{InitType, "type"},
	{InitDefaultEventGeneration, "default_event_generation"},
	{InitDefaultScanning, "default_scanning"},
}

func (s SensorInit) Has(f SensorInit) bool { return s&f == f }

func (s SensorInit) String() string {
	var names []string
	for _, n := range sensorInitNames {
		if s.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

// Hysteresis and threshold access support (byte 12 of Table 43-1)
type SupportLevel uint8

const (
	SupportNone SupportLevel = iota
	SupportReadable
	SupportReadAndSettable
	SupportFixed
)

func (s SupportLevel) String() string {
	switch s {
	case SupportNone:
		return "not_supported"
	case SupportReadable:
		return "readable"
	case SupportReadAndSettable:
		return "read_and_settable"
	case SupportFixed:
		return "fixed"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// Intersection of FullSensor and CompactSensor
type SDRCommonSensor struct {
	SDRBase

	OwnerID       uint8
	OwnerLUN      uint8
	ChannelNumber uint8
	SensorNumber  uint8

	Entity struct {
		ID       uint8 // (See Table 43-13)
		Instance uint8
		Logical  bool
	}

	Initialization SensorInit

	Capabilities struct {
		EventMessage uint8
		Threshold    SupportLevel
		Hysteresis   SupportLevel
		AutoRearm    bool
		Ignore       bool
	}

	SensorType       SensorType
	EventReadingType EventType // (See Table 42-1)

	Mask struct {
		AssertionOrLowerThreshold   uint16 // (See 15-16 byte in Table 43-1)
		DeassertionOrUpperThreshold uint16 // (See 17-18 byte in Table 43-1)
		DiscreteOrReadableThreshold uint16 // (See 19-20 byte in Table 43-1)
	}

	SensorUnits struct {
		Percentage   bool
		Modifier     uint8
		RateUnit     uint8
		Analog       AnalogDataFormat
		BaseType     UnitType
		ModifierType UnitType
	}
}

func (r *SDRCommonSensor) unmarshalCommon(c *byteCursor) error {
	r.OwnerID = c.next8()
	lun := c.next8()
	r.OwnerLUN = lun & 0x03
	r.ChannelNumber = lun & 0xf0 >> 4
	r.SensorNumber = c.next8()

	r.Entity.ID = c.next8()
	inst := c.next8()
	r.Entity.Instance = inst & 0x7f
	r.Entity.Logical = inst&0x80 != 0

	r.Initialization = SensorInit(c.next8() & 0x7f)

	caps := c.next8()
	r.Capabilities.EventMessage = caps & 0x03
	r.Capabilities.Threshold = SupportLevel(caps & 0x0c >> 2)
	r.Capabilities.Hysteresis = SupportLevel(caps & 0x30 >> 4)
	r.Capabilities.AutoRearm = caps&0x40 != 0
	r.Capabilities.Ignore = caps&0x80 != 0

	r.SensorType = SensorType(c.next8())
	r.EventReadingType = EventType(c.next8())
	r.Mask.AssertionOrLowerThreshold = c.next16()
	r.Mask.DeassertionOrUpperThreshold = c.next16()
	r.Mask.DiscreteOrReadableThreshold = c.next16()

	units := c.next8()
	r.SensorUnits.Percentage = units&0x01 != 0
	r.SensorUnits.Modifier = units & 0x06 >> 1
	r.SensorUnits.RateUnit = units & 0x38 >> 3
	r.SensorUnits.Analog = AnalogDataFormat(units & 0xc0 >> 6)
	r.SensorUnits.BaseType = UnitType(c.next8())
	r.SensorUnits.ModifierType = UnitType(c.next8())

	return c.Err()
}

// Returns `true` if sensor is threshold-base.
func (r *SDRCommonSensor) IsThresholdBaseSensor() bool {
	return r.EventReadingType.IsThreshold()
}

func (r *SDRCommonSensor) UnitString() string {
	var s string
	switch r.SensorUnits.Modifier {
	case 0x01:
		s = fmt.Sprintf("%s/%s", r.SensorUnits.BaseType, r.SensorUnits.ModifierType)
	case 0x02:
		s = fmt.Sprintf("%s * %s", r.SensorUnits.BaseType, r.SensorUnits.ModifierType)
	default:
		if r.SensorUnits.BaseType == 0 && r.SensorUnits.Percentage {
			return "percent"
		}
		s = r.SensorUnits.BaseType.String()
	}

	if r.SensorUnits.Percentage {
		s = "% " + s
	}
	return s
}

// Full Sensor Record (Section 43.1)
type SDRFullSensor struct {
	SDRCommonSensor

	Linearization Linearization
	M             uint16 // 10 bits
	Tolerance     uint8  // 6 bits
	B             int16  // 10 bits, two's complement
	Accuracy      uint16
	AccuracyExp   uint8
	RExp          int8 // K2
	BExp          int8 // K1

	AnalogFlags struct {
		NominalRead bool
		NormalMax   bool
		NormalMin   bool
	}

	NominalRead uint8
	NormalMax   uint8
	NormalMin   uint8
	SensorMax   uint8
	SensorMin   uint8

	Threshold struct {
		UpperNonRecover    uint8
		UpperCrit          uint8
		UpperNonCrit       uint8
		LowerNonRecover    uint8
		LowerCrit          uint8
		LowerNonCrit       uint8
		PositiveHysteresis uint8
		NegativeHysteresis uint8
	}

	OEM      uint8
	IDType   uint8
	IDLength uint8
	IDString []byte
}

func (r *SDRFullSensor) Unmarshal(buf []byte) ([]byte, error) {
	if err := sdrValidateLength("SDRFullSensor", buf, sdrFullSensorSize); err != nil {
		return nil, err
	}

	c := newByteCursor(buf)
	if err := r.unmarshalCommon(c); err != nil {
		return nil, err
	}

	r.Linearization = Linearization(c.next8() & 0x7f)
	m := c.next8()
	mTol := c.next8()
	r.M = uint16(m) | uint16(mTol&0xc0)<<2
	r.Tolerance = mTol & 0x3f
	b := c.next8()
	bAcc := c.next8()
	accExp := c.next8()
	r.B = tos16(uint16(b)|uint16(bAcc&0xc0)<<2, 10)
	r.Accuracy = uint16(bAcc&0x3f) | uint16(accExp&0xf0)<<2
	r.AccuracyExp = accExp & 0x0c >> 2
	exp := c.next8()
	r.RExp = int8(tos16(uint16(exp&0xf0)>>4, 4))
	r.BExp = int8(tos16(uint16(exp&0x0f), 4))

	flags := c.next8()
	r.AnalogFlags.NominalRead = flags&0x01 != 0
	r.AnalogFlags.NormalMax = flags&0x02 != 0
	r.AnalogFlags.NormalMin = flags&0x04 != 0
	r.NominalRead = c.next8()
	r.NormalMax = c.next8()
	r.NormalMin = c.next8()
	r.SensorMax = c.next8()
	r.SensorMin = c.next8()

	r.Threshold.UpperNonRecover = c.next8()
	r.Threshold.UpperCrit = c.next8()
	r.Threshold.UpperNonCrit = c.next8()
	r.Threshold.LowerNonRecover = c.next8()
	r.Threshold.LowerCrit = c.next8()
	r.Threshold.LowerNonCrit = c.next8()
	r.Threshold.PositiveHysteresis = c.next8()
	r.Threshold.NegativeHysteresis = c.next8()
	c.skip(2) // reserved

	r.OEM = c.next8()
	tl := idTypeLength(c.next8())
	if err := c.Err(); err != nil {
		return nil, err
	}
	r.IDType = tl.Type()
	r.IDLength = tl.Length()
	r.IDString = tl.clip(c.Rest())

	return nil, nil
}

func (r *SDRFullSensor) SensorID() string {
	return decodeSensorID(r.IDType, r.IDString)
}

// Returns `true` if sensor has an analog reading.
func (r *SDRFullSensor) IsAnalogReading() bool {
	return r.SensorUnits.Analog != AnalogNone && r.IsThresholdBaseSensor()
}

func (r *SDRFullSensor) String() string {
	return fmt.Sprintf(`["%-16s"] [%s]`, r.SensorID(), r.SDRBase.String())
}

// Compact Sensor Record (Section 43.2)
type SDRCompactSensor struct {
	SDRCommonSensor

	RecordSharing      uint16
	PositiveHysteresis uint8
	NegativeHysteresis uint8

	OEM      uint8
	IDType   uint8
	IDLength uint8
	IDString []byte
}

func (r *SDRCompactSensor) Unmarshal(buf []byte) ([]byte, error) {
	if err := sdrValidateLength("SDRCompactSensor", buf, sdrCompactSensorSize); err != nil {
		return nil, err
	}

	c := newByteCursor(buf)
	if err := r.unmarshalCommon(c); err != nil {
		return nil, err
	}

	r.RecordSharing = c.next16()
	r.PositiveHysteresis = c.next8()
	r.NegativeHysteresis = c.next8()
	c.skip(3) // reserved
	r.OEM = c.next8()
	tl := idTypeLength(c.next8())
	if err := c.Err(); err != nil {
		return nil, err
	}
	r.IDType = tl.Type()
	r.IDLength = tl.Length()
	r.IDString = tl.clip(c.Rest())

	return nil, nil
}

// Number of sensors sharing this record
func (r *SDRCompactSensor) ShareCount() uint8 {
	return uint8(r.RecordSharing & 0x0f)
}

func (r *SDRCompactSensor) SensorID() string {
	return decodeSensorID(r.IDType, r.IDString)
}

func (r *SDRCompactSensor) String() string {
	return fmt.Sprintf(`["%-16s"] [%s]`, r.SensorID(), r.SDRBase.String())
}

// Event-Only Sensor Record (Section 43.3). Only the header is decoded.
type SDREventOnlySensor struct {
	SDRBase
}

func (r *SDREventOnlySensor) Unmarshal(buf []byte) ([]byte, error) {
	return nil, nil
}

func (r *SDREventOnlySensor) String() string {
	return fmt.Sprintf("Event-Only Sensor 0x%04x: body decoding not supported", r.ID())
}
